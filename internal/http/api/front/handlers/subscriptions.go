package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

// SubscriptionFrontHandler handles subscription preference endpoints.
type SubscriptionFrontHandler struct {
	db *gorm.DB
}

// NewSubscriptionFrontHandler constructs a SubscriptionFrontHandler.
func NewSubscriptionFrontHandler(db *gorm.DB) *SubscriptionFrontHandler {
	return &SubscriptionFrontHandler{db: db}
}

// subscriptionDTO defines the subscription response payload.
type subscriptionDTO struct {
	ID                  uint64     `json:"id"`
	Status              string     `json:"status"`
	TotalVouchersIssued int        `json:"total_vouchers_issued"`
	VouchersUsed        int        `json:"vouchers_used"`
	VoucherExpiryDate   time.Time  `json:"voucher_expiry_date"`
	AutoOrderingEnabled bool       `json:"auto_ordering_enabled"`
	IsPaused            bool       `json:"is_paused"`
	PausedUntil         *time.Time `json:"paused_until,omitempty"`
	SkippedSlots        []string   `json:"skipped_slots"`
	DefaultMealType     string     `json:"default_meal_type"`
	DefaultKitchenID    *uint64    `json:"default_kitchen_id,omitempty"`
	DefaultAddressID    *uint64    `json:"default_address_id,omitempty"`
}

func toSubscriptionDTO(s *models.Subscription) subscriptionDTO {
	var slots []string
	if len(s.SkippedSlots) > 0 {
		_ = json.Unmarshal(s.SkippedSlots, &slots)
	}
	if slots == nil {
		slots = []string{}
	}
	return subscriptionDTO{
		ID:                  s.ID,
		Status:              s.Status,
		TotalVouchersIssued: s.TotalVouchersIssued,
		VouchersUsed:        s.VouchersUsed,
		VoucherExpiryDate:   s.VoucherExpiryDate,
		AutoOrderingEnabled: s.AutoOrderingEnabled,
		IsPaused:            s.IsPaused,
		PausedUntil:         s.PausedUntil,
		SkippedSlots:        slots,
		DefaultMealType:     s.DefaultMealType,
		DefaultKitchenID:    s.DefaultKitchenID,
		DefaultAddressID:    s.DefaultAddressID,
	}
}

// List returns the current user's subscriptions.
func (h *SubscriptionFrontHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var rows []models.Subscription
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query subscriptions failed"})
		return
	}
	out := make([]subscriptionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toSubscriptionDTO(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": out})
}

// autoOrderingRequest defines the request body for the auto-order toggle.
type autoOrderingRequest struct {
	Enabled bool `json:"enabled"`
}

// SetAutoOrdering toggles auto-ordering for one subscription.
func (h *SubscriptionFrontHandler) SetAutoOrdering(c *gin.Context) {
	sub, ok := h.ownedSubscription(c)
	if !ok {
		return
	}
	var body autoOrderingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(sub).
		Update("auto_ordering_enabled", body.Enabled).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	sub.AutoOrderingEnabled = body.Enabled
	c.JSON(http.StatusOK, gin.H{"subscription": toSubscriptionDTO(sub)})
}

// pauseRequest defines the request body for pausing auto-ordering.
type pauseRequest struct {
	// Until is an optional "YYYY-MM-DD" date ending the pause.
	Until string `json:"until"`
}

// Pause pauses auto-ordering, optionally until a date.
func (h *SubscriptionFrontHandler) Pause(c *gin.Context) {
	sub, ok := h.ownedSubscription(c)
	if !ok {
		return
	}
	var body pauseRequest
	// An empty body means an open-ended pause.
	if errBind := c.ShouldBindJSON(&body); errBind != nil && !errors.Is(errBind, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	var until *time.Time
	if strings.TrimSpace(body.Until) != "" {
		parsed, errParse := time.Parse("2006-01-02", body.Until)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "until must be YYYY-MM-DD"})
			return
		}
		until = &parsed
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(sub).Updates(map[string]any{
		"is_paused":    true,
		"paused_until": until,
	}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	sub.IsPaused = true
	sub.PausedUntil = until
	c.JSON(http.StatusOK, gin.H{"subscription": toSubscriptionDTO(sub)})
}

// Resume clears the pause.
func (h *SubscriptionFrontHandler) Resume(c *gin.Context) {
	sub, ok := h.ownedSubscription(c)
	if !ok {
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(sub).Updates(map[string]any{
		"is_paused":    false,
		"paused_until": nil,
	}).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	sub.IsPaused = false
	sub.PausedUntil = nil
	c.JSON(http.StatusOK, gin.H{"subscription": toSubscriptionDTO(sub)})
}

// skipSlotRequest defines the request body for skipping a meal slot.
type skipSlotRequest struct {
	Date   string `json:"date"`   // "YYYY-MM-DD"
	Window string `json:"window"` // LUNCH or DINNER
	Skip   bool   `json:"skip"`   // false removes the slot from the list.
}

// SkipSlot adds or removes one "date:window" slot from the skip list.
func (h *SubscriptionFrontHandler) SkipSlot(c *gin.Context) {
	sub, ok := h.ownedSubscription(c)
	if !ok {
		return
	}
	var body skipSlotRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	window := strings.ToUpper(strings.TrimSpace(body.Window))
	if !cutoff.ValidWindow(window) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be LUNCH or DINNER"})
		return
	}
	if _, errParse := time.Parse("2006-01-02", body.Date); errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	slot := body.Date + ":" + window

	var slots []string
	if len(sub.SkippedSlots) > 0 {
		_ = json.Unmarshal(sub.SkippedSlots, &slots)
	}
	next := make([]string, 0, len(slots)+1)
	for _, s := range slots {
		if s != slot {
			next = append(next, s)
		}
	}
	if body.Skip {
		next = append(next, slot)
	}
	encoded, errMarshal := json.Marshal(next)
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode slots failed"})
		return
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(sub).
		Update("skipped_slots", datatypes.JSON(encoded)).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	sub.SkippedSlots = datatypes.JSON(encoded)
	c.JSON(http.StatusOK, gin.H{"subscription": toSubscriptionDTO(sub)})
}

// ownedSubscription loads the path subscription and checks ownership,
// writing the error response itself on failure.
func (h *SubscriptionFrontHandler) ownedSubscription(c *gin.Context) (*models.Subscription, bool) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	subID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || subID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return nil, false
	}
	var sub models.Subscription
	errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", subID, userID).
		First(&sub).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return nil, false
	}
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query subscription failed"})
		return nil, false
	}
	return &sub, true
}
