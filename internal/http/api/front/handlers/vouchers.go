package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

// VoucherFrontHandler handles voucher endpoints for customers.
type VoucherFrontHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewVoucherFrontHandler constructs a VoucherFrontHandler.
func NewVoucherFrontHandler(db *gorm.DB, l *ledger.Ledger) *VoucherFrontHandler {
	return &VoucherFrontHandler{db: db, ledger: l}
}

// voucherDTO defines the voucher response payload.
type voucherDTO struct {
	ID             uint64     `json:"id"`
	SubscriptionID uint64     `json:"subscription_id"`
	Status         string     `json:"status"`
	MealType       string     `json:"meal_type"`
	ExpiryDate     time.Time  `json:"expiry_date"`
	OrderID        *uint64    `json:"order_id,omitempty"`
	RedeemedAt     *time.Time `json:"redeemed_at,omitempty"`
	RestoredAt     *time.Time `json:"restored_at,omitempty"`
}

// List returns the current user's vouchers, optionally filtered by status.
func (h *VoucherFrontHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []models.Voucher
	if errFind := query.Order("expiry_date ASC, id ASC").Limit(500).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query vouchers failed"})
		return
	}
	out := make([]voucherDTO, 0, len(rows))
	for i := range rows {
		v := &rows[i]
		out = append(out, voucherDTO{
			ID:             v.ID,
			SubscriptionID: v.SubscriptionID,
			Status:         v.Status,
			MealType:       v.MealType,
			ExpiryDate:     v.ExpiryDate,
			OrderID:        v.OrderID,
			RedeemedAt:     v.RedeemedAt,
			RestoredAt:     v.RestoredAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": out})
}

// Available returns the count of vouchers the user could spend right now
// in the given meal window.
func (h *VoucherFrontHandler) Available(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	window := strings.ToUpper(strings.TrimSpace(c.DefaultQuery("window", cutoff.WindowLunch)))
	if !cutoff.ValidWindow(window) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be LUNCH or DINNER"})
		return
	}

	count, errCount := h.ledger.AvailableCount(c.Request.Context(), userID, window)
	if errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count vouchers failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": window, "available": count})
}
