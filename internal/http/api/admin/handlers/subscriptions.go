package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

// SubscriptionAdminHandler handles subscription activation.
type SubscriptionAdminHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewSubscriptionAdminHandler constructs a SubscriptionAdminHandler.
func NewSubscriptionAdminHandler(db *gorm.DB, l *ledger.Ledger) *SubscriptionAdminHandler {
	return &SubscriptionAdminHandler{db: db, ledger: l}
}

// activateRequest defines the request body for subscription activation.
type activateRequest struct {
	UserID           uint64  `json:"user_id"`
	PlanID           uint64  `json:"plan_id"`
	TotalVouchers    int     `json:"total_vouchers"`
	ExpiryDate       string  `json:"expiry_date"` // "YYYY-MM-DD"
	MealType         string  `json:"meal_type"`   // LUNCH, DINNER or BOTH; default BOTH.
	AutoOrdering     bool    `json:"auto_ordering"`
	DefaultKitchenID *uint64 `json:"default_kitchen_id"`
	DefaultAddressID *uint64 `json:"default_address_id"`
}

// Activate creates an active subscription and mints its voucher pool.
func (h *SubscriptionAdminHandler) Activate(c *gin.Context) {
	var body activateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.UserID == 0 || body.PlanID == 0 || body.TotalVouchers <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, plan_id and total_vouchers are required"})
		return
	}
	expiry, errParse := time.Parse("2006-01-02", body.ExpiryDate)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry_date must be YYYY-MM-DD"})
		return
	}
	mealType := strings.ToUpper(strings.TrimSpace(body.MealType))
	if mealType == "" {
		mealType = models.MealPrefBoth
	}
	if mealType != models.MealPrefLunch && mealType != models.MealPrefDinner && mealType != models.MealPrefBoth {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meal_type must be LUNCH, DINNER or BOTH"})
		return
	}

	sub := models.Subscription{
		UserID:              body.UserID,
		PlanID:              body.PlanID,
		Status:              models.SubscriptionStatusActive,
		TotalVouchersIssued: body.TotalVouchers,
		VoucherExpiryDate:   expiry.AddDate(0, 0, 1), // vouchers spendable through the expiry date
		AutoOrderingEnabled: body.AutoOrdering,
		DefaultMealType:     mealType,
		DefaultKitchenID:    body.DefaultKitchenID,
		DefaultAddressID:    body.DefaultAddressID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&sub).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create subscription failed"})
		return
	}

	voucherMeal := models.VoucherMealAny
	switch mealType {
	case models.MealPrefLunch:
		voucherMeal = models.VoucherMealLunch
	case models.MealPrefDinner:
		voucherMeal = models.VoucherMealDinner
	}
	vouchers, errIssue := h.ledger.IssueVouchers(c.Request.Context(), &sub, voucherMeal)
	if errIssue != nil {
		log.WithError(errIssue).Errorf("subscriptions: voucher issue for subscription %d", sub.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue vouchers failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub, "vouchers_issued": len(vouchers)})
}
