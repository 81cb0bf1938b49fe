package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
)

// VoucherAdminHandler handles voucher administration endpoints.
type VoucherAdminHandler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

// NewVoucherAdminHandler constructs a VoucherAdminHandler.
func NewVoucherAdminHandler(db *gorm.DB, l *ledger.Ledger) *VoucherAdminHandler {
	return &VoucherAdminHandler{db: db, ledger: l}
}

// restoreRequest defines the request body for a manual restoration.
type restoreRequest struct {
	VoucherIDs []uint64 `json:"voucher_ids"`
	Reason     string   `json:"reason"`
	// Force restores past-expiry vouchers too. Expiry is not extended, so
	// a forced restoration of an expired voucher stays unspendable.
	Force bool `json:"force"`
}

// Restore puts redeemed vouchers back into the pool on an admin's say-so.
func (h *VoucherAdminHandler) Restore(c *gin.Context) {
	var body restoreRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.VoucherIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voucher_ids is required"})
		return
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		reason = ledger.ReasonAdminOverride
	}

	restored, errRestore := h.ledger.Restore(c.Request.Context(), body.VoucherIDs, reason, body.Force)
	if errRestore != nil {
		c.JSON(http.StatusConflict, gin.H{"error": errRestore.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": restored})
}

// List returns vouchers filtered by user, subscription or status.
func (h *VoucherAdminHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&models.Voucher{})
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		query = query.Where("status = ?", status)
	}
	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if subID := strings.TrimSpace(c.Query("subscription_id")); subID != "" {
		query = query.Where("subscription_id = ?", subID)
	}

	var rows []models.Voucher
	if errFind := query.Order("id DESC").Limit(500).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query vouchers failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": rows})
}
