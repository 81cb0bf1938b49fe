package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
)

// OrderFrontHandler handles order endpoints for customers.
type OrderFrontHandler struct {
	db  *gorm.DB
	svc *orders.Service
}

// NewOrderFrontHandler constructs an OrderFrontHandler.
func NewOrderFrontHandler(db *gorm.DB, svc *orders.Service) *OrderFrontHandler {
	return &OrderFrontHandler{db: db, svc: svc}
}

// orderDTO defines the order response payload.
type orderDTO struct {
	ID                 uint64    `json:"id"`
	OrderNumber        string    `json:"order_number"`
	Source             string    `json:"source"`
	KitchenID          uint64    `json:"kitchen_id"`
	AddressID          uint64    `json:"address_id"`
	MealWindow         string    `json:"meal_window"`
	Status             string    `json:"status"`
	VoucherCount       int       `json:"voucher_count"`
	MainCoursesCovered int       `json:"main_courses_covered"`
	AmountPaid         float64   `json:"amount_paid"`
	PaymentStatus      string    `json:"payment_status"`
	PlacedAt           time.Time `json:"placed_at"`
}

func toOrderDTO(o *models.Order) orderDTO {
	return orderDTO{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		Source:             o.Source,
		KitchenID:          o.KitchenID,
		AddressID:          o.AddressID,
		MealWindow:         o.MealWindow,
		Status:             o.Status,
		VoucherCount:       o.VoucherCount,
		MainCoursesCovered: o.MainCoursesCovered,
		AmountPaid:         o.AmountPaid,
		PaymentStatus:      o.PaymentStatus,
		PlacedAt:           o.PlacedAt,
	}
}

// placeOrderRequest defines the request body for order placement.
type placeOrderRequest struct {
	KitchenID   uint64  `json:"kitchen_id"`
	AddressID   uint64  `json:"address_id"`
	MealWindow  string  `json:"meal_window"`
	MainCourses int     `json:"main_courses"`
	AmountPaid  float64 `json:"amount_paid"`
	Notes       string  `json:"notes"`
}

// Place creates an order for the current user, redeeming the requested
// voucher cover.
func (h *OrderFrontHandler) Place(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body placeOrderRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	window := strings.ToUpper(strings.TrimSpace(body.MealWindow))
	if body.KitchenID == 0 || body.AddressID == 0 || window == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kitchen_id, address_id and meal_window are required"})
		return
	}
	if body.MainCourses < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "main_courses must not be negative"})
		return
	}

	order, errPlace := h.svc.Place(c.Request.Context(), orders.PlaceParams{
		UserID:      userID,
		KitchenID:   body.KitchenID,
		AddressID:   body.AddressID,
		MealWindow:  window,
		MainCourses: body.MainCourses,
		AmountPaid:  body.AmountPaid,
		Notes:       body.Notes,
	})
	if errPlace != nil {
		switch {
		case errors.Is(errPlace, ledger.ErrInsufficientVouchers):
			c.JSON(http.StatusConflict, gin.H{"error": "not enough vouchers"})
		case errors.Is(errPlace, ledger.ErrCutoffPassed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errPlace.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "place order failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderDTO(order)})
}

// Cancel cancels the current user's order under the cancellation policy.
// With restored=false the response carries the forfeiture message.
func (h *OrderFrontHandler) Cancel(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	orderID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || orderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, decision, errCancel := h.svc.CustomerCancel(c.Request.Context(), orderID, userID)
	if errCancel != nil {
		var notAllowed *orders.CancellationNotAllowedError
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.Is(errCancel, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.As(errCancel, &notAllowed):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": notAllowed.Reason})
		case errors.As(errCancel, &invalid):
			c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             toOrderDTO(order),
		"vouchers_restored": decision.ShouldRestoreVouchers,
		"message":           decision.Reason,
	})
}

// List returns the current user's orders, newest first.
func (h *OrderFrontHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []models.Order
	if errFind := query.Order("placed_at DESC, id DESC").Limit(100).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query orders failed"})
		return
	}
	out := make([]orderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toOrderDTO(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// Timeline returns the status history of one of the user's orders.
func (h *OrderFrontHandler) Timeline(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	orderID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || orderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var order models.Order
	errFind := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query order failed"})
		return
	}

	events, errTimeline := h.svc.Timeline(c.Request.Context(), orderID)
	if errTimeline != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query timeline failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": toOrderDTO(&order), "timeline": events})
}
