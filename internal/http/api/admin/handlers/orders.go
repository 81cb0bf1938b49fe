package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
)

// OrderAdminHandler handles order administration endpoints: kitchen status
// transitions and the payment callback.
type OrderAdminHandler struct {
	svc *orders.Service
}

// NewOrderAdminHandler constructs an OrderAdminHandler.
func NewOrderAdminHandler(svc *orders.Service) *OrderAdminHandler {
	return &OrderAdminHandler{svc: svc}
}

// statusRequest defines the request body for a status transition.
type statusRequest struct {
	Status string `json:"status"`
	Actor  string `json:"actor"` // kitchen or admin; defaults to kitchen.
	Notes  string `json:"notes"`
}

// Status applies one status transition to an order on behalf of the kitchen
// or an admin. REJECTED and kitchen/admin CANCELLED restore the order's
// vouchers.
func (h *OrderAdminHandler) Status(c *gin.Context) {
	orderID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || orderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var body statusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	actor := strings.ToLower(strings.TrimSpace(body.Actor))
	if actor == "" {
		actor = orders.ActorKitchen
	}
	if actor != orders.ActorKitchen && actor != orders.ActorAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor must be kitchen or admin"})
		return
	}

	var order *models.Order
	var errTransition error
	switch {
	case status == models.OrderStatusRejected && actor == orders.ActorKitchen:
		order, errTransition = h.svc.KitchenReject(c.Request.Context(), orderID, body.Notes)
	case status == models.OrderStatusCancelled && actor == orders.ActorKitchen:
		order, errTransition = h.svc.KitchenCancel(c.Request.Context(), orderID, body.Notes)
	default:
		order, errTransition = h.svc.Transition(c.Request.Context(), orderID, status, actor, body.Notes)
	}
	if errTransition != nil {
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.Is(errTransition, orders.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.As(errTransition, &invalid):
			c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "transition failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// paymentResultRequest defines the payment collaborator's callback body.
type paymentResultRequest struct {
	Paid bool `json:"paid"`
}

// PaymentResult records a payment outcome: success marks the order paid,
// failure cancels it and returns its vouchers.
func (h *OrderAdminHandler) PaymentResult(c *gin.Context) {
	orderID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || orderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var body paymentResultRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	order, errHandle := h.svc.HandlePaymentResult(c.Request.Context(), orderID, body.Paid)
	if errHandle != nil {
		if errors.Is(errHandle, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment result failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
