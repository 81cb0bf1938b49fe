package front

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/http/api/front/handlers"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
)

// RegisterFrontRoutes registers the customer-facing routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, svc *orders.Service, l *ledger.Ledger) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/v0/front")
	front.Use(userIdentityMiddleware())

	orderHandler := handlers.NewOrderFrontHandler(db, svc)
	front.POST("/orders", orderHandler.Place)
	front.GET("/orders", orderHandler.List)
	front.GET("/orders/:id/timeline", orderHandler.Timeline)
	front.POST("/orders/:id/cancel", orderHandler.Cancel)

	voucherHandler := handlers.NewVoucherFrontHandler(db, l)
	front.GET("/vouchers", voucherHandler.List)
	front.GET("/vouchers/available", voucherHandler.Available)

	subHandler := handlers.NewSubscriptionFrontHandler(db)
	front.GET("/subscriptions", subHandler.List)
	front.PUT("/subscriptions/:id/auto-ordering", subHandler.SetAutoOrdering)
	front.POST("/subscriptions/:id/pause", subHandler.Pause)
	front.POST("/subscriptions/:id/resume", subHandler.Resume)
	front.POST("/subscriptions/:id/skip-slot", subHandler.SkipSlot)
}

// userIdentityMiddleware resolves the caller from the X-User-ID header set
// by the upstream gateway. Authentication itself is the gateway's concern.
func userIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		userID, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}
