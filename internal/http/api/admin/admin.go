package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/autoorder"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/http/api/admin/handlers"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
)

// RegisterAdminRoutes registers operational routes. With a non-empty token
// every route demands it in the X-Admin-Token header; an empty token leaves
// the surface open for local development.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, svc *orders.Service, l *ledger.Ledger, runner *autoorder.Runner, token string) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")
	if token != "" {
		adminGroup.Use(adminTokenMiddleware(token))
	}

	autoOrderHandler := handlers.NewAutoOrderAdminHandler(db, runner)
	adminGroup.POST("/auto-orders/run", autoOrderHandler.Run)
	adminGroup.GET("/auto-orders/logs", autoOrderHandler.Logs)

	voucherHandler := handlers.NewVoucherAdminHandler(db, l)
	adminGroup.GET("/vouchers", voucherHandler.List)
	adminGroup.POST("/vouchers/restore", voucherHandler.Restore)

	orderHandler := handlers.NewOrderAdminHandler(svc)
	adminGroup.POST("/orders/:id/status", orderHandler.Status)
	adminGroup.POST("/orders/:id/payment", orderHandler.PaymentResult)

	subHandler := handlers.NewSubscriptionAdminHandler(db, l)
	adminGroup.POST("/subscriptions", subHandler.Activate)

	settingsHandler := handlers.NewSettingsAdminHandler(db)
	adminGroup.GET("/settings", settingsHandler.Get)
	adminGroup.PUT("/settings", settingsHandler.Put)
}

func adminTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
