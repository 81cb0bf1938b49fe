package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

type handlerClock struct{ at time.Time }

func (c *handlerClock) Now() time.Time { return c.at }

var handlerMorning = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func setupOrderHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:fronthandlers_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(
		&models.Subscription{}, &models.Voucher{}, &models.Kitchen{},
		&models.Order{}, &models.OrderStatusEvent{},
	); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	settings.StoreDBConfig(time.Now(), map[string]json.RawMessage{
		settings.AutoAcceptOrdersKey: json.RawMessage(`false`),
	})
	t.Cleanup(func() { settings.StoreDBConfig(time.Time{}, nil) })

	clock := &handlerClock{at: handlerMorning}
	l := ledger.New(db, clock, time.UTC)
	svc := orders.NewService(db, l, nil, nil, clock, time.UTC)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", uint64(7))
		c.Next()
	})
	orderHandler := NewOrderFrontHandler(db, svc)
	router.POST("/orders", orderHandler.Place)
	router.POST("/orders/:id/cancel", orderHandler.Cancel)
	router.GET("/orders", orderHandler.List)
	voucherHandler := NewVoucherFrontHandler(db, l)
	router.GET("/vouchers/available", voucherHandler.Available)
	return router, db
}

func seedHandlerVouchers(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	sub := models.Subscription{
		UserID: 7, PlanID: 1,
		Status:              models.SubscriptionStatusActive,
		TotalVouchersIssued: n,
		VoucherExpiryDate:   handlerMorning.AddDate(0, 1, 0),
	}
	if errCreate := db.Create(&sub).Error; errCreate != nil {
		t.Fatalf("seed subscription: %v", errCreate)
	}
	for i := 0; i < n; i++ {
		v := models.Voucher{
			SubscriptionID: sub.ID, UserID: 7,
			Status:     models.VoucherStatusAvailable,
			MealType:   models.VoucherMealAny,
			ExpiryDate: sub.VoucherExpiryDate,
		}
		if errCreate := db.Create(&v).Error; errCreate != nil {
			t.Fatalf("seed voucher: %v", errCreate)
		}
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	router, db := setupOrderHandlerTest(t)
	seedHandlerVouchers(t, db, 2)

	body := bytes.NewBufferString(`{"kitchen_id":1,"address_id":1,"meal_window":"lunch","main_courses":1}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s, want 200", rec.Code, rec.Body.String())
	}
	var resp struct {
		Order orderDTO `json:"order"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Order.Status != models.OrderStatusPlaced || resp.Order.VoucherCount != 1 {
		t.Fatalf("order %+v, want PLACED with 1 voucher", resp.Order)
	}

	// The window is normalized to upper case.
	if resp.Order.MealWindow != cutoff.WindowLunch {
		t.Fatalf("meal window %q, want LUNCH", resp.Order.MealWindow)
	}
}

func TestPlaceOrderEndpointInsufficientVouchers(t *testing.T) {
	router, _ := setupOrderHandlerTest(t)

	body := bytes.NewBufferString(`{"kitchen_id":1,"address_id":1,"meal_window":"LUNCH","main_courses":1}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409 for insufficient vouchers", rec.Code)
	}
}

func TestCancelOrderEndpointReportsRestoration(t *testing.T) {
	router, db := setupOrderHandlerTest(t)
	seedHandlerVouchers(t, db, 1)

	place := httptest.NewRequest(http.MethodPost, "/orders",
		bytes.NewBufferString(`{"kitchen_id":1,"address_id":1,"meal_window":"LUNCH","main_courses":1}`))
	placeRec := httptest.NewRecorder()
	router.ServeHTTP(placeRec, place)
	if placeRec.Code != http.StatusOK {
		t.Fatalf("place status %d body %s", placeRec.Code, placeRec.Body.String())
	}
	var placed struct {
		Order orderDTO `json:"order"`
	}
	if errDecode := json.Unmarshal(placeRec.Body.Bytes(), &placed); errDecode != nil {
		t.Fatalf("decode place response: %v", errDecode)
	}

	cancel := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/orders/%d/cancel", placed.Order.ID), nil)
	cancelRec := httptest.NewRecorder()
	router.ServeHTTP(cancelRec, cancel)
	if cancelRec.Code != http.StatusOK {
		t.Fatalf("cancel status %d body %s", cancelRec.Code, cancelRec.Body.String())
	}
	var cancelled struct {
		VouchersRestored bool `json:"vouchers_restored"`
	}
	if errDecode := json.Unmarshal(cancelRec.Body.Bytes(), &cancelled); errDecode != nil {
		t.Fatalf("decode cancel response: %v", errDecode)
	}
	if !cancelled.VouchersRestored {
		t.Fatal("pre-cutoff cancel must report restored vouchers")
	}
}

func TestAvailableEndpoint(t *testing.T) {
	router, db := setupOrderHandlerTest(t)
	seedHandlerVouchers(t, db, 3)

	req := httptest.NewRequest(http.MethodGet, "/vouchers/available?window=LUNCH", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var resp struct {
		Available int64 `json:"available"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &resp); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	if resp.Available != 3 {
		t.Fatalf("available %d, want 3", resp.Available)
	}
}
