package autoorder

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

type testClock struct{ at time.Time }

func (c *testClock) Now() time.Time { return c.at }

type captureNotifier struct{ events []string }

func (c *captureNotifier) Notify(_ uint64, eventType string, _ map[string]string) {
	c.events = append(c.events, eventType)
}

var runMorning = time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)

func setupAutoOrderDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:autoorder_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.Zone{}, &models.Kitchen{}, &models.MenuItem{},
		&models.Subscription{}, &models.Voucher{},
		&models.Order{}, &models.OrderStatusEvent{}, &models.AutoOrderLog{},
	); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func setAutoOrderSettings(t *testing.T) {
	t.Helper()
	raw := map[string]json.RawMessage{}
	encoded, _ := json.Marshal(true)
	raw[settings.AutoAcceptOrdersKey] = encoded
	settings.StoreDBConfig(time.Now(), raw)
	t.Cleanup(func() { settings.StoreDBConfig(time.Time{}, nil) })
}

func newTestRunner(db *gorm.DB, clock *testClock) (*Runner, *captureNotifier) {
	notifier := &captureNotifier{}
	l := ledger.New(db, clock, time.UTC)
	svc := orders.NewService(db, l, nil, notifier, clock, time.UTC)
	return NewRunner(db, l, svc, notifier, clock, time.UTC), notifier
}

// world is the full delivery graph for one customer.
type world struct {
	user    models.User
	address models.Address
	zone    models.Zone
	kitchen models.Kitchen
	item    models.MenuItem
}

func seedWorld(t *testing.T, db *gorm.DB, pincode string) *world {
	t.Helper()
	w := &world{}

	w.zone = models.Zone{Name: "central", Pincodes: datatypes.JSON(fmt.Sprintf(`["%s"]`, pincode)), IsServiceable: true}
	if errCreate := db.Create(&w.zone).Error; errCreate != nil {
		t.Fatalf("seed zone: %v", errCreate)
	}
	w.kitchen = models.Kitchen{Name: "central kitchen", ZoneID: w.zone.ID, IsActive: true, AcceptingOrders: true}
	if errCreate := db.Create(&w.kitchen).Error; errCreate != nil {
		t.Fatalf("seed kitchen: %v", errCreate)
	}
	w.item = models.MenuItem{
		KitchenID: w.kitchen.ID, Name: "Standard Thali", Category: models.CategoryMainCourse,
		MealWindow: models.MenuWindowBoth, IsAvailable: true, Price: 150,
	}
	if errCreate := db.Create(&w.item).Error; errCreate != nil {
		t.Fatalf("seed menu item: %v", errCreate)
	}
	w.user = models.User{Name: "asha", Phone: "9999900000"}
	if errCreate := db.Create(&w.user).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	w.address = models.Address{UserID: w.user.ID, Line1: "12 MG Road", Pincode: pincode, IsDefault: true}
	if errCreate := db.Create(&w.address).Error; errCreate != nil {
		t.Fatalf("seed address: %v", errCreate)
	}
	return w
}

func seedAutoSub(t *testing.T, db *gorm.DB, userID uint64, vouchers int, mealType string, voucherMeal string) *models.Subscription {
	t.Helper()
	sub := models.Subscription{
		UserID:              userID,
		PlanID:              1,
		Status:              models.SubscriptionStatusActive,
		TotalVouchersIssued: vouchers,
		VoucherExpiryDate:   runMorning.AddDate(0, 1, 0),
		AutoOrderingEnabled: true,
		DefaultMealType:     mealType,
	}
	if errCreate := db.Create(&sub).Error; errCreate != nil {
		t.Fatalf("seed subscription: %v", errCreate)
	}
	for i := 0; i < vouchers; i++ {
		v := models.Voucher{
			SubscriptionID: sub.ID,
			UserID:         userID,
			Status:         models.VoucherStatusAvailable,
			MealType:       voucherMeal,
			ExpiryDate:     sub.VoucherExpiryDate,
		}
		if errCreate := db.Create(&v).Error; errCreate != nil {
			t.Fatalf("seed voucher: %v", errCreate)
		}
	}
	return &sub
}

func logRows(t *testing.T, db *gorm.DB, runID string) []models.AutoOrderLog {
	t.Helper()
	var rows []models.AutoOrderLog
	if errFind := db.Where("cron_run_id = ?", runID).Order("id ASC").Find(&rows).Error; errFind != nil {
		t.Fatalf("load log rows: %v", errFind)
	}
	return rows
}

func TestRunPlacesOrderEndToEnd(t *testing.T) {
	db := setupAutoOrderDB(t)
	setAutoOrderSettings(t)
	clock := &testClock{at: runMorning}
	runner, notifier := newTestRunner(db, clock)

	w := seedWorld(t, db, "110001")
	seedAutoSub(t, db, w.user.ID, 2, models.MealPrefBoth, models.VoucherMealAny)

	stats, errRun := runner.Run(context.Background(), "LUNCH", false)
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if stats.Processed != 1 || stats.Succeeded != 1 || stats.Failed != 0 {
		t.Fatalf("stats %+v, want 1 processed / 1 succeeded", stats)
	}

	rows := logRows(t, db, stats.RunID)
	if len(rows) != 1 {
		t.Fatalf("%d log rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Status != models.AutoOrderStatusSuccess || row.OrderID == nil {
		t.Fatalf("log row %+v, want SUCCESS with order id", row)
	}

	var order models.Order
	if errFind := db.First(&order, *row.OrderID).Error; errFind != nil {
		t.Fatalf("load order: %v", errFind)
	}
	if order.Source != models.OrderSourceAutoOrder {
		t.Fatalf("order source %s, want AUTO_ORDER", order.Source)
	}
	if order.Status != models.OrderStatusAccepted {
		t.Fatalf("order status %s, want ACCEPTED via auto-accept", order.Status)
	}
	if order.KitchenID != w.kitchen.ID || order.AddressID != w.address.ID {
		t.Fatalf("order routed to kitchen %d address %d, want %d/%d", order.KitchenID, order.AddressID, w.kitchen.ID, w.address.ID)
	}

	var redeemed int64
	if errCount := db.Model(&models.Voucher{}).
		Where("user_id = ? AND status = ?", w.user.ID, models.VoucherStatusRedeemed).
		Count(&redeemed).Error; errCount != nil {
		t.Fatalf("count redeemed: %v", errCount)
	}
	if redeemed != 1 {
		t.Fatalf("%d vouchers redeemed, want 1", redeemed)
	}

	found := false
	for _, e := range notifier.events {
		if e == "AUTO_ORDER_PLACED" {
			found = true
		}
	}
	if !found {
		t.Fatalf("events %v, want AUTO_ORDER_PLACED", notifier.events)
	}
}

func TestRunIsolatesFailuresPerSubscription(t *testing.T) {
	db := setupAutoOrderDB(t)
	setAutoOrderSettings(t)
	clock := &testClock{at: runMorning}
	runner, _ := newTestRunner(db, clock)

	w := seedWorld(t, db, "110001")

	// 1: healthy.
	seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)

	// 2: paused.
	paused := seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)
	if errUpdate := db.Model(paused).Update("is_paused", true).Error; errUpdate != nil {
		t.Fatalf("pause: %v", errUpdate)
	}

	// 3: today's lunch slot skipped.
	skipped := seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)
	slot := fmt.Sprintf(`["%s:LUNCH"]`, runMorning.Format("2006-01-02"))
	if errUpdate := db.Model(skipped).Update("skipped_slots", datatypes.JSON(slot)).Error; errUpdate != nil {
		t.Fatalf("skip slot: %v", errUpdate)
	}

	// 4: a user holding only dinner vouchers, so no lunch spend is possible.
	dinnerOnly := models.User{Name: "dinneronly", Phone: "9999922222"}
	if errCreate := db.Create(&dinnerOnly).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	dinnerAddr := models.Address{UserID: dinnerOnly.ID, Line1: "4 Park St", Pincode: "110001", IsDefault: true}
	if errCreate := db.Create(&dinnerAddr).Error; errCreate != nil {
		t.Fatalf("seed address: %v", errCreate)
	}
	seedAutoSub(t, db, dinnerOnly.ID, 1, models.MealPrefBoth, models.VoucherMealDinner)

	// 5: a second user with no address at all.
	orphan := models.User{Name: "noaddr", Phone: "9999911111"}
	if errCreate := db.Create(&orphan).Error; errCreate != nil {
		t.Fatalf("seed user: %v", errCreate)
	}
	seedAutoSub(t, db, orphan.ID, 1, models.MealPrefBoth, models.VoucherMealAny)

	stats, errRun := runner.Run(context.Background(), "LUNCH", false)
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if stats.Processed != 5 {
		t.Fatalf("processed %d, want 5 (one bad subscription must not stop the run)", stats.Processed)
	}
	if stats.Succeeded != 1 || stats.Skipped != 2 || stats.Failed != 2 {
		t.Fatalf("stats %+v, want 1 success / 2 skipped / 2 failed", stats)
	}

	rows := logRows(t, db, stats.RunID)
	if len(rows) != 5 {
		t.Fatalf("%d log rows, want 5", len(rows))
	}
	categories := map[string]int{}
	for _, row := range rows {
		categories[row.FailureCategory]++
	}
	if categories[models.SkipSubscriptionPaused] != 1 {
		t.Fatalf("categories %v, want one SUBSCRIPTION_PAUSED", categories)
	}
	if categories[models.SkipSlotSkipped] != 1 {
		t.Fatalf("categories %v, want one SLOT_SKIPPED", categories)
	}
	if categories[models.FailureNoVouchers] != 1 {
		t.Fatalf("categories %v, want one NO_VOUCHERS", categories)
	}
	if categories[models.FailureNoAddress] != 1 {
		t.Fatalf("categories %v, want one NO_ADDRESS", categories)
	}
}

func TestRunDryRunMutatesNothing(t *testing.T) {
	db := setupAutoOrderDB(t)
	setAutoOrderSettings(t)
	runner, _ := newTestRunner(db, &testClock{at: runMorning})

	w := seedWorld(t, db, "110001")
	seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)

	stats, errRun := runner.Run(context.Background(), "LUNCH", true)
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if stats.Skipped != 1 || stats.Succeeded != 0 {
		t.Fatalf("stats %+v, want the dry run recorded as a skip", stats)
	}

	var orderCount int64
	if errCount := db.Model(&models.Order{}).Count(&orderCount).Error; errCount != nil {
		t.Fatalf("count orders: %v", errCount)
	}
	if orderCount != 0 {
		t.Fatalf("%d orders created in a dry run, want 0", orderCount)
	}
	var redeemed int64
	if errCount := db.Model(&models.Voucher{}).
		Where("status = ?", models.VoucherStatusRedeemed).
		Count(&redeemed).Error; errCount != nil {
		t.Fatalf("count redeemed: %v", errCount)
	}
	if redeemed != 0 {
		t.Fatalf("%d vouchers redeemed in a dry run, want 0", redeemed)
	}

	// The resolution context is still recorded for inspection, and the row
	// carries its own skip category so log consumers can filter on it.
	rows := logRows(t, db, stats.RunID)
	if len(rows) != 1 || len(rows[0].Context) == 0 {
		t.Fatalf("dry-run log rows %+v, want one row with resolution context", rows)
	}
	if rows[0].Status != models.AutoOrderStatusSkipped || rows[0].FailureCategory != models.SkipDryRun {
		t.Fatalf("dry-run row status=%s category=%s, want SKIPPED/DRY_RUN", rows[0].Status, rows[0].FailureCategory)
	}
}

func TestRunSkipsIneligibleSubscriptions(t *testing.T) {
	db := setupAutoOrderDB(t)
	setAutoOrderSettings(t)
	runner, _ := newTestRunner(db, &testClock{at: runMorning})

	w := seedWorld(t, db, "110001")

	// Opted out.
	optedOut := seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)
	if errUpdate := db.Model(optedOut).Update("auto_ordering_enabled", false).Error; errUpdate != nil {
		t.Fatalf("opt out: %v", errUpdate)
	}
	// Dinner-only preference must not join a lunch run.
	seedAutoSub(t, db, w.user.ID, 1, models.MealPrefDinner, models.VoucherMealAny)
	// Fully spent.
	spent := seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)
	if errUpdate := db.Model(spent).Update("vouchers_used", 1).Error; errUpdate != nil {
		t.Fatalf("mark spent: %v", errUpdate)
	}

	stats, errRun := runner.Run(context.Background(), "LUNCH", false)
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if stats.Processed != 0 {
		t.Fatalf("processed %d, want 0 eligible subscriptions", stats.Processed)
	}
}

func TestRunResolvesZoneByPincode(t *testing.T) {
	db := setupAutoOrderDB(t)
	setAutoOrderSettings(t)
	runner, _ := newTestRunner(db, &testClock{at: runMorning})

	w := seedWorld(t, db, "560001")
	// The address has no stored zone id, forcing the pincode lookup.
	if w.address.ZoneID != nil {
		t.Fatal("fixture address should have no zone id")
	}
	seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)

	stats, errRun := runner.Run(context.Background(), "LUNCH", false)
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	if stats.Succeeded != 1 {
		rows := logRows(t, db, stats.RunID)
		t.Fatalf("stats %+v rows %+v, want pincode-resolved success", stats, rows)
	}
}

func TestRunFailsWithoutKitchen(t *testing.T) {
	db := setupAutoOrderDB(t)
	setAutoOrderSettings(t)
	runner, notifier := newTestRunner(db, &testClock{at: runMorning})

	w := seedWorld(t, db, "110001")
	if errUpdate := db.Model(&w.kitchen).Update("accepting_orders", false).Error; errUpdate != nil {
		t.Fatalf("close kitchen: %v", errUpdate)
	}
	seedAutoSub(t, db, w.user.ID, 1, models.MealPrefBoth, models.VoucherMealAny)

	stats, errRun := runner.Run(context.Background(), "LUNCH", false)
	if errRun != nil {
		t.Fatalf("run: %v", errRun)
	}
	rows := logRows(t, db, stats.RunID)
	if len(rows) != 1 || rows[0].FailureCategory != models.FailureNoKitchen {
		t.Fatalf("rows %+v, want one NO_KITCHEN failure", rows)
	}

	found := false
	for _, e := range notifier.events {
		if e == "AUTO_ORDER_FAILED" {
			found = true
		}
	}
	if !found {
		t.Fatalf("events %v, want AUTO_ORDER_FAILED notification", notifier.events)
	}
}

func TestRunRejectsUnknownWindow(t *testing.T) {
	db := setupAutoOrderDB(t)
	runner, _ := newTestRunner(db, &testClock{at: runMorning})
	if _, errRun := runner.Run(context.Background(), "BRUNCH", false); errRun == nil {
		t.Fatal("unknown window must error")
	}
}
