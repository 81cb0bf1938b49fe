// Package autoorder implements the scheduled batch that places voucher
// orders for opted-in subscriptions ahead of each meal window.
package autoorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/db"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/notify"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/orders"
)

// Runner executes one auto-order pass over all eligible subscriptions.
type Runner struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	orders   *orders.Service
	notifier notify.Notifier
	clock    cutoff.Clock
	loc      *time.Location
}

// NewRunner constructs a batch Runner.
func NewRunner(conn *gorm.DB, l *ledger.Ledger, svc *orders.Service, notifier notify.Notifier, clock cutoff.Clock, loc *time.Location) *Runner {
	if clock == nil {
		clock = cutoff.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Runner{db: conn, ledger: l, orders: svc, notifier: notifier, clock: clock, loc: loc}
}

// RunStats summarizes one batch run.
type RunStats struct {
	RunID     string        // Groups this run's log rows.
	Window    string        // Meal window processed.
	Processed int           // Subscriptions examined.
	Succeeded int           // Orders placed.
	Skipped   int           // Intentional skips (pause, skipped slot, dry run).
	Failed    int           // Failures of any category.
	Elapsed   time.Duration // Wall-clock run time.
}

// outcome is the result of processing one subscription.
type outcome struct {
	status   string
	category string
	reason   string
	orderID  *uint64
	context  map[string]any
}

// Run processes every eligible subscription for the given meal window.
// Each subscription is isolated: a failure or panic in one is recorded as a
// log row and never aborts the rest of the run. With dryRun set the pipeline
// runs through resolution but stops short of redemption and placement.
func (r *Runner) Run(ctx context.Context, window string, dryRun bool) (RunStats, error) {
	stats := RunStats{RunID: uuid.NewString(), Window: window}
	if !cutoff.ValidWindow(window) {
		return stats, fmt.Errorf("autoorder: unknown meal window: %s", window)
	}

	started := r.clock.Now().In(r.loc)
	orderDate := time.Date(started.Year(), started.Month(), started.Day(), 0, 0, 0, 0, r.loc)

	subs, errEligible := r.eligibleSubscriptions(ctx, window, started)
	if errEligible != nil {
		return stats, errEligible
	}

	log.Infof("autoorder: run %s window=%s candidates=%d dry_run=%t", stats.RunID, window, len(subs), dryRun)

	for i := range subs {
		sub := &subs[i]
		stats.Processed++

		subStart := time.Now()
		out := r.processOne(ctx, sub, window, started, orderDate, dryRun)
		elapsedMs := time.Since(subStart).Milliseconds()

		r.record(ctx, stats.RunID, sub, window, orderDate, out, elapsedMs)

		switch out.status {
		case models.AutoOrderStatusSuccess:
			stats.Succeeded++
		case models.AutoOrderStatusSkipped:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}

	stats.Elapsed = r.clock.Now().Sub(started).Round(time.Millisecond)
	log.Infof("autoorder: run %s done processed=%d succeeded=%d skipped=%d failed=%d elapsed=%s",
		stats.RunID, stats.Processed, stats.Succeeded, stats.Skipped, stats.Failed, stats.Elapsed)
	return stats, nil
}

// eligibleSubscriptions selects the subscriptions worth attempting: active,
// opted in, with unexpired and unspent vouchers, and a meal preference
// covering the window.
func (r *Runner) eligibleSubscriptions(ctx context.Context, window string, now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	errFind := r.db.WithContext(ctx).
		Where("status = ?", models.SubscriptionStatusActive).
		Where("auto_ordering_enabled = ?", true).
		Where("voucher_expiry_date > ?", now).
		Where("vouchers_used < total_vouchers_issued").
		Where("default_meal_type IN ?", []string{window, models.MealPrefBoth}).
		Order("id ASC").
		Find(&subs).Error
	if errFind != nil {
		return nil, errFind
	}
	return subs, nil
}

// processOne runs the resolution pipeline for a single subscription,
// converting panics into UNKNOWN failures.
func (r *Runner) processOne(ctx context.Context, sub *models.Subscription, window string, now, orderDate time.Time, dryRun bool) (out outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("autoorder: panic processing subscription %d: %v", sub.ID, rec)
			out = outcome{
				status:   models.AutoOrderStatusFailed,
				category: models.FailureUnknown,
				reason:   fmt.Sprintf("panic: %v", rec),
				context:  out.context,
			}
		}
	}()

	resolved := map[string]any{}
	out = outcome{context: resolved}

	if paused, until := pauseActive(sub, now); paused {
		reason := "subscription paused"
		if until != nil {
			reason = "subscription paused until " + until.In(r.loc).Format("2006-01-02")
		}
		return outcome{status: models.AutoOrderStatusSkipped, category: models.SkipSubscriptionPaused, reason: reason, context: resolved}
	}

	slot := orderDate.Format("2006-01-02") + ":" + window
	if slotSkipped(sub.SkippedSlots, slot) {
		return outcome{status: models.AutoOrderStatusSkipped, category: models.SkipSlotSkipped, reason: "slot " + slot + " skipped by customer", context: resolved}
	}

	available, errCount := r.ledger.AvailableCount(ctx, sub.UserID, window)
	if errCount != nil {
		return outcome{status: models.AutoOrderStatusFailed, category: models.FailureUnknown, reason: errCount.Error(), context: resolved}
	}
	if available < 1 {
		return outcome{status: models.AutoOrderStatusFailed, category: models.FailureNoVouchers, reason: "no spendable vouchers for window", context: resolved}
	}
	resolved["available_vouchers"] = available

	address, errAddress := r.resolveAddress(ctx, sub)
	if errAddress != nil {
		return outcome{status: models.AutoOrderStatusFailed, category: models.FailureNoAddress, reason: errAddress.Error(), context: resolved}
	}
	resolved["address_id"] = address.ID
	resolved["pincode"] = address.Pincode

	zone, errZone := r.resolveZone(ctx, address)
	if errZone != nil {
		return outcome{status: models.AutoOrderStatusFailed, category: models.FailureNoZone, reason: errZone.Error(), context: resolved}
	}
	resolved["zone_id"] = zone.ID

	kitchen, errKitchen := r.resolveKitchen(ctx, sub, zone.ID)
	if errKitchen != nil {
		return outcome{status: models.AutoOrderStatusFailed, category: models.FailureNoKitchen, reason: errKitchen.Error(), context: resolved}
	}
	resolved["kitchen_id"] = kitchen.ID

	item, errItem := r.resolveMenuItem(ctx, kitchen.ID, window)
	if errItem != nil {
		return outcome{status: models.AutoOrderStatusFailed, category: models.FailureNoMenuItem, reason: errItem.Error(), context: resolved}
	}
	resolved["menu_item_id"] = item.ID

	if dryRun {
		return outcome{status: models.AutoOrderStatusSkipped, category: models.SkipDryRun, reason: "dry run: would place order", context: resolved}
	}

	order, errPlace := r.orders.Place(ctx, orders.PlaceParams{
		UserID:      sub.UserID,
		KitchenID:   kitchen.ID,
		AddressID:   address.ID,
		MealWindow:  window,
		Source:      models.OrderSourceAutoOrder,
		MainCourses: 1,
		Actor:       orders.ActorSystem,
		Notes:       "auto-order",
	})
	if errPlace != nil {
		category := models.FailureOrderCreationFailed
		if errors.Is(errPlace, ledger.ErrInsufficientVouchers) || errors.Is(errPlace, ledger.ErrCutoffPassed) {
			category = models.FailureVoucherRedemptionFailed
		}
		return outcome{status: models.AutoOrderStatusFailed, category: category, reason: errPlace.Error(), context: resolved}
	}

	resolved["order_number"] = order.OrderNumber
	return outcome{status: models.AutoOrderStatusSuccess, orderID: &order.ID, context: resolved}
}

// record persists the outcome log row and dispatches the customer-facing
// notification. Skips are silent.
func (r *Runner) record(ctx context.Context, runID string, sub *models.Subscription, window string, orderDate time.Time, out outcome, elapsedMs int64) {
	var rawContext datatypes.JSON
	if len(out.context) > 0 {
		if encoded, errMarshal := json.Marshal(out.context); errMarshal == nil {
			rawContext = datatypes.JSON(encoded)
		}
	}

	row := models.AutoOrderLog{
		CronRunID:        runID,
		SubscriptionID:   sub.ID,
		UserID:           sub.UserID,
		MealWindow:       window,
		OrderDate:        orderDate,
		Status:           out.status,
		FailureCategory:  out.category,
		Reason:           out.reason,
		Context:          rawContext,
		OrderID:          out.orderID,
		ProcessingTimeMs: elapsedMs,
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).Errorf("autoorder: log row for subscription %d", sub.ID)
	}

	switch out.status {
	case models.AutoOrderStatusSuccess:
		r.notifier.Notify(sub.UserID, notify.EventAutoOrderPlaced, map[string]string{
			"meal_window": window,
			"order_date":  orderDate.Format("2006-01-02"),
		})
	case models.AutoOrderStatusFailed:
		r.notifier.Notify(sub.UserID, notify.EventAutoOrderFailed, map[string]string{
			"meal_window": window,
			"order_date":  orderDate.Format("2006-01-02"),
			"category":    out.category,
		})
	}
}

// resolveAddress picks the delivery address: the subscription's chosen
// default, then the user's flagged default, then any live address.
func (r *Runner) resolveAddress(ctx context.Context, sub *models.Subscription) (*models.Address, error) {
	if sub.DefaultAddressID != nil {
		var address models.Address
		errFind := r.db.WithContext(ctx).
			Where("id = ? AND is_deleted = ?", *sub.DefaultAddressID, false).
			First(&address).Error
		if errFind == nil {
			return &address, nil
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, errFind
		}
	}

	var address models.Address
	errFind := r.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", sub.UserID, false).
		Order("is_default DESC, id ASC").
		First(&address).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errors.New("no delivery address on file")
	}
	if errFind != nil {
		return nil, errFind
	}
	return &address, nil
}

// resolveZone maps the address to a serviceable zone, by stored zone id or
// by pincode membership.
func (r *Runner) resolveZone(ctx context.Context, address *models.Address) (*models.Zone, error) {
	var zone models.Zone
	if address.ZoneID != nil {
		errFind := r.db.WithContext(ctx).
			Where("id = ? AND is_serviceable = ?", *address.ZoneID, true).
			First(&zone).Error
		if errFind == nil {
			return &zone, nil
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, errFind
		}
	}

	errFind := r.db.WithContext(ctx).
		Where("is_serviceable = ?", true).
		Where(db.JSONArrayContainsExpr(r.db, "pincodes"), address.Pincode).
		Order("id ASC").
		First(&zone).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("pincode %s not in any serviceable zone", address.Pincode)
	}
	if errFind != nil {
		return nil, errFind
	}
	return &zone, nil
}

// resolveKitchen prefers the subscription's chosen kitchen when it serves
// the zone and is taking orders, otherwise the earliest-created active
// kitchen in the zone.
func (r *Runner) resolveKitchen(ctx context.Context, sub *models.Subscription, zoneID uint64) (*models.Kitchen, error) {
	if sub.DefaultKitchenID != nil {
		var kitchen models.Kitchen
		errFind := r.db.WithContext(ctx).
			Where("id = ? AND zone_id = ? AND is_active = ? AND accepting_orders = ?",
				*sub.DefaultKitchenID, zoneID, true, true).
			First(&kitchen).Error
		if errFind == nil {
			return &kitchen, nil
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, errFind
		}
	}

	var kitchen models.Kitchen
	errFind := r.db.WithContext(ctx).
		Where("zone_id = ? AND is_active = ? AND accepting_orders = ?", zoneID, true, true).
		Order("created_at ASC, id ASC").
		First(&kitchen).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errors.New("no kitchen accepting orders in zone")
	}
	if errFind != nil {
		return nil, errFind
	}
	return &kitchen, nil
}

// resolveMenuItem picks the dish to order: a standard thali if the kitchen
// names one, then any available main course for the window, then any
// available item at all.
func (r *Runner) resolveMenuItem(ctx context.Context, kitchenID uint64, window string) (*models.MenuItem, error) {
	var items []models.MenuItem
	errFind := r.db.WithContext(ctx).
		Where("kitchen_id = ? AND is_available = ?", kitchenID, true).
		Where("meal_window IN ?", []string{window, models.MenuWindowBoth}).
		Order("id ASC").
		Find(&items).Error
	if errFind != nil {
		return nil, errFind
	}
	if len(items) == 0 {
		return nil, errors.New("no available menu item for window")
	}

	for i := range items {
		name := strings.ToLower(items[i].Name)
		if strings.Contains(name, "thali") || strings.Contains(name, "standard") {
			return &items[i], nil
		}
	}
	for i := range items {
		if items[i].Category == models.CategoryMainCourse {
			return &items[i], nil
		}
	}
	return &items[0], nil
}

// pauseActive reports whether the subscription's pause currently applies.
// A bounded pause whose end has passed no longer blocks ordering.
func pauseActive(sub *models.Subscription, now time.Time) (bool, *time.Time) {
	if !sub.IsPaused {
		return false, nil
	}
	if sub.PausedUntil != nil && !sub.PausedUntil.After(now) {
		return false, nil
	}
	return true, sub.PausedUntil
}

// slotSkipped reports whether the "YYYY-MM-DD:WINDOW" slot appears in the
// subscription's skip list.
func slotSkipped(raw datatypes.JSON, slot string) bool {
	if len(raw) == 0 {
		return false
	}
	var slots []string
	if errUnmarshal := json.Unmarshal(raw, &slots); errUnmarshal != nil {
		return false
	}
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
