// Package ledger owns the voucher pool: atomic redemption (debit) and
// restoration (credit) of prepaid entitlements, kept in lock-step with each
// subscription's denormalized vouchers_used counter.
//
// Concurrency safety relies entirely on the storage transaction plus the
// "select candidates, conditionally update with a status re-check, verify the
// affected-row count, else abort" pattern. No in-process locks are held.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/cutoff"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
	"gorm.io/gorm"
)

var (
	// ErrInsufficientVouchers reports fewer spendable vouchers than requested,
	// including the case where a concurrent redemption won the race.
	ErrInsufficientVouchers = errors.New("ledger: insufficient vouchers")
	// ErrCutoffPassed reports that the meal window's ordering cutoff has passed.
	ErrCutoffPassed = errors.New("ledger: meal window past cutoff")
)

// Restoration reason codes stamped on restored vouchers.
const (
	ReasonOrderCancelled      = "ORDER_CANCELLED"
	ReasonOrderRejected       = "ORDER_REJECTED"
	ReasonPaymentFailed       = "PAYMENT_FAILED"
	ReasonOrderCreationFailed = "ORDER_CREATION_FAILED"
	ReasonAdminOverride       = "ADMIN_OVERRIDE"
)

// spendableStatuses are the voucher statuses eligible for redemption.
var spendableStatuses = []string{models.VoucherStatusAvailable, models.VoucherStatusRestored}

// Ledger performs transactional voucher operations.
type Ledger struct {
	db    *gorm.DB
	clock cutoff.Clock
	loc   *time.Location
}

// New constructs a Ledger. A nil clock falls back to the system clock and a
// nil location to UTC.
func New(db *gorm.DB, clock cutoff.Clock, loc *time.Location) *Ledger {
	if clock == nil {
		clock = cutoff.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{db: db, clock: clock, loc: loc}
}

// Redeem debits count spendable vouchers for a user in one transaction.
//
// Selection is FIFO by expiry date so the soonest-expiring vouchers are spent
// first. The bulk status update re-checks spendability at write time; if the
// number of rows actually updated differs from count, the whole transaction
// aborts and the caller sees ErrInsufficientVouchers. Each affected
// subscription's vouchers_used is incremented inside the same transaction.
//
// count == 0 is a successful no-op for orders with no main courses. The
// cutoff gate runs before any ledger read or write.
func (l *Ledger) Redeem(ctx context.Context, userID uint64, count int, window string, orderID *uint64, kitchenID uint64) ([]models.Voucher, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: not initialized")
	}
	if count < 0 {
		return nil, fmt.Errorf("ledger: negative voucher count %d", count)
	}

	kitchen, errKitchen := l.loadKitchen(ctx, kitchenID)
	if errKitchen != nil {
		return nil, errKitchen
	}
	res, errCheck := cutoff.Check(settings.Snapshot(), l.clock, l.loc, window, kitchen)
	if errCheck != nil {
		return nil, errCheck
	}
	if res.IsPast {
		return nil, fmt.Errorf("%w: %s", ErrCutoffPassed, res.Message)
	}

	if count == 0 {
		return []models.Voucher{}, nil
	}

	now := l.clock.Now().In(l.loc)
	var redeemed []models.Voucher
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []models.Voucher
		if errFind := l.spendableQuery(tx, userID, window, now).
			Order("expiry_date ASC, id ASC").
			Limit(count).
			Find(&candidates).Error; errFind != nil {
			return errFind
		}
		if len(candidates) < count {
			return fmt.Errorf("%w: need %d, have %d spendable", ErrInsufficientVouchers, count, len(candidates))
		}

		ids := make([]uint64, 0, len(candidates))
		perSubscription := make(map[uint64]int, 1)
		for _, v := range candidates {
			ids = append(ids, v.ID)
			perSubscription[v.SubscriptionID]++
		}

		// The status re-check in the WHERE clause is what loses the race to
		// a concurrent redemption of the same vouchers: fewer rows than
		// requested means someone else got there first, and the transaction
		// must abort rather than keep a partial debit.
		resUpdate := tx.Model(&models.Voucher{}).
			Where("id IN ? AND status IN ?", ids, spendableStatuses).
			Updates(map[string]any{
				"status":             models.VoucherStatusRedeemed,
				"order_id":           orderID,
				"kitchen_id":         kitchenID,
				"meal_window":        window,
				"redeemed_at":        now,
				"restoration_reason": "",
				"restored_at":        nil,
				"updated_at":         now,
			})
		if resUpdate.Error != nil {
			return resUpdate.Error
		}
		if resUpdate.RowsAffected != int64(count) {
			return fmt.Errorf("%w: lost redemption race (%d of %d updated)", ErrInsufficientVouchers, resUpdate.RowsAffected, count)
		}

		for subID, n := range perSubscription {
			if errAdjust := adjustSubscriptionUsage(tx, subID, n, now); errAdjust != nil {
				return errAdjust
			}
		}

		return tx.Where("id IN ?", ids).Order("expiry_date ASC, id ASC").Find(&redeemed).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return redeemed, nil
}

// Restore credits previously redeemed vouchers back to the pool.
//
// Input ids not currently REDEEMED are silently skipped, which makes Restore
// idempotent across the cancel, reject and payment-failure call sites that
// may race. Unless force is set, expired vouchers are not given back: a
// customer must not recover entitlement past its deadline. Force restores an
// expired voucher without touching its expiry date, so it stays unspendable
// until an admin extends the date separately.
func (l *Ledger) Restore(ctx context.Context, voucherIDs []uint64, reason string, force bool) (int, error) {
	if l == nil || l.db == nil {
		return 0, errors.New("ledger: not initialized")
	}
	if len(voucherIDs) == 0 {
		return 0, nil
	}

	restored := 0
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errRestore error
		restored, errRestore = l.RestoreIn(tx, voucherIDs, reason, force)
		return errRestore
	})
	if errTx != nil {
		return 0, errTx
	}
	return restored, nil
}

// RestoreIn performs Restore's work on an already-open transaction, so a
// caller can commit a voucher restoration atomically with its own writes
// (the order state machine restores on terminal negative transitions this
// way). Semantics match Restore.
func (l *Ledger) RestoreIn(tx *gorm.DB, voucherIDs []uint64, reason string, force bool) (int, error) {
	if l == nil || tx == nil {
		return 0, errors.New("ledger: not initialized")
	}
	if len(voucherIDs) == 0 {
		return 0, nil
	}

	now := l.clock.Now().In(l.loc)
	q := tx.Where("id IN ? AND status = ?", voucherIDs, models.VoucherStatusRedeemed)
	if !force {
		q = q.Where("expiry_date > ?", now)
	}
	var candidates []models.Voucher
	if errFind := q.Find(&candidates).Error; errFind != nil {
		return 0, errFind
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]uint64, 0, len(candidates))
	perSubscription := make(map[uint64]int, 1)
	for _, v := range candidates {
		ids = append(ids, v.ID)
		perSubscription[v.SubscriptionID]++
	}

	resUpdate := tx.Model(&models.Voucher{}).
		Where("id IN ? AND status = ?", ids, models.VoucherStatusRedeemed).
		Updates(map[string]any{
			"status":             models.VoucherStatusRestored,
			"order_id":           nil,
			"kitchen_id":         nil,
			"meal_window":        "",
			"redeemed_at":        nil,
			"restoration_reason": reason,
			"restored_at":        now,
			"updated_at":         now,
		})
	if resUpdate.Error != nil {
		return 0, resUpdate.Error
	}
	if resUpdate.RowsAffected != int64(len(ids)) {
		// A concurrent restore already returned some of these vouchers;
		// fail so the counter decrement cannot drift from the status
		// writes. The surrounding transaction rolls back and may retry.
		return 0, fmt.Errorf("ledger: restoration race (%d of %d updated)", resUpdate.RowsAffected, len(ids))
	}

	for subID, n := range perSubscription {
		if errAdjust := adjustSubscriptionUsage(tx, subID, -n, now); errAdjust != nil {
			return 0, errAdjust
		}
	}

	return len(ids), nil
}

// AvailableCount counts spendable vouchers for a user, optionally filtered by
// meal window. It shares the spendability predicate with Redeem.
func (l *Ledger) AvailableCount(ctx context.Context, userID uint64, window string) (int64, error) {
	if l == nil || l.db == nil {
		return 0, errors.New("ledger: not initialized")
	}
	now := l.clock.Now().In(l.loc)
	var n int64
	if errCount := l.spendableQuery(l.db.WithContext(ctx), userID, window, now).
		Count(&n).Error; errCount != nil {
		return 0, errCount
	}
	return n, nil
}

// IssueVouchers creates the voucher pool for an activated subscription:
// one voucher per plan entitlement, all sharing the subscription's expiry.
func (l *Ledger) IssueVouchers(ctx context.Context, sub *models.Subscription, mealType string) ([]models.Voucher, error) {
	if l == nil || l.db == nil {
		return nil, errors.New("ledger: not initialized")
	}
	if sub == nil || sub.ID == 0 {
		return nil, errors.New("ledger: nil subscription")
	}
	if sub.TotalVouchersIssued <= 0 {
		return []models.Voucher{}, nil
	}
	if mealType == "" {
		mealType = models.VoucherMealAny
	}

	vouchers := make([]models.Voucher, 0, sub.TotalVouchersIssued)
	for i := 0; i < sub.TotalVouchersIssued; i++ {
		vouchers = append(vouchers, models.Voucher{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Status:         models.VoucherStatusAvailable,
			MealType:       mealType,
			ExpiryDate:     sub.VoucherExpiryDate,
		})
	}
	if errCreate := l.db.WithContext(ctx).Create(&vouchers).Error; errCreate != nil {
		return nil, errCreate
	}
	return vouchers, nil
}

// spendableQuery builds the shared spendability predicate: AVAILABLE or
// RESTORED, unexpired, and meal-type compatible with the window when one is
// given.
func (l *Ledger) spendableQuery(tx *gorm.DB, userID uint64, window string, now time.Time) *gorm.DB {
	q := tx.Model(&models.Voucher{}).
		Where("user_id = ? AND status IN ? AND expiry_date > ?", userID, spendableStatuses, now)
	if window != "" {
		q = q.Where("meal_type IN ?", []string{models.VoucherMealAny, window})
	}
	return q
}

// adjustSubscriptionUsage is the single place the vouchers_used counter is
// written. The WHERE clause enforces 0 <= vouchers_used <= total at write
// time; a rejected adjustment aborts the surrounding transaction.
func adjustSubscriptionUsage(tx *gorm.DB, subscriptionID uint64, delta int, now time.Time) error {
	if delta == 0 {
		return nil
	}
	res := tx.Model(&models.Subscription{}).
		Where("id = ? AND vouchers_used + ? >= 0 AND vouchers_used + ? <= total_vouchers_issued",
			subscriptionID, delta, delta).
		Updates(map[string]any{
			"vouchers_used": gorm.Expr("vouchers_used + ?", delta),
			"updated_at":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("ledger: usage adjustment %+d rejected for subscription %d", delta, subscriptionID)
	}
	return nil
}

// loadKitchen fetches a kitchen for cutoff overrides; a zero id or missing
// row resolves to nil so global defaults apply.
func (l *Ledger) loadKitchen(ctx context.Context, kitchenID uint64) (*models.Kitchen, error) {
	if kitchenID == 0 {
		return nil, nil
	}
	var kitchen models.Kitchen
	errFind := l.db.WithContext(ctx).First(&kitchen, kitchenID).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, errFind
	}
	return &kitchen, nil
}
