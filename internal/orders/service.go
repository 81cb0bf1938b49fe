// Package orders owns the order lifecycle: the one creation path, the one
// status-transition path, and the cancellation policy. No other code writes
// Order.Status.
package orders

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
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/ledger"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/models"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/notify"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/payment"
	"github.com/YatharthKaushal/tiffsy-backend-sub001/internal/settings"
)

// ErrOrderNotFound reports a missing or foreign order.
var ErrOrderNotFound = errors.New("orders: order not found")

// CancellationNotAllowedError carries the policy's refusal reason.
type CancellationNotAllowedError struct {
	Reason string
}

// Error returns the refusal reason.
func (e *CancellationNotAllowedError) Error() string {
	return "orders: cancellation not allowed: " + e.Reason
}

// Service drives order creation and status transitions.
type Service struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	refunds  payment.RefundEmitter
	notifier notify.Notifier
	clock    cutoff.Clock
	loc      *time.Location
}

// NewService constructs an order Service.
func NewService(db *gorm.DB, l *ledger.Ledger, refunds payment.RefundEmitter, notifier notify.Notifier, clock cutoff.Clock, loc *time.Location) *Service {
	if clock == nil {
		clock = cutoff.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if refunds == nil {
		refunds = payment.LogEmitter{}
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{db: db, ledger: l, refunds: refunds, notifier: notifier, clock: clock, loc: loc}
}

// PlaceParams describes a new order.
type PlaceParams struct {
	UserID      uint64
	KitchenID   uint64
	AddressID   uint64
	MealWindow  string
	Source      string  // CUSTOMER or AUTO_ORDER.
	MainCourses int     // Main courses to cover with vouchers.
	AmountPaid  float64 // Monetary component, if any.
	Actor       string  // Timeline actor for the placement.
	Notes       string  // Optional placement notes.
}

// Place is the single order-creation path, used by the interactive handler
// and the auto-order batch alike.
//
// It redeems the voucher cover first (the cutoff gate lives in the ledger),
// then creates the order in PLACED with its initial timeline entry and
// backfills the redemption attribution with the new order id. When the
// auto-accept setting is on, a voucher order immediately gains an ACCEPTED
// transition: business policy says prepaid orders need no kitchen action.
// If order creation fails after redemption, the vouchers are restored
// best-effort before the error is returned.
func (s *Service) Place(ctx context.Context, p PlaceParams) (*models.Order, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("orders: service not initialized")
	}
	if !cutoff.ValidWindow(p.MealWindow) {
		return nil, fmt.Errorf("orders: unknown meal window: %s", p.MealWindow)
	}
	if p.Source == "" {
		p.Source = models.OrderSourceCustomer
	}
	if p.Actor == "" {
		p.Actor = ActorCustomer
	}

	cfg := settings.Snapshot()
	vouchers, errRedeem := s.ledger.Redeem(ctx, p.UserID, p.MainCourses, p.MealWindow, nil, p.KitchenID)
	if errRedeem != nil {
		return nil, errRedeem
	}

	ids := make([]uint64, 0, len(vouchers))
	for _, v := range vouchers {
		ids = append(ids, v.ID)
	}
	rawIDs, errMarshal := json.Marshal(ids)
	if errMarshal != nil {
		rawIDs = []byte("[]")
	}

	now := s.clock.Now().In(s.loc)
	paymentStatus := models.PaymentStatusNotRequired
	if p.AmountPaid > 0 {
		paymentStatus = models.PaymentStatusPending
	}

	order := models.Order{
		OrderNumber:        newOrderNumber(),
		Source:             p.Source,
		UserID:             p.UserID,
		KitchenID:          p.KitchenID,
		AddressID:          p.AddressID,
		MealWindow:         p.MealWindow,
		Status:             models.OrderStatusPlaced,
		VoucherIDs:         datatypes.JSON(rawIDs),
		VoucherCount:       len(ids),
		MainCoursesCovered: p.MainCourses,
		AmountPaid:         p.AmountPaid,
		PaymentStatus:      paymentStatus,
		PlacedAt:           now,
	}

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&order).Error; errCreate != nil {
			return errCreate
		}
		if errEvent := tx.Create(&models.OrderStatusEvent{
			OrderID: order.ID,
			Status:  models.OrderStatusPlaced,
			Actor:   p.Actor,
			Notes:   p.Notes,
		}).Error; errEvent != nil {
			return errEvent
		}
		if len(ids) > 0 {
			if errAttr := tx.Model(&models.Voucher{}).
				Where("id IN ? AND status = ?", ids, models.VoucherStatusRedeemed).
				Update("order_id", order.ID).Error; errAttr != nil {
				return errAttr
			}
		}

		if len(ids) > 0 && cfg.AutoAcceptOrders {
			if errAccept := applyTransition(tx, &order, models.OrderStatusAccepted, ActorSystem, "voucher order auto-accepted"); errAccept != nil {
				return errAccept
			}
		}
		return nil
	})
	if errTx != nil {
		if len(ids) > 0 {
			if _, errRestore := s.ledger.Restore(ctx, ids, ledger.ReasonOrderCreationFailed, false); errRestore != nil {
				log.WithError(errRestore).Warnf("orders: voucher restore after failed creation (user=%d)", p.UserID)
			}
		}
		return nil, errTx
	}
	return &order, nil
}

// Transition moves an order along one edge of the state machine, appending
// the immutable timeline entry in the same transaction.
//
// A transition into REJECTED or CANCELLED restores the order's vouchers in
// that same transaction when the restoration rules say so: kitchen rejects
// and kitchen cancels always restore (a kitchen cannot keep a customer's
// entitlement), system cancels restore with a payment-failure reason, and
// customer cancels follow CancelPolicy's cutoff rule. After commit the
// refund intent (for paid orders) and the notification are dispatched
// best-effort.
func (s *Service) Transition(ctx context.Context, orderID uint64, next, actor, notes string) (*models.Order, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("orders: service not initialized")
	}

	var order models.Order
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&order, orderID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return errFind
		}
		// The restore plan reads the pre-transition status, so decide it
		// before the status write.
		restore, reason := false, ""
		if next == models.OrderStatusRejected || next == models.OrderStatusCancelled {
			restore, reason = s.restorePlan(&order, next, actor)
		}

		if errApply := applyTransition(tx, &order, next, actor, notes); errApply != nil {
			return errApply
		}

		if restore && order.VoucherCount > 0 {
			ids := decodeVoucherIDs(order.VoucherIDs)
			if _, errRestore := s.ledger.RestoreIn(tx, ids, reason, false); errRestore != nil {
				return errRestore
			}
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}

	if next == models.OrderStatusRejected || next == models.OrderStatusCancelled {
		s.dispatchTerminalSideEffects(&order, next)
	}
	return &order, nil
}

// CustomerCancel applies the cancellation policy for the owning customer and
// cancels the order when allowed. The returned decision carries the
// non-restoration warning for orders cancelled after cutoff.
func (s *Service) CustomerCancel(ctx context.Context, orderID, userID uint64) (*models.Order, CancelDecision, error) {
	order, errLoad := s.load(ctx, orderID)
	if errLoad != nil {
		return nil, CancelDecision{}, errLoad
	}
	if userID != 0 && order.UserID != userID {
		return nil, CancelDecision{}, ErrOrderNotFound
	}

	decision := CancelPolicy(order, settings.Snapshot(), s.clock.Now().In(s.loc), s.loc)
	if !decision.CanCancel {
		return nil, decision, &CancellationNotAllowedError{Reason: decision.Reason}
	}

	updated, errTransition := s.Transition(ctx, orderID, models.OrderStatusCancelled, ActorCustomer, decision.Reason)
	if errTransition != nil {
		return nil, decision, errTransition
	}
	return updated, decision, nil
}

// KitchenReject rejects a freshly placed order. Only legal from PLACED;
// the voucher spend always comes back to the customer.
func (s *Service) KitchenReject(ctx context.Context, orderID uint64, notes string) (*models.Order, error) {
	order, errLoad := s.load(ctx, orderID)
	if errLoad != nil {
		return nil, errLoad
	}
	if order.Status != models.OrderStatusPlaced {
		return nil, &InvalidTransitionError{From: order.Status, To: models.OrderStatusRejected}
	}
	return s.Transition(ctx, orderID, models.OrderStatusRejected, ActorKitchen, notes)
}

// KitchenCancel cancels an order the kitchen already took on. Only legal
// from ACCEPTED or PREPARING; the voucher spend always comes back.
func (s *Service) KitchenCancel(ctx context.Context, orderID uint64, notes string) (*models.Order, error) {
	order, errLoad := s.load(ctx, orderID)
	if errLoad != nil {
		return nil, errLoad
	}
	if order.Status != models.OrderStatusAccepted && order.Status != models.OrderStatusPreparing {
		return nil, &InvalidTransitionError{From: order.Status, To: models.OrderStatusCancelled}
	}
	return s.Transition(ctx, orderID, models.OrderStatusCancelled, ActorKitchen, notes)
}

// HandlePaymentResult reacts to the payment collaborator's outcome signal.
// A successful payment marks the order PAID and, when auto-accept is on,
// accepts it; a failed payment cancels the order and returns its vouchers.
func (s *Service) HandlePaymentResult(ctx context.Context, orderID uint64, paid bool) (*models.Order, error) {
	order, errLoad := s.load(ctx, orderID)
	if errLoad != nil {
		return nil, errLoad
	}

	if paid {
		if errUpdate := s.db.WithContext(ctx).Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("payment_status", models.PaymentStatusPaid).Error; errUpdate != nil {
			return nil, errUpdate
		}
		order.PaymentStatus = models.PaymentStatusPaid
		if settings.Snapshot().AutoAcceptOrders && order.Status == models.OrderStatusPlaced {
			return s.Transition(ctx, orderID, models.OrderStatusAccepted, ActorSystem, "payment confirmed")
		}
		return order, nil
	}

	if errUpdate := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("payment_status", models.PaymentStatusFailed).Error; errUpdate != nil {
		return nil, errUpdate
	}
	order.PaymentStatus = models.PaymentStatusFailed
	return s.Transition(ctx, orderID, models.OrderStatusCancelled, ActorSystem, "payment failed")
}

// Timeline returns the append-only status history of an order.
func (s *Service) Timeline(ctx context.Context, orderID uint64) ([]models.OrderStatusEvent, error) {
	var events []models.OrderStatusEvent
	if errFind := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&events).Error; errFind != nil {
		return nil, errFind
	}
	return events, nil
}

// applyTransition is the only writer of order.status. It validates the edge,
// re-checks the current status at write time (losing that race to a
// concurrent transition means the edge no longer exists), appends the
// timeline event and updates the in-memory order.
func applyTransition(tx *gorm.DB, order *models.Order, next, actor, notes string) error {
	if !CanTransition(order.Status, next) {
		return &InvalidTransitionError{From: order.Status, To: next}
	}
	resUpdate := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Update("status", next)
	if resUpdate.Error != nil {
		return resUpdate.Error
	}
	if resUpdate.RowsAffected != 1 {
		return &InvalidTransitionError{From: order.Status, To: next}
	}
	if errEvent := tx.Create(&models.OrderStatusEvent{
		OrderID: order.ID,
		Status:  next,
		Actor:   actor,
		Notes:   notes,
	}).Error; errEvent != nil {
		return errEvent
	}
	order.Status = next
	return nil
}

// restorePlan decides whether a terminal negative transition returns the
// voucher spend, and with which reason code.
func (s *Service) restorePlan(order *models.Order, next, actor string) (bool, string) {
	if next == models.OrderStatusRejected {
		return true, ledger.ReasonOrderRejected
	}
	switch actor {
	case ActorKitchen, ActorAdmin:
		return true, ledger.ReasonOrderCancelled
	case ActorSystem:
		return true, ledger.ReasonPaymentFailed
	default:
		decision := CancelPolicy(order, settings.Snapshot(), s.clock.Now().In(s.loc), s.loc)
		return decision.ShouldRestoreVouchers, ledger.ReasonOrderCancelled
	}
}

// dispatchTerminalSideEffects emits the refund intent and notification for a
// committed reject/cancel. Both are best-effort: failures are logged and
// never surfaced to the caller whose transaction already committed.
func (s *Service) dispatchTerminalSideEffects(order *models.Order, next string) {
	if order.AmountPaid > 0 && order.PaymentStatus == models.PaymentStatusPaid {
		intent := payment.RefundIntent{
			OrderID: order.ID,
			Amount:  order.AmountPaid,
			Reason:  strings.ToLower(next),
		}
		if errEmit := s.refunds.Emit(intent); errEmit != nil {
			log.WithError(errEmit).Warnf("orders: refund intent failed (order=%d)", order.ID)
		}
	}

	event := notify.EventOrderCancelled
	if next == models.OrderStatusRejected {
		event = notify.EventOrderRejected
	}
	s.notifier.Notify(order.UserID, event, map[string]string{
		"order_number": order.OrderNumber,
		"meal_window":  order.MealWindow,
	})
}

// load fetches an order by id.
func (s *Service) load(ctx context.Context, orderID uint64) (*models.Order, error) {
	var order models.Order
	errFind := s.db.WithContext(ctx).First(&order, orderID).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if errFind != nil {
		return nil, errFind
	}
	return &order, nil
}

// decodeVoucherIDs parses the immutable voucher-usage record on an order.
func decodeVoucherIDs(raw datatypes.JSON) []uint64 {
	if len(raw) == 0 {
		return nil
	}
	var ids []uint64
	if errUnmarshal := json.Unmarshal(raw, &ids); errUnmarshal != nil {
		return nil
	}
	return ids
}

// newOrderNumber generates a unique human-facing order number.
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
