package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	retry "github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/internal/orders"
	"github.com/kamaucodes/dukapay-backend/pkg/db"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/outbox"
	"github.com/kamaucodes/dukapay-backend/pkg/outbox/payloads"
)

type ordersRepo interface {
	WithTx(tx *gorm.DB) orders.Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateFinancials(ctx context.Context, order *models.Order, expectedVersion int) error
}

type paymentsRepo interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.OrderPayment) error
	FindByOrderAndRef(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.OrderPayment, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderPayment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RecordPaymentInput carries everything needed to apply one payment to an
// order. PaymentRef must be the gateway's stable external reference so
// replayed deliveries dedupe against the same ledger row.
type RecordPaymentInput struct {
	OrderID    uuid.UUID
	PaymentRef string
	Gateway    enums.PaymentGateway
	// Method defaults to the gateway's natural method when unset.
	Method enums.PaymentMethod
	Amount decimal.Decimal
	Currency   enums.Currency
	PayerPhone *string
	Notes      *string
	RawPayload json.RawMessage
	RecordedBy *uuid.UUID
}

// Service applies payments to orders exactly once.
type Service struct {
	orders          ordersRepo
	payments        paymentsRepo
	tx              txRunner
	outbox          outboxEmitter
	logg            *logger.Logger
	conflictRetries int
}

func NewService(
	ordersRepo ordersRepo,
	paymentsRepo paymentsRepo,
	tx txRunner,
	emitter outboxEmitter,
	logg *logger.Logger,
	conflictRetries int,
) *Service {
	if conflictRetries <= 0 {
		conflictRetries = 3
	}
	return &Service{
		orders:          ordersRepo,
		payments:        paymentsRepo,
		tx:              tx,
		outbox:          emitter,
		logg:            logg,
		conflictRetries: conflictRetries,
	}
}

// RecordOrderPayment applies a payment to an order inside one transaction.
// A delivery replaying an already-recorded (order, ref) pair returns the
// original ledger row. Version conflicts on the order row are retried with
// exponential backoff before giving up.
func (s *Service) RecordOrderPayment(ctx context.Context, input RecordPaymentInput) (*models.OrderPayment, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.payments.FindByOrderAndRef(ctx, input.OrderID, input.PaymentRef)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger lookup failed")
	}

	var recorded *models.OrderPayment
	backoff := retry.WithMaxRetries(uint64(s.conflictRetries), retry.NewExponential(10*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		payment, txErr := s.applyOnce(ctx, input)
		if txErr != nil {
			if errors.Is(txErr, orders.ErrVersionConflict) {
				return retry.RetryableError(txErr)
			}
			return txErr
		}
		recorded = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// ListOrderPayments returns the ledger rows for an order, oldest first.
func (s *Service) ListOrderPayments(ctx context.Context, orderID uuid.UUID) ([]models.OrderPayment, error) {
	payments, err := s.payments.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger lookup failed")
	}
	return payments, nil
}

func (s *Service) applyOnce(ctx context.Context, input RecordPaymentInput) (*models.OrderPayment, error) {
	var payment *models.OrderPayment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersTx := s.orders.WithTx(tx)
		paymentsTx := s.payments.WithTx(tx)

		order, err := ordersTx.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lookup failed")
		}
		if order.Currency != input.Currency {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment currency does not match order currency").
				WithDetails(map[string]interface{}{
					"order_currency":   order.Currency,
					"payment_currency": input.Currency,
				})
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeIdempotency, "order already settled")
		}

		expectedVersion := order.Version
		order.AmountPaid = order.AmountPaid.Add(input.Amount)
		newDue := order.AmountDue.Sub(input.Amount)
		if newDue.IsNegative() {
			newDue = decimal.Zero
		}
		order.AmountDue = newDue
		if newDue.IsZero() {
			order.PaymentStatus = enums.PaymentStatusPaid
		} else {
			order.PaymentStatus = enums.PaymentStatusPartiallyPaid
		}

		if err := ordersTx.UpdateFinancials(ctx, order, expectedVersion); err != nil {
			if errors.Is(err, orders.ErrVersionConflict) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order update failed")
		}

		method := input.Method
		if method == "" {
			method = enums.MethodForGateway(input.Gateway)
		}
		row := &models.OrderPayment{
			ID:         uuid.New(),
			OrderID:    order.ID,
			StoreID:    order.StoreID,
			PaymentRef: input.PaymentRef,
			Gateway:    input.Gateway,
			Method:     method,
			Amount:     input.Amount,
			Currency:   input.Currency,
			PayerPhone: input.PayerPhone,
			Notes:      input.Notes,
			RawPayload: input.RawPayload,
			RecordedBy: input.RecordedBy,
		}
		if err := paymentsTx.Create(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "ux_order_payments_order_ref") {
				return pkgerrors.New(pkgerrors.CodeIdempotency, "payment already recorded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ledger insert failed")
		}

		if err := s.emitEvents(ctx, tx, order, row); err != nil {
			return err
		}

		payment = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":    payment.OrderID.String(),
		"payment_ref": payment.PaymentRef,
		"gateway":     payment.Gateway,
		"amount":      payment.Amount.String(),
	})
	s.logg.Info(logCtx, "payment recorded")
	return payment, nil
}

func (s *Service) emitEvents(ctx context.Context, tx *gorm.DB, order *models.Order, row *models.OrderPayment) error {
	now := time.Now()
	actor := &outbox.ActorRef{
		StoreID: &order.StoreID,
		Gateway: row.Gateway.String(),
	}
	if row.RecordedBy != nil {
		actor.UserID = row.RecordedBy
	}

	recordedEvent := outbox.DomainEvent{
		EventType:     enums.EventPaymentRecorded,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.PaymentRecordedEvent{
			OrderID:       order.ID,
			StoreID:       order.StoreID,
			PaymentID:     row.ID,
			PaymentRef:    row.PaymentRef,
			Gateway:       row.Gateway,
			Amount:        row.Amount,
			Currency:      row.Currency,
			AmountDue:     order.AmountDue,
			PaymentStatus: order.PaymentStatus,
			RecordedAt:    now,
		},
	}
	if err := s.outbox.Emit(ctx, tx, recordedEvent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox emit failed")
	}

	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil
	}
	paidEvent := outbox.DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.OrderPaidEvent{
			OrderID:  order.ID,
			StoreID:  order.StoreID,
			Total:    order.TotalAmount,
			Currency: order.Currency,
			PaidAt:   now,
		},
	}
	if err := s.outbox.Emit(ctx, tx, paidEvent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox emit failed")
	}
	return nil
}

func (s *Service) validateInput(input RecordPaymentInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.PaymentRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if !input.Gateway.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment gateway")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if input.Currency == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment currency is required")
	}
	return nil
}
