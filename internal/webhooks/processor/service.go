package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/internal/ledger"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/outbox"
	"github.com/kamaucodes/dukapay-backend/pkg/outbox/payloads"
)

// Outcome classifies how a delivery was handled.
type Outcome string

const (
	OutcomeRecorded Outcome = "recorded"
	OutcomeFlagged  Outcome = "flagged"
)

// Result reports what Process did with a delivery.
type Result struct {
	Outcome Outcome
	Payment *models.OrderPayment
	Flag    *models.ReconciliationFlag
}

type orderMatcher interface {
	Match(ctx context.Context, event *gateways.PaymentEvent) (*models.Order, error)
}

type paymentRecorder interface {
	RecordOrderPayment(ctx context.Context, input ledger.RecordPaymentInput) (*models.OrderPayment, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns authenticated payment events into ledger entries. Permanent
// business failures are parked as reconciliation flags and reported as a
// handled outcome so callers acknowledge the delivery; transient failures
// propagate so the gateway retries.
type Service struct {
	matcher orderMatcher
	ledger  paymentRecorder
	flags   FlagRepository
	tx      txRunner
	outbox  outboxEmitter
	logg    *logger.Logger
}

func NewService(
	matcher orderMatcher,
	recorder paymentRecorder,
	flags FlagRepository,
	tx txRunner,
	emitter outboxEmitter,
	logg *logger.Logger,
) *Service {
	return &Service{
		matcher: matcher,
		ledger:  recorder,
		flags:   flags,
		tx:      tx,
		outbox:  emitter,
		logg:    logg,
	}
}

func (s *Service) Process(ctx context.Context, event *gateways.PaymentEvent) (*Result, error) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"gateway":     event.Gateway,
		"payment_ref": event.ExternalRef,
	})

	order, err := s.matcher.Match(logCtx, event)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			reason := enums.ReconciliationReasonUnmatchedEvent
			if event.OrderRef != "" {
				reason = enums.ReconciliationReasonOrderNotFound
			}
			return s.flagEvent(logCtx, event, reason, nil)
		}
		return nil, err
	}

	input := ledger.RecordPaymentInput{
		OrderID:    order.ID,
		PaymentRef: event.ExternalRef,
		Gateway:    event.Gateway,
		Amount:     event.Amount,
		Currency:   event.Currency,
		RawPayload: json.RawMessage(event.RawPayload),
	}
	if event.PayerPhone != "" {
		phone := event.PayerPhone
		input.PayerPhone = &phone
	}

	payment, err := s.ledger.RecordOrderPayment(logCtx, input)
	if err != nil {
		switch {
		case pkgerrors.HasCode(err, pkgerrors.CodeIdempotency):
			return s.flagEvent(logCtx, event, enums.ReconciliationReasonDuplicatePayment, &order.ID)
		case pkgerrors.HasCode(err, pkgerrors.CodeStateConflict):
			return s.flagEvent(logCtx, event, enums.ReconciliationReasonCurrencyMismatch, &order.ID)
		case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
			return s.flagEvent(logCtx, event, enums.ReconciliationReasonOrderNotFound, nil)
		default:
			return nil, err
		}
	}

	return &Result{Outcome: OutcomeRecorded, Payment: payment}, nil
}

// flagEvent parks the delivery for manual review. The flag row and its outbox
// event commit together; a failure here propagates so the gateway redelivers.
func (s *Service) flagEvent(
	ctx context.Context,
	event *gateways.PaymentEvent,
	reason enums.ReconciliationReason,
	orderID *uuid.UUID,
) (*Result, error) {
	flag := &models.ReconciliationFlag{
		ID:         uuid.New(),
		Gateway:    event.Gateway,
		Reason:     reason,
		PaymentRef: event.ExternalRef,
		OrderID:    orderID,
		Amount:     event.Amount,
		Currency:   event.Currency,
		RawPayload: json.RawMessage(event.RawPayload),
	}
	if event.OrderRef != "" {
		ref := event.OrderRef
		flag.OrderRef = &ref
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.flags.WithTx(tx).Create(ctx, flag); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag insert failed")
		}
		now := time.Now()
		domainEvent := outbox.DomainEvent{
			EventType:     enums.EventPaymentFlagged,
			AggregateType: enums.AggregateReconciliationFlag,
			AggregateID:   flag.ID,
			Actor:         &outbox.ActorRef{Gateway: event.Gateway.String()},
			Version:       1,
			OccurredAt:    now,
			Data: payloads.PaymentFlaggedEvent{
				FlagID:     flag.ID,
				Gateway:    flag.Gateway,
				Reason:     flag.Reason,
				PaymentRef: flag.PaymentRef,
				OrderRef:   flag.OrderRef,
				Amount:     flag.Amount,
				Currency:   flag.Currency,
				FlaggedAt:  now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, domainEvent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "outbox emit failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	warnCtx := s.logg.WithFields(ctx, map[string]any{
		"flag_id": flag.ID.String(),
		"reason":  reason,
	})
	s.logg.Warn(warnCtx, "payment event flagged for reconciliation")
	return &Result{Outcome: OutcomeFlagged, Flag: flag}, nil
}
