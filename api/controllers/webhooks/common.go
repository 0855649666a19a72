package webhooks

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/internal/webhooks/processor"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/metrics"
	"github.com/kamaucodes/dukapay-backend/pkg/types"
)

type paymentProcessor interface {
	Process(ctx context.Context, event *gateways.PaymentEvent) (*processor.Result, error)
}

type deliveryGuard interface {
	CheckAndMark(ctx context.Context, scope, eventID string) (bool, error)
	Release(ctx context.Context, scope, eventID string) error
}

type ackBody struct {
	Received bool `json:"received"`
}

func readBody(r *http.Request) ([]byte, error) {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body")
	}
	return payload, nil
}

func storeHint(r *http.Request) string {
	return chi.URLParam(r, "storeID")
}

func outcomeLabel(result *processor.Result) string {
	if result == nil {
		return metrics.OutcomeError
	}
	switch result.Outcome {
	case processor.OutcomeRecorded:
		return metrics.OutcomeRecorded
	case processor.OutcomeFlagged:
		return metrics.OutcomeFlagged
	}
	return metrics.OutcomeError
}

func observe(m *metrics.WebhookMetrics, gateway string, start time.Time, outcome string) {
	m.IncOutcome(gateway, outcome)
	m.ObserveDuration(gateway, time.Since(start))
}

func errorEnvelope(err error) types.ErrorEnvelope {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	msg := typed.Message()
	if msg == "" {
		msg = pkgerrors.MetadataFor(typed.Code()).PublicMessage
	}
	return types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}
}

func logDeliveryError(ctx context.Context, logg *logger.Logger, gateway string, err error) context.Context {
	logCtx := logg.WithGateway(ctx, gateway)
	logg.Error(logCtx, "webhook delivery failed", err)
	return logCtx
}
