package webhooks

import (
	"net/http"
	"time"

	"github.com/kamaucodes/dukapay-backend/api/responses"
	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/metrics"
)

// PaystackWebhook receives charge events. A missing or invalid
// x-paystack-signature answers 401 so misconfigured secrets show up in
// Paystack's delivery log; transient failures answer 500 to force redelivery.
func PaystackWebhook(adapter gateways.Adapter, proc paymentProcessor, guard deliveryGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	const gateway = "paystack"
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		m.IncReceived(gateway)

		payload, err := readBody(r)
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, errorEnvelope(err))
			return
		}

		event, err := adapter.Authenticate(ctx, payload, r.Header, storeHint(r))
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
				observe(m, gateway, start, metrics.OutcomeRejected)
				responses.WriteJSON(w, http.StatusUnauthorized, errorEnvelope(err))
				return
			}
			if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				observe(m, gateway, start, metrics.OutcomeRejected)
				responses.WriteJSON(w, http.StatusBadRequest, errorEnvelope(err))
				return
			}
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, errorEnvelope(err))
			return
		}
		if event == nil {
			observe(m, gateway, start, metrics.OutcomeSkipped)
			responses.WriteJSON(w, http.StatusOK, ackBody{Received: true})
			return
		}

		fresh, err := guard.CheckAndMark(ctx, gateway, event.ExternalRef)
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, errorEnvelope(err))
			return
		}
		if !fresh {
			observe(m, gateway, start, metrics.OutcomeDuplicate)
			responses.WriteJSON(w, http.StatusOK, ackBody{Received: true})
			return
		}

		result, err := proc.Process(ctx, event)
		if err != nil {
			_ = guard.Release(ctx, gateway, event.ExternalRef)
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, errorEnvelope(err))
			return
		}

		observe(m, gateway, start, outcomeLabel(result))
		responses.WriteJSON(w, http.StatusOK, ackBody{Received: true})
	}
}
