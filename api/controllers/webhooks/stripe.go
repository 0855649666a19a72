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

// StripeWebhook receives checkout session events. Stripe treats any non-2xx
// as a redelivery trigger and its dashboard surfaces 400s for signature
// problems, so every failure acknowledges with 400.
func StripeWebhook(adapter gateways.Adapter, proc paymentProcessor, guard deliveryGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	const gateway = "stripe"
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		m.IncReceived(gateway)

		payload, err := readBody(r)
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusBadRequest, errorEnvelope(err))
			return
		}

		event, err := adapter.Authenticate(ctx, payload, r.Header, storeHint(r))
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeRejected)
			responses.WriteJSON(w, http.StatusBadRequest, errorEnvelope(err))
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
			responses.WriteJSON(w, http.StatusBadRequest, errorEnvelope(err))
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
			responses.WriteJSON(w, http.StatusBadRequest, errorEnvelope(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook processing failed")))
			return
		}

		observe(m, gateway, start, outcomeLabel(result))
		responses.WriteJSON(w, http.StatusOK, ackBody{Received: true})
	}
}
