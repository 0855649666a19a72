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

// Daraja expects its own acknowledgement body, not the service envelope.
type darajaAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

var (
	darajaAccepted = darajaAck{ResultCode: 0, ResultDesc: "Accepted"}
	darajaFailed   = darajaAck{ResultCode: 1, ResultDesc: "Internal Error"}
)

// MpesaWebhook receives STK push callbacks. Daraja redelivers on non-200, so
// only failures worth retrying answer 500; everything the service understood,
// including callbacks it flagged or skipped, acknowledges with ResultCode 0.
func MpesaWebhook(adapter gateways.Adapter, proc paymentProcessor, guard deliveryGuard, m *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	const gateway = "mpesa"
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		m.IncReceived(gateway)

		payload, err := readBody(r)
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, darajaFailed)
			return
		}

		event, err := adapter.Authenticate(ctx, payload, r.Header, storeHint(r))
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			// Daraja redelivers the same body verbatim, so a payload that
			// failed to parse will never succeed later. Acknowledge it to
			// stop the retries; transient failures still answer 500.
			if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				observe(m, gateway, start, metrics.OutcomeRejected)
				responses.WriteJSON(w, http.StatusOK, darajaAccepted)
				return
			}
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, darajaFailed)
			return
		}
		if event == nil {
			observe(m, gateway, start, metrics.OutcomeSkipped)
			responses.WriteJSON(w, http.StatusOK, darajaAccepted)
			return
		}

		fresh, err := guard.CheckAndMark(ctx, gateway, event.ExternalRef)
		if err != nil {
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, darajaFailed)
			return
		}
		if !fresh {
			observe(m, gateway, start, metrics.OutcomeDuplicate)
			responses.WriteJSON(w, http.StatusOK, darajaAccepted)
			return
		}

		result, err := proc.Process(ctx, event)
		if err != nil {
			_ = guard.Release(ctx, gateway, event.ExternalRef)
			logDeliveryError(ctx, logg, gateway, err)
			observe(m, gateway, start, metrics.OutcomeError)
			responses.WriteJSON(w, http.StatusInternalServerError, darajaFailed)
			return
		}

		observe(m, gateway, start, outcomeLabel(result))
		responses.WriteJSON(w, http.StatusOK, darajaAccepted)
	}
}
