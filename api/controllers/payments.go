package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/api/middleware"
	"github.com/kamaucodes/dukapay-backend/api/responses"
	"github.com/kamaucodes/dukapay-backend/api/validators"
	"github.com/kamaucodes/dukapay-backend/internal/ledger"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
)

type recordPaymentRequest struct {
	PaymentRef string  `json:"payment_ref" validate:"required,max=128"`
	Amount     string  `json:"amount" validate:"required"`
	Currency   string  `json:"currency" validate:"required,oneof=USD NGN KES"`
	Method     string  `json:"method,omitempty" validate:"omitempty,oneof=cash bank_transfer"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type paymentResponse struct {
	ID         uuid.UUID            `json:"id"`
	OrderID    uuid.UUID            `json:"order_id"`
	PaymentRef string               `json:"payment_ref"`
	Gateway    enums.PaymentGateway `json:"gateway"`
	Method     enums.PaymentMethod  `json:"method"`
	Amount     decimal.Decimal      `json:"amount"`
	Currency   enums.Currency       `json:"currency"`
	Notes      *string              `json:"notes,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

func toPaymentResponse(payment *models.OrderPayment) paymentResponse {
	return paymentResponse{
		ID:         payment.ID,
		OrderID:    payment.OrderID,
		PaymentRef: payment.PaymentRef,
		Gateway:    payment.Gateway,
		Method:     payment.Method,
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		Notes:      payment.Notes,
		CreatedAt:  payment.CreatedAt,
	}
}

// RecordManualPayment lets an operator apply a cash or bank transfer payment
// through the same ledger the gateways write to.
func RecordManualPayment(svc *ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount must be a decimal string"))
			return
		}

		input := ledger.RecordPaymentInput{
			OrderID:    orderID,
			PaymentRef: req.PaymentRef,
			Gateway:    enums.PaymentGatewayManual,
			Method:     enums.PaymentMethod(req.Method),
			Amount:     amount,
			Currency:   enums.Currency(req.Currency),
			Notes:      req.Notes,
		}
		if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			if id, err := uuid.Parse(userID); err == nil {
				input.RecordedBy = &id
			}
		}

		payment, err := svc.RecordOrderPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toPaymentResponse(payment))
	}
}

// ListOrderPayments returns the payment ledger for an order, oldest first.
func ListOrderPayments(svc *ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.ListOrderPayments(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]paymentResponse, 0, len(payments))
		for i := range payments {
			out = append(out, toPaymentResponse(&payments[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}
