package controllers

import (
	stdErrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/api/responses"
	"github.com/kamaucodes/dukapay-backend/internal/webhooks/processor"
	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
)

const (
	defaultFlagPageSize = 50
	maxFlagPageSize     = 200
)

type flagResponse struct {
	ID         uuid.UUID                  `json:"id"`
	Gateway    enums.PaymentGateway       `json:"gateway"`
	Reason     enums.ReconciliationReason `json:"reason"`
	PaymentRef string                     `json:"payment_ref"`
	OrderID    *uuid.UUID                 `json:"order_id,omitempty"`
	OrderRef   *string                    `json:"order_ref,omitempty"`
	Amount     decimal.Decimal            `json:"amount"`
	Currency   enums.Currency             `json:"currency"`
	CreatedAt  time.Time                  `json:"created_at"`
}

func toFlagResponse(flag *models.ReconciliationFlag) flagResponse {
	return flagResponse{
		ID:         flag.ID,
		Gateway:    flag.Gateway,
		Reason:     flag.Reason,
		PaymentRef: flag.PaymentRef,
		OrderID:    flag.OrderID,
		OrderRef:   flag.OrderRef,
		Amount:     flag.Amount,
		Currency:   flag.Currency,
		CreatedAt:  flag.CreatedAt,
	}
}

// ListReconciliationFlags returns unresolved flags oldest first so operators
// work the backlog in arrival order.
func ListReconciliationFlags(repo processor.FlagRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flag repository unavailable"))
			return
		}

		limit := defaultFlagPageSize
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = parsed
		}
		if limit > maxFlagPageSize {
			limit = maxFlagPageSize
		}

		flags, err := repo.ListUnresolved(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing reconciliation flags"))
			return
		}

		out := make([]flagResponse, 0, len(flags))
		for i := range flags {
			out = append(out, toFlagResponse(&flags[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

type flagResolvedResponse struct {
	ID       uuid.UUID `json:"id"`
	Resolved bool      `json:"resolved"`
}

// ResolveReconciliationFlag marks a flag handled after an operator has applied
// or written off the payment by hand. Resolving twice answers not found.
func ResolveReconciliationFlag(repo processor.FlagRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "flag repository unavailable"))
			return
		}

		flagID, err := uuid.Parse(chi.URLParam(r, "flagID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flag id"))
			return
		}

		if err := repo.Resolve(r.Context(), flagID); err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "reconciliation flag not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving reconciliation flag"))
			return
		}

		responses.WriteSuccess(w, flagResolvedResponse{ID: flagID, Resolved: true})
	}
}
