// Package gateways defines the canonical payment event that every gateway
// adapter normalizes webhook deliveries into.
package gateways

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// PaymentEvent is the gateway-neutral shape of a confirmed payment.
type PaymentEvent struct {
	Gateway enums.PaymentGateway
	// ExternalRef is the gateway's transaction or session id. It doubles as
	// the ledger dedup key.
	ExternalRef string
	// OrderRef is the merchant-facing order reference when the gateway
	// carries one. Empty for phone-matched gateways.
	OrderRef string
	// Amount is in major currency units.
	Amount   decimal.Decimal
	Currency enums.Currency
	// PayerPhone feeds the fallback matching heuristic only.
	PayerPhone string
	// RawPayload is the unparsed body, kept for audit.
	RawPayload []byte
	ReceivedAt time.Time
}

// Adapter authenticates a raw webhook delivery and maps it to a PaymentEvent.
//
// A (nil, nil) return means the delivery was well formed but not relevant to
// payment reconciliation; callers acknowledge it without processing.
type Adapter interface {
	Gateway() enums.PaymentGateway
	Authenticate(ctx context.Context, rawBody []byte, header http.Header, storeHint string) (*PaymentEvent, error)
}
