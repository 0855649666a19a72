package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// PaymentRecordedEvent signals that money was applied to an order.
type PaymentRecordedEvent struct {
	OrderID       uuid.UUID            `json:"order_id"`
	StoreID       uuid.UUID            `json:"store_id"`
	PaymentID     uuid.UUID            `json:"payment_id"`
	PaymentRef    string               `json:"payment_ref"`
	Gateway       enums.PaymentGateway `json:"gateway"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      enums.Currency       `json:"currency"`
	AmountDue     decimal.Decimal      `json:"amount_due"`
	PaymentStatus enums.PaymentStatus  `json:"payment_status"`
	RecordedAt    time.Time            `json:"recorded_at"`
}

// OrderPaidEvent is emitted once an order balance reaches zero.
type OrderPaidEvent struct {
	OrderID  uuid.UUID       `json:"order_id"`
	StoreID  uuid.UUID       `json:"store_id"`
	Total    decimal.Decimal `json:"total"`
	Currency enums.Currency  `json:"currency"`
	PaidAt   time.Time       `json:"paid_at"`
}

// PaymentFlaggedEvent reports a webhook delivery parked for manual review.
type PaymentFlaggedEvent struct {
	FlagID     uuid.UUID                  `json:"flag_id"`
	Gateway    enums.PaymentGateway       `json:"gateway"`
	Reason     enums.ReconciliationReason `json:"reason"`
	PaymentRef string                     `json:"payment_ref"`
	OrderRef   *string                    `json:"order_ref,omitempty"`
	Amount     decimal.Decimal            `json:"amount"`
	Currency   enums.Currency             `json:"currency"`
	FlaggedAt  time.Time                  `json:"flagged_at"`
}
