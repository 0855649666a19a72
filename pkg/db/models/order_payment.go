package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// OrderPayment is the append-only ledger entry for money applied to an order.
// The (order_id, payment_ref) pair is unique so replayed webhook deliveries
// collapse into the original row.
type OrderPayment struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_payments_order_ref"`
	StoreID    uuid.UUID            `gorm:"column:store_id;type:uuid;not null;index"`
	PaymentRef string               `gorm:"column:payment_ref;not null;uniqueIndex:ux_order_payments_order_ref"`
	Gateway    enums.PaymentGateway `gorm:"column:gateway;type:text;not null"`
	Method     enums.PaymentMethod  `gorm:"column:method;type:text;not null"`
	Amount     decimal.Decimal      `gorm:"column:amount;type:numeric(20,2);not null"`
	Currency   enums.Currency       `gorm:"column:currency;type:text;not null"`
	PayerPhone *string              `gorm:"column:payer_phone"`
	Notes      *string              `gorm:"column:notes"`
	RawPayload json.RawMessage      `gorm:"column:raw_payload;type:jsonb"`
	RecordedBy *uuid.UUID           `gorm:"column:recorded_by;type:uuid"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
