package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// ReconciliationFlag parks a webhook event that could not be applied to an
// order so an operator can resolve it by hand.
type ReconciliationFlag struct {
	ID         uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Gateway    enums.PaymentGateway       `gorm:"column:gateway;type:text;not null"`
	Reason     enums.ReconciliationReason `gorm:"column:reason;type:text;not null"`
	PaymentRef string                     `gorm:"column:payment_ref;not null;index"`
	OrderID    *uuid.UUID                 `gorm:"column:order_id;type:uuid"`
	OrderRef   *string                    `gorm:"column:order_ref"`
	Amount     decimal.Decimal            `gorm:"column:amount;type:numeric(20,2);not null"`
	Currency   enums.Currency             `gorm:"column:currency;type:text;not null"`
	RawPayload json.RawMessage            `gorm:"column:raw_payload;type:jsonb"`
	ResolvedAt *time.Time                 `gorm:"column:resolved_at"`
	CreatedAt  time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
