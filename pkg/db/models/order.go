package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// Order represents a store order carrying the payable balance webhook events
// reconcile against.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	Reference     string              `gorm:"column:reference;not null;uniqueIndex:ux_orders_reference"`
	CustomerPhone *string             `gorm:"column:customer_phone"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'KES'"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(20,2);not null"`
	AmountPaid    decimal.Decimal     `gorm:"column:amount_paid;type:numeric(20,2);not null;default:0"`
	AmountDue     decimal.Decimal     `gorm:"column:amount_due;type:numeric(20,2);not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	// Version guards concurrent financial updates. Writers must bump it and
	// match the value they read.
	Version   int            `gorm:"column:version;not null;default:1"`
	Payments  []OrderPayment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
