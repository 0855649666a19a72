package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// StorePaymentMethod holds a store's gateway credentials. Secret material is
// encrypted at rest and decrypted only inside the credential resolver.
type StorePaymentMethod struct {
	ID      uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID uuid.UUID            `gorm:"column:store_id;type:uuid;not null;uniqueIndex:ux_store_payment_methods_store_gateway"`
	Gateway enums.PaymentGateway `gorm:"column:gateway;type:text;not null;uniqueIndex:ux_store_payment_methods_store_gateway"`
	// WebhookSecret verifies inbound webhook signatures. Encrypted.
	WebhookSecret string `gorm:"column:webhook_secret;not null"`
	// APIKey authorizes outbound calls to the gateway. Encrypted, optional.
	APIKey    *string   `gorm:"column:api_key"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
