package credentials

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
)

// Repository reads store gateway credentials. Rows are written by tenant
// settings, which live outside this service.
type Repository interface {
	FindByStoreAndGateway(ctx context.Context, storeID uuid.UUID, gateway enums.PaymentGateway) (*models.StorePaymentMethod, error)
	FindFirstActiveByGateway(ctx context.Context, gateway enums.PaymentGateway) (*models.StorePaymentMethod, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a credential repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByStoreAndGateway(ctx context.Context, storeID uuid.UUID, gateway enums.PaymentGateway) (*models.StorePaymentMethod, error) {
	var row models.StorePaymentMethod
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND gateway = ? AND active = ?", storeID, gateway, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindFirstActiveByGateway backs the unkeyed webhook paths. Paystack stores
// its signing secret in api_key rather than webhook_secret, so a row counts as
// configured when either column is populated.
func (r *repository) FindFirstActiveByGateway(ctx context.Context, gateway enums.PaymentGateway) (*models.StorePaymentMethod, error) {
	var row models.StorePaymentMethod
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND active = ? AND (webhook_secret <> '' OR (api_key IS NOT NULL AND api_key <> ''))", gateway, true).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
