package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
)

// Repository manages persistence for order payment ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.OrderPayment) error
	FindByOrderAndRef(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.OrderPayment, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderPayment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.OrderPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByOrderAndRef(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.OrderPayment, error) {
	var payment models.OrderPayment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND payment_ref = ?", orderID, paymentRef).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderPayment, error) {
	var payments []models.OrderPayment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
