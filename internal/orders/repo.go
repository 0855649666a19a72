package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
	pkgerrors "github.com/kamaucodes/dukapay-backend/pkg/errors"
)

// ErrVersionConflict signals a lost optimistic-concurrency race on an order's
// financial columns. Callers retry with a fresh read.
var ErrVersionConflict = pkgerrors.New(pkgerrors.CodeConflict, "order version conflict")

// Repository manages persistence for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	FindOpenByPhoneSuffix(ctx context.Context, suffix string) (*models.Order, error)
	UpdateFinancials(ctx context.Context, order *models.Order, expectedVersion int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOpenByPhoneSuffix matches the most recent order with an outstanding
// balance whose customer phone ends in suffix. Used only for gateways that
// carry no order reference.
func (r *repository) FindOpenByPhoneSuffix(ctx context.Context, suffix string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("customer_phone LIKE ? AND amount_due > 0", "%"+suffix).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateFinancials writes the payment columns guarded by a version
// compare-and-swap. On success the in-memory order carries the new version.
func (r *repository) UpdateFinancials(ctx context.Context, order *models.Order, expectedVersion int) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(map[string]any{
			"amount_paid":    order.AmountPaid,
			"amount_due":     order.AmountDue,
			"payment_status": order.PaymentStatus,
			"version":        expectedVersion + 1,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = expectedVersion + 1
	return nil
}
