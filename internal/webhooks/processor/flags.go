package processor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kamaucodes/dukapay-backend/pkg/db/models"
)

// FlagRepository manages persistence for reconciliation flags.
type FlagRepository interface {
	WithTx(tx *gorm.DB) FlagRepository
	Create(ctx context.Context, flag *models.ReconciliationFlag) error
	ListUnresolved(ctx context.Context, limit int) ([]models.ReconciliationFlag, error)
	Resolve(ctx context.Context, id uuid.UUID) error
}

type flagRepository struct {
	db *gorm.DB
}

// NewFlagRepository builds a flag repository bound to the provided DB.
func NewFlagRepository(db *gorm.DB) FlagRepository {
	return &flagRepository{db: db}
}

func (r *flagRepository) WithTx(tx *gorm.DB) FlagRepository {
	if tx == nil {
		return r
	}
	return &flagRepository{db: tx}
}

func (r *flagRepository) Create(ctx context.Context, flag *models.ReconciliationFlag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *flagRepository) ListUnresolved(ctx context.Context, limit int) ([]models.ReconciliationFlag, error) {
	if limit <= 0 {
		limit = 50
	}
	var flags []models.ReconciliationFlag
	if err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&flags).Error; err != nil {
		return nil, err
	}
	return flags, nil
}

func (r *flagRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&models.ReconciliationFlag{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
