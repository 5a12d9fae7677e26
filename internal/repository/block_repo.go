package repository

import (
	"context"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// ListForRange returns all blocks for an instance between two dates
// inclusive, reservations and manual blocks alike.
func (r *BlockRepository) ListForRange(ctx context.Context, instanceID int64, fromDate, toDate string) ([]domain.StationBlock, error) {
	var out []domain.StationBlock
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND date >= ? AND date <= ?", instanceID, fromDate, toDate).
		Find(&out).Error
	return out, err
}

// CreateManual records a manual block (maintenance, walk-in) with no backing
// reservation.
func (r *BlockRepository) CreateManual(ctx context.Context, block *domain.StationBlock) error {
	block.ReservationID = nil
	return r.db.WithContext(ctx).Create(block).Error
}
