package repository

import (
	"context"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type StationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) *StationRepository {
	return &StationRepository{db: db}
}

// ListActive returns active stations in sort order. The slot generator's
// "first compatible, first available" auto-assignment depends on this order.
func (r *StationRepository) ListActive(ctx context.Context, instanceID int64) ([]domain.Station, error) {
	var out []domain.Station
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND active = ?", instanceID, true).
		Order("sort_order, id").
		Find(&out).Error
	return out, err
}

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) GetByID(ctx context.Context, instanceID, id int64) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND id = ? AND active = ?", instanceID, id, true).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *ServiceRepository) GetByIDs(ctx context.Context, instanceID int64, ids []int64) ([]domain.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Service
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND id IN ? AND active = ?", instanceID, ids, true).
		Find(&out).Error
	return out, err
}
