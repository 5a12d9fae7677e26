package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByInstance loads the instance's booking settings, falling back to the
// defaults when no row exists yet.
func (r *SettingsRepository) GetByInstance(ctx context.Context, instanceID int64) (domain.BookingSettings, error) {
	var s domain.BookingSettings
	err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DefaultBookingSettings(instanceID), nil
		}
		return domain.BookingSettings{}, err
	}
	return s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *domain.BookingSettings) error {
	return r.db.WithContext(ctx).Save(s).Error
}
