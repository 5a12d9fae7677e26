package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// CreateWithBlock inserts the reservation and its station block in one
// transaction. Unique violations come back as the repository sentinels so the
// commit logic can distinguish code collisions from lost slot races.
func (r *ReservationRepository) CreateWithBlock(ctx context.Context, res *domain.Reservation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		if res.StationID != nil {
			// The unique index only rejects identical start times;
			// overlapping intervals need an explicit range check.
			// "15:04" strings compare correctly as text.
			var overlapping int64
			if err := tx.Model(&domain.StationBlock{}).
				Where("station_id = ? AND date = ? AND start_time < ? AND end_time > ?",
					*res.StationID, res.Date, res.EndTime, res.StartTime).
				Count(&overlapping).Error; err != nil {
				return err
			}
			if overlapping > 0 {
				return ErrSlotConflict
			}
			block := domain.StationBlock{
				InstanceID:    res.InstanceID,
				StationID:     *res.StationID,
				Date:          res.Date,
				StartTime:     res.StartTime,
				EndTime:       res.EndTime,
				ReservationID: &res.ID,
			}
			if err := tx.Create(&block).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return mapUniqueViolation(err)
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var res domain.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("confirmation_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *ReservationRepository) GetByIdempotencyKey(ctx context.Context, instanceID int64, key string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND idempotency_key = ?", instanceID, key).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *ReservationRepository) ListByDate(ctx context.Context, instanceID int64, date string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND date = ? AND status <> ?", instanceID, date, domain.ReservationCancelled).
		Order("start_time").
		Find(&out).Error
	return out, err
}

// ListReminderCandidates returns non-cancelled reservations in the date range
// that could still need a reminder. The permanently-failed and fully-sent
// filters run in SQL so the sweep never loads rows it would skip anyway.
func (r *ReservationRepository) ListReminderCandidates(ctx context.Context, fromDate, toDate string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", fromDate, toDate).
		Where("status <> ?", domain.ReservationCancelled).
		Where("reminder_permanently_failed = ?", false).
		Where("NOT (day_reminder_sent AND hour_reminder_sent)").
		Order("date, start_time").
		Find(&out).Error
	return out, err
}

// reminderColumns is everything the sweep may touch; updates select exactly
// this set so concurrent edits to other fields are never overwritten.
var reminderColumns = []string{
	"day_reminder_sent", "day_reminder_last_try",
	"hour_reminder_sent", "hour_reminder_last_try",
	"reminder_failure_count", "reminder_permanently_failed", "reminder_failure_reason",
	"updated_at",
}

func (r *ReservationRepository) UpdateReminderState(ctx context.Context, res *domain.Reservation) error {
	res.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("id = ?", res.ID).
		Select(reminderColumns).
		Updates(res).Error
}
