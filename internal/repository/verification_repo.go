package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, code *domain.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// ListActiveByPhone returns unverified, unexpired codes for a phone, newest
// first. Verification is phone-scoped: several pending payloads may coexist.
func (r *VerificationRepository) ListActiveByPhone(ctx context.Context, instanceID int64, phone string, now time.Time) ([]domain.VerificationCode, error) {
	var out []domain.VerificationCode
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND phone = ? AND verified = ? AND expires_at > ?", instanceID, phone, false, now).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Rotate replaces the code hash and restarts the expiry clock on an existing
// pending row (the widget's "resend" action).
func (r *VerificationRepository) Rotate(ctx context.Context, id int64, codeHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.VerificationCode{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{
			"code_hash":  codeHash,
			"expires_at": expiresAt,
		}).Error
}

// FindMatch locates a usable code row for phone+hash. Returns nil when
// nothing matches; invalid and expired are indistinguishable to callers.
func (r *VerificationRepository) FindMatch(ctx context.Context, instanceID int64, phone, codeHash string, now time.Time) (*domain.VerificationCode, error) {
	var row domain.VerificationCode
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND phone = ? AND code_hash = ? AND verified = ? AND expires_at > ?",
			instanceID, phone, codeHash, false, now).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// MarkVerified consumes the code. The verified=false guard makes it
// single-use: the second caller sees zero rows affected.
func (r *VerificationRepository) MarkVerified(ctx context.Context, id int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.VerificationCode{}).
		Where("id = ? AND verified = ?", id, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RegisterFailedAttempt bumps the attempt counter on every active code for
// the phone and expires those that hit the cap, so a guessed-at phone cannot
// be brute-forced through the 4-digit space.
func (r *VerificationRepository) RegisterFailedAttempt(ctx context.Context, instanceID int64, phone string, now time.Time, maxAttempts int) error {
	return r.db.WithContext(ctx).
		Model(&domain.VerificationCode{}).
		Where("instance_id = ? AND phone = ? AND verified = ? AND expires_at > ?", instanceID, phone, false, now).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"expires_at": gorm.Expr("CASE WHEN attempts + 1 >= ? THEN ? ELSE expires_at END", maxAttempts, now),
		}).Error
}

// DeleteExpired drops expired and consumed rows; they are inert but pile up.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR verified = ?", now, true).
		Delete(&domain.VerificationCode{})
	return res.RowsAffected, res.Error
}
