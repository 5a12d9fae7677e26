package verification

import (
	"context"
	"time"

	"carwash/internal/domain"
	"carwash/internal/modules/booking"
)

type CodeStore interface {
	Create(ctx context.Context, code *domain.VerificationCode) error
	ListActiveByPhone(ctx context.Context, instanceID int64, phone string, now time.Time) ([]domain.VerificationCode, error)
	Rotate(ctx context.Context, id int64, codeHash string, expiresAt time.Time) error
	FindMatch(ctx context.Context, instanceID int64, phone, codeHash string, now time.Time) (*domain.VerificationCode, error)
	MarkVerified(ctx context.Context, id int64, now time.Time) (bool, error)
	RegisterFailedAttempt(ctx context.Context, instanceID int64, phone string, now time.Time, maxAttempts int) error
}

type CustomerStore interface {
	GetByPhone(ctx context.Context, instanceID int64, phone string) (*domain.Customer, error)
	MarkVerified(ctx context.Context, instanceID int64, phone string) error
}

// Committer is the reservation commit transaction; satisfied by the booking
// service.
type Committer interface {
	Commit(ctx context.Context, settings domain.BookingSettings, req booking.CommitRequest) (*domain.Reservation, error)
}

type SMSLogStore interface {
	Create(ctx context.Context, l *domain.SMSLog) error
}

type SettingsStore interface {
	GetByInstance(ctx context.Context, instanceID int64) (domain.BookingSettings, error)
}
