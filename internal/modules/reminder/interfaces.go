package reminder

import (
	"context"

	"carwash/internal/domain"
)

type ReservationStore interface {
	ListReminderCandidates(ctx context.Context, fromDate, toDate string) ([]domain.Reservation, error)
	UpdateReminderState(ctx context.Context, res *domain.Reservation) error
}

type SettingsStore interface {
	GetByInstance(ctx context.Context, instanceID int64) (domain.BookingSettings, error)
}

type SMSLogStore interface {
	Create(ctx context.Context, l *domain.SMSLog) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Notifier escalates permanently failed reminders to the staff channel.
type Notifier interface {
	Notify(ctx context.Context, instanceID int64, title, body, url, dedupeTag string) error
}
