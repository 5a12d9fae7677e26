package booking

import (
	"context"

	"carwash/internal/domain"
)

type ReservationStore interface {
	CreateWithBlock(ctx context.Context, res *domain.Reservation) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByIdempotencyKey(ctx context.Context, instanceID int64, key string) (*domain.Reservation, error)
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	ListByDate(ctx context.Context, instanceID int64, date string) ([]domain.Reservation, error)
}

type ServiceCatalog interface {
	GetByID(ctx context.Context, instanceID, id int64) (*domain.Service, error)
	GetByIDs(ctx context.Context, instanceID int64, ids []int64) ([]domain.Service, error)
}

type CustomerStore interface {
	GetByPhone(ctx context.Context, instanceID int64, phone string) (*domain.Customer, error)
	Upsert(ctx context.Context, instanceID int64, phone, name string, verified bool) error
	UpsertVehicle(ctx context.Context, instanceID int64, phone, vehicle string) error
	UpsertModelProposal(ctx context.Context, instanceID int64, make, model string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type SMSLogStore interface {
	Create(ctx context.Context, l *domain.SMSLog) error
}
