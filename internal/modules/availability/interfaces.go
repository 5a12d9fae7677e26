package availability

import (
	"context"

	"carwash/internal/domain"
)

type ServiceCatalog interface {
	GetByID(ctx context.Context, instanceID, id int64) (*domain.Service, error)
	GetByIDs(ctx context.Context, instanceID int64, ids []int64) ([]domain.Service, error)
}

type StationCatalog interface {
	ListActive(ctx context.Context, instanceID int64) ([]domain.Station, error)
}

type BlockStore interface {
	ListForRange(ctx context.Context, instanceID int64, fromDate, toDate string) ([]domain.StationBlock, error)
}

type SettingsStore interface {
	GetByInstance(ctx context.Context, instanceID int64) (domain.BookingSettings, error)
}
