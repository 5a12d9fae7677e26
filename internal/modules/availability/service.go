package availability

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type Service struct {
	services ServiceCatalog
	stations StationCatalog
	blocks   BlockStore
	settings SettingsStore
}

func NewService(services ServiceCatalog, stations StationCatalog, blocks BlockStore, settings SettingsStore) *Service {
	return &Service{
		services: services,
		stations: stations,
		blocks:   blocks,
		settings: settings,
	}
}

type SlotQuery struct {
	InstanceID int64
	ServiceID  int64
	AddonIDs   []int64
	CarSize    domain.CarSize
	Now        time.Time

	// ExcludeReservationID is set when recomputing slots for a reschedule.
	ExcludeReservationID int64
}

// ComputeAvailableSlots loads the instance configuration and occupancy, then
// runs the pure grid generator over them.
func (s *Service) ComputeAvailableSlots(ctx context.Context, q SlotQuery) ([]AvailableDay, error) {
	settings, err := s.settings.GetByInstance(ctx, q.InstanceID)
	if err != nil {
		return nil, err
	}

	svc, err := s.services.GetByID(ctx, q.InstanceID, q.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	duration, err := s.totalDuration(ctx, q, svc)
	if err != nil {
		return nil, err
	}

	stations, err := s.stations.ListActive(ctx, q.InstanceID)
	if err != nil {
		return nil, err
	}

	fromDate := q.Now.Format(domain.DateLayout)
	toDate := q.Now.AddDate(0, 0, settings.HorizonDays-1).Format(domain.DateLayout)
	blocks, err := s.blocks.ListForRange(ctx, q.InstanceID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	return Generate(GridInput{
		Settings:             settings,
		DurationMinutes:      duration,
		RequiredType:         svc.RequiredStationType,
		Stations:             stations,
		Blocks:               blocks,
		Now:                  q.Now,
		ExcludeReservationID: q.ExcludeReservationID,
	})
}

// totalDuration sums the primary service with every selected addon, each
// resolved with the same size-aware fallback rule.
func (s *Service) totalDuration(ctx context.Context, q SlotQuery, svc *domain.Service) (int, error) {
	total := svc.DurationFor(q.CarSize)
	if len(q.AddonIDs) == 0 {
		return total, nil
	}

	addons, err := s.services.GetByIDs(ctx, q.InstanceID, q.AddonIDs)
	if err != nil {
		return 0, err
	}
	if len(addons) != len(q.AddonIDs) {
		return 0, ErrValidation
	}
	for _, a := range addons {
		total += a.DurationFor(q.CarSize)
	}
	return total, nil
}
