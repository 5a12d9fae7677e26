package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carwash/internal/domain"
)

type MockServiceCatalog struct {
	mock.Mock
}

func (m *MockServiceCatalog) GetByID(ctx context.Context, instanceID, id int64) (*domain.Service, error) {
	args := m.Called(ctx, instanceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockServiceCatalog) GetByIDs(ctx context.Context, instanceID int64, ids []int64) ([]domain.Service, error) {
	args := m.Called(ctx, instanceID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Service), args.Error(1)
}

type MockStationCatalog struct {
	mock.Mock
}

func (m *MockStationCatalog) ListActive(ctx context.Context, instanceID int64) ([]domain.Station, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Station), args.Error(1)
}

type MockBlockStore struct {
	mock.Mock
}

func (m *MockBlockStore) ListForRange(ctx context.Context, instanceID int64, fromDate, toDate string) ([]domain.StationBlock, error) {
	args := m.Called(ctx, instanceID, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StationBlock), args.Error(1)
}

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) GetByInstance(ctx context.Context, instanceID int64) (domain.BookingSettings, error) {
	args := m.Called(ctx, instanceID)
	return args.Get(0).(domain.BookingSettings), args.Error(1)
}

func newAvailabilityService(t *testing.T) (*Service, *MockServiceCatalog, *MockStationCatalog, *MockBlockStore, *MockSettingsStore) {
	t.Helper()
	services := new(MockServiceCatalog)
	stations := new(MockStationCatalog)
	blocks := new(MockBlockStore)
	settings := new(MockSettingsStore)
	return NewService(services, stations, blocks, settings), services, stations, blocks, settings
}

func TestComputeAvailableSlots_EndToEnd(t *testing.T) {
	svc, services, stations, blocks, settings := newAvailabilityService(t)

	cfg := testSettings(2, 0, 30)
	settings.On("GetByInstance", mock.Anything, int64(1)).Return(cfg, nil)
	services.On("GetByID", mock.Anything, int64(1), int64(5)).
		Return(&domain.Service{ID: 5, DurationMinutes: 60, Active: true}, nil)
	stations.On("ListActive", mock.Anything, int64(1)).
		Return([]domain.Station{station(1, domain.StationTypeUniversal)}, nil)
	blocks.On("ListForRange", mock.Anything, int64(1), "2026-03-02", "2026-03-03").
		Return([]domain.StationBlock{block(1, "2026-03-02", "10:00", "11:00")}, nil)

	days, err := svc.ComputeAvailableSlots(context.Background(), SlotQuery{
		InstanceID: 1,
		ServiceID:  5,
		Now:        monday,
	})
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, []string{"09:00", "11:00"}, slotTimes(days[0]))
}

func TestComputeAvailableSlots_ServiceNotFound(t *testing.T) {
	svc, services, _, _, settings := newAvailabilityService(t)

	settings.On("GetByInstance", mock.Anything, int64(1)).Return(testSettings(1, 0, 30), nil)
	services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.ComputeAvailableSlots(context.Background(), SlotQuery{InstanceID: 1, ServiceID: 5, Now: monday})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestComputeAvailableSlots_UnknownAddon(t *testing.T) {
	svc, services, _, _, settings := newAvailabilityService(t)

	settings.On("GetByInstance", mock.Anything, int64(1)).Return(testSettings(1, 0, 30), nil)
	services.On("GetByID", mock.Anything, int64(1), int64(5)).
		Return(&domain.Service{ID: 5, DurationMinutes: 60, Active: true}, nil)
	services.On("GetByIDs", mock.Anything, int64(1), []int64{7, 8}).
		Return([]domain.Service{{ID: 7, DurationMinutes: 15}}, nil)

	_, err := svc.ComputeAvailableSlots(context.Background(), SlotQuery{
		InstanceID: 1,
		ServiceID:  5,
		AddonIDs:   []int64{7, 8},
		Now:        monday,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeAvailableSlots_AddonDurationNarrowsGrid(t *testing.T) {
	svc, services, stations, blocks, settings := newAvailabilityService(t)

	settings.On("GetByInstance", mock.Anything, int64(1)).Return(testSettings(1, 0, 30), nil)
	services.On("GetByID", mock.Anything, int64(1), int64(5)).
		Return(&domain.Service{ID: 5, DurationMinutes: 120, Active: true}, nil)
	services.On("GetByIDs", mock.Anything, int64(1), []int64{7}).
		Return([]domain.Service{{ID: 7, DurationMinutes: 60}}, nil)
	stations.On("ListActive", mock.Anything, int64(1)).
		Return([]domain.Station{station(1, domain.StationTypeUniversal)}, nil)
	blocks.On("ListForRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StationBlock{}, nil)

	days, err := svc.ComputeAvailableSlots(context.Background(), SlotQuery{
		InstanceID: 1,
		ServiceID:  5,
		AddonIDs:   []int64{7},
		Now:        monday,
	})
	require.NoError(t, err)
	require.Len(t, days, 1)

	// 180 minutes against a 09:00-12:00 day leaves exactly one start.
	assert.Equal(t, []string{"09:00"}, slotTimes(days[0]))
}
