package booking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carwash/internal/domain"
	"carwash/internal/pkg/sms"
	"carwash/internal/repository"
)

type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) CreateWithBlock(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	if args.Error(0) == nil && res != nil {
		res.ID = 999
	}
	return args.Error(0)
}

func (m *MockReservationStore) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationStore) GetByIdempotencyKey(ctx context.Context, instanceID int64, key string) (*domain.Reservation, error) {
	args := m.Called(ctx, instanceID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationStore) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationStore) ListByDate(ctx context.Context, instanceID int64, date string) ([]domain.Reservation, error) {
	args := m.Called(ctx, instanceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

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

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) GetByPhone(ctx context.Context, instanceID int64, phone string) (*domain.Customer, error) {
	args := m.Called(ctx, instanceID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerStore) Upsert(ctx context.Context, instanceID int64, phone, name string, verified bool) error {
	args := m.Called(ctx, instanceID, phone, name, verified)
	return args.Error(0)
}

func (m *MockCustomerStore) UpsertVehicle(ctx context.Context, instanceID int64, phone, vehicle string) error {
	args := m.Called(ctx, instanceID, phone, vehicle)
	return args.Error(0)
}

func (m *MockCustomerStore) UpsertModelProposal(ctx context.Context, instanceID int64, make, model string) error {
	args := m.Called(ctx, instanceID, make, model)
	return args.Error(0)
}

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockSMSLogStore struct {
	mock.Mock
}

func (m *MockSMSLogStore) Create(ctx context.Context, l *domain.SMSLog) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, phoneE164, text string) (sms.Result, error) {
	args := m.Called(ctx, phoneE164, text)
	return args.Get(0).(sms.Result), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, instanceID int64, title, body, url, dedupeTag string) error {
	args := m.Called(ctx, instanceID, title, body, url, dedupeTag)
	return args.Error(0)
}

type bookingMocks struct {
	reservations  *MockReservationStore
	services      *MockServiceCatalog
	customers     *MockCustomerStore
	notifications *MockNotificationStore
	smsLogs       *MockSMSLogStore
	sender        *MockSender
	pusher        *MockNotifier
}

func newBookingService(t *testing.T) (*Service, *bookingMocks) {
	t.Helper()
	m := &bookingMocks{
		reservations:  new(MockReservationStore),
		services:      new(MockServiceCatalog),
		customers:     new(MockCustomerStore),
		notifications: new(MockNotificationStore),
		smsLogs:       new(MockSMSLogStore),
		sender:        new(MockSender),
		pusher:        new(MockNotifier),
	}
	svc := NewService(
		m.reservations, m.services, m.customers,
		m.notifications, m.smsLogs, m.sender, m.pusher,
		zap.NewNop(),
	)
	return svc, m
}

func washService() *domain.Service {
	return &domain.Service{
		ID:              5,
		InstanceID:      1,
		Name:            "Exterior wash",
		DurationMinutes: 60,
		Price:           25,
		Active:          true,
	}
}

func commitRequest() CommitRequest {
	stationID := int64(2)
	return CommitRequest{
		InstanceID:    1,
		ServiceID:     5,
		StationID:     &stationID,
		Date:          "2026-03-02",
		StartTime:     "10:00",
		CustomerName:  "Anna",
		CustomerPhone: "+48601234567",
		Vehicle:       "toyota corolla",
	}
}

func allowSideEffects(m *bookingMocks) {
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.pusher.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.customers.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.customers.On("UpsertVehicle", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.customers.On("UpsertModelProposal", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	m.smsLogs.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func TestCommit_PendingWhenNoAutoConfirm(t *testing.T) {
	svc, m := newBookingService(t)
	allowSideEffects(m)

	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(nil)

	var sentText string
	m.sender.On("Send", mock.Anything, "+48601234567", mock.Anything).
		Run(func(args mock.Arguments) { sentText = args.String(2) }).
		Return(sms.Result{Status: sms.StatusSent}, nil)

	settings := domain.DefaultBookingSettings(1)
	res, err := svc.Commit(context.Background(), settings, commitRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Len(t, res.ConfirmationCode, 7)
	assert.Equal(t, "11:00", res.EndTime)
	assert.Contains(t, sentText, "We will confirm it shortly")
	assert.Contains(t, sentText, res.ConfirmationCode)
}

func TestCommit_ConfirmedWhenAutoConfirm(t *testing.T) {
	svc, m := newBookingService(t)
	allowSideEffects(m)

	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(nil)

	var sentText string
	m.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sentText = args.String(2) }).
		Return(sms.Result{Status: sms.StatusSent}, nil)

	settings := domain.DefaultBookingSettings(1)
	settings.AutoConfirm = true
	res, err := svc.Commit(context.Background(), settings, commitRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.ReservationConfirmed, res.Status)
	assert.Contains(t, sentText, "is confirmed")
}

func TestCommit_SizeAwareDurationWithAddons(t *testing.T) {
	svc, m := newBookingService(t)
	allowSideEffects(m)

	largeDur := 90
	main := washService()
	main.DurationLarge = &largeDur
	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(main, nil)
	m.services.On("GetByIDs", mock.Anything, int64(1), []int64{7}).
		Return([]domain.Service{{ID: 7, DurationMinutes: 15}}, nil)

	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(nil)
	m.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(sms.Result{Status: sms.StatusSimulated}, nil)

	req := commitRequest()
	req.CarSize = domain.CarSizeLarge
	req.AddonIDs = []int64{7}

	res, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), req)
	require.NoError(t, err)

	// 90 for the large main service plus the 15-minute addon.
	assert.Equal(t, "11:45", res.EndTime)
}

func TestCommit_UnknownAddonRejected(t *testing.T) {
	svc, m := newBookingService(t)

	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.services.On("GetByIDs", mock.Anything, int64(1), []int64{7, 8}).
		Return([]domain.Service{{ID: 7, DurationMinutes: 15}}, nil)

	req := commitRequest()
	req.AddonIDs = []int64{7, 8}

	_, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCommit_IdempotencyKeyReplayReturnsWinner(t *testing.T) {
	svc, m := newBookingService(t)

	existing := &domain.Reservation{ID: 7, ConfirmationCode: "1234567"}
	m.reservations.On("GetByIdempotencyKey", mock.Anything, int64(1), "key-1").Return(existing, nil)

	req := commitRequest()
	req.IdempotencyKey = "key-1"

	res, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), req)
	require.NoError(t, err)
	assert.Equal(t, existing, res)
	m.reservations.AssertNotCalled(t, "CreateWithBlock", mock.Anything, mock.Anything)
}

func TestCommit_IdempotencyRaceLostFetchesWinner(t *testing.T) {
	svc, m := newBookingService(t)

	winner := &domain.Reservation{ID: 7, ConfirmationCode: "7654321"}
	m.reservations.On("GetByIdempotencyKey", mock.Anything, int64(1), "key-1").Return(nil, nil).Once()
	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(repository.ErrDuplicateIdempotencyKey)
	m.reservations.On("GetByIdempotencyKey", mock.Anything, int64(1), "key-1").Return(winner, nil)

	req := commitRequest()
	req.IdempotencyKey = "key-1"

	res, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), req)
	require.NoError(t, err)
	assert.Equal(t, winner, res)

	// The winning submit already notified the customer; the lost race must
	// not send a second SMS or repeat the other effects.
	m.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	m.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.customers.AssertNotCalled(t, "Upsert",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCommit_SlotConflictMapsToSlotTaken(t *testing.T) {
	svc, m := newBookingService(t)

	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(repository.ErrSlotConflict)

	_, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), commitRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCommit_RetriesOnDuplicateCode(t *testing.T) {
	svc, m := newBookingService(t)
	allowSideEffects(m)

	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(repository.ErrDuplicateCode).Once()
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(nil).Once()
	m.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(sms.Result{Status: sms.StatusSimulated}, nil)

	res, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), commitRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, res.ConfirmationCode)
	m.reservations.AssertNumberOfCalls(t, "CreateWithBlock", 2)
}

func TestCommit_RequireVerifiedPhoneUnverified(t *testing.T) {
	svc, m := newBookingService(t)

	m.customers.On("GetByPhone", mock.Anything, int64(1), "+48601234567").
		Return(&domain.Customer{Phone: "+48601234567", PhoneVerified: false}, nil)

	req := commitRequest()
	req.RequireVerifiedPhone = true

	_, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), req)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestCommit_SideEffectFailuresDoNotAbort(t *testing.T) {
	svc, m := newBookingService(t)

	m.services.On("GetByID", mock.Anything, int64(1), int64(5)).Return(washService(), nil)
	m.reservations.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	m.reservations.On("CreateWithBlock", mock.Anything, mock.Anything).Return(nil)

	boom := errors.New("effect down")
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(boom)
	m.pusher.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)
	m.customers.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)
	m.customers.On("UpsertVehicle", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)
	m.customers.On("UpsertModelProposal", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)
	m.smsLogs.On("Create", mock.Anything, mock.Anything).Return(boom)
	m.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(sms.Result{Status: sms.StatusFailed}, errors.New("sms down"))

	res, err := svc.Commit(context.Background(), domain.DefaultBookingSettings(1), commitRequest())
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestCommit_Validation(t *testing.T) {
	svc, _ := newBookingService(t)
	settings := domain.DefaultBookingSettings(1)

	broken := func(mut func(*CommitRequest)) CommitRequest {
		req := commitRequest()
		mut(&req)
		return req
	}

	cases := map[string]CommitRequest{
		"missing instance": broken(func(r *CommitRequest) { r.InstanceID = 0 }),
		"missing service":  broken(func(r *CommitRequest) { r.ServiceID = 0 }),
		"blank name":       broken(func(r *CommitRequest) { r.CustomerName = "  " }),
		"blank phone":      broken(func(r *CommitRequest) { r.CustomerPhone = "" }),
		"bad date":         broken(func(r *CommitRequest) { r.Date = "03/02/2026" }),
		"bad time":         broken(func(r *CommitRequest) { r.StartTime = "25:00" }),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Commit(context.Background(), settings, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGetReservationsByDate_BadDate(t *testing.T) {
	svc, _ := newBookingService(t)

	_, err := svc.GetReservationsByDate(context.Background(), 1, "yesterday")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeriveModelProposal(t *testing.T) {
	make, model, ok := deriveModelProposal("  toyota corolla 2019 ")
	require.True(t, ok)
	assert.Equal(t, "Toyota", make)
	assert.Equal(t, "corolla", model)

	// A multi-byte first letter must upper-case as a rune, not a byte.
	make, model, ok = deriveModelProposal("škoda fabia")
	require.True(t, ok)
	assert.Equal(t, "Škoda", make)
	assert.Equal(t, "fabia", model)

	_, _, ok = deriveModelProposal("toyota")
	assert.False(t, ok)

	_, _, ok = deriveModelProposal(strings.Repeat(" ", 3))
	assert.False(t, ok)
}
