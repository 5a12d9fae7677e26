package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carwash/internal/database"
	"carwash/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testReservation(code string) *domain.Reservation {
	stationID := int64(1)
	return &domain.Reservation{
		InstanceID:       1,
		ConfirmationCode: code,
		ServiceID:        5,
		StationID:        &stationID,
		Date:             "2026-03-02",
		StartTime:        "10:00",
		EndTime:          "11:00",
		CustomerName:     "Anna",
		CustomerPhone:    "+48601234567",
		Status:           domain.ReservationPending,
	}
}

func TestReservationRepository_CreateWithBlock(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	res := testReservation("1111111")
	require.NoError(t, repo.CreateWithBlock(ctx, res))
	require.NotZero(t, res.ID)

	var blocks []domain.StationBlock
	require.NoError(t, db.Find(&blocks).Error)
	require.Len(t, blocks, 1)
	assert.Equal(t, res.ID, *blocks[0].ReservationID)
	assert.Equal(t, "10:00", blocks[0].StartTime)
	assert.Equal(t, "11:00", blocks[0].EndTime)
}

func TestReservationRepository_NoBlockWithoutStation(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)

	res := testReservation("1111111")
	res.StationID = nil
	require.NoError(t, repo.CreateWithBlock(context.Background(), res))

	var count int64
	require.NoError(t, db.Model(&domain.StationBlock{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReservationRepository_DuplicateCode(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	first := testReservation("1111111")
	first.StationID = nil
	require.NoError(t, repo.CreateWithBlock(ctx, first))

	dup := testReservation("1111111")
	dup.StationID = nil
	dup.StartTime = "12:00"
	err := repo.CreateWithBlock(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestReservationRepository_SlotConflictRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateWithBlock(ctx, testReservation("1111111")))

	loser := testReservation("2222222")
	err := repo.CreateWithBlock(ctx, loser)
	assert.ErrorIs(t, err, ErrSlotConflict)

	// The losing reservation must not survive its failed block insert.
	var count int64
	require.NoError(t, db.Model(&domain.Reservation{}).
		Where("confirmation_code = ?", "2222222").Count(&count).Error)
	assert.Zero(t, count)
}

func TestReservationRepository_OverlappingIntervalConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateWithBlock(ctx, testReservation("1111111")))

	// Different start time, still inside 10:00-11:00.
	straddling := testReservation("2222222")
	straddling.StartTime = "10:30"
	straddling.EndTime = "11:30"
	assert.ErrorIs(t, repo.CreateWithBlock(ctx, straddling), ErrSlotConflict)

	enclosing := testReservation("3333333")
	enclosing.StartTime = "09:30"
	enclosing.EndTime = "11:30"
	assert.ErrorIs(t, repo.CreateWithBlock(ctx, enclosing), ErrSlotConflict)

	var count int64
	require.NoError(t, db.Model(&domain.StationBlock{}).
		Where("station_id = ?", 1).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Back-to-back is not an overlap.
	adjacent := testReservation("4444444")
	adjacent.StartTime = "11:00"
	adjacent.EndTime = "12:00"
	require.NoError(t, repo.CreateWithBlock(ctx, adjacent))
}

func TestReservationRepository_IdempotencyKey(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	key := "key-1"
	first := testReservation("1111111")
	first.StationID = nil
	first.IdempotencyKey = &key
	require.NoError(t, repo.CreateWithBlock(ctx, first))

	dup := testReservation("2222222")
	dup.StationID = nil
	dup.IdempotencyKey = &key
	assert.ErrorIs(t, repo.CreateWithBlock(ctx, dup), ErrDuplicateIdempotencyKey)

	found, err := repo.GetByIdempotencyKey(ctx, 1, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := repo.GetByIdempotencyKey(ctx, 1, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReservationRepository_ListByDateSkipsCancelled(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	keep := testReservation("1111111")
	keep.StationID = nil
	require.NoError(t, repo.CreateWithBlock(ctx, keep))

	gone := testReservation("2222222")
	gone.StationID = nil
	gone.Status = domain.ReservationCancelled
	require.NoError(t, repo.CreateWithBlock(ctx, gone))

	list, err := repo.ListByDate(ctx, 1, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1111111", list[0].ConfirmationCode)
}

func TestReservationRepository_ReminderCandidates(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	pending := testReservation("1111111")
	pending.StationID = nil
	require.NoError(t, repo.CreateWithBlock(ctx, pending))

	done := testReservation("2222222")
	done.StationID = nil
	done.DayReminderSent = true
	done.HourReminderSent = true
	require.NoError(t, repo.CreateWithBlock(ctx, done))

	dead := testReservation("3333333")
	dead.StationID = nil
	dead.ReminderPermanentlyFailed = true
	require.NoError(t, repo.CreateWithBlock(ctx, dead))

	list, err := repo.ListReminderCandidates(ctx, "2026-03-01", "2026-03-03")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1111111", list[0].ConfirmationCode)
}

func TestReservationRepository_UpdateReminderStateIsScoped(t *testing.T) {
	db := newTestDB(t)
	repo := NewReservationRepository(db)
	ctx := context.Background()

	res := testReservation("1111111")
	res.StationID = nil
	require.NoError(t, repo.CreateWithBlock(ctx, res))

	now := time.Now()
	res.DayReminderSent = true
	res.DayReminderLastTry = &now
	res.CustomerName = "should not persist"
	require.NoError(t, repo.UpdateReminderState(ctx, res))

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, got.DayReminderSent)
	assert.Equal(t, "Anna", got.CustomerName)
}

func TestVerificationRepository_SingleUse(t *testing.T) {
	db := newTestDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	now := time.Now()

	code := &domain.VerificationCode{
		InstanceID: 1,
		Phone:      "+48601234567",
		CodeHash:   "hash-1",
		Payload:    []byte(`{}`),
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, code))

	row, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-1", now)
	require.NoError(t, err)
	require.NotNil(t, row)

	ok, err := repo.MarkVerified(ctx, row.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkVerified(ctx, row.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	gone, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-1", now)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestVerificationRepository_ExpiredInvisible(t *testing.T) {
	db := newTestDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &domain.VerificationCode{
		InstanceID: 1,
		Phone:      "+48601234567",
		CodeHash:   "hash-1",
		Payload:    []byte(`{}`),
		ExpiresAt:  now.Add(-time.Minute),
	}))

	row, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-1", now)
	require.NoError(t, err)
	assert.Nil(t, row)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestVerificationRepository_Rotate(t *testing.T) {
	db := newTestDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	now := time.Now()

	code := &domain.VerificationCode{
		InstanceID: 1,
		Phone:      "+48601234567",
		CodeHash:   "hash-old",
		Payload:    []byte(`{}`),
		ExpiresAt:  now.Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, code))
	require.NoError(t, repo.Rotate(ctx, code.ID, "hash-new", now.Add(time.Hour)))

	old, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-old", now)
	require.NoError(t, err)
	assert.Nil(t, old)

	fresh, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-new", now)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.True(t, fresh.ExpiresAt.After(now.Add(30*time.Minute)))
}

func TestVerificationRepository_AttemptCapExpiresCode(t *testing.T) {
	db := newTestDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	now := time.Now()

	code := &domain.VerificationCode{
		InstanceID: 1,
		Phone:      "+48601234567",
		CodeHash:   "hash-1",
		Payload:    []byte(`{}`),
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, code))

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.RegisterFailedAttempt(ctx, 1, "+48601234567", now, 3))
		row, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-1", now)
		require.NoError(t, err)
		require.NotNil(t, row, "code should survive attempt %d", i+1)
	}

	// The third wrong guess hits the cap and expires the code.
	require.NoError(t, repo.RegisterFailedAttempt(ctx, 1, "+48601234567", now, 3))
	row, err := repo.FindMatch(ctx, 1, "+48601234567", "hash-1", now)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestCustomerRepository_VerifiedFlagIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, 1, "+48601234567", "Anna", true))
	require.NoError(t, repo.Upsert(ctx, 1, "+48601234567", "Anna K.", false))

	c, err := repo.GetByPhone(ctx, 1, "+48601234567")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.PhoneVerified)
	assert.Equal(t, "Anna K.", c.Name)
}

func TestCustomerRepository_ModelProposalCounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertModelProposal(ctx, 1, "Toyota", "corolla"))
	require.NoError(t, repo.UpsertModelProposal(ctx, 1, "Toyota", "corolla"))

	var p domain.VehicleModelProposal
	require.NoError(t, db.First(&p).Error)
	assert.Equal(t, 2, p.SeenCount)
}

func TestSettingsRepository_DefaultsWhenMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	s, err := repo.GetByInstance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.InstanceID)
	assert.Equal(t, 30, s.HorizonDays)

	s.HorizonDays = 14
	require.NoError(t, repo.Save(ctx, &s))

	saved, err := repo.GetByInstance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 14, saved.HorizonDays)
}
