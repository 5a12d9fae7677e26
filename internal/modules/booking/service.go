package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"carwash/internal/domain"
	"carwash/internal/pkg/phone"
	"carwash/internal/pkg/push"
	"carwash/internal/pkg/sms"
	"carwash/internal/repository"
)

// insertAttempts bounds re-allocation after an insert-time code collision.
// Each attempt already carries the allocator's own ten-draw bound.
const insertAttempts = 3

type Service struct {
	reservations  ReservationStore
	services      ServiceCatalog
	customers     CustomerStore
	notifications NotificationStore
	smsLogs       SMSLogStore
	sender        sms.Sender
	pusher        push.Notifier
	allocator     *CodeAllocator
	logger        *zap.Logger
}

func NewService(
	reservations ReservationStore,
	services ServiceCatalog,
	customers CustomerStore,
	notifications NotificationStore,
	smsLogs SMSLogStore,
	sender sms.Sender,
	pusher push.Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		reservations:  reservations,
		services:      services,
		customers:     customers,
		notifications: notifications,
		smsLogs:       smsLogs,
		sender:        sender,
		pusher:        pusher,
		allocator:     NewCodeAllocator(reservations),
		logger:        logger,
	}
}

// Commit creates the reservation exactly once. Code allocation and the insert
// are fatal on failure; everything after the insert is best-effort: the
// reservation's existence is the source of truth, notifications are not.
func (s *Service) Commit(ctx context.Context, settings domain.BookingSettings, req CommitRequest) (*domain.Reservation, error) {
	if err := validateCommit(req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.reservations.GetByIdempotencyKey(ctx, req.InstanceID, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	normalizedPhone := phone.NormalizeOrFallback(req.CustomerPhone, settings.DefaultPhoneRegion)

	if req.RequireVerifiedPhone {
		cust, err := s.customers.GetByPhone(ctx, req.InstanceID, normalizedPhone)
		if err != nil {
			return nil, err
		}
		if cust == nil || !cust.PhoneVerified {
			return nil, ErrNotVerified
		}
	}

	svc, err := s.services.GetByID(ctx, req.InstanceID, req.ServiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrValidation
		}
		return nil, err
	}

	duration, err := s.totalDuration(ctx, req, svc)
	if err != nil {
		return nil, err
	}
	startMin, err := domain.ParseClock(req.StartTime)
	if err != nil {
		return nil, ErrValidation
	}
	endTime := domain.FormatClock(startMin + duration)

	status := domain.ReservationPending
	if settings.AutoConfirm {
		status = domain.ReservationConfirmed
	}

	created, replayed, err := s.insertWithFreshCodes(ctx, req, normalizedPhone, endTime, status)
	if err != nil {
		return nil, err
	}
	if replayed {
		// The winning submit already ran the effects and sent the SMS.
		return created, nil
	}

	s.runPostCommitEffects(ctx, created, svc)
	s.sendCustomerSMS(ctx, created, svc)

	return created, nil
}

func (s *Service) insertWithFreshCodes(ctx context.Context, req CommitRequest, normalizedPhone, endTime string, status domain.ReservationStatus) (*domain.Reservation, bool, error) {
	var addonJSON json.RawMessage
	if len(req.AddonIDs) > 0 {
		addonJSON, _ = json.Marshal(req.AddonIDs)
	}
	var idemKey *string
	if req.IdempotencyKey != "" {
		k := req.IdempotencyKey
		idemKey = &k
	}

	for attempt := 0; attempt < insertAttempts; attempt++ {
		code, err := s.allocator.Allocate(ctx)
		if err != nil {
			return nil, false, err
		}

		res := &domain.Reservation{
			InstanceID:       req.InstanceID,
			ConfirmationCode: code,
			ServiceID:        req.ServiceID,
			AddonIDs:         addonJSON,
			CarSize:          req.CarSize,
			StationID:        req.StationID,
			Date:             req.Date,
			StartTime:        req.StartTime,
			EndTime:          endTime,
			CustomerName:     req.CustomerName,
			CustomerPhone:    normalizedPhone,
			Vehicle:          req.Vehicle,
			Status:           status,
			Source:           req.Source,
			IdempotencyKey:   idemKey,
		}

		err = s.reservations.CreateWithBlock(ctx, res)
		switch {
		case err == nil:
			return res, false, nil
		case errors.Is(err, repository.ErrDuplicateCode):
			continue
		case errors.Is(err, repository.ErrDuplicateIdempotencyKey):
			// Lost a race against our own duplicate submit: the winner
			// is the reservation we wanted, and it already got its
			// side effects.
			existing, getErr := s.reservations.GetByIdempotencyKey(ctx, req.InstanceID, req.IdempotencyKey)
			if getErr != nil {
				return nil, false, getErr
			}
			if existing == nil {
				return nil, false, err
			}
			return existing, true, nil
		case errors.Is(err, repository.ErrSlotConflict):
			return nil, false, ErrSlotTaken
		default:
			return nil, false, err
		}
	}
	return nil, false, ErrCodeSpaceExhausted
}

func (s *Service) totalDuration(ctx context.Context, req CommitRequest, svc *domain.Service) (int, error) {
	total := svc.DurationFor(req.CarSize)
	if len(req.AddonIDs) == 0 {
		return total, nil
	}
	addons, err := s.services.GetByIDs(ctx, req.InstanceID, req.AddonIDs)
	if err != nil {
		return 0, err
	}
	if len(addons) != len(req.AddonIDs) {
		return 0, ErrValidation
	}
	for _, a := range addons {
		total += a.DurationFor(req.CarSize)
	}
	return total, nil
}

// runPostCommitEffects walks the best-effort side effects in order, logging
// each failure and never aborting the committed reservation.
func (s *Service) runPostCommitEffects(ctx context.Context, res *domain.Reservation, svc *domain.Service) {
	effects := []struct {
		name string
		fn   func() error
	}{
		{"internal_notification", func() error {
			return s.notifications.Create(ctx, &domain.Notification{
				InstanceID: res.InstanceID,
				Type:       domain.NotifReservationCreated,
				Title:      "New reservation",
				Message:    fmt.Sprintf("%s on %s at %s (%s)", svc.Name, res.Date, res.StartTime, res.CustomerName),
			})
		}},
		{"staff_push", func() error {
			return s.pusher.Notify(ctx, res.InstanceID,
				"New reservation",
				fmt.Sprintf("%s, %s %s", svc.Name, res.Date, res.StartTime),
				fmt.Sprintf("/admin/reservations?date=%s", res.Date),
				fmt.Sprintf("reservation-%d", res.ID),
			)
		}},
		{"customer_upsert", func() error {
			return s.customers.Upsert(ctx, res.InstanceID, res.CustomerPhone, res.CustomerName, true)
		}},
		{"vehicle_history", func() error {
			if res.Vehicle == "" {
				return nil
			}
			return s.customers.UpsertVehicle(ctx, res.InstanceID, res.CustomerPhone, res.Vehicle)
		}},
		{"model_proposal", func() error {
			make, model, ok := deriveModelProposal(res.Vehicle)
			if !ok {
				return nil
			}
			return s.customers.UpsertModelProposal(ctx, res.InstanceID, make, model)
		}},
	}

	for _, e := range effects {
		if err := e.fn(); err != nil {
			s.logger.Warn("post-commit effect failed",
				zap.String("effect", e.name),
				zap.Int64("reservation_id", res.ID),
				zap.Error(err),
			)
		}
	}
}

// sendCustomerSMS delivers the confirmation or pending message and records
// the attempt whatever the transport outcome.
func (s *Service) sendCustomerSMS(ctx context.Context, res *domain.Reservation, svc *domain.Service) {
	var text string
	if res.Status == domain.ReservationConfirmed {
		text = fmt.Sprintf("Your %s booking on %s at %s is confirmed. Code: %s",
			svc.Name, res.Date, res.StartTime, res.ConfirmationCode)
	} else {
		text = fmt.Sprintf("We received your %s booking request for %s at %s. We will confirm it shortly. Code: %s",
			svc.Name, res.Date, res.StartTime, res.ConfirmationCode)
	}

	result, err := s.sender.Send(ctx, res.CustomerPhone, text)
	if err != nil {
		s.logger.Warn("confirmation sms failed",
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}

	logStatus := domain.SMSStatus(result.Status)
	if err != nil {
		logStatus = domain.SMSFailed
	}
	if logErr := s.smsLogs.Create(ctx, &domain.SMSLog{
		InstanceID:       res.InstanceID,
		Phone:            res.CustomerPhone,
		Body:             text,
		Status:           logStatus,
		ProviderResponse: result.ProviderResponse,
	}); logErr != nil {
		s.logger.Warn("sms log write failed", zap.Error(logErr))
	}
}

// GetReservationsByDate backs the back-office day view.
func (s *Service) GetReservationsByDate(ctx context.Context, instanceID int64, date string) ([]domain.Reservation, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, ErrValidation
	}
	return s.reservations.ListByDate(ctx, instanceID, date)
}

func validateCommit(req CommitRequest) error {
	if req.InstanceID <= 0 || req.ServiceID <= 0 {
		return ErrValidation
	}
	if strings.TrimSpace(req.CustomerName) == "" || strings.TrimSpace(req.CustomerPhone) == "" {
		return ErrValidation
	}
	if _, err := domain.CombineDateClock(req.Date, req.StartTime, nil); err != nil {
		return ErrValidation
	}
	return nil
}

// deriveModelProposal splits a free-text vehicle descriptor into a coarse
// make/model guess: first token is the make, second the model.
func deriveModelProposal(vehicle string) (string, string, bool) {
	fields := strings.Fields(strings.TrimSpace(vehicle))
	if len(fields) < 2 {
		return "", "", false
	}
	return capitalize(fields[0]), fields[1], true
}

func capitalize(s string) string {
	lower := strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(lower)
	if r == utf8.RuneError {
		return lower
	}
	return string(unicode.ToUpper(r)) + lower[size:]
}
