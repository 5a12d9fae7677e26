package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carwash/internal/domain"
	"carwash/internal/pkg/sms"
)

type track int

const (
	trackDay track = iota
	trackHour
)

func (t track) String() string {
	if t == trackDay {
		return "day"
	}
	return "hour"
}

type trackState int

const (
	stateNotDue trackState = iota
	stateDue
	stateBackedOff
	stateSent
	statePermanentlyFailed
)

// Stats is what one sweep pass did.
type Stats struct {
	Sent              int `json:"sent"`
	Failed            int `json:"failed"`
	PermanentlyFailed int `json:"permanently_failed"`
}

// Service sends the day-ahead and hour-ahead reservation reminders. Each
// reservation carries two independent tracks but a single failure counter:
// a phone that bounces keeps bouncing, and one escalation per reservation
// is enough.
type Service struct {
	reservations  ReservationStore
	settings      SettingsStore
	sender        sms.Sender
	smsLogs       SMSLogStore
	notifications NotificationStore
	notifier      Notifier
	logger        *zap.Logger
}

func NewService(
	reservations ReservationStore,
	settings SettingsStore,
	sender sms.Sender,
	smsLogs SMSLogStore,
	notifications NotificationStore,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		reservations:  reservations,
		settings:      settings,
		sender:        sender,
		smsLogs:       smsLogs,
		notifications: notifications,
		notifier:      notifier,
		logger:        logger,
	}
}

// Sweep walks upcoming reservations once and fires every reminder that is
// due at now. It is safe to run on any cadence: the sent flags make repeats
// no-ops and the backoff window spaces out retries after failures.
func (s *Service) Sweep(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats

	fromDate := now.Format(domain.DateLayout)
	toDate := now.AddDate(0, 0, 2).Format(domain.DateLayout)
	candidates, err := s.reservations.ListReminderCandidates(ctx, fromDate, toDate)
	if err != nil {
		return stats, err
	}

	// Settings rarely change mid-sweep; one load per instance is enough.
	settingsCache := map[int64]domain.BookingSettings{}

	for i := range candidates {
		res := &candidates[i]

		settings, ok := settingsCache[res.InstanceID]
		if !ok {
			settings, err = s.settings.GetByInstance(ctx, res.InstanceID)
			if err != nil {
				s.logger.Error("reminder settings load failed",
					zap.Int64("instance_id", res.InstanceID),
					zap.Error(err),
				)
				continue
			}
			settingsCache[res.InstanceID] = settings
		}

		startAt, err := domain.CombineDateClock(res.Date, res.StartTime, now.Location())
		if err != nil {
			s.logger.Error("reminder start time unparsable",
				zap.Int64("reservation_id", res.ID),
				zap.Error(err),
			)
			continue
		}

		for _, t := range []track{trackDay, trackHour} {
			if trackStateAt(res, t, settings, startAt, now) != stateDue {
				continue
			}
			sent, permanent := s.attempt(ctx, res, t, settings, startAt, now)
			switch {
			case sent:
				stats.Sent++
			case permanent:
				stats.Failed++
				stats.PermanentlyFailed++
			default:
				stats.Failed++
			}
		}
	}

	return stats, nil
}

// trackStateAt is the single place the reminder state machine lives. Both
// tracks and every caller, including tests, go through it.
func trackStateAt(res *domain.Reservation, t track, settings domain.BookingSettings, startAt, now time.Time) trackState {
	if res.ReminderPermanentlyFailed {
		return statePermanentlyFailed
	}

	var sentFlag bool
	var lastTry *time.Time
	var windowMin, windowMax time.Duration
	switch t {
	case trackDay:
		sentFlag = res.DayReminderSent
		lastTry = res.DayReminderLastTry
		windowMin = time.Duration(settings.DayReminderMinHours) * time.Hour
		windowMax = time.Duration(settings.DayReminderMaxHours) * time.Hour
	default:
		sentFlag = res.HourReminderSent
		lastTry = res.HourReminderLastTry
		windowMin = time.Duration(settings.HourReminderMinMinutes) * time.Minute
		windowMax = time.Duration(settings.HourReminderMaxMinutes) * time.Minute
	}

	if sentFlag {
		return stateSent
	}

	untilStart := startAt.Sub(now)
	if untilStart < windowMin || untilStart > windowMax {
		// Outside the window a reminder is never sent, not even late:
		// a "tomorrow" text arriving two hours before the visit is
		// worse than silence.
		return stateNotDue
	}

	if lastTry != nil {
		backoff := time.Duration(settings.ReminderBackoffMinutes) * time.Minute
		if now.Sub(*lastTry) < backoff {
			return stateBackedOff
		}
	}
	return stateDue
}

// attempt fires one reminder. The sent flag is persisted before the transport
// call, so a crash between the write and the send loses a reminder instead of
// duplicating one. Only an explicit transport failure reverts it.
func (s *Service) attempt(ctx context.Context, res *domain.Reservation, t track, settings domain.BookingSettings, startAt, now time.Time) (sent, permanent bool) {
	tryAt := now
	switch t {
	case trackDay:
		res.DayReminderSent = true
		res.DayReminderLastTry = &tryAt
	default:
		res.HourReminderSent = true
		res.HourReminderLastTry = &tryAt
	}
	if err := s.reservations.UpdateReminderState(ctx, res); err != nil {
		s.logger.Error("reminder state write failed",
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
		return false, false
	}

	text := s.messageFor(t, res, startAt)
	result, sendErr := s.sender.Send(ctx, res.CustomerPhone, text)

	logStatus := domain.SMSStatus(result.Status)
	if sendErr != nil {
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

	if sendErr == nil {
		return true, false
	}

	// Transport said no. Revert the flag so a later pass retries after the
	// backoff window, and count the failure against the shared budget.
	switch t {
	case trackDay:
		res.DayReminderSent = false
	default:
		res.HourReminderSent = false
	}
	res.ReminderFailureCount++
	res.ReminderFailureReason = sendErr.Error()
	permanent = res.ReminderFailureCount >= settings.ReminderMaxFailures
	if permanent {
		res.ReminderPermanentlyFailed = true
	}
	if err := s.reservations.UpdateReminderState(ctx, res); err != nil {
		s.logger.Error("reminder failure write failed",
			zap.Int64("reservation_id", res.ID),
			zap.Error(err),
		)
	}

	s.logger.Warn("reminder sms failed",
		zap.Int64("reservation_id", res.ID),
		zap.String("track", t.String()),
		zap.Int("failure_count", res.ReminderFailureCount),
		zap.Bool("permanent", permanent),
		zap.Error(sendErr),
	)

	if permanent {
		s.escalate(ctx, res, sendErr)
	}
	return false, permanent
}

// escalate tells the staff a customer is unreachable so they can call
// instead. Best effort; the sweep result already records the failure.
func (s *Service) escalate(ctx context.Context, res *domain.Reservation, cause error) {
	title := "Customer unreachable"
	body := fmt.Sprintf("Reminders for reservation %s (%s %s, %s) keep failing: %v. Please contact the customer directly.",
		res.ConfirmationCode, res.Date, res.StartTime, res.CustomerPhone, cause)

	if err := s.notifications.Create(ctx, &domain.Notification{
		InstanceID: res.InstanceID,
		Type:       domain.NotifReminderFailed,
		Title:      title,
		Message:    body,
	}); err != nil {
		s.logger.Warn("escalation notification failed", zap.Error(err))
	}
	if err := s.notifier.Notify(ctx, res.InstanceID, title, body,
		fmt.Sprintf("/reservations?date=%s", res.Date),
		fmt.Sprintf("reminder-failed-%d", res.ID),
	); err != nil {
		s.logger.Warn("escalation push failed", zap.Error(err))
	}
}

func (s *Service) messageFor(t track, res *domain.Reservation, startAt time.Time) string {
	if t == trackDay {
		return fmt.Sprintf("Reminder: your visit is tomorrow at %s. Confirmation code %s.",
			startAt.Format(domain.ClockLayout), res.ConfirmationCode)
	}
	return fmt.Sprintf("Your visit starts soon, at %s. See you there!",
		startAt.Format(domain.ClockLayout))
}
