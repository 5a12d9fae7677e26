package domain

import (
	"encoding/json"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	InstanceID int64 `json:"instance_id" gorm:"index"`

	// ConfirmationCode is the short numeric code handed to the customer.
	// The unique index is the real collision guard; the allocator's
	// pre-check only keeps insert-time retries rare.
	ConfirmationCode string `json:"confirmation_code" gorm:"uniqueIndex:idx_reservations_code"`

	ServiceID int64           `json:"service_id"`
	AddonIDs  json.RawMessage `json:"addon_ids,omitempty"`
	CarSize   CarSize         `json:"car_size,omitempty"`
	StationID *int64          `json:"station_id,omitempty"`

	Date      string `json:"date"`       // 2006-01-02
	StartTime string `json:"start_time"` // 15:04
	EndTime   string `json:"end_time"`   // 15:04

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"` // E.164, best effort
	Vehicle       string `json:"vehicle,omitempty" gorm:"type:text"`

	Status ReservationStatus `json:"status"`
	Source string            `json:"source,omitempty"`

	// IdempotencyKey dedupes the verified-phone direct-commit path; the OTP
	// path is already replay-safe through single-use codes.
	IdempotencyKey *string `json:"idempotency_key,omitempty" gorm:"uniqueIndex:idx_reservations_idem"`

	DayReminderSent           bool       `json:"day_reminder_sent"`
	DayReminderLastTry        *time.Time `json:"day_reminder_last_try,omitempty"`
	HourReminderSent          bool       `json:"hour_reminder_sent"`
	HourReminderLastTry       *time.Time `json:"hour_reminder_last_try,omitempty"`
	ReminderFailureCount      int        `json:"reminder_failure_count"`
	ReminderPermanentlyFailed bool       `json:"reminder_permanently_failed"`
	ReminderFailureReason     string     `json:"reminder_failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StationBlock is an occupied interval on one station on one date. Rows backed
// by a reservation carry its id; manual blocks leave it nil. The slot grid
// treats both identically.
type StationBlock struct {
	ID            int64  `json:"id" gorm:"primaryKey"`
	InstanceID    int64  `json:"instance_id" gorm:"index"`
	StationID     int64  `json:"station_id" gorm:"uniqueIndex:idx_no_double_booking"`
	Date          string `json:"date" gorm:"uniqueIndex:idx_no_double_booking"`
	StartTime     string `json:"start_time" gorm:"uniqueIndex:idx_no_double_booking"`
	EndTime       string `json:"end_time"`
	ReservationID *int64 `json:"reservation_id,omitempty"`
}
