package domain

import (
	"encoding/json"
	"time"
)

// BookingSettings is the per-instance business configuration. It is loaded
// once per request and threaded into every engine call as a value, never read
// ambiently, so the slot, commit and reminder logic stay testable in isolation.
type BookingSettings struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	InstanceID int64 `json:"instance_id" gorm:"uniqueIndex"`

	// WorkingHours maps weekday names to {"open":"09:00","close":"17:00"}.
	// Missing or empty entries mean the business is closed that day.
	WorkingHours json.RawMessage `json:"working_hours"`

	HorizonDays     int  `json:"horizon_days"`
	LeadTimeMinutes int  `json:"lead_time_minutes"`
	GridStepMinutes int  `json:"grid_step_minutes"`
	AutoConfirm     bool `json:"auto_confirm"`

	DayReminderMinHours    int `json:"day_reminder_min_hours"`
	DayReminderMaxHours    int `json:"day_reminder_max_hours"`
	HourReminderMinMinutes int `json:"hour_reminder_min_minutes"`
	HourReminderMaxMinutes int `json:"hour_reminder_max_minutes"`
	ReminderBackoffMinutes int `json:"reminder_backoff_minutes"`
	ReminderMaxFailures    int `json:"reminder_max_failures"`

	VerificationTTLHours    int    `json:"verification_ttl_hours"`
	VerificationMaxAttempts int    `json:"verification_max_attempts"`
	DefaultPhoneRegion      string `json:"default_phone_region"`
}

type workingHoursDay struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OpenClose resolves the open/close minutes for a weekday. ok is false when
// the business is closed that day.
func (s BookingSettings) OpenClose(day time.Weekday) (openMin, closeMin int, ok bool, err error) {
	if len(s.WorkingHours) == 0 {
		return 0, 0, false, nil
	}

	var wh map[string]workingHoursDay
	if err := json.Unmarshal(s.WorkingHours, &wh); err != nil {
		return 0, 0, false, err
	}

	v, found := wh[weekdayKey(day)]
	if !found || v.Open == "" || v.Close == "" {
		return 0, 0, false, nil
	}

	openMin, err = ParseClock(v.Open)
	if err != nil {
		return 0, 0, false, err
	}
	closeMin, err = ParseClock(v.Close)
	if err != nil {
		return 0, 0, false, err
	}
	return openMin, closeMin, true, nil
}

func weekdayKey(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// DefaultBookingSettings is used when an instance has no settings row yet.
func DefaultBookingSettings(instanceID int64) BookingSettings {
	return BookingSettings{
		InstanceID: instanceID,
		WorkingHours: json.RawMessage(`{
			"monday":{"open":"09:00","close":"17:00"},
			"tuesday":{"open":"09:00","close":"17:00"},
			"wednesday":{"open":"09:00","close":"17:00"},
			"thursday":{"open":"09:00","close":"17:00"},
			"friday":{"open":"09:00","close":"17:00"},
			"saturday":{"open":"10:00","close":"14:00"}
		}`),
		HorizonDays:             30,
		LeadTimeMinutes:         60,
		GridStepMinutes:         15,
		AutoConfirm:             false,
		DayReminderMinHours:     20,
		DayReminderMaxHours:     24,
		HourReminderMinMinutes:  45,
		HourReminderMaxMinutes:  75,
		ReminderBackoffMinutes:  30,
		ReminderMaxFailures:     5,
		VerificationTTLHours:    24,
		VerificationMaxAttempts: 5,
		DefaultPhoneRegion:      "PL",
	}
}
