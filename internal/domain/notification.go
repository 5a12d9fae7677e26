package domain

import "time"

type NotificationType string

const (
	NotifReservationCreated NotificationType = "reservation_created"
	NotifReminderFailed     NotificationType = "reminder_failed"
)

// Notification is an internal back-office feed row, created best-effort after
// a successful commit.
type Notification struct {
	ID         int64            `json:"id" gorm:"primaryKey"`
	InstanceID int64            `json:"instance_id" gorm:"index"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	IsRead     bool             `json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
}

type SMSStatus string

const (
	SMSSent      SMSStatus = "sent"
	SMSFailed    SMSStatus = "failed"
	SMSSimulated SMSStatus = "simulated"
)

// SMSLog records every outbound SMS attempt regardless of transport outcome.
type SMSLog struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	InstanceID       int64     `json:"instance_id" gorm:"index"`
	Phone            string    `json:"phone"`
	Body             string    `json:"body" gorm:"type:text"`
	Status           SMSStatus `json:"status"`
	ProviderResponse string    `json:"provider_response,omitempty" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`
}
