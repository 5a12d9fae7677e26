package domain

import (
	"encoding/json"
	"time"
)

// VerificationCode binds a phone to a one-time code and carries the full
// pending reservation payload, so the commit runs from what the customer
// confirmed, not from whatever the client sends later. Codes are stored
// hashed; expired and superseded rows stay inert until cleanup.
type VerificationCode struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	InstanceID int64           `json:"instance_id" gorm:"index:idx_verification_phone"`
	Phone      string          `json:"phone" gorm:"index:idx_verification_phone"`
	CodeHash   string          `json:"-"`
	Payload    json.RawMessage `json:"payload"`
	ExpiresAt  time.Time       `json:"expires_at" gorm:"index"`
	Attempts   int             `json:"attempts"`
	Verified   bool            `json:"verified"`
	VerifiedAt *time.Time      `json:"verified_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Usable reports whether the code can still be matched.
func (v VerificationCode) Usable(now time.Time) bool {
	return !v.Verified && v.ExpiresAt.After(now)
}
