package domain

import "time"

// Customer is keyed by (instance, normalized phone). PhoneVerified flips to
// true on the first successful OTP check and is never reset by this engine.
type Customer struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	InstanceID    int64     `json:"instance_id" gorm:"uniqueIndex:idx_customers_phone"`
	Phone         string    `json:"phone" gorm:"uniqueIndex:idx_customers_phone"`
	Name          string    `json:"name"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CustomerVehicle records which vehicles a customer has booked with.
type CustomerVehicle struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	InstanceID int64     `json:"instance_id" gorm:"uniqueIndex:idx_customer_vehicles"`
	Phone      string    `json:"phone" gorm:"uniqueIndex:idx_customer_vehicles"`
	Vehicle    string    `json:"vehicle" gorm:"uniqueIndex:idx_customer_vehicles"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// VehicleModelProposal is a coarse make/model guess derived from free-text
// vehicle descriptors, used by the back office to build its model catalog.
type VehicleModelProposal struct {
	ID         int64  `json:"id" gorm:"primaryKey"`
	InstanceID int64  `json:"instance_id" gorm:"uniqueIndex:idx_model_proposals"`
	Make       string `json:"make" gorm:"uniqueIndex:idx_model_proposals"`
	Model      string `json:"model" gorm:"uniqueIndex:idx_model_proposals"`
	SeenCount  int    `json:"seen_count"`
}
