package database

import (
	"gorm.io/gorm"

	"carwash/internal/domain"
)

// Migrate applies the schema for every model the engine owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.BookingSettings{},
		&domain.Station{},
		&domain.Service{},
		&domain.Reservation{},
		&domain.StationBlock{},
		&domain.Customer{},
		&domain.CustomerVehicle{},
		&domain.VehicleModelProposal{},
		&domain.VerificationCode{},
		&domain.Notification{},
		&domain.SMSLog{},
	)
}
