package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carwash/internal/domain"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetByPhone(ctx context.Context, instanceID int64, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.WithContext(ctx).
		Where("instance_id = ? AND phone = ?", instanceID, phone).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Upsert refreshes the name and, when verified is true, flips phone_verified.
// The flag is monotonic: an upsert with verified=false never clears it.
func (r *CustomerRepository) Upsert(ctx context.Context, instanceID int64, phone, name string, verified bool) error {
	now := time.Now()
	assignments := map[string]interface{}{
		"name":       name,
		"updated_at": now,
	}
	if verified {
		assignments["phone_verified"] = true
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "phone"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&domain.Customer{
		InstanceID:    instanceID,
		Phone:         phone,
		Name:          name,
		PhoneVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error
}

// MarkVerified flips phone_verified for an existing customer, creating the
// row if the phone has never booked before.
func (r *CustomerRepository) MarkVerified(ctx context.Context, instanceID int64, phone string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"phone_verified": true, "updated_at": now}),
	}).Create(&domain.Customer{
		InstanceID:    instanceID,
		Phone:         phone,
		PhoneVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}).Error
}

func (r *CustomerRepository) UpsertVehicle(ctx context.Context, instanceID int64, phone, vehicle string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "phone"}, {Name: "vehicle"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": now}),
	}).Create(&domain.CustomerVehicle{
		InstanceID: instanceID,
		Phone:      phone,
		Vehicle:    vehicle,
		LastSeenAt: now,
	}).Error
}

func (r *CustomerRepository) UpsertModelProposal(ctx context.Context, instanceID int64, make, model string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "instance_id"}, {Name: "make"}, {Name: "model"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"seen_count": gorm.Expr("seen_count + 1")}),
	}).Create(&domain.VehicleModelProposal{
		InstanceID: instanceID,
		Make:       make,
		Model:      model,
		SeenCount:  1,
	}).Error
}
