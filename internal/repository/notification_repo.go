package repository

import (
	"context"

	"gorm.io/gorm"

	"carwash/internal/domain"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

type SMSLogRepository struct {
	db *gorm.DB
}

func NewSMSLogRepository(db *gorm.DB) *SMSLogRepository {
	return &SMSLogRepository{db: db}
}

func (r *SMSLogRepository) Create(ctx context.Context, l *domain.SMSLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}
