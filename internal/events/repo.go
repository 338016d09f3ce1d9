package events

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
)

// Repository persists gateway audit events.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payment event operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record inserts one audit row.
func (r *Repository) Record(ctx context.Context, event *models.PaymentEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByOrderID returns the audit trail for one order, newest first.
func (r *Repository) ListByOrderID(ctx context.Context, orderID string, limit int) ([]models.PaymentEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var rows []models.PaymentEvent
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("received_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
