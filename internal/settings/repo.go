package settings

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/craftkart/craftkart-backend/pkg/db/models"
)

// Repository handles gateway settings persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to gateway settings operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByGateway loads the settings row for the named gateway.
func (r *Repository) FindByGateway(ctx context.Context, gateway string) (*models.GatewaySetting, error) {
	var setting models.GatewaySetting
	if err := r.db.WithContext(ctx).
		Where("gateway = ?", gateway).
		First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert creates or replaces the settings row for setting.Gateway.
func (r *Repository) Upsert(ctx context.Context, setting *models.GatewaySetting) error {
	if setting == nil {
		return fmt.Errorf("setting is required")
	}
	var existing models.GatewaySetting
	err := r.db.WithContext(ctx).
		Where("gateway = ?", setting.Gateway).
		First(&existing).Error
	switch {
	case err == nil:
		setting.ID = existing.ID
		setting.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(setting).Error
	case err == gorm.ErrRecordNotFound:
		return r.db.WithContext(ctx).Create(setting).Error
	default:
		return err
	}
}
