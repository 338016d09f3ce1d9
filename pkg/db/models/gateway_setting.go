package models

import (
	"time"

	"github.com/google/uuid"
)

// GatewaySetting stores rotatable payment gateway credentials. One row per
// gateway name; the credential resolver prefers this row over process config.
type GatewaySetting struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Gateway      string    `gorm:"column:gateway;uniqueIndex;not null"`
	ClientID     string    `gorm:"column:client_id;not null"`
	ClientSecret string    `gorm:"column:client_secret;not null"`
	Environment  string    `gorm:"column:environment;not null;default:'sandbox'"`
	Enabled      bool      `gorm:"column:enabled;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
