package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftkart/craftkart-backend/pkg/enums"
)

// PaymentEvent is the audit record for every gateway-originated call we ingest,
// webhook or browser return. The gateway remains the source of truth for order
// state; these rows exist for offline reconciliation and debugging.
type PaymentEvent struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    *string                  `gorm:"column:order_id;index"`
	Source     enums.PaymentEventSource `gorm:"column:source;not null"`
	EventType  string                   `gorm:"column:event_type"`
	RawPayload string                   `gorm:"column:raw_payload;not null"`
	Signature  *string                  `gorm:"column:signature"`
	ReceivedAt time.Time                `gorm:"column:received_at;autoCreateTime"`
}
