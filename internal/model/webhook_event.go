package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookEvent stores every inbound provider notification once.
// (Provider, ProviderEventID) is unique so redelivered events insert
// as no-ops and the engine can skip reprocessing.
type WebhookEvent struct {
	gorm.Model
	Provider        string         `json:"provider" gorm:"not null;uniqueIndex:idx_provider_event"`
	ProviderEventID string         `json:"provider_event_id" gorm:"not null;uniqueIndex:idx_provider_event"`
	EventType       string         `json:"event_type"`
	Payload         datatypes.JSON `json:"payload"`
	ProcessedAt     *time.Time     `json:"processed_at"`
	ProcessingError string         `json:"processing_error"`
}
