package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures one auditable action performed by an authenticated user.
//
// Entries are append-only: nothing in this service updates or deletes them.
// IPHash is always the daily-salted digest of the caller address, never the
// raw address itself.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	IPHash     string            `gorm:"size:64;not null" json:"ip_hash"`
	CreatedAt  time.Time         `json:"created_at"`
}
