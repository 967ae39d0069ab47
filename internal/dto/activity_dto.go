package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/loom-academy/loom-go-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ActivityRecordRequest is the payload for client-reported activity events.
type ActivityRecordRequest struct {
	Action     string                 `json:"action" validate:"required,min=2,max=64"`
	EntityType string                 `json:"entity_type" validate:"omitempty,max=64"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// AdminActivityListRequest defines filters for the audit trail listing.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
}

// AdminActivityResponse serializes one audit entry for admin endpoints.
type AdminActivityResponse struct {
	ID         uint              `json:"id"`
	ActorID    uint              `json:"actor_id"`
	ActorRole  string            `json:"actor_role"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	IPHash     string            `json:"ip_hash"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewAdminActivityResponse maps an activity log model to its response shape.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   entry.Metadata,
		IPHash:     entry.IPHash,
		CreatedAt:  entry.CreatedAt,
	}
}

// AdminActivityListResponse wraps a paginated audit listing.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}
