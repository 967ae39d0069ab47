package service

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/loom-academy/loom-go-api/internal/dto"
	"github.com/loom-academy/loom-go-api/internal/models"
	"github.com/loom-academy/loom-go-api/internal/observability"
	"github.com/loom-academy/loom-go-api/internal/privacy"
	"github.com/loom-academy/loom-go-api/internal/repository"
)

// ActivityCaller describes the authenticated caller on whose behalf an
// event is recorded. RemoteAddr is the raw client address as resolved from
// proxy headers; it is hashed before anything is persisted.
type ActivityCaller struct {
	ActorID    uint
	ActorRole  string
	RemoteAddr string
}

// ActivityEntry captures the details of one user action.
type ActivityEntry struct {
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityService records and queries the anonymized audit trail.
type ActivityService interface {
	// Record appends one audit entry on behalf of the caller. It is
	// best-effort telemetry: it never returns an error and must never fail
	// the action it is attached to. An anonymous caller is a silent no-op.
	Record(ctx context.Context, caller ActivityCaller, entry ActivityEntry)
	List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error)
	// Drain blocks until all detached writes have settled. Used by tests
	// and graceful shutdown.
	Drain()
}

type activityService struct {
	repo         repository.ActivityLogRepository
	anonymizer   *privacy.Anonymizer
	sanitizer    *bluemonday.Policy
	writeTimeout time.Duration
	logger       zerolog.Logger
	pending      sync.WaitGroup
}

// NewActivityService constructs the activity service.
func NewActivityService(repo repository.ActivityLogRepository, anonymizer *privacy.Anonymizer, writeTimeout time.Duration, logger zerolog.Logger) ActivityService {
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Second
	}

	return &activityService{
		repo:         repo,
		anonymizer:   anonymizer,
		sanitizer:    bluemonday.StrictPolicy(),
		writeTimeout: writeTimeout,
		logger:       logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, caller ActivityCaller, entry ActivityEntry) {
	if caller.ActorID == 0 {
		// No identity to attribute the entry to.
		observability.ActivityLogWrites().WithLabelValues("skipped").Inc()
		return
	}

	action := strings.ToLower(strings.TrimSpace(entry.Action))
	if action == "" {
		s.logger.Warn().Uint("actor_id", caller.ActorID).Msg("dropping activity entry without action")
		observability.ActivityLogWrites().WithLabelValues("skipped").Inc()
		return
	}

	model := models.ActivityLog{
		ActorID:    caller.ActorID,
		ActorRole:  normalizeRole(caller.ActorRole),
		Action:     action,
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   s.sanitizeMetadata(entry.Metadata),
		IPHash:     s.anonymizer.HashIP(caller.RemoteAddr),
	}

	// The write is detached from the request: its failure is logged and
	// counted here, never surfaced to the caller.
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		writeCtx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		if err := s.repo.Create(writeCtx, &model); err != nil {
			s.logger.Error().Err(err).Str("action", model.Action).Uint("actor_id", model.ActorID).Msg("failed to persist activity log")
			observability.ActivityLogWrites().WithLabelValues("failed").Inc()
			return
		}

		observability.ActivityLogWrites().WithLabelValues("written").Inc()
	}()
}

func (s *activityService) List(ctx context.Context, req dto.AdminActivityListRequest) (dto.AdminActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AdminActivityListResponse{}, err
	}

	responses := make([]dto.AdminActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAdminActivityResponse(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.AdminActivityListResponse{Items: responses, Pagination: pagination}, nil
}

func (s *activityService) Drain() {
	s.pending.Wait()
}

func (s *activityService) sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
			sanitized[key] = "***"
			continue
		}
		if text, ok := value.(string); ok {
			sanitized[key] = s.sanitizer.Sanitize(text)
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "user"
	}
	return r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
