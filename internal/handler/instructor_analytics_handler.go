package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/loom-academy/loom-go-api/internal/service"
	"github.com/loom-academy/loom-go-api/internal/utils"
)

// InstructorAnalyticsHandler serves the revenue dashboard for instructors.
type InstructorAnalyticsHandler struct {
	analytics service.InstructorAnalyticsService
	activity  service.ActivityService
	logger    zerolog.Logger
}

// NewInstructorAnalyticsHandler constructs the handler instance.
func NewInstructorAnalyticsHandler(analytics service.InstructorAnalyticsService, activity service.ActivityService, logger zerolog.Logger) *InstructorAnalyticsHandler {
	return &InstructorAnalyticsHandler{
		analytics: analytics,
		activity:  activity,
		logger:    logger.With().Str("component", "instructor_analytics_handler").Logger(),
	}
}

// Register wires the instructor analytics routes.
func (h *InstructorAnalyticsHandler) Register(router fiber.Router) {
	router.Get("/analytics", h.analyticsSummary)
}

func (h *InstructorAnalyticsHandler) analyticsSummary(c *fiber.Ctx) error {
	instructorID := userIDFromContext(c)
	if instructorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	result, err := h.analytics.GetAnalytics(c.Context(), instructorID)
	if err != nil {
		h.logger.Error().Err(err).Uint("instructor_id", instructorID).Msg("failed to aggregate analytics")
		return utils.SendError(c, fiber.StatusInternalServerError, "analytics temporarily unavailable")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	h.activity.Record(c.Context(), activityCallerFromContext(c), service.ActivityEntry{
		Action: "analytics_viewed",
	})

	return utils.SendSuccess(c, "analytics retrieved", result)
}
