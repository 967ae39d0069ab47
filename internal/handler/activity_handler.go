package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/loom-academy/loom-go-api/internal/dto"
	"github.com/loom-academy/loom-go-api/internal/service"
	"github.com/loom-academy/loom-go-api/internal/utils"
)

// ActivityHandler serves activity recording and the admin audit view.
type ActivityHandler struct {
	service   service.ActivityService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler instance.
func NewActivityHandler(service service.ActivityService, validator *validator.Validate, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires the authenticated activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/", h.record)
}

// RegisterAdmin wires the audit trail listing for administrators.
func (h *ActivityHandler) RegisterAdmin(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *ActivityHandler) record(c *fiber.Ctx) error {
	var payload dto.ActivityRecordRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid activity payload")
		}
		h.logger.Error().Err(err).Msg("failed to validate activity payload")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to record activity")
	}

	caller := activityCallerFromContext(c)
	if caller.ActorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	h.service.Record(c.Context(), caller, service.ActivityEntry{
		Action:     payload.Action,
		EntityType: payload.EntityType,
		EntityID:   payload.EntityID,
		Metadata:   payload.Metadata,
	})

	// The write is detached; acceptance is all the caller learns.
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "activity accepted", nil)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	req := dto.AdminActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
	}
	if v := c.Query("actorId"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			req.ActorID = uint(parsed)
		}
	}

	result, err := h.service.List(c.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list activity log")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch activity log")
	}

	return utils.SendSuccess(c, "activity log retrieved", result)
}
