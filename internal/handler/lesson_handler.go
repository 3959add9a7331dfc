package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// LessonHandler manages lesson-scoped reporting endpoints.
type LessonHandler struct {
	stats  service.LessonStatsService
	actors service.ActorService
	logger zerolog.Logger
}

// NewLessonHandler builds a lesson handler instance.
func NewLessonHandler(stats service.LessonStatsService, actors service.ActorService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		stats:  stats,
		actors: actors,
		logger: logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *LessonHandler) Register(router fiber.Router) {
	router.Get("/:id/submission-stats", h.submissionStats)
	router.Post("/:id/auto-rate", h.autoRate)
}

func (h *LessonHandler) submissionStats(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	stats, err := h.stats.SubmissionStats(c.Context(), actor, lessonID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission stats retrieved", stats)
}

func (h *LessonHandler) autoRate(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	result, err := h.stats.AutoRateMissing(c.Context(), actor, lessonID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "missing homeworks rated", result)
}

func (h *LessonHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTeacherProfileRequired):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrTeacherProfileRequired.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrDeadlineNotPassed):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrDeadlineNotPassed.Error())
	case errors.Is(err, service.ErrLessonHasNoGroup):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrLessonHasNoGroup.Error())
	case errors.Is(err, service.ErrNoTeacherToRate):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrNoTeacherToRate.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
