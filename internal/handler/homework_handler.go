package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// HomeworkHandler manages homework submission endpoints.
type HomeworkHandler struct {
	service service.HomeworkService
	actors  service.ActorService
	logger  zerolog.Logger
}

// NewHomeworkHandler builds a homework handler instance.
func NewHomeworkHandler(service service.HomeworkService, actors service.ActorService, logger zerolog.Logger) *HomeworkHandler {
	return &HomeworkHandler{
		service: service,
		actors:  actors,
		logger:  logger.With().Str("component", "homework_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *HomeworkHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/my", h.listMine)
	router.Get("/my-lessons", h.myLessons)
}

func (h *HomeworkHandler) submit(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.HomeworkSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	homework, err := h.service.Submit(c.Context(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "homework submitted", homework)
}

func (h *HomeworkHandler) listMine(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	homeworks, err := h.service.ListMine(c.Context(), actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "homeworks retrieved", homeworks)
}

func (h *HomeworkHandler) myLessons(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	lessons, err := h.service.MyLessons(c.Context(), actor)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *HomeworkHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrStudentProfileRequired):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrStudentProfileRequired.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrHomeworkAlreadyRated):
		return utils.SendError(c, fiber.StatusConflict, service.ErrHomeworkAlreadyRated.Error())
	case errors.Is(err, service.ErrSubmissionRequired):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrSubmissionRequired.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
