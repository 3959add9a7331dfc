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

// RatingHandler manages rating endpoints.
type RatingHandler struct {
	service service.RatingService
	actors  service.ActorService
	logger  zerolog.Logger
}

// NewRatingHandler builds a rating handler instance.
func NewRatingHandler(service service.RatingService, actors service.ActorService, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		service: service,
		actors:  actors,
		logger:  logger.With().Str("component", "rating_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *RatingHandler) Register(router fiber.Router) {
	router.Post("", h.create)
}

func (h *RatingHandler) create(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.RatingCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rating, err := h.service.Create(c.Context(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rating created", rating)
}

func (h *RatingHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTeacherProfileRequired):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrTeacherProfileRequired.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrHomeworkNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "homework not found")
	case errors.Is(err, service.ErrDuplicateRating):
		return utils.SendError(c, fiber.StatusConflict, service.ErrDuplicateRating.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
