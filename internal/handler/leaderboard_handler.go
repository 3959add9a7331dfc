package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/service"
	"github.com/edutrack/edutrack-api/internal/utils"
)

// LeaderboardHandler manages leaderboard calculation and read endpoints.
type LeaderboardHandler struct {
	daily   service.DailyLeaderboardService
	monthly service.MonthlyLeaderboardService
	actors  service.ActorService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLeaderboardHandler builds a leaderboard handler instance.
func NewLeaderboardHandler(daily service.DailyLeaderboardService, monthly service.MonthlyLeaderboardService, actors service.ActorService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		daily:   daily,
		monthly: monthly,
		actors:  actors,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
		now:     time.Now,
	}
}

// Register attaches the read routes to the provided router group. The
// calculation route is registered separately so the router can guard it with
// admin RBAC and a rate limiter.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/daily", h.getDaily)
	router.Get("/today", h.getToday)
	router.Get("/top-three", h.getTopThree)
	router.Get("/monthly", h.getMonthly)
}

// RegisterCalculate attaches the admin-only calculation route.
func (h *LeaderboardHandler) RegisterCalculate(router fiber.Router) {
	router.Post("/calculate", h.calculate)
}

func (h *LeaderboardHandler) calculate(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	var payload dto.DailyCalculateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.daily.Calculate(c.Context(), actor, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "daily leaderboard calculated", result)
}

func (h *LeaderboardHandler) getDaily(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	date, err := h.dateFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	groupID, err := parseQueryUint(c, "group")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.daily.Get(c.Context(), actor, date, groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "daily leaderboard retrieved", leaderboard)
}

func (h *LeaderboardHandler) getToday(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	groupID, err := parseQueryUint(c, "group")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.daily.Get(c.Context(), actor, service.DateOnly(h.now()), groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "today's leaderboard retrieved", leaderboard)
}

func (h *LeaderboardHandler) getTopThree(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	date, err := h.dateFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	groupID, err := parseQueryUint(c, "group")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.daily.Get(c.Context(), actor, date, groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	top := make([]dto.DailyEntryResponse, 0, 3)
	for _, entry := range leaderboard.Entries {
		if entry.IsTopThree {
			top = append(top, entry)
		}
	}
	leaderboard.Entries = top

	return utils.SendSuccess(c, "top three retrieved", leaderboard)
}

func (h *LeaderboardHandler) getMonthly(c *fiber.Ctx) error {
	actor, err := resolveActor(c, h.actors)
	if err != nil {
		return h.handleError(c, err)
	}

	now := h.now().UTC()

	year, err := parseQueryInt(c, "year")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if year == 0 {
		year = now.Year()
	}

	month, err := parseQueryInt(c, "month")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if month == 0 {
		month = int(now.Month())
	}

	groupID, err := parseQueryUint(c, "group")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	leaderboard, err := h.monthly.Compute(c.Context(), actor, year, month, groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "monthly leaderboard computed", leaderboard)
}

func (h *LeaderboardHandler) dateFromQuery(c *fiber.Ctx) (time.Time, error) {
	value := c.Query("date")
	if value == "" {
		return service.DateOnly(h.now()), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errors.New("date must use the YYYY-MM-DD format")
	}
	return parsed, nil
}

func (h *LeaderboardHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrNoRatingsForDate):
		return utils.SendError(c, fiber.StatusNotFound, service.ErrNoRatingsForDate.Error())
	case errors.Is(err, service.ErrGroupNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "group not found")
	case errors.Is(err, service.ErrInvalidMonth):
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrInvalidMonth.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStudentProfileRequired):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrStudentProfileRequired.Error())
	case errors.Is(err, service.ErrTeacherProfileRequired):
		return utils.SendError(c, fiber.StatusForbidden, service.ErrTeacherProfileRequired.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
