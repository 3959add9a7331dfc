package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/edutrack/edutrack-api/internal/config"
	"github.com/edutrack/edutrack-api/internal/handler"
	"github.com/edutrack/edutrack-api/internal/middleware"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HomeworkHandler    *handler.HomeworkHandler
	RatingHandler      *handler.RatingHandler
	LeaderboardHandler *handler.LeaderboardHandler
	LessonHandler      *handler.LessonHandler
	JWTMiddleware      fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Homeworks & ratings
	if deps.HomeworkHandler != nil {
		homeworkGroup := app.Group("/api/v1/homeworks", jwtMiddleware)
		deps.HomeworkHandler.Register(homeworkGroup)
	}

	if deps.RatingHandler != nil {
		ratingGroup := app.Group("/api/v1/ratings", jwtMiddleware)
		deps.RatingHandler.Register(ratingGroup)
	}

	// Leaderboards; recalculation is admin-only and rate-limited
	if deps.LeaderboardHandler != nil {
		leaderboardGroup := app.Group("/api/v1/leaderboard", jwtMiddleware)
		deps.LeaderboardHandler.Register(leaderboardGroup)

		calculateGroup := app.Group("/api/v1/leaderboard", jwtMiddleware,
			middleware.RequireRole(models.RoleAdmin),
			middleware.RateLimit("leaderboard_calculate", cfg.CalculateRateLimit, cfg.CalculateRateWindow))
		deps.LeaderboardHandler.RegisterCalculate(calculateGroup)
	}

	// Lesson reporting
	if deps.LessonHandler != nil {
		lessonGroup := app.Group("/api/v1/lessons", jwtMiddleware)
		deps.LessonHandler.Register(lessonGroup)
	}
}
