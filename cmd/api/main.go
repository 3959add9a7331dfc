package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-api/internal/config"
	"github.com/edutrack/edutrack-api/internal/database"
	"github.com/edutrack/edutrack-api/internal/handler"
	"github.com/edutrack/edutrack-api/internal/middleware"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
	"github.com/edutrack/edutrack-api/internal/router"
	"github.com/edutrack/edutrack-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Teacher{},
		&models.Group{},
		&models.Student{},
		&models.Lesson{},
		&models.Homework{},
		&models.Rating{},
		&models.DailyLeaderboard{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	actorService := service.NewActorService(studentRepo, teacherRepo)
	homeworkService := service.NewHomeworkService(homeworkRepo, lessonRepo, validate, logger)
	ratingService := service.NewRatingService(ratingRepo, homeworkRepo, validate, logger)
	dailyService := service.NewDailyLeaderboardService(leaderboardRepo, ratingRepo, studentRepo, groupRepo, redisClient, cfg.LeaderboardCacheTTL, validate, logger)
	monthlyService := service.NewMonthlyLeaderboardService(lessonRepo, homeworkRepo, studentRepo, ratingRepo, redisClient, cfg.MonthlyCacheTTL, logger)
	statsService := service.NewLessonStatsService(lessonRepo, studentRepo, homeworkRepo, ratingRepo, logger)

	homeworkHandler := handler.NewHomeworkHandler(homeworkService, actorService, logger)
	ratingHandler := handler.NewRatingHandler(ratingService, actorService, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(dailyService, monthlyService, actorService, logger)
	lessonHandler := handler.NewLessonHandler(statsService, actorService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		HomeworkHandler:    homeworkHandler,
		RatingHandler:      ratingHandler,
		LeaderboardHandler: leaderboardHandler,
		LessonHandler:      lessonHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
