package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/edutrack/edutrack-api/internal/authz"
	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/observability"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// MonthlyLeaderboardService computes the ephemeral month-window ranking.
// Results are cached briefly and never written to the snapshot table.
type MonthlyLeaderboardService interface {
	Compute(ctx context.Context, actor authz.Actor, year, month int, groupID *uint) (dto.MonthlyLeaderboardResponse, error)
}

type monthlyLeaderboardService struct {
	lessons   repository.LessonRepository
	homeworks repository.HomeworkRepository
	students  repository.StudentRepository
	ratings   repository.RatingRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewMonthlyLeaderboardService constructs the monthly calculator.
func NewMonthlyLeaderboardService(
	lessons repository.LessonRepository,
	homeworks repository.HomeworkRepository,
	students repository.StudentRepository,
	ratings repository.RatingRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) MonthlyLeaderboardService {
	return &monthlyLeaderboardService{
		lessons:   lessons,
		homeworks: homeworks,
		students:  students,
		ratings:   ratings,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "monthly_leaderboard_service").Logger(),
		now:       time.Now,
	}
}

// Compute ranks every eligible student over the lessons created in the given
// calendar month. The average divides by the number of countable lessons,
// not by the number of ratings: a student with fewer ratings than countable
// lessons is penalized by the larger denominator. Lessons and students are
// both narrowed to the actor's scope before ranking.
func (s *monthlyLeaderboardService) Compute(ctx context.Context, actor authz.Actor, year, month int, groupID *uint) (dto.MonthlyLeaderboardResponse, error) {
	tracer := otel.Tracer("github.com/edutrack/edutrack-api/internal/service/monthly_leaderboard")
	ctx, span := tracer.Start(ctx, "leaderboard.compute_monthly")
	span.SetAttributes(
		attribute.Int("leaderboard.year", year),
		attribute.Int("leaderboard.month", month),
	)
	defer span.End()

	if month < 1 || month > 12 {
		span.SetStatus(codes.Error, "invalid_month")
		return dto.MonthlyLeaderboardResponse{}, ErrInvalidMonth
	}

	scope, err := resolveLeaderboardScope(actor, groupID)
	if err != nil {
		span.SetStatus(codes.Error, "permission_denied")
		return dto.MonthlyLeaderboardResponse{}, err
	}
	if scope.empty {
		return dto.MonthlyLeaderboardResponse{
			Year:        year,
			Month:       month,
			Leaderboard: []dto.MonthlyEntryResponse{},
		}, nil
	}

	cacheKey := monthlyCacheKey(year, month, scopeToken(scope))
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.MonthlyLeaderboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("leaderboard.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read monthly leaderboard cache")
		}
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	lessons, err := s.lessons.ListActiveCreatedBetween(ctx, monthStart, monthEnd, scope.groupID, scope.teacherID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lesson_scope_failed")
		return dto.MonthlyLeaderboardResponse{}, err
	}

	response := dto.MonthlyLeaderboardResponse{
		Year:         year,
		Month:        month,
		Leaderboard:  []dto.MonthlyEntryResponse{},
		TotalLessons: len(lessons),
	}

	now := s.now()
	countableIDs := make([]uint, 0, len(lessons))
	for _, lesson := range lessons {
		hasRated := false
		if !lesson.IsDeadlinePassed(now) {
			hasRated, err = s.homeworks.HasRatedForLesson(ctx, lesson.ID)
			if err != nil {
				span.RecordError(err)
				return dto.MonthlyLeaderboardResponse{}, err
			}
		}
		if IsLessonCountable(lesson, hasRated, now) {
			countableIDs = append(countableIDs, lesson.ID)
		}
	}
	response.TotalCountableLessons = len(countableIDs)
	span.SetAttributes(
		attribute.Int("leaderboard.total_lessons", response.TotalLessons),
		attribute.Int("leaderboard.countable_lessons", response.TotalCountableLessons),
	)

	if len(countableIDs) == 0 {
		s.storeCache(ctx, cacheKey, response)
		return response, nil
	}

	students, err := s.students.ListActive(ctx, scope.groupID, scope.teacherID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_scope_failed")
		return dto.MonthlyLeaderboardResponse{}, err
	}

	totals, err := s.ratings.TotalsByStudentForLessons(ctx, countableIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rating_totals_failed")
		return dto.MonthlyLeaderboardResponse{}, err
	}
	totalsByStudent := make(map[uint]repository.StudentScoreTotal, len(totals))
	for _, total := range totals {
		totalsByStudent[total.StudentID] = total
	}

	entries := make([]dto.MonthlyEntryResponse, 0, len(students))
	for _, student := range students {
		total := totalsByStudent[student.ID]
		entries = append(entries, dto.MonthlyEntryResponse{
			StudentID:    student.ID,
			StudentCode:  student.StudentCode,
			StudentName:  student.User.FullName(),
			GroupID:      student.GroupID,
			AverageScore: roundScore(float64(total.TotalScore) / float64(len(countableIDs))),
			TotalScore:   total.TotalScore,
			TotalRatings: total.RatedCount,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AverageScore != entries[j].AverageScore {
			return entries[i].AverageScore > entries[j].AverageScore
		}
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].StudentID < entries[j].StudentID
	})
	for i := range entries {
		entries[i].Rank = i + 1
		entries[i].IsTopThree = i < 3
	}
	response.Leaderboard = entries

	observability.LeaderboardRuns().WithLabelValues("monthly").Inc()
	s.storeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *monthlyLeaderboardService) storeCache(ctx context.Context, key string, response dto.MonthlyLeaderboardResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store monthly leaderboard cache")
	}
}

func monthlyCacheKey(year, month int, scope string) string {
	return fmt.Sprintf("leaderboard:monthly:%d:%02d:%s", year, month, scope)
}
