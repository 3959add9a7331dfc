package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/authz"
	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/observability"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// DailyLeaderboardService computes and serves per-group daily rankings.
type DailyLeaderboardService interface {
	Calculate(ctx context.Context, actor authz.Actor, payload dto.DailyCalculateRequest) (dto.DailyCalculateResponse, error)
	Get(ctx context.Context, actor authz.Actor, date time.Time, groupID *uint) (dto.DailyLeaderboardResponse, error)
}

type dailyLeaderboardService struct {
	leaderboard repository.LeaderboardRepository
	ratings     repository.RatingRepository
	students    repository.StudentRepository
	groups      repository.GroupRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDailyLeaderboardService constructs the daily calculator.
func NewDailyLeaderboardService(
	leaderboard repository.LeaderboardRepository,
	ratings repository.RatingRepository,
	students repository.StudentRepository,
	groups repository.GroupRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger zerolog.Logger,
) DailyLeaderboardService {
	return &dailyLeaderboardService{
		leaderboard: leaderboard,
		ratings:     ratings,
		students:    students,
		groups:      groups,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger.With().Str("component", "daily_leaderboard_service").Logger(),
		now:         time.Now,
	}
}

type studentDayScore struct {
	studentID uint
	sum       int
	count     int
	average   float64
}

// Calculate recomputes the snapshot for every candidate group on the target
// date. The requested scope is cleared first, then each group's delete+insert
// runs in its own transaction, so re-running with unchanged ratings reproduces
// identical rows and concurrent readers never see a half-replaced scope.
// Failures are isolated per group.
func (s *dailyLeaderboardService) Calculate(ctx context.Context, actor authz.Actor, payload dto.DailyCalculateRequest) (dto.DailyCalculateResponse, error) {
	tracer := otel.Tracer("github.com/edutrack/edutrack-api/internal/service/daily_leaderboard")
	ctx, span := tracer.Start(ctx, "leaderboard.calculate_daily")
	defer span.End()

	if decision := authz.Decide(actor, authz.ActionCalculateLeaderboard, authz.Resource{}); !decision.Allowed {
		span.SetStatus(codes.Error, "permission_denied")
		return dto.DailyCalculateResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.DailyCalculateResponse{}, err
	}

	date := DateOnly(s.now())
	if payload.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.Date, time.UTC)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid_date")
			return dto.DailyCalculateResponse{}, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}
		date = parsed
	}
	span.SetAttributes(attribute.String("leaderboard.date", date.Format("2006-01-02")))

	groups, err := s.candidateGroups(ctx, payload.GroupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "group_scope_failed")
		return dto.DailyCalculateResponse{}, err
	}

	// Clear the whole scope up front so groups whose ratings were withdrawn
	// since the last run do not keep stale rows, even when the run ends with
	// no fresh entries at all.
	removed, err := s.leaderboard.DeleteScope(ctx, date, payload.GroupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scope_delete_failed")
		return dto.DailyCalculateResponse{}, err
	}
	for _, groupID := range removed {
		s.invalidateReadCache(ctx, date, groupID)
	}

	response := dto.DailyCalculateResponse{
		Date:    date.Format("2006-01-02"),
		Entries: []dto.DailyEntryResponse{},
	}

	for _, group := range groups {
		entries, err := s.calculateGroup(ctx, date, group)
		if err != nil {
			s.logger.Warn().Err(err).Uint("group_id", group.ID).Msg("group calculation failed")
			response.GroupErrors = append(response.GroupErrors, dto.GroupCalculationError{
				GroupID: group.ID,
				Message: err.Error(),
			})
			continue
		}
		if len(entries) == 0 {
			continue
		}

		response.GroupsProcessed++
		response.EntriesWritten += len(entries)
		response.Entries = append(response.Entries, dto.NewDailyEntryResponseSlice(entries)...)

		s.invalidateReadCache(ctx, date, group.ID)
	}

	span.SetAttributes(
		attribute.Int("leaderboard.groups_processed", response.GroupsProcessed),
		attribute.Int("leaderboard.entries_written", response.EntriesWritten),
	)

	if response.EntriesWritten == 0 {
		span.SetStatus(codes.Error, "no_ratings")
		return dto.DailyCalculateResponse{}, ErrNoRatingsForDate
	}

	observability.LeaderboardRuns().WithLabelValues("daily").Inc()
	s.logger.Info().
		Str("date", response.Date).
		Int("groups_processed", response.GroupsProcessed).
		Int("entries_written", response.EntriesWritten).
		Msg("daily leaderboard calculated")

	return response, nil
}

func (s *dailyLeaderboardService) candidateGroups(ctx context.Context, groupID *uint) ([]models.Group, error) {
	if groupID != nil {
		group, err := s.groups.GetByID(ctx, *groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}
		return []models.Group{group}, nil
	}

	return s.groups.ListActive(ctx)
}

func (s *dailyLeaderboardService) calculateGroup(ctx context.Context, date time.Time, group models.Group) ([]models.DailyLeaderboard, error) {
	ratings, err := s.ratings.ListOnDateByGroup(ctx, date, group.ID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		// Groups without ratings on the date are skipped entirely.
		return nil, nil
	}

	scores := rankDayScores(ratings)

	ids := make([]uint, 0, len(scores))
	for _, score := range scores {
		ids = append(ids, score.studentID)
	}
	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Student, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}

	groupID := group.ID
	entries := make([]models.DailyLeaderboard, 0, len(scores))
	for rank, score := range scores {
		student, ok := byID[score.studentID]
		if !ok {
			return nil, fmt.Errorf("student %d not found while ranking group %d", score.studentID, group.ID)
		}
		entries = append(entries, models.DailyLeaderboard{
			StudentID:    score.studentID,
			GroupID:      &groupID,
			Date:         date,
			AverageScore: roundScore(score.average),
			Rank:         rank + 1,
			TotalRatings: score.count,
			Student:      student,
		})
	}

	if err := s.leaderboard.ReplaceScope(ctx, date, &groupID, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// rankDayScores aggregates ratings per student and orders them descending by
// average score. Ordering uses the exact mean; rounding happens only when the
// entry is persisted, so students whose true averages differ by less than
// half a hundredth do not collapse into a false tie. Real ties break by
// ascending student ID so repeated runs always produce the same ordinal ranks.
func rankDayScores(ratings []models.Rating) []studentDayScore {
	byStudent := make(map[uint]*studentDayScore)
	for _, rating := range ratings {
		score, ok := byStudent[rating.StudentID]
		if !ok {
			score = &studentDayScore{studentID: rating.StudentID}
			byStudent[rating.StudentID] = score
		}
		score.sum += rating.Score
		score.count++
	}

	scores := make([]studentDayScore, 0, len(byStudent))
	for _, score := range byStudent {
		score.average = float64(score.sum) / float64(score.count)
		scores = append(scores, *score)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].average != scores[j].average {
			return scores[i].average > scores[j].average
		}
		return scores[i].studentID < scores[j].studentID
	})

	return scores
}

func roundScore(value float64) float64 {
	return math.Round(value*100) / 100
}

// Get serves the persisted snapshot, optionally through a short-lived cache.
// Students read their own group by default, teachers only the groups they
// teach. Snapshots only change on explicit recalculation, so a few minutes of
// staleness is acceptable.
func (s *dailyLeaderboardService) Get(ctx context.Context, actor authz.Actor, date time.Time, groupID *uint) (dto.DailyLeaderboardResponse, error) {
	date = DateOnly(date)

	scope, err := resolveLeaderboardScope(actor, groupID)
	if err != nil {
		return dto.DailyLeaderboardResponse{}, err
	}
	if scope.empty {
		return dto.DailyLeaderboardResponse{
			Date:    date.Format("2006-01-02"),
			Entries: []dto.DailyEntryResponse{},
		}, nil
	}

	cacheKey := dailyCacheKey(date, scopeToken(scope))

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.DailyLeaderboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read daily leaderboard cache")
		}
	}

	entries, err := s.leaderboard.ListForDate(ctx, date, scope.groupID, scope.teacherID)
	if err != nil {
		return dto.DailyLeaderboardResponse{}, err
	}

	response := dto.DailyLeaderboardResponse{
		Date:    date.Format("2006-01-02"),
		Entries: dto.NewDailyEntryResponseSlice(entries),
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store daily leaderboard cache")
			}
		}
	}

	return response, nil
}

func (s *dailyLeaderboardService) invalidateReadCache(ctx context.Context, date time.Time, groupID uint) {
	if s.cache == nil {
		return
	}

	// Teacher-scoped keys are left to expire with the TTL.
	keys := []string{
		dailyCacheKey(date, scopeToken(leaderboardScope{})),
		dailyCacheKey(date, scopeToken(leaderboardScope{groupID: &groupID})),
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate daily leaderboard cache")
	}
}

func dailyCacheKey(date time.Time, scope string) string {
	return fmt.Sprintf("leaderboard:daily:%s:%s", date.Format("2006-01-02"), scope)
}
