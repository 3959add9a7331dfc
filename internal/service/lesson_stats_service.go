package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/authz"
	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

const (
	missedDescription   = "Auto-created: missed deadline"
	missedRatingComment = "Homework not submitted before deadline."
)

// LessonStatsService reconciles a lesson's roster against submissions and
// runs the deadline-driven automatic zero-scoring.
type LessonStatsService interface {
	SubmissionStats(ctx context.Context, actor authz.Actor, lessonID uint) (dto.SubmissionStatsResponse, error)
	AutoRateMissing(ctx context.Context, actor authz.Actor, lessonID uint) (dto.AutoRateResponse, error)
}

type lessonStatsService struct {
	lessons   repository.LessonRepository
	students  repository.StudentRepository
	homeworks repository.HomeworkRepository
	ratings   repository.RatingRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// NewLessonStatsService constructs the stats service.
func NewLessonStatsService(
	lessons repository.LessonRepository,
	students repository.StudentRepository,
	homeworks repository.HomeworkRepository,
	ratings repository.RatingRepository,
	logger zerolog.Logger,
) LessonStatsService {
	return &lessonStatsService{
		lessons:   lessons,
		students:  students,
		homeworks: homeworks,
		ratings:   ratings,
		logger:    logger.With().Str("component", "lesson_stats_service").Logger(),
		now:       time.Now,
	}
}

// SubmissionStats partitions the roster into submitted, missed and
// not-yet-submitted students. After the deadline, students without a record
// join the submitted list with a synthetic zero so the whole roster ranks,
// while the counters keep the three populations distinct. Nothing here is
// persisted.
func (s *lessonStatsService) SubmissionStats(ctx context.Context, actor authz.Actor, lessonID uint) (dto.SubmissionStatsResponse, error) {
	lesson, err := s.loadLesson(ctx, lessonID)
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}

	if decision := authz.Decide(actor, authz.ActionViewSubmissionStats, lessonResource(lesson)); !decision.Allowed {
		return dto.SubmissionStatsResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	if lesson.GroupID == nil {
		return dto.SubmissionStatsResponse{}, ErrLessonHasNoGroup
	}

	roster, err := s.students.ListByGroup(ctx, *lesson.GroupID)
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}

	homeworks, err := s.homeworks.ListByLesson(ctx, lesson.ID)
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}
	byStudent := make(map[uint]models.Homework, len(homeworks))
	for _, homework := range homeworks {
		byStudent[homework.StudentID] = homework
	}

	now := s.now()
	response := dto.SubmissionStatsResponse{
		Lesson:        dto.NewLessonLite(lesson, now),
		TotalStudents: len(roster),
		Submitted:     []dto.StudentSubmissionStat{},
		NotSubmitted:  []dto.StudentSubmissionStat{},
	}

	for _, student := range roster {
		stat := dto.StudentSubmissionStat{
			StudentID:   student.ID,
			StudentCode: student.StudentCode,
			StudentName: student.User.FullName(),
		}

		if homework, ok := byStudent[student.ID]; ok {
			homeworkID := homework.ID
			stat.HomeworkID = &homeworkID
			stat.SubmittedAt = homework.SubmittedAt
			stat.Status = string(homework.Status)
			if len(homework.Ratings) > 0 {
				score := homework.Ratings[0].Score
				stat.Score = &score
				stat.RatingComment = homework.Ratings[0].Comment
			}
			response.SubmittedCount++
			response.Submitted = append(response.Submitted, stat)
			continue
		}

		switch ClassifySubmission(lesson, false, now) {
		case OutcomeMissed:
			zero := models.MissedScore
			stat.Status = dto.SubmissionStatusMissed
			stat.Score = &zero
			stat.RatingComment = "Missed deadline - automatic 0 score"
			response.MissedCount++
			response.Submitted = append(response.Submitted, stat)
		default:
			response.NotSubmittedCount++
			response.NotSubmitted = append(response.NotSubmitted, stat)
		}
	}

	// Rank by score descending; unrated submissions sort last.
	sort.SliceStable(response.Submitted, func(i, j int) bool {
		left, right := response.Submitted[i].Score, response.Submitted[j].Score
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		if *left != *right {
			return *left > *right
		}
		return response.Submitted[i].StudentID < response.Submitted[j].StudentID
	})

	return response, nil
}

// AutoRateMissing writes a real zero rating (plus a placeholder homework) for
// every roster student without a record, once the deadline has passed. The
// zero score is the sanctioned exception to the [1,10] rating band.
// Re-running is safe: students rated by a previous run already have records.
func (s *lessonStatsService) AutoRateMissing(ctx context.Context, actor authz.Actor, lessonID uint) (dto.AutoRateResponse, error) {
	lesson, err := s.loadLesson(ctx, lessonID)
	if err != nil {
		return dto.AutoRateResponse{}, err
	}

	if decision := authz.Decide(actor, authz.ActionAutoRateMissing, lessonResource(lesson)); !decision.Allowed {
		return dto.AutoRateResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	now := s.now()
	if !lesson.IsDeadlinePassed(now) {
		return dto.AutoRateResponse{}, ErrDeadlineNotPassed
	}
	if lesson.GroupID == nil {
		return dto.AutoRateResponse{}, ErrLessonHasNoGroup
	}

	teacherID := uint(0)
	switch {
	case lesson.TeacherID != nil:
		teacherID = *lesson.TeacherID
	case actor.TeacherID != 0:
		teacherID = actor.TeacherID
	default:
		return dto.AutoRateResponse{}, ErrNoTeacherToRate
	}

	roster, err := s.students.ListByGroup(ctx, *lesson.GroupID)
	if err != nil {
		return dto.AutoRateResponse{}, err
	}

	submittedIDs, err := s.homeworks.ListStudentIDsForLesson(ctx, lesson.ID)
	if err != nil {
		return dto.AutoRateResponse{}, err
	}
	submitted := make(map[uint]struct{}, len(submittedIDs))
	for _, id := range submittedIDs {
		submitted[id] = struct{}{}
	}

	ratedCount := 0
	for _, student := range roster {
		if _, ok := submitted[student.ID]; ok {
			continue
		}

		homework := models.Homework{
			StudentID:   student.ID,
			LessonID:    lesson.ID,
			Description: missedDescription,
			Status:      models.HomeworkStatusPending,
		}
		if err := s.homeworks.Create(ctx, &homework); err != nil {
			return dto.AutoRateResponse{RatedCount: ratedCount}, err
		}

		rating := models.Rating{
			HomeworkID: homework.ID,
			TeacherID:  teacherID,
			StudentID:  student.ID,
			Score:      models.MissedScore,
			Comment:    missedRatingComment,
			RatingDate: DateOnly(now),
		}
		if err := s.ratings.Create(ctx, &rating); err != nil {
			return dto.AutoRateResponse{RatedCount: ratedCount}, err
		}

		homework.Status = models.HomeworkStatusRated
		if err := s.homeworks.Update(ctx, &homework); err != nil {
			return dto.AutoRateResponse{RatedCount: ratedCount}, err
		}

		ratedCount++
	}

	s.logger.Info().
		Uint("lesson_id", lesson.ID).
		Int("rated_count", ratedCount).
		Msg("auto-rated missing submissions")

	return dto.AutoRateResponse{RatedCount: ratedCount}, nil
}

func (s *lessonStatsService) loadLesson(ctx context.Context, lessonID uint) (models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}

func lessonResource(lesson models.Lesson) authz.Resource {
	resource := authz.Resource{GroupID: lesson.GroupID}
	if lesson.Group != nil {
		resource.GroupTeacherID = lesson.Group.TeacherID
	}
	return resource
}
