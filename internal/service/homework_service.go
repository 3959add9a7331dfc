package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/authz"
	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// HomeworkService orchestrates the submission lifecycle.
type HomeworkService interface {
	Submit(ctx context.Context, actor authz.Actor, payload dto.HomeworkSubmitRequest) (dto.HomeworkResponse, error)
	ListMine(ctx context.Context, actor authz.Actor) ([]dto.HomeworkResponse, error)
	MyLessons(ctx context.Context, actor authz.Actor) (dto.MyLessonsResponse, error)
}

type homeworkService struct {
	homeworks repository.HomeworkRepository
	lessons   repository.LessonRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHomeworkService constructs a HomeworkService instance.
func NewHomeworkService(homeworks repository.HomeworkRepository, lessons repository.LessonRepository, validate *validator.Validate, logger zerolog.Logger) HomeworkService {
	return &homeworkService{
		homeworks: homeworks,
		lessons:   lessons,
		validator: validate,
		logger:    logger.With().Str("component", "homework_service").Logger(),
		now:       time.Now,
	}
}

// Submit creates a new homework record or re-submits an existing one. Rated
// homework is immutable to the submitter.
func (s *homeworkService) Submit(ctx context.Context, actor authz.Actor, payload dto.HomeworkSubmitRequest) (dto.HomeworkResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HomeworkResponse{}, err
	}

	if payload.SubmissionURL == "" && payload.SubmissionRef == "" {
		return dto.HomeworkResponse{}, ErrSubmissionRequired
	}

	lesson, err := s.lessons.GetByID(ctx, payload.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.HomeworkResponse{}, ErrLessonNotFound
		}
		return dto.HomeworkResponse{}, err
	}

	if decision := authz.Decide(actor, authz.ActionSubmitHomework, authz.Resource{GroupID: lesson.GroupID}); !decision.Allowed {
		return dto.HomeworkResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	existing, err := s.homeworks.GetByStudentAndLesson(ctx, actor.StudentID, lesson.ID)
	switch {
	case err == nil:
		return s.resubmit(ctx, actor, existing, payload)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.create(ctx, actor, lesson, payload)
	default:
		return dto.HomeworkResponse{}, err
	}
}

func (s *homeworkService) create(ctx context.Context, actor authz.Actor, lesson models.Lesson, payload dto.HomeworkSubmitRequest) (dto.HomeworkResponse, error) {
	submittedAt := s.now()
	homework := models.Homework{
		StudentID:     actor.StudentID,
		LessonID:      lesson.ID,
		SubmissionURL: payload.SubmissionURL,
		SubmissionRef: payload.SubmissionRef,
		Description:   payload.Description,
		Status:        models.HomeworkStatusSubmitted,
		SubmittedAt:   &submittedAt,
	}

	if err := s.homeworks.Create(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	created, err := s.homeworks.GetByID(ctx, homework.ID)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Uint("homework_id", created.ID).Uint("lesson_id", lesson.ID).Msg("homework submitted")

	return dto.NewHomeworkResponse(created), nil
}

func (s *homeworkService) resubmit(ctx context.Context, actor authz.Actor, homework models.Homework, payload dto.HomeworkSubmitRequest) (dto.HomeworkResponse, error) {
	resource := authz.Resource{OwnerStudentID: homework.StudentID, Rated: homework.IsRated()}
	if decision := authz.Decide(actor, authz.ActionEditHomework, resource); !decision.Allowed {
		return dto.HomeworkResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	if !homework.Status.CanTransitionTo(models.HomeworkStatusSubmitted) {
		return dto.HomeworkResponse{}, ErrHomeworkAlreadyRated
	}

	if payload.SubmissionURL != "" {
		homework.SubmissionURL = payload.SubmissionURL
	}
	if payload.SubmissionRef != "" {
		homework.SubmissionRef = payload.SubmissionRef
	}
	if payload.Description != "" {
		homework.Description = payload.Description
	}

	submittedAt := s.now()
	homework.Status = models.HomeworkStatusSubmitted
	homework.SubmittedAt = &submittedAt

	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.HomeworkResponse{}, err
	}

	updated, err := s.homeworks.GetByID(ctx, homework.ID)
	if err != nil {
		return dto.HomeworkResponse{}, err
	}

	s.logger.Info().Uint("homework_id", homework.ID).Msg("homework re-submitted")

	return dto.NewHomeworkResponse(updated), nil
}

func (s *homeworkService) ListMine(ctx context.Context, actor authz.Actor) ([]dto.HomeworkResponse, error) {
	if actor.StudentID == 0 {
		return nil, ErrStudentProfileRequired
	}
	if decision := authz.Decide(actor, authz.ActionViewHomework, authz.Resource{OwnerStudentID: actor.StudentID}); !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	homeworks, err := s.homeworks.ListByStudent(ctx, actor.StudentID)
	if err != nil {
		return nil, err
	}

	return dto.NewHomeworkResponseSlice(homeworks), nil
}

// MyLessons joins the student's group lessons with their own homework state.
func (s *homeworkService) MyLessons(ctx context.Context, actor authz.Actor) (dto.MyLessonsResponse, error) {
	if actor.StudentID == 0 {
		return dto.MyLessonsResponse{}, ErrStudentProfileRequired
	}
	if decision := authz.Decide(actor, authz.ActionViewHomework, authz.Resource{OwnerStudentID: actor.StudentID}); !decision.Allowed {
		return dto.MyLessonsResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}
	if actor.GroupID == nil {
		return dto.MyLessonsResponse{Lessons: []dto.LessonHomeworkStatus{}}, nil
	}

	lessons, err := s.lessons.ListActiveByGroup(ctx, *actor.GroupID)
	if err != nil {
		return dto.MyLessonsResponse{}, err
	}

	homeworks, err := s.homeworks.ListByStudent(ctx, actor.StudentID)
	if err != nil {
		return dto.MyLessonsResponse{}, err
	}

	byLesson := make(map[uint]models.Homework, len(homeworks))
	for _, homework := range homeworks {
		byLesson[homework.LessonID] = homework
	}

	now := s.now()
	statuses := make([]dto.LessonHomeworkStatus, 0, len(lessons))
	for _, lesson := range lessons {
		entry := dto.LessonHomeworkStatus{
			Lesson:    dto.NewLessonLite(lesson, now),
			CanSubmit: true,
		}

		if homework, ok := byLesson[lesson.ID]; ok {
			status := string(homework.Status)
			entry.HomeworkID = &homework.ID
			entry.Status = &status
			entry.CanSubmit = false
			entry.CanEdit = !homework.IsRated()
			entry.SubmissionURL = homework.SubmissionURL
			entry.SubmissionRef = homework.SubmissionRef

			if len(homework.Ratings) > 0 {
				score := homework.Ratings[0].Score
				entry.RatingScore = &score
				entry.RatingComment = homework.Ratings[0].Comment
			}
		}

		statuses = append(statuses, entry)
	}

	return dto.MyLessonsResponse{Lessons: statuses}, nil
}
