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

// RatingService records teacher ratings against homework.
type RatingService interface {
	Create(ctx context.Context, actor authz.Actor, payload dto.RatingCreateRequest) (dto.RatingResponse, error)
}

type ratingService struct {
	ratings   repository.RatingRepository
	homeworks repository.HomeworkRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRatingService constructs a RatingService instance.
func NewRatingService(ratings repository.RatingRepository, homeworks repository.HomeworkRepository, validate *validator.Validate, logger zerolog.Logger) RatingService {
	return &ratingService{
		ratings:   ratings,
		homeworks: homeworks,
		validator: validate,
		logger:    logger.With().Str("component", "rating_service").Logger(),
		now:       time.Now,
	}
}

// Create validates the score, checks the teacher owns the homework's group,
// writes the rating and advances the homework to RATED. Exactly one rating
// per homework is accepted; a second attempt is a conflict.
func (s *ratingService) Create(ctx context.Context, actor authz.Actor, payload dto.RatingCreateRequest) (dto.RatingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RatingResponse{}, err
	}

	if actor.TeacherID == 0 {
		return dto.RatingResponse{}, ErrTeacherProfileRequired
	}

	homework, err := s.homeworks.GetByID(ctx, payload.HomeworkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RatingResponse{}, ErrHomeworkNotFound
		}
		return dto.RatingResponse{}, err
	}

	resource := authz.Resource{GroupID: homework.Lesson.GroupID}
	if homework.Lesson.Group != nil {
		resource.GroupTeacherID = homework.Lesson.Group.TeacherID
	}
	if decision := authz.Decide(actor, authz.ActionCreateRating, resource); !decision.Allowed {
		return dto.RatingResponse{}, fmt.Errorf("%w: %s", ErrPermissionDenied, decision.Reason)
	}

	exists, err := s.ratings.ExistsForHomework(ctx, homework.ID)
	if err != nil {
		return dto.RatingResponse{}, err
	}
	if exists || !homework.Status.CanTransitionTo(models.HomeworkStatusRated) {
		return dto.RatingResponse{}, ErrDuplicateRating
	}

	rating := models.Rating{
		HomeworkID: homework.ID,
		TeacherID:  actor.TeacherID,
		StudentID:  homework.StudentID,
		Score:      payload.Score,
		Comment:    payload.Comment,
		RatingDate: DateOnly(s.now()),
	}

	if err := s.ratings.Create(ctx, &rating); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.RatingResponse{}, ErrDuplicateRating
		}
		return dto.RatingResponse{}, err
	}

	homework.Status = models.HomeworkStatusRated
	if err := s.homeworks.Update(ctx, &homework); err != nil {
		return dto.RatingResponse{}, err
	}

	s.logger.Info().
		Uint("rating_id", rating.ID).
		Uint("homework_id", homework.ID).
		Int("score", rating.Score).
		Msg("rating recorded")

	return dto.NewRatingResponse(rating), nil
}
