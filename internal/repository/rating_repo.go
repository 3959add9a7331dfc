package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// StudentScoreTotal aggregates a student's ratings over a set of lessons.
type StudentScoreTotal struct {
	StudentID  uint
	TotalScore int
	RatedCount int
}

// RatingRepository defines data operations for ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	ExistsForHomework(ctx context.Context, homeworkID uint) (bool, error)
	ListOnDateByGroup(ctx context.Context, date time.Time, groupID uint) ([]models.Rating, error)
	TotalsByStudentForLessons(ctx context.Context, lessonIDs []uint) ([]StudentScoreTotal, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository constructs a rating repository.
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *ratingRepository) ExistsForHomework(ctx context.Context, homeworkID uint) (bool, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("homework_id = ?", homeworkID).
		Select("id").
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// ListOnDateByGroup returns all ratings recorded on the given calendar day
// for students belonging to the group. The date column stores midnight UTC,
// so the comparison uses a half-open day range to stay portable across
// database backends.
func (r *ratingRepository) ListOnDateByGroup(ctx context.Context, date time.Time, groupID uint) ([]models.Rating, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var ratings []models.Rating
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Joins("JOIN students ON students.id = ratings.student_id").
		Where("students.group_id = ?", groupID).
		Where("ratings.rating_date >= ? AND ratings.rating_date < ?", dayStart, dayEnd).
		Find(&ratings).Error; err != nil {
		return nil, err
	}

	return ratings, nil
}

func (r *ratingRepository) TotalsByStudentForLessons(ctx context.Context, lessonIDs []uint) ([]StudentScoreTotal, error) {
	if len(lessonIDs) == 0 {
		return []StudentScoreTotal{}, nil
	}

	var totals []StudentScoreTotal
	if err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("ratings.student_id AS student_id, SUM(ratings.score) AS total_score, COUNT(ratings.id) AS rated_count").
		Joins("JOIN homeworks ON homeworks.id = ratings.homework_id").
		Where("homeworks.lesson_id IN ?", lessonIDs).
		Group("ratings.student_id").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	return totals, nil
}
