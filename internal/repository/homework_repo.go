package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// HomeworkRepository defines data operations for homework records.
type HomeworkRepository interface {
	GetByID(ctx context.Context, id uint) (models.Homework, error)
	GetByStudentAndLesson(ctx context.Context, studentID, lessonID uint) (models.Homework, error)
	Create(ctx context.Context, homework *models.Homework) error
	Update(ctx context.Context, homework *models.Homework) error
	ListByLesson(ctx context.Context, lessonID uint) ([]models.Homework, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Homework, error)
	HasRatedForLesson(ctx context.Context, lessonID uint) (bool, error)
	ListStudentIDsForLesson(ctx context.Context, lessonID uint) ([]uint, error)
}

type homeworkRepository struct {
	db *gorm.DB
}

// NewHomeworkRepository constructs a homework repository.
func NewHomeworkRepository(db *gorm.DB) HomeworkRepository {
	return &homeworkRepository{db: db}
}

func (r *homeworkRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Homework{}).
		Preload("Student").
		Preload("Student.User").
		Preload("Lesson").
		Preload("Lesson.Group").
		Preload("Ratings")
}

func (r *homeworkRepository) GetByID(ctx context.Context, id uint) (models.Homework, error) {
	var homework models.Homework
	if err := r.baseQuery(ctx).First(&homework, id).Error; err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *homeworkRepository) GetByStudentAndLesson(ctx context.Context, studentID, lessonID uint) (models.Homework, error) {
	var homework models.Homework
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Where("lesson_id = ?", lessonID).
		First(&homework).Error; err != nil {
		return models.Homework{}, err
	}

	return homework, nil
}

func (r *homeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Create(homework).Error
}

func (r *homeworkRepository) Update(ctx context.Context, homework *models.Homework) error {
	return r.db.WithContext(ctx).Save(homework).Error
}

func (r *homeworkRepository) ListByLesson(ctx context.Context, lessonID uint) ([]models.Homework, error) {
	var homeworks []models.Homework
	if err := r.baseQuery(ctx).
		Where("lesson_id = ?", lessonID).
		Order("id ASC").
		Find(&homeworks).Error; err != nil {
		return nil, err
	}

	return homeworks, nil
}

func (r *homeworkRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Homework, error) {
	var homeworks []models.Homework
	if err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&homeworks).Error; err != nil {
		return nil, err
	}

	return homeworks, nil
}

func (r *homeworkRepository) HasRatedForLesson(ctx context.Context, lessonID uint) (bool, error) {
	var homework models.Homework
	err := r.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Where("status = ?", models.HomeworkStatusRated).
		Select("id").
		First(&homework).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r *homeworkRepository) ListStudentIDsForLesson(ctx context.Context, lessonID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Homework{}).
		Where("lesson_id = ?", lessonID).
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}
