package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// LessonRepository defines lesson queries used by the scoring engine.
type LessonRepository interface {
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
	ListActiveByGroup(ctx context.Context, groupID uint) ([]models.Lesson, error)
	ListActiveCreatedBetween(ctx context.Context, from, to time.Time, groupID *uint, teacherID *uint) ([]models.Lesson, error)
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository constructs a lesson repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Lesson{}).
		Preload("Teacher").
		Preload("Group").
		Preload("Group.Teacher")
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.baseQuery(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}

	return lesson, nil
}

func (r *lessonRepository) ListActiveByGroup(ctx context.Context, groupID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := r.baseQuery(ctx).
		Where("group_id = ?", groupID).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}

	return lessons, nil
}

func (r *lessonRepository) ListActiveCreatedBetween(ctx context.Context, from, to time.Time, groupID *uint, teacherID *uint) ([]models.Lesson, error) {
	query := r.baseQuery(ctx).
		Where("lessons.created_at >= ? AND lessons.created_at < ?", from, to).
		Where("lessons.is_active = ?", true)

	if groupID != nil {
		query = query.Where("lessons.group_id = ?", *groupID)
	}
	if teacherID != nil {
		query = query.
			Joins("JOIN groups ON groups.id = lessons.group_id").
			Where("groups.teacher_id = ?", *teacherID)
	}

	var lessons []models.Lesson
	if err := query.Order("lessons.id ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}

	return lessons, nil
}
