package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/models"
)

// StudentRepository defines directory lookups for students.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByUserID(ctx context.Context, userID uint) (models.Student, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.Student, error)
	ListActive(ctx context.Context, groupID *uint, teacherID *uint) ([]models.Student, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Preload("User").
		Preload("Group")
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.baseQuery(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	if err := r.baseQuery(ctx).Where("user_id = ?", userID).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.baseQuery(ctx).
		Where("group_id = ?", groupID).
		Order("id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) ListActive(ctx context.Context, groupID *uint, teacherID *uint) ([]models.Student, error) {
	query := r.baseQuery(ctx).
		Joins("JOIN users ON users.id = students.user_id").
		Where("users.is_active = ?", true)

	if groupID != nil {
		query = query.Where("students.group_id = ?", *groupID)
	}
	if teacherID != nil {
		query = query.
			Joins("JOIN groups ON groups.id = students.group_id").
			Where("groups.teacher_id = ?", *teacherID)
	}

	var students []models.Student
	if err := query.Order("students.id ASC").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}

	var students []models.Student
	if err := r.baseQuery(ctx).Where("id IN ?", ids).Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}
