package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

func setupLessonStats(t *testing.T) (*gorm.DB, LessonStatsService) {
	t.Helper()

	db := openScoringDB(t, "lesson_stats")

	svc := NewLessonStatsService(
		repository.NewLessonRepository(db),
		repository.NewStudentRepository(db),
		repository.NewHomeworkRepository(db),
		repository.NewRatingRepository(db),
		zerolog.Nop(),
	)
	if concrete, ok := svc.(*lessonStatsService); ok {
		concrete.now = func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }
	}
	return db, svc
}

func seedTaughtGroup(t *testing.T, db *gorm.DB, groupID, teacherID uint) {
	t.Helper()

	user := models.User{
		ID:       5000 + teacherID,
		Username: "teacher",
		Role:     models.RoleTeacher,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.Teacher{ID: teacherID, UserID: user.ID, EmployeeCode: "T-001"}).Error)

	tid := teacherID
	require.NoError(t, db.Create(&models.Group{ID: groupID, Name: "Alpha", TeacherID: &tid, IsActive: true}).Error)
}

func TestSubmissionStatsAfterDeadline(t *testing.T) {
	db, svc := setupLessonStats(t)

	seedTaughtGroup(t, db, 1, 1)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 1)
	seedStudent(t, db, 3, "Clara", 1)
	seedStudent(t, db, 4, "Dana", 1)

	deadline := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	seedLesson(t, db, 1, 1, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), &deadline)

	submittedAt := deadline.Add(-time.Hour)
	require.NoError(t, db.Create(&models.Homework{
		ID: 1, StudentID: 1, LessonID: 1,
		SubmissionRef: "uploads/anna.pdf",
		Status:        models.HomeworkStatusRated,
		SubmittedAt:   &submittedAt,
	}).Error)
	seedRating(t, db, 1, 1, 1, 8, deadline)
	require.NoError(t, db.Create(&models.Homework{
		ID: 2, StudentID: 2, LessonID: 1,
		SubmissionRef: "uploads/boris.pdf",
		Status:        models.HomeworkStatusSubmitted,
		SubmittedAt:   &submittedAt,
	}).Error)

	stats, err := svc.SubmissionStats(context.Background(), teacherActor(1), 1)
	require.NoError(t, err)

	require.Equal(t, 4, stats.TotalStudents)
	require.Equal(t, 2, stats.SubmittedCount)
	require.Equal(t, 2, stats.MissedCount)
	require.Equal(t, 0, stats.NotSubmittedCount)
	require.Empty(t, stats.NotSubmitted)
	require.Len(t, stats.Submitted, 4)

	// Rated first, then missed zeros, then unrated submissions last.
	require.Equal(t, uint(1), stats.Submitted[0].StudentID)
	require.Equal(t, 8, *stats.Submitted[0].Score)

	require.Equal(t, dto.SubmissionStatusMissed, stats.Submitted[1].Status)
	require.Equal(t, uint(3), stats.Submitted[1].StudentID)
	require.Equal(t, 0, *stats.Submitted[1].Score)
	require.Equal(t, uint(4), stats.Submitted[2].StudentID)

	require.Equal(t, uint(2), stats.Submitted[3].StudentID)
	require.Nil(t, stats.Submitted[3].Score)
}

func TestSubmissionStatsBeforeDeadline(t *testing.T) {
	db, svc := setupLessonStats(t)

	seedTaughtGroup(t, db, 1, 1)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 1)

	deadline := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	seedLesson(t, db, 1, 1, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), &deadline)

	stats, err := svc.SubmissionStats(context.Background(), teacherActor(1), 1)
	require.NoError(t, err)

	require.Equal(t, 0, stats.MissedCount)
	require.Equal(t, 2, stats.NotSubmittedCount)
	require.Len(t, stats.NotSubmitted, 2)
	require.Empty(t, stats.Submitted)
}

func TestSubmissionStatsForeignTeacherDenied(t *testing.T) {
	db, svc := setupLessonStats(t)

	seedTaughtGroup(t, db, 1, 1)
	deadline := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	seedLesson(t, db, 1, 1, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), &deadline)

	_, err := svc.SubmissionStats(context.Background(), teacherActor(9), 1)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAutoRateMissingBeforeDeadlineFails(t *testing.T) {
	db, svc := setupLessonStats(t)

	seedTaughtGroup(t, db, 1, 1)
	seedStudent(t, db, 1, "Anna", 1)

	deadline := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	seedLesson(t, db, 1, 1, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), &deadline)

	_, err := svc.AutoRateMissing(context.Background(), teacherActor(1), 1)
	require.ErrorIs(t, err, ErrDeadlineNotPassed)

	var count int64
	require.NoError(t, db.Model(&models.Homework{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAutoRateMissingWritesZeroRatings(t *testing.T) {
	db, svc := setupLessonStats(t)

	seedTaughtGroup(t, db, 1, 1)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 1)
	seedStudent(t, db, 3, "Clara", 1)

	deadline := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	seedLesson(t, db, 1, 1, time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC), &deadline)

	submittedAt := deadline.Add(-time.Hour)
	require.NoError(t, db.Create(&models.Homework{
		ID: 1, StudentID: 1, LessonID: 1,
		SubmissionRef: "uploads/anna.pdf",
		Status:        models.HomeworkStatusSubmitted,
		SubmittedAt:   &submittedAt,
	}).Error)

	result, err := svc.AutoRateMissing(context.Background(), teacherActor(1), 1)
	require.NoError(t, err)
	require.Equal(t, 2, result.RatedCount)

	var homeworks []models.Homework
	require.NoError(t, db.Where("student_id IN ?", []uint{2, 3}).Find(&homeworks).Error)
	require.Len(t, homeworks, 2)
	for _, homework := range homeworks {
		require.Equal(t, models.HomeworkStatusRated, homework.Status)
		require.False(t, homework.HasSubmission())
	}

	var ratings []models.Rating
	require.NoError(t, db.Where("student_id IN ?", []uint{2, 3}).Find(&ratings).Error)
	require.Len(t, ratings, 2)
	for _, rating := range ratings {
		require.Equal(t, models.MissedScore, rating.Score)
		require.Equal(t, uint(1), rating.TeacherID)
	}

	// Re-running finds no unsubmitted students left.
	again, err := svc.AutoRateMissing(context.Background(), teacherActor(1), 1)
	require.NoError(t, err)
	require.Zero(t, again.RatedCount)
}

func TestAutoRateMissingUnknownLesson(t *testing.T) {
	_, svc := setupLessonStats(t)

	_, err := svc.AutoRateMissing(context.Background(), teacherActor(1), 42)
	require.ErrorIs(t, err, ErrLessonNotFound)
}
