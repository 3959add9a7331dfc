package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/authz"
	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

var adminActor = authz.Actor{UserID: 99, Role: "ADMIN"}

func openScoringDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Teacher{},
		&models.Group{},
		&models.Student{},
		&models.Lesson{},
		&models.Homework{},
		&models.Rating{},
		&models.DailyLeaderboard{},
	))
	return db
}

func seedStudent(t *testing.T, db *gorm.DB, id uint, name string, groupID uint) {
	t.Helper()

	user := models.User{
		ID:        1000 + id,
		Username:  fmt.Sprintf("student%d", id),
		FirstName: name,
		Role:      models.RoleStudent,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)

	g := groupID
	student := models.Student{
		ID:          id,
		UserID:      user.ID,
		StudentCode: fmt.Sprintf("S-%03d", id),
		GroupID:     &g,
	}
	require.NoError(t, db.Create(&student).Error)
}

func seedRating(t *testing.T, db *gorm.DB, homeworkID, teacherID, studentID uint, score int, day time.Time) {
	t.Helper()

	rating := models.Rating{
		HomeworkID: homeworkID,
		TeacherID:  teacherID,
		StudentID:  studentID,
		Score:      score,
		RatingDate: day,
	}
	require.NoError(t, db.Create(&rating).Error)
}

func setupDailyLeaderboard(t *testing.T) (*gorm.DB, DailyLeaderboardService, *redis.Client) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	db := openScoringDB(t, "daily_leaderboard")

	svc := NewDailyLeaderboardService(
		repository.NewLeaderboardRepository(db),
		repository.NewRatingRepository(db),
		repository.NewStudentRepository(db),
		repository.NewGroupRepository(db),
		redisClient,
		time.Minute,
		validator.New(validator.WithRequiredStructEnabled()),
		zerolog.Nop(),
	)
	if concrete, ok := svc.(*dailyLeaderboardService); ok {
		concrete.now = func() time.Time { return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC) }
	}
	return db, svc, redisClient
}

func TestDailyCalculateRanksGroupByMeanScore(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 1)
	seedStudent(t, db, 3, "Clara", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 8, day)
	seedRating(t, db, 2, 1, 1, 6, day)
	seedRating(t, db, 3, 1, 2, 9, day)

	response, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)
	require.Equal(t, 1, response.GroupsProcessed)
	require.Equal(t, 2, response.EntriesWritten)
	require.Empty(t, response.GroupErrors)

	require.Len(t, response.Entries, 2)
	require.Equal(t, uint(2), response.Entries[0].StudentID)
	require.Equal(t, 9.0, response.Entries[0].AverageScore)
	require.Equal(t, 1, response.Entries[0].Rank)
	require.True(t, response.Entries[0].IsTopThree)

	require.Equal(t, uint(1), response.Entries[1].StudentID)
	require.Equal(t, 7.0, response.Entries[1].AverageScore)
	require.Equal(t, 2, response.Entries[1].Rank)
	require.Equal(t, 2, response.Entries[1].TotalRatings)

	// Student 3 has no ratings and must not appear.
	var count int64
	require.NoError(t, db.Model(&models.DailyLeaderboard{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestDailyCalculateIsIdempotent(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 10, day)

	first, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)
	second, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	require.Equal(t, first.EntriesWritten, second.EntriesWritten)

	var count int64
	require.NoError(t, db.Model(&models.DailyLeaderboard{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDailyCalculateTieBreaksByStudentID(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 4, "Dana", 1)
	seedStudent(t, db, 2, "Boris", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 4, 8, day)
	seedRating(t, db, 2, 1, 2, 8, day)

	response, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)
	require.Len(t, response.Entries, 2)
	require.Equal(t, uint(2), response.Entries[0].StudentID)
	require.Equal(t, uint(4), response.Entries[1].StudentID)
}

func TestDailyCalculateNoRatings(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.ErrorIs(t, err, ErrNoRatingsForDate)
}

func TestDailyCalculateUnknownGroup(t *testing.T) {
	_, svc, _ := setupDailyLeaderboard(t)

	missing := uint(99)
	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10", GroupID: &missing})
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestDailyGetUsesCache(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 7, day)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), adminActor, day, nil)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Entries, 1)
	require.Equal(t, "Anna", first.Entries[0].StudentName)

	second, err := svc.Get(context.Background(), adminActor, day, nil)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Entries, second.Entries)
}

func TestDailyCalculateInvalidatesReadCache(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 5, day)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	warm, err := svc.Get(context.Background(), adminActor, day, nil)
	require.NoError(t, err)
	require.Equal(t, 5.0, warm.Entries[0].AverageScore)

	seedRating(t, db, 2, 1, 1, 9, day)
	_, err = svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	refreshed, err := svc.Get(context.Background(), adminActor, day, nil)
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.Equal(t, 7.0, refreshed.Entries[0].AverageScore)
}

func TestDailyCalculateRequiresAdmin(t *testing.T) {
	_, svc, _ := setupDailyLeaderboard(t)

	groupID := uint(1)
	student := authz.Actor{UserID: 2, Role: "STUDENT", StudentID: 1, GroupID: &groupID}
	_, err := svc.Calculate(context.Background(), student, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.ErrorIs(t, err, ErrPermissionDenied)

	teacher := authz.Actor{UserID: 3, Role: "TEACHER", TeacherID: 1}
	_, err = svc.Calculate(context.Background(), teacher, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDailyCalculateClearsRowsOfGroupsWithoutRatings(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Group{ID: 2, Name: "Beta", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 2)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 8, day)
	seedRating(t, db, 2, 1, 2, 9, day)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.DailyLeaderboard{}).Where("group_id = ?", 2).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// Group 2's rating is withdrawn. The next run must not leave its old
	// snapshot row behind.
	require.NoError(t, db.Where("student_id = ?", 2).Delete(&models.Rating{}).Error)

	_, err = svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.DailyLeaderboard{}).Where("group_id = ?", 2).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.DailyLeaderboard{}).Where("group_id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDailyCalculateWithNoRatingsStillClearsStaleRows(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 8, day)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	require.NoError(t, db.Where("student_id = ?", 1).Delete(&models.Rating{}).Error)

	_, err = svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.ErrorIs(t, err, ErrNoRatingsForDate)

	var count int64
	require.NoError(t, db.Model(&models.DailyLeaderboard{}).Count(&count).Error)
	require.Zero(t, count)

	stale, err := svc.Get(context.Background(), adminActor, day, nil)
	require.NoError(t, err)
	require.Empty(t, stale.Entries)
}

func TestDailyCalculateRanksOnExactAverages(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 1)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	// Student 1 averages exactly 7.65, student 2 averages 176/23 = 7.6521...
	// Both display as 7.65 but student 2's true mean is higher, so rounding
	// before ranking would hand first place to the lower-ID student.
	scoresOne := make([]int, 0, 20)
	for i := 0; i < 13; i++ {
		scoresOne = append(scoresOne, 8)
	}
	for i := 0; i < 7; i++ {
		scoresOne = append(scoresOne, 7)
	}
	for i, score := range scoresOne {
		seedRating(t, db, uint(100+i), 1, 1, score, day)
	}

	scoresTwo := make([]int, 0, 23)
	for i := 0; i < 15; i++ {
		scoresTwo = append(scoresTwo, 8)
	}
	for i := 0; i < 8; i++ {
		scoresTwo = append(scoresTwo, 7)
	}
	for i, score := range scoresTwo {
		seedRating(t, db, uint(200+i), 1, 2, score, day)
	}

	response, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)
	require.Len(t, response.Entries, 2)

	require.Equal(t, uint(2), response.Entries[0].StudentID)
	require.Equal(t, 1, response.Entries[0].Rank)
	require.Equal(t, uint(1), response.Entries[1].StudentID)
	require.Equal(t, 2, response.Entries[1].Rank)

	// The persisted averages still round to two places.
	require.Equal(t, 7.65, response.Entries[0].AverageScore)
	require.Equal(t, 7.65, response.Entries[1].AverageScore)
}

func TestDailyGetScopesStudentToOwnGroup(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Group{ID: 2, Name: "Beta", IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 2)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 8, day)
	seedRating(t, db, 2, 1, 2, 9, day)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	groupOne := uint(1)
	student := authz.Actor{UserID: 2, Role: "STUDENT", StudentID: 1, GroupID: &groupOne}

	// No explicit group defaults to the student's own group.
	own, err := svc.Get(context.Background(), student, day, nil)
	require.NoError(t, err)
	require.Len(t, own.Entries, 1)
	require.Equal(t, uint(1), own.Entries[0].StudentID)

	groupTwo := uint(2)
	_, err = svc.Get(context.Background(), student, day, &groupTwo)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// A student without a group sees an empty board rather than everyone's.
	ungrouped := authz.Actor{UserID: 7, Role: "STUDENT", StudentID: 9}
	empty, err := svc.Get(context.Background(), ungrouped, day, nil)
	require.NoError(t, err)
	require.Empty(t, empty.Entries)
}

func TestDailyGetScopesTeacherToOwnedGroups(t *testing.T) {
	db, svc, _ := setupDailyLeaderboard(t)

	teacherOne := uint(1)
	teacherTwo := uint(2)
	require.NoError(t, db.Create(&models.Group{ID: 1, Name: "Alpha", TeacherID: &teacherOne, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Group{ID: 2, Name: "Beta", TeacherID: &teacherTwo, IsActive: true}).Error)
	seedStudent(t, db, 1, "Anna", 1)
	seedStudent(t, db, 2, "Boris", 2)

	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	seedRating(t, db, 1, 1, 1, 8, day)
	seedRating(t, db, 2, 2, 2, 9, day)

	_, err := svc.Calculate(context.Background(), adminActor, dto.DailyCalculateRequest{Date: "2025-03-10"})
	require.NoError(t, err)

	teacher := authz.Actor{UserID: 3, Role: "TEACHER", TeacherID: 1}

	visible, err := svc.Get(context.Background(), teacher, day, nil)
	require.NoError(t, err)
	require.Len(t, visible.Entries, 1)
	require.Equal(t, uint(1), visible.Entries[0].StudentID)

	// Asking for a foreign group is allowed but intersects to nothing.
	groupTwo := uint(2)
	foreign, err := svc.Get(context.Background(), teacher, day, &groupTwo)
	require.NoError(t, err)
	require.Empty(t, foreign.Entries)
}
