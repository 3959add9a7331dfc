package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edutrack/edutrack-api/internal/models"
)

// LeaderboardRepository persists daily leaderboard snapshots.
type LeaderboardRepository interface {
	// ReplaceScope atomically swaps all entries for one (date, group) scope.
	// Readers never observe the window between delete and insert.
	ReplaceScope(ctx context.Context, date time.Time, groupID *uint, entries []models.DailyLeaderboard) error
	// DeleteScope clears every entry for the (date, group) scope and reports
	// which groups held rows, so callers can drop stale caches for groups
	// that produce no fresh entries.
	DeleteScope(ctx context.Context, date time.Time, groupID *uint) ([]uint, error)
	ListForDate(ctx context.Context, date time.Time, groupID *uint, teacherID *uint) ([]models.DailyLeaderboard, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository constructs a leaderboard repository.
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func dayRange(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func (r *leaderboardRepository) ReplaceScope(ctx context.Context, date time.Time, groupID *uint, entries []models.DailyLeaderboard) error {
	dayStart, dayEnd := dayRange(date)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("date >= ? AND date < ?", dayStart, dayEnd)
		if groupID != nil {
			query = query.Where("group_id = ?", *groupID)
		}
		if err := query.Delete(&models.DailyLeaderboard{}).Error; err != nil {
			return err
		}

		if len(entries) == 0 {
			return nil
		}

		// Entries may carry preloaded associations; persist only the rows.
		return tx.Omit(clause.Associations).Create(&entries).Error
	})
}

func (r *leaderboardRepository) DeleteScope(ctx context.Context, date time.Time, groupID *uint) ([]uint, error) {
	dayStart, dayEnd := dayRange(date)

	var removed []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.DailyLeaderboard{}).
			Where("date >= ? AND date < ?", dayStart, dayEnd)
		if groupID != nil {
			query = query.Where("group_id = ?", *groupID)
		}

		if err := query.Distinct().Pluck("group_id", &removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}

		deleteQuery := tx.Where("date >= ? AND date < ?", dayStart, dayEnd)
		if groupID != nil {
			deleteQuery = deleteQuery.Where("group_id = ?", *groupID)
		}
		return deleteQuery.Delete(&models.DailyLeaderboard{}).Error
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func (r *leaderboardRepository) ListForDate(ctx context.Context, date time.Time, groupID *uint, teacherID *uint) ([]models.DailyLeaderboard, error) {
	dayStart, dayEnd := dayRange(date)

	query := r.db.WithContext(ctx).
		Model(&models.DailyLeaderboard{}).
		Preload("Student").
		Preload("Student.User").
		Preload("Group").
		Where("date >= ? AND date < ?", dayStart, dayEnd)

	if groupID != nil {
		query = query.Where("group_id = ?", *groupID)
	}
	if teacherID != nil {
		query = query.
			Joins("JOIN groups ON groups.id = daily_leaderboards.group_id").
			Where("groups.teacher_id = ?", *teacherID)
	}

	var entries []models.DailyLeaderboard
	if err := query.Order("group_id ASC, rank ASC").Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}
