package models

import "time"

// DailyLeaderboard is a materialized ranking snapshot for one
// (student, date, group). Rows are fully recomputed and replaced per
// (date, group) scope on every calculation run, never patched in place.
type DailyLeaderboard struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;uniqueIndex:idx_leaderboard_scope" json:"student_id"`
	GroupID      *uint     `gorm:"uniqueIndex:idx_leaderboard_scope" json:"group_id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:idx_leaderboard_scope" json:"date"`
	AverageScore float64   `gorm:"type:decimal(4,2);not null" json:"average_score"`
	Rank         int       `gorm:"not null" json:"rank"`
	TotalRatings int       `gorm:"not null;default:0" json:"total_ratings"`
	CreatedAt    time.Time `json:"created_at"`
	Student      Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Group        *Group    `json:"group,omitempty"`
}

// IsTopThree reports whether the entry sits on the podium.
func (e DailyLeaderboard) IsTopThree() bool {
	return e.Rank >= 1 && e.Rank <= 3
}
