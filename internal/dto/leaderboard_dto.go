package dto

import (
	"github.com/edutrack/edutrack-api/internal/models"
)

// DailyCalculateRequest triggers a daily leaderboard calculation run.
type DailyCalculateRequest struct {
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	GroupID *uint  `json:"group" validate:"omitempty,gt=0"`
}

// GroupCalculationError reports a failure isolated to one group during a
// calculation run. Other groups are unaffected.
type GroupCalculationError struct {
	GroupID uint   `json:"group_id"`
	Message string `json:"message"`
}

// DailyEntryResponse is one ranked row of a daily leaderboard.
type DailyEntryResponse struct {
	StudentID    uint    `json:"student_id"`
	StudentCode  string  `json:"student_code"`
	StudentName  string  `json:"student_name"`
	GroupID      *uint   `json:"group_id"`
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	Rank         int     `json:"rank"`
	TotalRatings int     `json:"total_ratings"`
	IsTopThree   bool    `json:"is_top_three"`
}

// NewDailyEntryResponse converts a snapshot row into a DTO.
func NewDailyEntryResponse(model models.DailyLeaderboard) DailyEntryResponse {
	return DailyEntryResponse{
		StudentID:    model.StudentID,
		StudentCode:  model.Student.StudentCode,
		StudentName:  model.Student.User.FullName(),
		GroupID:      model.GroupID,
		Date:         model.Date.Format("2006-01-02"),
		AverageScore: model.AverageScore,
		Rank:         model.Rank,
		TotalRatings: model.TotalRatings,
		IsTopThree:   model.IsTopThree(),
	}
}

// NewDailyEntryResponseSlice converts snapshot rows into DTOs.
func NewDailyEntryResponseSlice(entries []models.DailyLeaderboard) []DailyEntryResponse {
	responses := make([]DailyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewDailyEntryResponse(entry))
	}
	return responses
}

// DailyCalculateResponse summarizes a calculation run.
type DailyCalculateResponse struct {
	Date            string                  `json:"date"`
	GroupsProcessed int                     `json:"groups_processed"`
	EntriesWritten  int                     `json:"entries_written"`
	Entries         []DailyEntryResponse    `json:"entries"`
	GroupErrors     []GroupCalculationError `json:"group_errors,omitempty"`
}

// DailyLeaderboardResponse is the read view over a persisted snapshot.
type DailyLeaderboardResponse struct {
	Date     string               `json:"date"`
	Entries  []DailyEntryResponse `json:"entries"`
	CacheHit bool                 `json:"cache_hit"`
}

// MonthlyEntryResponse is one ranked row of the ephemeral monthly leaderboard.
type MonthlyEntryResponse struct {
	Rank         int     `json:"rank"`
	StudentID    uint    `json:"student_id"`
	StudentCode  string  `json:"student_code"`
	StudentName  string  `json:"student_name"`
	GroupID      *uint   `json:"group_id"`
	AverageScore float64 `json:"average_score"`
	TotalScore   int     `json:"total_score"`
	TotalRatings int     `json:"total_ratings"`
	IsTopThree   bool    `json:"is_top_three"`
}

// MonthlyLeaderboardResponse is computed on demand and never persisted.
// TotalLessons lets callers distinguish "no lessons" from "none countable".
type MonthlyLeaderboardResponse struct {
	Year                  int                    `json:"year"`
	Month                 int                    `json:"month"`
	Leaderboard           []MonthlyEntryResponse `json:"leaderboard"`
	TotalLessons          int                    `json:"total_lessons"`
	TotalCountableLessons int                    `json:"total_countable_lessons"`
	CacheHit              bool                   `json:"cache_hit"`
}
