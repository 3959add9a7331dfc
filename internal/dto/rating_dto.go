package dto

import (
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// RatingCreateRequest is the teacher payload for rating a homework.
type RatingCreateRequest struct {
	HomeworkID uint   `json:"homework_id" validate:"required,gt=0"`
	Score      int    `json:"score" validate:"required,gte=1,lte=10"`
	Comment    string `json:"comment"`
}

// RatingResponse is returned to API clients when viewing ratings.
type RatingResponse struct {
	ID         uint      `json:"id"`
	HomeworkID uint      `json:"homework_id"`
	TeacherID  uint      `json:"teacher_id"`
	StudentID  uint      `json:"student_id"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment"`
	RatingDate string    `json:"rating_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRatingResponse converts a Rating model into a DTO.
func NewRatingResponse(model models.Rating) RatingResponse {
	return RatingResponse{
		ID:         model.ID,
		HomeworkID: model.HomeworkID,
		TeacherID:  model.TeacherID,
		StudentID:  model.StudentID,
		Score:      model.Score,
		Comment:    model.Comment,
		RatingDate: model.RatingDate.Format("2006-01-02"),
		CreatedAt:  model.CreatedAt,
	}
}
