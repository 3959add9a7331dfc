package dto

import (
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// HomeworkSubmitRequest carries a student submission for a lesson. At least
// one of SubmissionURL or SubmissionRef must be present.
type HomeworkSubmitRequest struct {
	LessonID      uint   `json:"lesson_id" validate:"required,gt=0"`
	SubmissionURL string `json:"submission_url" validate:"omitempty,url"`
	SubmissionRef string `json:"submission_ref" validate:"omitempty,max=512"`
	Description   string `json:"description"`
}

// RatingLite summarizes a rating inside homework responses.
type RatingLite struct {
	ID      uint   `json:"id"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// HomeworkResponse is returned to API clients when viewing homework records.
type HomeworkResponse struct {
	ID            uint        `json:"id"`
	StudentID     uint        `json:"student_id"`
	LessonID      uint        `json:"lesson_id"`
	SubmissionURL string      `json:"submission_url"`
	SubmissionRef string      `json:"submission_ref"`
	Description   string      `json:"description"`
	Status        string      `json:"status"`
	SubmittedAt   *time.Time  `json:"submitted_at"`
	Rating        *RatingLite `json:"rating"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewHomeworkResponse converts a Homework model into a DTO.
func NewHomeworkResponse(model models.Homework) HomeworkResponse {
	response := HomeworkResponse{
		ID:            model.ID,
		StudentID:     model.StudentID,
		LessonID:      model.LessonID,
		SubmissionURL: model.SubmissionURL,
		SubmissionRef: model.SubmissionRef,
		Description:   model.Description,
		Status:        string(model.Status),
		SubmittedAt:   model.SubmittedAt,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if len(model.Ratings) > 0 {
		rating := model.Ratings[0]
		response.Rating = &RatingLite{ID: rating.ID, Score: rating.Score, Comment: rating.Comment}
	}

	return response
}

// NewHomeworkResponseSlice converts a slice of models into DTOs.
func NewHomeworkResponseSlice(homeworks []models.Homework) []HomeworkResponse {
	responses := make([]HomeworkResponse, 0, len(homeworks))
	for _, homework := range homeworks {
		responses = append(responses, NewHomeworkResponse(homework))
	}
	return responses
}

// LessonHomeworkStatus pairs a lesson with the requesting student's own
// homework state for the "my lessons" view.
type LessonHomeworkStatus struct {
	Lesson        LessonLite `json:"lesson"`
	HomeworkID    *uint      `json:"homework_id"`
	Status        *string    `json:"homework_status"`
	CanSubmit     bool       `json:"can_submit"`
	CanEdit       bool       `json:"can_edit"`
	SubmissionURL string     `json:"submission_url"`
	SubmissionRef string     `json:"submission_ref"`
	RatingScore   *int       `json:"rating_score"`
	RatingComment string     `json:"rating_comment"`
}

// MyLessonsResponse lists the student's group lessons with homework status.
type MyLessonsResponse struct {
	Lessons []LessonHomeworkStatus `json:"lessons"`
}
