package dto

import (
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// LessonLite summarizes a lesson in stats and homework views.
type LessonLite struct {
	ID               uint       `json:"id"`
	Title            string     `json:"title"`
	Deadline         *time.Time `json:"deadline"`
	IsDeadlinePassed bool       `json:"is_deadline_passed"`
	HomeworkTask     string     `json:"homework_task"`
}

// NewLessonLite converts a Lesson model into its summary DTO. The deadline
// flag is evaluated against the supplied reference time.
func NewLessonLite(model models.Lesson, reference time.Time) LessonLite {
	return LessonLite{
		ID:               model.ID,
		Title:            model.Title,
		Deadline:         model.Deadline,
		IsDeadlinePassed: model.IsDeadlinePassed(reference),
		HomeworkTask:     model.HomeworkTask,
	}
}

// SubmissionStatusMissed marks roster students reclassified as missed after
// the deadline. It is a display status only, never stored on a homework.
const SubmissionStatusMissed = "MISSED"

// StudentSubmissionStat is one roster row in the submission stats view.
type StudentSubmissionStat struct {
	StudentID     uint       `json:"student_id"`
	StudentCode   string     `json:"student_code"`
	StudentName   string     `json:"student_name"`
	HomeworkID    *uint      `json:"homework_id"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	Status        string     `json:"status"`
	Score         *int       `json:"score"`
	RatingComment string     `json:"rating_comment"`
}

// SubmissionStatsResponse reconciles a lesson's roster against submissions.
// Submitted includes missed-deadline students (with synthetic zero scores)
// so the list ranks the whole roster; the counters keep the three
// populations distinct.
type SubmissionStatsResponse struct {
	Lesson            LessonLite              `json:"lesson"`
	TotalStudents     int                     `json:"total_students"`
	SubmittedCount    int                     `json:"submitted_count"`
	MissedCount       int                     `json:"missed_count"`
	NotSubmittedCount int                     `json:"not_submitted_count"`
	Submitted         []StudentSubmissionStat `json:"submitted_students"`
	NotSubmitted      []StudentSubmissionStat `json:"not_submitted_students"`
}

// AutoRateResponse reports how many students received an automatic zero.
type AutoRateResponse struct {
	RatedCount int `json:"rated_count"`
}
