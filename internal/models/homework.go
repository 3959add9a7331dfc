package models

import "time"

// HomeworkStatus is the lifecycle state of a homework record.
type HomeworkStatus string

const (
	// HomeworkStatusPending means no submission payload exists yet. Only the
	// auto-rate placeholder path creates homeworks in this state.
	HomeworkStatusPending HomeworkStatus = "PENDING"
	// HomeworkStatusSubmitted means a submission payload is present.
	HomeworkStatusSubmitted HomeworkStatus = "SUBMITTED"
	// HomeworkStatusRated is terminal; a rating has been recorded.
	HomeworkStatusRated HomeworkStatus = "RATED"
)

// homeworkTransitions is the single source of truth for allowed status
// changes. SUBMITTED→SUBMITTED covers re-submission.
var homeworkTransitions = map[HomeworkStatus][]HomeworkStatus{
	HomeworkStatusPending:   {HomeworkStatusSubmitted, HomeworkStatusRated},
	HomeworkStatusSubmitted: {HomeworkStatusSubmitted, HomeworkStatusRated},
	HomeworkStatusRated:     {},
}

// Valid reports whether the status is one of the known lifecycle states.
func (s HomeworkStatus) Valid() bool {
	_, ok := homeworkTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving to next is an allowed lifecycle step.
func (s HomeworkStatus) CanTransitionTo(next HomeworkStatus) bool {
	for _, allowed := range homeworkTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Homework is a per-(student, lesson) submission record.
type Homework struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	StudentID     uint           `gorm:"not null;uniqueIndex:idx_homework_student_lesson" json:"student_id"`
	LessonID      uint           `gorm:"not null;uniqueIndex:idx_homework_student_lesson" json:"lesson_id"`
	SubmissionURL string         `gorm:"size:512" json:"submission_url"`
	SubmissionRef string         `gorm:"size:512" json:"submission_ref"`
	Description   string         `gorm:"type:text" json:"description"`
	Status        HomeworkStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	SubmittedAt   *time.Time     `json:"submitted_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Student       Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Lesson        Lesson         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"lesson"`
	Ratings       []Rating       `json:"ratings,omitempty"`
}

// HasSubmission reports whether a submission payload (URL or file reference)
// is present.
func (h Homework) HasSubmission() bool {
	return h.SubmissionURL != "" || h.SubmissionRef != ""
}

// IsRated reports whether the homework reached its terminal state.
func (h Homework) IsRated() bool {
	return h.Status == HomeworkStatusRated
}
