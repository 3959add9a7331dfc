package models

import "time"

// Rating score bounds for teacher-issued ratings. The auto-rate path writes
// a score of MissedScore outside this band for missed deadlines.
const (
	MinScore    = 1
	MaxScore    = 10
	MissedScore = 0
)

// Rating is a teacher-issued score against one homework. StudentID is
// denormalized from the homework for query convenience. RatingDate is the
// calendar day the rating was recorded and never changes afterwards.
type Rating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	HomeworkID uint      `gorm:"not null;uniqueIndex:idx_rating_homework_teacher" json:"homework_id"`
	TeacherID  uint      `gorm:"not null;uniqueIndex:idx_rating_homework_teacher" json:"teacher_id"`
	StudentID  uint      `gorm:"not null;index" json:"student_id"`
	Score      int       `gorm:"not null" json:"score"`
	Comment    string    `gorm:"type:text" json:"comment"`
	RatingDate time.Time `gorm:"type:date;not null" json:"rating_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Homework   Homework  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"homework"`
	Teacher    Teacher   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
