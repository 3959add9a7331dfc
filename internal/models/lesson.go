package models

import "time"

// Lesson is a teaching session students submit homework against.
type Lesson struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	TeacherID    *uint      `gorm:"index" json:"teacher_id"`
	GroupID      *uint      `gorm:"index" json:"group_id"`
	StartDate    time.Time  `gorm:"not null" json:"start_date"`
	Deadline     *time.Time `json:"deadline"`
	HomeworkTask string     `gorm:"type:text" json:"homework_task"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Teacher      *Teacher   `json:"teacher,omitempty"`
	Group        *Group     `json:"group,omitempty"`
}

// IsDeadlinePassed reports whether the homework deadline is behind the
// reference time. Lessons without a deadline never pass.
func (l Lesson) IsDeadlinePassed(reference time.Time) bool {
	if l.Deadline == nil {
		return false
	}
	return reference.After(*l.Deadline)
}
