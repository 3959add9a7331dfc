package models

import "time"

// Group scopes students, lessons and leaderboard rows under one teacher.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	TeacherID   *uint     `gorm:"index" json:"teacher_id"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Teacher     *Teacher  `json:"teacher,omitempty"`
}
