package models

import "time"

// Course is an instructor-owned catalogue entry. This service only reads
// courses; ownership of the table lives with the course management backend.
type Course struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Price        float64   `gorm:"not null;default:0" json:"price"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Purchase is a settled sale of a course. Price is captured at purchase time
// and may be null for legacy rows; a null price still counts as one sale.
type Purchase struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Price     *float64  `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
