package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/loom-academy/loom-go-api/internal/models"
)

// CourseRepository reads instructor-owned courses. The course catalogue is
// owned by an external system; this service never writes to it.
type CourseRepository interface {
	ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) ListByInstructor(ctx context.Context, instructorID uint) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Find(&courses).Error
	return courses, err
}
