package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// EnrollmentRepository answers class membership questions.
type EnrollmentRepository interface {
	CountActive(ctx context.Context, classID uint) (int64, error)
	IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) CountActive(ctx context.Context, classID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassEnrollment{}).
		Where("class_id = ? AND status = ?", classID, models.EnrollmentStatusActive).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepository) IsEnrolled(ctx context.Context, classID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ClassEnrollment{}).
		Where("class_id = ? AND student_id = ? AND status = ?", classID, studentID, models.EnrollmentStatusActive).
		Count(&count).Error
	return count > 0, err
}
