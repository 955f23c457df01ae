package models

import "time"

// Student represents a learner that can submit assignments.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnrollmentStatusActive marks a student currently attending a class.
const EnrollmentStatusActive = "active"

// ClassEnrollment links a student to a class taught at a coaching center.
type ClassEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student,priority:1" json:"class_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_student,priority:2;index" json:"student_id"`
	Status    string    `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
