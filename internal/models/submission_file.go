package models

import "time"

// SubmissionFile stores metadata about an attachment uploaded for an assignment.
// Its ID is the opaque file reference carried by submissions.
type SubmissionFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      uint      `gorm:"not null;index" json:"owner_id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	StoragePath  string    `gorm:"size:512;not null" json:"storage_path"`
	ResourceType string    `gorm:"size:32;not null" json:"resource_type"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	MimeType     string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	Checksum     string    `gorm:"size:128;index" json:"checksum"`
	CreatedAt    time.Time `json:"created_at"`
}
