package dto

import (
	"time"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// AttachmentLite describes an uploaded file inside other payloads.
type AttachmentLite struct {
	ID        uint   `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// AttachmentResponse is returned after an upload.
type AttachmentResponse struct {
	AttachmentLite
	AssignmentID uint      `json:"assignment_id"`
	StoragePath  string    `json:"storage_path"`
	Checksum     string    `json:"checksum"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignedURLResponse carries a short-lived retrieval URL.
type SignedURLResponse struct {
	FileID uint   `json:"file_id"`
	URL    string `json:"url"`
}

// NewAttachmentLite converts the metadata record.
func NewAttachmentLite(model models.SubmissionFile) AttachmentLite {
	return AttachmentLite{
		ID:        model.ID,
		FileName:  model.FileName,
		MimeType:  model.MimeType,
		SizeBytes: model.SizeBytes,
	}
}

// NewAttachmentResponse converts the metadata record and attaches a retrieval URL.
func NewAttachmentResponse(model models.SubmissionFile, url string) AttachmentResponse {
	return AttachmentResponse{
		AttachmentLite: NewAttachmentLite(model),
		AssignmentID:   model.AssignmentID,
		StoragePath:    model.StoragePath,
		Checksum:       model.Checksum,
		URL:            url,
		CreatedAt:      model.CreatedAt,
	}
}
