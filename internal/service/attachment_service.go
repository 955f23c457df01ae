package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/observability"
	"github.com/noah-isme/coachhub-api/internal/repository"
)

// FileStorage abstracts the object store holding submission attachments.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (path string, resourceType string, err error)
	Delete(ctx context.Context, path, resourceType string) error
	SignedURL(ctx context.Context, path, resourceType string) (string, error)
}

// AttachmentService validates, stores and serves submission attachments.
type AttachmentService interface {
	Upload(ctx context.Context, assignmentID, ownerID uint, file *multipart.FileHeader) (dto.AttachmentResponse, error)
	SignedURL(ctx context.Context, fileID uint, viewer ActivityActor) (dto.SignedURLResponse, error)
	Delete(ctx context.Context, fileID, ownerID uint) error
}

type attachmentService struct {
	storage     FileStorage
	files       repository.SubmissionFileRepository
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	maxSize     int64
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewAttachmentService constructs the attachment service. defaultMaxBytes applies to
// assignments without their own max_file_size. storage may be nil, in which case
// every operation reports ErrStorageUnavailable.
func NewAttachmentService(
	storage FileStorage,
	files repository.SubmissionFileRepository,
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	enrollments repository.EnrollmentRepository,
	defaultMaxBytes int64,
	logger zerolog.Logger,
) AttachmentService {
	if defaultMaxBytes <= 0 {
		defaultMaxBytes = 10 << 20
	}
	return &attachmentService{
		storage:     storage,
		files:       files,
		submissions: submissions,
		assignments: assignments,
		enrollments: enrollments,
		maxSize:     defaultMaxBytes,
		logger:      logger.With().Str("component", "attachment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/coachhub-api/internal/service/attachment"),
		now:         time.Now,
	}
}

func (s *attachmentService) Upload(ctx context.Context, assignmentID, ownerID uint, file *multipart.FileHeader) (dto.AttachmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attachment.upload")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("attachment.assignment_id", int64(assignmentID)),
		attribute.Int64("attachment.owner_id", int64(ownerID)),
	)

	reject := func(err error, reason string) (dto.AttachmentResponse, error) {
		if reason != "" {
			observability.UploadRejections().WithLabelValues(reason).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return dto.AttachmentResponse{}, err
	}

	if s.storage == nil {
		return reject(ErrStorageUnavailable, "storage")
	}
	if file == nil {
		return reject(ErrFileRequired, "missing")
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return reject(ErrAssignmentNotFound, "assignment")
		}
		return reject(err, "assignment")
	}
	if assignment.SubmissionType != models.SubmissionTypeFile {
		return reject(ErrUploadNotAccepted, "submission_type")
	}
	enrolled, err := s.enrollments.IsEnrolled(ctx, assignment.ClassID, ownerID)
	if err != nil {
		return reject(err, "enrollment")
	}
	if !enrolled {
		return reject(ErrNotEnrolled, "enrollment")
	}
	if eligibility := lifecycle.CheckDraftEligibility(assignment, s.now()); !eligibility.Allowed {
		return reject(eligibility.Reason, "closed")
	}

	maxSize := s.maxSize
	if assignment.MaxFileSize > 0 {
		maxSize = assignment.MaxFileSize
	}
	span.SetAttributes(
		attribute.Int64("attachment.max_bytes", maxSize),
		attribute.String("attachment.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("attachment.request_size", file.Size),
	)

	if file.Size > maxSize {
		return reject(ErrUploadTooLarge, "size")
	}
	if !extensionAllowed(file.Filename, assignment.AllowedExtensionList()) {
		return reject(ErrUploadExtensionNotAllowed, "extension")
	}

	handle, err := file.Open()
	if err != nil {
		return reject(err, "")
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxSize+1)); err != nil {
		return reject(err, "")
	}
	if int64(buf.Len()) > maxSize {
		return reject(ErrUploadTooLarge, "size")
	}

	mimeType := normalizeMime(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("attachment.detected_mime", mimeType))
	if !isAllowedType(mimeType) {
		return reject(ErrUploadTypeNotAllowed, "type")
	}
	if err := scanArchive(buf.Bytes(), mimeType, maxSize); err != nil {
		return reject(err, "scan")
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename, s.now())

	path, resourceType, err := s.storage.Upload(ctx, sanitizedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return reject(err, "storage")
	}

	record := models.SubmissionFile{
		OwnerID:      ownerID,
		AssignmentID: assignment.ID,
		StoragePath:  path,
		ResourceType: resourceType,
		FileName:     sanitizedName,
		MimeType:     mimeType,
		SizeBytes:    int64(buf.Len()),
		Checksum:     hex.EncodeToString(checksum[:]),
	}
	if err := s.files.Create(ctx, &record); err != nil {
		if deleteErr := s.storage.Delete(ctx, path, resourceType); deleteErr != nil {
			s.logger.Warn().Err(deleteErr).Str("path", path).Msg("failed to remove orphaned upload")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.AttachmentResponse{}, err
	}

	url, err := s.storage.SignedURL(ctx, path, resourceType)
	if err != nil {
		s.logger.Warn().Err(err).Uint("file_id", record.ID).Msg("failed to sign attachment url")
		url = ""
	}

	span.SetStatus(codes.Ok, "stored")
	return dto.NewAttachmentResponse(record, url), nil
}

func (s *attachmentService) SignedURL(ctx context.Context, fileID uint, viewer ActivityActor) (dto.SignedURLResponse, error) {
	if s.storage == nil {
		return dto.SignedURLResponse{}, ErrStorageUnavailable
	}

	file, err := s.load(ctx, fileID)
	if err != nil {
		return dto.SignedURLResponse{}, err
	}
	if !viewer.IsStaff() && file.OwnerID != viewer.ID {
		return dto.SignedURLResponse{}, ErrFileForbidden
	}

	url, err := s.storage.SignedURL(ctx, file.StoragePath, file.ResourceType)
	if err != nil {
		return dto.SignedURLResponse{}, err
	}
	return dto.SignedURLResponse{FileID: file.ID, URL: url}, nil
}

func (s *attachmentService) Delete(ctx context.Context, fileID, ownerID uint) error {
	if s.storage == nil {
		return ErrStorageUnavailable
	}

	file, err := s.load(ctx, fileID)
	if err != nil {
		return err
	}
	if file.OwnerID != ownerID {
		return ErrFileForbidden
	}

	finalized, err := s.submissions.IsFileFinalized(ctx, file.ID)
	if err != nil {
		return err
	}
	if finalized {
		return ErrFileFinalized
	}

	if err := s.storage.Delete(ctx, file.StoragePath, file.ResourceType); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	if err := s.files.Delete(ctx, file.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return err
	}

	s.logger.Info().Uint("file_id", file.ID).Uint("owner_id", ownerID).Msg("attachment deleted")
	return nil
}

func (s *attachmentService) load(ctx context.Context, fileID uint) (models.SubmissionFile, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SubmissionFile{}, ErrFileNotFound
		}
		return models.SubmissionFile{}, err
	}
	return file, nil
}

func scanArchive(payload []byte, mimeType string, maxSize int64) error {
	if mimeType != "application/zip" {
		return nil
	}

	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func extensionAllowed(name string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if candidate == ext {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string, now time.Time) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("attachment-%d", now.Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	switch lower {
	case "application/x-zip-compressed":
		return "application/zip"
	default:
		return lower
	}
}

var allowedMimeTypes = []string{
	"application/pdf",
	"application/zip",
	"text/plain",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func isAllowedType(m string) bool {
	if strings.HasPrefix(m, "image/") {
		return true
	}
	for _, allowed := range allowedMimeTypes {
		if m == allowed {
			return true
		}
	}
	return false
}
