package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/lifecycle"
	"github.com/noah-isme/coachhub-api/internal/models"
)

type memoryStorage struct {
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) Upload(_ context.Context, name string, reader io.Reader) (string, string, error) {
	if m.uploadErr != nil {
		return "", "", m.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", "", err
	}
	path := "coachhub/submissions/" + name
	m.objects[path] = data
	return path, "raw", nil
}

func (m *memoryStorage) Delete(_ context.Context, path, _ string) error {
	delete(m.objects, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memoryStorage) SignedURL(_ context.Context, path, _ string) (string, error) {
	return "https://files.example.com/" + path + "?sig=test", nil
}

func newTestAttachmentService(f *fixture, storage FileStorage) *attachmentService {
	svc := NewAttachmentService(storage, f.files, f.submissions, f.assignments, f.enrollments, 1<<20, testLogger()).(*attachmentService)
	svc.now = (&clock{now: baseTime.Add(-time.Hour)}).Now
	return svc
}

func newTestFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))
	files := req.MultipartForm.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func fileAssignment(extensions ...string) func(*models.Assignment) {
	return func(a *models.Assignment) {
		a.SubmissionType = models.SubmissionTypeFile
		a.MaxFileSize = 4096
		a.SetAllowedExtensions(extensions)
	}
}

var pdfPayload = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestAttachmentUploadStoresMetadata(t *testing.T) {
	f := newFixture(t)
	storage := newMemoryStorage()
	svc := newTestAttachmentService(f, storage)
	assignment := f.seedAssignment(t, fileAssignment("pdf", "txt"))
	student := f.seedStudent(t, "Ana")

	response, err := svc.Upload(context.Background(), assignment.ID, student.ID, newTestFileHeader(t, "My Report (final).PDF", pdfPayload))
	require.NoError(t, err)
	require.Equal(t, "my-report--final.pdf", response.FileName)
	require.Equal(t, "application/pdf", response.MimeType)
	require.EqualValues(t, len(pdfPayload), response.SizeBytes)
	require.Len(t, response.Checksum, 64)
	require.Contains(t, response.URL, "sig=test")
	require.Contains(t, storage.objects, response.StoragePath)

	stored, err := f.files.GetByID(context.Background(), response.ID)
	require.NoError(t, err)
	require.Equal(t, student.ID, stored.OwnerID)
	require.Equal(t, assignment.ID, stored.AssignmentID)
}

func TestAttachmentUploadRejections(t *testing.T) {
	f := newFixture(t)
	svc := newTestAttachmentService(f, newMemoryStorage())
	ctx := context.Background()
	student := f.seedStudent(t, "Ben")
	outsider := models.Student{Name: "Out", Email: "out@example.com"}
	require.NoError(t, f.db.Create(&outsider).Error)

	files := f.seedAssignment(t, fileAssignment("pdf", "zip", "exe"))
	text := f.seedAssignment(t, nil)
	closeDate := baseTime.Add(-2 * time.Hour)
	closed := f.seedAssignment(t, func(a *models.Assignment) {
		fileAssignment()(a)
		a.DueDate = baseTime.Add(-3 * time.Hour)
		a.CloseDate = &closeDate
	})

	var bomb bytes.Buffer
	archive := zip.NewWriter(&bomb)
	entry, err := archive.Create("zeros.txt")
	require.NoError(t, err)
	_, err = entry.Write(make([]byte, 200_000))
	require.NoError(t, err)
	require.NoError(t, archive.Close())

	tests := []struct {
		name         string
		assignmentID uint
		ownerID      uint
		fileName     string
		content      []byte
		wantErr      error
	}{
		{name: "missing assignment", assignmentID: files.ID + 100, ownerID: student.ID, fileName: "a.pdf", content: pdfPayload, wantErr: ErrAssignmentNotFound},
		{name: "text assignment", assignmentID: text.ID, ownerID: student.ID, fileName: "a.pdf", content: pdfPayload, wantErr: ErrUploadNotAccepted},
		{name: "not enrolled", assignmentID: files.ID, ownerID: outsider.ID, fileName: "a.pdf", content: pdfPayload, wantErr: ErrNotEnrolled},
		{name: "closed", assignmentID: closed.ID, ownerID: student.ID, fileName: "a.pdf", content: pdfPayload, wantErr: lifecycle.ErrSubmissionClosed},
		{name: "too large", assignmentID: files.ID, ownerID: student.ID, fileName: "a.pdf", content: append([]byte("%PDF-1.4\n"), make([]byte, 5000)...), wantErr: ErrUploadTooLarge},
		{name: "extension", assignmentID: files.ID, ownerID: student.ID, fileName: "a.txt", content: []byte("plain notes"), wantErr: ErrUploadExtensionNotAllowed},
		{name: "executable", assignmentID: files.ID, ownerID: student.ID, fileName: "a.exe", content: append([]byte("MZ\x90\x00\x03\x00\x00\x00"), make([]byte, 120)...), wantErr: ErrUploadTypeNotAllowed},
		{name: "zip bomb", assignmentID: files.ID, ownerID: student.ID, fileName: "a.zip", content: bomb.Bytes(), wantErr: ErrUploadScanFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tc.assignmentID, tc.ownerID, newTestFileHeader(t, tc.fileName, tc.content))
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err = svc.Upload(ctx, files.ID, student.ID, nil)
	require.ErrorIs(t, err, ErrFileRequired)
}

func TestAttachmentUploadWithoutStorage(t *testing.T) {
	f := newFixture(t)
	svc := newTestAttachmentService(f, nil)
	ctx := context.Background()

	_, err := svc.Upload(ctx, 1, 1, newTestFileHeader(t, "a.pdf", pdfPayload))
	require.ErrorIs(t, err, ErrStorageUnavailable)
	_, err = svc.SignedURL(ctx, 1, teacher)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	require.ErrorIs(t, svc.Delete(ctx, 1, 1), ErrStorageUnavailable)
}

func TestAttachmentUploadSurfacesStorageFailure(t *testing.T) {
	f := newFixture(t)
	storage := newMemoryStorage()
	storage.uploadErr = errors.New("bucket offline")
	svc := newTestAttachmentService(f, storage)
	assignment := f.seedAssignment(t, fileAssignment())
	student := f.seedStudent(t, "Cai")

	_, err := svc.Upload(context.Background(), assignment.ID, student.ID, newTestFileHeader(t, "a.pdf", pdfPayload))
	require.EqualError(t, err, "bucket offline")

	var count int64
	require.NoError(t, f.db.Model(&models.SubmissionFile{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAttachmentSignedURLAndDelete(t *testing.T) {
	f := newFixture(t)
	storage := newMemoryStorage()
	svc := newTestAttachmentService(f, storage)
	ctx := context.Background()
	assignment := f.seedAssignment(t, fileAssignment())
	owner := f.seedStudent(t, "Dee")
	other := f.seedStudent(t, "Eli")

	uploaded, err := svc.Upload(ctx, assignment.ID, owner.ID, newTestFileHeader(t, "notes.txt", []byte("my working notes")))
	require.NoError(t, err)
	require.Equal(t, "text/plain", uploaded.MimeType)

	signed, err := svc.SignedURL(ctx, uploaded.ID, ActivityActor{ID: owner.ID, Role: "student"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed.URL, "https://files.example.com/"))

	_, err = svc.SignedURL(ctx, uploaded.ID, ActivityActor{ID: other.ID, Role: "student"})
	require.ErrorIs(t, err, ErrFileForbidden)
	_, err = svc.SignedURL(ctx, uploaded.ID, teacher)
	require.NoError(t, err)
	_, err = svc.SignedURL(ctx, uploaded.ID+9, teacher)
	require.ErrorIs(t, err, ErrFileNotFound)

	require.ErrorIs(t, svc.Delete(ctx, uploaded.ID, other.ID), ErrFileForbidden)
	require.NoError(t, svc.Delete(ctx, uploaded.ID, owner.ID))
	require.Equal(t, []string{uploaded.StoragePath}, storage.deleted)
	_, err = f.files.GetByID(ctx, uploaded.ID)
	require.Error(t, err)
}

func TestAttachmentDeleteRejectsFinalizedFile(t *testing.T) {
	f := newFixture(t)
	svc := newTestAttachmentService(f, newMemoryStorage())
	ctx := context.Background()
	assignment := f.seedAssignment(t, fileAssignment())
	owner := f.seedStudent(t, "Fay")

	uploaded, err := svc.Upload(ctx, assignment.ID, owner.ID, newTestFileHeader(t, "report.pdf", pdfPayload))
	require.NoError(t, err)
	seedSubmission(t, f, assignment, owner, func(s *models.Submission) {
		s.SubmissionFileID = ptrUint(uploaded.ID)
	})

	require.ErrorIs(t, svc.Delete(ctx, uploaded.ID, owner.ID), ErrFileFinalized)
}

func TestSanitizeFileName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	require.Equal(t, "essay-v2.docx", sanitizeFileName("Essay v2.DOCX", now))
	require.Equal(t, "attachment-1700000000.pdf", sanitizeFileName("???.pdf", now))
	require.Equal(t, "notes.bin", sanitizeFileName("notes", now))
}
