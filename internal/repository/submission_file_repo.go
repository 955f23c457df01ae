package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// SubmissionFileRepository persists metadata about uploaded attachments.
type SubmissionFileRepository interface {
	Create(ctx context.Context, file *models.SubmissionFile) error
	GetByID(ctx context.Context, id uint) (models.SubmissionFile, error)
	Delete(ctx context.Context, id uint) error
}

type submissionFileRepository struct {
	db *gorm.DB
}

// NewSubmissionFileRepository constructs a repository for attachment records.
func NewSubmissionFileRepository(db *gorm.DB) SubmissionFileRepository {
	return &submissionFileRepository{db: db}
}

func (r *submissionFileRepository) Create(ctx context.Context, file *models.SubmissionFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *submissionFileRepository) GetByID(ctx context.Context, id uint) (models.SubmissionFile, error) {
	var file models.SubmissionFile
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return models.SubmissionFile{}, err
	}
	return file, nil
}

// Delete removes the record and detaches it from any draft still pointing at it.
func (r *submissionFileRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("submission_file_id = ?", id).
			UpdateColumn("submission_file_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.SubmissionFile{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
