package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coachhub-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID  *uint
	StudentID     *uint
	ClassID       *uint
	IsFinal       *bool
	GradingStatus string
	Page          int
	PageSize      int
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint, assignmentIDs []uint) ([]models.Submission, error)
	ListAttempts(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	FindDraft(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	LatestFinal(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	SaveDraft(ctx context.Context, submission *models.Submission) error
	SaveFinal(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	SaveGrade(ctx context.Context, submission *models.Submission, history *models.SubmissionGradeHistory) error
	AverageFinalScore(ctx context.Context, assignmentID uint) (*float64, error)
	IsFileFinalized(ctx context.Context, fileID uint) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Student").
		Preload("File")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}

	if filter.IsFinal != nil {
		query = query.Where("is_final = ?", *filter.IsFinal)
	}

	if filter.GradingStatus != "" {
		query = query.Where("grading_status = ?", filter.GradingStatus)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query.Preload("Student").Preload("File").Order("submitted_at ASC").Order("id ASC"), filter.Page, filter.PageSize)

	var submissions []models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("student_id ASC").
		Order("attempt_number ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint, assignmentIDs []uint) ([]models.Submission, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND assignment_id IN ?", studentID, assignmentIDs).
		Order("attempt_number ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListAttempts(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Order("attempt_number ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Preload("Assignment").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("graded_at ASC, id ASC")
		}).
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) FindDraft(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ? AND is_final = ?", assignmentID, studentID, false).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) LatestFinal(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ? AND is_final = ?", assignmentID, studentID, true).
		Order("attempt_number DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) SaveDraft(ctx context.Context, submission *models.Submission) error {
	return save(r.db.WithContext(ctx), submission)
}

// SaveFinal writes the submission and bumps the assignment counter in one transaction.
func (r *submissionRepository) SaveFinal(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := save(tx, submission); err != nil {
			return err
		}

		return tx.Model(&models.Assignment{}).
			Where("id = ?", submission.AssignmentID).
			UpdateColumn("total_submissions", gorm.Expr("total_submissions + ?", 1)).Error
	})
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (r *submissionRepository) SaveGrade(ctx context.Context, submission *models.Submission, history *models.SubmissionGradeHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(submission).Error; err != nil {
			return err
		}

		history.SubmissionID = submission.ID
		return tx.Create(history).Error
	})
}

func (r *submissionRepository) AverageFinalScore(ctx context.Context, assignmentID uint) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("AVG(score)").
		Where("assignment_id = ? AND is_final = ? AND score IS NOT NULL", assignmentID, true).
		Scan(&avg).Error; err != nil {
		return nil, err
	}

	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *submissionRepository) IsFileFinalized(ctx context.Context, fileID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("submission_file_id = ? AND is_final = ?", fileID, true).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func save(db *gorm.DB, submission *models.Submission) error {
	if submission.ID == 0 {
		return db.Omit(clause.Associations).Create(submission).Error
	}
	return db.Omit(clause.Associations).Save(submission).Error
}
