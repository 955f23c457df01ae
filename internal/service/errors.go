package service

import "errors"

var (
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrAssignmentForbidden indicates the actor does not own the assignment.
	ErrAssignmentForbidden = errors.New("assignment belongs to another teacher")
	// ErrInvalidRubric indicates the rubric definition failed schema or consistency checks.
	ErrInvalidRubric = errors.New("invalid rubric")
	// ErrInvalidDate indicates a timestamp could not be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionForbidden indicates the caller does not own the submission.
	ErrSubmissionForbidden = errors.New("submission belongs to another student")
	// ErrFinalSubmissionExists indicates a concurrent write already claimed the attempt.
	ErrFinalSubmissionExists = errors.New("submission already exists for this attempt")
	// ErrDraftConflict indicates a concurrent draft save created the student's draft first.
	ErrDraftConflict = errors.New("draft was saved concurrently, retry")
	// ErrNotEnrolled indicates the student is not an active member of the class.
	ErrNotEnrolled = errors.New("student is not enrolled in this class")
	// ErrClassMismatch indicates the payload class differs from the assignment class.
	ErrClassMismatch = errors.New("assignment does not belong to this class")
	// ErrTextRequired indicates a final text submission without text.
	ErrTextRequired = errors.New("submission text is required")
	// ErrFileRequired indicates a final file submission without an attachment.
	ErrFileRequired = errors.New("submission file is required")
	// ErrRegradeNotAllowed indicates the submission has no manual grade to dispute.
	ErrRegradeNotAllowed = errors.New("regrade can only be requested for manually graded submissions")
	// ErrRegradeReasonEmpty indicates the reason was empty once markup was stripped.
	ErrRegradeReasonEmpty = errors.New("regrade reason is empty")

	// ErrNotFinal indicates an attempt to grade a draft.
	ErrNotFinal = errors.New("only final submissions can be graded")
	// ErrNotGraded indicates an attempt to update a grade that was never given.
	ErrNotGraded = errors.New("submission has not been graded")
	// ErrScoreExceedsMax indicates a grading score surpasses the assignment max.
	ErrScoreExceedsMax = errors.New("score exceeds assignment max")
	// ErrInvalidRubricScore indicates a rubric score references an unknown criterion or exceeds its points.
	ErrInvalidRubricScore = errors.New("invalid rubric score")
	// ErrEmptyGradeUpdate indicates an update-grade call without any field.
	ErrEmptyGradeUpdate = errors.New("no grade fields to update")

	// ErrFileNotFound indicates the attachment does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileForbidden indicates the attachment belongs to someone else or another assignment.
	ErrFileForbidden = errors.New("file does not belong to this student and assignment")
	// ErrFileFinalized indicates the attachment is referenced by a final submission.
	ErrFileFinalized = errors.New("file is attached to a final submission")
	// ErrUploadNotAccepted indicates the assignment does not take file submissions.
	ErrUploadNotAccepted = errors.New("assignment does not accept file uploads")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadExtensionNotAllowed indicates the extension is missing from the assignment allow-list.
	ErrUploadExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrUploadScanFailed indicates validation of the file contents failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrStorageUnavailable indicates no object storage is configured.
	ErrStorageUnavailable = errors.New("file storage is not configured")

	// ErrCoachingCenterNotFound indicates the listing does not exist.
	ErrCoachingCenterNotFound = errors.New("coaching center not found")
)
