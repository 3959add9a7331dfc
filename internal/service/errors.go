package service

import "errors"

// Sentinel errors shared across the scoring services. Handlers map these
// onto HTTP statuses: not-found → 404, conflicts → 409, permission and
// precondition failures → 403, the rest → 400.
var (
	ErrPermissionDenied = errors.New("permission denied")

	ErrLessonNotFound   = errors.New("lesson not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrHomeworkNotFound = errors.New("homework not found")
	ErrNoRatingsForDate = errors.New("no ratings found for date")

	ErrHomeworkAlreadyRated = errors.New("homework has already been rated")
	ErrDuplicateRating      = errors.New("a rating already exists for this homework")

	ErrDeadlineNotPassed = errors.New("deadline has not passed yet")
	ErrLessonHasNoGroup  = errors.New("lesson has no group assigned")
	ErrNoTeacherToRate   = errors.New("no teacher found to create ratings")

	ErrSubmissionRequired     = errors.New("a submission url or file reference is required")
	ErrStudentProfileRequired = errors.New("student profile not found for this user")
	ErrTeacherProfileRequired = errors.New("teacher profile not found for this user")
	ErrInvalidMonth           = errors.New("month must be between 1 and 12")
)
