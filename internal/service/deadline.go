package service

import (
	"time"

	"github.com/edutrack/edutrack-api/internal/models"
)

// SubmissionOutcome classifies one (student, lesson) pair for scoring.
type SubmissionOutcome int

const (
	// OutcomeCounted means a homework record exists; its actual rating (or
	// absence of one) is what counts.
	OutcomeCounted SubmissionOutcome = iota
	// OutcomeNotDueYet means no record exists and the deadline has not
	// passed. Excluded from scoring and from missed counts.
	OutcomeNotDueYet
	// OutcomeMissed means no record exists and the deadline has passed.
	// Scored as a synthetic zero.
	OutcomeMissed
)

// ClassifySubmission applies the deadline decision table for one student on
// one lesson. The same predicate backs the submission stats view, the
// auto-rate action and the monthly calculator.
func ClassifySubmission(lesson models.Lesson, hasHomework bool, now time.Time) SubmissionOutcome {
	if hasHomework {
		return OutcomeCounted
	}
	if lesson.IsDeadlinePassed(now) {
		return OutcomeMissed
	}
	return OutcomeNotDueYet
}

// IsLessonCountable reports whether a lesson enters the monthly average
// denominator. Unlike ClassifySubmission this is evaluated per lesson, not
// per student: a lesson counts once its deadline passed or once any of its
// homeworks has been rated.
func IsLessonCountable(lesson models.Lesson, hasRatedHomework bool, now time.Time) bool {
	return lesson.IsDeadlinePassed(now) || hasRatedHomework
}

// DateOnly truncates a time to its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}
