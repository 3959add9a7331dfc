package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHomeworkStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    HomeworkStatus
		to      HomeworkStatus
		allowed bool
	}{
		{"pending to submitted", HomeworkStatusPending, HomeworkStatusSubmitted, true},
		{"pending to rated", HomeworkStatusPending, HomeworkStatusRated, true},
		{"submitted to submitted", HomeworkStatusSubmitted, HomeworkStatusSubmitted, true},
		{"submitted to rated", HomeworkStatusSubmitted, HomeworkStatusRated, true},
		{"rated to submitted", HomeworkStatusRated, HomeworkStatusSubmitted, false},
		{"rated to rated", HomeworkStatusRated, HomeworkStatusRated, false},
		{"rated to pending", HomeworkStatusRated, HomeworkStatusPending, false},
		{"submitted to pending", HomeworkStatusSubmitted, HomeworkStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestHomeworkStatusValid(t *testing.T) {
	require.True(t, HomeworkStatusPending.Valid())
	require.True(t, HomeworkStatusSubmitted.Valid())
	require.True(t, HomeworkStatusRated.Valid())
	require.False(t, HomeworkStatus("GRADED").Valid())
	require.False(t, HomeworkStatus("").Valid())
}

func TestHomeworkHasSubmission(t *testing.T) {
	require.False(t, Homework{}.HasSubmission())
	require.True(t, Homework{SubmissionURL: "https://example.com/hw.pdf"}.HasSubmission())
	require.True(t, Homework{SubmissionRef: "uploads/hw.pdf"}.HasSubmission())
}
