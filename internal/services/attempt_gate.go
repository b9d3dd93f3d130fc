package services

import (
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

const (
	// ExpiryGrace is how long past expiresAt an attempt still counts as live.
	ExpiryGrace = 10 * time.Second
	// SubmissionGrace is how long past expiresAt a submission is still graded.
	SubmissionGrace = 30 * time.Second
)

// ValidateNewAttempt decides whether a user may start another attempt.
// Checks run in a fixed order and the first failure wins.
func ValidateNewAttempt(assignment *models.Assignment, attempts []*models.AssignmentAttempt, now time.Time) error {
	for _, a := range attempts {
		if !a.Submitted && !IsAttemptExpired(a.ExpiresAt, now) {
			return ErrInProgressAttempt
		}
	}

	if assignment.AttemptsPerTimeRange != nil {
		windowStart := now
		if assignment.AttemptsTimeRangeHours != nil {
			windowStart = now.Add(-time.Duration(*assignment.AttemptsTimeRangeHours) * time.Hour)
		}
		recent := 0
		for _, a := range attempts {
			if !a.CreatedAt.Before(windowStart) {
				recent++
			}
		}
		if recent >= *assignment.AttemptsPerTimeRange {
			return ErrRateLimited
		}
	}

	if assignment.NumAttempts != models.UnlimitedAttempts && len(attempts) >= assignment.NumAttempts {
		return ErrMaxAttemptsReached
	}
	return nil
}

// IsAttemptExpired is true once now is more than ExpiryGrace past expiresAt.
// A nil expiry never expires.
func IsAttemptExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return now.Add(-ExpiryGrace).After(*expiresAt)
}

// CheckSubmissionDeadline returns ErrDeadlinePassed once now is more than
// SubmissionGrace past expiresAt.
func CheckSubmissionDeadline(expiresAt *time.Time, now time.Time) error {
	if expiresAt != nil && now.Add(-SubmissionGrace).After(*expiresAt) {
		return ErrDeadlinePassed
	}
	return nil
}

// AttemptState derives the lifecycle state of an attempt.
func AttemptState(a *models.AssignmentAttempt, now time.Time) models.AttemptState {
	switch {
	case a.Submitted:
		return models.AttemptSubmitted
	case IsAttemptExpired(a.ExpiresAt, now):
		return models.AttemptExpired
	default:
		return models.AttemptCreated
	}
}
