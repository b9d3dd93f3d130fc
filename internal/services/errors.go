package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/attempt-grading-service/internal/grading"
)

// ===== ELIGIBILITY =====

const (
	InProgressAttemptMessage  = "You have an in-progress attempt for this assignment. Submit it before starting a new one."
	RateLimitedMessage        = "You have reached the number of attempts allowed for this time window. Please try again later."
	MaxAttemptsReachedMessage = "You have reached the maximum number of attempts for this assignment."
	DeadlinePassedMessage     = "The time allowed for this attempt has passed."
)

// BusinessRuleError is a request that is well formed but not allowed right now
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]any
}

func NewBusinessRuleError(message, rule string, context map[string]any) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// Is matches on the rule so a wrapped copy with extra context still matches the sentinel
func (e *BusinessRuleError) Is(target error) bool {
	t, ok := target.(*BusinessRuleError)
	return ok && t.Rule == e.Rule
}

var (
	ErrInProgressAttempt  = NewBusinessRuleError(InProgressAttemptMessage, "in_progress_attempt", nil)
	ErrRateLimited        = NewBusinessRuleError(RateLimitedMessage, "rate_limited", nil)
	ErrMaxAttemptsReached = NewBusinessRuleError(MaxAttemptsReachedMessage, "max_attempts_reached", nil)
	ErrDeadlinePassed     = NewBusinessRuleError(DeadlinePassedMessage, "deadline_passed", nil)
)

// ===== NOT FOUND / STATE =====

var (
	ErrAssignmentNotFound      = errors.New("assignment not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrQuestionNotFound        = errors.New("question not found")
	ErrFeedbackNotFound        = errors.New("feedback not found")
	ErrAttemptAlreadySubmitted = errors.New("attempt has already been submitted")
	ErrAttemptNotSubmitted     = errors.New("attempt has not been submitted yet")
	ErrRegradingPending        = errors.New("a regrading request is already pending for this attempt")
)

// ===== PERMISSION =====

type PermissionError struct {
	UserID       string
	ResourceID   uint
	ResourceType string
	Action       string
	Reason       string
}

func NewPermissionError(userID string, resourceID uint, resourceType, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:       userID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Action:       action,
		Reason:       reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Reason)
}

// ===== GRADING =====

// QuestionGradingError is the failure of one question in a submission batch
type QuestionGradingError struct {
	Index      int
	QuestionID uint
	Err        error
}

func (e QuestionGradingError) Error() string {
	return fmt.Sprintf("question %d: %v", e.QuestionID, e.Err)
}

func (e QuestionGradingError) Unwrap() error {
	return e.Err
}

// SubmissionGradingError aggregates every failed question of a batch, in input order
type SubmissionGradingError struct {
	Failures []QuestionGradingError
}

func (e *SubmissionGradingError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("failed to grade %d question(s): %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *SubmissionGradingError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// OnlyValidationFailures reports whether every failure was caused by the learner's input
func (e *SubmissionGradingError) OnlyValidationFailures() bool {
	for _, f := range e.Failures {
		if !grading.IsValidationError(f.Err) {
			return false
		}
	}
	return len(e.Failures) > 0
}

// ===== ERROR HELPERS =====

func IsEligibilityError(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrFeedbackNotFound)
}

func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
