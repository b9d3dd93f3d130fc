package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse marks a response whose shape does not fit the question.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrInvalidTrueFalse marks a true/false answer that is not a recognised token.
	ErrInvalidTrueFalse = errors.New("invalid true/false answer")

	// ErrUndefinedQuestionType is a programming error: a question reached the
	// dispatcher with a type it has no strategy for.
	ErrUndefinedQuestionType = errors.New("undefined question type")

	// ErrLinkFileDeferred is returned by Dispatch for LINK_FILE questions whose
	// strategy depends on the submitted payload.
	ErrLinkFileDeferred = errors.New("link file questions are dispatched on the response payload")

	// ErrOracleUnavailable is returned when a strategy needs the oracle and none is configured.
	ErrOracleUnavailable = errors.New("grading oracle is not configured")
)

// ExceededLimitError reports a text response over its word or character limit.
type ExceededLimitError struct {
	Unit   string // "words" or "characters"
	Limit  int
	Actual int
}

func (e *ExceededLimitError) Error() string {
	return fmt.Sprintf("response exceeds the limit of %d %s (got %d)", e.Limit, e.Unit, e.Actual)
}

func (e *ExceededLimitError) Is(target error) bool {
	return target == ErrInvalidResponse
}

func invalidResponse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, fmt.Sprintf(format, args...))
}

// IsValidationError reports whether err is a learner input problem rather
// than a grading failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidResponse) || errors.Is(err, ErrInvalidTrueFalse)
}
