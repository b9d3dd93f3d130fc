package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every repository. Sub-repositories obtained from the
// Repository passed to a WithTransaction callback run inside that transaction.
type Repository interface {
	// Assignment domain (read-only here, authored elsewhere)
	Assignment() AssignmentRepository
	Question() QuestionRepository
	Translation() TranslationRepository

	// Attempt domain
	Attempt() AttemptRepository
	AttemptVariant() AttemptVariantRepository
	QuestionResponse() QuestionResponseRepository
	GradingAudit() GradingAuditRepository

	// Side channel
	Feedback() FeedbackRepository
	Regrading() RegradingRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// ErrNotFound is returned by in-memory implementations; gorm implementations
// return gorm.ErrRecordNotFound. IsNotFoundError accepts both.
var ErrNotFound = errors.New("record not found")

// ErrStaleUpdate is returned when a conditional update matched no row.
var ErrStaleUpdate = errors.New("record was modified concurrently")

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
