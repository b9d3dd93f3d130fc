package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// ===== FILTERS =====

type AttemptFilters struct {
	UserID    *string    `json:"user_id"`
	Submitted *bool      `json:"submitted"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "grade"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ===== ATTEMPT DOMAIN =====

type AttemptRepository interface {
	// Create inserts the attempt row only; bindings go through AttemptVariantRepository.
	Create(ctx context.Context, attempt *models.AssignmentAttempt) error
	// GetByID loads the attempt with its variant bindings.
	GetByID(ctx context.Context, id uint) (*models.AssignmentAttempt, error)
	// MarkSubmitted persists Submitted, Grade and Comments.
	MarkSubmitted(ctx context.Context, attempt *models.AssignmentAttempt) error

	ListByUserAndAssignment(ctx context.Context, userID string, assignmentID uint) ([]*models.AssignmentAttempt, error)
	ListByAssignment(ctx context.Context, assignmentID uint, filters AttemptFilters) ([]*models.AssignmentAttempt, int64, error)

	// BestGrade returns the highest grade among submitted attempts, or nil.
	BestGrade(ctx context.Context, userID string, assignmentID uint) (*float64, error)

	// LockUserAssignment serializes attempt creation for one (user, assignment)
	// until the surrounding transaction ends. It must be called inside WithTransaction.
	LockUserAssignment(ctx context.Context, userID string, assignmentID uint) error
}

type AttemptVariantRepository interface {
	CreateBatch(ctx context.Context, bindings []*models.AssignmentAttemptQuestionVariant) error
	ListByAttempt(ctx context.Context, attemptID uint) ([]*models.AssignmentAttemptQuestionVariant, error)
}

type QuestionResponseRepository interface {
	CreateBatch(ctx context.Context, responses []*models.QuestionResponse) error
	// ListByAttempt returns the latest response per question.
	ListByAttempt(ctx context.Context, attemptID uint) ([]*models.QuestionResponse, error)
	ListByAttempts(ctx context.Context, attemptIDs []uint) ([]*models.QuestionResponse, error)
}

type GradingAuditRepository interface {
	Create(ctx context.Context, audit *models.GradingAudit) error
}

// ===== SIDE CHANNEL =====

type FeedbackRepository interface {
	// Upsert creates or replaces the feedback of an attempt.
	Upsert(ctx context.Context, feedback *models.AssignmentFeedback) error
	GetByAttempt(ctx context.Context, attemptID uint) (*models.AssignmentFeedback, error)
}

type RegradingRepository interface {
	Create(ctx context.Context, request *models.RegradingRequest) error
	GetPendingByAttempt(ctx context.Context, attemptID uint) (*models.RegradingRequest, error)
}
