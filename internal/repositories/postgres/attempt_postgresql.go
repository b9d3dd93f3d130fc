package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.AssignmentAttempt) error {
	if err := a.db.WithContext(ctx).Omit("QuestionVariants", "QuestionResponses").Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AssignmentAttempt, error) {
	var attempt models.AssignmentAttempt
	if err := a.db.WithContext(ctx).Preload("QuestionVariants").First(&attempt, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) MarkSubmitted(ctx context.Context, attempt *models.AssignmentAttempt) error {
	result := a.db.WithContext(ctx).
		Model(&models.AssignmentAttempt{}).
		Where("id = ? AND submitted = ?", attempt.ID, false).
		Updates(map[string]any{
			"submitted": true,
			"grade":     attempt.Grade,
			"comments":  attempt.Comments,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("attempt %d is already submitted: %w", attempt.ID, repositories.ErrStaleUpdate)
	}
	attempt.Submitted = true
	return nil
}

func (a *AttemptPostgreSQL) ListByUserAndAssignment(ctx context.Context, userID string, assignmentID uint) ([]*models.AssignmentAttempt, error) {
	var attempts []*models.AssignmentAttempt
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND assignment_id = ?", userID, assignmentID).
		Order("created_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) ListByAssignment(ctx context.Context, assignmentID uint, filters repositories.AttemptFilters) ([]*models.AssignmentAttempt, int64, error) {
	var attempts []*models.AssignmentAttempt
	var total int64

	// apply filter first
	query := a.db.WithContext(ctx).Model(&models.AssignmentAttempt{}).Where("assignment_id = ?", assignmentID)
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	// then apply pagination and sorting
	query = applyAttemptPaginationAndSort(query, filters)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) BestGrade(ctx context.Context, userID string, assignmentID uint) (*float64, error) {
	var best *float64
	err := a.db.WithContext(ctx).
		Model(&models.AssignmentAttempt{}).
		Select("MAX(grade)").
		Where("user_id = ? AND assignment_id = ? AND submitted = ?", userID, assignmentID, true).
		Scan(&best).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get best grade: %w", err)
	}
	return best, nil
}

func (a *AttemptPostgreSQL) LockUserAssignment(ctx context.Context, userID string, assignmentID uint) error {
	k1, k2 := advisoryLockKeys(assignmentID, userID)
	if err := a.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?, ?)", k1, k2).Error; err != nil {
		return fmt.Errorf("failed to lock attempts for user: %w", err)
	}
	return nil
}

// ===== VARIANT BINDINGS =====

type AttemptVariantPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptVariantPostgreSQL(db *gorm.DB) repositories.AttemptVariantRepository {
	return &AttemptVariantPostgreSQL{db: db}
}

func (v *AttemptVariantPostgreSQL) CreateBatch(ctx context.Context, bindings []*models.AssignmentAttemptQuestionVariant) error {
	if len(bindings) == 0 {
		return nil
	}
	if err := v.db.WithContext(ctx).CreateInBatches(bindings, 100).Error; err != nil {
		return fmt.Errorf("failed to create variant bindings: %w", err)
	}
	return nil
}

func (v *AttemptVariantPostgreSQL) ListByAttempt(ctx context.Context, attemptID uint) ([]*models.AssignmentAttemptQuestionVariant, error) {
	var bindings []*models.AssignmentAttemptQuestionVariant
	if err := v.db.WithContext(ctx).Where("assignment_attempt_id = ?", attemptID).Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("failed to list variant bindings: %w", err)
	}
	return bindings, nil
}

// ===== QUESTION RESPONSES =====

type QuestionResponsePostgreSQL struct {
	db *gorm.DB
}

func NewQuestionResponsePostgreSQL(db *gorm.DB) repositories.QuestionResponseRepository {
	return &QuestionResponsePostgreSQL{db: db}
}

func (r *QuestionResponsePostgreSQL) CreateBatch(ctx context.Context, responses []*models.QuestionResponse) error {
	if len(responses) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(responses, 100).Error; err != nil {
		return fmt.Errorf("failed to create question responses: %w", err)
	}
	return nil
}

func (r *QuestionResponsePostgreSQL) ListByAttempt(ctx context.Context, attemptID uint) ([]*models.QuestionResponse, error) {
	var responses []*models.QuestionResponse
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (question_id) * FROM question_responses
			WHERE assignment_attempt_id = ?
			ORDER BY question_id, graded_at DESC, id DESC`, attemptID).
		Scan(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list question responses: %w", err)
	}
	return responses, nil
}

func (r *QuestionResponsePostgreSQL) ListByAttempts(ctx context.Context, attemptIDs []uint) ([]*models.QuestionResponse, error) {
	if len(attemptIDs) == 0 {
		return nil, nil
	}
	var responses []*models.QuestionResponse
	err := r.db.WithContext(ctx).
		Where("assignment_attempt_id IN ?", attemptIDs).
		Order("assignment_attempt_id ASC, question_id ASC, graded_at ASC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list question responses: %w", err)
	}
	return responses, nil
}

// ===== GRADING AUDIT =====

type GradingAuditPostgreSQL struct {
	db *gorm.DB
}

func NewGradingAuditPostgreSQL(db *gorm.DB) repositories.GradingAuditRepository {
	return &GradingAuditPostgreSQL{db: db}
}

func (g *GradingAuditPostgreSQL) Create(ctx context.Context, audit *models.GradingAudit) error {
	if err := g.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to create grading audit: %w", err)
	}
	return nil
}
