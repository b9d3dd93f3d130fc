package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

type FeedbackPostgreSQL struct {
	db *gorm.DB
}

func NewFeedbackPostgreSQL(db *gorm.DB) repositories.FeedbackRepository {
	return &FeedbackPostgreSQL{db: db}
}

func (f *FeedbackPostgreSQL) Upsert(ctx context.Context, feedback *models.AssignmentFeedback) error {
	err := f.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "assignment_attempt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"comments", "ai_grading_rating", "assignment_rating", "allow_contact", "updated_at",
		}),
	}).Create(feedback).Error
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

func (f *FeedbackPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) (*models.AssignmentFeedback, error) {
	var feedback models.AssignmentFeedback
	if err := f.db.WithContext(ctx).Where("assignment_attempt_id = ?", attemptID).First(&feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &feedback, nil
}

type RegradingPostgreSQL struct {
	db *gorm.DB
}

func NewRegradingPostgreSQL(db *gorm.DB) repositories.RegradingRepository {
	return &RegradingPostgreSQL{db: db}
}

func (r *RegradingPostgreSQL) Create(ctx context.Context, request *models.RegradingRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("failed to create regrading request: %w", err)
	}
	return nil
}

func (r *RegradingPostgreSQL) GetPendingByAttempt(ctx context.Context, attemptID uint) (*models.RegradingRequest, error) {
	var request models.RegradingRequest
	err := r.db.WithContext(ctx).
		Where("assignment_attempt_id = ? AND status = ?", attemptID, models.RegradingPending).
		Order("created_at DESC").
		First(&request).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get regrading request: %w", err)
	}
	return &request, nil
}
