package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).Preload("Variants").First(&question, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var questions []*models.Question
	if err := q.db.WithContext(ctx).Preload("Variants").Where("id IN ?", ids).Order("id ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) GetVariant(ctx context.Context, id uint) (*models.QuestionVariant, error) {
	var variant models.QuestionVariant
	if err := q.db.WithContext(ctx).First(&variant, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get question variant: %w", err)
	}
	return &variant, nil
}

// ===== TRANSLATIONS =====

type TranslationPostgreSQL struct {
	db *gorm.DB
}

func NewTranslationPostgreSQL(db *gorm.DB) repositories.TranslationRepository {
	return &TranslationPostgreSQL{db: db}
}

func (t *TranslationPostgreSQL) ListByQuestions(ctx context.Context, questionIDs []uint) ([]*models.Translation, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var translations []*models.Translation
	err := t.db.WithContext(ctx).
		Where("question_id IN ?", questionIDs).
		Order("question_id ASC, language_code ASC").
		Find(&translations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return translations, nil
}

func (t *TranslationPostgreSQL) ListByQuestionsAndLanguage(ctx context.Context, questionIDs []uint, languageCode string) ([]*models.Translation, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	var translations []*models.Translation
	err := t.db.WithContext(ctx).
		Where("question_id IN ? AND language_code = ?", questionIDs, languageCode).
		Find(&translations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return translations, nil
}
