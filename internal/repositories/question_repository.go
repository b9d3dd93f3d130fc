package repositories

import (
	"context"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

type AssignmentRepository interface {
	// GetByID loads the assignment with its questions and their variants,
	// soft-deleted ones included.
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
}

type QuestionRepository interface {
	// GetByID loads the question with its variants.
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error)
	GetVariant(ctx context.Context, id uint) (*models.QuestionVariant, error)
}

type TranslationRepository interface {
	// ListByQuestions returns every language's translations for the questions
	// and their variants.
	ListByQuestions(ctx context.Context, questionIDs []uint) ([]*models.Translation, error)
	ListByQuestionsAndLanguage(ctx context.Context, questionIDs []uint, languageCode string) ([]*models.Translation, error)
}
