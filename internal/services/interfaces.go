package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
)

// ===== REQUEST DTOs =====

// Use validator request types
type CreateAttemptRequest = validator.CreateAttemptRequest
type SubmitAttemptRequest = validator.SubmitAttemptRequest
type PreviewAttemptRequest = validator.PreviewAttemptRequest
type PreviewQuestionRequest = validator.PreviewQuestionRequest
type FeedbackRequest = validator.FeedbackRequest
type RegradingRequest = validator.RegradingRequest

// ===== LEARNER VIEW DTOs =====

// ChoiceView is a choice as rendered to a caller. Grading fields are pointers
// so they can be removed for learners.
type ChoiceView struct {
	ID        *int     `json:"id,omitempty"`
	Choice    string   `json:"choice"`
	IsCorrect *bool    `json:"isCorrect,omitempty"`
	Points    *float64 `json:"points,omitempty"`
	Feedback  *string  `json:"feedback,omitempty"`
}

type TranslatedQuestionView struct {
	Question string       `json:"question"`
	Choices  []ChoiceView `json:"choices,omitempty"`
}

type QuestionResponseView struct {
	ID              uint                  `json:"id"`
	LearnerResponse any                   `json:"learnerResponse,omitempty"`
	Points          *float64              `json:"points,omitempty"`
	Feedback        []models.FeedbackItem `json:"feedback,omitempty"`
	GradedAt        time.Time             `json:"gradedAt"`
}

type QuestionView struct {
	ID                uint                               `json:"id"`
	VariantID         *uint                              `json:"variantId,omitempty"`
	Question          string                             `json:"question"`
	Type              models.QuestionType                `json:"type"`
	ResponseType      models.ResponseType                `json:"responseType,omitempty"`
	TotalPoints       float64                            `json:"totalPoints"`
	Choices           []ChoiceView                       `json:"choices,omitempty"`
	Scoring           *models.Scoring                    `json:"scoring,omitempty"`
	Answer            *bool                              `json:"answer,omitempty"`
	MaxWords          *int                               `json:"maxWords,omitempty"`
	MaxCharacters     *int                               `json:"maxCharacters,omitempty"`
	RandomizedChoices bool                               `json:"randomizedChoices"`
	Translations      map[string]*TranslatedQuestionView `json:"translations,omitempty"`
	Response          *QuestionResponseView              `json:"response,omitempty"`
}

type AttemptView struct {
	ID                     uint                `json:"id"`
	AssignmentID           uint                `json:"assignmentId"`
	UserID                 string              `json:"userId"`
	State                  models.AttemptState `json:"state"`
	CreatedAt              time.Time           `json:"createdAt"`
	ExpiresAt              *time.Time          `json:"expiresAt"`
	Submitted              bool                `json:"submitted"`
	Grade                  *float64            `json:"grade"`
	PassingGrade           float64             `json:"passingGrade"`
	PreferredLanguage      string              `json:"preferredLanguage"`
	Comments               *string             `json:"comments,omitempty"`
	ShowSubmissionFeedback bool                `json:"showSubmissionFeedback"`
	ShowQuestionScore      bool                `json:"showQuestionScore"`
	Questions              []*QuestionView     `json:"questions,omitempty"`
}

type AttemptSummary struct {
	ID        uint                `json:"id"`
	UserID    string              `json:"userId"`
	State     models.AttemptState `json:"state"`
	CreatedAt time.Time           `json:"createdAt"`
	ExpiresAt *time.Time          `json:"expiresAt"`
	Submitted bool                `json:"submitted"`
	Grade     *float64            `json:"grade"`
}

type AttemptListResponse struct {
	Attempts []*AttemptSummary `json:"attempts"`
	Total    int64             `json:"total"`
}

// ===== GRADING DTOs =====

// GradedQuestion is the outcome of grading one response of a batch
type GradedQuestion struct {
	QuestionID      uint                  `json:"questionId"`
	Question        string                `json:"question"`
	TotalPoints     float64               `json:"totalPoints"`
	Points          float64               `json:"points"`
	Feedback        []models.FeedbackItem `json:"feedback"`
	Metadata        map[string]any        `json:"-"`
	Strategy        string                `json:"-"`
	LearnerResponse models.QuestionAnswer `json:"-"`
}

type QuestionResult struct {
	QuestionID  uint                  `json:"questionId"`
	Question    string                `json:"question"`
	TotalPoints float64               `json:"totalPoints"`
	Points      *float64              `json:"points"`
	Feedback    []models.FeedbackItem `json:"feedback"`
}

type SubmitAttemptResponse struct {
	ID                    uint              `json:"id"`
	Success               bool              `json:"success"`
	Submitted             bool              `json:"submitted"`
	Grade                 *float64          `json:"grade"`
	TotalPointsEarned     *float64          `json:"totalPointsEarned"`
	TotalPossiblePoints   float64           `json:"totalPossiblePoints"`
	FeedbacksForQuestions []*QuestionResult `json:"feedbacksForQuestions"`
	Message               string            `json:"message,omitempty"`
}

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	Create(ctx context.Context, assignmentID uint, req *CreateAttemptRequest, session models.UserSession) (*AttemptView, error)
	Submit(ctx context.Context, assignmentID, attemptID uint, req *SubmitAttemptRequest, session models.UserSession) (*SubmitAttemptResponse, error)
	Preview(ctx context.Context, assignmentID uint, req *PreviewAttemptRequest, session models.UserSession) (*SubmitAttemptResponse, error)
	Get(ctx context.Context, assignmentID, attemptID uint, language string, session models.UserSession) (*AttemptView, error)
	List(ctx context.Context, assignmentID uint, filters repositories.AttemptFilters, session models.UserSession) (*AttemptListResponse, error)

	// Attempt-scoped side channel
	SubmitFeedback(ctx context.Context, assignmentID, attemptID uint, req *FeedbackRequest, session models.UserSession) (*models.AssignmentFeedback, error)
	GetFeedback(ctx context.Context, assignmentID, attemptID uint, session models.UserSession) (*models.AssignmentFeedback, error)
	RequestRegrading(ctx context.Context, assignmentID, attemptID uint, req *RegradingRequest, session models.UserSession) (*models.RegradingRequest, error)
}

type ReportService interface {
	// ExportAttempts renders an xlsx workbook of every attempt of an assignment
	ExportAttempts(ctx context.Context, assignmentID uint, session models.UserSession) ([]byte, error)
}

// ServiceManager manages all services and their lifecycle
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Attempt() AttemptService
	Report() ReportService
	Orchestrator() *QuestionResponseOrchestrator

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
