package validator

import (
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// CreateAttemptRequest starts a new attempt
type CreateAttemptRequest struct {
	PreferredLanguage string `json:"preferredLanguage" validate:"omitempty,language_code"`
}

// SubmitAttemptRequest carries every answer of an attempt
type SubmitAttemptRequest struct {
	Language              string                  `json:"language" validate:"omitempty,language_code"`
	ResponsesForQuestions []models.QuestionAnswer `json:"responsesForQuestions" validate:"omitempty,dive"`
}

// PreviewQuestionRequest is an author-supplied question graded without being stored
type PreviewQuestionRequest struct {
	ID                        uint                 `json:"id" validate:"required"`
	Question                  string               `json:"question" validate:"required"`
	Type                      models.QuestionType  `json:"type" validate:"required,question_type"`
	ResponseType              *models.ResponseType `json:"responseType" validate:"omitempty,response_type"`
	TotalPoints               float64              `json:"totalPoints" validate:"min=0"`
	Choices                   []models.Choice      `json:"choices"`
	Scoring                   models.Scoring       `json:"scoring"`
	Answer                    *bool                `json:"answer"`
	MaxWords                  *int                 `json:"maxWords" validate:"omitempty,min=1"`
	MaxCharacters             *int                 `json:"maxCharacters" validate:"omitempty,min=1"`
	GradingContextQuestionIDs []uint               `json:"gradingContextQuestionIds"`
}

// PreviewAttemptRequest grades author-supplied questions
type PreviewAttemptRequest struct {
	Language              string                   `json:"language" validate:"omitempty,language_code"`
	Questions             []PreviewQuestionRequest `json:"questions" validate:"required,min=1,dive"`
	ResponsesForQuestions []models.QuestionAnswer  `json:"responsesForQuestions" validate:"omitempty,dive"`
}

// FeedbackRequest is the learner's feedback on a submitted attempt
type FeedbackRequest struct {
	Comments         *string `json:"comments" validate:"omitempty,max=2000"`
	AIGradingRating  *int    `json:"aiGradingRating" validate:"omitempty,min=1,max=5"`
	AssignmentRating *int    `json:"assignmentRating" validate:"omitempty,min=1,max=5"`
	AllowContact     bool    `json:"allowContact"`
}

// RegradingRequest asks an author to review an attempt's grade
type RegradingRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=2000"`
}
