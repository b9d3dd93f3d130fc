package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptState string

const (
	AttemptCreated   AttemptState = "CREATED"
	AttemptExpired   AttemptState = "EXPIRED"
	AttemptSubmitted AttemptState = "SUBMITTED"
)

// PreviewAttemptID marks an author preview submission that is never persisted.
const PreviewAttemptID uint = 0

type AssignmentAttempt struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	AssignmentID uint       `json:"assignment_id" gorm:"not null;index:idx_attempt_user_assignment"`
	UserID       string     `json:"user_id" gorm:"not null;size:255;index:idx_attempt_user_assignment"`
	CreatedAt    time.Time  `json:"created_at" gorm:"index"`
	ExpiresAt    *time.Time `json:"expires_at"` // nil means no time limit
	Submitted    bool       `json:"submitted" gorm:"not null;default:false"`
	Grade        *float64   `json:"grade"` // fraction in [0, 1]

	// Materialized at creation, never rewritten
	QuestionOrder     datatypes.JSONSlice[uint] `json:"question_order" gorm:"type:jsonb"`
	PreferredLanguage string                    `json:"preferred_language" gorm:"size:10;default:en"`
	Comments          *string                   `json:"comments" gorm:"type:text"`

	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	QuestionVariants  []AssignmentAttemptQuestionVariant `json:"question_variants" gorm:"foreignKey:AssignmentAttemptID"`
	QuestionResponses []QuestionResponse                 `json:"question_responses" gorm:"foreignKey:AssignmentAttemptID"`
}

func (AssignmentAttempt) TableName() string {
	return "assignment_attempts"
}

// BindingFor returns the variant binding recorded for a question, if any.
func (a *AssignmentAttempt) BindingFor(questionID uint) *AssignmentAttemptQuestionVariant {
	for i := range a.QuestionVariants {
		if a.QuestionVariants[i].QuestionID == questionID {
			return &a.QuestionVariants[i]
		}
	}
	return nil
}

// AssignmentAttemptQuestionVariant fixes the variant and choice order an
// attempt sees for one question. Rows are written once at attempt creation.
type AssignmentAttemptQuestionVariant struct {
	ID                  uint                        `json:"id" gorm:"primaryKey"`
	AssignmentAttemptID uint                        `json:"assignment_attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question_binding"`
	QuestionID          uint                        `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question_binding"`
	QuestionVariantID   *uint                       `json:"question_variant_id"`
	RandomizedChoices   datatypes.JSONSlice[Choice] `json:"randomized_choices" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
}

func (AssignmentAttemptQuestionVariant) TableName() string {
	return "assignment_attempt_question_variants"
}

type FeedbackItem struct {
	Choice   string   `json:"choice,omitempty"`
	Feedback string   `json:"feedback"`
	Points   *float64 `json:"points,omitempty"`
}

type QuestionResponse struct {
	ID                  uint                              `json:"id" gorm:"primaryKey"`
	AssignmentAttemptID uint                              `json:"assignment_attempt_id" gorm:"not null;index"`
	QuestionID          uint                              `json:"question_id" gorm:"not null;index"`
	LearnerResponse     datatypes.JSON                    `json:"learner_response" gorm:"type:jsonb"`
	Points              float64                           `json:"points"`
	Feedback            datatypes.JSONSlice[FeedbackItem] `json:"feedback" gorm:"type:jsonb"`
	Metadata            datatypes.JSONMap                 `json:"metadata" gorm:"type:jsonb"` // audit only
	GradedAt            time.Time                         `json:"graded_at"`
}

func (QuestionResponse) TableName() string {
	return "question_responses"
}

type GradingAudit struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	QuestionID      uint              `json:"question_id" gorm:"not null;index"`
	AssignmentID    uint              `json:"assignment_id" gorm:"not null;index"`
	RequestPayload  datatypes.JSON    `json:"request_payload" gorm:"type:jsonb"`
	ResponsePayload datatypes.JSON    `json:"response_payload" gorm:"type:jsonb"`
	GradingStrategy string            `json:"grading_strategy" gorm:"size:50"`
	Metadata        datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (GradingAudit) TableName() string {
	return "grading_audits"
}
