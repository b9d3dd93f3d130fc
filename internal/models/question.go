package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionText            QuestionType = "TEXT"
	QuestionURL             QuestionType = "URL"
	QuestionUpload          QuestionType = "UPLOAD"
	QuestionLinkFile        QuestionType = "LINK_FILE"
	QuestionTrueFalse       QuestionType = "TRUE_FALSE"
	QuestionSingleCorrect   QuestionType = "SINGLE_CORRECT"
	QuestionMultipleCorrect QuestionType = "MULTIPLE_CORRECT"
)

// QuestionTypes lists every defined question type.
var QuestionTypes = []QuestionType{
	QuestionText,
	QuestionURL,
	QuestionUpload,
	QuestionLinkFile,
	QuestionTrueFalse,
	QuestionSingleCorrect,
	QuestionMultipleCorrect,
}

func (t QuestionType) IsValid() bool {
	for _, v := range QuestionTypes {
		if v == t {
			return true
		}
	}
	return false
}

type ResponseType string

const (
	ResponseLiveRecording ResponseType = "LIVE_RECORDING"
	ResponsePresentation  ResponseType = "PRESENTATION"
	ResponseCode          ResponseType = "CODE"
	ResponseEssay         ResponseType = "ESSAY"
	ResponseReport        ResponseType = "REPORT"
	ResponseOther         ResponseType = "OTHER"
)

type ScoringType string

const (
	ScoringCriteriaBased  ScoringType = "CRITERIA_BASED"
	ScoringLossPerMistake ScoringType = "LOSS_PER_MISTAKE"
)

type Choice struct {
	ID        *int    `json:"id,omitempty"`
	Choice    string  `json:"choice"`
	IsCorrect bool    `json:"isCorrect"`
	Points    float64 `json:"points"`
	Feedback  string  `json:"feedback,omitempty"`
}

type RubricCriterion struct {
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

type Rubric struct {
	RubricQuestion string            `json:"rubricQuestion"`
	Criteria       []RubricCriterion `json:"criteria"`
}

type Scoring struct {
	Type                 ScoringType `json:"type,omitempty"`
	Rubrics              []Rubric    `json:"rubrics,omitempty"`
	ShowRubricsToLearner bool        `json:"showRubricsToLearner"`
}

type Question struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	AssignmentID uint          `json:"assignment_id" gorm:"not null;index"`
	Question     string        `json:"question" gorm:"type:text;not null"`
	Type         QuestionType  `json:"type" gorm:"not null;size:30;index"`
	ResponseType *ResponseType `json:"response_type" gorm:"size:30"`
	TotalPoints  float64       `json:"total_points" gorm:"not null;default:0"`

	// Content stored as JSONB, decoded once per load
	Choices datatypes.JSONSlice[Choice] `json:"choices" gorm:"type:jsonb"`
	Scoring datatypes.JSONType[Scoring] `json:"scoring" gorm:"type:jsonb"`
	Answer  *bool                       `json:"answer"` // canonical answer for TRUE_FALSE

	MaxWords      *int `json:"max_words"`
	MaxCharacters *int `json:"max_characters"`

	GradingContextQuestionIDs datatypes.JSONSlice[uint] `json:"grading_context_question_ids" gorm:"type:jsonb"`
	RandomizedChoices         bool                      `json:"randomized_choices" gorm:"not null;default:false"`
	IsDeleted                 bool                      `json:"is_deleted" gorm:"not null;default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Variants []QuestionVariant `json:"variants" gorm:"foreignKey:VariantOf"`
}

func (Question) TableName() string {
	return "questions"
}

// ResponseTypeValue returns the response type or an empty value when unset.
func (q *Question) ResponseTypeValue() ResponseType {
	if q.ResponseType == nil {
		return ""
	}
	return *q.ResponseType
}

// LiveVariants returns variants that are not soft-deleted.
func (q *Question) LiveVariants() []QuestionVariant {
	live := make([]QuestionVariant, 0, len(q.Variants))
	for _, v := range q.Variants {
		if !v.IsDeleted {
			live = append(live, v)
		}
	}
	return live
}

type VariantType string

const (
	VariantReworded   VariantType = "REWORDED"
	VariantRandomized VariantType = "RANDOMIZED"
)

// QuestionVariant overrides selected fields of its parent question.
// Nil fields are inherited from the parent.
type QuestionVariant struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	VariantOf      uint        `json:"variant_of" gorm:"not null;index"`
	VariantContent string      `json:"variant_content" gorm:"type:text;not null"`
	VariantType    VariantType `json:"variant_type" gorm:"size:20;default:REWORDED"`

	Choices           datatypes.JSONSlice[Choice]  `json:"choices" gorm:"type:jsonb"`
	Scoring           *datatypes.JSONType[Scoring] `json:"scoring" gorm:"type:jsonb"`
	MaxWords          *int                         `json:"max_words"`
	MaxCharacters     *int                         `json:"max_characters"`
	RandomizedChoices *bool                        `json:"randomized_choices"`
	IsDeleted         bool                         `json:"is_deleted" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuestionVariant) TableName() string {
	return "question_variants"
}

// Translation holds the translated text of a question, or of one of its
// variants when VariantID is set.
type Translation struct {
	ID                uint                        `json:"id" gorm:"primaryKey"`
	QuestionID        uint                        `json:"question_id" gorm:"not null;uniqueIndex:idx_translation_key"`
	VariantID         *uint                       `json:"variant_id" gorm:"uniqueIndex:idx_translation_key"`
	LanguageCode      string                      `json:"language_code" gorm:"not null;size:10;uniqueIndex:idx_translation_key"`
	TranslatedText    string                      `json:"translated_text" gorm:"type:text;not null"`
	TranslatedChoices datatypes.JSONSlice[Choice] `json:"translated_choices" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Translation) TableName() string {
	return "translations"
}
