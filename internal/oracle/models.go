package oracle

import "github.com/SAP-F-2025/attempt-grading-service/internal/models"

// Evaluate models carry everything the oracle sees for one question.

type TextBasedModel struct {
	Question                string                         `json:"question"`
	LearnerResponse         string                         `json:"learnerResponse"`
	TotalPoints             float64                        `json:"totalPoints"`
	Scoring                 models.Scoring                 `json:"scoring"`
	ResponseType            models.ResponseType            `json:"responseType,omitempty"`
	Instructions            string                         `json:"assignmentInstructions,omitempty"`
	PreviousQuestionAnswers []models.QuestionAnswerContext `json:"previousQuestionsAnswersContext,omitempty"`
}

type FileContent struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type FileBasedModel struct {
	Question                string                         `json:"question"`
	LearnerFiles            []FileContent                  `json:"learnerResponse"`
	TotalPoints             float64                        `json:"totalPoints"`
	Scoring                 models.Scoring                 `json:"scoring"`
	ResponseType            models.ResponseType            `json:"responseType,omitempty"`
	Instructions            string                         `json:"assignmentInstructions,omitempty"`
	PreviousQuestionAnswers []models.QuestionAnswerContext `json:"previousQuestionsAnswersContext,omitempty"`
}

type URLBasedModel struct {
	Question                string                         `json:"question"`
	URL                     string                         `json:"urlProvided"`
	URLContent              string                         `json:"urlContent"`
	IsURLFunctional         bool                           `json:"isUrlFunctional"`
	TotalPoints             float64                        `json:"totalPoints"`
	Scoring                 models.Scoring                 `json:"scoring"`
	ResponseType            models.ResponseType            `json:"responseType,omitempty"`
	Instructions            string                         `json:"assignmentInstructions,omitempty"`
	PreviousQuestionAnswers []models.QuestionAnswerContext `json:"previousQuestionsAnswersContext,omitempty"`
}

type PresentationModel struct {
	Question                string                         `json:"question"`
	Presentation            models.PresentationResponse    `json:"learnerResponse"`
	TotalPoints             float64                        `json:"totalPoints"`
	Scoring                 models.Scoring                 `json:"scoring"`
	Instructions            string                         `json:"assignmentInstructions,omitempty"`
	PreviousQuestionAnswers []models.QuestionAnswerContext `json:"previousQuestionsAnswersContext,omitempty"`
}

// VideoPresentationModel is a live recording; body language and speech
// delivery are graded alongside content.
type VideoPresentationModel struct {
	PresentationModel
	IncludeBodyLanguage bool `json:"includeBodyLanguage"`
	IncludeSpeech       bool `json:"includeSpeech"`
}

// Result is the oracle's verdict for one question.
type Result struct {
	TotalPoints      float64               `json:"points"`
	Feedback         []models.FeedbackItem `json:"feedback"`
	GradingRationale string                `json:"gradingRationale,omitempty"`
}
