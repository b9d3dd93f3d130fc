package models

// EffectiveQuestion is a question after variant overrides, the attempt's
// choice order and an optional translation have been applied. It is what
// strategies grade against.
type EffectiveQuestion struct {
	ID           uint         `json:"id"`
	AssignmentID uint         `json:"assignmentId"`
	VariantID    *uint        `json:"variantId,omitempty"`
	Question     string       `json:"question"`
	Type         QuestionType `json:"type"`
	ResponseType ResponseType `json:"responseType,omitempty"`
	TotalPoints  float64      `json:"totalPoints"`

	// Choices are in display order and may be translated. BaseChoices holds
	// the untranslated text in the same order.
	Choices     []Choice `json:"choices,omitempty"`
	BaseChoices []Choice `json:"baseChoices,omitempty"`
	// SourceChoices are the question's or variant's choices in authoring
	// order, which is the order translated choices are stored in.
	SourceChoices []Choice `json:"sourceChoices,omitempty"`

	Scoring       Scoring `json:"scoring"`
	Answer        *bool   `json:"answer,omitempty"`
	MaxWords      *int    `json:"maxWords,omitempty"`
	MaxCharacters *int    `json:"maxCharacters,omitempty"`

	GradingContextQuestionIDs []uint `json:"gradingContextQuestionIds,omitempty"`
	RandomizedChoices         bool   `json:"randomizedChoices"`
	Language                  string `json:"language,omitempty"`
}

// SumCorrectPoints is the best score a multiple-choice question can award.
func (q *EffectiveQuestion) SumCorrectPoints() float64 {
	var total float64
	for _, c := range q.Choices {
		if c.IsCorrect {
			total += c.Points
		}
	}
	return total
}

// QuestionAnswerContext is a prior question and the learner's answer to it,
// supplied to the grader of a dependent question.
type QuestionAnswerContext struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
