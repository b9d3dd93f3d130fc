package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

func singleChoiceQuestion() *models.EffectiveQuestion {
	return &models.EffectiveQuestion{
		ID:          1,
		Type:        models.QuestionSingleCorrect,
		TotalPoints: 4,
		Choices: []models.Choice{
			{Choice: "Paris", IsCorrect: true, Points: 4},
			{Choice: "Lyon", Points: 0},
			{Choice: "Marseille", Points: -1, Feedback: "Not the capital."},
		},
	}
}

func TestChoiceStrategy_Single(t *testing.T) {
	s := NewChoiceStrategy(testCatalog)

	tests := []struct {
		name       string
		selections []string
		wantPoints float64
		wantText   string
	}{
		{name: "exact correct", selections: []string{"Paris"}, wantPoints: 4, wantText: "Correct! You selected the right answer."},
		{name: "case and punctuation insensitive", selections: []string{"  paris!! "}, wantPoints: 4},
		{name: "incorrect without points", selections: []string{"Lyon"}, wantPoints: 0, wantText: "Incorrect. The option you selected is not correct."},
		{name: "incorrect with own points", selections: []string{"Marseille"}, wantPoints: -1, wantText: "Not the capital."},
		{name: "nothing selected", selections: nil, wantPoints: 0, wantText: "No option was selected."},
		{name: "blank selection", selections: []string{"   "}, wantPoints: 0, wantText: "No option was selected."},
		{name: "unrecognized", selections: []string{"Berlin"}, wantPoints: 0, wantText: `The selection "Berlin" is not one of the available options.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := singleChoiceQuestion()
			r := &models.QuestionAnswer{QuestionID: q.ID, LearnerChoices: tt.selections}

			require.NoError(t, s.Validate(q, r))
			result, err := s.Grade(context.Background(), q, r, &Context{Language: "en"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantPoints, result.Points)
			if tt.wantText != "" {
				require.NotEmpty(t, result.Feedback)
				assert.Equal(t, tt.wantText, result.Feedback[0].Feedback)
			}
		})
	}
}

func TestChoiceStrategy_SingleRejectsMultipleSelections(t *testing.T) {
	s := NewChoiceStrategy(testCatalog)
	q := singleChoiceQuestion()

	err := s.Validate(q, &models.QuestionAnswer{LearnerChoices: []string{"Paris", "Lyon"}})
	assert.True(t, IsValidationError(err))
}

func multipleChoiceQuestion(scoring models.ScoringType) *models.EffectiveQuestion {
	return &models.EffectiveQuestion{
		ID:          2,
		Type:        models.QuestionMultipleCorrect,
		TotalPoints: 5,
		Scoring:     models.Scoring{Type: scoring},
		Choices: []models.Choice{
			{Choice: "A", IsCorrect: true, Points: 2},
			{Choice: "B", IsCorrect: true, Points: 3},
			{Choice: "C", Points: 1},
			{Choice: "D", Points: 4},
		},
	}
}

func TestChoiceStrategy_Multiple(t *testing.T) {
	s := NewChoiceStrategy(testCatalog)

	tests := []struct {
		name        string
		scoring     models.ScoringType
		selections  []string
		wantPoints  float64
		wantPerfect bool
	}{
		{name: "loss per mistake subtracts", scoring: models.ScoringLossPerMistake, selections: []string{"A", "C"}, wantPoints: 1},
		{name: "loss per mistake clamps at zero", scoring: models.ScoringLossPerMistake, selections: []string{"A", "D"}, wantPoints: 0},
		{name: "criteria based ignores incorrect", scoring: models.ScoringCriteriaBased, selections: []string{"A", "C"}, wantPoints: 2},
		{name: "all correct is perfect", scoring: models.ScoringLossPerMistake, selections: []string{"a", "B"}, wantPoints: 5, wantPerfect: true},
		{name: "duplicates count once", scoring: models.ScoringCriteriaBased, selections: []string{"A", "a", "A."}, wantPoints: 2},
		{name: "invalid blocks perfect", scoring: models.ScoringCriteriaBased, selections: []string{"A", "B", "Z"}, wantPoints: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := multipleChoiceQuestion(tt.scoring)
			r := &models.QuestionAnswer{QuestionID: q.ID, LearnerChoices: tt.selections}

			require.NoError(t, s.Validate(q, r))
			result, err := s.Grade(context.Background(), q, r, &Context{Language: "en"})
			require.NoError(t, err)

			assert.Equal(t, tt.wantPoints, result.Points)
			assert.LessOrEqual(t, result.Points, q.SumCorrectPoints())
			assert.GreaterOrEqual(t, result.Points, 0.0)

			perfect := result.Metadata["allCorrectSelected"] == true && result.Metadata["noIncorrectSelected"] == true
			assert.Equal(t, tt.wantPerfect, perfect)
		})
	}
}

func TestChoiceStrategy_MultipleListsInvalidSelections(t *testing.T) {
	s := NewChoiceStrategy(testCatalog)
	q := multipleChoiceQuestion(models.ScoringCriteriaBased)

	result, err := s.Grade(context.Background(), q, &models.QuestionAnswer{LearnerChoices: []string{"A", "Zed"}}, &Context{Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Zed"}, result.Metadata["invalidSelections"])
	last := result.Feedback[len(result.Feedback)-1]
	assert.Equal(t, "These selections did not match any option: Zed.", last.Feedback)
}

func TestChoiceStrategy_MatchesUntranslatedText(t *testing.T) {
	s := NewChoiceStrategy(testCatalog)
	q := singleChoiceQuestion()
	q.BaseChoices = q.Choices
	q.Choices = []models.Choice{
		{Choice: "París", IsCorrect: true, Points: 4},
		{Choice: "Lyon", Points: 0},
		{Choice: "Marsella", Points: -1},
	}

	for _, selection := range []string{"París", "Paris"} {
		result, err := s.Grade(context.Background(), q, &models.QuestionAnswer{LearnerChoices: []string{selection}}, &Context{Language: "es"})
		require.NoError(t, err)
		assert.Equal(t, 4.0, result.Points, selection)
	}
}

func TestChoiceStrategy_NoChoices(t *testing.T) {
	s := NewChoiceStrategy(testCatalog)
	q := &models.EffectiveQuestion{ID: 9, Type: models.QuestionMultipleCorrect}

	err := s.Validate(q, &models.QuestionAnswer{LearnerChoices: []string{"A"}})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
