package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

func trueFalseAnswer(v string) *models.QuestionAnswer {
	return &models.QuestionAnswer{LearnerAnswerChoice: &models.TrueFalseValue{Text: &v}}
}

func TestTrueFalseStrategy(t *testing.T) {
	s := NewTrueFalseStrategy(testCatalog, testTokens)

	tests := []struct {
		name       string
		language   string
		answer     *models.QuestionAnswer
		wantPoints float64
	}{
		{name: "bool true", language: "en", answer: &models.QuestionAnswer{LearnerAnswerChoice: &models.TrueFalseValue{Bool: boolPtr(true)}}, wantPoints: 3},
		{name: "bool false", language: "en", answer: &models.QuestionAnswer{LearnerAnswerChoice: &models.TrueFalseValue{Bool: boolPtr(false)}}, wantPoints: 0},
		{name: "english yes", language: "en", answer: trueFalseAnswer("Yes"), wantPoints: 3},
		{name: "japanese hai", language: "ja", answer: trueFalseAnswer("はい"), wantPoints: 3},
		{name: "japanese iie", language: "ja", answer: trueFalseAnswer("いいえ"), wantPoints: 0},
		{name: "french vrai", language: "fr", answer: trueFalseAnswer("Vrai"), wantPoints: 3},
		{name: "digit one anywhere", language: "ko", answer: trueFalseAnswer("1"), wantPoints: 3},
		{name: "english fallback", language: "de", answer: trueFalseAnswer("true"), wantPoints: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &models.EffectiveQuestion{ID: 1, Type: models.QuestionTrueFalse, TotalPoints: 3, Answer: boolPtr(true), Language: tt.language}

			require.NoError(t, s.Validate(q, tt.answer))
			result, err := s.Grade(context.Background(), q, tt.answer, &Context{Language: tt.language})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPoints, result.Points)
			assert.GreaterOrEqual(t, result.Points, 0.0)
		})
	}
}

func TestTrueFalseStrategy_TokensAgreeWithEnglish(t *testing.T) {
	s := NewTrueFalseStrategy(testCatalog, testTokens)

	pairs := []struct {
		language string
		truthy   string
		falsy    string
	}{
		{"ja", "はい", "いいえ"},
		{"es", "sí", "no"},
		{"pt", "sim", "não"},
		{"ru", "да", "нет"},
		{"zh", "对", "错"},
	}
	english, err := s.extract(trueFalseAnswer("true"), "en")
	require.NoError(t, err)

	for _, p := range pairs {
		got, err := s.extract(trueFalseAnswer(p.truthy), p.language)
		require.NoError(t, err, p.language)
		assert.Equal(t, english, got, p.language)

		got, err = s.extract(trueFalseAnswer(p.falsy), p.language)
		require.NoError(t, err, p.language)
		assert.Equal(t, !english, got, p.language)
	}
}

func TestTrueFalseStrategy_Invalid(t *testing.T) {
	s := NewTrueFalseStrategy(testCatalog, testTokens)
	q := &models.EffectiveQuestion{ID: 1, Type: models.QuestionTrueFalse, TotalPoints: 3, Answer: boolPtr(false)}

	err := s.Validate(q, trueFalseAnswer("perhaps"))
	assert.ErrorIs(t, err, ErrInvalidTrueFalse)
	assert.True(t, IsValidationError(err))

	err = s.Validate(q, &models.QuestionAnswer{})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestTrueFalseStrategy_ChoicePointsFallback(t *testing.T) {
	s := NewTrueFalseStrategy(testCatalog, testTokens)
	q := &models.EffectiveQuestion{
		ID:      1,
		Type:    models.QuestionTrueFalse,
		Answer:  boolPtr(false),
		Choices: []models.Choice{{Choice: "False", IsCorrect: true, Points: 2}},
	}

	result, err := s.Grade(context.Background(), q, trueFalseAnswer("false"), &Context{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.Points)
	assert.Equal(t, "Correct!", result.Feedback[0].Feedback)
}

func TestTrueFalseStrategy_IncorrectNamesAnswer(t *testing.T) {
	s := NewTrueFalseStrategy(testCatalog, testTokens)
	q := &models.EffectiveQuestion{ID: 1, Type: models.QuestionTrueFalse, TotalPoints: 1, Answer: boolPtr(false)}

	result, err := s.Grade(context.Background(), q, trueFalseAnswer("yes"), &Context{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Points)
	assert.Equal(t, "Incorrect. The correct answer is False.", result.Feedback[0].Feedback)
}
