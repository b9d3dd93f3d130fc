package grading

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/attempt-grading-service/internal/fetcher"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

func TestTextStrategy_Validate(t *testing.T) {
	s := NewTextStrategy(nil)

	tests := []struct {
		name    string
		q       *models.EffectiveQuestion
		answer  *string
		wantErr error
		limit   *ExceededLimitError
	}{
		{name: "ok", q: &models.EffectiveQuestion{}, answer: text("photosynthesis")},
		{name: "missing", q: &models.EffectiveQuestion{}, answer: nil, wantErr: ErrInvalidResponse},
		{name: "blank", q: &models.EffectiveQuestion{}, answer: text("  "), wantErr: ErrInvalidResponse},
		{
			name:    "too many words",
			q:       &models.EffectiveQuestion{MaxWords: intPtr(3)},
			answer:  text("one two three four"),
			wantErr: ErrInvalidResponse,
			limit:   &ExceededLimitError{Unit: "words", Limit: 3, Actual: 4},
		},
		{
			name:    "too many characters",
			q:       &models.EffectiveQuestion{MaxCharacters: intPtr(5)},
			answer:  text("héllo!"),
			wantErr: ErrInvalidResponse,
			limit:   &ExceededLimitError{Unit: "characters", Limit: 5, Actual: 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.q, &models.QuestionAnswer{LearnerTextResponse: tt.answer})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.limit != nil {
				var limitErr *ExceededLimitError
				require.True(t, errors.As(err, &limitErr))
				assert.Equal(t, tt.limit, limitErr)
			}
		})
	}
}

func TestTextStrategy_Grade(t *testing.T) {
	o := &fakeOracle{result: &oracle.Result{TotalPoints: 12, Feedback: []models.FeedbackItem{{Feedback: "thorough"}}, GradingRationale: "r"}}
	s := NewTextStrategy(o)
	q := &models.EffectiveQuestion{ID: 4, Question: "Explain", TotalPoints: 10}
	gctx := &Context{
		AssignmentID:    2,
		Instructions:    "Answer in full sentences",
		PreviousAnswers: []models.QuestionAnswerContext{{Question: "Q1", Answer: "A1"}},
		Language:        "en",
	}

	result, err := s.Grade(context.Background(), q, &models.QuestionAnswer{LearnerTextResponse: text("light to sugar")}, gctx)
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Points, "oracle points are clamped to the question total")
	assert.Equal(t, "thorough", result.Feedback[0].Feedback)
	assert.Equal(t, 3, result.Metadata["wordCount"])

	sent := o.last.(*oracle.TextBasedModel)
	assert.Equal(t, "Answer in full sentences", sent.Instructions)
	assert.Equal(t, gctx.PreviousAnswers, sent.PreviousQuestionAnswers)
}

func TestTextStrategy_NoOracle(t *testing.T) {
	_, err := NewTextStrategy(nil).Grade(context.Background(), &models.EffectiveQuestion{}, &models.QuestionAnswer{LearnerTextResponse: text("x")}, &Context{})
	assert.ErrorIs(t, err, ErrOracleUnavailable)
}

func TestURLStrategy(t *testing.T) {
	t.Run("validate", func(t *testing.T) {
		s := NewURLStrategy(nil, fakeFetcher{}, testCatalog)
		for raw, ok := range map[string]bool{
			"https://example.com/project": true,
			"http://localhost:8080":       true,
			"example.com":                 false,
			"ftp://example.com":           false,
			"":                            false,
		} {
			err := s.Validate(&models.EffectiveQuestion{}, &models.QuestionAnswer{LearnerURLResponse: text(raw)})
			assert.Equal(t, ok, err == nil, raw)
		}
	})

	t.Run("non functional still graded", func(t *testing.T) {
		o := &fakeOracle{result: &oracle.Result{TotalPoints: -3}}
		s := NewURLStrategy(o, fakeFetcher{content: fetcher.Content{}}, testCatalog)
		q := &models.EffectiveQuestion{ID: 5, TotalPoints: 5}

		result, err := s.Grade(context.Background(), q, &models.QuestionAnswer{LearnerURLResponse: text("https://gone.example")}, &Context{Language: "en"})
		require.NoError(t, err)

		assert.Equal(t, 0.0, result.Points)
		assert.Equal(t, false, result.Metadata["isFunctional"])
		assert.False(t, o.last.(*oracle.URLBasedModel).IsURLFunctional)
		assert.Equal(t, "The submitted URL could not be retrieved.", result.Feedback[len(result.Feedback)-1].Feedback)
	})

	t.Run("functional passes content", func(t *testing.T) {
		o := &fakeOracle{result: &oracle.Result{TotalPoints: 4}}
		s := NewURLStrategy(o, fakeFetcher{content: fetcher.Content{Body: "README", IsFunctional: true}}, testCatalog)

		result, err := s.Grade(context.Background(), &models.EffectiveQuestion{TotalPoints: 5}, &models.QuestionAnswer{LearnerURLResponse: text("https://github.com/o/r")}, &Context{})
		require.NoError(t, err)
		assert.Equal(t, 4.0, result.Points)
		assert.Equal(t, "README", o.last.(*oracle.URLBasedModel).URLContent)
	})
}

func TestFileStrategy(t *testing.T) {
	o := &fakeOracle{result: &oracle.Result{TotalPoints: 3}}
	s := NewFileStrategy(o, fakeFiles{"k1": []byte("stored body")}, testCatalog, testLogger)
	q := &models.EffectiveQuestion{ID: 6, TotalPoints: 5}

	answer := &models.QuestionAnswer{LearnerFileResponse: []models.LearnerFile{
		{Filename: "report.pdf", Content: "inline body"},
		{Filename: "data.csv", Key: "k1"},
		{Filename: "missing.txt", Key: "nope"},
	}}
	require.NoError(t, s.Validate(q, answer))

	result, err := s.Grade(context.Background(), q, answer, &Context{Language: "en"})
	require.NoError(t, err)

	sent := o.last.(*oracle.FileBasedModel)
	require.Len(t, sent.LearnerFiles, 2)
	assert.Equal(t, "stored body", sent.LearnerFiles[1].Content)

	assert.Equal(t, 3, result.Metadata["fileCount"])
	assert.Equal(t, []string{"pdf", "csv", "txt"}, result.Metadata["fileTypes"])
	assert.Equal(t, []string{"missing.txt"}, result.Metadata["unreadableFiles"])
	assert.True(t, strings.Contains(result.Feedback[len(result.Feedback)-1].Feedback, "missing.txt"))

	assert.ErrorIs(t, s.Validate(q, &models.QuestionAnswer{}), ErrInvalidResponse)
}

func TestPresentationStrategy_RoutesByResponseType(t *testing.T) {
	o := &fakeOracle{result: &oracle.Result{TotalPoints: 8}}
	s := NewPresentationStrategy(o)
	answer := &models.QuestionAnswer{LearnerPresentationResponse: &models.PresentationResponse{
		Transcript:   "Today I present",
		Slides:       []models.Slide{{SlideNumber: 1, SlideText: "Intro"}},
		SpeechReport: "steady pace",
	}}

	_, err := s.Grade(context.Background(), &models.EffectiveQuestion{TotalPoints: 10, ResponseType: models.ResponsePresentation}, answer, &Context{})
	require.NoError(t, err)
	result, err := s.Grade(context.Background(), &models.EffectiveQuestion{TotalPoints: 10, ResponseType: models.ResponseLiveRecording}, answer, &Context{})
	require.NoError(t, err)

	assert.Equal(t, []string{"presentation", "video_presentation"}, o.calls)
	video := o.last.(*oracle.VideoPresentationModel)
	assert.True(t, video.IncludeSpeech)
	assert.False(t, video.IncludeBodyLanguage)
	assert.Equal(t, 1, result.Metadata["slideCount"])

	assert.ErrorIs(t, s.Validate(&models.EffectiveQuestion{}, &models.QuestionAnswer{}), ErrInvalidResponse)
}
