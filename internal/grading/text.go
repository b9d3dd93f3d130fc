package grading

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

type TextStrategy struct {
	oracle Oracle
}

func NewTextStrategy(o Oracle) *TextStrategy {
	return &TextStrategy{oracle: o}
}

func (s *TextStrategy) Family() Family { return FamilyText }

func (s *TextStrategy) Validate(q *models.EffectiveQuestion, r *models.QuestionAnswer) error {
	text := s.extract(r)
	if text == "" {
		return invalidResponse("a text response is required")
	}
	if q.MaxWords != nil && *q.MaxWords > 0 {
		if n := countWords(text); n > *q.MaxWords {
			return &ExceededLimitError{Unit: "words", Limit: *q.MaxWords, Actual: n}
		}
	}
	if q.MaxCharacters != nil && *q.MaxCharacters > 0 {
		if n := utf8.RuneCountInString(text); n > *q.MaxCharacters {
			return &ExceededLimitError{Unit: "characters", Limit: *q.MaxCharacters, Actual: n}
		}
	}
	return nil
}

func (s *TextStrategy) Grade(ctx context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	if s.oracle == nil {
		return nil, ErrOracleUnavailable
	}
	text := s.extract(r)

	verdict, err := s.oracle.GradeTextBased(ctx, &oracle.TextBasedModel{
		Question:                q.Question,
		LearnerResponse:         text,
		TotalPoints:             q.TotalPoints,
		Scoring:                 q.Scoring,
		ResponseType:            q.ResponseType,
		Instructions:            gctx.Instructions,
		PreviousQuestionAnswers: gctx.PreviousAnswers,
	}, gctx.AssignmentID, language(q, gctx))
	if err != nil {
		return nil, fmt.Errorf("failed to grade text response: %w", err)
	}

	return oracleResult(q, verdict, map[string]any{
		"wordCount":      countWords(text),
		"characterCount": utf8.RuneCountInString(text),
	}), nil
}

func (s *TextStrategy) extract(r *models.QuestionAnswer) string {
	if r.LearnerTextResponse == nil {
		return ""
	}
	return strings.TrimSpace(*r.LearnerTextResponse)
}

// oracleResult clamps the verdict to the question's points and merges the
// rationale into the metadata.
func oracleResult(q *models.EffectiveQuestion, verdict *oracle.Result, metadata map[string]any) *Result {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if verdict.GradingRationale != "" {
		metadata["gradingRationale"] = verdict.GradingRationale
	}
	metadata["oraclePoints"] = verdict.TotalPoints

	return &Result{
		Points:   clamp(verdict.TotalPoints, 0, q.TotalPoints),
		Feedback: verdict.Feedback,
		Metadata: metadata,
	}
}
