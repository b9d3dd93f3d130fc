package grading

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

// PresentationStrategy grades UPLOAD questions answered with slides, a
// transcript or a live recording.
type PresentationStrategy struct {
	oracle Oracle
}

func NewPresentationStrategy(o Oracle) *PresentationStrategy {
	return &PresentationStrategy{oracle: o}
}

func (s *PresentationStrategy) Family() Family { return FamilyPresentation }

func (s *PresentationStrategy) Validate(_ *models.EffectiveQuestion, r *models.QuestionAnswer) error {
	if r.LearnerPresentationResponse.IsEmpty() {
		return invalidResponse("a presentation response is required")
	}
	return nil
}

func (s *PresentationStrategy) Grade(ctx context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	if s.oracle == nil {
		return nil, ErrOracleUnavailable
	}
	lang := language(q, gctx)
	p := *r.LearnerPresentationResponse

	model := oracle.PresentationModel{
		Question:                q.Question,
		Presentation:            p,
		TotalPoints:             q.TotalPoints,
		Scoring:                 q.Scoring,
		Instructions:            gctx.Instructions,
		PreviousQuestionAnswers: gctx.PreviousAnswers,
	}

	var (
		verdict *oracle.Result
		err     error
	)
	if q.ResponseType == models.ResponseLiveRecording {
		verdict, err = s.oracle.GradeVideoPresentation(ctx, &oracle.VideoPresentationModel{
			PresentationModel:   model,
			IncludeBodyLanguage: p.BodyLanguageScore != nil,
			IncludeSpeech:       p.SpeechReport != "",
		}, gctx.AssignmentID, lang)
	} else {
		verdict, err = s.oracle.GradePresentation(ctx, &model, gctx.AssignmentID, lang)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to grade presentation response: %w", err)
	}

	return oracleResult(q, verdict, map[string]any{
		"slideCount":       len(p.Slides),
		"hasVideo":         p.VideoURL != "",
		"transcriptLength": len(p.Transcript),
		"responseType":     string(q.ResponseType),
	}), nil
}
