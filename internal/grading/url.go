package grading

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

type URLStrategy struct {
	oracle  Oracle
	fetcher ContentFetcher
	loc     Localizer
}

func NewURLStrategy(o Oracle, f ContentFetcher, loc Localizer) *URLStrategy {
	return &URLStrategy{oracle: o, fetcher: f, loc: loc}
}

func (s *URLStrategy) Family() Family { return FamilyURL }

func (s *URLStrategy) Validate(_ *models.EffectiveQuestion, r *models.QuestionAnswer) error {
	raw := s.extract(r)
	if raw == "" {
		return invalidResponse("a URL is required")
	}
	if !isWellFormedURL(raw) {
		return invalidResponse("%q is not a valid http or https URL", raw)
	}
	return nil
}

func (s *URLStrategy) Grade(ctx context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	if s.oracle == nil {
		return nil, ErrOracleUnavailable
	}
	lang := language(q, gctx)
	raw := s.extract(r)

	content := s.fetcher.Fetch(ctx, raw)

	verdict, err := s.oracle.GradeURLBased(ctx, &oracle.URLBasedModel{
		Question:                q.Question,
		URL:                     raw,
		URLContent:              content.Body,
		IsURLFunctional:         content.IsFunctional,
		TotalPoints:             q.TotalPoints,
		Scoring:                 q.Scoring,
		ResponseType:            q.ResponseType,
		Instructions:            gctx.Instructions,
		PreviousQuestionAnswers: gctx.PreviousAnswers,
	}, gctx.AssignmentID, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to grade url response: %w", err)
	}

	result := oracleResult(q, verdict, map[string]any{
		"url":           raw,
		"isFunctional":  content.IsFunctional,
		"contentLength": len(content.Body),
	})
	if !content.IsFunctional {
		result.Feedback = append(result.Feedback, models.FeedbackItem{Feedback: s.loc.GetString("urlNotFunctional", lang, nil)})
	}
	return result, nil
}

func (s *URLStrategy) extract(r *models.QuestionAnswer) string {
	if r.LearnerURLResponse == nil {
		return ""
	}
	return strings.TrimSpace(*r.LearnerURLResponse)
}

func isWellFormedURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
