// Package grading scores a single learner response against an effective
// question. Each question family has its own Strategy; the Dispatcher picks
// one and the Engine runs it with auditing and metrics.
package grading

import (
	"context"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/fetcher"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

// Family is the closed set of strategy kinds.
type Family string

const (
	FamilyChoice       Family = "choice"
	FamilyTrueFalse    Family = "true_false"
	FamilyText         Family = "text"
	FamilyFile         Family = "file"
	FamilyURL          Family = "url"
	FamilyPresentation Family = "presentation"
)

// Context is what a strategy may use beyond the question and the response.
type Context struct {
	AssignmentID    uint
	Instructions    string
	PreviousAnswers []models.QuestionAnswerContext
	Language        string
	Role            models.UserRole
}

// Result is the graded outcome of one response.
type Result struct {
	Points   float64
	Feedback []models.FeedbackItem
	Metadata map[string]any
}

type Strategy interface {
	Family() Family
	// Validate rejects responses whose shape does not fit the question.
	// Returned errors satisfy IsValidationError unless the question itself is broken.
	Validate(q *models.EffectiveQuestion, r *models.QuestionAnswer) error
	Grade(ctx context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error)
}

// ===== COLLABORATORS =====

type Oracle interface {
	GradeTextBased(ctx context.Context, m *oracle.TextBasedModel, assignmentID uint, language string) (*oracle.Result, error)
	GradeFileBased(ctx context.Context, m *oracle.FileBasedModel, assignmentID uint, language string) (*oracle.Result, error)
	GradeURLBased(ctx context.Context, m *oracle.URLBasedModel, assignmentID uint, language string) (*oracle.Result, error)
	GradePresentation(ctx context.Context, m *oracle.PresentationModel, assignmentID uint, language string) (*oracle.Result, error)
	GradeVideoPresentation(ctx context.Context, m *oracle.VideoPresentationModel, assignmentID uint, language string) (*oracle.Result, error)
}

type ContentFetcher interface {
	Fetch(ctx context.Context, url string) fetcher.Content
}

type FileReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Auditor interface {
	Record(ctx context.Context, audit *models.GradingAudit) error
}

type Observer interface {
	ObserveGrading(strategy string, err error, duration time.Duration)
}

// Localizer is the one method grading needs from the message catalog.
type Localizer interface {
	GetString(key, language string, placeholders map[string]any) string
}

// BooleanParser resolves localized true/false tokens.
type BooleanParser interface {
	Parse(token, language string) (bool, bool)
}

func language(q *models.EffectiveQuestion, gctx *Context) string {
	if gctx != nil && gctx.Language != "" {
		return gctx.Language
	}
	if q.Language != "" {
		return q.Language
	}
	return "en"
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ptr[T any](v T) *T {
	return &v
}
