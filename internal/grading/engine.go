package grading

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// Engine validates, grades, audits and observes one response at a time. It
// is safe for concurrent use.
type Engine struct {
	dispatcher *Dispatcher
	auditor    Auditor
	observer   Observer
	logger     *slog.Logger
}

// NewEngine accepts nil auditor and observer.
func NewEngine(dispatcher *Dispatcher, auditor Auditor, observer Observer, logger *slog.Logger) *Engine {
	return &Engine{dispatcher: dispatcher, auditor: auditor, observer: observer, logger: logger}
}

// Grade returns the strategy family used alongside the result.
func (e *Engine) Grade(ctx context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, Family, error) {
	if gctx == nil {
		gctx = &Context{AssignmentID: q.AssignmentID, Language: q.Language}
	}

	strategy, err := e.dispatcher.Dispatch(q.Type, q.ResponseType)
	if errors.Is(err, ErrLinkFileDeferred) {
		strategy, err = e.dispatcher.ForLinkFile(r)
	}
	if err != nil {
		return nil, "", err
	}
	family := strategy.Family()

	start := time.Now()
	result, err := e.run(ctx, strategy, q, r, gctx)
	if e.observer != nil {
		e.observer.ObserveGrading(string(family), err, time.Since(start))
	}
	if err != nil {
		return nil, family, err
	}

	e.audit(ctx, family, q, r, result)
	return result, family, nil
}

func (e *Engine) run(ctx context.Context, s Strategy, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	if err := s.Validate(q, r); err != nil {
		return nil, err
	}
	result, err := s.Grade(ctx, q, r, gctx)
	if err != nil {
		return nil, err
	}
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	return result, nil
}

// audit never fails the grading path.
func (e *Engine) audit(ctx context.Context, family Family, q *models.EffectiveQuestion, r *models.QuestionAnswer, result *Result) {
	if e.auditor == nil {
		return
	}

	request, err := json.Marshal(r)
	if err != nil {
		e.logger.Warn("Failed to encode grading audit request", "question_id", q.ID, "error", err)
		return
	}
	response, err := json.Marshal(map[string]any{"points": result.Points, "feedback": result.Feedback})
	if err != nil {
		e.logger.Warn("Failed to encode grading audit response", "question_id", q.ID, "error", err)
		return
	}

	entry := &models.GradingAudit{
		QuestionID:      q.ID,
		AssignmentID:    q.AssignmentID,
		RequestPayload:  datatypes.JSON(request),
		ResponsePayload: datatypes.JSON(response),
		GradingStrategy: string(family),
		Metadata:        datatypes.JSONMap(result.Metadata),
	}
	if err := e.auditor.Record(ctx, entry); err != nil {
		e.logger.Warn("Failed to record grading audit",
			"question_id", q.ID,
			"assignment_id", q.AssignmentID,
			"strategy", family,
			"error", err)
	}
}
