package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/attempt-grading-service/internal/grading"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

const (
	defaultGradingConcurrency = 8
	defaultGradingTimeout     = 2 * time.Minute
)

// GradeQuestionsInput is one submission batch
type GradeQuestionsInput struct {
	AttemptID  uint
	Attempt    *models.AssignmentAttempt // nil for previews
	Assignment *models.Assignment
	Responses  []models.QuestionAnswer
	Role       models.UserRole
	Language   string

	// Questions already resolved and translated for this batch, by id
	Questions map[uint]*models.EffectiveQuestion
}

func (in *GradeQuestionsInput) isPreview() bool {
	return in.AttemptID == models.PreviewAttemptID &&
		(in.Role == models.RoleAuthor || in.Role == models.RoleAdmin)
}

type OrchestratorConfig struct {
	Concurrency int
	Timeout     time.Duration
}

// QuestionResponseOrchestrator grades a batch of responses concurrently with
// all-or-nothing semantics.
type QuestionResponseOrchestrator struct {
	repo      repositories.Repository
	engine    *grading.Engine
	fetcher   grading.ContentFetcher
	localizer grading.Localizer
	logger    *slog.Logger
	config    OrchestratorConfig
	now       func() time.Time
}

func NewQuestionResponseOrchestrator(repo repositories.Repository, engine *grading.Engine, fetcher grading.ContentFetcher, localizer grading.Localizer, logger *slog.Logger, config OrchestratorConfig) *QuestionResponseOrchestrator {
	if config.Concurrency <= 0 {
		config.Concurrency = defaultGradingConcurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultGradingTimeout
	}
	return &QuestionResponseOrchestrator{
		repo:      repo,
		engine:    engine,
		fetcher:   fetcher,
		localizer: localizer,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// GradeQuestions grades every response and waits for all of them. Results
// keep input order. Any failure fails the batch with a *SubmissionGradingError
// naming every failed question.
func (o *QuestionResponseOrchestrator) GradeQuestions(ctx context.Context, in *GradeQuestionsInput) ([]*GradedQuestion, error) {
	if failures := duplicateResponses(in.Responses); len(failures) > 0 {
		o.logger.Warn("Submission has duplicate responses",
			"attempt_id", in.AttemptID,
			"duplicates", len(failures))
		return nil, &SubmissionGradingError{Failures: failures}
	}

	results := make([]*GradedQuestion, len(in.Responses))
	errs := make([]error, len(in.Responses))

	// Grading runs to completion even if the caller goes away
	gradeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.Timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(o.config.Concurrency)
	for i := range in.Responses {
		g.Go(func() error {
			results[i], errs[i] = o.gradeOne(gradeCtx, in, i)
			return nil
		})
	}
	_ = g.Wait()

	var failures []QuestionGradingError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, QuestionGradingError{
				Index:      i,
				QuestionID: in.Responses[i].QuestionID,
				Err:        err,
			})
		}
	}
	if len(failures) > 0 {
		o.logger.Warn("Submission grading failed",
			"attempt_id", in.AttemptID,
			"failed", len(failures),
			"total", len(in.Responses))
		return nil, &SubmissionGradingError{Failures: failures}
	}
	return results, nil
}

// SubmitQuestions grades a batch and stores one response row per answer in a
// single transaction. Author previews are never stored.
func (o *QuestionResponseOrchestrator) SubmitQuestions(ctx context.Context, in *GradeQuestionsInput) ([]*GradedQuestion, error) {
	if in.AttemptID == models.PreviewAttemptID && !in.isPreview() {
		return nil, NewPermissionError("", in.AttemptID, "attempt", "submit", "only authors may preview")
	}

	graded, err := o.GradeQuestions(ctx, in)
	if err != nil {
		return nil, err
	}
	if in.isPreview() {
		return graded, nil
	}

	err = o.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return o.PersistResponses(ctx, tx, in.AttemptID, graded)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save question responses: %w", err)
	}
	return graded, nil
}

// PersistResponses writes graded results through repo, which is usually
// bound to the caller's transaction.
func (o *QuestionResponseOrchestrator) PersistResponses(ctx context.Context, repo repositories.Repository, attemptID uint, graded []*GradedQuestion) error {
	now := o.now()
	rows := make([]*models.QuestionResponse, 0, len(graded))
	for _, g := range graded {
		learnerResponse, err := json.Marshal(g.LearnerResponse)
		if err != nil {
			return fmt.Errorf("failed to encode response for question %d: %w", g.QuestionID, err)
		}
		rows = append(rows, &models.QuestionResponse{
			AssignmentAttemptID: attemptID,
			QuestionID:          g.QuestionID,
			LearnerResponse:     datatypes.JSON(learnerResponse),
			Points:              g.Points,
			Feedback:            g.Feedback,
			Metadata:            datatypes.JSONMap(g.Metadata),
			GradedAt:            now,
		})
	}
	return repo.QuestionResponse().CreateBatch(ctx, rows)
}

// duplicateResponses flags every answer after the first for the same question
func duplicateResponses(responses []models.QuestionAnswer) []QuestionGradingError {
	seen := make(map[uint]struct{}, len(responses))
	var failures []QuestionGradingError
	for i, r := range responses {
		if _, ok := seen[r.QuestionID]; ok {
			failures = append(failures, QuestionGradingError{
				Index:      i,
				QuestionID: r.QuestionID,
				Err:        fmt.Errorf("%w: duplicate response for question %d", grading.ErrInvalidResponse, r.QuestionID),
			})
			continue
		}
		seen[r.QuestionID] = struct{}{}
	}
	return failures
}

// ===== PER QUESTION =====

func (o *QuestionResponseOrchestrator) gradeOne(ctx context.Context, in *GradeQuestionsInput, i int) (*GradedQuestion, error) {
	response := in.Responses[i]

	eq, err := o.resolveQuestion(ctx, in, response.QuestionID)
	if err != nil {
		return nil, err
	}

	graded := &GradedQuestion{
		QuestionID:      eq.ID,
		Question:        eq.Question,
		TotalPoints:     eq.TotalPoints,
		LearnerResponse: response,
	}

	if response.IsEmpty() {
		graded.Feedback = []models.FeedbackItem{{
			Feedback: o.localizer.GetString("noResponse", o.language(in, eq), nil),
		}}
		graded.Metadata = map[string]any{"empty": true}
		return graded, nil
	}

	gctx := o.gradingContext(ctx, in, eq)
	result, family, err := o.engine.Grade(ctx, eq, &response, gctx)
	if err != nil {
		return nil, err
	}

	graded.Points = result.Points
	graded.Feedback = result.Feedback
	graded.Metadata = result.Metadata
	graded.Strategy = string(family)
	return graded, nil
}

func (o *QuestionResponseOrchestrator) language(in *GradeQuestionsInput, eq *models.EffectiveQuestion) string {
	if eq.Language != "" {
		return eq.Language
	}
	if in.Language != "" {
		return in.Language
	}
	return "en"
}

// resolveQuestion tries the pre-translated set, then the attempt's bound
// variant, then a plain lookup.
func (o *QuestionResponseOrchestrator) resolveQuestion(ctx context.Context, in *GradeQuestionsInput, questionID uint) (*models.EffectiveQuestion, error) {
	if eq, ok := in.Questions[questionID]; ok && eq != nil {
		return eq, nil
	}
	if in.Attempt != nil && !slices.Contains(in.Attempt.QuestionOrder, questionID) {
		return nil, fmt.Errorf("question %d is not part of attempt %d: %w", questionID, in.Attempt.ID, ErrQuestionNotFound)
	}

	q, err := o.repo.Question().GetByID(ctx, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("question %d: %w", questionID, ErrQuestionNotFound)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if q.AssignmentID != in.Assignment.ID {
		return nil, fmt.Errorf("question %d: %w", questionID, ErrQuestionNotFound)
	}

	var binding *models.AssignmentAttemptQuestionVariant
	var variant *models.QuestionVariant
	if in.Attempt != nil {
		binding = in.Attempt.BindingFor(questionID)
	}
	if binding != nil && binding.QuestionVariantID != nil {
		variant, err = o.boundVariant(ctx, q, *binding.QuestionVariantID)
		if err != nil {
			return nil, err
		}
	}

	eq := Resolve(q, binding, variant)
	eq.Language = in.Language
	return eq, nil
}

func (o *QuestionResponseOrchestrator) boundVariant(ctx context.Context, q *models.Question, variantID uint) (*models.QuestionVariant, error) {
	for i := range q.Variants {
		if q.Variants[i].ID == variantID {
			return &q.Variants[i], nil
		}
	}
	variant, err := o.repo.Question().GetVariant(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bound variant %d: %w", variantID, err)
	}
	return variant, nil
}

// gradingContext collects the instructions and the Q&A pairs this question
// depends on. Answers come from the same batch.
func (o *QuestionResponseOrchestrator) gradingContext(ctx context.Context, in *GradeQuestionsInput, eq *models.EffectiveQuestion) *grading.Context {
	gctx := &grading.Context{
		AssignmentID: in.Assignment.ID,
		Instructions: in.Assignment.InstructionsText(),
		Language:     o.language(in, eq),
		Role:         in.Role,
	}

	for _, id := range eq.GradingContextQuestionIDs {
		answer := findAnswer(in.Responses, id)
		if answer == nil {
			continue
		}
		related, err := o.resolveQuestion(ctx, in, id)
		if err != nil {
			o.logger.Warn("Skipping grading context question",
				"question_id", eq.ID,
				"context_question_id", id,
				"error", err)
			continue
		}
		gctx.PreviousAnswers = append(gctx.PreviousAnswers, models.QuestionAnswerContext{
			Question: related.Question,
			Answer:   o.contextAnswer(ctx, answer),
		})
	}
	return gctx
}

// contextAnswer renders an answer as text; URL answers are replaced by the
// content behind them when it can be fetched.
func (o *QuestionResponseOrchestrator) contextAnswer(ctx context.Context, answer *models.QuestionAnswer) string {
	if !answer.HasURL() || o.fetcher == nil {
		return answer.TextForContext()
	}
	content := o.fetcher.Fetch(ctx, *answer.LearnerURLResponse)
	if !content.IsFunctional {
		return *answer.LearnerURLResponse
	}
	return *answer.LearnerURLResponse + "\n\n" + content.Body
}

func findAnswer(responses []models.QuestionAnswer, questionID uint) *models.QuestionAnswer {
	for i := range responses {
		if responses[i].QuestionID == questionID {
			return &responses[i]
		}
	}
	return nil
}

// ===== AUDIT =====

type repositoryAuditor struct {
	repo repositories.Repository
}

// NewRepositoryAuditor stores grading audits through the repository
func NewRepositoryAuditor(repo repositories.Repository) grading.Auditor {
	return &repositoryAuditor{repo: repo}
}

func (a *repositoryAuditor) Record(ctx context.Context, audit *models.GradingAudit) error {
	if err := a.repo.GradingAudit().Create(ctx, audit); err != nil {
		return fmt.Errorf("failed to record grading audit: %w", err)
	}
	return nil
}
