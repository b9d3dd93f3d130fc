package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/cache"
	"github.com/SAP-F-2025/attempt-grading-service/internal/events"
	"github.com/SAP-F-2025/attempt-grading-service/internal/grading"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
)

// GradeSender pushes a score back to the launching platform
type GradeSender interface {
	SendGrade(ctx context.Context, endpoint, authCookie string, score float64) error
}

type SubmissionObserver interface {
	ObserveSubmission(result string)
}

type AttemptServiceDeps struct {
	Repo         repositories.Repository
	Cache        *cache.CacheManager
	Orchestrator *QuestionResponseOrchestrator
	Randomizer   *VariantRandomizer
	Publisher    events.EventPublisher
	Grades       GradeSender
	Localizer    grading.Localizer
	Metrics      SubmissionObserver
	Validator    *validator.Validator
	Logger       *slog.Logger
}

type attemptService struct {
	repo         repositories.Repository
	cache        *cache.CacheManager
	orchestrator *QuestionResponseOrchestrator
	randomizer   *VariantRandomizer
	publisher    events.EventPublisher
	grades       GradeSender
	localizer    grading.Localizer
	metrics      SubmissionObserver
	validator    *validator.Validator
	logger       *slog.Logger
	now          func() time.Time
}

func NewAttemptService(deps AttemptServiceDeps) AttemptService {
	cacheManager := deps.Cache
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil, 0)
	}
	randomizer := deps.Randomizer
	if randomizer == nil {
		randomizer = NewVariantRandomizer(nil)
	}
	return &attemptService{
		repo:         deps.Repo,
		cache:        cacheManager,
		orchestrator: deps.Orchestrator,
		randomizer:   randomizer,
		publisher:    deps.Publisher,
		grades:       deps.Grades,
		localizer:    deps.Localizer,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Create(ctx context.Context, assignmentID uint, req *CreateAttemptRequest, session models.UserSession) (*AttemptView, error) {
	s.logger.Info("Creating assignment attempt",
		"assignment_id", assignmentID,
		"user_id", session.UserID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	attempts, err := s.repo.Attempt().ListByUserAndAssignment(ctx, session.UserID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	if err := ValidateNewAttempt(assignment, attempts, now); err != nil {
		return nil, err
	}

	questions := orderedQuestions(assignment)
	order := make([]uint, len(questions))
	for i, q := range questions {
		order[i] = q.ID
	}
	if assignment.DisplayOrder == models.DisplayOrderRandom {
		order = s.randomizer.Shuffle(order)
	}
	bindings := s.randomizer.Bind(questions)

	attempt := &models.AssignmentAttempt{
		AssignmentID:      assignmentID,
		UserID:            session.UserID,
		CreatedAt:         now,
		QuestionOrder:     order,
		PreferredLanguage: languageOrDefault(req.PreferredLanguage),
	}
	if assignment.AllotedTimeMinutes != nil {
		expiresAt := now.Add(time.Duration(*assignment.AllotedTimeMinutes) * time.Minute)
		attempt.ExpiresAt = &expiresAt
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		// Serialize creation per (assignment, user) and re-check under the lock
		if err := tx.Attempt().LockUserAssignment(ctx, session.UserID, assignmentID); err != nil {
			return err
		}
		current, err := tx.Attempt().ListByUserAndAssignment(ctx, session.UserID, assignmentID)
		if err != nil {
			return fmt.Errorf("failed to list attempts: %w", err)
		}
		if err := ValidateNewAttempt(assignment, current, now); err != nil {
			return err
		}

		if err := tx.Attempt().Create(ctx, attempt); err != nil {
			return err
		}
		for _, b := range bindings {
			b.AssignmentAttemptID = attempt.ID
		}
		return tx.AttemptVariant().CreateBatch(ctx, bindings)
	})
	if err != nil {
		if IsEligibilityError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create attempt transaction: %w", err)
	}

	attempt.QuestionVariants = make([]models.AssignmentAttemptQuestionVariant, len(bindings))
	for i, b := range bindings {
		attempt.QuestionVariants[i] = *b
	}

	s.publish(ctx, events.NewEvent(events.AttemptCreated, events.AttemptCreatedData{
		AttemptID:    attempt.ID,
		AssignmentID: assignmentID,
		UserID:       session.UserID,
		ExpiresAt:    attempt.ExpiresAt,
	}))

	s.logger.Info("Assignment attempt created",
		"attempt_id", attempt.ID,
		"assignment_id", assignmentID,
		"user_id", session.UserID,
		"questions", len(order))

	return s.buildAttemptView(ctx, assignment, attempt, attempt.PreferredLanguage, session)
}

func (s *attemptService) Submit(ctx context.Context, assignmentID, attemptID uint, req *SubmitAttemptRequest, session models.UserSession) (*SubmitAttemptResponse, error) {
	s.logger.Info("Submitting assignment attempt",
		"attempt_id", attemptID,
		"user_id", session.UserID,
		"responses", len(req.ResponsesForQuestions))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.getAttempt(ctx, assignmentID, attemptID, session, "submit", false)
	if err != nil {
		return nil, err
	}
	if attempt.Submitted {
		return nil, ErrAttemptAlreadySubmitted
	}

	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	lang := languageOrDefault(req.Language, attempt.PreferredLanguage)

	if IsAttemptExpired(attempt.ExpiresAt, s.now()) {
		return s.submitExpired(ctx, assignment, attempt, lang, session)
	}

	questions, err := s.translatedQuestions(ctx, assignment, attempt, lang)
	if err != nil {
		return nil, err
	}

	graded, err := s.orchestrator.GradeQuestions(ctx, &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: assignment,
		Responses:  req.ResponsesForQuestions,
		Role:       session.Role,
		Language:   lang,
		Questions:  questions,
	})
	if err != nil {
		s.observeSubmission("failed")
		return nil, err
	}

	if err := CheckSubmissionDeadline(attempt.ExpiresAt, s.now()); err != nil {
		s.observeSubmission("failed")
		return nil, err
	}

	earned := earnedPoints(graded)
	possible := possiblePoints(questions, attempt.QuestionOrder)
	grade := computeGrade(earned, possible)

	if session.GradingCallbackRequired {
		if err := s.sendGrade(ctx, session, attempt, grade); err != nil {
			s.observeSubmission("failed")
			return nil, err
		}
	}

	message := s.localizer.GetString("submissionSuccess", lang, nil)
	attempt.Grade = &grade
	attempt.Comments = &message

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.orchestrator.PersistResponses(ctx, tx, attempt.ID, graded); err != nil {
			return err
		}
		return tx.Attempt().MarkSubmitted(ctx, attempt)
	})
	if err != nil {
		s.observeSubmission("failed")
		if session.GradingCallbackRequired {
			// The LMS already holds this grade and needs reconciling
			s.logger.Error("Grade sent to LMS but attempt not persisted",
				"attempt_id", attempt.ID,
				"user_id", attempt.UserID,
				"grade", grade,
				"error", err)
		}
		if errors.Is(err, repositories.ErrStaleUpdate) {
			return nil, ErrAttemptAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to submit attempt transaction: %w", err)
	}

	s.observeSubmission("graded")
	s.publish(ctx, events.NewEvent(events.AttemptSubmitted, events.AttemptSubmittedData{
		AttemptID:      attempt.ID,
		AssignmentID:   assignmentID,
		UserID:         attempt.UserID,
		Grade:          grade,
		PointsEarned:   earned,
		PointsPossible: possible,
	}))

	s.logger.Info("Assignment attempt submitted",
		"attempt_id", attempt.ID,
		"grade", grade,
		"points_earned", earned,
		"points_possible", possible)

	response := newSubmitResponse(attempt, graded, earned, possible, message)
	if !session.IsAuthor() {
		applySubmitVisibility(response, assignment)
	}
	return response, nil
}

// submitExpired closes an attempt past its deadline with a zero grade. No
// grading runs.
func (s *attemptService) submitExpired(ctx context.Context, assignment *models.Assignment, attempt *models.AssignmentAttempt, lang string, session models.UserSession) (*SubmitAttemptResponse, error) {
	grade := 0.0
	message := s.localizer.GetString("deadlinePassed", lang, nil)
	attempt.Grade = &grade
	attempt.Comments = &message

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Attempt().MarkSubmitted(ctx, attempt)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrStaleUpdate) {
			return nil, ErrAttemptAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to submit expired attempt: %w", err)
	}

	s.observeSubmission("expired")
	s.publish(ctx, events.NewEvent(events.AttemptSubmitted, events.AttemptSubmittedData{
		AttemptID:    attempt.ID,
		AssignmentID: attempt.AssignmentID,
		UserID:       attempt.UserID,
		Expired:      true,
	}))

	s.logger.Info("Expired attempt submitted with zero grade",
		"attempt_id", attempt.ID,
		"expires_at", attempt.ExpiresAt)

	response := newSubmitResponse(attempt, nil, 0, 0, message)
	if !session.IsAuthor() {
		applySubmitVisibility(response, assignment)
	}
	return response, nil
}

func (s *attemptService) Preview(ctx context.Context, assignmentID uint, req *PreviewAttemptRequest, session models.UserSession) (*SubmitAttemptResponse, error) {
	if !session.IsAuthor() {
		return nil, NewPermissionError(session.UserID, assignmentID, "assignment", "preview", "insufficient role permissions")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	lang := languageOrDefault(req.Language)

	questions := make(map[uint]*models.EffectiveQuestion, len(req.Questions))
	order := make([]uint, 0, len(req.Questions))
	for i := range req.Questions {
		eq := previewQuestion(assignmentID, &req.Questions[i], lang)
		questions[eq.ID] = eq
		order = append(order, eq.ID)
	}

	graded, err := s.orchestrator.SubmitQuestions(ctx, &GradeQuestionsInput{
		AttemptID:  models.PreviewAttemptID,
		Assignment: assignment,
		Responses:  req.ResponsesForQuestions,
		Role:       session.Role,
		Language:   lang,
		Questions:  questions,
	})
	if err != nil {
		return nil, err
	}

	earned := earnedPoints(graded)
	possible := possiblePoints(questions, order)
	response := newSubmitResponse(&models.AssignmentAttempt{ID: models.PreviewAttemptID}, graded, earned, possible, "")
	response.Submitted = false
	return response, nil
}

func (s *attemptService) Get(ctx context.Context, assignmentID, attemptID uint, language string, session models.UserSession) (*AttemptView, error) {
	attempt, err := s.getAttempt(ctx, assignmentID, attemptID, session, "view", true)
	if err != nil {
		return nil, err
	}
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return s.buildAttemptView(ctx, assignment, attempt, languageOrDefault(language, attempt.PreferredLanguage), session)
}

func (s *attemptService) List(ctx context.Context, assignmentID uint, filters repositories.AttemptFilters, session models.UserSession) (*AttemptListResponse, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !session.IsAuthor() {
		userID := session.UserID
		filters.UserID = &userID
	}

	attempts, total, err := s.repo.Attempt().ListByAssignment(ctx, assignmentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	now := s.now()
	summaries := make([]*AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		summary := &AttemptSummary{
			ID:        a.ID,
			UserID:    a.UserID,
			State:     AttemptState(a, now),
			CreatedAt: a.CreatedAt,
			ExpiresAt: a.ExpiresAt,
			Submitted: a.Submitted,
			Grade:     a.Grade,
		}
		if !session.IsAuthor() && !assignment.ShowAssignmentScore {
			summary.Grade = nil
		}
		summaries = append(summaries, summary)
	}
	return &AttemptListResponse{Attempts: summaries, Total: total}, nil
}

// ===== FEEDBACK & REGRADING =====

func (s *attemptService) SubmitFeedback(ctx context.Context, assignmentID, attemptID uint, req *FeedbackRequest, session models.UserSession) (*models.AssignmentFeedback, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	attempt, err := s.getAttempt(ctx, assignmentID, attemptID, session, "give_feedback", false)
	if err != nil {
		return nil, err
	}
	if !attempt.Submitted {
		return nil, ErrAttemptNotSubmitted
	}

	feedback := &models.AssignmentFeedback{
		AssignmentAttemptID: attempt.ID,
		AssignmentID:        assignmentID,
		UserID:              session.UserID,
		Comments:            req.Comments,
		AIGradingRating:     req.AIGradingRating,
		AssignmentRating:    req.AssignmentRating,
		AllowContact:        req.AllowContact,
	}
	if err := s.repo.Feedback().Upsert(ctx, feedback); err != nil {
		return nil, err
	}

	s.logger.Info("Attempt feedback saved", "attempt_id", attempt.ID, "user_id", session.UserID)
	return feedback, nil
}

func (s *attemptService) GetFeedback(ctx context.Context, assignmentID, attemptID uint, session models.UserSession) (*models.AssignmentFeedback, error) {
	attempt, err := s.getAttempt(ctx, assignmentID, attemptID, session, "view_feedback", true)
	if err != nil {
		return nil, err
	}
	feedback, err := s.repo.Feedback().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return feedback, nil
}

func (s *attemptService) RequestRegrading(ctx context.Context, assignmentID, attemptID uint, req *RegradingRequest, session models.UserSession) (*models.RegradingRequest, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	attempt, err := s.getAttempt(ctx, assignmentID, attemptID, session, "request_regrading", false)
	if err != nil {
		return nil, err
	}
	if !attempt.Submitted {
		return nil, ErrAttemptNotSubmitted
	}

	_, err = s.repo.Regrading().GetPendingByAttempt(ctx, attempt.ID)
	switch {
	case err == nil:
		return nil, ErrRegradingPending
	case !repositories.IsNotFoundError(err):
		return nil, err
	}

	request := &models.RegradingRequest{
		AssignmentAttemptID: attempt.ID,
		AssignmentID:        assignmentID,
		UserID:              session.UserID,
		Reason:              req.Reason,
		Status:              models.RegradingPending,
	}
	if err := s.repo.Regrading().Create(ctx, request); err != nil {
		return nil, err
	}

	// Reviewers must see the question set as stored, not a stale rendering
	cache.InvalidateAttemptCache(ctx, s.cache, attempt.ID)

	s.publish(ctx, events.NewEvent(events.RegradingRequested, events.RegradingRequestedData{
		RequestID:    request.ID,
		AttemptID:    attempt.ID,
		AssignmentID: assignmentID,
		UserID:       session.UserID,
		Reason:       req.Reason,
	}))

	s.logger.Info("Regrading requested", "attempt_id", attempt.ID, "request_id", request.ID)
	return request, nil
}
