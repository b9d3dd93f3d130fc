package services

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/SAP-F-2025/attempt-grading-service/internal/cache"
	"github.com/SAP-F-2025/attempt-grading-service/internal/events"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

const defaultLanguage = "en"

func languageOrDefault(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return defaultLanguage
}

// ===== LOADING =====

func (s *attemptService) getAssignment(ctx context.Context, id uint) (*models.Assignment, error) {
	assignment, err := s.repo.Assignment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	// A cached copy can predate questions added since it was stored
	if !hasOrderedQuestions(assignment) {
		cache.InvalidateAssignmentCache(ctx, s.cache, id)
		assignment, err = s.repo.Assignment().GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to reload assignment: %w", err)
		}
	}
	return assignment, nil
}

func hasOrderedQuestions(a *models.Assignment) bool {
	for _, id := range a.QuestionOrder {
		if !slices.ContainsFunc(a.Questions, func(q models.Question) bool { return q.ID == id }) {
			return false
		}
	}
	return true
}

// getAttempt loads an attempt of the assignment and checks the caller may act on it
func (s *attemptService) getAttempt(ctx context.Context, assignmentID, attemptID uint, session models.UserSession, action string, allowAuthor bool) (*models.AssignmentAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.AssignmentID != assignmentID {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != session.UserID && !(allowAuthor && session.IsAuthor()) {
		return nil, NewPermissionError(session.UserID, attemptID, "attempt", action, "not owned by user")
	}
	return attempt, nil
}

// orderedQuestions returns live questions in the assignment's explicit order,
// or by ascending id when none is set.
func orderedQuestions(a *models.Assignment) []models.Question {
	live := a.LiveQuestions()
	if len(a.QuestionOrder) == 0 {
		slices.SortFunc(live, func(x, y models.Question) int { return cmp.Compare(x.ID, y.ID) })
		return live
	}

	byID := make(map[uint]models.Question, len(live))
	for _, q := range live {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(a.QuestionOrder))
	for _, id := range a.QuestionOrder {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
			delete(byID, id)
		}
	}
	return ordered
}

// ===== EFFECTIVE QUESTIONS =====

// translatedQuestions returns the attempt's questions resolved and translated
// into lang. Bindings never change, so the result is cached per attempt.
func (s *attemptService) translatedQuestions(ctx context.Context, assignment *models.Assignment, attempt *models.AssignmentAttempt, lang string) (map[uint]*models.EffectiveQuestion, error) {
	key := cache.TranslatedQuestionsKey(attempt.ID, lang)
	return cache.CacheOrExecute(ctx, s.cache.Translation, key, func() (map[uint]*models.EffectiveQuestion, error) {
		return s.effectiveQuestions(ctx, assignment, attempt, lang)
	})
}

func (s *attemptService) effectiveQuestions(ctx context.Context, assignment *models.Assignment, attempt *models.AssignmentAttempt, lang string) (map[uint]*models.EffectiveQuestion, error) {
	byID := make(map[uint]*models.Question, len(assignment.Questions))
	for i := range assignment.Questions {
		byID[assignment.Questions[i].ID] = &assignment.Questions[i]
	}

	translations, err := s.repo.Translation().ListByQuestionsAndLanguage(ctx, attempt.QuestionOrder, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	out := make(map[uint]*models.EffectiveQuestion, len(attempt.QuestionOrder))
	for _, id := range attempt.QuestionOrder {
		q, ok := byID[id]
		if !ok {
			s.logger.Warn("Attempt references a missing question", "attempt_id", attempt.ID, "question_id", id)
			continue
		}
		binding := attempt.BindingFor(id)
		var variant *models.QuestionVariant
		if binding != nil && binding.QuestionVariantID != nil {
			for i := range q.Variants {
				if q.Variants[i].ID == *binding.QuestionVariantID {
					variant = &q.Variants[i]
					break
				}
			}
		}
		out[id] = Translate(Resolve(q, binding, variant), translations, lang)
	}
	return out, nil
}

func previewQuestion(assignmentID uint, pq *PreviewQuestionRequest, lang string) *models.EffectiveQuestion {
	eq := &models.EffectiveQuestion{
		ID:                        pq.ID,
		AssignmentID:              assignmentID,
		Question:                  pq.Question,
		Type:                      pq.Type,
		TotalPoints:               pq.TotalPoints,
		Choices:                   slices.Clone(pq.Choices),
		BaseChoices:               slices.Clone(pq.Choices),
		SourceChoices:             slices.Clone(pq.Choices),
		Scoring:                   pq.Scoring,
		Answer:                    pq.Answer,
		MaxWords:                  pq.MaxWords,
		MaxCharacters:             pq.MaxCharacters,
		GradingContextQuestionIDs: pq.GradingContextQuestionIDs,
		Language:                  lang,
	}
	if pq.ResponseType != nil {
		eq.ResponseType = *pq.ResponseType
	}
	return eq
}

// ===== SCORING =====

func earnedPoints(graded []*GradedQuestion) float64 {
	var total float64
	for _, g := range graded {
		total += g.Points
	}
	return total
}

func possiblePoints(questions map[uint]*models.EffectiveQuestion, order []uint) float64 {
	var total float64
	for _, id := range order {
		if q, ok := questions[id]; ok {
			total += q.TotalPoints
		}
	}
	return total
}

// computeGrade is earned/possible as a fraction in [0, 1]
func computeGrade(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return min(max(earned/possible, 0), 1)
}

// sendGrade reports the best grade the user has reached so far
func (s *attemptService) sendGrade(ctx context.Context, session models.UserSession, attempt *models.AssignmentAttempt, grade float64) error {
	score := grade
	best, err := s.repo.Attempt().BestGrade(ctx, attempt.UserID, attempt.AssignmentID)
	if err != nil {
		return err
	}
	if best != nil {
		score = max(score, *best)
	}
	if err := s.grades.SendGrade(ctx, session.GradeEndpoint, session.AuthCookie, score); err != nil {
		return fmt.Errorf("failed to send grade: %w", err)
	}
	s.logger.Info("Grade sent to platform", "attempt_id", attempt.ID, "score", score)
	return nil
}

func (s *attemptService) observeSubmission(result string) {
	if s.metrics != nil {
		s.metrics.ObserveSubmission(result)
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// ===== RESPONSES =====

func newSubmitResponse(attempt *models.AssignmentAttempt, graded []*GradedQuestion, earned, possible float64, message string) *SubmitAttemptResponse {
	grade := computeGrade(earned, possible)
	if attempt.Grade != nil {
		grade = *attempt.Grade
	}

	results := make([]*QuestionResult, 0, len(graded))
	for _, g := range graded {
		points := g.Points
		results = append(results, &QuestionResult{
			QuestionID:  g.QuestionID,
			Question:    g.Question,
			TotalPoints: g.TotalPoints,
			Points:      &points,
			Feedback:    g.Feedback,
		})
	}

	return &SubmitAttemptResponse{
		ID:                    attempt.ID,
		Success:               true,
		Submitted:             true,
		Grade:                 &grade,
		TotalPointsEarned:     &earned,
		TotalPossiblePoints:   possible,
		FeedbacksForQuestions: results,
		Message:               message,
	}
}

// applySubmitVisibility nulls what the assignment hides from learners
func applySubmitVisibility(r *SubmitAttemptResponse, a *models.Assignment) {
	if !a.ShowAssignmentScore {
		r.Grade = nil
		r.TotalPointsEarned = nil
	}
	for _, q := range r.FeedbacksForQuestions {
		if !a.ShowQuestionScore {
			q.Points = nil
		}
		if !a.ShowSubmissionFeedback {
			q.Feedback = nil
		}
	}
}

// buildAttemptView merges the bound questions, translations and latest
// responses of an attempt. Learners get a stripped view.
func (s *attemptService) buildAttemptView(ctx context.Context, assignment *models.Assignment, attempt *models.AssignmentAttempt, lang string, session models.UserSession) (*AttemptView, error) {
	learner := !session.IsAuthor()

	view := &AttemptView{
		ID:                     attempt.ID,
		AssignmentID:           attempt.AssignmentID,
		UserID:                 attempt.UserID,
		State:                  AttemptState(attempt, s.now()),
		CreatedAt:              attempt.CreatedAt,
		ExpiresAt:              attempt.ExpiresAt,
		Submitted:              attempt.Submitted,
		Grade:                  attempt.Grade,
		PassingGrade:           assignment.PassingGrade,
		PreferredLanguage:      attempt.PreferredLanguage,
		Comments:               attempt.Comments,
		ShowSubmissionFeedback: assignment.ShowSubmissionFeedback,
		ShowQuestionScore:      assignment.ShowQuestionScore,
	}
	if learner && !assignment.ShowAssignmentScore {
		view.Grade = nil
	}
	if learner && attempt.Submitted && !assignment.ShowQuestions {
		return view, nil
	}

	questions, err := s.translatedQuestions(ctx, assignment, attempt, lang)
	if err != nil {
		return nil, err
	}
	translations, err := s.repo.Translation().ListByQuestions(ctx, attempt.QuestionOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	responses := map[uint]*models.QuestionResponse{}
	if attempt.ID != 0 {
		rows, err := s.repo.QuestionResponse().ListByAttempt(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load question responses: %w", err)
		}
		for _, r := range rows {
			responses[r.QuestionID] = r
		}
	}

	for _, id := range attempt.QuestionOrder {
		eq, ok := questions[id]
		if !ok {
			continue
		}
		qv := NewQuestionView(eq, translations)
		if r, ok := responses[id]; ok {
			qv.Response = responseView(r)
		}
		if learner {
			StripForLearner(qv)
			applyResponseVisibility(qv.Response, assignment)
		}
		view.Questions = append(view.Questions, qv)
	}
	return view, nil
}

func responseView(r *models.QuestionResponse) *QuestionResponseView {
	points := r.Points
	view := &QuestionResponseView{
		ID:       r.ID,
		Points:   &points,
		Feedback: r.Feedback,
		GradedAt: r.GradedAt,
	}
	if len(r.LearnerResponse) > 0 {
		view.LearnerResponse = json.RawMessage(r.LearnerResponse)
	}
	return view
}

func applyResponseVisibility(r *QuestionResponseView, a *models.Assignment) {
	if r == nil {
		return
	}
	if !a.ShowQuestionScore {
		r.Points = nil
	}
	if !a.ShowSubmissionFeedback {
		r.Feedback = nil
	}
}
