package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// essayAssignment has five 5-point text questions with ids 51..55
func essayAssignment() *models.Assignment {
	a := &models.Assignment{ID: 5, Name: "Essays", NumAttempts: models.UnlimitedAttempts}
	for i := range 5 {
		id := uint(51 + i)
		a.Questions = append(a.Questions, models.Question{
			ID:           id,
			AssignmentID: 5,
			Question:     fmt.Sprintf("Essay %d", i+1),
			Type:         models.QuestionText,
			TotalPoints:  5,
		})
		a.QuestionOrder = append(a.QuestionOrder, id)
	}
	return a
}

func essayAttempt(h *harness, a *models.Assignment) *models.AssignmentAttempt {
	attempt := &models.AssignmentAttempt{
		AssignmentID:  a.ID,
		UserID:        learner.UserID,
		CreatedAt:     testStart,
		QuestionOrder: datatypes.JSONSlice[uint](a.QuestionOrder),
	}
	h.repo.addAttempt(attempt)
	return attempt
}

func essayResponses(a *models.Assignment) []models.QuestionAnswer {
	var responses []models.QuestionAnswer
	for i := len(a.QuestionOrder) - 1; i >= 0; i-- {
		responses = append(responses, models.QuestionAnswer{
			QuestionID:          a.QuestionOrder[i],
			LearnerTextResponse: ptr("An answer"),
		})
	}
	return responses
}

func TestOrchestrator_PreservesInputOrder(t *testing.T) {
	a := essayAssignment()
	h := newHarness(t, a)
	h.oracle.delay = 5 * time.Millisecond
	attempt := essayAttempt(h, a)
	responses := essayResponses(a)

	graded, err := h.orchestrator.SubmitQuestions(t.Context(), &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: a,
		Responses:  responses,
		Role:       models.RoleLearner,
	})
	require.NoError(t, err)
	require.Len(t, graded, 5)
	for i, g := range graded {
		assert.Equal(t, responses[i].QuestionID, g.QuestionID)
		assert.InDelta(t, 4, g.Points, 1e-9)
		assert.Equal(t, "text", g.Strategy)
	}
	assert.Equal(t, 5, h.repo.responseCount())
	assert.Equal(t, 5, h.oracle.callCount())
}

func TestOrchestrator_OneFailureFailsTheBatch(t *testing.T) {
	a := essayAssignment()
	h := newHarness(t, a)
	h.oracle.failures = map[string]error{"Essay 3": errOracleDown}
	attempt := essayAttempt(h, a)

	_, err := h.orchestrator.SubmitQuestions(t.Context(), &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: a,
		Responses:  essayResponses(a),
		Role:       models.RoleLearner,
	})

	var gradingErr *SubmissionGradingError
	require.ErrorAs(t, err, &gradingErr)
	require.Len(t, gradingErr.Failures, 1)
	assert.Equal(t, uint(53), gradingErr.Failures[0].QuestionID)
	assert.Equal(t, 2, gradingErr.Failures[0].Index)

	// Every other question was still graded, but nothing is stored
	assert.Equal(t, 5, h.oracle.callCount())
	assert.Zero(t, h.repo.responseCount())
}

func TestOrchestrator_ValidationFailures(t *testing.T) {
	a := essayAssignment()
	a.Questions[0].MaxWords = ptr(2)
	h := newHarness(t, a)
	attempt := essayAttempt(h, a)

	_, err := h.orchestrator.GradeQuestions(t.Context(), &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: a,
		Responses: []models.QuestionAnswer{
			{QuestionID: 51, LearnerTextResponse: ptr("far too many words here")},
		},
	})
	var gradingErr *SubmissionGradingError
	require.ErrorAs(t, err, &gradingErr)
	assert.True(t, gradingErr.OnlyValidationFailures())
}

func TestOrchestrator_EmptyResponseShortCircuits(t *testing.T) {
	a := essayAssignment()
	h := newHarness(t, a)
	attempt := essayAttempt(h, a)

	graded, err := h.orchestrator.GradeQuestions(t.Context(), &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: a,
		Responses:  []models.QuestionAnswer{{QuestionID: 52}},
		Language:   "fr",
	})
	require.NoError(t, err)
	require.Len(t, graded, 1)
	assert.Zero(t, graded[0].Points)
	assert.Equal(t, testCatalog.GetString("noResponse", "fr", nil), graded[0].Feedback[0].Feedback)
	assert.Equal(t, true, graded[0].Metadata["empty"])
	assert.Zero(t, h.oracle.callCount())
	assert.Zero(t, h.repo.auditCount())
}

func TestOrchestrator_RejectsForeignQuestions(t *testing.T) {
	a := essayAssignment()
	h := newHarness(t, a, newTestAssignment())
	attempt := essayAttempt(h, a)

	_, err := h.orchestrator.GradeQuestions(t.Context(), &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: a,
		Responses:  []models.QuestionAnswer{{QuestionID: textQuestionID, LearnerTextResponse: ptr("x")}},
	})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestOrchestrator_PreviewRequiresAuthor(t *testing.T) {
	a := essayAssignment()
	h := newHarness(t, a)
	in := &GradeQuestionsInput{
		AttemptID:  models.PreviewAttemptID,
		Assignment: a,
		Responses:  []models.QuestionAnswer{{QuestionID: 51, LearnerTextResponse: ptr("draft")}},
		Role:       models.RoleLearner,
	}

	_, err := h.orchestrator.SubmitQuestions(t.Context(), in)
	assert.True(t, IsPermissionError(err))

	in.Role = models.RoleAdmin
	graded, err := h.orchestrator.SubmitQuestions(t.Context(), in)
	require.NoError(t, err)
	assert.Len(t, graded, 1)
	assert.Zero(t, h.repo.responseCount())
}

func TestOrchestrator_GradingContextUsesSameBatch(t *testing.T) {
	a := essayAssignment()
	a.Questions[1].GradingContextQuestionIDs = datatypes.JSONSlice[uint]{51}
	h := newHarness(t, a)
	attempt := essayAttempt(h, a)

	in := &GradeQuestionsInput{
		AttemptID:  attempt.ID,
		Attempt:    attempt,
		Assignment: a,
		Responses: []models.QuestionAnswer{
			{QuestionID: 51, LearnerTextResponse: ptr("My thesis")},
			{QuestionID: 52, LearnerTextResponse: ptr("Building on it")},
		},
	}
	eq, err := h.orchestrator.resolveQuestion(t.Context(), in, 52)
	require.NoError(t, err)

	gctx := h.orchestrator.gradingContext(t.Context(), in, eq)
	require.Len(t, gctx.PreviousAnswers, 1)
	assert.Equal(t, "Essay 1", gctx.PreviousAnswers[0].Question)
	assert.Equal(t, "My thesis", gctx.PreviousAnswers[0].Answer)
}
