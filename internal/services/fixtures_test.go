package services

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/attempt-grading-service/internal/events"
	"github.com/SAP-F-2025/attempt-grading-service/internal/grading"
	"github.com/SAP-F-2025/attempt-grading-service/internal/localization"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
)

var (
	testCatalog = localization.MustLoadCatalog()
	testStart   = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	learner = models.UserSession{UserID: "learner-1", Role: models.RoleLearner}
	author  = models.UserSession{UserID: "author-1", Role: models.RoleAuthor}
)

const (
	choiceQuestionID    uint = 11
	trueFalseQuestionID uint = 12
	textQuestionID      uint = 13
)

func ptr[T any](v T) *T { return &v }

// newTestAssignment returns an assignment worth 8 points: a 2 point single
// choice, a 1 point true/false and a 5 point text question.
func newTestAssignment() *models.Assignment {
	return &models.Assignment{
		ID:                     1,
		Name:                   "Foundations quiz",
		Instructions:           ptr("Answer every question."),
		QuestionOrder:          datatypes.JSONSlice[uint]{choiceQuestionID, trueFalseQuestionID, textQuestionID},
		DisplayOrder:           models.DisplayOrderSequential,
		NumAttempts:            models.UnlimitedAttempts,
		PassingGrade:           50,
		ShowAssignmentScore:    true,
		ShowSubmissionFeedback: true,
		ShowQuestionScore:      true,
		ShowQuestions:          true,
		CreatedBy:              author.UserID,
		Questions: []models.Question{
			{
				ID:           choiceQuestionID,
				AssignmentID: 1,
				Question:     "Which number is prime?",
				Type:         models.QuestionSingleCorrect,
				TotalPoints:  2,
				Choices: datatypes.JSONSlice[models.Choice]{
					{ID: ptr(1), Choice: "4", Points: 0},
					{ID: ptr(2), Choice: "7", IsCorrect: true, Points: 2, Feedback: "Seven has no divisors."},
				},
			},
			{
				ID:           trueFalseQuestionID,
				AssignmentID: 1,
				Question:     "Water boils at 100C at sea level.",
				Type:         models.QuestionTrueFalse,
				TotalPoints:  1,
				Answer:       ptr(true),
			},
			{
				ID:           textQuestionID,
				AssignmentID: 1,
				Question:     "Explain recursion.",
				Type:         models.QuestionText,
				TotalPoints:  5,
			},
		},
	}
}

func correctResponses() []models.QuestionAnswer {
	return []models.QuestionAnswer{
		{QuestionID: choiceQuestionID, LearnerChoices: []string{"7"}},
		{QuestionID: trueFalseQuestionID, LearnerAnswerChoice: &models.TrueFalseValue{Bool: ptr(true)}},
		{QuestionID: textQuestionID, LearnerTextResponse: ptr("A function that calls itself on a smaller input.")},
	}
}

// testClock is a settable clock shared by the service and orchestrator
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	repo      *MockRepository
	oracle    *scriptedOracle
	publisher *events.MockEventPublisher
	grades    *recordingGradeSender
	metrics   *countingObserver
	clock     *testClock

	orchestrator *QuestionResponseOrchestrator
	service      *attemptService
}

func newHarness(t *testing.T, assignments ...*models.Assignment) *harness {
	t.Helper()

	h := &harness{
		repo:      NewMockRepository(assignments...),
		oracle:    &scriptedOracle{points: 4},
		publisher: events.NewMockEventPublisher(testLogger),
		grades:    &recordingGradeSender{},
		metrics:   &countingObserver{},
		clock:     &testClock{now: testStart},
	}

	dispatcher := grading.NewDefaultDispatcher(grading.Dependencies{
		Oracle:    h.oracle,
		Localizer: testCatalog,
		Tokens:    localization.NewBooleanTokens(),
		Logger:    testLogger,
	})
	engine := grading.NewEngine(dispatcher, NewRepositoryAuditor(h.repo), h.metrics, testLogger)
	h.orchestrator = NewQuestionResponseOrchestrator(h.repo, engine, nil, testCatalog, testLogger,
		OrchestratorConfig{Concurrency: 4, Timeout: 5 * time.Second})
	h.orchestrator.now = h.clock.Now

	h.service = NewAttemptService(AttemptServiceDeps{
		Repo:         h.repo,
		Orchestrator: h.orchestrator,
		Randomizer:   NewVariantRandomizer(rand.NewPCG(7, 11)),
		Publisher:    h.publisher,
		Grades:       h.grades,
		Localizer:    testCatalog,
		Metrics:      h.metrics,
		Validator:    validator.New(),
		Logger:       testLogger,
	}).(*attemptService)
	h.service.now = h.clock.Now
	return h
}

func (h *harness) eventTypes() []events.EventType {
	var types []events.EventType
	for _, e := range h.publisher.GetPublishedEvents() {
		types = append(types, e.Type)
	}
	return types
}
