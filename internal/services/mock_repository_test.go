package services

import (
	"cmp"
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockRepository is an in-memory Repository. WithTransaction restores the
// previous state when the callback fails.
type MockRepository struct {
	mu sync.Mutex

	assignments  map[uint]models.Assignment
	translations []*models.Translation
	attempts     map[uint]models.AssignmentAttempt
	bindings     []models.AssignmentAttemptQuestionVariant
	responses    []models.QuestionResponse
	audits       []models.GradingAudit
	feedback     map[uint]models.AssignmentFeedback
	regrading    []models.RegradingRequest
	nextID       uint

	// Injected failures
	responsesErr error
	pingErr      error
}

func NewMockRepository(assignments ...*models.Assignment) *MockRepository {
	m := &MockRepository{
		assignments: map[uint]models.Assignment{},
		attempts:    map[uint]models.AssignmentAttempt{},
		feedback:    map[uint]models.AssignmentFeedback{},
		nextID:      1000,
	}
	for _, a := range assignments {
		m.assignments[a.ID] = *a
	}
	return m
}

func (m *MockRepository) id() uint {
	m.nextID++
	return m.nextID
}

type mockSnapshot struct {
	attempts  map[uint]models.AssignmentAttempt
	bindings  []models.AssignmentAttemptQuestionVariant
	responses []models.QuestionResponse
	feedback  map[uint]models.AssignmentFeedback
	regrading []models.RegradingRequest
}

func (m *MockRepository) snapshot() mockSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mockSnapshot{
		attempts:  maps.Clone(m.attempts),
		bindings:  slices.Clone(m.bindings),
		responses: slices.Clone(m.responses),
		feedback:  maps.Clone(m.feedback),
		regrading: slices.Clone(m.regrading),
	}
}

func (m *MockRepository) restore(s mockSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = s.attempts
	m.bindings = s.bindings
	m.responses = s.responses
	m.feedback = s.feedback
	m.regrading = s.regrading
}

func (m *MockRepository) Assignment() repositories.AssignmentRepository { return mockAssignments{m} }
func (m *MockRepository) Question() repositories.QuestionRepository     { return mockQuestions{m} }
func (m *MockRepository) Translation() repositories.TranslationRepository {
	return mockTranslations{m}
}
func (m *MockRepository) Attempt() repositories.AttemptRepository { return mockAttempts{m} }
func (m *MockRepository) AttemptVariant() repositories.AttemptVariantRepository {
	return mockBindings{m}
}
func (m *MockRepository) QuestionResponse() repositories.QuestionResponseRepository {
	return mockResponses{m}
}
func (m *MockRepository) GradingAudit() repositories.GradingAuditRepository { return mockAudits{m} }
func (m *MockRepository) Feedback() repositories.FeedbackRepository         { return mockFeedback{m} }
func (m *MockRepository) Regrading() repositories.RegradingRepository       { return mockRegrading{m} }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	before := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(before)
		return err
	}
	return nil
}

func (m *MockRepository) Ping(ctx context.Context) error { return m.pingErr }
func (m *MockRepository) Close() error                   { return nil }

// ===== INSPECTION =====

func (m *MockRepository) storedAttempt(id uint) (models.AssignmentAttempt, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	return a, ok
}

func (m *MockRepository) responseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

func (m *MockRepository) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audits)
}

func (m *MockRepository) addAttempt(a *models.AssignmentAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	}
	m.attempts[a.ID] = *a
}

// ===== SUB REPOSITORIES =====

type mockAssignments struct{ m *MockRepository }

func (r mockAssignments) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a.Questions = slices.Clone(a.Questions)
	return &a, nil
}

type mockQuestions struct{ m *MockRepository }

func (r mockQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.assignments {
		for _, q := range a.Questions {
			if q.ID == id {
				return &q, nil
			}
		}
	}
	return nil, repositories.ErrNotFound
}

func (r mockQuestions) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		q, err := r.GetByID(ctx, id)
		if err == nil {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r mockQuestions) GetVariant(ctx context.Context, id uint) (*models.QuestionVariant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.assignments {
		for _, q := range a.Questions {
			for _, v := range q.Variants {
				if v.ID == id {
					return &v, nil
				}
			}
		}
	}
	return nil, repositories.ErrNotFound
}

type mockTranslations struct{ m *MockRepository }

func (r mockTranslations) ListByQuestions(ctx context.Context, questionIDs []uint) ([]*models.Translation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Translation
	for _, t := range r.m.translations {
		if slices.Contains(questionIDs, t.QuestionID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r mockTranslations) ListByQuestionsAndLanguage(ctx context.Context, questionIDs []uint, languageCode string) ([]*models.Translation, error) {
	all, _ := r.ListByQuestions(ctx, questionIDs)
	var out []*models.Translation
	for _, t := range all {
		if t.LanguageCode == languageCode {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockAttempts struct{ m *MockRepository }

func (r mockAttempts) Create(ctx context.Context, attempt *models.AssignmentAttempt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	attempt.ID = r.m.id()
	stored := *attempt
	stored.QuestionVariants = nil
	r.m.attempts[attempt.ID] = stored
	return nil
}

func (r mockAttempts) GetByID(ctx context.Context, id uint) (*models.AssignmentAttempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.attempts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a.QuestionVariants = nil
	for _, b := range r.m.bindings {
		if b.AssignmentAttemptID == id {
			a.QuestionVariants = append(a.QuestionVariants, b)
		}
	}
	return &a, nil
}

func (r mockAttempts) MarkSubmitted(ctx context.Context, attempt *models.AssignmentAttempt) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.attempts[attempt.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Submitted {
		return repositories.ErrStaleUpdate
	}
	stored.Submitted = true
	stored.Grade = attempt.Grade
	stored.Comments = attempt.Comments
	r.m.attempts[attempt.ID] = stored
	attempt.Submitted = true
	return nil
}

func (r mockAttempts) ListByUserAndAssignment(ctx context.Context, userID string, assignmentID uint) ([]*models.AssignmentAttempt, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.AssignmentAttempt
	for _, a := range r.m.attempts {
		if a.UserID == userID && a.AssignmentID == assignmentID {
			out = append(out, &a)
		}
	}
	slices.SortFunc(out, func(x, y *models.AssignmentAttempt) int { return x.CreatedAt.Compare(y.CreatedAt) })
	return out, nil
}

func (r mockAttempts) ListByAssignment(ctx context.Context, assignmentID uint, filters repositories.AttemptFilters) ([]*models.AssignmentAttempt, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.AssignmentAttempt
	for _, a := range r.m.attempts {
		if a.AssignmentID != assignmentID {
			continue
		}
		if filters.UserID != nil && a.UserID != *filters.UserID {
			continue
		}
		if filters.Submitted != nil && a.Submitted != *filters.Submitted {
			continue
		}
		out = append(out, &a)
	}
	slices.SortFunc(out, func(x, y *models.AssignmentAttempt) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	if filters.SortOrder != "asc" {
		slices.Reverse(out)
	}
	total := int64(len(out))
	if filters.Offset > 0 {
		out = out[min(filters.Offset, len(out)):]
	}
	if filters.Limit > 0 {
		out = out[:min(filters.Limit, len(out))]
	}
	return out, total, nil
}

func (r mockAttempts) BestGrade(ctx context.Context, userID string, assignmentID uint) (*float64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var best *float64
	for _, a := range r.m.attempts {
		if a.UserID != userID || a.AssignmentID != assignmentID || !a.Submitted || a.Grade == nil {
			continue
		}
		if best == nil || *a.Grade > *best {
			g := *a.Grade
			best = &g
		}
	}
	return best, nil
}

func (r mockAttempts) LockUserAssignment(ctx context.Context, userID string, assignmentID uint) error {
	return nil
}

type mockBindings struct{ m *MockRepository }

func (r mockBindings) CreateBatch(ctx context.Context, bindings []*models.AssignmentAttemptQuestionVariant) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, b := range bindings {
		b.ID = r.m.id()
		r.m.bindings = append(r.m.bindings, *b)
	}
	return nil
}

func (r mockBindings) ListByAttempt(ctx context.Context, attemptID uint) ([]*models.AssignmentAttemptQuestionVariant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.AssignmentAttemptQuestionVariant
	for _, b := range r.m.bindings {
		if b.AssignmentAttemptID == attemptID {
			out = append(out, &b)
		}
	}
	return out, nil
}

type mockResponses struct{ m *MockRepository }

func (r mockResponses) CreateBatch(ctx context.Context, responses []*models.QuestionResponse) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, resp := range responses {
		resp.ID = r.m.id()
		r.m.responses = append(r.m.responses, *resp)
	}
	// Rows are written before the error so rollback is observable
	return r.m.responsesErr
}

func (r mockResponses) ListByAttempt(ctx context.Context, attemptID uint) ([]*models.QuestionResponse, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	latest := map[uint]int{}
	var order []uint
	for i, resp := range r.m.responses {
		if resp.AssignmentAttemptID != attemptID {
			continue
		}
		if _, seen := latest[resp.QuestionID]; !seen {
			order = append(order, resp.QuestionID)
		}
		latest[resp.QuestionID] = i
	}
	out := make([]*models.QuestionResponse, 0, len(order))
	for _, qid := range order {
		resp := r.m.responses[latest[qid]]
		out = append(out, &resp)
	}
	return out, nil
}

func (r mockResponses) ListByAttempts(ctx context.Context, attemptIDs []uint) ([]*models.QuestionResponse, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.QuestionResponse
	for _, resp := range r.m.responses {
		if slices.Contains(attemptIDs, resp.AssignmentAttemptID) {
			out = append(out, &resp)
		}
	}
	return out, nil
}

type mockAudits struct{ m *MockRepository }

func (r mockAudits) Create(ctx context.Context, audit *models.GradingAudit) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	audit.ID = r.m.id()
	r.m.audits = append(r.m.audits, *audit)
	return nil
}

type mockFeedback struct{ m *MockRepository }

func (r mockFeedback) Upsert(ctx context.Context, feedback *models.AssignmentFeedback) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing, ok := r.m.feedback[feedback.AssignmentAttemptID]; ok {
		feedback.ID = existing.ID
	} else {
		feedback.ID = r.m.id()
	}
	r.m.feedback[feedback.AssignmentAttemptID] = *feedback
	return nil
}

func (r mockFeedback) GetByAttempt(ctx context.Context, attemptID uint) (*models.AssignmentFeedback, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.feedback[attemptID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &f, nil
}

type mockRegrading struct{ m *MockRepository }

func (r mockRegrading) Create(ctx context.Context, request *models.RegradingRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	request.ID = r.m.id()
	r.m.regrading = append(r.m.regrading, *request)
	return nil
}

func (r mockRegrading) GetPendingByAttempt(ctx context.Context, attemptID uint) (*models.RegradingRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i := len(r.m.regrading) - 1; i >= 0; i-- {
		req := r.m.regrading[i]
		if req.AssignmentAttemptID == attemptID && req.Status == models.RegradingPending {
			return &req, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// ===== COLLABORATORS =====

// scriptedOracle awards a fixed score to every text-like question and fails
// the questions named in failures.
type scriptedOracle struct {
	mu       sync.Mutex
	points   float64
	failures map[string]error
	delay    time.Duration
	calls    int
}

var errOracleDown = errors.New("oracle unavailable")

func (o *scriptedOracle) grade(ctx context.Context, question string) (*oracle.Result, error) {
	if o.delay > 0 {
		select {
		case <-time.After(o.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if err, ok := o.failures[question]; ok {
		return nil, err
	}
	return &oracle.Result{
		TotalPoints: o.points,
		Feedback:    []models.FeedbackItem{{Feedback: "Well argued."}},
	}, nil
}

func (o *scriptedOracle) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

func (o *scriptedOracle) GradeTextBased(ctx context.Context, m *oracle.TextBasedModel, _ uint, _ string) (*oracle.Result, error) {
	return o.grade(ctx, m.Question)
}

func (o *scriptedOracle) GradeFileBased(ctx context.Context, m *oracle.FileBasedModel, _ uint, _ string) (*oracle.Result, error) {
	return o.grade(ctx, m.Question)
}

func (o *scriptedOracle) GradeURLBased(ctx context.Context, m *oracle.URLBasedModel, _ uint, _ string) (*oracle.Result, error) {
	return o.grade(ctx, m.Question)
}

func (o *scriptedOracle) GradePresentation(ctx context.Context, m *oracle.PresentationModel, _ uint, _ string) (*oracle.Result, error) {
	return o.grade(ctx, m.Question)
}

func (o *scriptedOracle) GradeVideoPresentation(ctx context.Context, m *oracle.VideoPresentationModel, _ uint, _ string) (*oracle.Result, error) {
	return o.grade(ctx, m.Question)
}

type recordingGradeSender struct {
	mu     sync.Mutex
	scores []float64
	err    error
}

func (s *recordingGradeSender) SendGrade(ctx context.Context, endpoint, authCookie string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.scores = append(s.scores, score)
	return nil
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *countingObserver) ObserveGrading(string, error, time.Duration) {}

func (o *countingObserver) ObserveSubmission(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string]int{}
	}
	o.results[result]++
}

func (o *countingObserver) count(result string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.results[result]
}
