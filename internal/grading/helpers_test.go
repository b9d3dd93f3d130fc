package grading

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/fetcher"
	"github.com/SAP-F-2025/attempt-grading-service/internal/localization"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/oracle"
)

var (
	testCatalog = localization.MustLoadCatalog()
	testTokens  = localization.NewBooleanTokens()
	testLogger  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type fakeOracle struct {
	mu     sync.Mutex
	result *oracle.Result
	err    error
	calls  []string
	last   any
}

func (f *fakeOracle) respond(kind string, model any) (*oracle.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	f.last = model
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

func (f *fakeOracle) GradeTextBased(_ context.Context, m *oracle.TextBasedModel, _ uint, _ string) (*oracle.Result, error) {
	return f.respond("text", m)
}

func (f *fakeOracle) GradeFileBased(_ context.Context, m *oracle.FileBasedModel, _ uint, _ string) (*oracle.Result, error) {
	return f.respond("file", m)
}

func (f *fakeOracle) GradeURLBased(_ context.Context, m *oracle.URLBasedModel, _ uint, _ string) (*oracle.Result, error) {
	return f.respond("url", m)
}

func (f *fakeOracle) GradePresentation(_ context.Context, m *oracle.PresentationModel, _ uint, _ string) (*oracle.Result, error) {
	return f.respond("presentation", m)
}

func (f *fakeOracle) GradeVideoPresentation(_ context.Context, m *oracle.VideoPresentationModel, _ uint, _ string) (*oracle.Result, error) {
	return f.respond("video_presentation", m)
}

type fakeFetcher struct {
	content fetcher.Content
}

func (f fakeFetcher) Fetch(context.Context, string) fetcher.Content { return f.content }

type fakeFiles map[string][]byte

func (f fakeFiles) Get(_ context.Context, key string) ([]byte, error) {
	if data, ok := f[key]; ok {
		return data, nil
	}
	return nil, errors.New("no such object")
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []*models.GradingAudit
	err     error
}

func (a *fakeAuditor) Record(_ context.Context, entry *models.GradingAudit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

type fakeObserver struct {
	strategies []string
	errs       []error
}

func (o *fakeObserver) ObserveGrading(strategy string, err error, _ time.Duration) {
	o.strategies = append(o.strategies, strategy)
	o.errs = append(o.errs, err)
}

func text(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func boolPtr(b bool) *bool { return &b }
