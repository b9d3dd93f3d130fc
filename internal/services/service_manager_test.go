package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/attempt-grading-service/internal/events"
	"github.com/SAP-F-2025/attempt-grading-service/internal/localization"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
)

func TestServiceManager_Lifecycle(t *testing.T) {
	repo := NewMockRepository(newTestAssignment())
	sm := NewServiceManager(ServiceManagerDeps{
		Repo:      repo,
		Publisher: events.NewMockEventPublisher(testLogger),
		Oracle:    &scriptedOracle{points: 5},
		Grades:    &recordingGradeSender{},
		Localizer: testCatalog,
		Tokens:    localization.NewBooleanTokens(),
		Metrics:   &countingObserver{},
		Validator: validator.New(),
		Logger:    testLogger,
	}, ServiceManagerConfig{})

	assert.Panics(t, func() { sm.Attempt() })
	assert.Error(t, sm.HealthCheck(t.Context()))

	require.NoError(t, sm.Initialize(t.Context()))
	require.NoError(t, sm.Initialize(t.Context()))
	assert.NotNil(t, sm.Attempt())
	assert.NotNil(t, sm.Report())
	assert.Equal(t, defaultGradingConcurrency, sm.Orchestrator().config.Concurrency)

	view, err := sm.Attempt().Create(t.Context(), 1, &CreateAttemptRequest{}, learner)
	require.NoError(t, err)
	resp, err := sm.Attempt().Submit(t.Context(), 1, view.ID, &SubmitAttemptRequest{ResponsesForQuestions: correctResponses()}, learner)
	require.NoError(t, err)
	assert.InDelta(t, 1, *resp.Grade, 1e-9)

	assert.NoError(t, sm.HealthCheck(t.Context()))
	repo.pingErr = errors.New("connection refused")
	assert.Error(t, sm.HealthCheck(t.Context()))

	require.NoError(t, sm.Shutdown(t.Context()))
	assert.Error(t, sm.HealthCheck(t.Context()))
}

func TestServiceManager_RequiresRepository(t *testing.T) {
	sm := NewServiceManager(ServiceManagerDeps{Logger: testLogger}, ServiceManagerConfig{})
	assert.Error(t, sm.Initialize(t.Context()))
}
