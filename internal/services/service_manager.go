package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/SAP-F-2025/attempt-grading-service/internal/cache"
	"github.com/SAP-F-2025/attempt-grading-service/internal/events"
	"github.com/SAP-F-2025/attempt-grading-service/internal/grading"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
)

// MetricsRecorder observes grading and submission outcomes
type MetricsRecorder interface {
	grading.Observer
	SubmissionObserver
}

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Grading OrchestratorConfig

	// RandomSource seeds variant and order randomization; nil uses a random seed
	RandomSource rand.Source
}

// ServiceManagerDeps are the collaborators shared by every service
type ServiceManagerDeps struct {
	Repo      repositories.Repository
	Cache     *cache.CacheManager
	Publisher events.EventPublisher
	Oracle    grading.Oracle
	Fetcher   grading.ContentFetcher
	Files     grading.FileReader
	Grades    GradeSender
	Localizer grading.Localizer
	Tokens    grading.BooleanParser
	Metrics   MetricsRecorder
	Validator *validator.Validator
	Logger    *slog.Logger
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   ServiceManagerDeps
	config ServiceManagerConfig

	// Service instances
	orchestrator   *QuestionResponseOrchestrator
	attemptService AttemptService
	reportService  ReportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps ServiceManagerDeps, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{deps: deps, config: config}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}

	sm.deps.Logger.Info("Initializing service manager")

	dispatcher := grading.NewDefaultDispatcher(grading.Dependencies{
		Oracle:    sm.deps.Oracle,
		Fetcher:   sm.deps.Fetcher,
		Files:     sm.deps.Files,
		Localizer: sm.deps.Localizer,
		Tokens:    sm.deps.Tokens,
		Logger:    sm.deps.Logger,
	})
	engine := grading.NewEngine(dispatcher, NewRepositoryAuditor(sm.deps.Repo), sm.deps.Metrics, sm.deps.Logger)

	sm.orchestrator = NewQuestionResponseOrchestrator(
		sm.deps.Repo, engine, sm.deps.Fetcher, sm.deps.Localizer, sm.deps.Logger, sm.config.Grading)
	sm.deps.Logger.Info("Grading orchestrator initialized",
		"concurrency", sm.orchestrator.config.Concurrency,
		"timeout", sm.orchestrator.config.Timeout)

	sm.attemptService = NewAttemptService(AttemptServiceDeps{
		Repo:         sm.deps.Repo,
		Cache:        sm.deps.Cache,
		Orchestrator: sm.orchestrator,
		Randomizer:   NewVariantRandomizer(sm.config.RandomSource),
		Publisher:    sm.deps.Publisher,
		Grades:       sm.deps.Grades,
		Localizer:    sm.deps.Localizer,
		Metrics:      sm.deps.Metrics,
		Validator:    sm.deps.Validator,
		Logger:       sm.deps.Logger,
	})
	sm.deps.Logger.Info("Attempt service initialized")

	sm.reportService = NewReportService(sm.deps.Repo, sm.deps.Logger)
	sm.deps.Logger.Info("Report service initialized")

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")
	return nil
}

// Service getters
func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.attemptService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.reportService
}

func (sm *serviceManager) Orchestrator() *QuestionResponseOrchestrator {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.orchestrator
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repositories", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}
