package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/attempt-grading-service/internal/cache"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	assignment       repositories.AssignmentRepository
	question         repositories.QuestionRepository
	translation      repositories.TranslationRepository
	attempt          repositories.AttemptRepository
	attemptVariant   repositories.AttemptVariantRepository
	questionResponse repositories.QuestionResponseRepository
	gradingAudit     repositories.GradingAuditRepository
	feedback         repositories.FeedbackRepository
	regrading        repositories.RegradingRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB           *gorm.DB
	RedisClient  *redis.Client
	CacheManager *cache.CacheManager
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) *PostgreSQLRepository {
	cacheManager := config.CacheManager
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(config.RedisClient, 0)
	}
	return newRepository(config.DB, config.RedisClient, cacheManager)
}

func newRepository(db *gorm.DB, redisClient *redis.Client, cacheManager *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:               db,
		redisClient:      redisClient,
		cacheManager:     cacheManager,
		assignment:       NewAssignmentPostgreSQL(db, cacheManager),
		question:         NewQuestionPostgreSQL(db),
		translation:      NewTranslationPostgreSQL(db),
		attempt:          NewAttemptPostgreSQL(db),
		attemptVariant:   NewAttemptVariantPostgreSQL(db),
		questionResponse: NewQuestionResponsePostgreSQL(db),
		gradingAudit:     NewGradingAuditPostgreSQL(db),
		feedback:         NewFeedbackPostgreSQL(db),
		regrading:        NewRegradingPostgreSQL(db),
	}
}

func (r *PostgreSQLRepository) Assignment() repositories.AssignmentRepository { return r.assignment }

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }

func (r *PostgreSQLRepository) Translation() repositories.TranslationRepository { return r.translation }

func (r *PostgreSQLRepository) Attempt() repositories.AttemptRepository { return r.attempt }

func (r *PostgreSQLRepository) AttemptVariant() repositories.AttemptVariantRepository {
	return r.attemptVariant
}

func (r *PostgreSQLRepository) QuestionResponse() repositories.QuestionResponseRepository {
	return r.questionResponse
}

func (r *PostgreSQLRepository) GradingAudit() repositories.GradingAuditRepository {
	return r.gradingAudit
}

func (r *PostgreSQLRepository) Feedback() repositories.FeedbackRepository { return r.feedback }

func (r *PostgreSQLRepository) Regrading() repositories.RegradingRepository { return r.regrading }

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepository(tx, r.redisClient, r.cacheManager))
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}
