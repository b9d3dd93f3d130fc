package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attempt-grading-service/internal/cache"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

type AssignmentPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAssignmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db, cacheManager: cacheManager}
}

func (a *AssignmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	return cache.CacheOrExecute(ctx, a.cacheManager.Assignment, cache.AssignmentKey(id), func() (*models.Assignment, error) {
		var assignment models.Assignment
		err := a.db.WithContext(ctx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order("questions.id ASC")
			}).
			Preload("Questions.Variants", func(db *gorm.DB) *gorm.DB {
				return db.Order("question_variants.id ASC")
			}).
			First(&assignment, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get assignment: %w", err)
		}
		return &assignment, nil
	})
}
