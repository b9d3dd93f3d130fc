package cache

import (
	"context"
	"log/slog"
)

// SafeSet stores a value, logging instead of returning failures.
func SafeSet(ctx context.Context, helper *CacheHelper, key string, value any) {
	if err := helper.Set(ctx, key, value, 0); err != nil {
		slog.ErrorContext(ctx, "Failed to set cache key",
			"error", err,
			"key", helper.GetCacheKey(key))
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// InvalidateAttemptCache drops every translated view of an attempt. It runs
// after a regrade so reviewers see the question set fresh.
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, attemptID uint) {
	SafeInvalidatePattern(ctx, cm.Translation, AttemptPattern(attemptID))
}

// InvalidateAssignmentCache drops the cached assignment.
func InvalidateAssignmentCache(ctx context.Context, cm *CacheManager, assignmentID uint) {
	SafeDelete(ctx, cm.Assignment, AssignmentKey(assignmentID))
}
