package postgres

import (
	"hash/fnv"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

var attemptSortColumns = map[string]string{
	"created_at": "created_at",
	"grade":      "grade",
}

// applyAttemptFilters applies common filters to attempt queries
func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Submitted != nil {
		query = query.Where("submitted = ?", *filters.Submitted)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func applyAttemptPaginationAndSort(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	column, ok := attemptSortColumns[filters.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	query = query.Order(column + " " + order).Order("id " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

// advisoryLockKeys maps (assignment, user) onto the two int4 keys of
// pg_advisory_xact_lock.
func advisoryLockKeys(assignmentID uint, userID string) (int32, int32) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int32(assignmentID), int32(h.Sum32())
}
