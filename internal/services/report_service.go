package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
)

const attemptsSheet = "Attempts"

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

func (s *reportService) ExportAttempts(ctx context.Context, assignmentID uint, session models.UserSession) ([]byte, error) {
	if !session.IsAuthor() {
		return nil, NewPermissionError(session.UserID, assignmentID, "assignment", "export_attempts", "insufficient role permissions")
	}

	assignment, err := s.repo.Assignment().GetByID(ctx, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	attempts, _, err := s.repo.Attempt().ListByAssignment(ctx, assignmentID, repositories.AttemptFilters{SortBy: "created_at", SortOrder: "asc"})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attemptIDs := make([]uint, len(attempts))
	for i, a := range attempts {
		attemptIDs[i] = a.ID
	}
	responses, err := s.repo.QuestionResponse().ListByAttempts(ctx, attemptIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list question responses: %w", err)
	}

	// Rows are ordered by graded_at, so the last write per question wins
	points := make(map[uint]map[uint]float64, len(attempts))
	for _, r := range responses {
		if points[r.AssignmentAttemptID] == nil {
			points[r.AssignmentAttemptID] = map[uint]float64{}
		}
		points[r.AssignmentAttemptID][r.QuestionID] = r.Points
	}

	questions := orderedQuestions(assignment)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", attemptsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Attempt ID", "User ID", "Started At", "Expires At", "Submitted", "Grade"}
	for _, q := range questions {
		header = append(header, fmt.Sprintf("Q%d (%.2f)", q.ID, q.TotalPoints))
	}
	if err := f.SetSheetRow(attemptsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, a := range attempts {
		row := []any{a.ID, a.UserID, a.CreatedAt, "", a.Submitted, ""}
		if a.ExpiresAt != nil {
			row[3] = *a.ExpiresAt
		}
		if a.Grade != nil {
			row[5] = *a.Grade
		}
		for _, q := range questions {
			if p, ok := points[a.ID][q.ID]; ok {
				row = append(row, p)
			} else {
				row = append(row, "")
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(attemptsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write attempt %d: %w", a.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Attempts exported",
		"assignment_id", assignmentID,
		"attempts", len(attempts),
		"user_id", session.UserID)
	return buf.Bytes(), nil
}
