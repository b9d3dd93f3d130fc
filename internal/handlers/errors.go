package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attempt-grading-service/internal/services"
	"github.com/SAP-F-2025/attempt-grading-service/internal/validator"
)

type questionFailure struct {
	Index      int    `json:"index"`
	QuestionID uint   `json:"questionId"`
	Error      string `json:"error"`
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]any{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]any{
				"resource": permissionError.ResourceType,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var gradingError *services.SubmissionGradingError
	if errors.As(err, &gradingError) {
		failures := make([]questionFailure, 0, len(gradingError.Failures))
		for _, f := range gradingError.Failures {
			failures = append(failures, questionFailure{Index: f.Index, QuestionID: f.QuestionID, Error: f.Err.Error()})
		}
		status, message := http.StatusBadGateway, "Grading failed"
		if gradingError.OnlyValidationFailures() {
			status, message = http.StatusBadRequest, "Invalid responses"
		} else {
			h.LogError(c, err, "Grading failed")
		}
		c.JSON(status, ErrorResponse{Message: message, Details: failures})
		return
	}

	switch {
	case errors.Is(err, services.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Assignment not found"})
	case errors.Is(err, services.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Attempt not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrFeedbackNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Feedback not found"})
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt already submitted"})
	case errors.Is(err, services.ErrAttemptNotSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Attempt not submitted"})
	case errors.Is(err, services.ErrRegradingPending):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Regrading already requested"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
