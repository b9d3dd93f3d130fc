package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/repositories"
	"github.com/SAP-F-2025/attempt-grading-service/internal/services"
	"github.com/SAP-F-2025/attempt-grading-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	reportService  services.ReportService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	reportService services.ReportService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		reportService:  reportService,
	}
}

// CreateAttempt starts a new attempt for the caller
// @Router /assignments/{assignment_id}/attempts [post]
func (h *AttemptHandler) CreateAttempt(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Creating attempt", "assignment_id", assignmentID, "user_id", session.UserID)

	var req services.CreateAttemptRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	attempt, err := h.attemptService.Create(c.Request.Context(), assignmentID, &req, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAttempt grades and finalizes an attempt
// @Router /assignments/{assignment_id}/attempts/{attempt_id} [patch]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	assignmentID, attemptID, ok := h.attemptParams(c)
	if !ok {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "assignment_id", assignmentID, "attempt_id", attemptID)

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.attemptService.Submit(c.Request.Context(), assignmentID, attemptID, &req, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAttempt returns an attempt rendered in the requested language
// @Router /assignments/{assignment_id}/attempts/{attempt_id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	assignmentID, attemptID, ok := h.attemptParams(c)
	if !ok {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Get(c.Request.Context(), assignmentID, attemptID, c.Query("lang"), session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListAttempts lists attempts of an assignment. Learners only see their own.
// @Router /assignments/{assignment_id}/attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	list, err := h.attemptService.List(c.Request.Context(), assignmentID, h.parseAttemptFilters(c), session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// PreviewAttempt grades author-supplied questions without storing anything
// @Router /assignments/{assignment_id}/preview [post]
func (h *AttemptHandler) PreviewAttempt(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Previewing attempt", "assignment_id", assignmentID)

	var req services.PreviewAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.attemptService.Preview(c.Request.Context(), assignmentID, &req, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportAttempts streams an xlsx report of the assignment's attempts
// @Router /assignments/{assignment_id}/attempts/export [get]
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	assignmentID := h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting attempts", "assignment_id", assignmentID)

	data, err := h.reportService.ExportAttempts(c.Request.Context(), assignmentID, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="assignment-%d-attempts.xlsx"`, assignmentID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ===== FEEDBACK & REGRADING =====

// SubmitFeedback creates or replaces the caller's feedback on an attempt
// @Router /assignments/{assignment_id}/attempts/{attempt_id}/feedback [post]
func (h *AttemptHandler) SubmitFeedback(c *gin.Context) {
	assignmentID, attemptID, ok := h.attemptParams(c)
	if !ok {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	var req services.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	feedback, err := h.attemptService.SubmitFeedback(c.Request.Context(), assignmentID, attemptID, &req, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

// @Router /assignments/{assignment_id}/attempts/{attempt_id}/feedback [get]
func (h *AttemptHandler) GetFeedback(c *gin.Context) {
	assignmentID, attemptID, ok := h.attemptParams(c)
	if !ok {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	feedback, err := h.attemptService.GetFeedback(c.Request.Context(), assignmentID, attemptID, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// RequestRegrading opens a regrading request on a submitted attempt
// @Router /assignments/{assignment_id}/attempts/{attempt_id}/regrade [post]
func (h *AttemptHandler) RequestRegrading(c *gin.Context) {
	assignmentID, attemptID, ok := h.attemptParams(c)
	if !ok {
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Requesting regrading", "assignment_id", assignmentID, "attempt_id", attemptID)

	var req services.RegradingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	request, err := h.attemptService.RequestRegrading(c.Request.Context(), assignmentID, attemptID, &req, session)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ===== HELPERS =====

func (h *AttemptHandler) attemptParams(c *gin.Context) (assignmentID, attemptID uint, ok bool) {
	assignmentID = h.parseIDParam(c, "assignment_id")
	if assignmentID == 0 {
		return 0, 0, false
	}
	attemptID = h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return 0, 0, false
	}
	return assignmentID, attemptID, true
}

func (h *AttemptHandler) session(c *gin.Context) (models.UserSession, bool) {
	session, err := GetSessionFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return session, false
	}
	return session, true
}

func (h *AttemptHandler) parseAttemptFilters(c *gin.Context) repositories.AttemptFilters {
	page := max(h.parseIntQuery(c, "page", 1), 1)
	size := min(max(h.parseIntQuery(c, "size", 10), 1), 100)

	filters := repositories.AttemptFilters{
		Limit:     size,
		Offset:    (page - 1) * size,
		Submitted: h.parseBoolQuery(c, "submitted"),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if userID := c.Query("user_id"); userID != "" {
		filters.UserID = &userID
	}
	return filters
}
