package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/attempt-grading-service/internal/metrics"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
	"github.com/SAP-F-2025/attempt-grading-service/internal/services"
	"github.com/SAP-F-2025/attempt-grading-service/internal/utils"
)

type HandlerManager struct {
	serviceManager services.ServiceManager
	attemptHandler *AttemptHandler
	authenticate   gin.HandlerFunc
	rateLimiter    *IPRateLimiter
	metrics        *metrics.Metrics
}

// NewHandlerManager wires the HTTP surface. limiter and m may be nil.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authenticate gin.HandlerFunc,
	limiter *IPRateLimiter,
	m *metrics.Metrics,
) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), serviceManager.Report(), logger),
		authenticate:   authenticate,
		rateLimiter:    limiter,
		metrics:        m,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)
	if hm.metrics != nil {
		router.GET("/metrics", hm.metrics.Handler())
	}

	v1 := router.Group("/api/v1")
	if hm.rateLimiter != nil {
		v1.Use(hm.rateLimiter.Middleware())
	}
	v1.Use(hm.authenticate)
	{
		authorOnly := RequireRole(models.RoleAuthor)

		assignments := v1.Group("/assignments/:assignment_id")
		{
			assignments.POST("/attempts", hm.attemptHandler.CreateAttempt)
			assignments.GET("/attempts", hm.attemptHandler.ListAttempts)
			assignments.GET("/attempts/export", authorOnly, hm.attemptHandler.ExportAttempts)
			assignments.GET("/attempts/:attempt_id", hm.attemptHandler.GetAttempt)
			assignments.PATCH("/attempts/:attempt_id", hm.attemptHandler.SubmitAttempt)

			assignments.POST("/attempts/:attempt_id/feedback", hm.attemptHandler.SubmitFeedback)
			assignments.GET("/attempts/:attempt_id/feedback", hm.attemptHandler.GetFeedback)
			assignments.POST("/attempts/:attempt_id/regrade", hm.attemptHandler.RequestRegrading)

			assignments.POST("/preview", authorOnly, hm.attemptHandler.PreviewAttempt)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "attempt-grading-service",
	})
}
