// Package lti reports attempt grades back to the launching platform.
package lti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
)

// ErrGradeCallbackFailed is returned when the platform does not accept the grade.
var ErrGradeCallbackFailed = errors.New("grade callback failed")

type GradeClient struct {
	HTTP       *http.Client
	CookieName string
	logger     *slog.Logger
}

func NewGradeClient(cfg config.LTIConfig, logger *slog.Logger) *GradeClient {
	return &GradeClient{
		HTTP: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		CookieName: cfg.CookieName,
		logger:     logger,
	}
}

type scoreRequest struct {
	Score float64 `json:"score"`
}

// SendGrade PUTs the score, a fraction in [0, 1], to the grade endpoint
// using the learner's platform cookie.
func (c *GradeClient) SendGrade(ctx context.Context, endpoint, authCookie string, score float64) error {
	if c == nil || c.HTTP == nil {
		return errors.New("lti: client is nil")
	}
	if strings.TrimSpace(endpoint) == "" {
		return fmt.Errorf("%w: no grade endpoint", ErrGradeCallbackFailed)
	}

	body, err := json.Marshal(scoreRequest{Score: score})
	if err != nil {
		return fmt.Errorf("failed to encode score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build grade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authCookie != "" {
		req.AddCookie(&http.Cookie{Name: c.CookieName, Value: authCookie})
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGradeCallbackFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Grade callback rejected", "endpoint", endpoint, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrGradeCallbackFailed, resp.StatusCode)
	}

	c.logger.Info("Grade callback sent", "endpoint", endpoint, "score", score)
	return nil
}
