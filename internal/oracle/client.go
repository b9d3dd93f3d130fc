package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SAP-F-2025/attempt-grading-service/internal/config"
	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// ErrMalformedVerdict is returned when the model reply is not the JSON verdict we asked for.
var ErrMalformedVerdict = errors.New("oracle returned a malformed verdict")

// maxReplyBytes caps how much of a completion reply is read
const maxReplyBytes = 1 << 20

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.OracleConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type verdict struct {
	Points           float64         `json:"points"`
	Feedback         json.RawMessage `json:"feedback"`
	GradingRationale string          `json:"gradingRationale"`
}

// ===== GRADING OPERATIONS =====

func (c *Client) GradeTextBased(ctx context.Context, m *TextBasedModel, assignmentID uint, language string) (*Result, error) {
	return c.grade(ctx, "text", m, m.TotalPoints, assignmentID, language)
}

func (c *Client) GradeFileBased(ctx context.Context, m *FileBasedModel, assignmentID uint, language string) (*Result, error) {
	return c.grade(ctx, "file", m, m.TotalPoints, assignmentID, language)
}

func (c *Client) GradeURLBased(ctx context.Context, m *URLBasedModel, assignmentID uint, language string) (*Result, error) {
	return c.grade(ctx, "url", m, m.TotalPoints, assignmentID, language)
}

func (c *Client) GradePresentation(ctx context.Context, m *PresentationModel, assignmentID uint, language string) (*Result, error) {
	return c.grade(ctx, "presentation", m, m.TotalPoints, assignmentID, language)
}

func (c *Client) GradeVideoPresentation(ctx context.Context, m *VideoPresentationModel, assignmentID uint, language string) (*Result, error) {
	return c.grade(ctx, "video_presentation", m, m.TotalPoints, assignmentID, language)
}

// ===== HELPERS =====

func (c *Client) grade(ctx context.Context, kind string, model any, totalPoints float64, assignmentID uint, language string) (*Result, error) {
	start := time.Now()

	payload, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluate model: %w", err)
	}

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt(kind, totalPoints, language)},
		{Role: "user", Content: string(payload)},
	}

	reply, err := c.complete(ctx, messages)
	if err != nil {
		c.logger.Error("Oracle request failed",
			"kind", kind,
			"assignment_id", assignmentID,
			"error", err)
		return nil, err
	}

	result, err := parseVerdict(reply)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Oracle graded response",
		"kind", kind,
		"assignment_id", assignmentID,
		"points", result.TotalPoints,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    0,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call oracle: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read oracle response: %w", err)
	}
	if len(raw) > maxReplyBytes {
		return "", fmt.Errorf("oracle response exceeds %d bytes", maxReplyBytes)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode oracle response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("oracle error (status %d): %s", resp.StatusCode, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedVerdict)
	}

	return parsed.Choices[0].Message.Content, nil
}

// parseVerdict accepts feedback either as a string or as a list of strings
// or feedback objects.
func parseVerdict(reply string) (*Result, error) {
	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}

	result := &Result{TotalPoints: v.Points, GradingRationale: v.GradingRationale}
	if len(v.Feedback) == 0 || string(v.Feedback) == "null" {
		return result, nil
	}

	var single string
	if err := json.Unmarshal(v.Feedback, &single); err == nil {
		result.Feedback = []models.FeedbackItem{{Feedback: single}}
		return result, nil
	}

	var list []string
	if err := json.Unmarshal(v.Feedback, &list); err == nil {
		for _, f := range list {
			result.Feedback = append(result.Feedback, models.FeedbackItem{Feedback: f})
		}
		return result, nil
	}

	var items []models.FeedbackItem
	if err := json.Unmarshal(v.Feedback, &items); err != nil {
		return nil, fmt.Errorf("%w: feedback: %v", ErrMalformedVerdict, err)
	}
	result.Feedback = items
	return result, nil
}

func systemPrompt(kind string, totalPoints float64, language string) string {
	if language == "" {
		language = "en"
	}
	var b strings.Builder
	b.WriteString("You are an impartial grader for a learning platform. ")
	fmt.Fprintf(&b, "Grade the learner's %s submission described in the user message. ", strings.ReplaceAll(kind, "_", " "))
	fmt.Fprintf(&b, "Award between 0 and %g points, following the scoring rubric when one is given. ", totalPoints)
	b.WriteString("Use the assignment instructions and previous answers as context. ")
	if kind == "url" {
		b.WriteString("If isUrlFunctional is false the link could not be opened; grade only what can be verified. ")
	}
	fmt.Fprintf(&b, "Write all feedback in the language with code %q. ", language)
	b.WriteString(`Reply with a JSON object {"points": number, "feedback": [string], "gradingRationale": string} and nothing else.`)
	return b.String()
}
