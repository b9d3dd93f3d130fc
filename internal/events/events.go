package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "attempt-grading-service"
	EventVersion = "1.0"
)

type EventType string

const (
	AttemptCreated     EventType = "attempt.created"
	AttemptSubmitted   EventType = "attempt.submitted"
	RegradingRequested EventType = "regrading.requested"
)

type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func NewEvent(eventType EventType, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== PAYLOADS =====

type AttemptCreatedData struct {
	AttemptID    uint       `json:"attempt_id"`
	AssignmentID uint       `json:"assignment_id"`
	UserID       string     `json:"user_id"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type AttemptSubmittedData struct {
	AttemptID      uint    `json:"attempt_id"`
	AssignmentID   uint    `json:"assignment_id"`
	UserID         string  `json:"user_id"`
	Grade          float64 `json:"grade"`
	PointsEarned   float64 `json:"points_earned"`
	PointsPossible float64 `json:"points_possible"`
	Expired        bool    `json:"expired"`
}

type RegradingRequestedData struct {
	RequestID    uint   `json:"request_id"`
	AttemptID    uint   `json:"attempt_id"`
	AssignmentID uint   `json:"assignment_id"`
	UserID       string `json:"user_id"`
	Reason       string `json:"reason"`
}
