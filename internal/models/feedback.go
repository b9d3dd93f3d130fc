package models

import "time"

type RegradingStatus string

const (
	RegradingPending  RegradingStatus = "PENDING"
	RegradingApproved RegradingStatus = "APPROVED"
	RegradingRejected RegradingStatus = "REJECTED"
)

// AssignmentFeedback is the learner's feedback on a submitted attempt.
type AssignmentFeedback struct {
	ID                  uint    `json:"id" gorm:"primaryKey"`
	AssignmentAttemptID uint    `json:"assignment_attempt_id" gorm:"not null;uniqueIndex"`
	AssignmentID        uint    `json:"assignment_id" gorm:"not null;index"`
	UserID              string  `json:"user_id" gorm:"not null;size:255"`
	Comments            *string `json:"comments" gorm:"type:text"`
	AIGradingRating     *int    `json:"ai_grading_rating"`
	AssignmentRating    *int    `json:"assignment_rating"`
	AllowContact        bool    `json:"allow_contact" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AssignmentFeedback) TableName() string {
	return "assignment_feedbacks"
}

type RegradingRequest struct {
	ID                  uint            `json:"id" gorm:"primaryKey"`
	AssignmentAttemptID uint            `json:"assignment_attempt_id" gorm:"not null;index"`
	AssignmentID        uint            `json:"assignment_id" gorm:"not null;index"`
	UserID              string          `json:"user_id" gorm:"not null;size:255"`
	Reason              string          `json:"reason" gorm:"type:text;not null"`
	Status              RegradingStatus `json:"status" gorm:"size:20;default:PENDING;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RegradingRequest) TableName() string {
	return "regrading_requests"
}
