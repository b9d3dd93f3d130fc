package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DisplayOrder string

const (
	DisplayOrderSequential DisplayOrder = "SEQUENTIAL"
	DisplayOrderRandom     DisplayOrder = "RANDOM"
)

// UnlimitedAttempts is the NumAttempts value that disables the max-attempts rule.
const UnlimitedAttempts = -1

type Assignment struct {
	ID                      uint    `json:"id" gorm:"primaryKey"`
	Name                    string  `json:"name" gorm:"not null;size:200"`
	Introduction            *string `json:"introduction" gorm:"type:text"`
	Instructions            *string `json:"instructions" gorm:"type:text"`
	GradingCriteriaOverview *string `json:"grading_criteria_overview" gorm:"type:text"`

	// Ordering
	QuestionOrder datatypes.JSONSlice[uint] `json:"question_order" gorm:"type:jsonb"`
	DisplayOrder  DisplayOrder              `json:"display_order" gorm:"size:20;default:SEQUENTIAL"`

	// Attempt policy
	NumAttempts            int     `json:"num_attempts" gorm:"not null;default:-1"`
	AttemptsPerTimeRange   *int    `json:"attempts_per_time_range"`
	AttemptsTimeRangeHours *int    `json:"attempts_time_range_hours"`
	AllotedTimeMinutes     *int    `json:"alloted_time_minutes"`
	PassingGrade           float64 `json:"passing_grade" gorm:"default:50"`

	// Visibility policy
	ShowAssignmentScore    bool `json:"show_assignment_score" gorm:"not null;default:true"`
	ShowSubmissionFeedback bool `json:"show_submission_feedback" gorm:"not null;default:true"`
	ShowQuestionScore      bool `json:"show_question_score" gorm:"not null;default:true"`
	ShowQuestions          bool `json:"show_questions" gorm:"not null;default:true"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:AssignmentID"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// InstructionsText returns the instructions or an empty string.
func (a *Assignment) InstructionsText() string {
	if a.Instructions == nil {
		return ""
	}
	return *a.Instructions
}

// LiveQuestions returns questions that are not soft-deleted.
func (a *Assignment) LiveQuestions() []Question {
	live := make([]Question, 0, len(a.Questions))
	for _, q := range a.Questions {
		if !q.IsDeleted {
			live = append(live, q)
		}
	}
	return live
}
