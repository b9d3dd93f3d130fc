package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LearnerFile is one uploaded file. Content is inline text; Key points at the
// object store when the upload was too large to inline.
type LearnerFile struct {
	Filename    string `json:"filename" validate:"required"`
	Content     string `json:"content,omitempty"`
	Key         string `json:"key,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type Slide struct {
	SlideNumber int    `json:"slideNumber"`
	SlideText   string `json:"slideText"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type PresentationResponse struct {
	Transcript              string   `json:"transcript,omitempty"`
	Slides                  []Slide  `json:"slides,omitempty"`
	VideoURL                string   `json:"videoUrl,omitempty"`
	SpeechReport            string   `json:"speechReport,omitempty"`
	BodyLanguageScore       *float64 `json:"bodyLanguageScore,omitempty"`
	BodyLanguageExplanation string   `json:"bodyLanguageExplanation,omitempty"`
}

func (p *PresentationResponse) IsEmpty() bool {
	if p == nil {
		return true
	}
	return strings.TrimSpace(p.Transcript) == "" && len(p.Slides) == 0 && p.VideoURL == "" && p.SpeechReport == ""
}

// TrueFalseValue accepts either a JSON boolean or a textual token such as "yes" or "oui".
type TrueFalseValue struct {
	Bool *bool
	Text *string
}

func (v *TrueFalseValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		v.Bool = &b
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v.Text = &s
		return nil
	}
	return fmt.Errorf("true/false answer must be a boolean or a string")
}

func (v TrueFalseValue) MarshalJSON() ([]byte, error) {
	if v.Bool != nil {
		return json.Marshal(*v.Bool)
	}
	if v.Text != nil {
		return json.Marshal(*v.Text)
	}
	return []byte("null"), nil
}

func (v *TrueFalseValue) IsEmpty() bool {
	return v == nil || (v.Bool == nil && (v.Text == nil || strings.TrimSpace(*v.Text) == ""))
}

// QuestionAnswer is a learner's response to one question. Which field is
// populated depends on the question type.
type QuestionAnswer struct {
	QuestionID                  uint                  `json:"id" validate:"required"`
	LearnerTextResponse         *string               `json:"learnerTextResponse,omitempty"`
	LearnerURLResponse          *string               `json:"learnerUrlResponse,omitempty"`
	LearnerChoices              []string              `json:"learnerChoices,omitempty"`
	LearnerAnswerChoice         *TrueFalseValue       `json:"learnerAnswerChoice,omitempty"`
	LearnerFileResponse         []LearnerFile         `json:"learnerFileResponse,omitempty" validate:"omitempty,dive"`
	LearnerPresentationResponse *PresentationResponse `json:"learnerPresentationResponse,omitempty"`
}

// IsEmpty reports whether every answer field is empty.
func (a *QuestionAnswer) IsEmpty() bool {
	if a.LearnerTextResponse != nil && strings.TrimSpace(*a.LearnerTextResponse) != "" {
		return false
	}
	if a.LearnerURLResponse != nil && strings.TrimSpace(*a.LearnerURLResponse) != "" {
		return false
	}
	for _, c := range a.LearnerChoices {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	if !a.LearnerAnswerChoice.IsEmpty() {
		return false
	}
	if len(a.LearnerFileResponse) > 0 {
		return false
	}
	return a.LearnerPresentationResponse.IsEmpty()
}

// HasURL reports whether a URL answer was supplied.
func (a *QuestionAnswer) HasURL() bool {
	return a.LearnerURLResponse != nil && strings.TrimSpace(*a.LearnerURLResponse) != ""
}

// TextForContext renders the answer as plain text for use in another
// question's grading context.
func (a *QuestionAnswer) TextForContext() string {
	switch {
	case a.LearnerTextResponse != nil && *a.LearnerTextResponse != "":
		return *a.LearnerTextResponse
	case a.HasURL():
		return *a.LearnerURLResponse
	case len(a.LearnerChoices) > 0:
		return strings.Join(a.LearnerChoices, ", ")
	case a.LearnerAnswerChoice != nil && a.LearnerAnswerChoice.Bool != nil:
		return fmt.Sprintf("%t", *a.LearnerAnswerChoice.Bool)
	case a.LearnerAnswerChoice != nil && a.LearnerAnswerChoice.Text != nil:
		return *a.LearnerAnswerChoice.Text
	case len(a.LearnerFileResponse) > 0:
		names := make([]string, 0, len(a.LearnerFileResponse))
		for _, f := range a.LearnerFileResponse {
			names = append(names, f.Filename)
		}
		return strings.Join(names, ", ")
	case a.LearnerPresentationResponse != nil:
		return a.LearnerPresentationResponse.Transcript
	}
	return ""
}
