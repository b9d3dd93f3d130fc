package grading

import (
	"context"
	"math"
	"strings"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// ChoiceStrategy grades SINGLE_CORRECT and MULTIPLE_CORRECT questions.
type ChoiceStrategy struct {
	loc Localizer
}

func NewChoiceStrategy(loc Localizer) *ChoiceStrategy {
	return &ChoiceStrategy{loc: loc}
}

func (s *ChoiceStrategy) Family() Family { return FamilyChoice }

func (s *ChoiceStrategy) Validate(q *models.EffectiveQuestion, r *models.QuestionAnswer) error {
	if len(q.Choices) == 0 {
		return invalidResponse("question %d has no choices", q.ID)
	}
	if q.Type == models.QuestionSingleCorrect && len(s.extract(r)) > 1 {
		return invalidResponse("only one option may be selected")
	}
	return nil
}

func (s *ChoiceStrategy) Grade(_ context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	selections := s.extract(r)
	lang := language(q, gctx)

	if len(selections) == 0 {
		return &Result{
			Points:   0,
			Feedback: []models.FeedbackItem{{Feedback: s.loc.GetString("noOptionSelected", lang, nil)}},
			Metadata: map[string]any{"selectedCount": 0},
		}, nil
	}

	if q.Type == models.QuestionSingleCorrect {
		return s.gradeSingle(q, selections[0], lang), nil
	}
	return s.gradeMultiple(q, selections, lang), nil
}

// extract drops blank selections.
func (s *ChoiceStrategy) extract(r *models.QuestionAnswer) []string {
	out := make([]string, 0, len(r.LearnerChoices))
	for _, c := range r.LearnerChoices {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *ChoiceStrategy) gradeSingle(q *models.EffectiveQuestion, selection, lang string) *Result {
	idx := matchChoice(q, selection)
	if idx < 0 {
		return &Result{
			Points: 0,
			Feedback: []models.FeedbackItem{{
				Choice:   selection,
				Feedback: s.loc.GetString("invalidSelection", lang, map[string]any{"choice": selection}),
			}},
			Metadata: map[string]any{"selectedCount": 1, "invalidSelections": []string{selection}},
		}
	}

	choice := q.Choices[idx]
	// An incorrect choice may carry its own (possibly negative) value.
	points := choice.Points

	feedback := choice.Feedback
	if feedback == "" {
		key := "incorrectSelection"
		if choice.IsCorrect {
			key = "correctSelection"
		}
		feedback = s.loc.GetString(key, lang, nil)
	}

	return &Result{
		Points:   points,
		Feedback: []models.FeedbackItem{{Choice: choice.Choice, Feedback: feedback, Points: ptr(points)}},
		Metadata: map[string]any{
			"selectedCount": 1,
			"isCorrect":     choice.IsCorrect,
		},
	}
}

func (s *ChoiceStrategy) gradeMultiple(q *models.EffectiveQuestion, selections []string, lang string) *Result {
	selected := make(map[int]bool, len(selections))
	order := make([]int, 0, len(selections))
	var invalid []string

	for _, sel := range selections {
		idx := matchChoice(q, sel)
		if idx < 0 {
			invalid = append(invalid, sel)
			continue
		}
		if !selected[idx] {
			selected[idx] = true
			order = append(order, idx)
		}
	}

	lossPerMistake := q.Scoring.Type == models.ScoringLossPerMistake
	maxPoints := q.SumCorrectPoints()

	var earned float64
	correctSelected, incorrectSelected := 0, 0
	feedback := make([]models.FeedbackItem, 0, len(order)+2)

	for _, idx := range order {
		choice := q.Choices[idx]
		var awarded float64
		key := "incorrectSelection"
		if choice.IsCorrect {
			awarded = choice.Points
			correctSelected++
			key = "correctSelection"
		} else {
			incorrectSelected++
			if lossPerMistake {
				awarded = -math.Abs(choice.Points)
			}
		}
		earned += awarded

		text := choice.Feedback
		if text == "" {
			text = s.loc.GetString(key, lang, nil)
		}
		feedback = append(feedback, models.FeedbackItem{Choice: choice.Choice, Feedback: text, Points: ptr(awarded)})
	}

	earned = clamp(earned, 0, maxPoints)

	allCorrectSelected := true
	for i, c := range q.Choices {
		if c.IsCorrect && !selected[i] {
			allCorrectSelected = false
			break
		}
	}
	noIncorrectSelected := incorrectSelected == 0 && len(invalid) == 0

	if allCorrectSelected && noIncorrectSelected {
		feedback = append(feedback, models.FeedbackItem{Feedback: s.loc.GetString("perfectScore", lang, nil)})
	} else {
		feedback = append(feedback, models.FeedbackItem{Feedback: s.loc.GetString("partialScore", lang, map[string]any{
			"earned": earned,
			"total":  maxPoints,
		})})
		if !allCorrectSelected {
			feedback = append(feedback, models.FeedbackItem{Feedback: s.loc.GetString("missedCorrectOptions", lang, nil)})
		}
		if incorrectSelected > 0 {
			feedback = append(feedback, models.FeedbackItem{Feedback: s.loc.GetString("incorrectOptionsSelected", lang, nil)})
		}
	}
	if len(invalid) > 0 {
		feedback = append(feedback, models.FeedbackItem{Feedback: s.loc.GetString("invalidOptions", lang, map[string]any{
			"choices": strings.Join(invalid, ", "),
		})})
	}

	metadata := map[string]any{
		"selectedCount":       len(selections),
		"correctSelected":     correctSelected,
		"incorrectSelected":   incorrectSelected,
		"allCorrectSelected":  allCorrectSelected,
		"noIncorrectSelected": noIncorrectSelected,
		"scoringType":         string(q.Scoring.Type),
	}
	if len(invalid) > 0 {
		metadata["invalidSelections"] = invalid
	}

	return &Result{Points: earned, Feedback: feedback, Metadata: metadata}
}

// matchChoice returns the index of the choice whose displayed or untranslated
// text matches selection, or -1.
func matchChoice(q *models.EffectiveQuestion, selection string) int {
	want := normalize(selection)
	if want == "" {
		return -1
	}
	for i, c := range q.Choices {
		if normalize(c.Choice) == want {
			return i
		}
	}
	for i, c := range q.BaseChoices {
		if i < len(q.Choices) && normalize(c.Choice) == want {
			return i
		}
	}
	return -1
}
