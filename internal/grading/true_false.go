package grading

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

type TrueFalseStrategy struct {
	loc    Localizer
	tokens BooleanParser
}

func NewTrueFalseStrategy(loc Localizer, tokens BooleanParser) *TrueFalseStrategy {
	return &TrueFalseStrategy{loc: loc, tokens: tokens}
}

func (s *TrueFalseStrategy) Family() Family { return FamilyTrueFalse }

func (s *TrueFalseStrategy) Validate(q *models.EffectiveQuestion, r *models.QuestionAnswer) error {
	if q.Answer == nil {
		return fmt.Errorf("true/false question %d has no canonical answer", q.ID)
	}
	_, err := s.extract(r, language(q, nil))
	return err
}

func (s *TrueFalseStrategy) Grade(_ context.Context, q *models.EffectiveQuestion, r *models.QuestionAnswer, gctx *Context) (*Result, error) {
	lang := language(q, gctx)
	answer, err := s.extract(r, lang)
	if err != nil {
		return nil, err
	}

	correct := answer == *q.Answer

	var points float64
	var feedback string
	if correct {
		points = q.TotalPoints
		if points == 0 && len(q.Choices) > 0 {
			points = q.Choices[0].Points
		}
		feedback = s.loc.GetString("trueFalseCorrect", lang, nil)
	} else {
		feedback = s.loc.GetString("trueFalseIncorrect", lang, map[string]any{
			"answer": s.loc.GetString(fmt.Sprintf("%t", *q.Answer), lang, nil),
		})
	}
	points = max(points, 0)

	return &Result{
		Points:   points,
		Feedback: []models.FeedbackItem{{Choice: s.loc.GetString(fmt.Sprintf("%t", answer), lang, nil), Feedback: feedback, Points: ptr(points)}},
		Metadata: map[string]any{
			"learnerAnswer": answer,
			"isCorrect":     correct,
		},
	}, nil
}

func (s *TrueFalseStrategy) extract(r *models.QuestionAnswer, lang string) (bool, error) {
	v := r.LearnerAnswerChoice
	if v.IsEmpty() {
		return false, invalidResponse("a true or false answer is required")
	}
	if v.Bool != nil {
		return *v.Bool, nil
	}
	parsed, ok := s.tokens.Parse(*v.Text, lang)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrInvalidTrueFalse, *v.Text)
	}
	return parsed, nil
}
