package services

import (
	"slices"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// Resolve merges a question with its bound variant and the attempt's choice
// order. binding and variant may be nil.
func Resolve(q *models.Question, binding *models.AssignmentAttemptQuestionVariant, variant *models.QuestionVariant) *models.EffectiveQuestion {
	eq := &models.EffectiveQuestion{
		ID:                        q.ID,
		AssignmentID:              q.AssignmentID,
		Question:                  q.Question,
		Type:                      q.Type,
		ResponseType:              q.ResponseTypeValue(),
		TotalPoints:               q.TotalPoints,
		SourceChoices:             slices.Clone([]models.Choice(q.Choices)),
		Scoring:                   q.Scoring.Data(),
		Answer:                    q.Answer,
		MaxWords:                  q.MaxWords,
		MaxCharacters:             q.MaxCharacters,
		GradingContextQuestionIDs: slices.Clone([]uint(q.GradingContextQuestionIDs)),
		RandomizedChoices:         q.RandomizedChoices,
	}

	if variant != nil {
		id := variant.ID
		eq.VariantID = &id
		if variant.VariantContent != "" {
			eq.Question = variant.VariantContent
		}
		if len(variant.Choices) > 0 {
			eq.SourceChoices = slices.Clone([]models.Choice(variant.Choices))
		}
		if variant.Scoring != nil {
			eq.Scoring = variant.Scoring.Data()
		}
		if variant.MaxWords != nil {
			eq.MaxWords = variant.MaxWords
		}
		if variant.MaxCharacters != nil {
			eq.MaxCharacters = variant.MaxCharacters
		}
		if variant.RandomizedChoices != nil {
			eq.RandomizedChoices = *variant.RandomizedChoices
		}
	}

	eq.Choices = slices.Clone(eq.SourceChoices)
	if binding != nil && len(binding.RandomizedChoices) > 0 {
		eq.Choices = slices.Clone([]models.Choice(binding.RandomizedChoices))
	}
	eq.BaseChoices = slices.Clone(eq.Choices)
	return eq
}

// findTranslation applies the lookup order: the variant's translation, then
// the base question's translation.
func findTranslation(eq *models.EffectiveQuestion, translations []*models.Translation, lang string) *models.Translation {
	var base *models.Translation
	for _, t := range translations {
		if t.QuestionID != eq.ID || t.LanguageCode != lang {
			continue
		}
		if t.VariantID == nil {
			base = t
			continue
		}
		if eq.VariantID != nil && *t.VariantID == *eq.VariantID {
			return t
		}
	}
	return base
}

// Translate returns a copy of eq with its text in lang. Grading fields keep
// their untranslated values; BaseChoices stay untranslated for matching.
func Translate(eq *models.EffectiveQuestion, translations []*models.Translation, lang string) *models.EffectiveQuestion {
	out := *eq
	out.Choices = slices.Clone(eq.Choices)
	out.Language = lang

	t := findTranslation(eq, translations, lang)
	if t == nil {
		return &out
	}
	if t.TranslatedText != "" {
		out.Question = t.TranslatedText
	}
	if len(t.TranslatedChoices) > 0 {
		out.Choices = permuteTranslatedChoices(eq.Choices, eq.SourceChoices, t.TranslatedChoices)
	}
	return &out
}

// permuteTranslatedChoices lines translated choices up with the displayed
// order. translated is stored in the same order as source.
func permuteTranslatedChoices(displayed, source []models.Choice, translated []models.Choice) []models.Choice {
	out := make([]models.Choice, len(displayed))
	for i, c := range displayed {
		out[i] = c
		j := sourceIndex(c, source)
		if j < 0 || j >= len(translated) {
			continue
		}
		if translated[j].Choice != "" {
			out[i].Choice = translated[j].Choice
		}
		if translated[j].Feedback != "" {
			out[i].Feedback = translated[j].Feedback
		}
	}
	return out
}

func sourceIndex(c models.Choice, source []models.Choice) int {
	if c.ID != nil {
		for j, s := range source {
			if s.ID != nil && *s.ID == *c.ID {
				return j
			}
		}
	}
	for j, s := range source {
		if s.Choice == c.Choice {
			return j
		}
	}
	return -1
}

// ===== VIEWS =====

func choiceViews(choices []models.Choice) []ChoiceView {
	if len(choices) == 0 {
		return nil
	}
	views := make([]ChoiceView, len(choices))
	for i, c := range choices {
		views[i] = ChoiceView{
			ID:        c.ID,
			Choice:    c.Choice,
			IsCorrect: &c.IsCorrect,
			Points:    &c.Points,
		}
		if c.Feedback != "" {
			views[i].Feedback = &c.Feedback
		}
	}
	return views
}

// NewQuestionView renders an effective question with every language it has
// a translation for.
func NewQuestionView(eq *models.EffectiveQuestion, translations []*models.Translation) *QuestionView {
	scoring := eq.Scoring
	view := &QuestionView{
		ID:                eq.ID,
		VariantID:         eq.VariantID,
		Question:          eq.Question,
		Type:              eq.Type,
		ResponseType:      eq.ResponseType,
		TotalPoints:       eq.TotalPoints,
		Choices:           choiceViews(eq.Choices),
		Scoring:           &scoring,
		Answer:            eq.Answer,
		MaxWords:          eq.MaxWords,
		MaxCharacters:     eq.MaxCharacters,
		RandomizedChoices: eq.RandomizedChoices,
	}

	// Translations start from the untranslated display order
	base := *eq
	base.Choices = eq.BaseChoices
	for _, t := range translations {
		if t.QuestionID != eq.ID {
			continue
		}
		if _, done := view.Translations[t.LanguageCode]; done {
			continue
		}
		if findTranslation(eq, translations, t.LanguageCode) == nil {
			continue
		}
		translated := Translate(&base, translations, t.LanguageCode)
		if view.Translations == nil {
			view.Translations = make(map[string]*TranslatedQuestionView)
		}
		view.Translations[t.LanguageCode] = &TranslatedQuestionView{
			Question: translated.Question,
			Choices:  choiceViews(translated.Choices),
		}
	}
	return view
}

func stripChoices(choices []ChoiceView) {
	for i := range choices {
		choices[i].Points = nil
		choices[i].IsCorrect = nil
		choices[i].Feedback = nil
	}
}

// StripForLearner removes every grading field from a view, including those
// inside each translation.
func StripForLearner(view *QuestionView) {
	stripChoices(view.Choices)
	for _, t := range view.Translations {
		stripChoices(t.Choices)
	}
	view.Answer = nil
	if view.Scoring != nil {
		scoring := *view.Scoring
		if !scoring.ShowRubricsToLearner {
			scoring.Rubrics = nil
		}
		view.Scoring = &scoring
	}
}
