package grading

import (
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

var familyByQuestionType = map[models.QuestionType]Family{
	models.QuestionText:            FamilyText,
	models.QuestionURL:             FamilyURL,
	models.QuestionTrueFalse:       FamilyTrueFalse,
	models.QuestionSingleCorrect:   FamilyChoice,
	models.QuestionMultipleCorrect: FamilyChoice,
}

// FamilyFor maps a question and response type to a strategy family.
func FamilyFor(qt models.QuestionType, rt models.ResponseType) (Family, error) {
	switch qt {
	case models.QuestionUpload:
		if rt == models.ResponseLiveRecording || rt == models.ResponsePresentation {
			return FamilyPresentation, nil
		}
		return FamilyFile, nil
	case models.QuestionLinkFile:
		return "", ErrLinkFileDeferred
	}
	if family, ok := familyByQuestionType[qt]; ok {
		return family, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUndefinedQuestionType, qt)
}

// LinkFileFamily picks URL when the response carries a URL and File otherwise.
func LinkFileFamily(r *models.QuestionAnswer) Family {
	if r.HasURL() {
		return FamilyURL
	}
	return FamilyFile
}

type Dispatcher struct {
	strategies map[Family]Strategy
}

func NewDispatcher(strategies ...Strategy) *Dispatcher {
	d := &Dispatcher{strategies: make(map[Family]Strategy, len(strategies))}
	for _, s := range strategies {
		d.strategies[s.Family()] = s
	}
	return d
}

// Dependencies are the collaborators the built-in strategies need.
type Dependencies struct {
	Oracle    Oracle
	Fetcher   ContentFetcher
	Files     FileReader
	Localizer Localizer
	Tokens    BooleanParser
	Logger    *slog.Logger
}

// NewDefaultDispatcher registers one strategy per family.
func NewDefaultDispatcher(deps Dependencies) *Dispatcher {
	return NewDispatcher(
		NewChoiceStrategy(deps.Localizer),
		NewTrueFalseStrategy(deps.Localizer, deps.Tokens),
		NewTextStrategy(deps.Oracle),
		NewFileStrategy(deps.Oracle, deps.Files, deps.Localizer, deps.Logger),
		NewURLStrategy(deps.Oracle, deps.Fetcher, deps.Localizer),
		NewPresentationStrategy(deps.Oracle),
	)
}

func (d *Dispatcher) Dispatch(qt models.QuestionType, rt models.ResponseType) (Strategy, error) {
	family, err := FamilyFor(qt, rt)
	if err != nil {
		return nil, err
	}
	return d.strategy(family)
}

func (d *Dispatcher) ForLinkFile(r *models.QuestionAnswer) (Strategy, error) {
	return d.strategy(LinkFileFamily(r))
}

func (d *Dispatcher) strategy(family Family) (Strategy, error) {
	s, ok := d.strategies[family]
	if !ok {
		return nil, fmt.Errorf("no strategy registered for %s", family)
	}
	return s, nil
}
