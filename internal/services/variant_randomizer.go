package services

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/SAP-F-2025/attempt-grading-service/internal/models"
)

// VariantRandomizer binds each question of a new attempt to a variant and a
// choice order. The random source is injected so tests can seed it.
type VariantRandomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewVariantRandomizer(src rand.Source) *VariantRandomizer {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &VariantRandomizer{rng: rand.New(src)}
}

// Bind returns one binding per question. AssignmentAttemptID is left for the
// caller to fill once the attempt row exists.
func (r *VariantRandomizer) Bind(questions []models.Question) []*models.AssignmentAttemptQuestionVariant {
	r.mu.Lock()
	defer r.mu.Unlock()

	bindings := make([]*models.AssignmentAttemptQuestionVariant, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		variants := q.LiveVariants()

		// index 0 is the base question
		pick := r.rng.IntN(len(variants) + 1)

		binding := &models.AssignmentAttemptQuestionVariant{QuestionID: q.ID}
		choices := []models.Choice(q.Choices)
		randomize := q.RandomizedChoices

		if pick > 0 {
			v := variants[pick-1]
			id := v.ID
			binding.QuestionVariantID = &id
			if len(v.Choices) > 0 {
				choices = v.Choices
			}
			if v.RandomizedChoices != nil {
				randomize = *v.RandomizedChoices
			}
		}

		if randomize && len(choices) > 1 {
			shuffled := slices.Clone(choices)
			r.rng.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			binding.RandomizedChoices = shuffled
		}
		bindings = append(bindings, binding)
	}
	return bindings
}

// Shuffle returns a uniformly permuted copy of ids.
func (r *VariantRandomizer) Shuffle(ids []uint) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := slices.Clone(ids)
	r.rng.Shuffle(len(out), func(a, b int) {
		out[a], out[b] = out[b], out[a]
	})
	return out
}
