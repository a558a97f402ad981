package services

import (
	"math/rand/v2"

	"github.com/atenciaj/Vib-Test/internal/models"
)

// SelectRandomQuestions draws min(count, len(all)) distinct questions from
// all without replacement. all is not modified. A nil rng uses the global
// source.
func SelectRandomQuestions(all []models.Question, count int, rng *rand.Rand) []models.Question {
	if len(all) == 0 || count <= 0 {
		return []models.Question{}
	}

	shuffled := make([]models.Question, len(all))
	copy(shuffled, all)

	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng != nil {
		rng.Shuffle(len(shuffled), swap)
	} else {
		rand.Shuffle(len(shuffled), swap)
	}

	return shuffled[:min(count, len(shuffled))]
}
