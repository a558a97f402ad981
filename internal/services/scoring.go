package services

import (
	"math"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"
)

type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Score counts answers matching their question's correct option. Answers
// referencing a question outside cfg count as incorrect.
func (s *ScoringService) Score(cfg *models.ExamConfig, answers []models.UserAnswer) (correct int, percent float64, passed bool) {
	byID := make(map[string]*models.Question, len(cfg.Questions))
	for i := range cfg.Questions {
		byID[cfg.Questions[i].ID] = &cfg.Questions[i]
	}

	for _, a := range answers {
		if q, ok := byID[a.QuestionID]; ok && q.IsCorrect(a.SelectedOptionIndex) {
			correct++
		}
	}

	total := len(cfg.Questions)
	if total == 0 {
		return correct, 0, cfg.PassMarkPercent <= 0
	}

	raw := float64(correct) / float64(total) * 100
	return correct, roundTenth(raw), raw >= cfg.PassMarkPercent
}

// ElapsedMinutes rounds the time between start and end to whole minutes.
func (s *ScoringService) ElapsedMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
