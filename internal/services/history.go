package services

import (
	"math"

	"github.com/atenciaj/Vib-Test/internal/models"
)

const recentResultsLimit = 5

type HistoryService struct {
	store ResultStore
}

func NewHistoryService(store ResultStore) *HistoryService {
	return &HistoryService{store: store}
}

type CategoryStats struct {
	Category     models.Category `json:"category"`
	Exams        int             `json:"exams"`
	AverageScore float64         `json:"averageScore"`
}

type HistoryStats struct {
	TotalExams   int                 `json:"totalExams"`
	PassedExams  int                 `json:"passedExams"`
	AverageScore float64             `json:"averageScore"`
	BestScore    float64             `json:"bestScore"`
	Categories   []CategoryStats     `json:"categories"`
	Recent       []models.ExamResult `json:"recent"`
}

// Results returns the stored non-trial results in insertion order. A nil
// category returns every category.
func (s *HistoryService) Results(category *models.Category) ([]models.ExamResult, error) {
	all, err := s.store.LoadResults()
	if err != nil {
		return nil, err
	}

	out := make([]models.ExamResult, 0, len(all))
	for _, r := range all {
		if r.IsTrial {
			continue
		}
		if category != nil && r.Category != *category {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *HistoryService) Stats() (*HistoryStats, error) {
	results, err := s.Results(nil)
	if err != nil {
		return nil, err
	}
	return ComputeStats(results), nil
}

// ComputeStats summarizes non-trial results. Averages are rounded to one
// decimal.
func ComputeStats(results []models.ExamResult) *HistoryStats {
	stats := &HistoryStats{
		Categories: make([]CategoryStats, 0, len(models.AllCategories)),
		Recent:     []models.ExamResult{},
	}

	sums := make(map[models.Category]float64)
	counts := make(map[models.Category]int)
	var total float64
	var kept []models.ExamResult

	for _, r := range results {
		if r.IsTrial {
			continue
		}
		kept = append(kept, r)
		total += r.ScorePercent
		stats.BestScore = math.Max(stats.BestScore, r.ScorePercent)
		if r.Passed {
			stats.PassedExams++
		}
		sums[r.Category] += r.ScorePercent
		counts[r.Category]++
	}

	stats.TotalExams = len(kept)
	if stats.TotalExams > 0 {
		stats.AverageScore = roundTenth(total / float64(stats.TotalExams))
	}

	for _, cat := range models.AllCategories {
		cs := CategoryStats{Category: cat, Exams: counts[cat]}
		if cs.Exams > 0 {
			cs.AverageScore = roundTenth(sums[cat] / float64(cs.Exams))
		}
		stats.Categories = append(stats.Categories, cs)
	}

	for i := len(kept) - 1; i >= 0 && len(stats.Recent) < recentResultsLimit; i-- {
		stats.Recent = append(stats.Recent, kept[i])
	}

	return stats
}
