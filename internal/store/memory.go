package store

import (
	"sync"

	"github.com/atenciaj/Vib-Test/internal/models"
)

// MemoryStore keeps results in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	results []models.ExamResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadResults() ([]models.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ExamResult{}, s.results...), nil
}

func (s *MemoryStore) SaveResults(results []models.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]models.ExamResult{}, results...)
	return nil
}

func (s *MemoryStore) AppendResult(result models.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}
