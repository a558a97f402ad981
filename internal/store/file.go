package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atenciaj/Vib-Test/internal/models"
)

// DefaultKey names the process-wide results collection.
const DefaultKey = "vibTestResults"

// FileStore persists the whole result collection as one JSON array file.
// Writes go through a temp file and rename.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LoadResults() ([]models.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) SaveResults(results []models.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(results)
}

func (s *FileStore) AppendResult(result models.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(existing, result))
}

func (s *FileStore) load() ([]models.ExamResult, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.ExamResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	var results []models.ExamResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results file %s: %w", s.path, err)
	}
	if results == nil {
		results = []models.ExamResult{}
	}
	return results, nil
}

func (s *FileStore) save(results []models.ExamResult) error {
	if results == nil {
		results = []models.ExamResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create results dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace results file: %w", err)
	}
	return nil
}
