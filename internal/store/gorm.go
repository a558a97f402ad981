package store

import (
	"errors"
	"fmt"

	"github.com/atenciaj/Vib-Test/internal/models"

	"gorm.io/gorm"
)

// GormStore keeps results in the exam_results table, scoped by a collection
// key.
type GormStore struct {
	db  *gorm.DB
	key string
}

func NewGormStore(db *gorm.DB, key string) *GormStore {
	if key == "" {
		key = DefaultKey
	}
	return &GormStore{db: db, key: key}
}

func (s *GormStore) LoadResults() ([]models.ExamResult, error) {
	var results []models.ExamResult
	if err := s.db.Where("store_key = ?", s.key).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	if results == nil {
		results = []models.ExamResult{}
	}
	return results, nil
}

// SaveResults replaces the whole collection.
func (s *GormStore) SaveResults(results []models.ExamResult) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_key = ?", s.key).Delete(&models.ExamResult{}).Error; err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}
		if len(results) == 0 {
			return nil
		}

		rows := make([]models.ExamResult, len(results))
		for i, r := range results {
			if r.ID == "" {
				return errors.New("result without id")
			}
			r.StoreKey = s.key
			r.Position = i
			rows[i] = r
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		return nil
	})
}

// AppendResult inserts one result after the current last position.
func (s *GormStore) AppendResult(result models.ExamResult) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.ExamResult{}).
			Where("store_key = ?", s.key).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to read results: %w", err)
		}

		result.StoreKey = s.key
		result.Position = next
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("failed to append result: %w", err)
		}
		return nil
	})
}
