package questionbank

import (
	"context"
	"fmt"

	"github.com/atenciaj/Vib-Test/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBank serves questions from the questions table.
type GormBank struct {
	db *gorm.DB
}

func NewGormBank(db *gorm.DB) *GormBank {
	return &GormBank{db: db}
}

func (b *GormBank) FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown or unsupported category: %s", category)
	}

	var questions []models.Question
	err := b.db.WithContext(ctx).
		Where("category = ?", category).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for %s: %w", category, err)
	}
	return questions, nil
}

// Import validates questions and upserts them by id. It returns the number
// of records written.
func (b *GormBank) Import(ctx context.Context, category models.Category, questions []models.Question) (int, error) {
	if err := Validate(category, questions); err != nil {
		return 0, err
	}
	if len(questions) == 0 {
		return 0, nil
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			CreateInBatches(&questions, 100).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import questions for %s: %w", category, err)
	}
	return len(questions), nil
}

func (b *GormBank) Count(ctx context.Context, category models.Category) (int64, error) {
	var count int64
	err := b.db.WithContext(ctx).Model(&models.Question{}).
		Where("category = ?", category).
		Count(&count).Error
	return count, err
}
