package questionbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atenciaj/Vib-Test/internal/models"

	"gopkg.in/yaml.v3"
)

// FileBank reads one file per category from a directory: cat_i.json,
// cat_ii.json and so on. A .yaml file is used when the .json one is absent.
type FileBank struct {
	dir string
}

func NewFileBank(dir string) *FileBank {
	return &FileBank{dir: dir}
}

func (b *FileBank) FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error) {
	name := category.BankFile()
	if name == "" {
		return nil, fmt.Errorf("unknown or unsupported category: %s", category)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	questions, err := b.read(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for %s: %w", category, err)
	}

	if err := Validate(category, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (b *FileBank) read(name string) ([]models.Question, error) {
	jsonPath := filepath.Join(b.dir, name+".json")
	data, err := os.ReadFile(jsonPath)
	if err == nil {
		return DecodeJSON(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, ext := range []string{".yaml", ".yml"} {
		data, yerr := os.ReadFile(filepath.Join(b.dir, name+ext))
		if yerr == nil {
			return DecodeYAML(data)
		}
		if !errors.Is(yerr, os.ErrNotExist) {
			return nil, yerr
		}
	}
	return nil, err
}

// DecodeJSON parses a JSON array of question records.
func DecodeJSON(data []byte) ([]models.Question, error) {
	var questions []models.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuestionData, err)
	}
	return questions, nil
}

// DecodeYAML parses a YAML sequence of question records.
func DecodeYAML(data []byte) ([]models.Question, error) {
	var questions []models.Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuestionData, err)
	}
	return questions, nil
}
