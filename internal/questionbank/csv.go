package questionbank

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/atenciaj/Vib-Test/internal/models"
)

const csvOptionColumns = 4

// CSVHeader is the column layout accepted by DecodeCSV. The correct column is
// 1-based.
var CSVHeader = []string{"id", "category", "text", "option1", "option2", "option3", "option4", "correct", "topic", "explanation"}

// DecodeCSV parses question rows grouped by category.
// Empty option cells are skipped.
func DecodeCSV(data []byte) (map[models.Category][]models.Question, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid CSV: %w", ErrInvalidQuestionData, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: CSV must have header + at least 1 row", ErrInvalidQuestionData)
	}

	out := make(map[models.Category][]models.Question)
	for n, row := range records[1:] {
		if len(row) < 8 {
			return nil, fmt.Errorf("%w: row %d has %d columns, want at least 8", ErrInvalidQuestionData, n+2, len(row))
		}

		category, err := models.ParseCategory(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidQuestionData, n+2, err)
		}

		correct, err := strconv.Atoi(strings.TrimSpace(row[7]))
		if err != nil || correct < 1 {
			return nil, fmt.Errorf("%w: row %d: invalid correct option %q", ErrInvalidQuestionData, n+2, row[7])
		}

		var opts []string
		correctIdx := -1
		for i := 0; i < csvOptionColumns; i++ {
			text := strings.TrimSpace(row[3+i])
			if text == "" {
				continue
			}
			if i+1 == correct {
				correctIdx = len(opts)
			}
			opts = append(opts, text)
		}
		if correctIdx < 0 {
			return nil, fmt.Errorf("%w: row %d: correct option %d is empty", ErrInvalidQuestionData, n+2, correct)
		}

		q := models.Question{
			ID:                 strings.TrimSpace(row[0]),
			Category:           category,
			Text:               strings.TrimSpace(row[2]),
			Options:            opts,
			CorrectOptionIndex: correctIdx,
		}
		if len(row) > 8 {
			q.Topic = strings.TrimSpace(row[8])
		}
		if len(row) > 9 {
			q.Explanation = strings.TrimSpace(row[9])
		}
		out[category] = append(out[category], q)
	}
	return out, nil
}

// GroupByCategory splits decoded records by their category field.
func GroupByCategory(questions []models.Question) (map[models.Category][]models.Question, error) {
	out := make(map[models.Category][]models.Question)
	for i, q := range questions {
		if !q.Category.Valid() {
			return nil, fmt.Errorf("%w: record %d (%s) has no category", ErrInvalidQuestionData, i, q.ID)
		}
		out[q.Category] = append(out[q.Category], q)
	}
	return out, nil
}
