package questionbank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atenciaj/Vib-Test/internal/models"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidQuestionData = errors.New("invalid question data")

var validate = validator.New()

// Validate checks every record of a category's bank. Records without a
// category are assigned category.
func Validate(category models.Category, questions []models.Question) error {
	seen := make(map[string]struct{}, len(questions))

	for i := range questions {
		q := &questions[i]
		if q.Category == 0 {
			q.Category = category
		}

		if err := validate.Struct(q); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				fields := make([]string, 0, len(verrs))
				for _, fe := range verrs {
					fields = append(fields, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
				}
				return fmt.Errorf("%w: %s record %d (%s): %s", ErrInvalidQuestionData, category, i, q.ID, strings.Join(fields, ", "))
			}
			return fmt.Errorf("%w: %s record %d: %w", ErrInvalidQuestionData, category, i, err)
		}

		if q.Category != category {
			return fmt.Errorf("%w: question %s belongs to %s, not %s", ErrInvalidQuestionData, q.ID, q.Category, category)
		}
		if q.CorrectOptionIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %s correct option %d out of %d options", ErrInvalidQuestionData, q.ID, q.CorrectOptionIndex, len(q.Options))
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %s", ErrInvalidQuestionData, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	return nil
}
