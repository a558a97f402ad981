package models

// UserAnswer is the response to one question. SelectedOptionIndex is nil
// while the question is unanswered.
type UserAnswer struct {
	QuestionID          string `json:"questionId"`
	SelectedOptionIndex *int   `json:"selectedOptionIndex"`
}
