package models

import "gorm.io/datatypes"

// Question is one exam item. The JSON shape matches the per-category bank
// files.
type Question struct {
	ID                 string                      `gorm:"primaryKey;size:64" json:"id" validate:"required" yaml:"id"`
	Category           Category                    `gorm:"size:20;not null;index" json:"category" validate:"required" yaml:"category"`
	Text               string                      `gorm:"type:text;not null" json:"text" validate:"required" yaml:"text"`
	Options            datatypes.JSONSlice[string] `gorm:"not null" json:"options" validate:"min=2,dive,required" yaml:"options"`
	CorrectOptionIndex int                         `gorm:"not null" json:"correctOptionIndex" validate:"gte=0" yaml:"correctOptionIndex"`
	Explanation        string                      `gorm:"type:text" json:"explanation" yaml:"explanation"`
	Topic              string                      `gorm:"size:255" json:"topic,omitempty" yaml:"topic,omitempty"`
	Image              string                      `gorm:"size:500" json:"image,omitempty" yaml:"image,omitempty"`
}

// IsCorrect reports whether selected matches the correct option. A nil
// selection never matches.
func (q *Question) IsCorrect(selected *int) bool {
	return selected != nil && *selected == q.CorrectOptionIndex
}

// PublicQuestion is a question as shown while an exam is running.
type PublicQuestion struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Topic    string   `json:"topic,omitempty"`
	Image    string   `json:"image,omitempty"`
}

func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:       q.ID,
		Category: q.Category,
		Text:     q.Text,
		Options:  append([]string(nil), q.Options...),
		Topic:    q.Topic,
		Image:    q.Image,
	}
}
