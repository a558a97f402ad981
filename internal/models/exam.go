package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExamConfig holds the parameters of one attempt.
type ExamConfig struct {
	Questions       []Question `json:"questions"`
	DurationMinutes int        `json:"durationMinutes"`
	PassMarkPercent float64    `json:"passMarkPercent"`
	IsTrial         bool       `json:"isTrial"`
}

// ExamResult is the scored outcome of a finished session.
type ExamResult struct {
	ID               string                          `gorm:"primaryKey;size:36" json:"id"`
	StoreKey         string                          `gorm:"size:64;not null;index" json:"-"`
	Position         int                             `gorm:"not null;default:0" json:"-"`
	Category         Category                        `gorm:"size:20;not null;index" json:"category"`
	ScorePercent     float64                         `gorm:"not null" json:"scorePercent"`
	CorrectAnswers   int                             `gorm:"not null" json:"correctAnswers"`
	TotalQuestions   int                             `gorm:"not null" json:"totalQuestions"`
	Answers          datatypes.JSONSlice[UserAnswer] `json:"answers"`
	Passed           bool                            `gorm:"not null" json:"passed"`
	TimeTakenMinutes int                             `gorm:"not null" json:"timeTakenMinutes"`
	IsTrial          bool                            `gorm:"not null;default:false" json:"isTrial"`
	FinishedAt       time.Time                       `json:"finishedAt"`
}
