package handlers

import (
	"github.com/atenciaj/Vib-Test/internal/models"
	"github.com/atenciaj/Vib-Test/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

type Question = models.Question
type ExamResult = models.ExamResult
type HistoryStats = services.HistoryStats
