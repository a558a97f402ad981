package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"
	"github.com/atenciaj/Vib-Test/internal/services"

	"github.com/gin-gonic/gin"
)

type ResultsHandler struct {
	historyService *services.HistoryService
}

func NewResultsHandler(historyService *services.HistoryService) *ResultsHandler {
	return &ResultsHandler{historyService: historyService}
}

// ListResults godoc
// @Summary      List exam history
// @Description  Non-trial results in the order they were recorded, optionally for one category
// @Tags         results
// @Produce      json
// @Param        category query string false "Category name, e.g. Category I"
// @Success      200 {array} ExamResult
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/results [get]
func (h *ResultsHandler) ListResults(c *gin.Context) {
	category, ok := categoryQuery(c)
	if !ok {
		return
	}

	results, err := h.historyService.Results(category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetStats godoc
// @Summary      History statistics
// @Tags         results
// @Produce      json
// @Success      200 {object} HistoryStats
// @Router       /api/v1/results/stats [get]
func (h *ResultsHandler) GetStats(c *gin.Context) {
	stats, err := h.historyService.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportResults godoc
// @Summary      Export exam history
// @Tags         admin
// @Produce      json
// @Produce      text/csv
// @Security     BearerAuth
// @Param        format query string false "json or csv"
// @Param        category query string false "Category name"
// @Success      200 {array} ExamResult
// @Router       /api/v1/admin/results/export [get]
func (h *ResultsHandler) ExportResults(c *gin.Context) {
	category, ok := categoryQuery(c)
	if !ok {
		return
	}

	results, err := h.historyService.Results(category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	filename := "vib-test-results"
	format := c.DefaultQuery("format", "json")

	if format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

		w := csv.NewWriter(c.Writer)
		w.Write([]string{"id", "category", "score_percent", "correct_answers", "total_questions", "passed", "time_taken_minutes", "finished_at"})
		for _, r := range results {
			w.Write([]string{
				r.ID,
				r.Category.String(),
				strconv.FormatFloat(r.ScorePercent, 'f', 1, 64),
				strconv.Itoa(r.CorrectAnswers),
				strconv.Itoa(r.TotalQuestions),
				strconv.FormatBool(r.Passed),
				strconv.Itoa(r.TimeTakenMinutes),
				r.FinishedAt.UTC().Format(time.RFC3339),
			})
		}
		w.Flush()
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", filename))
	c.JSON(http.StatusOK, results)
}

func categoryQuery(c *gin.Context) (*models.Category, bool) {
	raw := c.Query("category")
	if raw == "" {
		return nil, true
	}
	category, err := models.ParseCategory(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return &category, true
}
