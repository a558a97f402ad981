package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/atenciaj/Vib-Test/internal/models"
	"github.com/atenciaj/Vib-Test/internal/questionbank"

	"github.com/gin-gonic/gin"
)

// QuestionImporter stores uploaded question records.
type QuestionImporter interface {
	Import(ctx context.Context, category models.Category, questions []models.Question) (int, error)
}

type QuestionHandler struct {
	importer QuestionImporter
}

// NewQuestionHandler accepts a nil importer when the bank is read-only.
func NewQuestionHandler(importer QuestionImporter) *QuestionHandler {
	return &QuestionHandler{importer: importer}
}

// ImportQuestions godoc
// @Summary      Import questions
// @Description  Upload a JSON, YAML or CSV question file into the database bank
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Question file"
// @Success      200 {object} map[string]int
// @Failure      400 {object} ErrorResponse
// @Failure      501 {object} ErrorResponse
// @Router       /api/v1/admin/questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	if h.importer == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "question bank is read-only"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read file"})
		return
	}

	grouped, err := decodeUpload(strings.ToLower(filepath.Ext(header.Filename)), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	imported := make(map[string]int)
	total := 0
	for _, cat := range models.AllCategories {
		questions, ok := grouped[cat]
		if !ok {
			continue
		}
		n, err := h.importer.Import(c.Request.Context(), cat, questions)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		imported[cat.String()] = n
		total += n
	}

	c.JSON(http.StatusOK, gin.H{"imported_questions": total, "by_category": imported})
}

func decodeUpload(ext string, body []byte) (map[models.Category][]models.Question, error) {
	switch ext {
	case ".csv":
		return questionbank.DecodeCSV(body)
	case ".yaml", ".yml":
		questions, err := questionbank.DecodeYAML(body)
		if err != nil {
			return nil, err
		}
		return questionbank.GroupByCategory(questions)
	}
	questions, err := questionbank.DecodeJSON(body)
	if err != nil {
		return nil, err
	}
	return questionbank.GroupByCategory(questions)
}
