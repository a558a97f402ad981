package questionbank

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"
)

// HTTPBank fetches <baseURL>/data/questions/<cat>.json.
type HTTPBank struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPBank(baseURL string, timeout time.Duration) *HTTPBank {
	return &HTTPBank{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (b *HTTPBank) FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error) {
	name := category.BankFile()
	if name == "" {
		return nil, fmt.Errorf("unknown or unsupported category: %s", category)
	}

	url := fmt.Sprintf("%s/data/questions/%s.json", b.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions for %s: %w", category, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch questions for %s from %s.json: status %d", category, name, resp.StatusCode)
	}

	questions, err := DecodeJSON(body)
	if err != nil {
		return nil, err
	}
	if err := Validate(category, questions); err != nil {
		return nil, err
	}
	return questions, nil
}
