package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"
)

type fakeBank struct {
	questions map[models.Category][]models.Question
	err       error
	calls     int
}

func (b *fakeBank) FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.questions[category], nil
}

// blockingBank ignores its context and returns only once release is closed.
type blockingBank struct {
	questions []models.Question
	started   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func newBlockingBank(questions []models.Question) *blockingBank {
	return &blockingBank{
		questions: questions,
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (b *blockingBank) FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.questions, nil
}

// slowCategoryBank blocks only for its slow category.
type slowCategoryBank struct {
	*blockingBank
	slow models.Category
	fast *fakeBank
}

func (b *slowCategoryBank) FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error) {
	if category == b.slow {
		return b.blockingBank.FetchQuestionsForCategory(ctx, category)
	}
	return b.fast.FetchQuestionsForCategory(ctx, category)
}

// loadSaveStore has no AppendResult.
type loadSaveStore struct {
	results []models.ExamResult
	saveErr error
	saves   int
}

func (s *loadSaveStore) LoadResults() ([]models.ExamResult, error) {
	return append([]models.ExamResult{}, s.results...), nil
}

func (s *loadSaveStore) SaveResults(results []models.ExamResult) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.results = append([]models.ExamResult{}, results...)
	return nil
}

// makeQuestions builds n four-option questions whose correct option is 0.
func makeQuestions(category models.Category, n int) []models.Question {
	out := make([]models.Question, n)
	for i := range out {
		out[i] = models.Question{
			ID:                 fmt.Sprintf("%s-%03d", category.BankFile(), i+1),
			Category:           category,
			Text:               fmt.Sprintf("Question %d", i+1),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: 0,
		}
	}
	return out
}

func bankWith(category models.Category, n int) *fakeBank {
	return &fakeBank{questions: map[models.Category][]models.Question{
		category: makeQuestions(category, n),
	}}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

var errBankDown = errors.New("bank down")
