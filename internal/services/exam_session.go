package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"

	"github.com/google/uuid"
)

var (
	ErrInvalidCategoryConfig   = errors.New("no default configuration for category")
	ErrNoQuestionsAvailable    = errors.New("no questions available for category")
	ErrQuestionSelectionFailed = errors.New("failed to select questions")
	ErrQuestionFetchTimeout    = errors.New("question bank fetch timed out")
	ErrStartSuperseded         = errors.New("exam start superseded by a newer call")
	ErrOptionOutOfRange        = errors.New("selected option out of range")
	ErrAttemptClosed           = errors.New("exam attempt already finished or replaced")
)

// QuestionBank supplies the full question set of a category.
type QuestionBank interface {
	FetchQuestionsForCategory(ctx context.Context, category models.Category) ([]models.Question, error)
}

// ResultStore is the durable collection of completed non-trial results.
type ResultStore interface {
	LoadResults() ([]models.ExamResult, error)
	SaveResults(results []models.ExamResult) error
}

// ResultAppender is implemented by stores that can append without a
// separate load and save.
type ResultAppender interface {
	AppendResult(result models.ExamResult) error
}

type ExamState string

const (
	ExamStateIdle       ExamState = "idle"
	ExamStateInProgress ExamState = "in_progress"
	ExamStateFinished   ExamState = "finished"
)

type SessionOptions struct {
	// FetchTimeout bounds the question bank call. Zero disables it.
	FetchTimeout time.Duration
	// StrictAnswers rejects option indexes outside the question's options.
	StrictAnswers bool
	// OnChange, when set, receives a snapshot after every mutation.
	OnChange func(SessionState)

	Now     func() time.Time
	Rand    *rand.Rand
	Scoring *ScoringService
}

// SessionState is a read-only snapshot of an ExamSession.
type SessionState struct {
	State     ExamState           `json:"state"`
	Category  *models.Category    `json:"category"`
	Config    *models.ExamConfig  `json:"config"`
	Answers   []models.UserAnswer `json:"answers"`
	Result    *models.ExamResult  `json:"result"`
	StartedAt *time.Time          `json:"startedAt,omitempty"`
}

// ExamSession owns the lifecycle of one exam attempt.
type ExamSession struct {
	bank    QuestionBank
	store   ResultStore
	scoring *ScoringService
	opts    SessionOptions

	rngMu sync.Mutex

	mu         sync.RWMutex
	generation uint64
	config     *models.ExamConfig
	category   *models.Category
	answers    []models.UserAnswer
	result     *models.ExamResult
	startTime  time.Time
}

func NewExamSession(bank QuestionBank, store ResultStore, opts SessionOptions) *ExamSession {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	scoring := opts.Scoring
	if scoring == nil {
		scoring = NewScoringService()
	}
	return &ExamSession{
		bank:    bank,
		store:   store,
		scoring: scoring,
		opts:    opts,
		answers: []models.UserAnswer{},
	}
}

// StartExam loads and samples questions for category and begins a new
// attempt, discarding any previous one. On failure the session is left idle.
// A call overtaken by a newer StartExam or ResetExam returns
// ErrStartSuperseded and commits nothing.
func (s *ExamSession) StartExam(ctx context.Context, category models.Category, isTrial bool) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	defaults, ok := category.Defaults()
	if !ok {
		return s.failStart(gen, fmt.Errorf("%w: %s", ErrInvalidCategoryConfig, category))
	}

	all, err := s.fetch(ctx, category)
	if err != nil {
		return s.failStart(gen, err)
	}
	if len(all) == 0 {
		return s.failStart(gen, fmt.Errorf("%w: %s", ErrNoQuestionsAvailable, category))
	}

	numQuestions, duration := defaults.Questions, defaults.DurationMinutes
	if isTrial {
		numQuestions, duration = models.TrialQuestionCount, models.TrialDurationMinutes
	}

	s.rngMu.Lock()
	selected := SelectRandomQuestions(all, numQuestions, s.opts.Rand)
	s.rngMu.Unlock()
	if len(selected) == 0 && numQuestions > 0 {
		return s.failStart(gen, fmt.Errorf("%w: %s", ErrQuestionSelectionFailed, category))
	}
	if len(selected) < numQuestions {
		log.Printf("exam: requested %d questions for %s (trial=%t), only %d available", numQuestions, category, isTrial, len(selected))
	}

	answers := make([]models.UserAnswer, len(selected))
	for i, q := range selected {
		answers[i] = models.UserAnswer{QuestionID: q.ID}
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return ErrStartSuperseded
	}
	cat := category
	s.config = &models.ExamConfig{
		Questions:       selected,
		DurationMinutes: duration,
		PassMarkPercent: models.PassMarkPercent,
		IsTrial:         isTrial,
	}
	s.category = &cat
	s.answers = answers
	s.result = nil
	s.startTime = s.opts.Now()
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
	return nil
}

// fetch calls the bank, bounded by FetchTimeout even when the bank ignores
// its context.
func (s *ExamSession) fetch(ctx context.Context, category models.Category) ([]models.Question, error) {
	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	type fetched struct {
		questions []models.Question
		err       error
	}
	done := make(chan fetched, 1)
	go func() {
		qs, err := s.bank.FetchQuestionsForCategory(fetchCtx, category)
		done <- fetched{questions: qs, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && s.timedOut(ctx, fetchCtx) {
			return nil, fmt.Errorf("%w: %s after %s: %w", ErrQuestionFetchTimeout, category, s.opts.FetchTimeout, res.err)
		}
		return res.questions, res.err
	case <-fetchCtx.Done():
		if s.timedOut(ctx, fetchCtx) {
			return nil, fmt.Errorf("%w: %s after %s", ErrQuestionFetchTimeout, category, s.opts.FetchTimeout)
		}
		return nil, ctx.Err()
	}
}

func (s *ExamSession) timedOut(parent, fetchCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded)
}

func (s *ExamSession) failStart(gen uint64, err error) error {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return err
	}
	s.clearLocked()
	state := s.snapshotLocked()
	s.mu.Unlock()

	log.Printf("exam: start failed: %v", err)
	s.notify(state)
	return err
}

// SubmitAnswer records selectedOptionIndex for questionID, overwriting any
// earlier answer. Unknown question ids are ignored. The index is stored as
// given unless StrictAnswers is set, in which case an index outside the
// question's options returns ErrOptionOutOfRange and nothing is stored.
func (s *ExamSession) SubmitAnswer(questionID string, selectedOptionIndex int) error {
	s.mu.Lock()

	if s.opts.StrictAnswers && s.config != nil {
		for i := range s.config.Questions {
			q := &s.config.Questions[i]
			if q.ID == questionID && (selectedOptionIndex < 0 || selectedOptionIndex >= len(q.Options)) {
				s.mu.Unlock()
				return fmt.Errorf("%w: question %s has %d options, got %d", ErrOptionOutOfRange, questionID, len(q.Options), selectedOptionIndex)
			}
		}
	}

	changed := false
	for i := range s.answers {
		if s.answers[i].QuestionID == questionID {
			idx := selectedOptionIndex
			s.answers[i].SelectedOptionIndex = &idx
			changed = true
			break
		}
	}
	state := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(state)
	}
	return nil
}

// FinishExam scores the current answers and stores the result. Non-trial
// results are appended to the ResultStore. Without an active exam it returns
// nil, nil. A non-nil error means only that persisting failed; the result is
// still held by the session. Calling it again rescores and appends again.
func (s *ExamSession) FinishExam() (*models.ExamResult, error) {
	return s.finish(nil)
}

// Attempt identifies the current attempt. It changes with every StartExam
// and ResetExam.
func (s *ExamSession) Attempt() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// FinishAttempt is FinishExam for callers holding an Attempt token. It
// finishes at most once per attempt and returns ErrAttemptClosed when the
// attempt was already finished, restarted or reset.
func (s *ExamSession) FinishAttempt(attempt uint64) (*models.ExamResult, error) {
	return s.finish(&attempt)
}

func (s *ExamSession) finish(attempt *uint64) (*models.ExamResult, error) {
	s.mu.Lock()
	if attempt != nil && (*attempt != s.generation || s.result != nil) {
		s.mu.Unlock()
		return nil, ErrAttemptClosed
	}
	if s.config == nil || s.category == nil || s.startTime.IsZero() {
		s.mu.Unlock()
		return nil, nil
	}

	correct, percent, passed := s.scoring.Score(s.config, s.answers)
	now := s.opts.Now()
	result := models.ExamResult{
		ID:               uuid.NewString(),
		Category:         *s.category,
		ScorePercent:     percent,
		CorrectAnswers:   correct,
		TotalQuestions:   len(s.config.Questions),
		Answers:          append([]models.UserAnswer{}, s.answers...),
		Passed:           passed,
		TimeTakenMinutes: s.scoring.ElapsedMinutes(s.startTime, now),
		IsTrial:          s.config.IsTrial,
		FinishedAt:       now,
	}
	s.result = &result
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)

	out := result
	if result.IsTrial || s.store == nil {
		return &out, nil
	}
	if err := appendResult(s.store, result); err != nil {
		log.Printf("exam: failed to persist result %s: %v", result.ID, err)
		return &out, fmt.Errorf("failed to persist result: %w", err)
	}
	return &out, nil
}

func appendResult(store ResultStore, result models.ExamResult) error {
	if a, ok := store.(ResultAppender); ok {
		return a.AppendResult(result)
	}
	existing, err := store.LoadResults()
	if err != nil {
		return err
	}
	return store.SaveResults(append(existing, result))
}

// ResetExam clears all session state and invalidates any in-flight start.
func (s *ExamSession) ResetExam() {
	s.mu.Lock()
	s.generation++
	s.clearLocked()
	state := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state)
}

func (s *ExamSession) GetQuestionByID(id string) (models.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return models.Question{}, false
	}
	for _, q := range s.config.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return models.Question{}, false
}

func (s *ExamSession) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *ExamSession) clearLocked() {
	s.config = nil
	s.category = nil
	s.answers = []models.UserAnswer{}
	s.result = nil
	s.startTime = time.Time{}
}

func (s *ExamSession) snapshotLocked() SessionState {
	state := SessionState{
		State:   ExamStateIdle,
		Answers: append([]models.UserAnswer{}, s.answers...),
	}
	if s.category != nil {
		cat := *s.category
		state.Category = &cat
	}
	if s.config != nil {
		cfg := *s.config
		cfg.Questions = append([]models.Question(nil), s.config.Questions...)
		state.Config = &cfg
		state.State = ExamStateInProgress
	}
	if s.result != nil {
		res := *s.result
		state.Result = &res
		state.State = ExamStateFinished
	}
	if !s.startTime.IsZero() {
		t := s.startTime
		state.StartedAt = &t
	}
	return state
}

func (s *ExamSession) notify(state SessionState) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(state)
	}
}
