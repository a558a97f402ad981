package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atenciaj/Vib-Test/internal/models"
	"github.com/atenciaj/Vib-Test/internal/store"
)

func answerAll(t *testing.T, s *ExamSession, correct int) {
	t.Helper()
	state := s.Snapshot()
	for i, q := range state.Config.Questions {
		idx := 1
		if i < correct {
			idx = q.CorrectOptionIndex
		}
		if err := s.SubmitAnswer(q.ID, idx); err != nil {
			t.Fatalf("SubmitAnswer(%s): %v", q.ID, err)
		}
	}
}

func TestStartExamTrialSamplesDistinctQuestions(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryI, 50), store.NewMemoryStore(), SessionOptions{Rand: seededRand()})

	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	state := s.Snapshot()
	if state.State != ExamStateInProgress {
		t.Fatalf("state = %s, want %s", state.State, ExamStateInProgress)
	}
	if got := len(state.Config.Questions); got != models.TrialQuestionCount {
		t.Fatalf("questions = %d, want %d", got, models.TrialQuestionCount)
	}
	if state.Config.DurationMinutes != models.TrialDurationMinutes {
		t.Errorf("duration = %d, want %d", state.Config.DurationMinutes, models.TrialDurationMinutes)
	}
	if state.Config.PassMarkPercent != models.PassMarkPercent {
		t.Errorf("pass mark = %v, want %d", state.Config.PassMarkPercent, models.PassMarkPercent)
	}
	if !state.Config.IsTrial {
		t.Error("IsTrial = false, want true")
	}
	if state.Category == nil || *state.Category != models.CategoryI {
		t.Errorf("category = %v, want %s", state.Category, models.CategoryI)
	}
	if state.StartedAt == nil {
		t.Error("StartedAt not set")
	}

	seen := make(map[string]bool)
	for _, q := range state.Config.Questions {
		if seen[q.ID] {
			t.Fatalf("question %s selected twice", q.ID)
		}
		seen[q.ID] = true
	}

	if len(state.Answers) != len(state.Config.Questions) {
		t.Fatalf("answers = %d, want %d", len(state.Answers), len(state.Config.Questions))
	}
	for i, a := range state.Answers {
		if a.QuestionID != state.Config.Questions[i].ID {
			t.Errorf("answer %d for %s, want %s", i, a.QuestionID, state.Config.Questions[i].ID)
		}
		if a.SelectedOptionIndex != nil {
			t.Errorf("answer %d preselected", i)
		}
	}
}

func TestStartExamFullUsesCategoryDefaults(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryII, 150), nil, SessionOptions{})

	if err := s.StartExam(context.Background(), models.CategoryII, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	cfg := s.Snapshot().Config
	if len(cfg.Questions) != 100 || cfg.DurationMinutes != 180 {
		t.Errorf("got %d questions / %d min, want 100 / 180", len(cfg.Questions), cfg.DurationMinutes)
	}
}

func TestStartExamSmallBankUsesEverything(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryIV, 5), nil, SessionOptions{})

	if err := s.StartExam(context.Background(), models.CategoryIV, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	cfg := s.Snapshot().Config
	if len(cfg.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(cfg.Questions))
	}
	if cfg.DurationMinutes != 300 {
		t.Errorf("duration = %d, want 300", cfg.DurationMinutes)
	}
}

func TestStartExamFailures(t *testing.T) {
	tests := []struct {
		name     string
		bank     *fakeBank
		category models.Category
		wantErr  error
	}{
		{"empty bank", &fakeBank{}, models.CategoryIII, ErrNoQuestionsAvailable},
		{"unknown category", bankWith(models.CategoryI, 10), models.Category(9), ErrInvalidCategoryConfig},
		{"bank error", &fakeBank{err: errBankDown}, models.CategoryI, errBankDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := bankWith(models.CategoryI, 30)
			s := NewExamSession(prev, store.NewMemoryStore(), SessionOptions{})
			if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
				t.Fatalf("first StartExam: %v", err)
			}

			s.bank = tt.bank
			err := s.StartExam(context.Background(), tt.category, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			state := s.Snapshot()
			if state.State != ExamStateIdle || state.Config != nil || state.Category != nil || len(state.Answers) != 0 {
				t.Errorf("session not cleared after failed start: %+v", state)
			}
		})
	}
}

func TestStartExamFetchTimeout(t *testing.T) {
	bank := newBlockingBank(makeQuestions(models.CategoryI, 5))
	t.Cleanup(func() { close(bank.release) })

	s := NewExamSession(bank, nil, SessionOptions{FetchTimeout: 20 * time.Millisecond})

	err := s.StartExam(context.Background(), models.CategoryI, true)
	if !errors.Is(err, ErrQuestionFetchTimeout) {
		t.Fatalf("err = %v, want ErrQuestionFetchTimeout", err)
	}
	if s.Snapshot().State != ExamStateIdle {
		t.Error("session not idle after timeout")
	}
}

func TestStartExamSupersededByReset(t *testing.T) {
	bank := newBlockingBank(makeQuestions(models.CategoryI, 5))
	s := NewExamSession(bank, nil, SessionOptions{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.StartExam(context.Background(), models.CategoryI, true)
	}()

	<-bank.started
	s.ResetExam()
	close(bank.release)

	if err := <-errCh; !errors.Is(err, ErrStartSuperseded) {
		t.Fatalf("err = %v, want ErrStartSuperseded", err)
	}
	if state := s.Snapshot(); state.State != ExamStateIdle || state.Config != nil {
		t.Errorf("stale start committed: %+v", state)
	}
}

func TestStartExamSupersededByNewerStart(t *testing.T) {
	bank := &slowCategoryBank{
		blockingBank: newBlockingBank(makeQuestions(models.CategoryI, 5)),
		slow:         models.CategoryI,
		fast:         bankWith(models.CategoryII, 30),
	}
	s := NewExamSession(bank, nil, SessionOptions{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.StartExam(context.Background(), models.CategoryI, true)
	}()

	<-bank.started
	if err := s.StartExam(context.Background(), models.CategoryII, true); err != nil {
		t.Fatalf("StartExam(Category II): %v", err)
	}
	close(bank.release)

	if err := <-errCh; !errors.Is(err, ErrStartSuperseded) {
		t.Fatalf("err = %v, want ErrStartSuperseded", err)
	}
	state := s.Snapshot()
	if state.State != ExamStateInProgress || state.Category == nil || *state.Category != models.CategoryII {
		t.Fatalf("state = %s, category %v; want in progress Category II", state.State, state.Category)
	}
	for _, q := range state.Config.Questions {
		if q.Category != models.CategoryII {
			t.Fatalf("question %s from %s committed", q.ID, q.Category)
		}
	}
}

func TestSubmitAnswer(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryI, 3), nil, SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	qid := s.Snapshot().Config.Questions[0].ID

	if err := s.SubmitAnswer(qid, 2); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.SubmitAnswer(qid, 1); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if err := s.SubmitAnswer("no-such-question", 0); err != nil {
		t.Fatalf("SubmitAnswer unknown id: %v", err)
	}
	if err := s.SubmitAnswer(qid, 7); err != nil {
		t.Fatalf("permissive SubmitAnswer: %v", err)
	}

	state := s.Snapshot()
	if len(state.Answers) != 3 {
		t.Fatalf("answers = %d, want 3", len(state.Answers))
	}
	for _, a := range state.Answers {
		if a.QuestionID == "no-such-question" {
			t.Error("unknown question id recorded")
		}
		if a.QuestionID == qid && (a.SelectedOptionIndex == nil || *a.SelectedOptionIndex != 7) {
			t.Errorf("answer for %s = %v, want 7", qid, a.SelectedOptionIndex)
		}
	}
}

func TestSubmitAnswerStrict(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryI, 3), nil, SessionOptions{StrictAnswers: true})
	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	qid := s.Snapshot().Config.Questions[0].ID

	for _, idx := range []int{-1, 4} {
		if err := s.SubmitAnswer(qid, idx); !errors.Is(err, ErrOptionOutOfRange) {
			t.Errorf("SubmitAnswer(%d) err = %v, want ErrOptionOutOfRange", idx, err)
		}
	}
	if err := s.SubmitAnswer(qid, 3); err != nil {
		t.Errorf("SubmitAnswer(3): %v", err)
	}
	if a := s.Snapshot().Answers[0]; a.SelectedOptionIndex == nil || *a.SelectedOptionIndex != 3 {
		t.Errorf("answer = %v, want 3", a.SelectedOptionIndex)
	}
}

func TestFinishExamScoring(t *testing.T) {
	tests := []struct {
		name        string
		bankSize    int
		correct     int
		wantPercent float64
		wantPassed  bool
	}{
		{"exactly pass mark", 10, 7, 70.0, true},
		{"two of three", 3, 2, 66.7, false},
		{"three of five", 5, 3, 60.0, false},
		{"all correct", 4, 4, 100.0, true},
		{"none answered correctly", 4, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := store.NewMemoryStore()
			s := NewExamSession(bankWith(models.CategoryI, tt.bankSize), results, SessionOptions{})
			if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
				t.Fatalf("StartExam: %v", err)
			}
			answerAll(t, s, tt.correct)

			res, err := s.FinishExam()
			if err != nil {
				t.Fatalf("FinishExam: %v", err)
			}
			if res.CorrectAnswers != tt.correct || res.TotalQuestions != tt.bankSize {
				t.Errorf("got %d/%d, want %d/%d", res.CorrectAnswers, res.TotalQuestions, tt.correct, tt.bankSize)
			}
			if res.ScorePercent != tt.wantPercent {
				t.Errorf("score = %v, want %v", res.ScorePercent, tt.wantPercent)
			}
			if res.Passed != tt.wantPassed {
				t.Errorf("passed = %t, want %t", res.Passed, tt.wantPassed)
			}
			if res.ID == "" {
				t.Error("result has no id")
			}
		})
	}
}

func TestFinishExamPersistsOnlyNonTrial(t *testing.T) {
	for _, trial := range []bool{true, false} {
		results := store.NewMemoryStore()
		s := NewExamSession(bankWith(models.CategoryI, 3), results, SessionOptions{})
		if err := s.StartExam(context.Background(), models.CategoryI, trial); err != nil {
			t.Fatalf("StartExam: %v", err)
		}
		answerAll(t, s, 3)

		res, err := s.FinishExam()
		if err != nil {
			t.Fatalf("FinishExam: %v", err)
		}

		stored, _ := results.LoadResults()
		want := 1
		if trial {
			want = 0
		}
		if len(stored) != want {
			t.Fatalf("trial=%t: stored %d results, want %d", trial, len(stored), want)
		}
		if !trial && stored[0].ID != res.ID {
			t.Errorf("stored %s, want %s", stored[0].ID, res.ID)
		}
		if res.IsTrial != trial {
			t.Errorf("IsTrial = %t, want %t", res.IsTrial, trial)
		}
	}
}

func TestFinishExamTwiceAppendsTwice(t *testing.T) {
	results := store.NewMemoryStore()
	s := NewExamSession(bankWith(models.CategoryI, 3), results, SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	answerAll(t, s, 2)

	first, err := s.FinishExam()
	if err != nil {
		t.Fatalf("first FinishExam: %v", err)
	}
	second, err := s.FinishExam()
	if err != nil {
		t.Fatalf("second FinishExam: %v", err)
	}

	stored, _ := results.LoadResults()
	if len(stored) != 2 {
		t.Fatalf("stored %d results, want 2", len(stored))
	}
	if first.ID == second.ID || stored[0].ID != first.ID || stored[1].ID != second.ID {
		t.Errorf("stored ids %s, %s; want %s, %s", stored[0].ID, stored[1].ID, first.ID, second.ID)
	}
}

func TestFinishAttemptOncePerAttempt(t *testing.T) {
	tests := []struct {
		name  string
		close func(t *testing.T, s *ExamSession)
		want  int
	}{
		{"finished", func(t *testing.T, s *ExamSession) {
			if _, err := s.FinishExam(); err != nil {
				t.Fatalf("FinishExam: %v", err)
			}
		}, 1},
		{"restarted", func(t *testing.T, s *ExamSession) {
			if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
				t.Fatalf("restart: %v", err)
			}
		}, 0},
		{"reset", func(t *testing.T, s *ExamSession) { s.ResetExam() }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := store.NewMemoryStore()
			s := NewExamSession(bankWith(models.CategoryI, 3), results, SessionOptions{})
			if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
				t.Fatalf("StartExam: %v", err)
			}
			attempt := s.Attempt()
			before := s.Snapshot().State

			tt.close(t, s)
			after := s.Snapshot().State

			res, err := s.FinishAttempt(attempt)
			if !errors.Is(err, ErrAttemptClosed) || res != nil {
				t.Fatalf("FinishAttempt = %v, %v; want ErrAttemptClosed", res, err)
			}
			if stored, _ := results.LoadResults(); len(stored) != tt.want {
				t.Errorf("stored %d results, want %d", len(stored), tt.want)
			}
			if before != ExamStateInProgress || s.Snapshot().State != after {
				t.Errorf("state changed by a closed attempt: %s, want %s", s.Snapshot().State, after)
			}
		})
	}
}

func TestFinishAttemptCurrent(t *testing.T) {
	results := store.NewMemoryStore()
	s := NewExamSession(bankWith(models.CategoryI, 3), results, SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	res, err := s.FinishAttempt(s.Attempt())
	if err != nil || res == nil {
		t.Fatalf("FinishAttempt = %v, %v", res, err)
	}
	if _, err := s.FinishAttempt(s.Attempt()); !errors.Is(err, ErrAttemptClosed) {
		t.Errorf("second FinishAttempt err = %v, want ErrAttemptClosed", err)
	}
	if stored, _ := results.LoadResults(); len(stored) != 1 {
		t.Errorf("stored %d results, want 1", len(stored))
	}
}

func TestFinishExamLoadSaveFallback(t *testing.T) {
	results := &loadSaveStore{results: []models.ExamResult{{ID: "earlier", Category: models.CategoryII}}}
	s := NewExamSession(bankWith(models.CategoryI, 2), results, SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	res, err := s.FinishExam()
	if err != nil {
		t.Fatalf("FinishExam: %v", err)
	}
	if len(results.results) != 2 || results.results[0].ID != "earlier" || results.results[1].ID != res.ID {
		t.Errorf("stored %+v, want earlier result followed by %s", results.results, res.ID)
	}
}

func TestFinishExamPersistFailureKeepsResult(t *testing.T) {
	results := &loadSaveStore{saveErr: errors.New("disk full")}
	s := NewExamSession(bankWith(models.CategoryI, 2), results, SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	res, err := s.FinishExam()
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if res == nil {
		t.Fatal("result dropped on persistence error")
	}
	state := s.Snapshot()
	if state.State != ExamStateFinished || state.Result == nil || state.Result.ID != res.ID {
		t.Errorf("session state = %+v, want finished with result %s", state, res.ID)
	}
}

func TestFinishExamWithoutStart(t *testing.T) {
	results := store.NewMemoryStore()
	s := NewExamSession(bankWith(models.CategoryI, 2), results, SessionOptions{})

	res, err := s.FinishExam()
	if res != nil || err != nil {
		t.Fatalf("FinishExam = %v, %v; want nil, nil", res, err)
	}
	if stored, _ := results.LoadResults(); len(stored) != 0 {
		t.Errorf("stored %d results, want 0", len(stored))
	}
}

func TestFinishExamElapsedMinutes(t *testing.T) {
	clock := newFakeClock()
	s := NewExamSession(bankWith(models.CategoryI, 2), nil, SessionOptions{Now: clock.Now})
	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	clock.Advance(44*time.Minute + 20*time.Second)
	res, _ := s.FinishExam()
	if res.TimeTakenMinutes != 44 {
		t.Errorf("time taken = %d, want 44", res.TimeTakenMinutes)
	}
	if !res.FinishedAt.Equal(clock.Now()) {
		t.Errorf("finished at %v, want %v", res.FinishedAt, clock.Now())
	}
}

func TestResetExam(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryI, 3), store.NewMemoryStore(), SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, false); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	answerAll(t, s, 1)
	if _, err := s.FinishExam(); err != nil {
		t.Fatalf("FinishExam: %v", err)
	}

	s.ResetExam()

	state := s.Snapshot()
	if state.State != ExamStateIdle || state.Config != nil || state.Category != nil ||
		state.Result != nil || state.StartedAt != nil || len(state.Answers) != 0 {
		t.Errorf("reset left state behind: %+v", state)
	}
	if _, ok := s.GetQuestionByID("cat_i-001"); ok {
		t.Error("question still reachable after reset")
	}
}

func TestGetQuestionByID(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryI, 3), nil, SessionOptions{})
	if _, ok := s.GetQuestionByID("cat_i-001"); ok {
		t.Fatal("found question before start")
	}
	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	q, ok := s.GetQuestionByID("cat_i-002")
	if !ok || q.Text != "Question 2" {
		t.Errorf("GetQuestionByID = %+v, %t", q, ok)
	}
	if _, ok := s.GetQuestionByID("cat_ii-001"); ok {
		t.Error("found a question that is not in the exam")
	}
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	var states []ExamState
	s := NewExamSession(bankWith(models.CategoryI, 2), nil, SessionOptions{
		OnChange: func(state SessionState) { states = append(states, state.State) },
	})

	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	if err := s.SubmitAnswer("cat_i-001", 0); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := s.FinishExam(); err != nil {
		t.Fatalf("FinishExam: %v", err)
	}
	s.ResetExam()

	want := []ExamState{ExamStateInProgress, ExamStateInProgress, ExamStateFinished, ExamStateIdle}
	if len(states) != len(want) {
		t.Fatalf("got %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("change %d = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewExamSession(bankWith(models.CategoryI, 2), nil, SessionOptions{})
	if err := s.StartExam(context.Background(), models.CategoryI, true); err != nil {
		t.Fatalf("StartExam: %v", err)
	}

	state := s.Snapshot()
	state.Answers[0].QuestionID = "mutated"
	state.Config.Questions[0].ID = "mutated"

	again := s.Snapshot()
	if again.Answers[0].QuestionID == "mutated" || again.Config.Questions[0].ID == "mutated" {
		t.Error("snapshot shares memory with the session")
	}
}
