package services

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

var ErrExamNotFound = errors.New("exam not found")

// ExamManager keeps the live exam sessions served over HTTP, keyed by id.
type ExamManager struct {
	bank  QuestionBank
	store ResultStore
	opts  SessionOptions

	mu       sync.RWMutex
	sessions map[string]*ExamSession
}

func NewExamManager(bank QuestionBank, store ResultStore, opts SessionOptions) *ExamManager {
	return &ExamManager{
		bank:     bank,
		store:    store,
		opts:     opts,
		sessions: make(map[string]*ExamSession),
	}
}

// Create registers a new idle session. onChange, if not nil, receives the
// session id with every snapshot.
func (m *ExamManager) Create(onChange func(id string, state SessionState)) (string, *ExamSession) {
	id := uuid.NewString()

	opts := m.opts
	if onChange != nil {
		opts.OnChange = func(state SessionState) { onChange(id, state) }
	}
	session := NewExamSession(m.bank, m.store, opts)

	m.mu.Lock()
	m.sessions[id] = session
	total := len(m.sessions)
	m.mu.Unlock()

	log.Printf("exam: session %s created (active: %d)", id, total)
	return id, session
}

func (m *ExamManager) Get(id string) (*ExamSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrExamNotFound
	}
	return session, nil
}

func (m *ExamManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return ErrExamNotFound
	}
	session.ResetExam()
	delete(m.sessions, id)
	log.Printf("exam: session %s removed", id)
	return nil
}

func (m *ExamManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
