package chat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clinchat/internal/domain"
	chatmodel "clinchat/internal/domain/models/chat"
)

// Greeting seeds every new web session transcript.
const Greeting = "Hello! I am an AI clinical data assistant. How can I help you?"

// Session holds the per-browser-session state of the web variant: the
// bounded history window used for prompting and the full transcript used
// for display. Turns within a session are serialized by the mutex, so
// history is never read or written concurrently.
type Session struct {
	ID string

	mu         sync.Mutex
	history    *chatmodel.History
	transcript []chatmodel.Turn
}

// History returns the prompting window. Only call while holding the
// session via WithTurn.
func (s *Session) History() *chatmodel.History {
	return s.history
}

// WithTurn runs fn with exclusive access to the session, enforcing the
// one-turn-at-a-time model.
func (s *Session) WithTurn(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Record appends a completed exchange to the display transcript. The
// prompting window is maintained separately by the orchestrator.
func (s *Session) Record(question, reply string) {
	s.transcript = append(s.transcript,
		chatmodel.Turn{Role: chatmodel.RoleUser, Text: question},
		chatmodel.Turn{Role: chatmodel.RoleAssistant, Text: reply},
	)
}

// Transcript returns a copy of the ordered display transcript.
func (s *Session) Transcript() []chatmodel.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chatmodel.Turn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// SessionStore keeps in-memory sessions for the lifetime of the process.
// Nothing survives a restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxTurns int
}

// NewSessionStore creates a store whose sessions keep maxTurns logical
// turns of prompting history.
func NewSessionStore(maxTurns int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Create registers a new session seeded with the assistant greeting.
func (st *SessionStore) Create() *Session {
	s := &Session{
		ID:      uuid.NewString(),
		history: chatmodel.NewHistory(st.maxTurns),
		transcript: []chatmodel.Turn{
			{Role: chatmodel.RoleAssistant, Text: Greeting},
		},
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	return s
}

// Get looks up a session by ID.
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("session %s not found", id)}
	}
	return s, nil
}
