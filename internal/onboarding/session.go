package onboarding

import (
	"sync"
	"time"

	"github.com/fitmate/backend/internal/profiles"
)

type Phase string

const (
	PhaseGreeting   Phase = "greeting"
	PhaseStructured Phase = "structured"
	PhaseCompleted  Phase = "completed"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

type TranscriptEntry struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds one user's onboarding conversation. Sessions live in
// memory only and are recreated per app session, never persisted.
type Session struct {
	UserID     string
	Phase      Phase
	Cursor     int
	Draft      profiles.UserProfile
	Transcript []TranscriptEntry
	Completed  []bool
	CreatedAt  time.Time
}

func newSession(userID string) *Session {
	session := &Session{
		UserID:    userID,
		Phase:     PhaseGreeting,
		Cursor:    0,
		Completed: make([]bool, len(steps)),
		CreatedAt: time.Now(),
	}
	session.appendBot(welcomeMessage)
	return session
}

func (s *Session) appendUser(message string) {
	s.Transcript = append(s.Transcript, TranscriptEntry{
		Sender:    SenderUser,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (s *Session) appendBot(message string) {
	s.Transcript = append(s.Transcript, TranscriptEntry{
		Sender:    SenderBot,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (s *Session) completedSteps() int {
	count := 0
	for _, done := range s.Completed {
		if done {
			count++
		}
	}
	return count
}

// allStepsDone reports whether the cursor moved past the last step,
// i.e. only the final profile insert remains.
func (s *Session) allStepsDone() bool {
	return s.Cursor >= len(steps)
}

type SessionManager struct {
	mutex    sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) GetOrCreate(userID string) *Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if session, ok := m.sessions[userID]; ok {
		return session
	}
	session := newSession(userID)
	m.sessions[userID] = session
	return session
}

func (m *SessionManager) Reset(userID string) *Session {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session := newSession(userID)
	m.sessions[userID] = session
	return session
}
