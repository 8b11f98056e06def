// Package chatclient holds one visitor's conversation with the chat relay.
package chatclient

import (
	"context"
	"strings"
	"sync"

	"portfolio-backend/internal/models"
)

type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// Transport delivers the full history to the relay and returns its reply.
type Transport interface {
	SendChat(ctx context.Context, messages []models.Turn, portfolioContext string) (string, error)
}

// Snapshot is the session as observers see it after a state change.
type Snapshot struct {
	State State
	Turns []models.Turn
}

// Session allows at most one outstanding request. Turns are appended in
// submission order and never removed.
type Session struct {
	transport        Transport
	portfolioContext string

	mu        sync.Mutex
	state     State
	turns     []models.Turn
	observers map[int]func(Snapshot)
	nextID    int
}

func NewSession(transport Transport, portfolioContext string) *Session {
	return &Session{
		transport:        transport,
		portfolioContext: portfolioContext,
		observers:        make(map[int]func(Snapshot)),
	}
}

// Submit sends text as the next user turn and blocks until the reply or
// failure has been appended. It does nothing and returns false when text is
// blank or another request is outstanding.
func (s *Session) Submit(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return false
	}
	s.turns = append(s.turns, models.Turn{Role: models.RoleUser, Content: text})
	s.state = AwaitingResponse
	history := append([]models.Turn(nil), s.turns...)
	s.notifyLocked()
	s.mu.Unlock()

	reply, err := s.transport.SendChat(ctx, history, s.portfolioContext)
	content := reply
	if err != nil {
		content = "Error: " + err.Error()
	}

	s.mu.Lock()
	s.turns = append(s.turns, models.Turn{Role: models.RoleAssistant, Content: content})
	s.state = Idle
	s.notifyLocked()
	s.mu.Unlock()

	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the history.
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Turn(nil), s.turns...)
}

// Subscribe registers fn to run after every state change. Observers run with
// the session locked and must not call back into it. The returned function
// removes fn and may be called more than once.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) notifyLocked() {
	if len(s.observers) == 0 {
		return
	}
	snap := Snapshot{State: s.state, Turns: append([]models.Turn(nil), s.turns...)}
	for _, fn := range s.observers {
		fn(snap)
	}
}
