package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlane/callpilot/backend/internal/model/conversation"
)

// Store holds per-session conversation history. Unknown session ids are not
// an error anywhere: History returns an empty slice and Clear is a no-op.
type Store interface {
	AppendTurn(ctx context.Context, sessionID, role, content string) (conversation.Turn, error)
	History(ctx context.Context, sessionID string) ([]conversation.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

type sessionRecord struct {
	turns      []conversation.Turn
	lastActive time.Time
}

// MemoryStore keeps conversation state in process memory. State is lost on
// restart; idle sessions are evicted by a janitor when a TTL is configured,
// otherwise the maps grow for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord

	ttl  time.Duration
	done chan struct{}
	once sync.Once
}

// NewMemoryStore bootstraps the in-memory store. A ttl of zero disables idle
// eviction.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*sessionRecord),
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// AppendTurn creates the session lazily and appends one turn.
func (s *MemoryStore) AppendTurn(_ context.Context, sessionID, role, content string) (conversation.Turn, error) {
	turn := conversation.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		rec = &sessionRecord{turns: make([]conversation.Turn, 0, 16)}
		s.sessions[sessionID] = rec
	}
	rec.turns = append(rec.turns, turn)
	rec.lastActive = time.Now()

	return turn, nil
}

// History returns a copy of the stored turns, oldest first. Unknown sessions
// yield an empty slice.
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	copied := make([]conversation.Turn, len(rec.turns))
	copy(copied, rec.turns)
	return copied, nil
}

// Clear removes the session's history. Clearing an unknown session is a no-op.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Close stops the eviction janitor.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) janitor() {
	interval := s.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.evictIdle(time.Now())
		}
	}
}

func (s *MemoryStore) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.sessions {
		if now.Sub(rec.lastActive) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
