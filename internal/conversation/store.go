// Package conversation holds the in-memory per-user message log.
package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sahana-ai/assistant-platform/internal/model"
)

// Store is an append-only ordered message log keyed by username. Messages
// are immutable once appended and live only for the active session.
type Store struct {
	mu       sync.RWMutex
	logs     map[string][]model.Message
	sequence map[string]uint64
}

// NewStore creates a new conversation store.
func NewStore() *Store {
	return &Store{
		logs:     make(map[string][]model.Message),
		sequence: make(map[string]uint64),
	}
}

// Append adds a message to a user's log, assigning ID, sequence and
// timestamp. The stored copy is returned.
func (s *Store) Append(username string, msg model.Message) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence[username]++
	msg.ID = uuid.Must(uuid.NewV7()).String()
	msg.Username = username
	msg.Sequence = s.sequence[username]
	msg.CreatedAt = time.Now()

	s.logs[username] = append(s.logs[username], msg)
	return msg
}

// List returns a copy of a user's log in insertion order.
func (s *Store) List(username string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[username]
	out := make([]model.Message, len(log))
	copy(out, log)
	return out
}

// LastSequence returns the sequence of the most recent message.
func (s *Store) LastSequence(username string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequence[username]
}

// History projects a user's log into the wire representation used as
// context for the next remote call: user and model messages carrying text,
// in insertion order. System messages and text-less messages (an image with
// no caption) are excluded.
func (s *Store) History(username string) []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []model.HistoryEntry
	for _, msg := range s.logs[username] {
		if msg.Role == model.RoleSystem || msg.Text == "" {
			continue
		}
		entries = append(entries, model.HistoryEntry{
			Role:  msg.Role,
			Parts: []model.Part{{Text: msg.Text}},
		})
	}
	return entries
}

// Clear removes a user's entire log. Called on logout.
func (s *Store) Clear(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, username)
	delete(s.sequence, username)
}
