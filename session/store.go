// Package session persists conversation transcripts between orchestration
// runs, keyed by conversation id. Stores hold the full message history,
// hidden turns included, so stateless callers can resume a conversation
// without round-tripping it themselves.
package session

import (
	"context"
	"sync"

	"github.com/toolturn/toolturn/core"
)

// Store is the persistence contract. Load returns an empty transcript for an
// unknown id; Save replaces the stored transcript wholesale.
type Store interface {
	Load(ctx context.Context, conversationID string) ([]core.Message, error)
	Save(ctx context.Context, conversationID string, msgs []core.Message) error
}

// InMemoryStore is a volatile Store keeping transcripts in a process local
// map. It is safe for concurrent access and best suited for tests or
// ephemeral demo servers. Transcripts are cloned on both paths to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string][]core.Message)}
}

// Load implements Store.
func (s *InMemoryStore) Load(_ context.Context, conversationID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs, ok := s.conversations[conversationID]
	if !ok {
		return nil, nil
	}
	return core.CloneMessages(msgs), nil
}

// Save implements Store.
func (s *InMemoryStore) Save(_ context.Context, conversationID string, msgs []core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conversationID] = core.CloneMessages(msgs)
	return nil
}
