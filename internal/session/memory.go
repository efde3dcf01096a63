package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore implements Store in process memory. It exists for tests and
// single-worker development; sessions still round-trip through JSON so it
// behaves like the Redis store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	buffers  map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		buffers:  make(map[string][]byte),
	}
}

func (s *MemoryStore) PutSession(_ context.Context, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("serializing session %q: %w", sess.Token, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = data
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, token string) (Session, error) {
	s.mu.Lock()
	data, ok := s.sessions[token]
	s.mu.Unlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("deserializing session %q: %w", token, err)
	}
	return sess, nil
}

func (s *MemoryStore) PutBuffer(_ context.Context, token string, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[token] = append([]byte(nil), buf...)
	return nil
}

func (s *MemoryStore) GetBuffer(_ context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[token]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), buf...), nil
}

func (s *MemoryStore) AppendBuffer(_ context.Context, token string, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers[token] = append(s.buffers[token], buf...)
	return nil
}

func (s *MemoryStore) ListTokens(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := make([]string, 0, len(s.sessions))
	for token := range s.sessions {
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *MemoryStore) Drop(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	delete(s.buffers, token)
	return nil
}
