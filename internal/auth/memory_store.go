package auth

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. All sessions are lost on
// restart, and they are not visible to other instances - use RedisStore
// when more than one instance serves traffic.
type MemoryStore struct {
	mutex    sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
	}
}

func (s *MemoryStore) Put(_ context.Context, session Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[session.Token] = session
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Session, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	session, ok := s.sessions[token]
	return session, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) Tokens(_ context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	tokens := make([]string, 0, len(s.sessions))
	for token := range s.sessions {
		tokens = append(tokens, token)
	}
	return tokens, nil
}
