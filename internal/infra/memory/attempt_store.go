package memory

import (
	"sync"

	"quiz-attempt-service/internal/quiz"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Attempts are process-local by design: there is no partial-attempt
// persistence, so a process restart ends any live attempt.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*quiz.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*quiz.Attempt),
	}
}

// PutIfAbsent stores the attempt unless the key is already held. The check and
// the insert share one critical section so concurrent starters cannot both win.
func (s *AttemptStore) PutIfAbsent(attemptID string, attempt *quiz.Attempt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attemptID]; ok {
		return false
	}
	s.attempts[attemptID] = attempt
	return true
}

func (s *AttemptStore) Get(attemptID string) (*quiz.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	return attempt, ok
}

func (s *AttemptStore) Delete(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptID)
}
