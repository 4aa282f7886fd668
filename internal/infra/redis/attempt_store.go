package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/quiz"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempts themselves stay in a local map: the countdown goroutine and
//     the answer tracker are in-process state and cannot round-trip through
//     Redis without losing their timer.
//   - Redis marks attempt liveness with a TTL, so operators can observe how
//     many attempts are live across instances.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*quiz.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*quiz.Attempt),
	}
}

// PutIfAbsent stores the attempt unless the key is already held locally; the
// local map decides the winner, Redis only mirrors liveness.
func (s *AttemptStore) PutIfAbsent(attemptID string, attempt *quiz.Attempt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attemptID]; ok {
		return false
	}
	s.attempts[attemptID] = attempt
	// best-effort liveness marker
	_ = s.client.SetNX(context.Background(), s.key(attemptID), "1", s.ttl).Err()
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
	if _, ok := s.attempts[attemptID]; !ok {
		return
	}
	delete(s.attempts, attemptID)
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

func (s *AttemptStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
