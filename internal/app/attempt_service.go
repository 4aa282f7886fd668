package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/narrator"
	"quiz-attempt-service/internal/quiz"
)

// AttemptRepository abstracts how live attempts are stored (in-memory, Redis-
// backed liveness, etc). PutIfAbsent must be atomic: it stores the attempt and
// reports true only when no attempt held the key, so racing starters for the
// same key resolve to a single winner.
type AttemptRepository interface {
	PutIfAbsent(attemptID string, attempt *quiz.Attempt) bool
	Get(attemptID string) (*quiz.Attempt, bool)
	Delete(attemptID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionGateway syncs a finalized result to the remote progress service.
type SubmissionGateway interface {
	Submit(ctx context.Context, quizID string, result domain.Result) error
}

// AttemptService contains the attempt use cases: it owns every live Attempt,
// wires completion into the best-effort submission flow, and feeds the
// accessibility narrator.
type AttemptService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	gateway  SubmissionGateway
	voice    narrator.Narrator

	now  func() time.Time
	tick time.Duration

	submitTimeout time.Duration
}

func NewAttemptService(attempts AttemptRepository, quizzes QuizRepository, gw SubmissionGateway, voice narrator.Narrator) *AttemptService {
	return NewAttemptServiceWithClock(attempts, quizzes, gw, voice, time.Now, time.Second)
}

// NewAttemptServiceWithClock is test-only for deterministic clocks and fast
// countdowns.
func NewAttemptServiceWithClock(attempts AttemptRepository, quizzes QuizRepository, gw SubmissionGateway, voice narrator.Narrator, now func() time.Time, tick time.Duration) *AttemptService {
	if voice == nil {
		voice = narrator.Nop{}
	}
	return &AttemptService{
		attempts:      attempts,
		quizzes:       quizzes,
		gateway:       gw,
		voice:         voice,
		now:           now,
		tick:          tick,
		submitTimeout: 10 * time.Second,
	}
}

// StartAttempt loads and validates the quiz, builds a fresh attempt, and
// starts its countdown. A live attempt under the same key is rejected; a
// completed one is replaced, since a new try is always a new Attempt.
func (s *AttemptService) StartAttempt(ctx context.Context, attemptID, quizID string) (quiz.Snapshot, error) {
	if existing, ok := s.attempts.Get(attemptID); ok {
		if _, done := existing.Result(); !done {
			return quiz.Snapshot{}, domain.ErrAlreadyStarted
		}
		existing.Close()
		s.attempts.Delete(attemptID)
	}

	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return quiz.Snapshot{}, err
	}
	if err := q.Validate(); err != nil {
		return quiz.Snapshot{}, fmt.Errorf("quiz %s: %w", quizID, err)
	}

	attempt := quiz.NewAttemptWithClock(q, func(result domain.Result) {
		s.voice.Announce(fmt.Sprintf("Quiz complete. You scored %d percent.", result.ScorePercent))
		go s.dispatch(quizID, result)
	}, s.now, s.tick)

	// Claim the key before starting the countdown. A concurrent starter for
	// the same key loses here and its attempt (no countdown yet) is discarded,
	// never orphaned while ticking.
	if !s.attempts.PutIfAbsent(attemptID, attempt) {
		attempt.Close()
		return quiz.Snapshot{}, domain.ErrAlreadyStarted
	}
	if err := attempt.Start(); err != nil {
		s.attempts.Delete(attemptID)
		return quiz.Snapshot{}, err
	}
	s.voice.Announce(fmt.Sprintf("Quiz %s started. %d questions, %d minutes.",
		q.Title, len(q.Questions), q.TimeLimitSeconds()/60))
	return attempt.Snapshot(), nil
}

// Quiz returns the attempt's quiz content for rendering.
func (s *AttemptService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// SelectAnswer records an answer on the live attempt; last write wins.
func (s *AttemptService) SelectAnswer(attemptID string, questionIndex, optionIndex int) (quiz.Snapshot, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return quiz.Snapshot{}, domain.ErrAttemptNotFound
	}
	if err := attempt.SelectAnswer(questionIndex, optionIndex); err != nil {
		return quiz.Snapshot{}, err
	}
	s.voice.Announce(fmt.Sprintf("Selected option %d for question %d.", optionIndex+1, questionIndex+1))
	return attempt.Snapshot(), nil
}

// Navigate moves the current question forward or back, clamped at the ends.
func (s *AttemptService) Navigate(attemptID string, forward bool) (quiz.Snapshot, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return quiz.Snapshot{}, domain.ErrAttemptNotFound
	}
	if forward {
		attempt.Next()
	} else {
		attempt.Previous()
	}
	return attempt.Snapshot(), nil
}

// Submit finalizes the attempt; idempotent across manual and timer triggers.
func (s *AttemptService) Submit(attemptID string) (domain.Result, error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Result{}, domain.ErrAttemptNotFound
	}
	return attempt.Submit()
}

// Result returns the finalized Result if the attempt has completed.
func (s *AttemptService) Result(attemptID string) (domain.Result, bool) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return domain.Result{}, false
	}
	return attempt.Result()
}

// Subscribe returns a channel of attempt snapshots (ticks, answers,
// completion). The caller must invoke the cancel function to avoid leaks.
func (s *AttemptService) Subscribe(attemptID string) (<-chan quiz.Snapshot, func(), error) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return nil, nil, domain.ErrAttemptNotFound
	}
	ch, cancel := attempt.Subscribe()
	return ch, cancel, nil
}

// Abandon disposes of the attempt: the countdown is cancelled and nothing is
// submitted. Abandoning an unknown attempt is a no-op.
func (s *AttemptService) Abandon(attemptID string) {
	attempt, ok := s.attempts.Get(attemptID)
	if !ok {
		return
	}
	attempt.Close()
	s.attempts.Delete(attemptID)
}

// dispatch runs the best-effort sync flow. The Result is already exposed
// locally; any failure here is logged and dropped, never surfaced.
func (s *AttemptService) dispatch(quizID string, result domain.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), s.submitTimeout)
	defer cancel()
	if err := s.gateway.Submit(ctx, quizID, result); err != nil {
		log.Printf("result submission for quiz %s failed: %v", quizID, err)
	}
}
