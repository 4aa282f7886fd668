package quiz

import (
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Snapshot is a read-only view of an attempt, safe to hand to transports.
type Snapshot struct {
	QuizID           string               `json:"quizId"`
	Status           domain.AttemptStatus `json:"status"`
	QuestionIndex    int                  `json:"questionIndex"`
	AnsweredCount    int                  `json:"answeredCount"`
	TotalQuestions   int                  `json:"totalQuestions"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	Result           *domain.Result       `json:"result,omitempty"`
}

// Attempt is a single live run through one quiz: the answer tracker, the
// countdown, and the state machine that funnels every terminal trigger
// (manual submit, timer expiry) into exactly one Result.
//
// A mutex serializes mutations because the countdown goroutine and
// transport-driven calls race to complete the attempt; the status guard in
// Submit ensures only the first caller scores.
type Attempt struct {
	quiz       domain.Quiz
	limit      int
	now        func() time.Time
	tick       time.Duration
	onComplete func(domain.Result)

	mu          sync.RWMutex
	status      domain.AttemptStatus
	closed      bool
	current     int
	answers     map[int]int
	remaining   int
	startedAt   time.Time
	result      *domain.Result
	stopTimer   chan struct{}
	subscribers map[chan Snapshot]struct{}
}

// NewAttempt builds a fresh attempt for a validated quiz. onComplete, if
// non-nil, is invoked exactly once with the finalized Result, outside the
// attempt lock; it may be nil.
func NewAttempt(q domain.Quiz, onComplete func(domain.Result)) *Attempt {
	return NewAttemptWithClock(q, onComplete, time.Now, time.Second)
}

// NewAttemptWithClock is for deterministic timestamps and fast countdowns in
// tests: tick is the duration of one countdown unit (one second in
// production) and now supplies the wall clock.
func NewAttemptWithClock(q domain.Quiz, onComplete func(domain.Result), now func() time.Time, tick time.Duration) *Attempt {
	return &Attempt{
		quiz:        q,
		limit:       q.TimeLimitSeconds(),
		now:         now,
		tick:        tick,
		onComplete:  onComplete,
		status:      domain.StatusNotStarted,
		answers:     make(map[int]int),
		remaining:   q.TimeLimitSeconds(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Start moves the attempt to InProgress and launches the countdown. It
// rejects anything but a fresh attempt.
func (a *Attempt) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.status != domain.StatusNotStarted {
		return domain.ErrAlreadyStarted
	}
	a.status = domain.StatusInProgress
	a.startedAt = a.now()
	a.remaining = a.limit
	a.current = 0
	a.stopTimer = make(chan struct{})
	go a.runCountdown(a.stopTimer)
	a.broadcastLocked()
	return nil
}

// SelectAnswer records (or overwrites, last write wins) the selected option
// for a question. Invalid indices are rejected without touching state.
func (a *Attempt) SelectAnswer(questionIndex, optionIndex int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.status != domain.StatusInProgress {
		return domain.ErrNotInProgress
	}
	if questionIndex < 0 || questionIndex >= len(a.quiz.Questions) {
		return domain.ErrQuestionIndexOutOfRange
	}
	if optionIndex < 0 || optionIndex >= len(a.quiz.Questions[questionIndex].Options) {
		return domain.ErrOptionIndexOutOfRange
	}
	a.answers[questionIndex] = optionIndex
	a.broadcastLocked()
	return nil
}

// Next advances the current question, clamped at the last one. Never wraps,
// never completes the attempt: running out of questions is not terminal.
func (a *Attempt) Next() {
	a.step(1)
}

// Previous moves back one question, clamped at the first.
func (a *Attempt) Previous() {
	a.step(-1)
}

func (a *Attempt) step(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.status != domain.StatusInProgress {
		return
	}
	next := a.current + delta
	if next < 0 {
		next = 0
	}
	if max := len(a.quiz.Questions) - 1; next > max {
		next = max
	}
	if next == a.current {
		return
	}
	a.current = next
	a.broadcastLocked()
}

// Submit finalizes the attempt. The first caller (user action or timer
// expiry) scores and freezes the attempt; every later caller gets the same
// Result back with no recomputation and no duplicate side effects.
func (a *Attempt) Submit() (domain.Result, error) {
	a.mu.Lock()

	switch {
	case a.status == domain.StatusCompleted:
		result := *a.result
		a.mu.Unlock()
		return result, nil
	case a.closed, a.status == domain.StatusNotStarted:
		// A disposed attempt never scores: a tick that was already waiting
		// on the lock when Close ran lands here and becomes a no-op.
		a.mu.Unlock()
		return domain.Result{}, domain.ErrNotInProgress
	}

	completedAt := a.now()
	a.remaining = a.remainingAt(completedAt)
	result := Score(a.quiz, a.answers, a.limit-a.remaining, completedAt)
	a.result = &result
	a.status = domain.StatusCompleted
	a.stopCountdownLocked()
	a.broadcastLocked()
	hook := a.onComplete
	a.mu.Unlock()

	if hook != nil {
		hook(result)
	}
	return result, nil
}

// Result returns the finalized Result, or false while the attempt is live.
func (a *Attempt) Result() (domain.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.result == nil {
		return domain.Result{}, false
	}
	return *a.result, true
}

// Snapshot returns the current view of the attempt.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshotLocked()
}

// Close releases the attempt without submitting: the countdown stops and all
// subscriber channels close. Abandoning a live attempt never produces a
// Result. Safe to call more than once and after completion.
func (a *Attempt) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	a.stopCountdownLocked()
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel receiving snapshots on every state change,
// seeded with the current one. The caller must invoke the cancel function
// to avoid leaks.
func (a *Attempt) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	// Seed under the lock: the buffered channel takes it without blocking, and
	// no broadcast can slip in ahead of the initial snapshot.
	ch <- a.snapshotLocked()
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) snapshotLocked() Snapshot {
	return Snapshot{
		QuizID:           a.quiz.ID,
		Status:           a.status,
		QuestionIndex:    a.current,
		AnsweredCount:    len(a.answers),
		TotalQuestions:   len(a.quiz.Questions),
		RemainingSeconds: a.remaining,
		Result:           a.result,
	}
}

func (a *Attempt) broadcastLocked() {
	snapshot := a.snapshotLocked()
	for ch := range a.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale snapshot so a slow reader cannot block the
			// attempt; the freshest view always lands.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
