package quiz

import (
	"time"

	"quiz-attempt-service/internal/domain"
)

// The countdown is a scoped resource: acquired by Start, released on every
// exit path (manual submit, expiry, Close). The stop channel is owned by the
// attempt and closed at most once under the lock.

func (a *Attempt) runCountdown(stop chan struct{}) {
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if a.tickOnce() {
				return
			}
		}
	}
}

// tickOnce refreshes the remaining time from the wall clock and forces a
// submit when the budget is exhausted. Anchoring on startedAt rather than
// counting ticks means time elapsed while the host was suspended still
// counts against the limit. Returns true once the countdown is done.
func (a *Attempt) tickOnce() bool {
	a.mu.Lock()
	if a.closed || a.status != domain.StatusInProgress {
		a.mu.Unlock()
		return true
	}
	a.remaining = a.remainingAt(a.now())
	expired := a.remaining == 0
	a.broadcastLocked()
	a.mu.Unlock()

	if expired {
		// Submit re-checks status under the lock, so a racing manual submit
		// or a double-firing ticker cannot complete the attempt twice.
		_, _ = a.Submit()
	}
	return expired
}

// remainingAt computes the remaining budget at the given instant, clamped
// to zero. Callers hold the lock.
func (a *Attempt) remainingAt(at time.Time) int {
	elapsed := int(at.Sub(a.startedAt) / a.tick)
	remaining := a.limit - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (a *Attempt) stopCountdownLocked() {
	if a.stopTimer != nil {
		close(a.stopTimer)
		a.stopTimer = nil
	}
}
