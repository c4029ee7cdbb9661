package game

import (
	"sync"
	"time"
)

// Scheduler is the engine's one-shot timer boundary. The engine arms at most
// one timer per session at a time (start delay, question window or
// inter-question delay, never overlapping). Tests inject a manual fake.
type Scheduler interface {
	Arm(sessionID string, d time.Duration, fn func())
	Cancel(sessionID string)
}

// TimerRegistry holds one outstanding countdown per active session.
// Cancellation is best-effort: a timer that fires after its session moved on
// must be rendered harmless by the engine's question-index re-check, not by
// Stop having won the race.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn after d, replacing any timer already armed for the session.
func (r *TimerRegistry) Arm(sessionID string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[sessionID]; ok {
		timer.Stop()
	}
	r.timers[sessionID] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, sessionID)
		r.mu.Unlock()
		fn()
	})
}

func (r *TimerRegistry) Cancel(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[sessionID]; ok {
		timer.Stop()
		delete(r.timers, sessionID)
	}
}

// Armed reports whether a countdown is currently outstanding for the session.
func (r *TimerRegistry) Armed(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[sessionID]
	return ok
}
