package director

import (
	"sync"
	"time"

	sw "github.com/RussellLuo/slidingwindow"
	"github.com/google/uuid"
)

// RateLimiter enforces the two safety valves: a rolling per-persona hourly
// budget and a rolling global per-minute budget. A reservation consumes both
// budgets atomically; a persona that clears its own limit while the global
// window is exhausted does not charge either one.
type RateLimiter struct {
	mu         sync.Mutex
	perPersona map[uuid.UUID]*sw.Limiter
	global     *sw.Limiter

	personaLimit int64
	globalLimit  int64
}

func newLocalLimiter(size time.Duration, limit int64) *sw.Limiter {
	lim, _ := sw.NewLimiter(size, limit, func() (sw.Window, sw.StopFunc) {
		return sw.NewLocalWindow()
	})
	return lim
}

func NewRateLimiter(personaHourly, globalMinute int) *RateLimiter {
	return &RateLimiter{
		perPersona:   make(map[uuid.UUID]*sw.Limiter),
		global:       newLocalLimiter(time.Minute, int64(globalMinute)),
		personaLimit: int64(personaHourly),
		globalLimit:  int64(globalMinute),
	}
}

// Reserve consumes one slot for the persona and one global slot. It returns
// false if either window is exhausted. When the global window denies, the
// persona slot taken in the same call stays spent, which only biases toward
// fewer posts. Slots are never refunded if the generation that follows
// fails; a failed provider call still spent real work.
func (r *RateLimiter) Reserve(personaID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	lim, ok := r.perPersona[personaID]
	if !ok {
		lim = newLocalLimiter(time.Hour, r.personaLimit)
		r.perPersona[personaID] = lim
	}
	if !lim.Allow() {
		return false
	}
	return r.global.Allow()
}
