package director

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adrianhensler/botterverse/internal/models"
)

// PendingReaction is a scheduled write-up of an external event by one
// persona. The stagger between min and max delay keeps a newsworthy event
// from producing a wall of simultaneous posts.
type PendingReaction struct {
	PersonaID uuid.UUID
	Event     models.BotEvent
	FireAt    time.Time
}

// EventInjector accepts external events, dedupes them against a bounded
// window of recently seen IDs, matches them to interested personas and
// queues staggered reactions.
type EventInjector struct {
	mu      sync.Mutex
	seen    *lru.Cache[string, struct{}]
	pending []PendingReaction

	minDelay time.Duration
	maxDelay time.Duration
	expiry   time.Duration
	rng      *rand.Rand
	now      func() time.Time
}

func NewEventInjector(cfg Config, rng *rand.Rand) *EventInjector {
	window := cfg.DedupWindow
	if window <= 0 {
		window = 500
	}
	seen, _ := lru.New[string, struct{}](window)
	return &EventInjector{
		seen:     seen,
		minDelay: cfg.ReactionMinDelay,
		maxDelay: cfg.ReactionMaxDelay,
		expiry:   cfg.ReactionExpiry,
		rng:      rng,
		now:      time.Now,
	}
}

// dedupKey prefers the upstream provider's ID so the same story fetched
// twice is dropped even when our own event IDs differ.
func dedupKey(ev models.BotEvent) string {
	if ev.ExternalID != "" {
		return string(ev.Kind) + ":" + ev.ExternalID
	}
	return ev.ID.String()
}

// Matches reports whether the persona would react to the event: either the
// event kind itself is one of the persona's interests, or a token of the
// topic overlaps them. Comparison is case-insensitive.
func Matches(p Persona, ev models.BotEvent) bool {
	interests := make(map[string]bool, len(p.Interests))
	for _, in := range p.Interests {
		interests[strings.ToLower(in)] = true
	}
	if interests[strings.ToLower(string(ev.Kind))] {
		return true
	}
	for _, tok := range strings.Fields(strings.ToLower(ev.Topic)) {
		if interests[strings.Trim(tok, ".,!?:;\"'")] {
			return true
		}
	}
	return false
}

// Inject records the event and schedules one staggered reaction per matching
// persona. It returns false when the event is a duplicate of one already in
// the dedup window, alongside the number of reactions queued.
func (e *EventInjector) Inject(ev models.BotEvent, personas []Persona) (accepted bool, matched int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := dedupKey(ev)
	if _, dup := e.seen.Get(key); dup {
		return false, 0
	}
	e.seen.Add(key, struct{}{})

	now := e.now()
	spread := e.maxDelay - e.minDelay
	for _, p := range personas {
		if !Matches(p, ev) {
			continue
		}
		delay := e.minDelay
		if spread > 0 {
			delay += time.Duration(e.rng.Int63n(int64(spread)))
		}
		e.pending = append(e.pending, PendingReaction{
			PersonaID: p.ID,
			Event:     ev,
			FireAt:    now.Add(delay),
		})
		matched++
	}
	return true, matched
}

// Due removes and returns every reaction whose fire time has arrived.
// Reactions that sat past the expiry window are silently dropped; the
// second return value counts them so callers can log and meter the loss.
func (e *EventInjector) Due(now time.Time) (due []PendingReaction, expired int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var remaining []PendingReaction
	for _, pr := range e.pending {
		switch {
		case now.After(pr.FireAt.Add(e.expiry)):
			expired++
		case !now.Before(pr.FireAt):
			due = append(due, pr)
		default:
			remaining = append(remaining, pr)
		}
	}
	e.pending = remaining
	return due, expired
}

// Requeue puts a reaction back at the front of the queue, used when the
// rate limiter refuses the persona at fire time. The original FireAt is
// kept so the expiry clock keeps running.
func (e *EventInjector) Requeue(pr PendingReaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append([]PendingReaction{pr}, e.pending...)
}

func (e *EventInjector) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
