package director

import (
	"time"

	"github.com/adrianhensler/botterverse/pkg/config"
)

// Config holds every tunable the pacing engine consults. Nothing in the tick
// logic reads the environment directly; tests construct this struct with
// fixed values and a seeded random source.
type Config struct {
	// ReplyProbability is the chance an acting persona replies to an
	// existing post instead of writing a fresh one.
	ReplyProbability float64
	// QuoteProbability is the chance a reply becomes a quote post.
	QuoteProbability float64
	// CadenceJitter spreads the next due time by ±this fraction of the
	// persona's cadence, preventing synchronized bursts.
	CadenceJitter float64

	// ReactionMinDelay/MaxDelay bound the stagger applied to each matched
	// persona when an event arrives.
	ReactionMinDelay time.Duration
	ReactionMaxDelay time.Duration
	// ReactionExpiry is how long past fire_at a reaction may wait before
	// it is dropped as stale.
	ReactionExpiry time.Duration
	// DedupWindow is how many accepted external event IDs are remembered.
	DedupWindow int

	PersonaHourlyLimit int
	GlobalMinuteLimit  int

	// LikeProbability is the per-persona chance of a passive like each
	// like tick.
	LikeProbability float64

	// RecentWindow bounds the recent-posts window handed to the reply
	// router and prompt builder.
	RecentWindow int
	// RelevanceThreshold is the minimum interest-overlap score a post
	// needs to be a reply target.
	RelevanceThreshold int

	// PremiumTones route a persona to the premium tier when its tone
	// contains any of these substrings.
	PremiumTones []string

	// DMThreadDepth is how many messages of a thread feed the DM reply
	// prompt.
	DMThreadDepth int

	// GenerationTimeout boxes each provider call so a stalled provider
	// delays only the current job's next firing.
	GenerationTimeout time.Duration
}

// DefaultConfig returns the production defaults, overridable via environment.
func DefaultConfig() Config {
	return Config{
		ReplyProbability:   config.GetEnvFloat("DIRECTOR_REPLY_PROBABILITY", 0.15),
		QuoteProbability:   config.GetEnvFloat("DIRECTOR_QUOTE_PROBABILITY", 0.30),
		CadenceJitter:      config.GetEnvFloat("DIRECTOR_CADENCE_JITTER", 0.20),
		ReactionMinDelay:   config.GetEnvDuration("DIRECTOR_REACTION_MIN_DELAY", 2*time.Minute),
		ReactionMaxDelay:   config.GetEnvDuration("DIRECTOR_REACTION_MAX_DELAY", 10*time.Minute),
		ReactionExpiry:     config.GetEnvDuration("DIRECTOR_REACTION_EXPIRY", 30*time.Minute),
		DedupWindow:        config.GetEnvInt("DIRECTOR_EVENT_DEDUP_WINDOW", 500),
		PersonaHourlyLimit: config.GetEnvInt("DIRECTOR_PERSONA_HOURLY_LIMIT", 10),
		GlobalMinuteLimit:  config.GetEnvInt("DIRECTOR_GLOBAL_MINUTE_LIMIT", 30),
		LikeProbability:    config.GetEnvFloat("DIRECTOR_LIKE_PROBABILITY", 0.05),
		RecentWindow:       config.GetEnvInt("DIRECTOR_RECENT_WINDOW", 50),
		RelevanceThreshold: config.GetEnvInt("DIRECTOR_RELEVANCE_THRESHOLD", 1),
		PremiumTones:       []string{"formal", "professional"},
		DMThreadDepth:      config.GetEnvInt("DIRECTOR_DM_THREAD_DEPTH", 10),
		GenerationTimeout:  config.GetEnvDuration("DIRECTOR_GENERATION_TIMEOUT", 30*time.Second),
	}
}
