package director

import (
	"math/rand"
	"strings"

	"github.com/adrianhensler/botterverse/internal/models"
)

type ActionKind string

const (
	ActionPost  ActionKind = "post"
	ActionReply ActionKind = "reply"
	ActionQuote ActionKind = "quote"
)

// Action is the shape of what a due persona will do this tick. Target is
// set only for replies and quotes.
type Action struct {
	Kind   ActionKind
	Target *models.Post
}

// ReplyRouter picks an action kind and, for replies, a target post scored
// by interest overlap against a recent-posts window. It never mutates
// state; the same persona, window and random draws always yield the same
// choice.
type ReplyRouter struct {
	replyProbability float64
	quoteProbability float64
	threshold        int
}

func NewReplyRouter(cfg Config) *ReplyRouter {
	return &ReplyRouter{
		replyProbability: cfg.ReplyProbability,
		quoteProbability: cfg.QuoteProbability,
		threshold:        cfg.RelevanceThreshold,
	}
}

// overlapScore counts how many of the persona's interests appear as
// substrings of the post content, case-insensitive.
func overlapScore(interests []string, content string) int {
	lc := strings.ToLower(content)
	score := 0
	for _, in := range interests {
		in = strings.ToLower(strings.TrimSpace(in))
		if in != "" && strings.Contains(lc, in) {
			score++
		}
	}
	return score
}

// Choose decides the action for an acting persona. A reply draw without a
// post scoring at or above the relevance threshold falls back to a fresh
// post rather than replying off-topic. Personas never reply to their own
// posts.
func (r *ReplyRouter) Choose(p Persona, window []models.Post, rng *rand.Rand) Action {
	if rng.Float64() >= r.replyProbability {
		return Action{Kind: ActionPost}
	}

	var best *models.Post
	bestScore := 0
	for i := range window {
		post := &window[i]
		if post.AuthorID == p.ID {
			continue
		}
		if score := overlapScore(p.Interests, post.Content); score > bestScore {
			best, bestScore = post, score
		}
	}
	if best == nil || bestScore < r.threshold {
		return Action{Kind: ActionPost}
	}
	if rng.Float64() < r.quoteProbability {
		return Action{Kind: ActionQuote, Target: best}
	}
	return Action{Kind: ActionReply, Target: best}
}
