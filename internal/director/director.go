package director

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adrianhensler/botterverse/internal/models"
	"github.com/adrianhensler/botterverse/internal/store"
	"github.com/adrianhensler/botterverse/pkg/llm"
	"github.com/adrianhensler/botterverse/pkg/logging"
	"github.com/adrianhensler/botterverse/pkg/monitoring"
)

// Job names used in status reporting and tick metrics.
const (
	JobDirector = "director"
	JobDM       = "dm"
	JobLike     = "like"
	JobIngest   = "ingest"
)

// SchedulingState tracks one persona's cadence clock. Mutated only after a
// successful action, so a failed generation leaves the persona due again on
// the next tick.
type SchedulingState struct {
	LastPostAt time.Time `json:"last_post_at"`
	NextDueAt  time.Time `json:"next_due_at"`
}

// Status is the read-only operational snapshot served to operators.
type Status struct {
	Paused           bool                 `json:"paused"`
	Personas         int                  `json:"personas"`
	PendingReactions int                  `json:"pending_reactions"`
	LastTicks        map[string]time.Time `json:"last_ticks"`
}

// Director owns all pacing state: the persona roster's scheduling clocks,
// the pending-reaction queue, the rate limiter and the kill switch. One
// instance exists per leader process; every job tick runs against it.
type Director struct {
	cfg      Config
	registry *Registry
	store    store.Store
	router   *ModelRouter
	replies  *ReplyRouter
	injector *EventInjector
	limiter  *RateLimiter
	logger   logging.Logger
	metrics  *monitoring.DirectorMetrics

	mu        sync.Mutex
	rng       *rand.Rand
	paused    bool
	states    map[uuid.UUID]*SchedulingState
	lastTicks map[string]time.Time

	now func() time.Time
}

// New wires a director from its collaborators. A nil rng gets a time-seeded
// source; tests pass a fixed seed for determinism. metrics may be nil.
func New(cfg Config, registry *Registry, st store.Store, router *ModelRouter, logger logging.Logger, metrics *monitoring.DirectorMetrics, rng *rand.Rand) *Director {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Director{
		cfg:       cfg,
		registry:  registry,
		store:     st,
		router:    router,
		replies:   NewReplyRouter(cfg),
		limiter:   NewRateLimiter(cfg.PersonaHourlyLimit, cfg.GlobalMinuteLimit),
		logger:    logger,
		metrics:   metrics,
		rng:       rng,
		states:    make(map[uuid.UUID]*SchedulingState),
		lastTicks: make(map[string]time.Time),
		now:       time.Now,
	}
	d.injector = NewEventInjector(cfg, rand.New(rand.NewSource(rng.Int63())))
	return d
}

// Pause engages the kill switch. Idempotent; pending reactions and due
// times are left untouched so nothing is lost across a pause window beyond
// reactions that age out.
func (d *Director) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.paused {
		d.paused = true
		d.logger.Warn("Director paused")
	}
}

// Resume clears the kill switch. Idempotent.
func (d *Director) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.paused {
		d.paused = false
		d.logger.Info("Director resumed")
	}
}

func (d *Director) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// Status reports the operational snapshot.
func (d *Director) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	ticks := make(map[string]time.Time, len(d.lastTicks))
	for job, t := range d.lastTicks {
		ticks[job] = t
	}
	return Status{
		Paused:           d.paused,
		Personas:         d.registry.Len(),
		PendingReactions: d.injector.PendingCount(),
		LastTicks:        ticks,
	}
}

// RegisterEvent injects a topical event. Returns whether it was accepted or
// dropped as a duplicate.
func (d *Director) RegisterEvent(ev models.BotEvent) bool {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = d.now()
	}
	if ev.Kind == "" {
		ev.Kind = models.EventGeneric
	}

	accepted, matched := d.injector.Inject(ev, d.registry.All())
	if !accepted {
		if d.metrics != nil {
			d.metrics.EventsDeduped.Inc()
		}
		d.logger.WithFields(logging.Fields{
			"kind":        ev.Kind,
			"external_id": ev.ExternalID,
		}).Debug("Event dropped as duplicate")
		return false
	}
	if d.metrics != nil {
		d.metrics.EventsAccepted.WithLabelValues(string(ev.Kind)).Inc()
		d.metrics.PendingReactions.Set(float64(d.injector.PendingCount()))
	}
	d.logger.WithFields(logging.Fields{
		"kind":    ev.Kind,
		"topic":   ev.Topic,
		"matched": matched,
	}).Info("Event accepted")
	return true
}

// RestoreCadence rebuilds per-persona scheduling state from the newest post
// timestamps in storage, so a restart does not reset every cadence clock.
func (d *Director) RestoreCadence(ctx context.Context) error {
	latest, err := d.store.LatestPostTimes(ctx)
	if err != nil {
		return fmt.Errorf("restore cadence: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.registry.All() {
		last, ok := latest[p.ID]
		if !ok {
			continue
		}
		st := &SchedulingState{LastPostAt: last}
		st.NextDueAt = last.Add(d.jitteredCadenceLocked(p))
		d.states[p.ID] = st
	}
	return nil
}

// jitteredCadenceLocked draws cadence*(1 ± jitter). Callers hold d.mu.
func (d *Director) jitteredCadenceLocked(p Persona) time.Duration {
	spread := 1 + (d.rng.Float64()*2-1)*d.cfg.CadenceJitter
	return time.Duration(float64(p.CadenceMinutes) * spread * float64(time.Minute))
}

// stateFor returns the persona's scheduling state, creating it on first
// sight with a due time spread over one cadence so a cold start does not
// fire the whole roster at once.
func (d *Director) stateFor(p Persona, now time.Time) *SchedulingState {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[p.ID]
	if !ok {
		stagger := time.Duration(d.rng.Float64() * float64(p.CadenceMinutes) * float64(time.Minute))
		st = &SchedulingState{NextDueAt: now.Add(stagger)}
		d.states[p.ID] = st
	}
	return st
}

// State exposes a copy of a persona's scheduling state, if any.
func (d *Director) State(id uuid.UUID) (SchedulingState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[id]
	if !ok {
		return SchedulingState{}, false
	}
	return *st, true
}

func (d *Director) PendingReactions() int {
	return d.injector.PendingCount()
}

func (d *Director) markTick(job string, start time.Time) {
	d.mu.Lock()
	d.lastTicks[job] = start
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.TickDuration.WithLabelValues(job).Observe(d.now().Sub(start).Seconds())
	}
}

// Tick runs one director pacing pass: due event reactions first, then
// cadence-due personas. Safe to invoke out-of-band in addition to the
// timer; failures are isolated per persona.
func (d *Director) Tick(ctx context.Context) {
	start := d.now()
	if d.Paused() {
		return
	}
	defer d.markTick(JobDirector, start)

	due, expired := d.injector.Due(start)
	if expired > 0 {
		d.logger.WithField("expired", expired).Info("Dropped stale pending reactions")
	}

	window, err := d.store.RecentPosts(ctx, d.cfg.RecentWindow)
	if err != nil {
		d.logger.WithError(err).Error("Failed to load recent posts window")
		window = nil
	}

	reacted := make(map[uuid.UUID]bool)
	for _, pr := range due {
		p, ok := d.registry.Get(pr.PersonaID)
		if !ok {
			continue
		}
		if !d.limiter.Reserve(p.ID) {
			d.skipRateLimited(p, "reaction")
			d.injector.Requeue(pr)
			continue
		}

		d.mu.Lock()
		action := d.replies.Choose(p, window, d.rng)
		d.mu.Unlock()

		ev := pr.Event
		if err := d.act(ctx, p, action, &ev, window); err != nil {
			d.injector.Requeue(pr)
			continue
		}
		reacted[p.ID] = true
		d.advance(p)
	}

	for _, p := range d.registry.All() {
		if reacted[p.ID] {
			continue
		}
		st := d.stateFor(p, start)
		if start.Before(st.NextDueAt) {
			continue
		}
		if !d.limiter.Reserve(p.ID) {
			d.skipRateLimited(p, "cadence")
			continue
		}

		d.mu.Lock()
		action := d.replies.Choose(p, window, d.rng)
		d.mu.Unlock()

		if err := d.act(ctx, p, action, nil, window); err != nil {
			continue
		}
		d.advance(p)
	}

	if d.metrics != nil {
		d.metrics.PendingReactions.Set(float64(d.injector.PendingCount()))
	}
}

func (d *Director) skipRateLimited(p Persona, scope string) {
	if d.metrics != nil {
		d.metrics.RateLimitSkips.WithLabelValues(scope).Inc()
	}
	d.logger.WithFields(logging.Fields{
		"persona": p.Handle,
		"scope":   scope,
	}).Debug("Action skipped by rate limiter")
}

// advance records a successful action on the persona's cadence clock.
func (d *Director) advance(p Persona) {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[p.ID]
	if !ok {
		st = &SchedulingState{}
		d.states[p.ID] = st
	}
	st.LastPostAt = now
	st.NextDueAt = now.Add(d.jitteredCadenceLocked(p))
}

// act generates and persists one post for the persona. Event reactions seed
// the prompt from the event; replies and quotes reference their target.
// No scheduling state is mutated here.
func (d *Director) act(ctx context.Context, p Persona, action Action, ev *models.BotEvent, window []models.Post) error {
	promptCtx := llm.Context{}
	topic := ""
	if ev != nil {
		topic = ev.Topic
		promptCtx.LatestEventTopic = ev.Topic
		promptCtx.EventContext = eventContext(ev)
	}
	for i, post := range window {
		if i == 5 {
			break
		}
		promptCtx.RecentSnippets = append(promptCtx.RecentSnippets, llm.Truncate(post.Content))
	}
	var replyTo, quoteOf *uuid.UUID
	switch action.Kind {
	case ActionReply:
		promptCtx.ReplyToPost = action.Target.Content
		id := action.Target.ID
		replyTo = &id
	case ActionQuote:
		promptCtx.QuoteOfPost = action.Target.Content
		id := action.Target.ID
		quoteOf = &id
	}

	req := llm.Request{
		Messages:  llm.BuildMessages(p.Tone, p.Interests, promptCtx),
		Tone:      p.Tone,
		Interests: p.Interests,
		Topic:     topic,
	}
	route := d.router.Route(p, false)

	genCtx, cancel := context.WithTimeout(ctx, d.cfg.GenerationTimeout)
	defer cancel()
	res, err := d.router.Generate(genCtx, route, req)
	if err != nil {
		if d.metrics != nil {
			d.metrics.GenerationsTotal.WithLabelValues(route.Provider.Name(), "failure").Inc()
		}
		d.logger.WithError(err).WithField("persona", p.Handle).Error("Generation failed, fallback included")
		return err
	}

	content := llm.Truncate(res.Output)
	post, err := d.store.CreatePost(ctx, models.PostCreate{
		AuthorID: p.ID,
		Content:  content,
		ReplyTo:  replyTo,
		QuoteOf:  quoteOf,
	})
	if err != nil {
		d.logger.WithError(err).WithField("persona", p.Handle).Error("Failed to persist post")
		return err
	}

	entry := models.AuditEntry{
		PersonaID:    p.ID,
		Prompt:       llm.BuildPrompt(p.Tone, p.Interests, promptCtx),
		ModelName:    res.ModelName,
		Output:       content,
		Timestamp:    d.now(),
		FallbackUsed: res.FallbackUsed,
		PostID:       &post.ID,
	}
	if err := d.store.AddAuditEntry(ctx, entry); err != nil {
		d.logger.WithError(err).Warn("Failed to record audit entry")
	}

	if d.metrics != nil {
		outcome := "success"
		if res.FallbackUsed {
			outcome = "fallback"
		}
		d.metrics.GenerationsTotal.WithLabelValues(route.Provider.Name(), outcome).Inc()
		d.metrics.PostsGenerated.WithLabelValues(p.Handle, string(action.Kind)).Inc()
	}
	d.logger.WithFields(logging.Fields{
		"persona":       p.Handle,
		"kind":          action.Kind,
		"model":         res.ModelName,
		"fallback_used": res.FallbackUsed,
	}).Info("Persona posted")
	return nil
}

func eventContext(ev *models.BotEvent) string {
	if len(ev.Payload) == 0 {
		return string(ev.Kind) + ": " + ev.Topic
	}
	ctx := string(ev.Kind) + ": " + ev.Topic
	for k, v := range ev.Payload {
		switch val := v.(type) {
		case string:
			ctx += "; " + k + "=" + val
		case float64:
			ctx += "; " + k + "=" + strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ctx
}

// DMTick answers the newest unanswered direct message in every thread that
// involves a persona. Rate limits apply the same way they do to posts.
func (d *Director) DMTick(ctx context.Context) {
	start := d.now()
	if d.Paused() {
		return
	}
	defer d.markTick(JobDM, start)

	latest, err := d.store.LatestDMPerThread(ctx)
	if err != nil {
		d.logger.WithError(err).Error("Failed to list DM threads")
		return
	}
	for _, msg := range latest {
		// Only threads where the last word belongs to the other side.
		p, ok := d.registry.Get(msg.RecipientID)
		if !ok {
			continue
		}
		if _, isBot := d.registry.Get(msg.SenderID); isBot {
			// Two personas would ping-pong forever.
			continue
		}
		if !d.limiter.Reserve(p.ID) {
			d.skipRateLimited(p, "dm")
			continue
		}
		if err := d.replyDM(ctx, p, msg); err != nil {
			d.logger.WithError(err).WithField("persona", p.Handle).Error("DM reply failed")
		}
	}
}

func (d *Director) replyDM(ctx context.Context, p Persona, msg models.DMMessage) error {
	thread, err := d.store.ListDMThread(ctx, msg.SenderID, msg.RecipientID, d.cfg.DMThreadDepth)
	if err != nil {
		return err
	}
	promptCtx := llm.Context{ReplyToPost: msg.Content}
	for _, m := range thread {
		promptCtx.RecentSnippets = append(promptCtx.RecentSnippets, llm.Truncate(m.Content))
	}
	req := llm.Request{
		Messages:  llm.BuildMessages(p.Tone, p.Interests, promptCtx),
		Tone:      p.Tone,
		Interests: p.Interests,
	}
	route := d.router.Route(p, false)

	genCtx, cancel := context.WithTimeout(ctx, d.cfg.GenerationTimeout)
	defer cancel()
	res, err := d.router.Generate(genCtx, route, req)
	if err != nil {
		if d.metrics != nil {
			d.metrics.GenerationsTotal.WithLabelValues(route.Provider.Name(), "failure").Inc()
		}
		return err
	}

	dm, err := d.store.CreateDM(ctx, models.DMCreate{
		SenderID:    p.ID,
		RecipientID: msg.SenderID,
		Content:     llm.Truncate(res.Output),
	})
	if err != nil {
		return err
	}
	entry := models.AuditEntry{
		PersonaID:    p.ID,
		Prompt:       llm.BuildPrompt(p.Tone, p.Interests, promptCtx),
		ModelName:    res.ModelName,
		Output:       dm.Content,
		Timestamp:    d.now(),
		FallbackUsed: res.FallbackUsed,
		DMID:         &dm.ID,
	}
	if err := d.store.AddAuditEntry(ctx, entry); err != nil {
		d.logger.WithError(err).Warn("Failed to record audit entry")
	}
	if d.metrics != nil {
		outcome := "success"
		if res.FallbackUsed {
			outcome = "fallback"
		}
		d.metrics.GenerationsTotal.WithLabelValues(route.Provider.Name(), outcome).Inc()
	}
	return nil
}

// LikeTick gives each persona a small chance to like a recent post by
// someone else. Likes are passive and free, so they bypass the rate
// limiter and the audit trail.
func (d *Director) LikeTick(ctx context.Context) {
	start := d.now()
	if d.Paused() {
		return
	}
	defer d.markTick(JobLike, start)

	window, err := d.store.RecentPosts(ctx, d.cfg.RecentWindow)
	if err != nil {
		d.logger.WithError(err).Error("Failed to load recent posts window")
		return
	}
	if len(window) == 0 {
		return
	}
	for _, p := range d.registry.All() {
		d.mu.Lock()
		roll := d.rng.Float64()
		pick := d.rng.Intn(len(window))
		d.mu.Unlock()
		if roll >= d.cfg.LikeProbability {
			continue
		}
		post := window[pick]
		if post.AuthorID == p.ID {
			continue
		}
		if _, wasNew, err := d.store.RecordLike(ctx, post.ID, p.ID); err != nil {
			d.logger.WithError(err).WithField("persona", p.Handle).Warn("Failed to record like")
		} else if wasNew {
			d.logger.WithFields(logging.Fields{
				"persona": p.Handle,
				"post_id": post.ID,
			}).Debug("Persona liked a post")
		}
	}
}
