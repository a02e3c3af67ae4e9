package eviction

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/activity"
	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/tabs"
)

// RuleSource is the slice of the rule resolver the coordinator needs.
type RuleSource interface {
	ResolveAction(ctx domain.RuleContext, action domain.ActionType, def domain.Decision) domain.Decision
	CategoryTabLimits(defaultLimit int) map[domain.Category]int
	GlobalTabLimit(ctx domain.RuleContext, def int) domain.Decision
}

// Persistence stores coordinator state across restarts.
// Loading happens at startup through the Restore* methods.
type Persistence interface {
	SaveWhitelist(ctx context.Context, entries []domain.WhitelistEntry) error
	SaveHistory(ctx context.Context, records []domain.EvictionRecord) error
	SaveOptions(ctx context.Context, opts domain.Options) error
}

// stopFunc cancels a scheduled callback, reporting whether it was still pending
type stopFunc func() bool

// scheduleFunc runs f after d
type scheduleFunc func(d time.Duration, f func()) stopFunc

func afterFunc(d time.Duration, f func()) stopFunc {
	return time.AfterFunc(d, f).Stop
}

// Coordinator drives the eviction state machine:
//
//	Idle -> Evaluating -> NoCandidates | PendingNotification | PendingImmediate -> Evicted -> Idle
//
// A pending batch is the single source of truth for "an eviction is pending".
// It is taken and cleared under mu by exactly one of: the timer, Cancel or EvictNow.
type Coordinator struct {
	store    *activity.Store
	rules    RuleSource
	tabs     tabs.TabAPI
	notifier tabs.Notifier
	persist  Persistence
	logger   logger.Logger
	now      func() time.Time
	schedule scheduleFunc

	// Whitelist readers are lock free; writers copy on write under wlMu
	whitelist atomic.Pointer[whitelist]
	wlMu      sync.Mutex

	// optsMu serializes option changes with their side effects
	optsMu sync.Mutex

	mu        sync.Mutex
	state     State
	options   domain.Options
	history   []domain.EvictionRecord
	pending   *pendingBatch
	lastCycle time.Time
	listeners []func(domain.Options)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithPersistence enables saving whitelist, history and options.
func WithPersistence(p Persistence) Option {
	return func(c *Coordinator) { c.persist = p }
}

// WithOptions sets the initial options
func WithOptions(o domain.Options) Option {
	return func(c *Coordinator) { c.options = o }
}

// withScheduler replaces the pending batch timer (tests)
func withScheduler(s scheduleFunc) Option {
	return func(c *Coordinator) { c.schedule = s }
}

// NewCoordinator wires the coordinator to its collaborators.
// notifier may be nil, in which case pending batches are silent.
func NewCoordinator(
	store *activity.Store,
	rules RuleSource,
	api tabs.TabAPI,
	notifier tabs.Notifier,
	log logger.Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		store:    store,
		rules:    rules,
		tabs:     api,
		notifier: notifier,
		logger:   log.With(logger.Component("eviction")),
		now:      time.Now,
		schedule: afterFunc,
		state:    StateIdle,
		options:  domain.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.whitelist.Store(&whitelist{})
	return c
}

// State returns the current state machine position
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastCycle returns when RunCycle last evaluated candidates
func (c *Coordinator) LastCycle() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCycle
}

// RunCycle evaluates candidates once and either schedules or executes an eviction.
// A cycle while a batch is pending does nothing and returns that batch.
func (c *Coordinator) RunCycle(ctx context.Context) CycleResult {
	c.mu.Lock()
	if p := c.pending; p != nil {
		c.mu.Unlock()
		return CycleResult{State: StatePendingNotification, Candidates: p.candidates, Resolved: p.done}
	}
	if c.state != StateIdle {
		// Another cycle or an eviction is running
		state := c.state
		c.mu.Unlock()
		return CycleResult{State: state, Resolved: resolved()}
	}
	opts := c.options
	if !opts.Enabled {
		c.mu.Unlock()
		return CycleResult{State: StateDisabled, Resolved: resolved()}
	}
	c.state = StateEvaluating
	c.lastCycle = c.now()
	c.mu.Unlock()

	candidates := c.evaluate(opts)
	if len(candidates) == 0 {
		c.setState(StateIdle)
		c.logger.Debug("no eviction candidates")
		return CycleResult{State: StateNoCandidates, Resolved: resolved()}
	}

	if opts.ShowNotifications {
		return c.schedulePending(ctx, candidates, opts)
	}

	c.setState(StatePendingImmediate)
	res := c.evict(ctx, candidates)
	return CycleResult{State: StateEvicted, Candidates: candidates, Eviction: &res, Resolved: resolved()}
}

// evaluate selects this cycle's eviction candidates.
func (c *Coordinator) evaluate(opts domain.Options) []domain.ScoredCandidate {
	now := c.now()
	total := c.store.Count()

	// close_after replaces the inactivity threshold per tab
	inactive := c.store.QueryInactive(0)
	eligible := make([]domain.Tab, 0, len(inactive))
	for _, t := range inactive {
		threshold := opts.MinInactivityMinutes
		d := c.rules.ResolveAction(domain.RuleContext{
			Locator:  t.URL,
			Category: t.Category,
			TabCount: total,
			At:       now,
		}, domain.ActionCloseAfter, domain.Decision{Value: threshold})
		if d.Matched {
			threshold = d.Value
		}
		if t.MinutesInactive(now) < float64(threshold) {
			continue
		}
		eligible = append(eligible, t)
	}

	criteria := opts.Criteria()
	criteria.MinInactivityMinutes = 0
	criteria.MaxSuggestions = 0
	scored := domain.Score(eligible, criteria, now)

	limits := c.rules.CategoryTabLimits(opts.DefaultTabLimit)
	scored = capByCategory(scored, c.store.CountByCategory(), limits)

	global := c.rules.GlobalTabLimit(domain.RuleContext{TabCount: total, At: now}, 0)
	scored = capTotal(scored, total, global.Value)

	return truncate(c.withoutWhitelisted(scored), opts.MaxSuggestions)
}

// capByCategory enforces limit_count: a category at or under its limit loses
// all candidates, one above it keeps only its count-limit best ranked ones.
// A limit of 0 means unlimited.
func capByCategory(scored []domain.ScoredCandidate, counts, limits map[domain.Category]int) []domain.ScoredCandidate {
	budget := make(map[domain.Category]int, len(limits))
	for cat, limit := range limits {
		if limit <= 0 {
			continue
		}
		budget[cat] = counts[cat] - limit
	}

	out := make([]domain.ScoredCandidate, 0, len(scored))
	for _, cand := range scored {
		left, limited := budget[cand.Category]
		if !limited {
			out = append(out, cand)
			continue
		}
		if left <= 0 {
			continue
		}
		budget[cand.Category] = left - 1
		out = append(out, cand)
	}
	return out
}

// capTotal applies a global limit_count the same way: at or under the limit
// nothing is evicted, above it at most total-limit tabs are.
func capTotal(scored []domain.ScoredCandidate, total, limit int) []domain.ScoredCandidate {
	if limit <= 0 {
		return scored
	}
	return truncateTo(scored, max(total-limit, 0))
}

func truncateTo(scored []domain.ScoredCandidate, n int) []domain.ScoredCandidate {
	if len(scored) > n {
		return scored[:n]
	}
	return scored
}

func (c *Coordinator) withoutWhitelisted(scored []domain.ScoredCandidate) []domain.ScoredCandidate {
	wl := c.whitelist.Load()
	out := make([]domain.ScoredCandidate, 0, len(scored))
	for _, cand := range scored {
		if wl.matches(cand.URL) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

func truncate(scored []domain.ScoredCandidate, max int) []domain.ScoredCandidate {
	if max > 0 && len(scored) > max {
		return scored[:max]
	}
	return scored
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Suggestions ranks inactive tabs without side effects.
// Whitelisted tabs are never suggested.
func (c *Coordinator) Suggestions(criteria domain.Criteria) []domain.ScoredCandidate {
	now := c.now()
	max := criteria.MaxSuggestions
	criteria.MaxSuggestions = 0

	scored := domain.Score(c.store.QueryInactive(criteria.MinInactivityMinutes), criteria, now)
	return truncate(c.withoutWhitelisted(scored), max)
}

// InactiveResources returns non-active tabs idle for at least thresholdMinutes
func (c *Coordinator) InactiveResources(thresholdMinutes int) []domain.Tab {
	return c.store.QueryInactive(thresholdMinutes)
}
