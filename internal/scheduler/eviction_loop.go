package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/eviction"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

// DefaultCheckInterval is the pause between two eviction cycles
const DefaultCheckInterval = 60 * time.Second

// Cycler is the part of the coordinator the loop drives
type Cycler interface {
	RunCycle(ctx context.Context) eviction.CycleResult
	Options() domain.Options
	CancelPendingClosures()
}

// EvictionLoop runs eviction cycles one at a time.
// The next timer is armed only once the previous cycle resolved,
// and never while the feature is disabled.
type EvictionLoop struct {
	coordinator   Cycler
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	notifyCh      chan struct{}
	manualTrigger chan struct{}
	done          chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
	started       bool
	mu            sync.Mutex
}

// NewEvictionLoop creates a new eviction loop.
// manualTrigger may be shared with the HTTP layer; sends should not block.
func NewEvictionLoop(
	coordinator Cycler,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *EvictionLoop {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if manualTrigger == nil {
		manualTrigger = make(chan struct{}, 1)
	}

	return &EvictionLoop{
		coordinator:   coordinator,
		logger:        log.With(logger.Component("eviction_loop")),
		interval:      interval,
		stopCh:        make(chan struct{}),
		notifyCh:      make(chan struct{}, 1),
		manualTrigger: manualTrigger,
		done:          make(chan struct{}),
	}
}

// Start launches the loop. Calling it more than once has no effect.
func (l *EvictionLoop) Start(ctx context.Context) error {
	l.startOnce.Do(func() {
		l.mu.Lock()
		l.started = true
		l.mu.Unlock()
		go l.run(ctx)
	})
	return nil
}

// Notify wakes the loop so it re-checks whether it should be armed.
// Called on every options change.
func (l *EvictionLoop) Notify() {
	select {
	case l.notifyCh <- struct{}{}:
	default:
	}
}

// Trigger requests a cycle now. It returns false if one is already queued.
func (l *EvictionLoop) Trigger() bool {
	select {
	case l.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop ends the loop and cancels any pending batch. Safe to call twice.
// No cycle starts once Stop returns.
func (l *EvictionLoop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)

		l.mu.Lock()
		started := l.started
		l.mu.Unlock()
		if started {
			<-l.done
		}

		l.coordinator.CancelPendingClosures()
		l.logger.Info("eviction loop stopped")
	})
}

func (l *EvictionLoop) run(ctx context.Context) {
	defer close(l.done)

	for {
		var (
			timer *time.Timer
			tick  <-chan time.Time
		)
		if l.coordinator.Options().Enabled {
			timer = time.NewTimer(l.interval)
			tick = timer.C
		} else {
			l.logger.Debug("eviction disabled, loop idle")
		}

		select {
		case <-tick:
			l.cycle(ctx)
		case <-l.manualTrigger:
			l.logger.Info("manual eviction cycle triggered")
			l.cycle(ctx)
		case <-l.notifyCh:
			// Options changed: re-arm with the new state
		case <-l.stopCh:
		case <-ctx.Done():
		}
		if timer != nil {
			timer.Stop()
		}

		if l.stopping(ctx) {
			return
		}
	}
}

func (l *EvictionLoop) stopping(ctx context.Context) bool {
	select {
	case <-l.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// cycle runs once and blocks until its batch (if any) resolves
func (l *EvictionLoop) cycle(ctx context.Context) {
	// Stop may have raced the timer
	if l.stopping(ctx) {
		return
	}

	res := l.coordinator.RunCycle(ctx)
	l.logger.Debug("eviction cycle finished",
		logger.String("state", string(res.State)),
		logger.Int("candidates", len(res.Candidates)))

	if res.Resolved == nil {
		return
	}
	select {
	case <-res.Resolved:
	case <-l.stopCh:
	case <-ctx.Done():
	}
}
