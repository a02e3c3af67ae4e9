package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/activity"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/tabs"
)

// DefaultReconcileInterval is how often the store is compared to the bridge
const DefaultReconcileInterval = 5 * time.Minute

// ReconcileStats summarizes one reconciliation
type ReconcileStats struct {
	Listed    int `json:"listed"`
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Refocused int `json:"refocused"`
	Estimated int `json:"estimated"`
}

// Reconciler keeps the activity store in line with the tabs the bridge
// actually has open. Events are the primary feed; this catches missed ones.
type Reconciler struct {
	api      tabs.TabAPI
	store    *activity.Store
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewReconciler creates a new reconciler
func NewReconciler(
	api tabs.TabAPI,
	store *activity.Store,
	log logger.Logger,
	interval time.Duration,
) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{
		api:      api,
		store:    store,
		logger:   log.With(logger.Component("reconciler")),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the initial enumeration and the periodic reconciliation.
// A failed initial enumeration is logged; events will fill the store.
func (rc *Reconciler) Start(ctx context.Context) error {
	if _, err := rc.Reconcile(ctx); err != nil {
		rc.logger.Warn("initial tab enumeration failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(rc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := rc.Reconcile(ctx); err != nil {
					rc.logger.Warn("tab reconciliation failed",
						logger.Error(err))
				}
			case <-rc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reconciler
func (rc *Reconciler) Stop() {
	rc.stopOnce.Do(func() { close(rc.stopCh) })
}

// Reconcile lists open tabs, tracks new ones, forgets vanished ones and
// refreshes memory estimates. On a list error the store is left as is.
func (rc *Reconciler) Reconcile(ctx context.Context) (ReconcileStats, error) {
	// Tabs observed while the list call is in flight are not stale
	before := rc.store.All()

	listed, err := rc.api.ListResources(ctx)
	if err != nil {
		return ReconcileStats{}, fmt.Errorf("failed to list tabs: %w", err)
	}

	stats := ReconcileStats{Listed: len(listed)}
	open := make(map[int]struct{}, len(listed))
	for _, t := range listed {
		if t.ID <= 0 {
			continue
		}
		open[t.ID] = struct{}{}

		known, ok := rc.store.Find(t.ID)
		if !ok {
			rc.store.Observe(t)
			stats.Added++
			continue
		}
		if t.Active && (!known.Active || known.WindowID != t.WindowID) {
			rc.store.Activate(t.ID, t.WindowID)
			stats.Refocused++
		}
		if t.Pinned != known.Pinned {
			rc.store.SetPinned(t.ID, t.Pinned)
		}
		if t.MemoryKB > 0 {
			rc.store.SetMemory(t.ID, t.MemoryKB)
		}
	}

	for _, t := range before {
		if _, ok := open[t.ID]; !ok {
			rc.store.Remove(t.ID)
			stats.Removed++
		}
	}

	stats.Estimated = rc.store.ReestimateMemory()

	rc.logger.Debug("tabs reconciled",
		logger.Int("listed", stats.Listed),
		logger.Int("added", stats.Added),
		logger.Int("removed", stats.Removed),
		logger.Int("refocused", stats.Refocused))

	return stats, nil
}
