package eviction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/tabs"
)

// schedulePending parks candidates behind the notification delay.
func (c *Coordinator) schedulePending(ctx context.Context, candidates []domain.ScoredCandidate, opts domain.Options) CycleResult {
	delay := time.Duration(opts.NotificationDelaySeconds) * time.Second
	p := &pendingBatch{
		id:         uuid.NewString(),
		candidates: candidates,
		deadline:   c.now().Add(delay),
		done:       make(chan struct{}),
	}

	c.mu.Lock()
	if existing := c.pending; existing != nil {
		c.mu.Unlock()
		return CycleResult{State: StatePendingNotification, Candidates: existing.candidates, Resolved: existing.done}
	}
	c.pending = p
	c.state = StatePendingNotification
	// The callback blocks on mu until stop is recorded
	p.stop = c.schedule(delay, func() { c.expire(p) })
	c.mu.Unlock()

	c.logger.Info("eviction pending",
		logger.String("batch_id", p.id),
		logger.Int("candidates", len(candidates)),
		logger.Duration("delay", delay))

	if c.notifier != nil {
		n := tabs.Notification{
			ID:      p.id,
			Title:   "Closing inactive tabs",
			Message: fmt.Sprintf("%d inactive tab(s) will be closed in %d seconds", len(candidates), opts.NotificationDelaySeconds),
			Buttons: []tabs.Button{tabs.ButtonCancel, tabs.ButtonEvictNow},
		}
		if err := c.notifier.Present(ctx, n); err != nil {
			c.logger.Warn("failed to present eviction notification",
				logger.String("batch_id", p.id),
				logger.Error(err))
		}
	}

	return CycleResult{State: StatePendingNotification, Candidates: candidates, Resolved: p.done}
}

// take clears the pending batch if it is still p (or any batch when p is nil)
// and moves to next in the same critical section.
func (c *Coordinator) take(p *pendingBatch, next State) *pendingBatch {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.pending
	if current == nil || (p != nil && current != p) {
		return nil
	}
	c.pending = nil
	if current.stop != nil {
		current.stop()
	}
	c.state = next
	return current
}

// expire runs when the notification delay elapses
func (c *Coordinator) expire(p *pendingBatch) {
	if c.take(p, StatePendingImmediate) == nil {
		// Cancelled or evicted in the meantime
		return
	}
	c.logger.Info("notification delay elapsed, evicting", logger.String("batch_id", p.id))
	c.evict(context.Background(), p.candidates)
	close(p.done)
}

// Cancel drops the pending batch. It returns false when nothing was pending,
// including after the batch already executed.
func (c *Coordinator) Cancel() bool {
	p := c.take(nil, StateIdle)
	if p == nil {
		return false
	}
	close(p.done)
	c.logger.Info("pending eviction cancelled",
		logger.String("batch_id", p.id),
		logger.Int("candidates", len(p.candidates)))
	return true
}

// CancelPendingClosures is Cancel without a result; a no-op when nothing is pending.
func (c *Coordinator) CancelPendingClosures() {
	c.Cancel()
}

// EvictNow executes the pending batch without waiting for the delay.
func (c *Coordinator) EvictNow(ctx context.Context) (EvictionResult, bool) {
	p := c.take(nil, StatePendingImmediate)
	if p == nil {
		return EvictionResult{}, false
	}
	c.logger.Info("pending eviction forced", logger.String("batch_id", p.id))
	res := c.evict(ctx, p.candidates)
	close(p.done)
	return res, true
}

// Pending describes the batch awaiting its delay, if any
func (c *Coordinator) Pending() (PendingInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return PendingInfo{}, false
	}
	return PendingInfo{
		ID:         c.pending.id,
		Deadline:   c.pending.deadline,
		Candidates: append([]domain.ScoredCandidate(nil), c.pending.candidates...),
	}, true
}

// evict records, persists and closes a batch. Records share one ClosedAt.
func (c *Coordinator) evict(ctx context.Context, candidates []domain.ScoredCandidate) EvictionResult {
	c.mu.Lock()
	closedAt := c.now()
	// Batches are told apart by ClosedAt alone, keep it strictly increasing
	if n := len(c.history); n > 0 && !closedAt.After(c.history[n-1].ClosedAt) {
		closedAt = c.history[n-1].ClosedAt.Add(time.Nanosecond)
	}

	records := make([]domain.EvictionRecord, 0, len(candidates))
	ids := make([]int, 0, len(candidates))
	for _, cand := range candidates {
		records = append(records, domain.EvictionRecord{
			TabID:           cand.TabID,
			Title:           cand.Title,
			URL:             cand.URL,
			ClosedAt:        closedAt,
			MinutesInactive: int(cand.MinutesInactive),
		})
		ids = append(ids, cand.TabID)
	}

	c.history = domain.TrimHistory(append(c.history, records...), domain.MaxEvictionHistory)
	history := append([]domain.EvictionRecord(nil), c.history...)
	c.mu.Unlock()
	c.saveHistory(ctx, history)

	res := EvictionResult{ClosedAt: closedAt, Records: records}
	closeRes, err := c.tabs.CloseResources(ctx, ids)
	if err != nil {
		res.Error = err.Error()
		c.logger.Warn("close request failed",
			logger.Ints("tab_ids", ids),
			logger.Error(err))
	}
	res.Closed = closeRes.Closed
	res.Failed = closeRes.Failed

	for _, id := range closeRes.Closed {
		c.store.Remove(id)
	}

	c.setState(StateIdle)
	c.logger.Info("eviction batch executed",
		logger.Int("attempted", len(ids)),
		logger.Int("closed", len(res.Closed)),
		logger.Int("failed", len(res.Failed)))
	return res
}
