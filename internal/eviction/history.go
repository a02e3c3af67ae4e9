package eviction

import (
	"context"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

// ClosedBatch returns the retained eviction history, oldest first
func (c *Coordinator) ClosedBatch() []domain.EvictionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.EvictionRecord(nil), c.history...)
}

// UndoLastBatch reopens every tab of the most recent batch in the background
// and drops the batch from history. It returns false on empty history.
// A tab that fails to reopen is logged; the batch is still consumed.
func (c *Coordinator) UndoLastBatch(ctx context.Context) bool {
	c.mu.Lock()
	batch, rest := domain.LastBatch(c.history)
	if len(batch) == 0 {
		c.mu.Unlock()
		return false
	}
	c.history = rest
	history := append([]domain.EvictionRecord(nil), rest...)
	c.mu.Unlock()

	c.saveHistory(ctx, history)

	restored := 0
	for _, rec := range batch {
		tab, err := c.tabs.CreateResource(ctx, rec.URL, true)
		if err != nil {
			c.logger.Warn("failed to reopen tab",
				logger.String("url", rec.URL),
				logger.Error(err))
			continue
		}
		restored++
		// The bridge usually reports the new tab too; Observe ignores duplicates
		if tab.ID > 0 {
			if tab.Title == "" {
				tab.Title = rec.Title
			}
			tab.Active = false
			c.store.Observe(tab)
		}
	}

	c.logger.Info("eviction batch undone",
		logger.Int("batch_size", len(batch)),
		logger.Int("restored", restored))
	return true
}

// RestoreHistory installs persisted history without writing it back
func (c *Coordinator) RestoreHistory(records []domain.EvictionRecord) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = domain.TrimHistory(append([]domain.EvictionRecord(nil), records...), domain.MaxEvictionHistory)
	return len(c.history)
}

func (c *Coordinator) saveHistory(ctx context.Context, records []domain.EvictionRecord) {
	if c.persist == nil {
		return
	}
	if err := c.persist.SaveHistory(ctx, records); err != nil {
		c.logger.Warn("failed to persist eviction history", logger.Error(err))
	}
}
