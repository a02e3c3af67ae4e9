package eviction

import (
	"context"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

// Options returns the current eviction options
func (c *Coordinator) Options() domain.Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.options
}

// OnOptionsChanged registers fn to run after every successful update.
func (c *Coordinator) OnOptionsChanged(fn func(domain.Options)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// UpdateOptions applies a partial update and persists the result.
// Disabling the feature cancels a pending batch. Updates are applied one at
// a time, so listeners must not call UpdateOptions.
func (c *Coordinator) UpdateOptions(ctx context.Context, patch domain.OptionsPatch) (domain.Options, error) {
	c.optsMu.Lock()
	defer c.optsMu.Unlock()

	c.mu.Lock()
	next := patch.Apply(c.options)
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return domain.Options{}, err
	}
	prev := c.options
	c.options = next
	listeners := make([]func(domain.Options), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.applyOptions(prev, next)

	if c.persist != nil {
		if err := c.persist.SaveOptions(ctx, next); err != nil {
			c.logger.Warn("failed to persist options", logger.Error(err))
		}
	}

	c.logger.Info("options updated",
		logger.Bool("enabled", next.Enabled),
		logger.Int("min_inactivity_minutes", next.MinInactivityMinutes),
		logger.Bool("show_notifications", next.ShowNotifications))

	for _, fn := range listeners {
		fn(next)
	}
	return next, nil
}

// RestoreOptions installs persisted options without writing them back
func (c *Coordinator) RestoreOptions(o domain.Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	c.optsMu.Lock()
	defer c.optsMu.Unlock()

	c.mu.Lock()
	prev := c.options
	c.options = o
	c.mu.Unlock()

	c.applyOptions(prev, o)
	return nil
}

// applyOptions propagates side effects of an options change.
// Callers hold optsMu but not mu.
func (c *Coordinator) applyOptions(prev, next domain.Options) {
	if prev.PrivacyMode != next.PrivacyMode {
		c.store.SetPrivacyMode(next.PrivacyMode)
	}
	if prev.Enabled && !next.Enabled {
		c.Cancel()
	}
}
