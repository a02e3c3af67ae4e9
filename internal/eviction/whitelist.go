package eviction

import (
	"context"
	"regexp"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

type compiledEntry struct {
	entry domain.WhitelistEntry
	re    *regexp.Regexp // nil for non-regex entries and for invalid patterns
}

// whitelist is an immutable snapshot, replaced wholesale on every edit
type whitelist struct {
	entries []compiledEntry
}

func (c *Coordinator) compileWhitelist(entries []domain.WhitelistEntry) *whitelist {
	wl := &whitelist{entries: make([]compiledEntry, 0, len(entries))}
	for _, e := range entries {
		ce := compiledEntry{entry: e}
		if e.Type == domain.WhitelistRegex {
			re, err := regexp.Compile(e.Value)
			if err != nil {
				c.logger.Warn("whitelist regex does not compile, it will never match",
					logger.String("pattern", e.Value),
					logger.Error(err))
			}
			ce.re = re
		}
		wl.entries = append(wl.entries, ce)
	}
	return wl
}

func (wl *whitelist) matches(locator string) bool {
	if locator == "" {
		return false
	}
	host := domain.Hostname(locator)
	for _, ce := range wl.entries {
		switch ce.entry.Type {
		case domain.WhitelistExact:
			if locator == ce.entry.Value {
				return true
			}
		case domain.WhitelistDomain:
			if domain.IsSubdomainOf(host, ce.entry.Value) {
				return true
			}
		case domain.WhitelistRegex:
			if ce.re != nil && ce.re.MatchString(locator) {
				return true
			}
		}
	}
	return false
}

func (wl *whitelist) list() []domain.WhitelistEntry {
	out := make([]domain.WhitelistEntry, 0, len(wl.entries))
	for _, ce := range wl.entries {
		out = append(out, ce.entry)
	}
	return out
}

// IsWhitelisted reports whether locator is exempt from eviction.
// Lock free: reads the current snapshot.
func (c *Coordinator) IsWhitelisted(locator string) bool {
	return c.whitelist.Load().matches(locator)
}

// Whitelist returns the current entries in insertion order
func (c *Coordinator) Whitelist() []domain.WhitelistEntry {
	return c.whitelist.Load().list()
}

// AddToWhitelist appends an entry. It returns false when an entry with the
// same type and value already exists, and an error for malformed entries.
func (c *Coordinator) AddToWhitelist(ctx context.Context, e domain.WhitelistEntry) (bool, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return false, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}

	// Writers serialize so the persisted list follows snapshot order
	c.wlMu.Lock()
	defer c.wlMu.Unlock()

	current := c.whitelist.Load().list()
	for _, existing := range current {
		if existing.SameAs(e) {
			return false, nil
		}
	}
	next := append(current, e)
	c.whitelist.Store(c.compileWhitelist(next))
	c.saveWhitelist(ctx, next)

	c.logger.Info("whitelist entry added",
		logger.String("type", string(e.Type)),
		logger.String("value", e.Value))
	return true, nil
}

// RemoveFromWhitelist deletes the entry matching (type, value).
// It returns false when no such entry exists.
func (c *Coordinator) RemoveFromWhitelist(ctx context.Context, t domain.WhitelistType, value string) bool {
	key := domain.WhitelistEntry{Type: t, Value: value}.Normalize()

	c.wlMu.Lock()
	defer c.wlMu.Unlock()

	current := c.whitelist.Load().list()
	next := make([]domain.WhitelistEntry, 0, len(current))
	removed := false
	for _, existing := range current {
		if existing.SameAs(key) {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	if !removed {
		return false
	}
	c.whitelist.Store(c.compileWhitelist(next))
	c.saveWhitelist(ctx, next)

	c.logger.Info("whitelist entry removed",
		logger.String("type", string(key.Type)),
		logger.String("value", key.Value))
	return true
}

// RestoreWhitelist installs persisted entries without writing them back.
// Malformed and duplicate entries are dropped.
func (c *Coordinator) RestoreWhitelist(entries []domain.WhitelistEntry) int {
	clean := make([]domain.WhitelistEntry, 0, len(entries))
	for _, e := range entries {
		e = e.Normalize()
		if err := e.Validate(); err != nil {
			c.logger.Warn("skipping persisted whitelist entry", logger.Error(err))
			continue
		}
		dup := false
		for _, kept := range clean {
			if kept.SameAs(e) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		clean = append(clean, e)
	}

	c.wlMu.Lock()
	c.whitelist.Store(c.compileWhitelist(clean))
	c.wlMu.Unlock()
	return len(clean)
}

func (c *Coordinator) saveWhitelist(ctx context.Context, entries []domain.WhitelistEntry) {
	if c.persist == nil {
		return
	}
	if err := c.persist.SaveWhitelist(ctx, entries); err != nil {
		c.logger.Warn("failed to persist whitelist", logger.Error(err))
	}
}
