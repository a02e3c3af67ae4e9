package domain

import (
	"strings"
	"time"
)

// Category is the closed set of tab classifications used for scoring and rules.
type Category string

const (
	CategoryWork          Category = "work"
	CategorySocial        Category = "social"
	CategoryEntertainment Category = "entertainment"
	CategoryNews          Category = "news"
	CategoryShopping      Category = "shopping"
	CategoryOther         Category = "other"
)

// Categories lists every known category in a stable order.
var Categories = []Category{
	CategoryWork,
	CategorySocial,
	CategoryEntertainment,
	CategoryNews,
	CategoryShopping,
	CategoryOther,
}

// ParseCategory normalizes s into a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Tab represents the tracked runtime state of a single browser tab.
//
// It is NOT tied to any browser API or storage backend.
// Exactly one Tab per window may have Active set.
type Tab struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque identifier assigned by the browser.
	ID int `json:"id"`

	// WindowID is the owning window (group).
	WindowID int `json:"window_id"`

	// ─────────────────────────────
	// Description
	// (may be overwritten on navigation)
	// ─────────────────────────────

	// URL is the tab locator. Reduced to its origin in privacy mode.
	URL string `json:"url"`

	// Title is the display label, capped at MaxTitleLength runes.
	Title string `json:"title"`

	// Category is derived from the hostname unless supplied by the bridge.
	Category Category `json:"category"`

	// ─────────────────────────────
	// Activity
	// ─────────────────────────────

	// FirstSeenAt is when the tab was first observed.
	FirstSeenAt time.Time `json:"first_seen_at"`

	// LastActiveAt is updated on every activation.
	LastActiveAt time.Time `json:"last_active_at"`

	// ActiveDuration is the cumulative focused time.
	ActiveDuration time.Duration `json:"active_duration"`

	// ActivationCount counts focus events.
	ActivationCount int `json:"activation_count"`

	// ─────────────────────────────
	// Cost & flags
	// ─────────────────────────────

	// MemoryKB is the approximate memory footprint.
	MemoryKB int64 `json:"memory_kb"`

	// MemoryReported is true once the bridge supplied a real measurement.
	// Reported values are never overwritten by the estimator.
	MemoryReported bool `json:"memory_reported"`

	Active bool `json:"active"`
	Pinned bool `json:"pinned"`
}

// InactiveFor returns how long the tab has been out of focus.
// Active tabs are never inactive.
func (t Tab) InactiveFor(now time.Time) time.Duration {
	if t.Active || t.LastActiveAt.IsZero() {
		return 0
	}
	d := now.Sub(t.LastActiveAt)
	if d < 0 {
		return 0
	}
	return d
}

// MinutesInactive is InactiveFor expressed in fractional minutes.
func (t Tab) MinutesInactive(now time.Time) float64 {
	return t.InactiveFor(now).Minutes()
}

// Summary aggregates tracked tabs for reporting.
type Summary struct {
	TabCount          int              `json:"tab_count"`
	WindowCount       int              `json:"window_count"`
	ActiveCount       int              `json:"active_count"`
	PinnedCount       int              `json:"pinned_count"`
	TotalMemoryKB     int64            `json:"total_memory_kb"`
	TotalActiveTime   time.Duration    `json:"total_active_time"`
	ByCategory        map[Category]int `json:"by_category"`
	OldestInactiveTab int              `json:"oldest_inactive_tab,omitempty"`
}
