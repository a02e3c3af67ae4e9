package activity

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

// Store owns the live state of every tracked tab.
// All mutation goes through its methods; callers only ever receive copies.
// Unknown or malformed ids are ignored: the store is best-effort telemetry.
type Store struct {
	mu       sync.RWMutex
	tabs     map[int]*domain.Tab      // ID -> Tab
	byWindow map[int]map[int]struct{} // WindowID -> set of tab IDs
	accrual  map[int]time.Time        // ID -> focus start, only for tabs accruing active time
	privacy  bool
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPrivacyMode makes the store keep only locator origins.
func WithPrivacyMode(enabled bool) Option {
	return func(s *Store) { s.privacy = enabled }
}

// NewStore creates an empty activity store
func NewStore(opts ...Option) *Store {
	s := &Store{
		tabs:     make(map[int]*domain.Tab),
		byWindow: make(map[int]map[int]struct{}),
		accrual:  make(map[int]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe starts tracking a tab. Already tracked tabs are left untouched.
func (s *Store) Observe(t domain.Tab) {
	if t.ID <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tabs[t.ID]; ok {
		return
	}

	now := s.now()
	rec := t
	rec.URL = domain.SanitizeLocator(t.URL, s.privacy)
	rec.Title = domain.TruncateTitle(t.Title)
	if rec.Category == "" {
		rec.Category = domain.Categorize(t.URL)
	}
	rec.FirstSeenAt = now
	rec.LastActiveAt = now
	rec.ActiveDuration = 0
	rec.ActivationCount = 0
	rec.MemoryReported = t.MemoryKB > 0
	if !rec.MemoryReported {
		rec.MemoryKB = domain.EstimateMemoryKB(rec, now)
	}

	s.tabs[rec.ID] = &rec
	s.indexLocked(rec.ID, rec.WindowID)

	if rec.Active {
		s.focusLocked(rec.ID, rec.WindowID, now)
	}
}

// Activate moves focus within a window to tabID.
func (s *Store) Activate(tabID, windowID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, ok := s.tabs[tabID]
	if !ok {
		return
	}

	// Tabs can be dragged between windows
	if tab.WindowID != windowID {
		s.unindexLocked(tabID, tab.WindowID)
		tab.WindowID = windowID
		s.indexLocked(tabID, windowID)
	}

	s.focusLocked(tabID, windowID, s.now())
	tab.ActivationCount++
}

// focusLocked flips every other tab of the window to inactive and starts accrual on tabID
func (s *Store) focusLocked(tabID, windowID int, now time.Time) {
	for id := range s.byWindow[windowID] {
		other := s.tabs[id]
		if other == nil {
			continue
		}
		s.stopAccrualLocked(id, now)
		other.Active = false
	}

	tab := s.tabs[tabID]
	tab.Active = true
	tab.LastActiveAt = now
	s.accrual[tabID] = now
}

// DeactivateAccrual books the focused time of a tab that lost focus.
// Idempotent when no accrual is running.
func (s *Store) DeactivateAccrual(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopAccrualLocked(tabID, s.now())
}

// stopAccrualLocked adds the elapsed focus time to the tab's total
func (s *Store) stopAccrualLocked(tabID int, now time.Time) {
	start, ok := s.accrual[tabID]
	if !ok {
		return
	}
	delete(s.accrual, tabID)

	tab, ok := s.tabs[tabID]
	if !ok {
		return
	}
	if elapsed := now.Sub(start); elapsed > 0 {
		tab.ActiveDuration += elapsed
	}
	// The tab was in use until now
	tab.LastActiveAt = now
}

// Update records a navigation or title change.
// Empty values leave the current field untouched.
func (s *Store) Update(tabID int, locator, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, ok := s.tabs[tabID]
	if !ok {
		return
	}
	if locator != "" {
		tab.URL = domain.SanitizeLocator(locator, s.privacy)
		tab.Category = domain.Categorize(locator)
	}
	if title != "" {
		tab.Title = domain.TruncateTitle(title)
	}
}

// SetPinned updates the pinned flag of a tab
func (s *Store) SetPinned(tabID int, pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tab, ok := s.tabs[tabID]; ok {
		tab.Pinned = pinned
	}
}

// SetCategory overrides the derived category of a tab
func (s *Store) SetCategory(tabID int, c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tab, ok := s.tabs[tabID]; ok {
		tab.Category = c
	}
}

// SetMemory stores a measured memory footprint. Negative values are ignored.
func (s *Store) SetMemory(tabID int, kb int64) {
	if kb < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tab, ok := s.tabs[tabID]; ok {
		tab.MemoryKB = kb
		tab.MemoryReported = true
	}
}

// ReestimateMemory refreshes the heuristic footprint of tabs without a
// measured value and returns how many were updated.
func (s *Store) ReestimateMemory() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	updated := 0
	for _, tab := range s.tabs {
		if tab.MemoryReported {
			continue
		}
		tab.MemoryKB = domain.EstimateMemoryKB(*tab, now)
		updated++
	}
	return updated
}

// SetPrivacyMode toggles origin-only locators. Enabling it sanitizes
// already tracked tabs as well.
func (s *Store) SetPrivacyMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.privacy = enabled
	if !enabled {
		return
	}
	for _, tab := range s.tabs {
		tab.URL = domain.SanitizeLocator(tab.URL, true)
	}
}

// Remove stops tracking a tab
func (s *Store) Remove(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(tabID)
}

// RemoveWindow stops tracking a window and all its tabs
func (s *Store) RemoveWindow(windowID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byWindow[windowID] {
		s.removeLocked(id)
	}
	delete(s.byWindow, windowID)
}

func (s *Store) removeLocked(tabID int) {
	tab, ok := s.tabs[tabID]
	if !ok {
		return
	}
	s.stopAccrualLocked(tabID, s.now())
	s.unindexLocked(tabID, tab.WindowID)
	delete(s.tabs, tabID)
}

func (s *Store) indexLocked(tabID, windowID int) {
	set, ok := s.byWindow[windowID]
	if !ok {
		set = make(map[int]struct{})
		s.byWindow[windowID] = set
	}
	set[tabID] = struct{}{}
}

func (s *Store) unindexLocked(tabID, windowID int) {
	set, ok := s.byWindow[windowID]
	if !ok {
		return
	}
	delete(set, tabID)
	if len(set) == 0 {
		delete(s.byWindow, windowID)
	}
}

// Find retrieves a copy of a tab by ID
func (s *Store) Find(tabID int) (domain.Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tab, ok := s.tabs[tabID]
	if !ok {
		return domain.Tab{}, false
	}
	return s.snapshotLocked(tab, s.now()), true
}

// snapshotLocked copies a tab, including focus time accrued so far
func (s *Store) snapshotLocked(tab *domain.Tab, now time.Time) domain.Tab {
	c := *tab
	if start, ok := s.accrual[tab.ID]; ok && now.After(start) {
		c.ActiveDuration += now.Sub(start)
	}
	return c
}

// All returns every tracked tab ordered by ID
func (s *Store) All() []domain.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	tabs := make([]domain.Tab, 0, len(s.tabs))
	for _, tab := range s.tabs {
		tabs = append(tabs, s.snapshotLocked(tab, now))
	}
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID < tabs[j].ID })
	return tabs
}

// QueryInactive returns non-active tabs idle for at least thresholdMinutes,
// oldest first.
func (s *Store) QueryInactive(thresholdMinutes int) []domain.Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	threshold := time.Duration(thresholdMinutes) * time.Minute
	tabs := make([]domain.Tab, 0)
	for _, tab := range s.tabs {
		if tab.Active {
			continue
		}
		if now.Sub(tab.LastActiveAt) < threshold {
			continue
		}
		tabs = append(tabs, s.snapshotLocked(tab, now))
	}
	sort.Slice(tabs, func(i, j int) bool {
		if tabs[i].LastActiveAt.Equal(tabs[j].LastActiveAt) {
			return tabs[i].ID < tabs[j].ID
		}
		return tabs[i].LastActiveAt.Before(tabs[j].LastActiveAt)
	})
	return tabs
}

// Count returns the number of tracked tabs
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tabs)
}

// CountByCategory returns the number of tracked tabs per category
func (s *Store) CountByCategory() map[domain.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int, len(domain.Categories))
	for _, tab := range s.tabs {
		counts[tab.Category]++
	}
	return counts
}

// Summary aggregates counts and totals over all tracked tabs
func (s *Store) Summary() domain.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	sum := domain.Summary{
		TabCount:    len(s.tabs),
		WindowCount: len(s.byWindow),
		ByCategory:  make(map[domain.Category]int, len(domain.Categories)),
	}

	var oldest time.Time
	for _, tab := range s.tabs {
		snap := s.snapshotLocked(tab, now)
		sum.ByCategory[snap.Category]++
		sum.TotalMemoryKB += snap.MemoryKB
		sum.TotalActiveTime += snap.ActiveDuration
		if snap.Active {
			sum.ActiveCount++
		} else if oldest.IsZero() || snap.LastActiveAt.Before(oldest) {
			oldest = snap.LastActiveAt
			sum.OldestInactiveTab = snap.ID
		}
		if snap.Pinned {
			sum.PinnedCount++
		}
	}
	return sum
}
