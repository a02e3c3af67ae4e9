package activity

import (
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*Store, *fakeClock) {
	clock := newFakeClock()
	return NewStore(WithClock(clock.Now)), clock
}

func activeIDs(s *Store, windowID int) []int {
	var ids []int
	for _, tab := range s.All() {
		if tab.WindowID == windowID && tab.Active {
			ids = append(ids, tab.ID)
		}
	}
	return ids
}

func TestObserve(t *testing.T) {
	s, clock := newTestStore()

	s.Observe(domain.Tab{ID: 1, WindowID: 1, URL: "https://github.com/x", Title: "repo"})
	s.Observe(domain.Tab{ID: 1, WindowID: 1, URL: "https://other.example.com", Title: "dup"})

	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
	tab, ok := s.Find(1)
	if !ok {
		t.Fatal("Find(1) not found")
	}
	if tab.Title != "repo" {
		t.Errorf("Observe() on tracked tab should no-op, title = %q", tab.Title)
	}
	if tab.Category != domain.CategoryWork {
		t.Errorf("Category = %q, want work", tab.Category)
	}
	if !tab.FirstSeenAt.Equal(clock.Now()) || !tab.LastActiveAt.Equal(clock.Now()) {
		t.Error("Observe() should initialize timestamps to now")
	}
	if tab.MemoryKB <= 0 || tab.MemoryReported {
		t.Errorf("unreported memory should be estimated, got %d (reported=%v)", tab.MemoryKB, tab.MemoryReported)
	}
}

func TestObserveIgnoresInvalidID(t *testing.T) {
	s, _ := newTestStore()
	s.Observe(domain.Tab{ID: 0})
	s.Observe(domain.Tab{ID: -1})
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
}

func TestObserveActiveTabStartsAccrual(t *testing.T) {
	s, clock := newTestStore()

	s.Observe(domain.Tab{ID: 1, WindowID: 1, Active: true})
	clock.Advance(5 * time.Minute)
	s.DeactivateAccrual(1)

	tab, _ := s.Find(1)
	if tab.ActiveDuration != 5*time.Minute {
		t.Errorf("ActiveDuration = %v, want 5m", tab.ActiveDuration)
	}
}

func TestActivateSingleActivePerWindow(t *testing.T) {
	s, clock := newTestStore()

	s.Observe(domain.Tab{ID: 1, WindowID: 1, Active: true})
	s.Observe(domain.Tab{ID: 2, WindowID: 1})
	s.Observe(domain.Tab{ID: 3, WindowID: 1, Active: true})
	s.Observe(domain.Tab{ID: 4, WindowID: 2, Active: true})

	if ids := activeIDs(s, 1); len(ids) != 1 || ids[0] != 3 {
		t.Fatalf("active tabs in window 1 = %v, want [3]", ids)
	}

	clock.Advance(10 * time.Minute)
	s.Activate(2, 1)

	if ids := activeIDs(s, 1); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("active tabs in window 1 = %v, want [2]", ids)
	}
	if ids := activeIDs(s, 2); len(ids) != 1 || ids[0] != 4 {
		t.Errorf("window 2 should be untouched, active = %v", ids)
	}

	prev, _ := s.Find(3)
	if prev.ActiveDuration != 10*time.Minute {
		t.Errorf("previous tab ActiveDuration = %v, want 10m", prev.ActiveDuration)
	}
	if !prev.LastActiveAt.Equal(clock.Now()) {
		t.Error("previous tab LastActiveAt should be the time it lost focus")
	}

	cur, _ := s.Find(2)
	if cur.ActivationCount != 1 {
		t.Errorf("ActivationCount = %d, want 1", cur.ActivationCount)
	}

	clock.Advance(3 * time.Minute)
	cur, _ = s.Find(2)
	if cur.ActiveDuration != 3*time.Minute {
		t.Errorf("running accrual should be visible in snapshots, got %v", cur.ActiveDuration)
	}
}

func TestActivateUnknownTab(t *testing.T) {
	s, _ := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1, Active: true})

	s.Activate(99, 1)

	if ids := activeIDs(s, 1); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("unknown tab activation should be ignored, active = %v", ids)
	}
}

func TestActivateMovesWindow(t *testing.T) {
	s, _ := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1})
	s.Observe(domain.Tab{ID: 2, WindowID: 2, Active: true})

	s.Activate(1, 2)

	tab, _ := s.Find(1)
	if tab.WindowID != 2 {
		t.Errorf("WindowID = %d, want 2", tab.WindowID)
	}
	if ids := activeIDs(s, 2); len(ids) != 1 || ids[0] != 1 {
		t.Errorf("active tabs in window 2 = %v, want [1]", ids)
	}
}

func TestDeactivateAccrualIdempotent(t *testing.T) {
	s, clock := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1, Active: true})

	clock.Advance(time.Minute)
	s.DeactivateAccrual(1)
	clock.Advance(time.Minute)
	s.DeactivateAccrual(1)
	s.DeactivateAccrual(42)

	tab, _ := s.Find(1)
	if tab.ActiveDuration != time.Minute {
		t.Errorf("ActiveDuration = %v, want 1m", tab.ActiveDuration)
	}
}

func TestQueryInactive(t *testing.T) {
	s, clock := newTestStore()

	s.Observe(domain.Tab{ID: 1, WindowID: 1})
	clock.Advance(10 * time.Minute)
	s.Observe(domain.Tab{ID: 2, WindowID: 1})
	s.Observe(domain.Tab{ID: 3, WindowID: 1, Active: true})
	clock.Advance(25 * time.Minute)

	got := s.QueryInactive(30)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("QueryInactive(30) = %v, want [1]", got)
	}

	got = s.QueryInactive(0)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("QueryInactive(0) should be oldest first, got %d entries", len(got))
	}
	for _, tab := range got {
		if tab.Active {
			t.Errorf("QueryInactive() returned active tab %d", tab.ID)
		}
	}
}

func TestRemoveAndRemoveWindow(t *testing.T) {
	s, _ := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1, Active: true})
	s.Observe(domain.Tab{ID: 2, WindowID: 1})
	s.Observe(domain.Tab{ID: 3, WindowID: 2})

	s.Remove(2)
	s.Remove(404)
	if _, ok := s.Find(2); ok {
		t.Error("Remove() did not delete tab 2")
	}

	s.RemoveWindow(1)
	if s.Count() != 1 {
		t.Errorf("Count() after RemoveWindow = %d, want 1", s.Count())
	}
	if _, ok := s.Find(3); !ok {
		t.Error("RemoveWindow() removed a tab from another window")
	}
	if sum := s.Summary(); sum.WindowCount != 1 {
		t.Errorf("WindowCount = %d, want 1", sum.WindowCount)
	}
}

func TestUpdateAndPrivacy(t *testing.T) {
	s, _ := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1, URL: "https://example.com/a", Title: "a"})

	s.Update(1, "https://www.youtube.com/watch?v=1", "")
	tab, _ := s.Find(1)
	if tab.Category != domain.CategoryEntertainment {
		t.Errorf("Category after navigation = %q, want entertainment", tab.Category)
	}
	if tab.Title != "a" {
		t.Errorf("empty title should be ignored, got %q", tab.Title)
	}

	s.SetPrivacyMode(true)
	tab, _ = s.Find(1)
	if tab.URL != "https://www.youtube.com" {
		t.Errorf("URL after privacy mode = %q, want origin", tab.URL)
	}

	s.Observe(domain.Tab{ID: 2, WindowID: 1, URL: "https://example.com/private?x=1"})
	tab, _ = s.Find(2)
	if tab.URL != "https://example.com" {
		t.Errorf("URL observed in privacy mode = %q, want origin", tab.URL)
	}
}

func TestMemory(t *testing.T) {
	s, clock := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1})
	s.Observe(domain.Tab{ID: 2, WindowID: 1, MemoryKB: 5000})

	s.SetMemory(1, -5)
	before, _ := s.Find(1)

	clock.Advance(10 * time.Hour)
	if n := s.ReestimateMemory(); n != 1 {
		t.Errorf("ReestimateMemory() updated %d tabs, want 1", n)
	}
	after, _ := s.Find(1)
	if after.MemoryKB <= before.MemoryKB {
		t.Errorf("estimate should grow with age: %d -> %d", before.MemoryKB, after.MemoryKB)
	}

	reported, _ := s.Find(2)
	if reported.MemoryKB != 5000 {
		t.Errorf("reported memory overwritten: %d", reported.MemoryKB)
	}

	s.SetMemory(1, 1234)
	tab, _ := s.Find(1)
	if tab.MemoryKB != 1234 || !tab.MemoryReported {
		t.Errorf("SetMemory() = %d (reported=%v), want 1234", tab.MemoryKB, tab.MemoryReported)
	}
}

func TestSummary(t *testing.T) {
	s, clock := newTestStore()
	s.Observe(domain.Tab{ID: 1, WindowID: 1, URL: "https://github.com", Active: true, MemoryKB: 100})
	s.Observe(domain.Tab{ID: 2, WindowID: 1, URL: "https://reddit.com", Pinned: true, MemoryKB: 200})
	clock.Advance(time.Minute)
	s.Observe(domain.Tab{ID: 3, WindowID: 2, URL: "https://reddit.com", MemoryKB: 300})
	clock.Advance(time.Minute)

	sum := s.Summary()
	if sum.TabCount != 3 || sum.WindowCount != 2 || sum.ActiveCount != 1 || sum.PinnedCount != 1 {
		t.Errorf("Summary() = %+v", sum)
	}
	if sum.TotalMemoryKB != 600 {
		t.Errorf("TotalMemoryKB = %d, want 600", sum.TotalMemoryKB)
	}
	if sum.ByCategory[domain.CategorySocial] != 2 {
		t.Errorf("ByCategory[social] = %d, want 2", sum.ByCategory[domain.CategorySocial])
	}
	if sum.TotalActiveTime != 2*time.Minute {
		t.Errorf("TotalActiveTime = %v, want 2m", sum.TotalActiveTime)
	}
	if sum.OldestInactiveTab != 2 {
		t.Errorf("OldestInactiveTab = %d, want 2", sum.OldestInactiveTab)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 10; i++ {
		s.Observe(domain.Tab{ID: i, WindowID: 1})
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Activate(i%10+1, 1)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.QueryInactive(0)
			_ = s.Summary()
		}()
	}
	wg.Wait()

	if ids := activeIDs(s, 1); len(ids) != 1 {
		t.Errorf("active tabs after concurrent activation = %v, want exactly one", ids)
	}
}
