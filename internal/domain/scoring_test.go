package domain

import (
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func inactiveTab(id int, cat Category, memKB int64, minutes int) Tab {
	return Tab{
		ID:           id,
		WindowID:     1,
		URL:          "https://example.com/" + string(cat),
		Category:     cat,
		MemoryKB:     memKB,
		LastActiveAt: testNow.Add(-time.Duration(minutes) * time.Minute),
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func fullCriteria() Criteria {
	return Criteria{
		MinInactivityMinutes:      30,
		ExcludeWorkTabs:           true,
		PrioritizeMemoryUsage:     true,
		PrioritizeLowProductivity: true,
	}
}

func TestScore_Scenario(t *testing.T) {
	tabs := []Tab{
		inactiveTab(1, CategorySocial, 80000, 45),
		inactiveTab(2, CategoryOther, 100000, 20),
		inactiveTab(3, CategoryEntertainment, 120000, 60),
	}

	got := Score(tabs, fullCriteria(), testNow)

	if len(got) != 2 {
		t.Fatalf("Score() returned %d candidates, want 2", len(got))
	}
	if got[0].TabID != 3 || got[1].TabID != 1 {
		t.Fatalf("Score() order = [%d %d], want [3 1]", got[0].TabID, got[1].TabID)
	}

	// entertainment: 10 + 10*0.8 + 9*0.6
	if !approxEqual(got[0].CompositeScore, 23.4) {
		t.Errorf("entertainment composite = %f, want 23.4", got[0].CompositeScore)
	}
	// social: 7.5 + (80000/120000*10)*0.8 + 8*0.6
	want := 7.5 + (80000.0/120000.0*10)*0.8 + 4.8
	if !approxEqual(got[1].CompositeScore, want) {
		t.Errorf("social composite = %f, want %f", got[1].CompositeScore, want)
	}
	if !approxEqual(got[1].InactivityScore, 7.5) {
		t.Errorf("social inactivity score = %f, want 7.5", got[1].InactivityScore)
	}
}

func TestScore_Filters(t *testing.T) {
	pinned := inactiveTab(1, CategorySocial, 1000, 60)
	pinned.Pinned = true
	work := inactiveTab(2, CategoryWork, 1000, 60)
	active := inactiveTab(3, CategoryNews, 1000, 60)
	active.Active = true
	plain := inactiveTab(4, CategoryNews, 1000, 60)

	tests := []struct {
		name     string
		criteria Criteria
		wantIDs  map[int]bool
	}{
		{
			name:     "pinned and work excluded",
			criteria: Criteria{MinInactivityMinutes: 10, ExcludeWorkTabs: true},
			wantIDs:  map[int]bool{4: true},
		},
		{
			name:     "pinned included",
			criteria: Criteria{MinInactivityMinutes: 10, IncludePinnedTabs: true, ExcludeWorkTabs: true},
			wantIDs:  map[int]bool{1: true, 4: true},
		},
		{
			name:     "work allowed",
			criteria: Criteria{MinInactivityMinutes: 10},
			wantIDs:  map[int]bool{2: true, 4: true},
		},
		{
			name:     "threshold above everything",
			criteria: Criteria{MinInactivityMinutes: 120, IncludePinnedTabs: true},
			wantIDs:  map[int]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score([]Tab{pinned, work, active, plain}, tt.criteria, testNow)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Score() returned %d candidates, want %d", len(got), len(tt.wantIDs))
			}
			for _, c := range got {
				if !tt.wantIDs[c.TabID] {
					t.Errorf("unexpected candidate %d", c.TabID)
				}
				if c.Pinned && !tt.criteria.IncludePinnedTabs {
					t.Errorf("pinned tab %d returned without IncludePinnedTabs", c.TabID)
				}
				if c.Category == CategoryWork && tt.criteria.ExcludeWorkTabs {
					t.Errorf("work tab %d returned with ExcludeWorkTabs", c.TabID)
				}
			}
		})
	}
}

func TestScore_PinnedPenalty(t *testing.T) {
	pinned := inactiveTab(1, CategoryOther, 0, 60)
	pinned.Pinned = true
	free := inactiveTab(2, CategoryOther, 0, 60)

	got := Score([]Tab{pinned, free}, Criteria{IncludePinnedTabs: true}, testNow)
	if len(got) != 2 {
		t.Fatalf("Score() returned %d candidates, want 2", len(got))
	}
	if got[0].TabID != 2 {
		t.Errorf("unpinned tab should rank first, got %d", got[0].TabID)
	}
	if !approxEqual(got[1].CompositeScore, 10*PinnedPenalty) {
		t.Errorf("pinned composite = %f, want %f", got[1].CompositeScore, 10*PinnedPenalty)
	}
}

func TestScore_SortedAndStable(t *testing.T) {
	tabs := []Tab{
		inactiveTab(1, CategoryOther, 500, 40),
		inactiveTab(2, CategoryOther, 500, 40),
		inactiveTab(3, CategoryEntertainment, 900, 90),
		inactiveTab(4, CategoryOther, 500, 40),
		inactiveTab(5, CategoryNews, 100, 35),
	}

	got := Score(tabs, Criteria{PrioritizeMemoryUsage: true, PrioritizeLowProductivity: true}, testNow)

	for i := 1; i < len(got); i++ {
		if got[i-1].CompositeScore < got[i].CompositeScore {
			t.Fatalf("Score() not sorted descending at %d: %f < %f", i, got[i-1].CompositeScore, got[i].CompositeScore)
		}
	}
	// ties keep input order
	var tied []int
	for _, c := range got {
		if c.Category == CategoryOther {
			tied = append(tied, c.TabID)
		}
	}
	if len(tied) != 3 || tied[0] != 1 || tied[1] != 2 || tied[2] != 4 {
		t.Errorf("tied candidates order = %v, want [1 2 4]", tied)
	}
}

func TestScore_Normalization(t *testing.T) {
	t.Run("identical nonzero inactivity", func(t *testing.T) {
		tabs := []Tab{
			inactiveTab(1, CategoryOther, 0, 50),
			inactiveTab(2, CategorySocial, 0, 50),
		}
		got := Score(tabs, Criteria{}, testNow)
		for _, c := range got {
			if !approxEqual(c.InactivityScore, ScoreScale) {
				t.Errorf("tab %d inactivity = %f, want %f", c.TabID, c.InactivityScore, ScoreScale)
			}
			if c.MemoryScore != 0 {
				t.Errorf("tab %d memory score = %f, want 0 when max memory is 0", c.TabID, c.MemoryScore)
			}
		}
	})

	t.Run("zero inactivity", func(t *testing.T) {
		tabs := []Tab{
			inactiveTab(1, CategoryOther, 10, 0),
			inactiveTab(2, CategoryOther, 10, 0),
		}
		got := Score(tabs, Criteria{}, testNow)
		if len(got) != 2 {
			t.Fatalf("Score() returned %d candidates, want 2", len(got))
		}
		for _, c := range got {
			if c.InactivityScore != 0 {
				t.Errorf("tab %d inactivity = %f, want 0", c.TabID, c.InactivityScore)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := Score(nil, Criteria{}, testNow); len(got) != 0 {
			t.Errorf("Score(nil) = %v, want empty", got)
		}
	})
}

func TestScore_MaxSuggestions(t *testing.T) {
	tabs := []Tab{
		inactiveTab(1, CategoryOther, 0, 10),
		inactiveTab(2, CategoryOther, 0, 20),
		inactiveTab(3, CategoryOther, 0, 30),
	}
	got := Score(tabs, Criteria{MaxSuggestions: 2}, testNow)
	if len(got) != 2 {
		t.Fatalf("Score() returned %d candidates, want 2", len(got))
	}
	if got[0].TabID != 3 || got[1].TabID != 2 {
		t.Errorf("Score() = [%d %d], want [3 2]", got[0].TabID, got[1].TabID)
	}
}

func TestProductivityScore(t *testing.T) {
	tests := map[Category]float64{
		CategoryWork:          9,
		CategoryNews:          6,
		CategoryShopping:      3,
		CategorySocial:        2,
		CategoryEntertainment: 1,
		CategoryOther:         5,
		Category("unknown"):   5,
	}
	for cat, want := range tests {
		if got := ProductivityScore(cat); got != want {
			t.Errorf("ProductivityScore(%q) = %v, want %v", cat, got, want)
		}
	}
}
