package domain

import (
	"fmt"
	"sort"
	"time"
)

const (
	// Factor weights
	WeightInactivity   = 1.0
	WeightMemory       = 0.8
	WeightProductivity = 0.6

	// Normalized factor ceiling (each factor is scaled to 0..ScoreScale)
	ScoreScale = 10.0

	// Pinned tabs that survive filtering are heavily penalized, not excluded
	PinnedPenalty = 0.3
)

// productivity maps a category to how productive it is (0..10).
var productivity = map[Category]float64{
	CategoryWork:          9,
	CategoryNews:          6,
	CategoryShopping:      3,
	CategorySocial:        2,
	CategoryEntertainment: 1,
	CategoryOther:         5,
}

// ProductivityScore returns the fixed productivity of a category.
// Unknown categories score as CategoryOther.
func ProductivityScore(c Category) float64 {
	if p, ok := productivity[c]; ok {
		return p
	}
	return productivity[CategoryOther]
}

// Score ranks eviction candidates, most evictable first.
//
// Inactivity and memory are normalized by the maximum across the filtered set,
// so scores are relative to the current pool, not absolute.
func Score(tabs []Tab, c Criteria, now time.Time) []ScoredCandidate {
	eligible := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.Active {
			continue
		}
		if t.MinutesInactive(now) < float64(c.MinInactivityMinutes) {
			continue
		}
		if t.Pinned && !c.IncludePinnedTabs {
			continue
		}
		if c.ExcludeWorkTabs && t.Category == CategoryWork {
			continue
		}
		eligible = append(eligible, t)
	}

	if len(eligible) == 0 {
		return []ScoredCandidate{}
	}

	var maxInactive float64
	var maxMemory int64
	for _, t := range eligible {
		if m := t.MinutesInactive(now); m > maxInactive {
			maxInactive = m
		}
		if t.MemoryKB > maxMemory {
			maxMemory = t.MemoryKB
		}
	}

	candidates := make([]ScoredCandidate, 0, len(eligible))
	for _, t := range eligible {
		candidates = append(candidates, scoreTab(t, c, now, maxInactive, maxMemory))
	}

	sortScoredCandidates(candidates)

	if c.MaxSuggestions > 0 && len(candidates) > c.MaxSuggestions {
		candidates = candidates[:c.MaxSuggestions]
	}
	return candidates
}

// scoreTab computes the factor and composite scores of a single tab
func scoreTab(t Tab, c Criteria, now time.Time, maxInactive float64, maxMemory int64) ScoredCandidate {
	minutes := t.MinutesInactive(now)

	inactivityScore := 0.0
	if maxInactive > 0 {
		inactivityScore = (minutes / maxInactive) * ScoreScale
	}

	memoryScore := 0.0
	if maxMemory > 0 {
		memoryScore = (float64(t.MemoryKB) / float64(maxMemory)) * ScoreScale
	}

	inverseProductivity := ScoreScale - ProductivityScore(t.Category)

	composite := inactivityScore * WeightInactivity
	if c.PrioritizeMemoryUsage {
		composite += memoryScore * WeightMemory
	}
	if c.PrioritizeLowProductivity {
		composite += inverseProductivity * WeightProductivity
	}
	if t.Pinned {
		composite *= PinnedPenalty
	}

	return ScoredCandidate{
		TabID:             t.ID,
		WindowID:          t.WindowID,
		Title:             t.Title,
		URL:               t.URL,
		Category:          t.Category,
		Pinned:            t.Pinned,
		MemoryKB:          t.MemoryKB,
		MinutesInactive:   minutes,
		InactivityScore:   inactivityScore,
		MemoryScore:       memoryScore,
		ProductivityScore: inverseProductivity,
		CompositeScore:    composite,
		Reasons:           reasons(t, c, minutes, memoryScore),
	}
}

// reasons explains a score in user-facing terms
func reasons(t Tab, c Criteria, minutes, memoryScore float64) []string {
	out := []string{fmt.Sprintf("inactive for %d min", int(minutes))}
	if c.PrioritizeMemoryUsage && memoryScore >= ScoreScale/2 {
		out = append(out, fmt.Sprintf("high memory usage (%d MB)", t.MemoryKB/1024))
	}
	if c.PrioritizeLowProductivity && ProductivityScore(t.Category) <= 3 {
		out = append(out, fmt.Sprintf("low productivity category (%s)", t.Category))
	}
	if t.Pinned {
		out = append(out, "pinned (penalized)")
	}
	return out
}

// sortScoredCandidates sorts by composite score (descending), keeping input order on ties
func sortScoredCandidates(candidates []ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CompositeScore > candidates[j].CompositeScore
	})
}
