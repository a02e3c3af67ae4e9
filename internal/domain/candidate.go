package domain

// Criteria tunes candidate selection and scoring.
type Criteria struct {
	MinInactivityMinutes      int  `json:"min_inactivity_minutes"`
	MaxSuggestions            int  `json:"max_suggestions"` // 0 = no limit
	IncludePinnedTabs         bool `json:"include_pinned_tabs"`
	ExcludeWorkTabs           bool `json:"exclude_work_tabs"`
	PrioritizeMemoryUsage     bool `json:"prioritize_memory_usage"`
	PrioritizeLowProductivity bool `json:"prioritize_low_productivity"`
}

// ScoredCandidate is an eviction candidate ranked for a single cycle.
// Never persisted.
type ScoredCandidate struct {
	TabID    int      `json:"tab_id"`
	WindowID int      `json:"window_id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Category Category `json:"category"`
	Pinned   bool     `json:"pinned"`
	MemoryKB int64    `json:"memory_kb"`

	MinutesInactive   float64 `json:"minutes_inactive"`
	InactivityScore   float64 `json:"inactivity_score"`
	MemoryScore       float64 `json:"memory_score"`
	ProductivityScore float64 `json:"productivity_score"` // 10 - productivity, higher favors eviction
	CompositeScore    float64 `json:"composite_score"`

	Reasons []string `json:"reasons,omitempty"`
}
