package domain

import "fmt"

// Options holds the user-tunable eviction settings.
type Options struct {
	Enabled                   bool `json:"enabled"`
	MinInactivityMinutes      int  `json:"min_inactivity_minutes"`
	MaxSuggestions            int  `json:"max_suggestions"`
	IncludePinnedTabs         bool `json:"include_pinned_tabs"`
	ExcludeWorkTabs           bool `json:"exclude_work_tabs"`
	PrioritizeMemoryUsage     bool `json:"prioritize_memory_usage"`
	PrioritizeLowProductivity bool `json:"prioritize_low_productivity"`
	ShowNotifications         bool `json:"show_notifications"`
	NotificationDelaySeconds  int  `json:"notification_delay_seconds"`
	DefaultTabLimit           int  `json:"default_tab_limit"` // 0 = unlimited
	PrivacyMode               bool `json:"privacy_mode"`
}

// DefaultOptions returns the settings used before any user customization.
func DefaultOptions() Options {
	return Options{
		Enabled:                   false,
		MinInactivityMinutes:      30,
		MaxSuggestions:            5,
		IncludePinnedTabs:         false,
		ExcludeWorkTabs:           true,
		PrioritizeMemoryUsage:     true,
		PrioritizeLowProductivity: true,
		ShowNotifications:         true,
		NotificationDelaySeconds:  10,
		DefaultTabLimit:           0,
		PrivacyMode:               false,
	}
}

// Criteria projects the scoring-relevant options.
func (o Options) Criteria() Criteria {
	return Criteria{
		MinInactivityMinutes:      o.MinInactivityMinutes,
		MaxSuggestions:            o.MaxSuggestions,
		IncludePinnedTabs:         o.IncludePinnedTabs,
		ExcludeWorkTabs:           o.ExcludeWorkTabs,
		PrioritizeMemoryUsage:     o.PrioritizeMemoryUsage,
		PrioritizeLowProductivity: o.PrioritizeLowProductivity,
	}
}

// Validate rejects negative counts and durations.
func (o Options) Validate() error {
	if o.MinInactivityMinutes < 0 {
		return fmt.Errorf("%w: min_inactivity_minutes must be >= 0", ErrInvalidOptions)
	}
	if o.MaxSuggestions < 0 {
		return fmt.Errorf("%w: max_suggestions must be >= 0", ErrInvalidOptions)
	}
	if o.NotificationDelaySeconds < 0 {
		return fmt.Errorf("%w: notification_delay_seconds must be >= 0", ErrInvalidOptions)
	}
	if o.DefaultTabLimit < 0 {
		return fmt.Errorf("%w: default_tab_limit must be >= 0", ErrInvalidOptions)
	}
	return nil
}

// OptionsPatch is a partial update; nil fields are left untouched.
type OptionsPatch struct {
	Enabled                   *bool `json:"enabled,omitempty"`
	MinInactivityMinutes      *int  `json:"min_inactivity_minutes,omitempty"`
	MaxSuggestions            *int  `json:"max_suggestions,omitempty"`
	IncludePinnedTabs         *bool `json:"include_pinned_tabs,omitempty"`
	ExcludeWorkTabs           *bool `json:"exclude_work_tabs,omitempty"`
	PrioritizeMemoryUsage     *bool `json:"prioritize_memory_usage,omitempty"`
	PrioritizeLowProductivity *bool `json:"prioritize_low_productivity,omitempty"`
	ShowNotifications         *bool `json:"show_notifications,omitempty"`
	NotificationDelaySeconds  *int  `json:"notification_delay_seconds,omitempty"`
	DefaultTabLimit           *int  `json:"default_tab_limit,omitempty"`
	PrivacyMode               *bool `json:"privacy_mode,omitempty"`
}

// Apply returns o with every non-nil patch field applied.
func (p OptionsPatch) Apply(o Options) Options {
	setBool(&o.Enabled, p.Enabled)
	setInt(&o.MinInactivityMinutes, p.MinInactivityMinutes)
	setInt(&o.MaxSuggestions, p.MaxSuggestions)
	setBool(&o.IncludePinnedTabs, p.IncludePinnedTabs)
	setBool(&o.ExcludeWorkTabs, p.ExcludeWorkTabs)
	setBool(&o.PrioritizeMemoryUsage, p.PrioritizeMemoryUsage)
	setBool(&o.PrioritizeLowProductivity, p.PrioritizeLowProductivity)
	setBool(&o.ShowNotifications, p.ShowNotifications)
	setInt(&o.NotificationDelaySeconds, p.NotificationDelaySeconds)
	setInt(&o.DefaultTabLimit, p.DefaultTabLimit)
	setBool(&o.PrivacyMode, p.PrivacyMode)
	return o
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
