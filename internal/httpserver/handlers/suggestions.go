package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
)

// Suggestions ranks eviction candidates with the current options.
// Query parameters override individual criteria for this call only.
func Suggestions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := criteriaFromQuery(d.Coordinator.Options().Criteria(), r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, d.Coordinator.Suggestions(criteria))
	}
}

func criteriaFromQuery(c domain.Criteria, q url.Values) (domain.Criteria, error) {
	ints := []struct {
		key string
		dst *int
	}{
		{"min_inactivity_minutes", &c.MinInactivityMinutes},
		{"max_suggestions", &c.MaxSuggestions},
	}
	for _, p := range ints {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c, fmt.Errorf("%s must be a non-negative integer", p.key)
		}
		*p.dst = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"include_pinned_tabs", &c.IncludePinnedTabs},
		{"exclude_work_tabs", &c.ExcludeWorkTabs},
		{"prioritize_memory_usage", &c.PrioritizeMemoryUsage},
		{"prioritize_low_productivity", &c.PrioritizeLowProductivity},
	}
	for _, p := range bools {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("%s must be a boolean", p.key)
		}
		*p.dst = b
	}
	return c, nil
}
