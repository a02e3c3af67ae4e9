package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Count      *int   `json:"count,omitempty"`
	LastRun    string `json:"last_run,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
	State      string `json:"state,omitempty"`
	PendingFor string `json:"pending_for,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports each component's health and the eviction state machine position
func Status(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tabCount := d.Activity.Count()
		ruleCount := len(d.Resolver.Rules())
		whitelistCount := len(d.Coordinator.Whitelist())

		evictor := componentStatus{
			OK:      true,
			State:   string(d.Coordinator.State()),
			LastRun: formatTime(d.Coordinator.LastCycle()),
		}
		if !d.Coordinator.Options().Enabled {
			evictor.Mode = "disabled"
		}
		if p, ok := d.Coordinator.Pending(); ok {
			evictor.PendingFor = p.Deadline.Sub(now()).Round(time.Second).String()
		}

		components := map[string]componentStatus{
			"activity":  {OK: true, Count: &tabCount},
			"rules":     {OK: true, Count: &ruleCount, Mode: rulesMode(d)},
			"whitelist": {OK: true, Count: &whitelistCount},
			"eviction":  evictor,
			"redis":     checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, statusResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func rulesMode(d deps.Deps) string {
	if d.RulesFile != "" {
		return "file+api"
	}
	return "api"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func determineMode(components map[string]componentStatus) string {
	if ev, ok := components["eviction"]; ok && ev.Mode == "disabled" {
		return "observing"
	}
	// Redis down keeps eviction running, changes are lost on restart
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded"
	}
	return "evicting"
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     true,
			Mode:   "memory",
			Impact: "state-lost-on-restart",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "state-not-persisted",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "persistent"}
}
