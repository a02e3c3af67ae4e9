package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

type triggerResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Cycle queues an immediate eviction cycle
func Cycle(d deps.Deps) http.HandlerFunc {
	return trigger(d, d.CycleTrigger, "eviction cycle")
}

// ReloadRules queues a forced rules file reload
func ReloadRules(d deps.Deps) http.HandlerFunc {
	return trigger(d, d.RulesReloadTrigger, "rules reload")
}

func trigger(d deps.Deps, ch chan struct{}, what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ch == nil {
			writeError(w, http.StatusNotFound, what+" is not configured")
			return
		}

		select {
		case ch <- struct{}{}:
			d.Logger.Info("manual "+what+" triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, triggerResponse{Triggered: true, Message: what + " triggered"})
		default:
			d.Logger.Warn(what+" already queued",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, triggerResponse{Message: what + " already queued, please wait"})
		}
	}
}
