package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

// Pending describes the batch waiting for its notification delay
func Pending(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := d.Coordinator.Pending()
		if !ok {
			writeError(w, http.StatusNotFound, "no eviction pending")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// CancelPending is the notification's cancel button
func CancelPending(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Coordinator.Cancel() {
			writeJSON(w, http.StatusConflict, cancelResponse{Cancelled: false})
			return
		}
		d.Logger.Info("pending eviction cancelled via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, cancelResponse{Cancelled: true})
	}
}

// EvictNow is the notification's close-now button
func EvictNow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := d.Coordinator.EvictNow(r.Context())
		if !ok {
			writeError(w, http.StatusConflict, "no eviction pending")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
