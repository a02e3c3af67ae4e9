package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Redis string `json:"redis"`
}

// Readyz reports not ready only when a configured redis stops answering.
// Running without persistence is a valid mode.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.RedisClient == nil {
			writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Redis: "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.RedisClient.Ping(ctx).Err(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Redis: "unreachable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Redis: "ok"})
	}
}
