package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
)

// Closed returns the eviction history, most recent batch last
func Closed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Coordinator.ClosedBatch())
	}
}

type undoResponse struct {
	Restored bool `json:"restored"`
}

// Undo reopens the most recent eviction batch
func Undo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Coordinator.UndoLastBatch(r.Context()) {
			writeJSON(w, http.StatusNotFound, undoResponse{Restored: false})
			return
		}
		writeJSON(w, http.StatusOK, undoResponse{Restored: true})
	}
}
