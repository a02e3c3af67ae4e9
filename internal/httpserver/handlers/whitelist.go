package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
)

func ListWhitelist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Coordinator.Whitelist())
	}
}

type whitelistRequest struct {
	Type  domain.WhitelistType `json:"type"`
	Value string               `json:"value"`
	Label string               `json:"label,omitempty"`
}

type whitelistResponse struct {
	Added   bool `json:"added,omitempty"`
	Removed bool `json:"removed,omitempty"`
}

// AddWhitelist answers 201 for a new entry and 409 for a duplicate
func AddWhitelist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req whitelistRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		added, err := d.Coordinator.AddToWhitelist(r.Context(), domain.WhitelistEntry{
			Type:  req.Type,
			Value: req.Value,
			Label: req.Label,
		})
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if !added {
			writeError(w, http.StatusConflict, "whitelist entry already exists")
			return
		}
		writeJSON(w, http.StatusCreated, whitelistResponse{Added: true})
	}
}

// RemoveWhitelist takes the entry from ?type=&value=
func RemoveWhitelist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		typ, value := domain.WhitelistType(q.Get("type")), q.Get("value")
		if typ == "" || value == "" {
			writeError(w, http.StatusBadRequest, "type and value are required")
			return
		}

		if !d.Coordinator.RemoveFromWhitelist(r.Context(), typ, value) {
			writeError(w, http.StatusNotFound, "whitelist entry not found")
			return
		}
		writeJSON(w, http.StatusOK, whitelistResponse{Removed: true})
	}
}
