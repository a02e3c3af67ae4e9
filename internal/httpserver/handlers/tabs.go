package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

const maxEventsPerBatch = 500

// tabEvent is one browser notification forwarded by the bridge.
// Fields irrelevant to the event type are ignored.
type tabEvent struct {
	Type     string `json:"type"`
	TabID    int    `json:"tab_id"`
	WindowID int    `json:"window_id"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Pinned   *bool  `json:"pinned,omitempty"`
	Category string `json:"category,omitempty"`
	MemoryKB int64  `json:"memory_kb,omitempty"`
}

type eventsRequest struct {
	Events []tabEvent `json:"events"`
}

type eventsResponse struct {
	Applied int `json:"applied"`
	Ignored int `json:"ignored"`
}

// TabEvents applies a batch of tab events to the activity store in order
func TabEvents(d deps.Deps) http.HandlerFunc {
	log := d.Logger.With(logger.Component("events"))
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Events) > maxEventsPerBatch {
			writeError(w, http.StatusRequestEntityTooLarge, "too many events in one batch")
			return
		}

		var resp eventsResponse
		for _, ev := range req.Events {
			if applyEvent(d, ev) {
				resp.Applied++
				continue
			}
			resp.Ignored++
			log.Warn("malformed tab event ignored",
				logger.String("type", ev.Type),
				logger.Int("tab_id", ev.TabID),
				logger.Int("window_id", ev.WindowID))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func applyEvent(d deps.Deps, ev tabEvent) bool {
	store := d.Activity
	switch ev.Type {
	case "created":
		if ev.TabID <= 0 {
			return false
		}
		tab := domain.Tab{
			ID:       ev.TabID,
			WindowID: ev.WindowID,
			URL:      ev.URL,
			Title:    ev.Title,
			Active:   ev.Active,
			MemoryKB: ev.MemoryKB,
		}
		if ev.Pinned != nil {
			tab.Pinned = *ev.Pinned
		}
		if c, ok := domain.ParseCategory(ev.Category); ok {
			tab.Category = c
		}
		store.Observe(tab)
	case "activated":
		if ev.TabID <= 0 {
			return false
		}
		store.Activate(ev.TabID, ev.WindowID)
	case "deactivated":
		store.DeactivateAccrual(ev.TabID)
	case "updated":
		if ev.TabID <= 0 {
			return false
		}
		store.Update(ev.TabID, ev.URL, ev.Title)
		if ev.Pinned != nil {
			store.SetPinned(ev.TabID, *ev.Pinned)
		}
		if ev.Category != "" {
			c, ok := domain.ParseCategory(ev.Category)
			if !ok {
				return false
			}
			store.SetCategory(ev.TabID, c)
		}
	case "removed":
		store.Remove(ev.TabID)
	case "window_removed":
		store.RemoveWindow(ev.WindowID)
	case "memory":
		if ev.MemoryKB < 0 {
			return false
		}
		store.SetMemory(ev.TabID, ev.MemoryKB)
	default:
		return false
	}
	return true
}

// Inactive lists non-active tabs idle for at least ?threshold= minutes.
// Without a threshold the configured minimum inactivity is used.
func Inactive(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold := d.Coordinator.Options().MinInactivityMinutes
		if v := r.URL.Query().Get("threshold"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "threshold must be a non-negative integer")
				return
			}
			threshold = n
		}
		writeJSON(w, http.StatusOK, d.Coordinator.InactiveResources(threshold))
	}
}

func Summary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Activity.Summary())
	}
}

type admitRequest struct {
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
}

// Admit tells the bridge whether a new tab may be opened
func Admit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req admitRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		var category domain.Category
		if req.Category != "" {
			c, ok := domain.ParseCategory(req.Category)
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown category "+strconv.Quote(req.Category))
				return
			}
			category = c
		}
		writeJSON(w, http.StatusOK, d.Coordinator.Admit(req.URL, category))
	}
}
