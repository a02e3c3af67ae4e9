package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
	"github.com/MrSnakeDoc/tabwarden/internal/rules"
)

type rulesPayload struct {
	Rules []ruleInput `json:"rules"`
}

// ruleInput defaults Enabled to true when the key is omitted
type ruleInput struct {
	ID        string           `json:"id,omitempty"`
	Name      string           `json:"name"`
	Condition domain.Condition `json:"condition"`
	Action    domain.Action    `json:"action"`
	Priority  int              `json:"priority"`
	Enabled   *bool            `json:"enabled,omitempty"`
}

type rulesResponse struct {
	Rules     []domain.Rule `json:"rules"`
	Persisted bool          `json:"persisted"`
}

func ListRules(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rulesResponse{Rules: d.Resolver.Rules(), Persisted: d.RulesStore != nil})
	}
}

// ReplaceRules validates and installs a whole rule set.
// The set stays active until the rules file changes or is reloaded.
func ReplaceRules(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rulesPayload
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		set := make([]domain.Rule, 0, len(req.Rules))
		for _, in := range req.Rules {
			set = append(set, domain.Rule{
				ID:        in.ID,
				Name:      in.Name,
				Condition: in.Condition,
				Action:    in.Action,
				Priority:  in.Priority,
				Enabled:   in.Enabled == nil || *in.Enabled,
			})
		}
		set = rules.AssignIDs(set)
		for i, rule := range set {
			if err := rule.Validate(); err != nil {
				writeError(w, statusFor(err), fmt.Sprintf("rule #%d (%s): %v", i, rule.Name, err))
				return
			}
		}

		d.Resolver.SetRules(set)
		d.Logger.Info("rule set replaced via endpoint",
			logger.Int("rules", len(set)),
			logger.String("remote_ip", r.RemoteAddr))

		persisted := false
		if d.RulesStore != nil {
			if err := d.RulesStore.SaveRules(r.Context(), set); err != nil {
				d.Logger.Warn("failed to persist rules", logger.Error(err))
			} else {
				persisted = true
			}
		}
		writeJSON(w, http.StatusOK, rulesResponse{Rules: set, Persisted: persisted})
	}
}

// RuleLimits resolves the tab limit of every category.
// ?default= sets the limit of categories no rule targets.
func RuleLimits(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def := d.Coordinator.Options().DefaultTabLimit
		if v := r.URL.Query().Get("default"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "default must be a non-negative integer")
				return
			}
			def = n
		}
		writeJSON(w, http.StatusOK, d.Resolver.CategoryTabLimits(def))
	}
}
