package eviction

import (
	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

// AdmitDecision tells the bridge whether a new tab may stay open.
type AdmitDecision struct {
	Allowed     bool            `json:"allowed"`
	Reason      string          `json:"reason"`
	Category    domain.Category `json:"category"`
	RuleID      string          `json:"rule_id,omitempty"`
	Count       int             `json:"count"`
	Limit       int             `json:"limit"` // 0 = unlimited
	Total       int             `json:"total"`
	GlobalLimit int             `json:"global_limit"` // 0 = unlimited
}

// Admit checks a new tab against block_new rules, its category limit and
// the global tab limit.
// Whitelisted locators are always admitted.
func (c *Coordinator) Admit(locator string, category domain.Category) AdmitDecision {
	if category == "" {
		category = domain.Categorize(locator)
	}
	count := c.store.CountByCategory()[category]
	total := c.store.Count()
	d := AdmitDecision{Allowed: true, Category: category, Count: count, Total: total}

	if c.IsWhitelisted(locator) {
		d.Reason = "whitelisted"
		return d
	}

	opts := c.Options()
	ctx := domain.RuleContext{
		Locator:  locator,
		Category: category,
		TabCount: total,
		At:       c.now(),
	}
	if block := c.rules.ResolveAction(ctx, domain.ActionBlockNew, domain.Decision{}); block.Matched {
		d.Allowed = false
		d.Reason = "blocked by rule " + block.RuleName
		d.RuleID = block.RuleID
		return d
	}

	d.Limit = c.rules.CategoryTabLimits(opts.DefaultTabLimit)[category]
	if d.Limit > 0 && count >= d.Limit {
		d.Allowed = false
		d.Reason = "category limit reached"
		return d
	}

	global := c.rules.GlobalTabLimit(ctx, 0)
	d.GlobalLimit = global.Value
	if d.GlobalLimit > 0 && total >= d.GlobalLimit {
		d.Allowed = false
		d.Reason = "tab limit reached"
		d.RuleID = global.RuleID
		return d
	}

	d.Reason = "ok"
	return d
}
