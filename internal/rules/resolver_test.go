package rules

import (
	"testing"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

func newTestResolver(rules ...domain.Rule) *Resolver {
	r := NewResolver(logger.New("error", false))
	r.now = func() time.Time { return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) }
	r.SetRules(rules)
	return r
}

func rule(id string, priority int, ct domain.ConditionType, op domain.Operator, operand string, at domain.ActionType, value int) domain.Rule {
	return domain.Rule{
		ID:        id,
		Name:      id,
		Condition: domain.Condition{Type: ct, Operator: op, Value: operand},
		Action:    domain.Action{Type: at, Value: value},
		Priority:  priority,
		Enabled:   true,
	}
}

func TestResolve_Priority(t *testing.T) {
	r := newTestResolver(
		rule("loose", 10, domain.ConditionCategoryMatch, domain.OperatorEquals, "social", domain.ActionLimitCount, 8),
		rule("strict", 0, domain.ConditionCategoryMatch, domain.OperatorContains, "social,news", domain.ActionLimitCount, 2),
	)

	got := r.Resolve(domain.RuleContext{Category: domain.CategorySocial}, domain.Decision{Value: 99})
	if !got.Matched || got.RuleID != "strict" || got.Value != 2 {
		t.Errorf("Resolve() = %+v, want strict rule with value 2", got)
	}
}

func TestResolve_TiesKeepDeclarationOrder(t *testing.T) {
	r := newTestResolver(
		rule("first", 5, domain.ConditionCategoryMatch, domain.OperatorEquals, "news", domain.ActionLimitCount, 1),
		rule("second", 5, domain.ConditionCategoryMatch, domain.OperatorEquals, "news", domain.ActionLimitCount, 7),
	)

	got := r.Resolve(domain.RuleContext{Category: domain.CategoryNews}, domain.Decision{})
	if got.RuleID != "first" {
		t.Errorf("Resolve() picked %q, want first", got.RuleID)
	}
}

func TestResolve_DisabledAndDefault(t *testing.T) {
	disabled := rule("off", 0, domain.ConditionCategoryMatch, domain.OperatorEquals, "social", domain.ActionLimitCount, 1)
	disabled.Enabled = false
	r := newTestResolver(disabled)

	got := r.Resolve(domain.RuleContext{Category: domain.CategorySocial}, domain.Decision{Value: 42, Matched: true})
	if got.Matched || got.Value != 42 {
		t.Errorf("Resolve() = %+v, want unmatched default 42", got)
	}
}

func TestResolve_Wildcard(t *testing.T) {
	r := newTestResolver(
		rule("wild", 0, domain.ConditionLocatorMatch, domain.OperatorContains, "*.example.com", domain.ActionCloseAfter, 15),
	)

	tests := []struct {
		locator string
		want    bool
	}{
		{locator: "https://sub.example.com/page", want: true},
		{locator: "https://a.b.example.com", want: true},
		{locator: "https://SUB.Example.com:8443/x", want: true},
		{locator: "https://example.com", want: false},
		{locator: "https://example.org", want: false},
		{locator: "https://sub.example.com.evil.org", want: false},
		{locator: "", want: false},
	}

	for _, tt := range tests {
		got := r.Resolve(domain.RuleContext{Locator: tt.locator}, domain.Decision{})
		if got.Matched != tt.want {
			t.Errorf("Resolve(%q).Matched = %v, want %v", tt.locator, got.Matched, tt.want)
		}
	}
}

func TestResolve_LocatorEqualsAndPathPatterns(t *testing.T) {
	r := newTestResolver(
		rule("exact", 0, domain.ConditionLocatorMatch, domain.OperatorEquals, "example.com", domain.ActionBlockNew, 0),
		rule("path", 1, domain.ConditionLocatorMatch, domain.OperatorContains, "https://docs.*/api/*", domain.ActionCloseAfter, 5),
	)

	if got := r.Resolve(domain.RuleContext{Locator: "https://example.com/x"}, domain.Decision{}); got.RuleID != "exact" {
		t.Errorf("bare domain should match equals rule, got %+v", got)
	}
	if got := r.Resolve(domain.RuleContext{Locator: "https://www.example.com"}, domain.Decision{}); got.Matched {
		t.Errorf("equals should not match subdomains, got %+v", got)
	}
	if got := r.Resolve(domain.RuleContext{Locator: "https://docs.go.dev/api/net"}, domain.Decision{}); got.RuleID != "path" {
		t.Errorf("path pattern should match full locator, got %+v", got)
	}
}

func TestResolve_WildcardLiteralMeta(t *testing.T) {
	r := newTestResolver(
		rule("search", 0, domain.ConditionLocatorMatch, domain.OperatorContains, "*example.com/search?q=*", domain.ActionCloseAfter, 5),
		rule("braces", 1, domain.ConditionLocatorMatch, domain.OperatorContains, "*/{a,b}/*", domain.ActionCloseAfter, 6),
		rule("class", 2, domain.ConditionLocatorMatch, domain.OperatorContains, "*/[x]", domain.ActionCloseAfter, 7),
	)

	tests := []struct {
		locator string
		want    string
	}{
		{locator: "https://example.com/search?q=go", want: "search"},
		{locator: "https://example.com/searchXq=go", want: ""},
		{locator: "https://host.test/{a,b}/page", want: "braces"},
		{locator: "https://host.test/a/page", want: ""},
		{locator: "https://host.test/[x]", want: "class"},
		{locator: "https://host.test/x", want: ""},
	}

	for _, tt := range tests {
		got := r.Resolve(domain.RuleContext{Locator: tt.locator}, domain.Decision{})
		if got.RuleID != tt.want {
			t.Errorf("Resolve(%q).RuleID = %q, want %q", tt.locator, got.RuleID, tt.want)
		}
	}
}

func TestResolve_InvalidPatternNeverMatches(t *testing.T) {
	r := newTestResolver(
		rule("broken", 0, domain.ConditionLocatorMatch, domain.OperatorContains, "  ", domain.ActionLimitCount, 1),
		rule("count", 1, domain.ConditionResourceCount, domain.OperatorGreaterThan, "abc", domain.ActionLimitCount, 2),
		rule("ok", 2, domain.ConditionLocatorMatch, domain.OperatorContains, "*", domain.ActionLimitCount, 3),
	)

	got := r.Resolve(domain.RuleContext{Locator: "https://x.com", TabCount: 100}, domain.Decision{})
	if got.RuleID != "ok" {
		t.Errorf("invalid rules should be skipped, got %+v", got)
	}
}

func TestResolve_Numeric(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2026, 3, 10, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name string
		cond domain.Condition
		ctx  domain.RuleContext
		want bool
	}{
		{
			name: "count greater than",
			cond: domain.Condition{Type: domain.ConditionResourceCount, Operator: domain.OperatorGreaterThan, Value: "20"},
			ctx:  domain.RuleContext{TabCount: 21},
			want: true,
		},
		{
			name: "count not greater",
			cond: domain.Condition{Type: domain.ConditionResourceCount, Operator: domain.OperatorGreaterThan, Value: "20"},
			ctx:  domain.RuleContext{TabCount: 20},
			want: false,
		},
		{
			name: "count less than",
			cond: domain.Condition{Type: domain.ConditionResourceCount, Operator: domain.OperatorLessThan, Value: "5"},
			ctx:  domain.RuleContext{TabCount: 4},
			want: true,
		},
		{
			name: "count in range inclusive",
			cond: domain.Condition{Type: domain.ConditionResourceCount, Operator: domain.OperatorInRange, Value: "10-20"},
			ctx:  domain.RuleContext{TabCount: 20},
			want: true,
		},
		{
			name: "work hours",
			cond: domain.Condition{Type: domain.ConditionTime, Operator: domain.OperatorInRange, Value: "09:00-17:30"},
			ctx:  domain.RuleContext{At: day(14, 0)},
			want: true,
		},
		{
			name: "outside work hours",
			cond: domain.Condition{Type: domain.ConditionTime, Operator: domain.OperatorInRange, Value: "540-1050"},
			ctx:  domain.RuleContext{At: day(18, 0)},
			want: false,
		},
		{
			name: "overnight range wraps",
			cond: domain.Condition{Type: domain.ConditionTime, Operator: domain.OperatorInRange, Value: "22:00-06:00"},
			ctx:  domain.RuleContext{At: day(1, 15)},
			want: true,
		},
		{
			name: "overnight range excludes afternoon",
			cond: domain.Condition{Type: domain.ConditionTime, Operator: domain.OperatorInRange, Value: "22:00-06:00"},
			ctx:  domain.RuleContext{At: day(15, 0)},
			want: false,
		},
		{
			name: "contains unsupported on counts",
			cond: domain.Condition{Type: domain.ConditionResourceCount, Operator: domain.OperatorContains, Value: "1"},
			ctx:  domain.RuleContext{TabCount: 1},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(domain.Rule{
				ID:        tt.name,
				Condition: tt.cond,
				Action:    domain.Action{Type: domain.ActionLimitCount, Value: 1},
				Enabled:   true,
			})
			got := r.Resolve(tt.ctx, domain.Decision{})
			if got.Matched != tt.want {
				t.Errorf("Resolve().Matched = %v, want %v", got.Matched, tt.want)
			}
		})
	}
}

func TestResolveAction(t *testing.T) {
	r := newTestResolver(
		rule("close", 0, domain.ConditionCategoryMatch, domain.OperatorEquals, "social", domain.ActionCloseAfter, 10),
		rule("limit", 5, domain.ConditionCategoryMatch, domain.OperatorEquals, "social", domain.ActionLimitCount, 4),
	)

	ctx := domain.RuleContext{Category: domain.CategorySocial}
	if got := r.Resolve(ctx, domain.Decision{}); got.RuleID != "close" {
		t.Errorf("Resolve() = %q, want close", got.RuleID)
	}
	if got := r.ResolveAction(ctx, domain.ActionLimitCount, domain.Decision{}); got.RuleID != "limit" || got.Value != 4 {
		t.Errorf("ResolveAction(limit_count) = %+v, want limit/4", got)
	}
}

func TestCategoryTabLimits(t *testing.T) {
	r := newTestResolver(
		rule("media", 0, domain.ConditionCategoryMatch, domain.OperatorContains, "social, entertainment", domain.ActionLimitCount, 3),
		rule("social", 10, domain.ConditionCategoryMatch, domain.OperatorEquals, "social", domain.ActionLimitCount, 6),
		rule("news", 1, domain.ConditionCategoryMatch, domain.OperatorEquals, "news", domain.ActionLimitCount, 5),
		rule("busy", 2, domain.ConditionResourceCount, domain.OperatorGreaterThan, "50", domain.ActionLimitCount, 1),
	)

	limits := r.CategoryTabLimits(12)

	want := map[domain.Category]int{
		domain.CategoryWork:          12,
		domain.CategorySocial:        3,
		domain.CategoryEntertainment: 3,
		domain.CategoryNews:          5,
		domain.CategoryShopping:      12,
		domain.CategoryOther:         12,
	}
	for c, w := range want {
		if limits[c] != w {
			t.Errorf("CategoryTabLimits()[%s] = %d, want %d", c, limits[c], w)
		}
	}

	// Same answer as resolving each category on its own
	for _, c := range domain.Categories {
		d := r.ResolveAction(r.CategoryContext(c), domain.ActionLimitCount, domain.Decision{Value: 12})
		if d.Value != limits[c] {
			t.Errorf("category %s: map = %d, resolve = %d", c, limits[c], d.Value)
		}
	}
}

func TestCategoryTabLimits_IgnoresCountRules(t *testing.T) {
	r := newTestResolver(
		rule("roomy", 0, domain.ConditionResourceCount, domain.OperatorLessThan, "100", domain.ActionLimitCount, 50),
		rule("news", 1, domain.ConditionCategoryMatch, domain.OperatorEquals, "news", domain.ActionLimitCount, 5),
	)

	limits := r.CategoryTabLimits(0)
	for _, c := range domain.Categories {
		want := 0
		if c == domain.CategoryNews {
			want = 5
		}
		if limits[c] != want {
			t.Errorf("CategoryTabLimits()[%s] = %d, want %d", c, limits[c], want)
		}
	}
}

func TestGlobalTabLimit(t *testing.T) {
	r := newTestResolver(
		rule("news", 0, domain.ConditionCategoryMatch, domain.OperatorEquals, "news", domain.ActionLimitCount, 5),
		rule("busy", 1, domain.ConditionResourceCount, domain.OperatorGreaterThan, "3", domain.ActionLimitCount, 3),
		rule("roomy", 2, domain.ConditionResourceCount, domain.OperatorLessThan, "100", domain.ActionLimitCount, 50),
	)

	tests := []struct {
		name  string
		ctx   domain.RuleContext
		want  int
		match string
	}{
		{name: "over threshold", ctx: domain.RuleContext{TabCount: 6}, want: 3, match: "busy"},
		{name: "under threshold", ctx: domain.RuleContext{TabCount: 2}, want: 50, match: "roomy"},
		{name: "category rule skipped", ctx: domain.RuleContext{Category: domain.CategoryNews, TabCount: 2}, want: 50, match: "roomy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.GlobalTabLimit(tt.ctx, 0)
			if got.Value != tt.want || got.RuleID != tt.match {
				t.Errorf("GlobalTabLimit() = %d/%q, want %d/%q", got.Value, got.RuleID, tt.want, tt.match)
			}
		})
	}
}

func TestSetRulesReplacesWholesale(t *testing.T) {
	r := newTestResolver(
		rule("a", 0, domain.ConditionCategoryMatch, domain.OperatorEquals, "work", domain.ActionLimitCount, 1),
	)
	r.SetRules([]domain.Rule{
		rule("b", 0, domain.ConditionCategoryMatch, domain.OperatorEquals, "news", domain.ActionLimitCount, 2),
	})

	if got := r.Resolve(domain.RuleContext{Category: domain.CategoryWork}, domain.Decision{}); got.Matched {
		t.Errorf("old rule still active: %+v", got)
	}
	if rules := r.Rules(); len(rules) != 1 || rules[0].ID != "b" {
		t.Errorf("Rules() = %+v, want [b]", rules)
	}
}
