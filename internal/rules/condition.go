package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

// matcher reports whether a condition holds for a context.
type matcher func(ctx domain.RuleContext) bool

func never(domain.RuleContext) bool { return false }

// compileCondition turns a condition into a matcher.
// Errors are returned for logging only: callers fall back to never.
func compileCondition(c domain.Condition) (matcher, error) {
	switch c.Type {
	case domain.ConditionLocatorMatch:
		return compileLocator(c)
	case domain.ConditionCategoryMatch:
		return compileCategory(c)
	case domain.ConditionResourceCount:
		return compileNumeric(c, parseCount, func(ctx domain.RuleContext) int { return ctx.TabCount })
	case domain.ConditionTime:
		return compileNumeric(c, parseClock, func(ctx domain.RuleContext) int { return ctx.MinutesSinceMidnight() })
	default:
		return never, fmt.Errorf("unknown condition type %q", c.Type)
	}
}

// compileWildcard compiles a pattern where '*' is the only wildcard.
// Everything else, glob syntax included, matches literally. No separators:
// '*' spans dots and slashes alike.
func compileWildcard(pattern string) (glob.Glob, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = glob.QuoteMeta(p)
	}
	return glob.Compile(strings.Join(parts, "*"))
}

func compileLocator(c domain.Condition) (matcher, error) {
	pattern := strings.ToLower(strings.TrimSpace(c.Value))
	if pattern == "" {
		return never, fmt.Errorf("empty locator pattern")
	}
	// Patterns with a path are tested against the whole locator too
	withPath := strings.Contains(pattern, "/")

	switch c.Operator {
	case domain.OperatorEquals:
		return func(ctx domain.RuleContext) bool {
			if domain.Hostname(ctx.Locator) == pattern {
				return true
			}
			return withPath && strings.ToLower(ctx.Locator) == pattern
		}, nil

	case domain.OperatorContains:
		g, err := compileWildcard(pattern)
		if err != nil {
			return never, fmt.Errorf("invalid wildcard %q: %w", c.Value, err)
		}
		return func(ctx domain.RuleContext) bool {
			if ctx.Locator == "" {
				return false
			}
			if g.Match(domain.Hostname(ctx.Locator)) {
				return true
			}
			return withPath && g.Match(strings.ToLower(ctx.Locator))
		}, nil

	default:
		return never, fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
	}
}

func compileCategory(c domain.Condition) (matcher, error) {
	switch c.Operator {
	case domain.OperatorEquals:
		want, ok := domain.ParseCategory(c.Value)
		if !ok {
			return never, fmt.Errorf("unknown category %q", c.Value)
		}
		return func(ctx domain.RuleContext) bool { return ctx.Category == want }, nil

	case domain.OperatorContains:
		set := make(map[domain.Category]struct{})
		var unknown []string
		for _, raw := range strings.Split(c.Value, ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			cat, ok := domain.ParseCategory(raw)
			if !ok {
				unknown = append(unknown, strings.TrimSpace(raw))
				continue
			}
			set[cat] = struct{}{}
		}
		m := func(ctx domain.RuleContext) bool {
			_, ok := set[ctx.Category]
			return ok
		}
		if len(unknown) > 0 {
			// Known entries still match
			return m, fmt.Errorf("unknown categories %v ignored", unknown)
		}
		if len(set) == 0 {
			return never, fmt.Errorf("empty category list")
		}
		return m, nil

	default:
		return never, fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
	}
}

func compileNumeric(c domain.Condition, parse func(string) (int, error), value func(domain.RuleContext) int) (matcher, error) {
	operand := strings.TrimSpace(c.Value)

	switch c.Operator {
	case domain.OperatorEquals, domain.OperatorGreaterThan, domain.OperatorLessThan:
		n, err := parse(operand)
		if err != nil {
			return never, err
		}
		switch c.Operator {
		case domain.OperatorEquals:
			return func(ctx domain.RuleContext) bool { return value(ctx) == n }, nil
		case domain.OperatorGreaterThan:
			return func(ctx domain.RuleContext) bool { return value(ctx) > n }, nil
		default:
			return func(ctx domain.RuleContext) bool { return value(ctx) < n }, nil
		}

	case domain.OperatorInRange:
		lo, hi, err := parseRange(operand, parse)
		if err != nil {
			return never, err
		}
		if lo <= hi {
			return func(ctx domain.RuleContext) bool {
				v := value(ctx)
				return v >= lo && v <= hi
			}, nil
		}
		// Inverted bounds wrap, e.g. 22:00-06:00
		return func(ctx domain.RuleContext) bool {
			v := value(ctx)
			return v >= lo || v <= hi
		}, nil

	default:
		return never, fmt.Errorf("operator %q not supported for %s", c.Operator, c.Type)
	}
}

func parseRange(s string, parse func(string) (int, error)) (int, int, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid range %q, want a-b", s)
	}
	a, err := parse(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, err
	}
	b, err := parse(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n, nil
}

// parseClock accepts minutes since midnight ("540") or a wall clock ("09:00").
func parseClock(s string) (int, error) {
	if h, m, ok := strings.Cut(s, ":"); ok {
		hh, err1 := strconv.Atoi(h)
		mm, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		return hh*60 + mm, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= 24*60 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return n, nil
}
