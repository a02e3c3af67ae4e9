package rules

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
	"github.com/MrSnakeDoc/tabwarden/internal/logger"
)

type compiledRule struct {
	rule  domain.Rule
	match matcher
}

// ruleSet is an immutable compiled snapshot.
// ordered holds enabled rules sorted by ascending priority (stable).
type ruleSet struct {
	rules   []domain.Rule
	ordered []compiledRule
}

// Resolver evaluates a prioritized rule set.
// SetRules swaps the whole set at once; readers never see a partial set.
type Resolver struct {
	current atomic.Pointer[ruleSet]
	logger  logger.Logger
	now     func() time.Time
}

// NewResolver creates a resolver with an empty rule set
func NewResolver(log logger.Logger) *Resolver {
	r := &Resolver{logger: log, now: time.Now}
	r.current.Store(&ruleSet{})
	return r
}

// SetRules compiles and installs a new rule set.
// Rules whose condition cannot be compiled are kept but never match.
func (r *Resolver) SetRules(rules []domain.Rule) {
	set := &ruleSet{rules: append([]domain.Rule(nil), rules...)}

	for _, rule := range set.rules {
		if !rule.Enabled {
			continue
		}
		m, err := compileCondition(rule.Condition)
		if err != nil {
			r.logger.Warn("rule condition does not compile, it will never match",
				logger.String("rule_id", rule.ID),
				logger.String("rule_name", rule.Name),
				logger.String("condition", string(rule.Condition.Type)),
				logger.String("operand", rule.Condition.Value),
				logger.Error(err))
		}
		set.ordered = append(set.ordered, compiledRule{rule: rule, match: m})
	}

	sort.SliceStable(set.ordered, func(i, j int) bool {
		return set.ordered[i].rule.Priority < set.ordered[j].rule.Priority
	})

	r.current.Store(set)
	r.logger.Debug("rule set replaced",
		logger.Int("rules", len(set.rules)),
		logger.Int("enabled", len(set.ordered)))
}

// Rules returns the installed rule set in its original order
func (r *Resolver) Rules() []domain.Rule {
	return append([]domain.Rule(nil), r.current.Load().rules...)
}

// Resolve returns the decision of the highest precedence matching rule,
// or def when nothing matches.
func (r *Resolver) Resolve(ctx domain.RuleContext, def domain.Decision) domain.Decision {
	return r.resolve(ctx, "", nil, def)
}

// ResolveAction is Resolve restricted to rules carrying the given action.
func (r *Resolver) ResolveAction(ctx domain.RuleContext, action domain.ActionType, def domain.Decision) domain.Decision {
	return r.resolve(ctx, action, nil, def)
}

// scope narrows resolution to rules whose condition type it accepts; nil accepts all
func (r *Resolver) resolve(ctx domain.RuleContext, action domain.ActionType, scope func(domain.ConditionType) bool, def domain.Decision) domain.Decision {
	for _, cr := range r.current.Load().ordered {
		if action != "" && cr.rule.Action.Type != action {
			continue
		}
		if scope != nil && !scope(cr.rule.Condition.Type) {
			continue
		}
		if !cr.match(ctx) {
			continue
		}
		return domain.Decision{
			Matched:  true,
			RuleID:   cr.rule.ID,
			RuleName: cr.rule.Name,
			Action:   cr.rule.Action.Type,
			Value:    cr.rule.Action.Value,
		}
	}
	def.Matched = false
	return def
}

func targetsCategory(t domain.ConditionType) bool { return t == domain.ConditionCategoryMatch }

func targetsTotal(t domain.ConditionType) bool { return t != domain.ConditionCategoryMatch }

// CategoryContext is the context CategoryTabLimits resolves each category with.
func (r *Resolver) CategoryContext(c domain.Category) domain.RuleContext {
	return domain.RuleContext{Category: c, At: r.now()}
}

// CategoryTabLimits resolves the limit_count of every known category from
// the rules that target a category. Categories no rule targets get defaultLimit.
// Other limit_count rules cap the total instead, see GlobalTabLimit.
func (r *Resolver) CategoryTabLimits(defaultLimit int) map[domain.Category]int {
	limits := make(map[domain.Category]int, len(domain.Categories))
	for _, c := range domain.Categories {
		d := r.resolve(r.CategoryContext(c), domain.ActionLimitCount, targetsCategory, domain.Decision{Value: defaultLimit})
		limits[c] = d.Value
	}
	return limits
}

// GlobalTabLimit resolves the limit_count rules that do not target a category
// (resource count, time, locator) against ctx. The result caps the total
// number of open tabs; def applies when none match.
func (r *Resolver) GlobalTabLimit(ctx domain.RuleContext, def int) domain.Decision {
	return r.resolve(ctx, domain.ActionLimitCount, targetsTotal, domain.Decision{Value: def})
}
