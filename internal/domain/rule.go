package domain

import (
	"fmt"
	"time"
)

// ConditionType selects which context value a rule condition inspects.
type ConditionType string

const (
	ConditionLocatorMatch  ConditionType = "locator_match"
	ConditionCategoryMatch ConditionType = "category_match"
	ConditionTime          ConditionType = "time"
	ConditionResourceCount ConditionType = "resource_count"
)

// Operator compares a context value against a condition operand.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorInRange     Operator = "in_range"
)

// ActionType is what a matching rule asks for.
type ActionType string

const (
	// ActionLimitCount caps the number of open tabs (per category when the
	// condition targets a category, globally otherwise).
	ActionLimitCount ActionType = "limit_count"
	// ActionCloseAfter overrides the inactivity threshold, in minutes.
	ActionCloseAfter ActionType = "close_after"
	// ActionBlockNew refuses admission of new tabs.
	ActionBlockNew ActionType = "block_new"
)

// Condition is the matching half of a rule.
type Condition struct {
	Type     ConditionType `json:"type" yaml:"type"`
	Operator Operator      `json:"operator" yaml:"operator"`
	Value    string        `json:"value" yaml:"value"`
}

// Action is the effect half of a rule.
type Action struct {
	Type  ActionType `json:"type" yaml:"type"`
	Value int        `json:"value" yaml:"value"`
}

// Rule is an immutable condition -> action pair.
// Lower Priority wins; rule sets are replaced wholesale, never edited in place.
type Rule struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Condition Condition `json:"condition" yaml:"condition"`
	Action    Action    `json:"action" yaml:"action"`
	Priority  int       `json:"priority" yaml:"priority"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
}

// Validate checks the closed enumerations. It does not compile operands:
// a bad pattern is accepted and simply never matches.
func (r Rule) Validate() error {
	switch r.Condition.Type {
	case ConditionLocatorMatch, ConditionCategoryMatch, ConditionTime, ConditionResourceCount:
	default:
		return fmt.Errorf("%w: unknown condition type %q", ErrInvalidRule, r.Condition.Type)
	}
	switch r.Condition.Operator {
	case OperatorEquals, OperatorContains, OperatorGreaterThan, OperatorLessThan, OperatorInRange:
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, r.Condition.Operator)
	}
	switch r.Action.Type {
	case ActionLimitCount, ActionCloseAfter, ActionBlockNew:
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidRule, r.Action.Type)
	}
	if r.Action.Value < 0 {
		return fmt.Errorf("%w: negative action value %d", ErrInvalidRule, r.Action.Value)
	}
	return nil
}

// RuleContext carries the values a rule set is evaluated against.
type RuleContext struct {
	Locator  string
	Category Category
	TabCount int
	At       time.Time
}

// MinutesSinceMidnight returns the local time-of-day of the context.
func (c RuleContext) MinutesSinceMidnight() int {
	return c.At.Hour()*60 + c.At.Minute()
}

// Decision is the outcome of resolving a rule set.
// Matched is false when the caller-supplied default was used.
type Decision struct {
	Matched  bool       `json:"matched"`
	RuleID   string     `json:"rule_id,omitempty"`
	RuleName string     `json:"rule_name,omitempty"`
	Action   ActionType `json:"action,omitempty"`
	Value    int        `json:"value"`
}
