package domain

import (
	"fmt"
	"strings"
	"time"
)

// WhitelistType selects how a whitelist entry matches a locator.
type WhitelistType string

const (
	WhitelistExact  WhitelistType = "exact"
	WhitelistDomain WhitelistType = "domain"
	WhitelistRegex  WhitelistType = "regex"
)

// WhitelistEntry exempts matching tabs from eviction.
// Entries are append/remove only: editing Type or Value is remove + add.
type WhitelistEntry struct {
	Type      WhitelistType `json:"type"`
	Value     string        `json:"value"`
	Label     string        `json:"label,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Normalize trims the value and lowercases domain entries.
func (e WhitelistEntry) Normalize() WhitelistEntry {
	e.Value = strings.TrimSpace(e.Value)
	e.Type = WhitelistType(strings.ToLower(strings.TrimSpace(string(e.Type))))
	if e.Type == WhitelistDomain {
		e.Value = strings.ToLower(strings.TrimSuffix(e.Value, "."))
	}
	return e
}

// Validate checks type and value presence. Regex syntax is not checked here.
func (e WhitelistEntry) Validate() error {
	switch e.Type {
	case WhitelistExact, WhitelistDomain, WhitelistRegex:
	default:
		return fmt.Errorf("%w: unknown whitelist type %q", ErrInvalidEntry, e.Type)
	}
	if e.Value == "" {
		return fmt.Errorf("%w: empty whitelist value", ErrInvalidEntry)
	}
	return nil
}

// SameAs reports whether two entries share the (type, value) identity.
func (e WhitelistEntry) SameAs(o WhitelistEntry) bool {
	return e.Type == o.Type && e.Value == o.Value
}
