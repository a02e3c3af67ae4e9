package rules

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

// ruleIDNamespace seeds derived rule ids so they stay stable across reloads
var ruleIDNamespace = uuid.MustParse("6f1c7a52-3a0e-4d4b-9a55-3f0c2a8e9d17")

// File is the on-disk layout of a rules file:
//
//	rules:
//	  - name: social cap
//	    priority: 0
//	    condition: {type: category_match, operator: contains, value: "social,entertainment"}
//	    action: {type: limit_count, value: 3}
type File struct {
	Rules []fileRule `yaml:"rules"`
}

// fileRule defaults Enabled to true when the key is omitted
type fileRule struct {
	ID        string           `yaml:"id"`
	Name      string           `yaml:"name"`
	Condition domain.Condition `yaml:"condition"`
	Action    domain.Action    `yaml:"action"`
	Priority  int              `yaml:"priority"`
	Enabled   *bool            `yaml:"enabled"`
}

// Loader reads rule sets from a YAML file
type Loader struct {
	filePath string
}

// NewLoader creates a new rules file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads, parses and validates the rules file.
// ${VAR} references are expanded from the environment before parsing.
func (l *Loader) Load() ([]domain.Rule, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a rules document
func Parse(data []byte) ([]domain.Rule, error) {
	expanded := os.ExpandEnv(string(data))

	var file File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}

	rules := make([]domain.Rule, 0, len(file.Rules))
	for _, fr := range file.Rules {
		rule := domain.Rule{
			ID:        fr.ID,
			Name:      fr.Name,
			Condition: fr.Condition,
			Action:    fr.Action,
			Priority:  fr.Priority,
			Enabled:   fr.Enabled == nil || *fr.Enabled,
		}
		rules = append(rules, rule)
	}

	rules = AssignIDs(rules)
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule #%d (%s): %w", i, rule.Name, err)
		}
	}
	return rules, nil
}

// AssignIDs fills empty rule ids with a name-based UUID.
// The same name at the same position always yields the same id.
func AssignIDs(rules []domain.Rule) []domain.Rule {
	out := make([]domain.Rule, len(rules))
	for i, rule := range rules {
		if rule.ID == "" {
			rule.ID = uuid.NewSHA1(ruleIDNamespace, []byte(strconv.Itoa(i)+":"+rule.Name)).String()
		}
		out[i] = rule
	}
	return out
}
