package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/tabwarden/internal/domain"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "rules.yaml")

	yamlContent := `---
rules:
  - name: social cap
    priority: 0
    condition:
      type: category_match
      operator: contains
      value: social,entertainment
    action:
      type: limit_count
      value: 3
  - id: fixed-id
    name: night mode
    priority: 5
    enabled: false
    condition: {type: time, operator: in_range, value: "22:00-06:00"}
    action: {type: close_after, value: 10}
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	rules, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("Load() returned %d rules, want 2", len(rules))
	}

	if rules[0].ID == "" {
		t.Error("missing id should be generated")
	}
	if !rules[0].Enabled {
		t.Error("enabled should default to true")
	}
	if rules[0].Action.Type != domain.ActionLimitCount || rules[0].Action.Value != 3 {
		t.Errorf("action = %+v, want limit_count/3", rules[0].Action)
	}
	if rules[1].ID != "fixed-id" || rules[1].Enabled {
		t.Errorf("second rule = %+v, want fixed-id disabled", rules[1])
	}

	again, err := NewLoader(yamlPath).Load()
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again[0].ID != rules[0].ID {
		t.Errorf("generated ids should be stable: %s != %s", again[0].ID, rules[0].ID)
	}
}

func TestLoaderLoadExpandsEnv(t *testing.T) {
	t.Setenv("TABWARDEN_TEST_LIMIT", "7")

	rules, err := Parse([]byte(`
rules:
  - name: env
    condition: {type: resource_count, operator: greater_than, value: "10"}
    action: {type: limit_count, value: ${TABWARDEN_TEST_LIMIT}}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rules[0].Action.Value != 7 {
		t.Errorf("Action.Value = %d, want 7", rules[0].Action.Value)
	}
}

func TestLoaderLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "broken yaml",
			content: "rules: [\n",
		},
		{
			name: "unknown action",
			content: `
rules:
  - name: bad
    condition: {type: category_match, operator: equals, value: news}
    action: {type: explode, value: 1}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/rules.yaml")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestAssignIDs(t *testing.T) {
	in := []domain.Rule{{Name: "a"}, {ID: "keep", Name: "b"}, {Name: "a"}}
	out := AssignIDs(in)

	if out[1].ID != "keep" {
		t.Errorf("existing id overwritten: %q", out[1].ID)
	}
	if out[0].ID == "" || out[0].ID == out[2].ID {
		t.Errorf("ids should be unique per position: %q, %q", out[0].ID, out[2].ID)
	}
	if in[0].ID != "" {
		t.Error("AssignIDs() mutated its input")
	}
}
