package rules

import (
	"strings"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	cat, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}

	if cat.Count() == 0 {
		t.Fatal("builtin catalog is empty")
	}

	for _, c := range []Category{
		CategoryVulnerability,
		CategoryQuality,
		CategoryEnhancement,
		CategoryInfrastructure,
	} {
		if len(cat.Rules(c)) == 0 {
			t.Errorf("no rules loaded for category %s", c)
		}
	}

	t.Run("all rules have required fields", func(t *testing.T) {
		for _, r := range cat.All() {
			if r.ID == "" || r.Title == "" || r.Pattern == nil {
				t.Errorf("rule %q missing required fields", r.ID)
			}
			if !r.Severity.Valid() {
				t.Errorf("rule %s has invalid severity", r.ID)
			}
			if len(r.Languages) == 0 {
				t.Errorf("rule %s has no languages", r.ID)
			}
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, r := range cat.All() {
			if seen[r.ID] {
				t.Errorf("duplicate rule id %s", r.ID)
			}
			seen[r.ID] = true
		}
	})
}

func TestLoadFromBytes(t *testing.T) {
	t.Run("valid catalog", func(t *testing.T) {
		doc := `
rules:
  - id: T-001
    category: quality
    severity: low
    pattern: 'foo'
    title: Test rule
`
		cat, err := LoadFromBytes([]byte(doc))
		if err != nil {
			t.Fatalf("LoadFromBytes() error = %v", err)
		}
		rs := cat.Rules(CategoryQuality)
		if len(rs) != 1 {
			t.Fatalf("rules = %d, want 1", len(rs))
		}
		if len(rs[0].Languages) != 1 || rs[0].Languages[0] != "*" {
			t.Errorf("empty languages should default to wildcard, got %v", rs[0].Languages)
		}
	})

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "invalid regex",
			doc: `
rules:
  - id: T-001
    category: quality
    severity: low
    pattern: '(unclosed'
    title: Bad
`,
			wantErr: "invalid pattern",
		},
		{
			name: "unknown validator",
			doc: `
rules:
  - id: T-001
    category: quality
    severity: low
    pattern: 'x'
    title: Bad
    validator: does_not_exist
`,
			wantErr: "unknown validator",
		},
		{
			name: "invalid severity",
			doc: `
rules:
  - id: T-001
    category: quality
    severity: catastrophic
    pattern: 'x'
    title: Bad
`,
			wantErr: "invalid severity",
		},
		{
			name: "invalid category",
			doc: `
rules:
  - id: T-001
    category: nonsense
    severity: low
    pattern: 'x'
    title: Bad
`,
			wantErr: "invalid category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSeverityWeight(t *testing.T) {
	order := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Weight() <= order[i-1].Weight() {
			t.Errorf("%s weight should exceed %s", order[i], order[i-1])
		}
	}
}
