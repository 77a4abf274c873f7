package rules

import (
	"embed"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// ruleSpec is the on-disk YAML form of one rule.
type ruleSpec struct {
	ID          string   `yaml:"id"`
	Category    string   `yaml:"category"`
	Severity    string   `yaml:"severity"`
	Languages   []string `yaml:"languages"`
	Pattern     string   `yaml:"pattern"`
	Negative    bool     `yaml:"negative"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Remediation string   `yaml:"remediation"`
	Validator   string   `yaml:"validator"`
}

type catalogSpec struct {
	Rules []ruleSpec `yaml:"rules"`
}

// Catalog holds the loaded, immutable rule sets keyed by category.
type Catalog struct {
	byCategory map[Category][]Rule
}

// LoadBuiltin loads and compiles the embedded rule catalogs.
func LoadBuiltin() (*Catalog, error) {
	entries, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil, fmt.Errorf("read catalogs: %w", err)
	}

	// Deterministic load order regardless of embed enumeration.
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	cat := &Catalog{byCategory: make(map[Category][]Rule)}
	seen := make(map[string]bool)

	for _, name := range names {
		data, err := catalogFS.ReadFile("catalogs/" + name)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", name, err)
		}
		if err := cat.load(name, data, seen); err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// LoadFromBytes parses a single YAML catalog document. Used for tests and
// custom rule files.
func LoadFromBytes(data []byte) (*Catalog, error) {
	cat := &Catalog{byCategory: make(map[Category][]Rule)}
	if err := cat.load("inline", data, make(map[string]bool)); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) load(source string, data []byte, seen map[string]bool) error {
	var spec catalogSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("parse catalog %s: %w", source, err)
	}

	for _, rs := range spec.Rules {
		rule, err := compileRule(rs)
		if err != nil {
			return fmt.Errorf("catalog %s: %w", source, err)
		}
		if seen[rule.ID] {
			return fmt.Errorf("catalog %s: duplicate rule id %s", source, rule.ID)
		}
		seen[rule.ID] = true
		c.byCategory[rule.Category] = append(c.byCategory[rule.Category], rule)
	}

	return nil
}

func compileRule(rs ruleSpec) (Rule, error) {
	if rs.ID == "" {
		return Rule{}, fmt.Errorf("rule with empty id")
	}
	sev := Severity(rs.Severity)
	if !sev.Valid() {
		return Rule{}, fmt.Errorf("rule %s: invalid severity %q", rs.ID, rs.Severity)
	}

	cat := Category(rs.Category)
	switch cat {
	case CategoryVulnerability, CategoryQuality, CategoryEnhancement, CategoryInfrastructure:
	default:
		return Rule{}, fmt.Errorf("rule %s: invalid category %q", rs.ID, rs.Category)
	}

	if rs.Pattern == "" {
		return Rule{}, fmt.Errorf("rule %s: empty pattern", rs.ID)
	}
	re, err := regexp.Compile(rs.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: invalid pattern: %w", rs.ID, err)
	}

	langs := rs.Languages
	if len(langs) == 0 {
		langs = []string{"*"}
	}

	rule := Rule{
		ID:          rs.ID,
		Category:    cat,
		Severity:    sev,
		Languages:   langs,
		Pattern:     re,
		Negative:    rs.Negative,
		Title:       rs.Title,
		Description: rs.Description,
		Remediation: rs.Remediation,
	}

	if rs.Validator != "" {
		fn, ok := validators[rs.Validator]
		if !ok {
			return Rule{}, fmt.Errorf("rule %s: unknown validator %q", rs.ID, rs.Validator)
		}
		rule.validate = fn
	}

	return rule, nil
}

// Rules returns the rules for a category. The returned slice must not be mutated.
func (c *Catalog) Rules(cat Category) []Rule {
	return c.byCategory[cat]
}

// All returns every loaded rule across categories, ordered by category then
// catalog order.
func (c *Catalog) All() []Rule {
	cats := []Category{CategoryVulnerability, CategoryQuality, CategoryEnhancement, CategoryInfrastructure}
	var all []Rule
	for _, cat := range cats {
		all = append(all, c.byCategory[cat]...)
	}
	return all
}

// Count returns the total number of loaded rules.
func (c *Catalog) Count() int {
	n := 0
	for _, rs := range c.byCategory {
		n += len(rs)
	}
	return n
}
