// Package rules implements the generic pattern-rule matching engine that backs
// the vulnerability, code-quality, enhancement, and infrastructure detectors.
package rules

import "regexp"

// Severity represents the impact tier of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Weight returns a numeric weight for severity comparison (higher = worse).
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the severity is one of the known tiers.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Category identifies which detector a rule belongs to.
type Category string

const (
	CategoryVulnerability  Category = "vulnerability"
	CategoryQuality        Category = "quality"
	CategoryEnhancement    Category = "enhancement"
	CategoryInfrastructure Category = "infrastructure"
)

// Rule is a single immutable pattern rule loaded from a catalog.
type Rule struct {
	ID          string
	Category    Category
	Severity    Severity
	Languages   []string // "*" or language names
	Pattern     *regexp.Regexp
	Negative    bool // fire once per document when the pattern is absent
	Title       string
	Description string
	Remediation string

	validate ValidateFunc // optional refinement, resolved from Validator name at load
}

// AppliesTo reports whether the rule applies to the given language.
func (r *Rule) AppliesTo(language string) bool {
	for _, l := range r.Languages {
		if l == "*" || l == language {
			return true
		}
	}
	return false
}

// Finding is a single rule-engine output describing one detected issue.
type Finding struct {
	RuleID      string   `json:"ruleId"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"` // 1-based; 0 for document-level findings
	Match       string   `json:"match,omitempty"`
}

// MatchContext is passed to rule validators to inspect surrounding lines.
type MatchContext struct {
	Line       string
	LineNumber int // 1-based
	Lines      []string
	Match      string
}

// ValidateFunc refines a raw pattern match; returning false suppresses the finding.
type ValidateFunc func(ctx MatchContext) bool
