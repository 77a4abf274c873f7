package rules

import "strings"

// maxMatchLength bounds the matched substring carried on a finding.
const maxMatchLength = 120

// Evaluate runs the given rules against line-oriented content and returns
// findings in rule order, then line order. The engine is stateless: identical
// input always yields identical output.
func Evaluate(content, language string, ruleset []Rule) []Finding {
	lines := strings.Split(content, "\n")

	var findings []Finding
	for i := range ruleset {
		rule := &ruleset[i]
		if !rule.AppliesTo(language) {
			continue
		}

		if rule.Negative {
			if f, ok := evaluateNegative(content, rule); ok {
				findings = append(findings, f)
			}
			continue
		}

		findings = append(findings, evaluateLines(lines, rule)...)
	}

	return findings
}

// evaluateNegative fires once per document when the pattern is absent anywhere
// in the content. Used for missing-safeguard checks.
func evaluateNegative(content string, rule *Rule) (Finding, bool) {
	if rule.Pattern.MatchString(content) {
		return Finding{}, false
	}
	return Finding{
		RuleID:      rule.ID,
		Category:    rule.Category,
		Severity:    rule.Severity,
		Title:       rule.Title,
		Description: rule.Description,
		Remediation: rule.Remediation,
	}, true
}

func evaluateLines(lines []string, rule *Rule) []Finding {
	var findings []Finding

	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		loc := rule.Pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}

		match := line[loc[0]:loc[1]]
		if len(match) > maxMatchLength {
			match = match[:maxMatchLength]
		}

		if rule.validate != nil {
			ctx := MatchContext{
				Line:       line,
				LineNumber: idx + 1,
				Lines:      lines,
				Match:      match,
			}
			if !rule.validate(ctx) {
				continue
			}
		}

		findings = append(findings, Finding{
			RuleID:      rule.ID,
			Category:    rule.Category,
			Severity:    rule.Severity,
			Title:       rule.Title,
			Description: rule.Description,
			Remediation: rule.Remediation,
			Line:        idx + 1,
			Match:       match,
		})
	}

	return findings
}
