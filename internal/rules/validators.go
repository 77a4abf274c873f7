package rules

import (
	"regexp"
	"strings"
)

// validators maps catalog validator names to their implementations. A catalog
// referencing an unknown name fails to load.
var validators = map[string]ValidateFunc{
	"secret_not_placeholder": validateSecretNotPlaceholder,
	"not_test_context":       validateNotTestContext,
	"not_comment_line":       validateNotCommentLine,
	"not_local_url":          validateNotLocalURL,
}

var envLookupPattern = regexp.MustCompile(`(?i)(?:os\.environ|process\.env|getenv|env::var|ENV\[|System\.getenv|os\.Getenv)`)

// validateSecretNotPlaceholder suppresses hardcoded-secret findings when the
// literal looks like a placeholder or the value resolves from the environment.
func validateSecretNotPlaceholder(ctx MatchContext) bool {
	lower := strings.ToLower(ctx.Line)

	placeholders := []string{
		"example", "sample", "placeholder", "dummy", "changeme",
		"your_", "<your", "xxx", "fixme", "todo", "redacted",
	}
	for _, p := range placeholders {
		if strings.Contains(lower, p) {
			return false
		}
	}

	if envLookupPattern.MatchString(ctx.Line) {
		return false
	}

	return true
}

// validateNotTestContext suppresses findings on lines that clearly belong to
// test fixtures or mocks.
func validateNotTestContext(ctx MatchContext) bool {
	lower := strings.ToLower(ctx.Line)
	for _, marker := range []string{"mock", "stub", "fake", "fixture", "testdata"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// validateNotLocalURL suppresses plaintext-HTTP findings for loopback and
// placeholder hosts.
func validateNotLocalURL(ctx MatchContext) bool {
	lower := strings.ToLower(ctx.Match)
	for _, host := range []string{"localhost", "127.0.0.1", "0.0.0.0", "example.com", "example.org"} {
		if strings.Contains(lower, host) {
			return false
		}
	}
	return true
}

// validateNotCommentLine suppresses findings when the match appears on a
// comment-only line.
func validateNotCommentLine(ctx MatchContext) bool {
	trimmed := strings.TrimSpace(ctx.Line)
	for _, prefix := range []string{"//", "#", "--", "/*", "*", "<!--"} {
		if strings.HasPrefix(trimmed, prefix) {
			return false
		}
	}
	return true
}
