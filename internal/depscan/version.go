package depscan

import (
	"strconv"
	"strings"
)

// semver is a parsed numeric major.minor.patch triple.
type semver [3]int

// nonSemanticPrefixes mark installed-version specifiers that cannot be
// resolved to a concrete version. They never match an advisory range.
var nonSemanticPrefixes = []string{"git+", "git:", "file:", "link:", "workspace:", "http:", "https:"}

// parseVersion cleans an installed version specifier down to a bare numeric
// triple. Range operators and a leading v are stripped; non-semantic
// specifiers (git+, file:, workspace:, *, named tags) are rejected.
func parseVersion(spec string) (semver, bool) {
	s := strings.TrimSpace(spec)
	if s == "" || s == "*" || s == "latest" {
		return semver{}, false
	}

	for _, p := range nonSemanticPrefixes {
		if strings.HasPrefix(s, p) {
			return semver{}, false
		}
	}

	// Strip range/pin operators commonly found in manifests.
	for _, op := range []string{">=", "<=", "==", "~>", "^", "~", ">", "<", "="} {
		if strings.HasPrefix(s, op) {
			s = strings.TrimSpace(s[len(op):])
			break
		}
	}
	s = strings.TrimPrefix(s, "v")

	// Drop pre-release/build suffix.
	if i := strings.IndexAny(s, "-+ ,"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return semver{}, false
	}

	var out semver
	for i := 0; i < 3; i++ {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return semver{}, false
		}
		out[i] = n
	}

	return out, true
}

// compare returns -1, 0, or 1 for numeric 3-tuple comparison.
func (v semver) compare(o semver) int {
	for i := 0; i < 3; i++ {
		if v[i] < o[i] {
			return -1
		}
		if v[i] > o[i] {
			return 1
		}
	}
	return 0
}

// IsVulnerable evaluates a version against a vulnerable range expression.
// Supported forms:
//
//	<X, <=X           upper bound only
//	>=L <U, >=L <=U   bounded range
//	A || B            disjunction: vulnerable if any branch matches
//
// Unparsable installed versions never match: the evaluator must not produce
// a false positive on a version it cannot read.
func IsVulnerable(installed, rangeExpr string) bool {
	v, ok := parseVersion(installed)
	if !ok {
		return false
	}

	for _, branch := range strings.Split(rangeExpr, "||") {
		if branchSatisfies(v, strings.TrimSpace(branch)) {
			return true
		}
	}
	return false
}

// branchSatisfies evaluates one conjunctive branch: every comparator in the
// branch must hold. A branch that is a lone inclusive ceiling (<=X) names a
// release line, not everything below it: it carries an implicit floor at
// X's major version, so <=3.1.3 reads as >=3.0.0 <=3.1.3. A lone <X keeps
// its open lower bound.
func branchSatisfies(v semver, branch string) bool {
	if branch == "" {
		return false
	}

	toks := strings.Fields(branch)
	if len(toks) == 1 && strings.HasPrefix(toks[0], "<=") {
		if b, ok := parseVersion(strings.TrimPrefix(toks[0], "<=")); ok && v[0] != b[0] {
			return false
		}
	}

	matched := false
	for _, tok := range toks {
		op, bound, ok := splitComparator(tok)
		if !ok {
			return false
		}
		b, ok := parseVersion(bound)
		if !ok {
			return false
		}

		cmp := v.compare(b)
		var holds bool
		switch op {
		case "<":
			holds = cmp < 0
		case "<=":
			holds = cmp <= 0
		case ">":
			holds = cmp > 0
		case ">=":
			holds = cmp >= 0
		case "=", "==":
			holds = cmp == 0
		default:
			return false
		}

		if !holds {
			return false
		}
		matched = true
	}

	return matched
}

func splitComparator(tok string) (op, bound string, ok bool) {
	for _, o := range []string{">=", "<=", "==", ">", "<", "="} {
		if strings.HasPrefix(tok, o) {
			return o, strings.TrimSpace(tok[len(o):]), true
		}
	}
	return "", "", false
}
