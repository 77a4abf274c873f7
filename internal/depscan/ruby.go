package depscan

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

// rubyEcosystem parses Gemfile gem declarations. Git/path sources, groups,
// and platform conditionals are ignored; only the first version constraint
// per gem is kept.
type rubyEcosystem struct{}

func (rubyEcosystem) Name() string { return "rubygems" }

func (rubyEcosystem) Manifests() []string { return []string{"Gemfile"} }

var gemPattern = regexp.MustCompile(`^\s*gem\s+['"]([\w-]+)['"](?:\s*,\s*['"]([^'"]+)['"])?`)

func (rubyEcosystem) Parse(content []byte) (map[string]string, error) {
	deps := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "git:") || strings.Contains(line, "path:") {
			continue
		}
		m := gemPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		spec := m[2]
		if spec == "" {
			spec = "*"
		}
		deps[m[1]] = spec
	}

	return deps, scanner.Err()
}
