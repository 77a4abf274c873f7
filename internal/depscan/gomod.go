package depscan

import (
	"bufio"
	"bytes"
	"strings"
)

// goEcosystem parses go.mod require blocks. Replace and exclude directives
// are ignored; indirect requirements are included since they are still
// resolved into the build.
type goEcosystem struct{}

func (goEcosystem) Name() string { return "go" }

func (goEcosystem) Manifests() []string { return []string{"go.mod"} }

func (goEcosystem) Parse(content []byte) (map[string]string, error) {
	deps := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	inBlock := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "require ("):
			inBlock = true
			continue
		case inBlock && line == ")":
			inBlock = false
			continue
		}

		var spec string
		if inBlock {
			spec = line
		} else if strings.HasPrefix(line, "require ") {
			spec = strings.TrimSpace(strings.TrimPrefix(line, "require "))
		} else {
			continue
		}

		if i := strings.Index(spec, "//"); i >= 0 {
			spec = strings.TrimSpace(spec[:i])
		}
		fields := strings.Fields(spec)
		if len(fields) != 2 {
			continue
		}
		deps[fields[0]] = fields[1]
	}

	return deps, scanner.Err()
}
