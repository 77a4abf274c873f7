package depscan

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// pythonEcosystem parses requirements.txt and pyproject.toml. For pyproject,
// both PEP 621 [project] dependencies and [tool.poetry.dependencies] are
// read; build-system and optional extras are ignored.
type pythonEcosystem struct{}

func (pythonEcosystem) Name() string { return "pypi" }

func (pythonEcosystem) Manifests() []string {
	return []string{"requirements.txt", "pyproject.toml"}
}

var requirementPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*([=<>~!]{1,2}=?\s*[^;#\s]+)?`)

func (pythonEcosystem) Parse(content []byte) (map[string]string, error) {
	if bytes.Contains(content, []byte("[project]")) || bytes.Contains(content, []byte("[tool.poetry")) {
		return parsePyproject(content)
	}
	return parseRequirements(content)
}

func parseRequirements(content []byte) (map[string]string, error) {
	deps := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}

		m := requirementPattern.FindStringSubmatch(line)
		if m == nil || m[1] == "" {
			continue
		}
		name := strings.ToLower(m[1])
		spec := strings.TrimSpace(m[2])
		if spec == "" {
			spec = "*"
		}
		deps[name] = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(spec, "=="), "="))
	}

	return deps, scanner.Err()
}

func parsePyproject(content []byte) (map[string]string, error) {
	var doc struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]interface{} `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}

	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse pyproject.toml: %w", err)
	}

	deps := make(map[string]string)

	for _, req := range doc.Project.Dependencies {
		m := requirementPattern.FindStringSubmatch(strings.TrimSpace(req))
		if m == nil || m[1] == "" {
			continue
		}
		spec := strings.TrimSpace(m[2])
		if spec == "" {
			spec = "*"
		}
		deps[strings.ToLower(m[1])] = strings.TrimPrefix(spec, "==")
	}

	for name, v := range doc.Tool.Poetry.Dependencies {
		lower := strings.ToLower(name)
		if lower == "python" {
			continue
		}
		switch spec := v.(type) {
		case string:
			deps[lower] = spec
		case map[string]interface{}:
			if ver, ok := spec["version"].(string); ok {
				deps[lower] = ver
			}
		}
	}

	return deps, nil
}
