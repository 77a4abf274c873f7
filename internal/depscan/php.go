package depscan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// phpEcosystem parses composer.json require and require-dev. The php runtime
// constraint and ext-* platform packages are skipped.
type phpEcosystem struct{}

func (phpEcosystem) Name() string { return "packagist" }

func (phpEcosystem) Manifests() []string { return []string{"composer.json"} }

func (phpEcosystem) Parse(content []byte) (map[string]string, error) {
	var manifest struct {
		Require    map[string]string `json:"require"`
		RequireDev map[string]string `json:"require-dev"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("parse composer.json: %w", err)
	}

	deps := make(map[string]string)
	for _, section := range []map[string]string{manifest.Require, manifest.RequireDev} {
		for name, spec := range section {
			if name == "php" || strings.HasPrefix(name, "ext-") {
				continue
			}
			if _, ok := deps[name]; !ok {
				deps[name] = spec
			}
		}
	}

	return deps, nil
}
