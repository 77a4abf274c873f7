package depscan

import (
	"encoding/json"
	"fmt"
)

// npmEcosystem parses package.json. Only the dependencies and devDependencies
// sections are read; peerDependencies, overrides, and scripts are ignored.
type npmEcosystem struct{}

func (npmEcosystem) Name() string { return "npm" }

func (npmEcosystem) Manifests() []string { return []string{"package.json"} }

func (npmEcosystem) Parse(content []byte) (map[string]string, error) {
	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}

	deps := make(map[string]string, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for name, spec := range manifest.Dependencies {
		deps[name] = spec
	}
	for name, spec := range manifest.DevDependencies {
		if _, ok := deps[name]; !ok {
			deps[name] = spec
		}
	}

	return deps, nil
}
