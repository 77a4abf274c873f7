package depscan

import (
	"fmt"

	gotoml "github.com/pelletier/go-toml/v2"
)

// cargoEcosystem parses Cargo.toml [dependencies] and [dev-dependencies].
// Workspace members, features, and build-dependencies are ignored.
type cargoEcosystem struct{}

func (cargoEcosystem) Name() string { return "cargo" }

func (cargoEcosystem) Manifests() []string { return []string{"Cargo.toml"} }

func (cargoEcosystem) Parse(content []byte) (map[string]string, error) {
	var doc struct {
		Dependencies    map[string]interface{} `toml:"dependencies"`
		DevDependencies map[string]interface{} `toml:"dev-dependencies"`
	}
	if err := gotoml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse Cargo.toml: %w", err)
	}

	deps := make(map[string]string)
	addCargoDeps(deps, doc.Dependencies)
	addCargoDeps(deps, doc.DevDependencies)
	return deps, nil
}

func addCargoDeps(deps map[string]string, table map[string]interface{}) {
	for name, v := range table {
		if _, ok := deps[name]; ok {
			continue
		}
		switch spec := v.(type) {
		case string:
			deps[name] = spec
		case map[string]interface{}:
			if ver, ok := spec["version"].(string); ok {
				deps[name] = ver
			}
		}
	}
}
