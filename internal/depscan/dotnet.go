package depscan

import (
	"encoding/xml"
	"fmt"
)

// dotnetEcosystem parses SDK-style .csproj PackageReference items. Legacy
// packages.config and central package management files are not read.
type dotnetEcosystem struct{}

func (dotnetEcosystem) Name() string { return "nuget" }

func (dotnetEcosystem) Manifests() []string {
	// Project files carry arbitrary names; the resolver also matches on the
	// .csproj extension.
	return []string{".csproj"}
}

func (dotnetEcosystem) Parse(content []byte) (map[string]string, error) {
	var proj struct {
		ItemGroups []struct {
			PackageReferences []struct {
				Include string `xml:"Include,attr"`
				Version string `xml:"Version,attr"`
			} `xml:"PackageReference"`
		} `xml:"ItemGroup"`
	}
	if err := xml.Unmarshal(content, &proj); err != nil {
		return nil, fmt.Errorf("parse csproj: %w", err)
	}

	deps := make(map[string]string)
	for _, group := range proj.ItemGroups {
		for _, ref := range group.PackageReferences {
			if ref.Include == "" {
				continue
			}
			version := ref.Version
			if version == "" {
				version = "*"
			}
			deps[ref.Include] = version
		}
	}

	return deps, nil
}
