package depscan

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// mavenEcosystem parses pom.xml <dependencies>. Property-interpolated
// versions (${...}) and unversioned managed dependencies are carried as-is
// and will not resolve to a numeric triple. Plugins and profiles are ignored.
type mavenEcosystem struct{}

func (mavenEcosystem) Name() string { return "maven" }

func (mavenEcosystem) Manifests() []string { return []string{"pom.xml"} }

func (mavenEcosystem) Parse(content []byte) (map[string]string, error) {
	var pom struct {
		Dependencies struct {
			Dependency []struct {
				GroupID    string `xml:"groupId"`
				ArtifactID string `xml:"artifactId"`
				Version    string `xml:"version"`
			} `xml:"dependency"`
		} `xml:"dependencies"`
	}
	if err := xml.Unmarshal(content, &pom); err != nil {
		return nil, fmt.Errorf("parse pom.xml: %w", err)
	}

	deps := make(map[string]string)
	for _, d := range pom.Dependencies.Dependency {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		name := d.GroupID + ":" + d.ArtifactID
		version := strings.TrimSpace(d.Version)
		if version == "" {
			version = "*"
		}
		deps[name] = version
	}

	return deps, nil
}
