package depscan

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed advisories/*.yaml
var advisoryFS embed.FS

// Advisory is a static record describing one known-vulnerable version range
// of a named dependency. Advisories are loaded once and never mutated.
type Advisory struct {
	ID              string `yaml:"id" json:"id"`
	Package         string `yaml:"package" json:"package"`
	Severity        string `yaml:"severity" json:"severity"`
	Title           string `yaml:"title" json:"title"`
	Description     string `yaml:"description" json:"description,omitempty"`
	VulnerableRange string `yaml:"vulnerableRange" json:"vulnerableRange"`
	PatchedVersion  string `yaml:"patchedVersion" json:"patchedVersion,omitempty"`
	CVE             string `yaml:"cve" json:"cve,omitempty"`
	GHSA            string `yaml:"ghsa" json:"ghsa,omitempty"`
}

type advisoryFile struct {
	Ecosystem  string     `yaml:"ecosystem"`
	Advisories []Advisory `yaml:"advisories"`
}

// AdvisoryTable holds advisories per ecosystem, keyed by package name.
type AdvisoryTable struct {
	byEcosystem map[string]map[string][]Advisory
}

// LoadAdvisories loads the embedded per-ecosystem advisory tables.
func LoadAdvisories() (*AdvisoryTable, error) {
	entries, err := advisoryFS.ReadDir("advisories")
	if err != nil {
		return nil, fmt.Errorf("read advisories: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	table := &AdvisoryTable{byEcosystem: make(map[string]map[string][]Advisory)}
	for _, name := range names {
		data, err := advisoryFS.ReadFile("advisories/" + name)
		if err != nil {
			return nil, fmt.Errorf("read advisory file %s: %w", name, err)
		}

		var file advisoryFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse advisory file %s: %w", name, err)
		}
		if file.Ecosystem == "" {
			return nil, fmt.Errorf("advisory file %s: missing ecosystem", name)
		}

		eco := table.byEcosystem[file.Ecosystem]
		if eco == nil {
			eco = make(map[string][]Advisory)
			table.byEcosystem[file.Ecosystem] = eco
		}
		for _, adv := range file.Advisories {
			if adv.ID == "" || adv.Package == "" || adv.VulnerableRange == "" {
				return nil, fmt.Errorf("advisory file %s: incomplete advisory %q", name, adv.ID)
			}
			eco[adv.Package] = append(eco[adv.Package], adv)
		}
	}

	return table, nil
}

// Lookup returns the advisories for a package within an ecosystem.
func (t *AdvisoryTable) Lookup(ecosystem, pkg string) []Advisory {
	eco := t.byEcosystem[ecosystem]
	if eco == nil {
		return nil
	}
	return eco[pkg]
}

// Count returns the total number of loaded advisories.
func (t *AdvisoryTable) Count() int {
	n := 0
	for _, eco := range t.byEcosystem {
		for _, advs := range eco {
			n += len(advs)
		}
	}
	return n
}
