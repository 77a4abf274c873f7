package depscan

import (
	"path"
	"sort"
	"strings"

	"govscan/internal/logging"
)

// DependencyFinding reports one installed dependency matching an advisory.
type DependencyFinding struct {
	AdvisoryID       string `json:"advisoryId"`
	Ecosystem        string `json:"ecosystem"`
	Package          string `json:"package"`
	InstalledVersion string `json:"installedVersion"`
	Severity         string `json:"severity"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	VulnerableRange  string `json:"vulnerableRange"`
	PatchedVersion   string `json:"patchedVersion,omitempty"`
	CVE              string `json:"cve,omitempty"`
	GHSA             string `json:"ghsa,omitempty"`
	Manifest         string `json:"manifest"`
}

// ReadFileFunc fetches the content of a repository-relative path.
type ReadFileFunc func(path string) ([]byte, error)

// Resolver matches dependency manifests against the advisory tables.
type Resolver struct {
	ecosystems []Ecosystem
	advisories *AdvisoryTable
	logger     *logging.Logger
}

// NewResolver creates a resolver over the built-in ecosystems and advisories.
func NewResolver(logger *logging.Logger) (*Resolver, error) {
	table, err := LoadAdvisories()
	if err != nil {
		return nil, err
	}
	return &Resolver{
		ecosystems: Ecosystems(),
		advisories: table,
		logger:     logger,
	}, nil
}

// Scan inspects the repository file list for manifests at depth <= 1, parses
// them, and evaluates every dependency against the advisory tables. Scanning
// is first-manifest-wins: once a manifest has been scanned for a directory,
// sibling manifests of the same ecosystem in that directory are skipped so
// that e.g. a lockfile and its manifest are not double-counted. Unparseable
// manifests are skipped, never fatal.
func (r *Resolver) Scan(paths []string, read ReadFileFunc) []DependencyFinding {
	shallow := sortedShallowPaths(paths)

	var findings []DependencyFinding
	for _, eco := range r.ecosystems {
		byDir := make(map[string][]string)
		var dirs []string
		for _, p := range shallow {
			if !matchesManifest(eco, path.Base(p)) {
				continue
			}
			dir := path.Dir(p)
			if _, ok := byDir[dir]; !ok {
				dirs = append(dirs, dir)
			}
			byDir[dir] = append(byDir[dir], p)
		}
		sort.Strings(dirs)

		for _, dir := range dirs {
			candidates := byDir[dir]
			sort.SliceStable(candidates, func(i, j int) bool {
				return manifestRank(eco, path.Base(candidates[i])) < manifestRank(eco, path.Base(candidates[j]))
			})

			for _, p := range candidates {
				content, err := read(p)
				if err != nil {
					r.logger.Debug("Failed to read manifest", map[string]interface{}{
						"path": p, "error": err.Error(),
					})
					continue
				}

				deps, err := eco.Parse(content)
				if err != nil {
					r.logger.Debug("Failed to parse manifest", map[string]interface{}{
						"path": p, "error": err.Error(),
					})
					continue
				}

				findings = append(findings, r.match(eco.Name(), p, deps)...)
				break // first successfully scanned manifest wins for this directory
			}
		}
	}

	return findings
}

// manifestRank orders a directory's candidate manifests by the adapter's
// declared preference.
func manifestRank(eco Ecosystem, base string) int {
	for i, m := range eco.Manifests() {
		if base == m || (strings.HasPrefix(m, ".") && strings.HasSuffix(base, m)) {
			return i
		}
	}
	return len(eco.Manifests())
}

// match evaluates a parsed dependency map against the ecosystem's advisories.
func (r *Resolver) match(ecosystem, manifest string, deps map[string]string) []DependencyFinding {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []DependencyFinding
	for _, name := range names {
		installed := deps[name]
		for _, adv := range r.advisories.Lookup(ecosystem, name) {
			if !IsVulnerable(installed, adv.VulnerableRange) {
				continue
			}
			findings = append(findings, DependencyFinding{
				AdvisoryID:       adv.ID,
				Ecosystem:        ecosystem,
				Package:          name,
				InstalledVersion: installed,
				Severity:         adv.Severity,
				Title:            adv.Title,
				Description:      adv.Description,
				VulnerableRange:  adv.VulnerableRange,
				PatchedVersion:   adv.PatchedVersion,
				CVE:              adv.CVE,
				GHSA:             adv.GHSA,
				Manifest:         manifest,
			})
		}
	}
	return findings
}

// sortedShallowPaths filters to depth <= 1 and sorts for deterministic
// first-manifest-wins behavior.
func sortedShallowPaths(paths []string) []string {
	var shallow []string
	for _, p := range paths {
		clean := strings.TrimPrefix(path.Clean(p), "./")
		if strings.Count(clean, "/") <= 1 {
			shallow = append(shallow, clean)
		}
	}
	sort.Strings(shallow)
	return shallow
}

func matchesManifest(eco Ecosystem, base string) bool {
	for _, m := range eco.Manifests() {
		if strings.HasPrefix(m, ".") && m != base {
			// Extension-only entries (e.g. .csproj) match any filename.
			if strings.HasSuffix(base, m) {
				return true
			}
			continue
		}
		if base == m {
			return true
		}
	}
	return false
}
