// Package depscan resolves dependency manifests against built-in advisory
// tables across package-manager ecosystems.
package depscan

// Ecosystem parses one package-manager family's manifests into a
// name-to-version-spec map.
type Ecosystem interface {
	// Name identifies the ecosystem (npm, pypi, go, cargo, rubygems,
	// packagist, maven, nuget).
	Name() string
	// Manifests returns the manifest filenames this adapter understands, in
	// preference order. The first successfully scanned manifest wins for a
	// given directory.
	Manifests() []string
	// Parse extracts direct dependencies from manifest content.
	Parse(content []byte) (map[string]string, error)
}

// Ecosystems returns all built-in adapters.
func Ecosystems() []Ecosystem {
	return []Ecosystem{
		npmEcosystem{},
		pythonEcosystem{},
		goEcosystem{},
		cargoEcosystem{},
		rubyEcosystem{},
		phpEcosystem{},
		mavenEcosystem{},
		dotnetEcosystem{},
	}
}
