package compliance

import (
	"path"
	"strings"

	"govscan/internal/rules"
)

// InfraClass is the rule-catalog language an infrastructure file maps to.
type InfraClass string

const (
	ClassDockerfile InfraClass = "dockerfile"
	ClassKubernetes InfraClass = "kubernetes"
	ClassYAML       InfraClass = "yaml"
	ClassTerraform  InfraClass = "terraform"
)

// ClassifyInfraFile decides whether a path is an infrastructure file and
// which rule class applies. Kubernetes manifests are told apart from other
// YAML by their apiVersion/kind preamble, so content is needed too.
func ClassifyInfraFile(p string, content []byte) (InfraClass, bool) {
	base := strings.ToLower(path.Base(p))

	switch {
	case base == "dockerfile" || strings.HasPrefix(base, "dockerfile.") || strings.HasSuffix(base, ".dockerfile"):
		return ClassDockerfile, true
	case strings.HasSuffix(base, ".tf"):
		return ClassTerraform, true
	case strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml"):
		if isKubernetesManifest(content) {
			return ClassKubernetes, true
		}
		if isComposeFile(base) || isCIConfig(p, base) {
			return ClassYAML, true
		}
		return "", false
	default:
		return "", false
	}
}

func isKubernetesManifest(content []byte) bool {
	text := string(content)
	return strings.Contains(text, "apiVersion:") && strings.Contains(text, "kind:")
}

func isComposeFile(base string) bool {
	return strings.HasPrefix(base, "docker-compose") || base == "compose.yml" || base == "compose.yaml"
}

// looksInfra is a name-only prefilter so Detect does not read every file in
// the tree just to classify it.
func looksInfra(p string) bool {
	base := strings.ToLower(path.Base(p))
	return base == "dockerfile" ||
		strings.HasPrefix(base, "dockerfile.") ||
		strings.HasSuffix(base, ".dockerfile") ||
		strings.HasSuffix(base, ".tf") ||
		strings.HasSuffix(base, ".yml") ||
		strings.HasSuffix(base, ".yaml")
}

func isCIConfig(p, base string) bool {
	if base == ".gitlab-ci.yml" || base == ".travis.yml" {
		return true
	}
	return strings.Contains(p, ".github/workflows/")
}

// InfraDetector runs the infrastructure rule catalog over configuration
// files. Negative rules in the catalog fire when a required safeguard is
// absent from the whole file.
type InfraDetector struct {
	ruleset []rules.Rule
}

// NewInfraDetector builds a detector over the catalog's infrastructure rules.
func NewInfraDetector(catalog *rules.Catalog) *InfraDetector {
	return &InfraDetector{ruleset: catalog.Rules(rules.CategoryInfrastructure)}
}

// Detect evaluates every recognized infrastructure file in the tree and
// returns the findings with file paths attached.
func (d *InfraDetector) Detect(paths []string, read func(string) ([]byte, error)) []rules.Finding {
	var out []rules.Finding
	for _, p := range paths {
		if !looksInfra(p) {
			continue
		}
		content, err := read(p)
		if err != nil {
			continue
		}
		class, ok := ClassifyInfraFile(p, content)
		if !ok {
			continue
		}
		for _, f := range rules.Evaluate(string(content), string(class), d.ruleset) {
			f.File = p
			out = append(out, f)
		}
	}
	return out
}
