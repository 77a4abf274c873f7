// Package compliance holds the whole-tree detectors that run once per scan:
// sensitive files committed to the tree, license classification, and
// infrastructure configuration checks.
package compliance

import (
	"path"
	"sort"
	"strings"

	"govscan/internal/rules"
)

// SensitiveFinding reports a file that should not be committed at all.
type SensitiveFinding struct {
	Path        string         `json:"path"`
	Severity    rules.Severity `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
}

type sensitivePattern struct {
	// exact base name, or an extension when it starts with a dot,
	// or a base-name prefix when it ends with *.
	match       string
	severity    rules.Severity
	title       string
	description string
}

var sensitivePatterns = []sensitivePattern{
	{".env", rules.SeverityCritical, "Environment file committed", "Dotenv files typically carry credentials and connection strings."},
	{".env.*", rules.SeverityCritical, "Environment file committed", "Dotenv files typically carry credentials and connection strings."},
	{"id_rsa", rules.SeverityCritical, "Private SSH key committed", "SSH private keys grant direct access to infrastructure."},
	{"id_ed25519", rules.SeverityCritical, "Private SSH key committed", "SSH private keys grant direct access to infrastructure."},
	{".pem", rules.SeverityCritical, "Private key material committed", "PEM files often hold private keys or certificates with keys."},
	{".key", rules.SeverityCritical, "Private key material committed", "Key files should live in a secret store, not the repository."},
	{".p12", rules.SeverityHigh, "Keystore committed", "PKCS#12 bundles carry private keys protected only by a passphrase."},
	{".pfx", rules.SeverityHigh, "Keystore committed", "PKCS#12 bundles carry private keys protected only by a passphrase."},
	{".jks", rules.SeverityHigh, "Java keystore committed", "Keystores belong in deployment secrets, not version control."},
	{"credentials.json", rules.SeverityCritical, "Credentials file committed", "Service-account credential files grant API access."},
	{"service-account.json", rules.SeverityCritical, "Credentials file committed", "Service-account credential files grant API access."},
	{".npmrc", rules.SeverityHigh, "Registry config committed", "npmrc files frequently embed auth tokens."},
	{".pypirc", rules.SeverityHigh, "Registry config committed", "pypirc files frequently embed upload credentials."},
	{".netrc", rules.SeverityHigh, "netrc committed", "netrc files store plaintext machine credentials."},
	{".htpasswd", rules.SeverityHigh, "htpasswd committed", "Password hashes should not be in the repository."},
	{"secrets.yml", rules.SeverityHigh, "Secrets file committed", "Named secrets files usually contain live credentials."},
	{"secrets.yaml", rules.SeverityHigh, "Secrets file committed", "Named secrets files usually contain live credentials."},
	{".sqlite", rules.SeverityMedium, "Database file committed", "Database files may contain production data."},
	{".db", rules.SeverityMedium, "Database file committed", "Database files may contain production data."},
	{"terraform.tfstate", rules.SeverityCritical, "Terraform state committed", "State files record every secret Terraform has seen."},
	{".tfvars", rules.SeverityHigh, "Terraform variables committed", "tfvars files commonly carry credentials and tokens."},
}

// allowedEnvNames are dotenv-style names that conventionally hold no secrets.
var allowedEnvNames = map[string]bool{
	".env.example":  true,
	".env.sample":   true,
	".env.template": true,
	".env.dist":     true,
}

// DetectSensitive flags files whose name alone marks them as material that
// should never be committed. Matching is by exact base name, extension, or
// base-name prefix; results are ordered by path.
func DetectSensitive(paths []string) []SensitiveFinding {
	var out []SensitiveFinding
	for _, p := range paths {
		base := path.Base(p)
		if allowedEnvNames[strings.ToLower(base)] {
			continue
		}
		if sp, ok := matchSensitive(base); ok {
			out = append(out, SensitiveFinding{
				Path:        p,
				Severity:    sp.severity,
				Title:       sp.title,
				Description: sp.description,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func matchSensitive(base string) (sensitivePattern, bool) {
	lower := strings.ToLower(base)
	for _, sp := range sensitivePatterns {
		switch {
		case strings.HasSuffix(sp.match, "*"):
			if strings.HasPrefix(lower, strings.TrimSuffix(sp.match, "*")) {
				return sp, true
			}
		case strings.HasPrefix(sp.match, "."):
			if lower == sp.match || strings.HasSuffix(lower, sp.match) {
				return sp, true
			}
		default:
			if lower == sp.match {
				return sp, true
			}
		}
	}
	return sensitivePattern{}, false
}
