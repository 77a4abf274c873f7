package aidetect

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Fixed component weights for the stylistic score.
var styleWeights = map[string]float64{
	"naming":        0.20,
	"comments":      0.15,
	"typos":         0.10,
	"indentation":   0.10,
	"errorHandling": 0.15,
	"boilerplate":   0.10,
	"docstrings":    0.10,
	"imports":       0.10,
}

var (
	identifierPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]{2,}\b`)
	commentPattern    = regexp.MustCompile(`^\s*(?://|#|\*|--)\s*(.+)$`)
	functionPattern   = regexp.MustCompile(`(?m)^\s*(?:func|def|function|fn)\b|=>\s*\{|(?:public|private|protected)\s+[\w<>\[\]]+\s+\w+\s*\(`)
	handlerPattern    = regexp.MustCompile(`\btry\b|\bcatch\b|\bexcept\b|\brescue\b|if\s+err\s*!=\s*nil`)
	importPattern     = regexp.MustCompile(`^\s*(?:import|from|use|require|#include)\b\s*(.*)$`)
	docstringPattern  = regexp.MustCompile(`^\s*(?:///|/\*\*|"""|''')`)

	boilerplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bget[A-Z]\w*\s*\(\s*\)\s*\{?\s*return\b`),
		regexp.MustCompile(`\bset[A-Z]\w*\s*\([^)]+\)\s*\{?\s*this\.`),
		regexp.MustCompile(`(?i)^\s*(?://|#)\s*(?:initialize|constructor|getter|setter|helper function)\b`),
		regexp.MustCompile(`\bpublic\s+static\s+final\b`),
		regexp.MustCompile(`(?i)handle[A-Z]\w*(?:Change|Click|Submit|Error)\b`),
	}

	typoMarkers = []string{
		"teh ", "recieve", "seperate", "occured", "dont ", "wont ",
		"isnt ", "wtf", "hack:", "oops", "dunno", "kinda ", "gonna ",
		"tmp fix", "quick fix", "xxx:",
	}
)

// AnalyzeStyle computes eight independent 0-1 stylistic signals from raw
// source text and combines them via a fixed weighted sum clamped to 1.0.
// Higher scores indicate more machine-like uniformity.
func AnalyzeStyle(content string) StyleSignal {
	lines := strings.Split(content, "\n")

	components := map[string]float64{
		"naming":        namingSignal(content),
		"comments":      commentSignal(lines),
		"typos":         typoSignal(content),
		"indentation":   indentationSignal(lines),
		"errorHandling": errorHandlingSignal(content),
		"boilerplate":   boilerplateSignal(lines),
		"docstrings":    docstringSignal(lines),
		"imports":       importOrderSignal(lines),
	}

	score := 0.0
	for name, v := range components {
		score += styleWeights[name] * v
	}
	if score > 1 {
		score = 1
	}

	return StyleSignal{Score: score, Components: components}
}

// namingSignal maps average identifier length onto [0,1]; long descriptive
// identifiers are characteristic of generated code.
func namingSignal(content string) float64 {
	idents := identifierPattern.FindAllString(content, -1)
	if len(idents) == 0 {
		return 0
	}

	total := 0
	for _, id := range idents {
		total += len(id)
	}
	avg := float64(total) / float64(len(idents))

	// avg <= 6 chars reads human, >= 16 reads generated
	return clamp01((avg - 6) / 10)
}

// commentSignal measures comment uniformity: capitalized sentence starts and
// low length variance.
func commentSignal(lines []string) float64 {
	var comments []string
	for _, line := range lines {
		if m := commentPattern.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[1])
			if text != "" {
				comments = append(comments, text)
			}
		}
	}
	if len(comments) < 3 {
		return 0.5 // too few comments to judge either way
	}

	capitalized := 0
	var lengths []float64
	for _, c := range comments {
		first := c[0]
		if first >= 'A' && first <= 'Z' {
			capitalized++
		}
		lengths = append(lengths, float64(len(c)))
	}
	capRatio := float64(capitalized) / float64(len(comments))

	mean := 0.0
	for _, l := range lengths {
		mean += l
	}
	mean /= float64(len(lengths))
	variance := 0.0
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	variance /= float64(len(lengths))
	stddev := math.Sqrt(variance)

	// Low relative spread means uniform comment lengths.
	uniformity := 1.0
	if mean > 0 {
		uniformity = clamp01(1 - stddev/mean)
	}

	return clamp01(0.6*capRatio + 0.4*uniformity)
}

// typoSignal returns 1 when no human typo/informality markers are present.
func typoSignal(content string) float64 {
	lower := strings.ToLower(content)
	hits := 0
	for _, marker := range typoMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	if hits == 0 {
		return 1
	}
	return clamp01(1 - float64(hits)*0.34)
}

// indentationSignal measures how consistently leading whitespace follows a
// single step size (GCD of observed indents).
func indentationSignal(lines []string) float64 {
	var indents []int
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "\t") {
			continue // tab indentation is uniformly consistent; counted below
		}
		n := 0
		for _, ch := range line {
			if ch != ' ' {
				break
			}
			n++
		}
		if n > 0 {
			indents = append(indents, n)
		}
	}
	if len(indents) < 3 {
		return 0.5
	}

	g := indents[0]
	for _, n := range indents[1:] {
		g = gcd(g, n)
	}
	if g < 2 {
		return 0.2 // irregular indentation
	}

	consistent := 0
	for _, n := range indents {
		if n%g == 0 {
			consistent++
		}
	}
	return float64(consistent) / float64(len(indents))
}

// errorHandlingSignal compares error-handling constructs against function
// count; exhaustive wrapping is characteristic of generated code.
func errorHandlingSignal(content string) float64 {
	functions := len(functionPattern.FindAllString(content, -1))
	if functions == 0 {
		return 0
	}
	handlers := len(handlerPattern.FindAllString(content, -1))
	return clamp01(float64(handlers) / float64(functions))
}

// boilerplateSignal measures boilerplate-pattern density per 100 lines.
func boilerplateSignal(lines []string) float64 {
	if len(lines) == 0 {
		return 0
	}
	hits := 0
	for _, line := range lines {
		for _, p := range boilerplatePatterns {
			if p.MatchString(line) {
				hits++
				break
			}
		}
	}
	return clamp01(float64(hits) * 100 / float64(len(lines)) / 5)
}

// docstringSignal measures the ratio of formal doc comments to functions.
func docstringSignal(lines []string) float64 {
	functions := 0
	docs := 0
	for _, line := range lines {
		if functionPattern.MatchString(line) {
			functions++
		}
		if docstringPattern.MatchString(line) {
			docs++
		}
	}
	if functions == 0 {
		return 0
	}
	return clamp01(float64(docs) / float64(functions))
}

// importOrderSignal measures the fraction of adjacent import pairs that are
// already sorted.
func importOrderSignal(lines []string) float64 {
	var imports []string
	for _, line := range lines {
		if m := importPattern.FindStringSubmatch(line); m != nil {
			imports = append(imports, strings.TrimSpace(m[1]))
		}
	}
	if len(imports) < 2 {
		return 0.5
	}

	if sort.StringsAreSorted(imports) {
		return 1
	}

	ordered := 0
	for i := 1; i < len(imports); i++ {
		if imports[i-1] <= imports[i] {
			ordered++
		}
	}
	return float64(ordered) / float64(len(imports)-1)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
