package scan

import (
	"math"
	"sort"

	"govscan/internal/aidetect"
	"govscan/internal/compliance"
	"govscan/internal/debt"
	"govscan/internal/depscan"
	"govscan/internal/rules"
)

// SeverityCounts buckets findings by severity for the summary payload.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

func (c *SeverityCounts) add(sev rules.Severity) {
	switch sev {
	case rules.SeverityCritical:
		c.Critical++
	case rules.SeverityHigh:
		c.High++
	case rules.SeverityMedium:
		c.Medium++
	default:
		c.Low++
	}
	c.Total++
}

// QualitySummary aggregates code-quality findings across the tree.
type QualitySummary struct {
	WorstGrade    string `json:"worst_grade"`
	TotalErrors   int    `json:"total_errors"`
	TotalWarnings int    `json:"total_warnings"`
	TotalInfos    int    `json:"total_infos"`
}

// Summary is the persisted result payload of a completed scan.
type Summary struct {
	TotalFilesScanned int            `json:"total_files_scanned"`
	AIFilesDetected   int            `json:"ai_files_detected"`
	TotalLOC          int            `json:"total_loc"`
	TotalAILOC        int            `json:"total_ai_loc"`
	AILOCPercentage   float64        `json:"ai_loc_percentage"`
	DebtScore         float64        `json:"debt_score"`
	RiskZone          string         `json:"risk_zone"`
	Vulnerabilities   SeverityCounts `json:"vulnerabilities"`
	CodeQuality       QualitySummary `json:"code_quality"`
	Enhancements      SeverityCounts `json:"enhancements"`
	DependencyVulns   SeverityCounts `json:"dependency_vulnerabilities"`
	SensitiveFiles    int            `json:"sensitive_files"`
	SensitiveCritical int            `json:"sensitive_files_critical"`
	LicenseFamilies   []string       `json:"license_compliance"`
	StrongCopyleft    bool           `json:"strong_copyleft"`
	Infrastructure    SeverityCounts `json:"infrastructure"`
}

// FileResult is the in-memory analysis of one file before persistence.
type FileResult struct {
	Path      string
	Language  string
	LineCount int
	Detection aidetect.Result
	Findings  FileFindings
}

// FileFindings groups the per-file finding collections.
type FileFindings struct {
	Vulnerabilities []rules.Finding `json:"vulnerabilities,omitempty"`
	Quality         []rules.Finding `json:"quality,omitempty"`
	Enhancements    []rules.Finding `json:"enhancements,omitempty"`
}

// accumulator folds per-file results and whole-tree findings into a Summary.
// It is not safe for concurrent use; the orchestrator owns it on the fan-in
// side of the worker pool.
type accumulator struct {
	summary    Summary
	worstGrade int // index into grades, higher is worse
	probes     []float64
	aiFiles    int
	highRisk   int
	enhTotal   int
}

var grades = []string{"A", "B", "C", "D", "F"}

func newAccumulator() *accumulator {
	return &accumulator{summary: Summary{CodeQuality: QualitySummary{WorstGrade: "A"}}}
}

func (a *accumulator) addFile(r *FileResult) {
	a.summary.TotalFilesScanned++
	a.summary.TotalLOC += r.LineCount
	a.probes = append(a.probes, r.Detection.Probability)

	if r.Detection.Tier == aidetect.TierHigh || r.Detection.Tier == aidetect.TierMedium {
		a.summary.AIFilesDetected++
		a.summary.TotalAILOC += r.LineCount
		a.aiFiles++
	}
	if r.Detection.Tier == aidetect.TierHigh {
		a.highRisk++
	}

	for _, f := range r.Findings.Vulnerabilities {
		a.summary.Vulnerabilities.add(f.Severity)
	}

	var errors, warnings, infos int
	for _, f := range r.Findings.Quality {
		switch f.Severity {
		case rules.SeverityCritical, rules.SeverityHigh:
			errors++
		case rules.SeverityMedium, rules.SeverityLow:
			warnings++
		default:
			infos++
		}
	}
	a.summary.CodeQuality.TotalErrors += errors
	a.summary.CodeQuality.TotalWarnings += warnings
	a.summary.CodeQuality.TotalInfos += infos

	if g := gradeIndex(errors, warnings, r.LineCount); g > a.worstGrade {
		a.worstGrade = g
	}

	for _, f := range r.Findings.Enhancements {
		a.summary.Enhancements.add(f.Severity)
		a.enhTotal++
	}
}

func (a *accumulator) addDependencies(findings []depscan.DependencyFinding) {
	for _, f := range findings {
		a.summary.DependencyVulns.add(rules.Severity(f.Severity))
	}
}

func (a *accumulator) addCompliance(sensitive []compliance.SensitiveFinding, licenses []compliance.LicenseFinding, infra []rules.Finding) {
	a.summary.SensitiveFiles = len(sensitive)
	for _, f := range sensitive {
		if f.Severity == rules.SeverityCritical {
			a.summary.SensitiveCritical++
		}
	}

	seen := map[string]bool{}
	for _, l := range licenses {
		if !seen[string(l.Family)] {
			seen[string(l.Family)] = true
			a.summary.LicenseFamilies = append(a.summary.LicenseFamilies, string(l.Family))
		}
		if l.StrongCopyleft {
			a.summary.StrongCopyleft = true
		}
	}
	sort.Strings(a.summary.LicenseFamilies)

	for _, f := range infra {
		a.summary.Infrastructure.add(f.Severity)
	}
}

// debtInputs derives the four debt components from what a tree scan can
// observe. Review coverage is proxied by the share of files that are not
// high-risk AI; prompt inconsistency by the spread of per-file AI
// probabilities.
func (a *accumulator) debtInputs() debt.Inputs {
	total := a.summary.TotalFilesScanned
	if total == 0 {
		return debt.Inputs{ReviewCoverage: 1}
	}

	var aiRatio float64
	if a.summary.TotalLOC > 0 {
		aiRatio = float64(a.summary.TotalAILOC) / float64(a.summary.TotalLOC)
	}

	review := 1 - float64(a.highRisk)/float64(total)
	refactor := float64(a.enhTotal) / float64(total)
	if refactor > 1 {
		refactor = 1
	}

	var mean float64
	for _, p := range a.probes {
		mean += p
	}
	mean /= float64(len(a.probes))
	var spread float64
	for _, p := range a.probes {
		spread += math.Abs(p - mean)
	}
	spread = 2 * spread / float64(len(a.probes))
	if spread > 1 {
		spread = 1
	}

	return debt.Inputs{
		AILOCRatio:            aiRatio,
		ReviewCoverage:        review,
		RefactorBacklogGrowth: refactor,
		PromptInconsistency:   spread,
	}
}

// finalize stamps the score and derived percentages onto the summary.
func (a *accumulator) finalize(score debt.Score) Summary {
	a.summary.DebtScore = score.Value
	a.summary.RiskZone = string(score.Zone)
	a.summary.CodeQuality.WorstGrade = grades[a.worstGrade]
	if a.summary.TotalLOC > 0 {
		pct := 100 * float64(a.summary.TotalAILOC) / float64(a.summary.TotalLOC)
		a.summary.AILOCPercentage = math.Round(pct*100) / 100
	}
	return a.summary
}

// gradeIndex grades one file's quality density: error-weighted findings per
// hundred lines.
func gradeIndex(errors, warnings, loc int) int {
	if loc == 0 {
		return 0
	}
	density := float64(5*errors+warnings) / float64(loc) * 100

	switch {
	case density < 5:
		return 0 // A
	case density < 15:
		return 1 // B
	case density < 30:
		return 2 // C
	case density < 50:
		return 3 // D
	default:
		return 4 // F
	}
}
