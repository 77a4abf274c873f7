package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat controls how command responses are rendered.
type OutputFormat string

const (
	JSONOutput  OutputFormat = "json"
	HumanOutput OutputFormat = "human"
)

// FormatResponse renders a command response in the requested format.
// Unknown response types fall back to indented JSON.
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	if format == JSONOutput {
		return formatJSON(resp)
	}
	return formatHuman(resp)
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling response: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch r := resp.(type) {
	case *ScanEnqueueResponse:
		return formatScanEnqueue(r), nil
	case *JobsListResponse:
		return formatJobsList(r), nil
	case *JobStatusResponse:
		return formatJobStatus(r), nil
	case *ScoreResponse:
		return formatScore(r), nil
	case *RulesListResponse:
		return formatRulesList(r), nil
	default:
		return formatJSON(resp)
	}
}

func formatScanEnqueue(r *ScanEnqueueResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enqueued %s scan %s\n", r.ScanType, r.JobID)
	fmt.Fprintf(&b, "  Repository: %s\n", r.Repository)
	b.WriteString("\nRun 'govscan worker run --once' to process the queue.")
	return b.String()
}

func formatJobsList(r *JobsListResponse) string {
	if len(r.Jobs) == 0 {
		return "No scan jobs found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-9s  %-8s  %8s  %s\n", "ID", "STATUS", "TYPE", "PROGRESS", "CREATED")
	for _, j := range r.Jobs {
		fmt.Fprintf(&b, "%-36s  %-9s  %-8s  %7d%%  %s\n",
			j.ID, j.Status, j.ScanType, j.Progress, j.CreatedAt)
	}
	fmt.Fprintf(&b, "\n%d job(s)", len(r.Jobs))
	return b.String()
}

func formatJobStatus(r *JobStatusResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job %s\n", r.ID)
	fmt.Fprintf(&b, "  Status:     %s\n", r.Status)
	fmt.Fprintf(&b, "  Type:       %s\n", r.ScanType)
	fmt.Fprintf(&b, "  Progress:   %d%%\n", r.Progress)
	fmt.Fprintf(&b, "  Repository: %s\n", r.Repository)
	fmt.Fprintf(&b, "  Created:    %s\n", r.CreatedAt)
	if r.StartedAt != "" {
		fmt.Fprintf(&b, "  Started:    %s\n", r.StartedAt)
	}
	if r.CompletedAt != "" {
		fmt.Fprintf(&b, "  Completed:  %s\n", r.CompletedAt)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "  Error:      %s\n", r.Error)
	}
	if r.Summary != nil {
		fmt.Fprintf(&b, "\n  Files scanned:   %d\n", r.Summary.TotalFilesScanned)
		fmt.Fprintf(&b, "  AI files:        %d (%.1f%% of LOC)\n", r.Summary.AIFilesDetected, r.Summary.AILOCPercentage)
		fmt.Fprintf(&b, "  Debt score:      %.1f (%s)\n", r.Summary.DebtScore, r.Summary.RiskZone)
		fmt.Fprintf(&b, "  Quality grade:   %s\n", r.Summary.CodeQuality.WorstGrade)
		fmt.Fprintf(&b, "  Vulnerabilities: %d critical, %d high, %d medium, %d low\n",
			r.Summary.Vulnerabilities.Critical, r.Summary.Vulnerabilities.High,
			r.Summary.Vulnerabilities.Medium, r.Summary.Vulnerabilities.Low)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatScore(r *ScoreResponse) string {
	if len(r.Scores) == 0 {
		return "No debt scores recorded yet. Run a scan first."
	}
	var b strings.Builder
	if r.Company {
		b.WriteString("Company debt score\n")
	} else {
		fmt.Fprintf(&b, "Debt score for %s\n", r.Repository)
	}
	fmt.Fprintf(&b, "\n%-8s  %-8s  %s\n", "SCORE", "ZONE", "RECORDED")
	for _, s := range r.Scores {
		fmt.Fprintf(&b, "%8.2f  %-8s  %s\n", s.Score, s.Zone, s.CreatedAt)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRulesList(r *RulesListResponse) string {
	if len(r.Rules) == 0 {
		return "No rules matched."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-11s  %-14s  %-8s  %s\n", "ID", "CATEGORY", "SEVERITY", "TITLE")
	for _, rule := range r.Rules {
		fmt.Fprintf(&b, "%-11s  %-14s  %-8s  %s\n",
			rule.ID, rule.Category, rule.Severity, truncateString(rule.Title, 60))
	}
	fmt.Fprintf(&b, "\n%d rule(s)", len(r.Rules))
	return b.String()
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
