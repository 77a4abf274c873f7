package scan

import (
	"fmt"

	"govscan/internal/store"
)

// Alert thresholds. Crossing any of them synthesizes an alert row at the
// end of a scan.
const (
	alertAILOCPercent = 50.0
	alertMinScore     = 60.0
)

// buildAlerts evaluates the fixed thresholds against a finished summary.
func buildAlerts(repositoryID, jobID string, s Summary) []*store.Alert {
	mk := func(alertType, severity, message string) *store.Alert {
		return &store.Alert{
			RepositoryID: repositoryID,
			JobID:        jobID,
			Type:         alertType,
			Severity:     severity,
			Message:      message,
		}
	}

	var alerts []*store.Alert

	if s.AILOCPercentage > alertAILOCPercent {
		alerts = append(alerts, mk("ai_loc_high", "high",
			fmt.Sprintf("%.1f%% of lines are AI-authored (threshold %.0f%%)", s.AILOCPercentage, alertAILOCPercent)))
	}
	if s.DebtScore < alertMinScore {
		alerts = append(alerts, mk("debt_score_low", "high",
			fmt.Sprintf("debt score %.2f below %.0f (%s)", s.DebtScore, alertMinScore, s.RiskZone)))
	}
	if s.Vulnerabilities.Critical > 0 || s.Vulnerabilities.High > 0 {
		sev := "high"
		if s.Vulnerabilities.Critical > 0 {
			sev = "critical"
		}
		alerts = append(alerts, mk("vulnerabilities", sev,
			fmt.Sprintf("%d critical and %d high severity vulnerabilities found",
				s.Vulnerabilities.Critical, s.Vulnerabilities.High)))
	}
	if s.CodeQuality.WorstGrade == "D" || s.CodeQuality.WorstGrade == "F" {
		alerts = append(alerts, mk("code_quality_grade", "medium",
			fmt.Sprintf("worst code quality grade is %s", s.CodeQuality.WorstGrade)))
	}
	if s.DependencyVulns.Critical > 0 {
		alerts = append(alerts, mk("dependency_vulnerability", "critical",
			fmt.Sprintf("%d critical dependency vulnerabilities found", s.DependencyVulns.Critical)))
	}
	if s.SensitiveCritical > 0 {
		alerts = append(alerts, mk("sensitive_file", "critical",
			fmt.Sprintf("%d critical sensitive files committed to the tree", s.SensitiveCritical)))
	}
	if s.StrongCopyleft {
		alerts = append(alerts, mk("license_copyleft", "medium",
			"strong copyleft license detected in the tree"))
	}
	if s.Infrastructure.Critical > 0 || s.Infrastructure.High > 0 {
		sev := "high"
		if s.Infrastructure.Critical > 0 {
			sev = "critical"
		}
		alerts = append(alerts, mk("infrastructure", sev,
			fmt.Sprintf("%d critical and %d high severity infrastructure findings",
				s.Infrastructure.Critical, s.Infrastructure.High)))
	}

	return alerts
}
