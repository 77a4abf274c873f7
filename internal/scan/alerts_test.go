package scan

import "testing"

func alertTypes(s Summary) map[string]string {
	out := map[string]string{}
	for _, a := range buildAlerts("repo", "job", s) {
		out[a.Type] = a.Severity
	}
	return out
}

func TestBuildAlerts(t *testing.T) {
	t.Run("clean summary raises nothing", func(t *testing.T) {
		s := Summary{DebtScore: 95, RiskZone: "healthy", CodeQuality: QualitySummary{WorstGrade: "A"}}
		if got := buildAlerts("repo", "job", s); len(got) != 0 {
			t.Errorf("alerts = %+v, want none", got)
		}
	})

	t.Run("every threshold crossed", func(t *testing.T) {
		s := Summary{
			AILOCPercentage:   62.5,
			DebtScore:         41,
			RiskZone:          "critical",
			Vulnerabilities:   SeverityCounts{Critical: 2, High: 1, Total: 3},
			CodeQuality:       QualitySummary{WorstGrade: "F"},
			DependencyVulns:   SeverityCounts{Critical: 1, Total: 1},
			SensitiveFiles:    2,
			SensitiveCritical: 1,
			StrongCopyleft:    true,
			Infrastructure:    SeverityCounts{High: 2, Total: 2},
		}

		got := alertTypes(s)
		want := map[string]string{
			"ai_loc_high":              "high",
			"debt_score_low":           "high",
			"vulnerabilities":          "critical",
			"code_quality_grade":       "medium",
			"dependency_vulnerability": "critical",
			"sensitive_file":           "critical",
			"license_copyleft":         "medium",
			"infrastructure":           "high",
		}

		if len(got) != len(want) {
			t.Fatalf("alert types = %v, want %v", got, want)
		}
		for typ, sev := range want {
			if got[typ] != sev {
				t.Errorf("alert %s severity = %q, want %q", typ, got[typ], sev)
			}
		}
	})

	t.Run("boundary values do not alert", func(t *testing.T) {
		s := Summary{
			AILOCPercentage: 50,
			DebtScore:       60,
			CodeQuality:     QualitySummary{WorstGrade: "C"},
		}
		if got := buildAlerts("repo", "job", s); len(got) != 0 {
			t.Errorf("alerts = %+v, want none at exact thresholds", got)
		}
	})
}
