package aidetect

import "testing"

func TestAnalyzeMetadata(t *testing.T) {
	tests := []struct {
		name      string
		ctx       CommitContext
		wantMatch bool
		wantClass string
	}{
		{
			name:      "copilot in commit message",
			ctx:       CommitContext{CommitMessage: "Add login flow with GitHub Copilot suggestions"},
			wantMatch: true,
			wantClass: "tool_name",
		},
		{
			name:      "generated by phrase",
			ctx:       CommitContext{PRBody: "This module was generated by an AI assistant."},
			wantMatch: true,
			wantClass: "generated_by",
		},
		{
			name:      "co-author trailer wins over tool name",
			ctx:       CommitContext{CommitMessage: "Fix parser\n\nCo-Authored-By: Claude <noreply@example.com>"},
			wantMatch: true,
			wantClass: "co_author",
		},
		{
			name:      "pr title attribution",
			ctx:       CommitContext{PRTitle: "AI-generated refactor of the billing module"},
			wantMatch: true,
		},
		{
			name:      "plain human commit",
			ctx:       CommitContext{CommitMessage: "Fix off-by-one in pagination"},
			wantMatch: false,
		},
		{
			name:      "empty context",
			ctx:       CommitContext{},
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeMetadata(tt.ctx)
			if got.Matched != tt.wantMatch {
				t.Fatalf("Matched = %v, want %v", got.Matched, tt.wantMatch)
			}
			if tt.wantMatch {
				if got.Confidence <= 0 || got.Confidence > 1 {
					t.Errorf("Confidence = %v, want in (0,1]", got.Confidence)
				}
				if got.MatchedText == "" {
					t.Error("MatchedText should carry the literal match")
				}
				if tt.wantClass != "" && got.Class != tt.wantClass {
					t.Errorf("Class = %q, want %q", got.Class, tt.wantClass)
				}
			}
		})
	}
}
