package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	scoreFormat  string
	scoreCompany bool
	scoreHistory bool
	scoreLimit   int
	scoreRepo    string
)

// ScoreRowCLI is one debt-score row in the score output.
type ScoreRowCLI struct {
	Score     float64 `json:"score"`
	Zone      string  `json:"zone"`
	CreatedAt string  `json:"createdAt"`
}

// ScoreResponse is the score command output.
type ScoreResponse struct {
	Company    bool          `json:"company"`
	Repository string        `json:"repository,omitempty"`
	Scores     []ScoreRowCLI `json:"scores"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show technical debt scores",
	Long: `Show the latest debt score for a repository, or the company-wide
rollup with --company. With --history, show the score trend newest
first instead of only the latest value.`,
	Run: runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "human", "Output format (json, human)")
	scoreCmd.Flags().BoolVar(&scoreCompany, "company", false, "Show the company-wide rollup")
	scoreCmd.Flags().BoolVar(&scoreHistory, "history", false, "Show the score history instead of only the latest")
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 10, "Maximum history rows with --history")
	scoreCmd.Flags().StringVar(&scoreRepo, "repository", ".", "Repository path to show scores for")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		exitError(err)
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		exitError(err)
	}
	defer func() { _ = st.Close() }()

	resp := &ScoreResponse{Company: scoreCompany}

	repositoryID := ""
	if !scoreCompany {
		repoPath, err := filepath.Abs(scoreRepo)
		if err != nil {
			exitError(fmt.Errorf("resolving repository path: %w", err))
		}
		repo, err := st.GetRepositoryByPath(repoPath)
		if err != nil {
			exitError(fmt.Errorf("loading repository: %w", err))
		}
		if repo == nil {
			exitError(fmt.Errorf("repository %s is not registered; enqueue a scan first", repoPath))
		}
		repositoryID = repo.ID
		resp.Repository = repo.Path
	}

	limit := 1
	if scoreHistory {
		limit = scoreLimit
	}
	scores, err := st.ListScores(repositoryID, limit)
	if err != nil {
		exitError(fmt.Errorf("listing scores: %w", err))
	}
	for _, s := range scores {
		resp.Scores = append(resp.Scores, ScoreRowCLI{
			Score:     s.Score,
			Zone:      s.RiskZone,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		})
	}

	out, err := FormatResponse(resp, OutputFormat(scoreFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(out)
}
