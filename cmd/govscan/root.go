package main

import (
	"github.com/spf13/cobra"

	"govscan/internal/version"
)

var (
	repoRoot  string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "govscan",
	Short: "AI code governance scanner",
	Long: `govscan scans repositories for AI-generated code, scores the resulting
technical debt, and tracks vulnerabilities, dependency advisories, and
compliance issues across scans.

Scans run asynchronously: 'scan enqueue' records a job and 'worker run'
processes the queue. Results are kept in a local SQLite database under
the .govscan directory of the repository root.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo", ".", "Repository root (location of the .govscan directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "human", "Log format (json, human)")

	rootCmd.SetVersionTemplate("govscan version {{.Version}}\n")
}
