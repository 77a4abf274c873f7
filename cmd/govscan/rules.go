package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"govscan/internal/rules"
)

var (
	rulesFormat   string
	rulesCategory string
)

// RuleCLI is one rule in the rules list output.
type RuleCLI struct {
	ID        string   `json:"id"`
	Category  string   `json:"category"`
	Severity  string   `json:"severity"`
	Languages []string `json:"languages"`
	Title     string   `json:"title"`
}

// RulesListResponse is the rules list command output.
type RulesListResponse struct {
	Rules []RuleCLI `json:"rules"`
	Total int       `json:"total"`
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the built-in rule catalog",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded rules",
	Run:   runRulesList,
}

func init() {
	rulesListCmd.Flags().StringVar(&rulesFormat, "format", "human", "Output format (json, human)")
	rulesListCmd.Flags().StringVar(&rulesCategory, "category", "", "Filter by category (vulnerability, quality, enhancement, infrastructure)")

	rulesCmd.AddCommand(rulesListCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) {
	catalog, err := rules.LoadBuiltin()
	if err != nil {
		exitError(fmt.Errorf("loading rule catalog: %w", err))
	}

	var loaded []rules.Rule
	if rulesCategory == "" {
		loaded = catalog.All()
	} else {
		loaded = catalog.Rules(rules.Category(strings.ToLower(rulesCategory)))
		if len(loaded) == 0 {
			exitError(fmt.Errorf("unknown category %q", rulesCategory))
		}
	}

	resp := &RulesListResponse{
		Rules: make([]RuleCLI, 0, len(loaded)),
		Total: len(loaded),
	}
	for _, r := range loaded {
		resp.Rules = append(resp.Rules, RuleCLI{
			ID:        r.ID,
			Category:  string(r.Category),
			Severity:  string(r.Severity),
			Languages: r.Languages,
			Title:     r.Title,
		})
	}

	out, err := FormatResponse(resp, OutputFormat(rulesFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(out)
}
