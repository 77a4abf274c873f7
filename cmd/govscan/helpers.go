package main

import (
	"fmt"
	"os"
	"path/filepath"

	"govscan/internal/config"
	"govscan/internal/logging"
	"govscan/internal/store"
)

func newLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.ParseFormat(logFormat),
		Level:  logging.ParseLevel(logLevel),
	})
}

func loadConfig() (*config.Config, error) {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving repository root: %w", err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config, logger *logging.Logger) (*store.Store, error) {
	return store.Open(filepath.Dir(cfg.DBPath()), logger)
}

// exitError prints the error to stderr and exits. Command Run funcs use
// this instead of returning errors so output formatting stays on stdout.
func exitError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
