package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"govscan/internal/aidetect"
	"govscan/internal/rules"
	"govscan/internal/scan"
)

var workerOnce bool

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run scan workers",
}

var workerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Process queued scan jobs",
	Long: `Claim pending scan jobs and process them. Without --once the worker
polls the queue until interrupted; with --once it drains the queue and
exits.`,
	Run: runWorker,
}

func init() {
	workerRunCmd.Flags().BoolVar(&workerOnce, "once", false, "Drain the queue and exit instead of polling")

	workerCmd.AddCommand(workerRunCmd)
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) {
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

	catalog, err := rules.LoadBuiltin()
	if err != nil {
		exitError(fmt.Errorf("loading rule catalog: %w", err))
	}

	timeout := time.Duration(cfg.Detection.MLTimeoutSeconds) * time.Second
	ml := aidetect.NewMLClient(cfg.Detection.MLEndpoint, timeout, logger)

	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	workerID := fmt.Sprintf("%s-%s", host, uuid.New().String()[:8])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker starting", map[string]interface{}{
		"worker_id": workerID,
		"workers":   cfg.Scan.Workers,
		"once":      workerOnce,
	})

	orch, err := scan.NewOrchestrator(st, catalog, ml, cfg.Scan, workerID, logger)
	if err != nil {
		exitError(err)
	}
	if err := orch.Run(ctx, workerOnce); err != nil && !errors.Is(err, context.Canceled) {
		exitError(err)
	}
	logger.Info("Worker stopped", nil)
}
