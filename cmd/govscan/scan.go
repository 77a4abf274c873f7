package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"govscan/internal/store"
)

var (
	scanFormat  string
	scanArchive string
	scanName    string
)

// ScanEnqueueResponse is the result of enqueueing a scan.
type ScanEnqueueResponse struct {
	JobID      string `json:"jobId"`
	Repository string `json:"repository"`
	ScanType   string `json:"scanType"`
	Status     string `json:"status"`
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Manage repository scans",
}

var scanEnqueueCmd = &cobra.Command{
	Use:   "enqueue <repo-path>",
	Short: "Queue a scan of a repository or uploaded archive",
	Long: `Queue a scan job for the repository at <repo-path>. The repository is
registered on first use. With --archive, the job scans the given tar.gz
archive instead of the working tree (scan type "upload").

The job stays pending until a worker picks it up; run 'govscan worker run'.`,
	Args: cobra.ExactArgs(1),
	Run:  runScanEnqueue,
}

func init() {
	scanEnqueueCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (json, human)")
	scanEnqueueCmd.Flags().StringVar(&scanArchive, "archive", "", "Scan this tar.gz archive instead of the working tree")
	scanEnqueueCmd.Flags().StringVar(&scanName, "name", "", "Repository display name (defaults to the directory name)")

	scanCmd.AddCommand(scanEnqueueCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScanEnqueue(cmd *cobra.Command, args []string) {
	logger := newLogger()

	repoPath, err := filepath.Abs(args[0])
	if err != nil {
		exitError(fmt.Errorf("resolving repository path: %w", err))
	}
	if info, statErr := os.Stat(repoPath); statErr != nil || !info.IsDir() {
		exitError(fmt.Errorf("repository path %s is not a directory", repoPath))
	}

	name := scanName
	if name == "" {
		name = filepath.Base(repoPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		exitError(err)
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		exitError(err)
	}
	defer func() { _ = st.Close() }()

	repo, err := st.UpsertRepository(name, repoPath)
	if err != nil {
		exitError(fmt.Errorf("registering repository: %w", err))
	}

	scanType := store.ScanFull
	var sourcePath string
	if scanArchive != "" {
		scanType = store.ScanUpload
		sourcePath, err = filepath.Abs(scanArchive)
		if err != nil {
			exitError(fmt.Errorf("resolving archive path: %w", err))
		}
		if _, statErr := os.Stat(sourcePath); statErr != nil {
			exitError(fmt.Errorf("archive %s not found", sourcePath))
		}
	}

	job := store.NewScanJob(repo.ID, scanType)
	job.SourcePath = sourcePath
	if err := st.CreateJob(job); err != nil {
		exitError(fmt.Errorf("creating scan job: %w", err))
	}

	resp := &ScanEnqueueResponse{
		JobID:      job.ID,
		Repository: repo.Path,
		ScanType:   string(job.ScanType),
		Status:     string(job.Status),
	}
	out, err := FormatResponse(resp, OutputFormat(scanFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(out)
}
