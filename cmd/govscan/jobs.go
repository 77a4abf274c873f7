package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"govscan/internal/scan"
	"govscan/internal/store"
)

var (
	jobsFormat string
	jobsStatus string
	jobsLimit  int
)

// JobSummaryCLI is one row in the jobs list output.
type JobSummaryCLI struct {
	ID         string `json:"id"`
	Repository string `json:"repository"`
	ScanType   string `json:"scanType"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	CreatedAt  string `json:"createdAt"`
}

// JobsListResponse is the jobs list command output.
type JobsListResponse struct {
	Jobs []JobSummaryCLI `json:"jobs"`
}

// JobStatusResponse is the jobs status command output.
type JobStatusResponse struct {
	ID          string        `json:"id"`
	Repository  string        `json:"repository"`
	ScanType    string        `json:"scanType"`
	Status      string        `json:"status"`
	Progress    int           `json:"progress"`
	CreatedAt   string        `json:"createdAt"`
	StartedAt   string        `json:"startedAt,omitempty"`
	CompletedAt string        `json:"completedAt,omitempty"`
	Error       string        `json:"error,omitempty"`
	Summary     *scan.Summary `json:"summary,omitempty"`
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect scan jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scan jobs, newest first",
	Run:   runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show one job including its scan summary",
	Args:  cobra.ExactArgs(1),
	Run:   runJobsStatus,
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsFormat, "format", "human", "Output format (json, human)")
	jobsListCmd.Flags().StringVar(&jobsStatus, "status", "", "Filter by status (pending, running, completed, failed)")
	jobsListCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum number of jobs to show")
	jobsStatusCmd.Flags().StringVar(&jobsFormat, "format", "human", "Output format (json, human)")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, args []string) {
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

	opts := store.ListJobsOptions{Limit: jobsLimit}
	if jobsStatus != "" {
		opts.Status = []store.JobStatus{store.JobStatus(jobsStatus)}
	}
	jobs, err := st.ListJobs(opts)
	if err != nil {
		exitError(fmt.Errorf("listing jobs: %w", err))
	}

	repoPaths := map[string]string{}
	resp := &JobsListResponse{Jobs: make([]JobSummaryCLI, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, JobSummaryCLI{
			ID:         j.ID,
			Repository: repoPath(st, repoPaths, j.RepositoryID),
			ScanType:   string(j.ScanType),
			Status:     string(j.Status),
			Progress:   j.Progress,
			CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		})
	}

	out, err := FormatResponse(resp, OutputFormat(jobsFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(out)
}

func runJobsStatus(cmd *cobra.Command, args []string) {
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

	job, err := st.GetJob(args[0])
	if err != nil {
		exitError(fmt.Errorf("loading job: %w", err))
	}
	if job == nil {
		exitError(fmt.Errorf("job %s not found", args[0]))
	}

	resp := &JobStatusResponse{
		ID:         job.ID,
		Repository: repoPath(st, map[string]string{}, job.RepositoryID),
		ScanType:   string(job.ScanType),
		Status:     string(job.Status),
		Progress:   job.Progress,
		CreatedAt:  job.CreatedAt.Format(time.RFC3339),
		Error:      job.ErrorMessage,
	}
	if job.StartedAt != nil {
		resp.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	if job.Summary != "" {
		var summary scan.Summary
		if err := json.Unmarshal([]byte(job.Summary), &summary); err == nil {
			resp.Summary = &summary
		}
	}

	out, err := FormatResponse(resp, OutputFormat(jobsFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(out)
}

// repoPath resolves a repository ID to its path, memoizing lookups across a
// listing. Unresolvable IDs fall back to the raw ID.
func repoPath(st *store.Store, cache map[string]string, id string) string {
	if p, ok := cache[id]; ok {
		return p
	}
	p := id
	if repo, err := st.GetRepository(id); err == nil && repo != nil {
		p = repo.Path
	}
	cache[id] = p
	return p
}
