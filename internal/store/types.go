// Package store persists scan jobs, per-file analysis results, debt scores,
// and alerts in a SQLite database under the repository's .govscan directory.
package store

import "time"

// JobStatus is the lifecycle state of a scan job. A job moves
// pending -> running -> completed|failed exactly once.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ScanType distinguishes a full repository scan from an uploaded archive.
type ScanType string

const (
	ScanFull   ScanType = "full"
	ScanUpload ScanType = "upload"
)

// ScanJob is one queued or executed scan. While running, the claiming worker
// holds a lease (claimed_by + lease_expires_at); the reaper fails jobs whose
// lease has expired.
type ScanJob struct {
	ID             string     `json:"id"`
	RepositoryID   string     `json:"repositoryId"`
	ScanType       ScanType   `json:"scanType"`
	SourcePath     string     `json:"sourcePath,omitempty"`
	Status         JobStatus  `json:"status"`
	Progress       int        `json:"progress"`
	ClaimedBy      string     `json:"claimedBy,omitempty"`
	LeaseExpiresAt *time.Time `json:"leaseExpiresAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	Summary        string     `json:"summary,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *ScanJob) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Repository is a registered scan target.
type Repository struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastScanAt *time.Time `json:"lastScanAt,omitempty"`
}

// FileAnalysis is the persisted result of analyzing one file in one job.
// Rows are immutable after insert. Findings holds the per-file finding
// collections as a JSON payload.
type FileAnalysis struct {
	ID            string    `json:"id"`
	JobID         string    `json:"jobId"`
	RepositoryID  string    `json:"repositoryId"`
	Path          string    `json:"path"`
	Language      string    `json:"language"`
	LineCount     int       `json:"lineCount"`
	AIProbability float64   `json:"aiProbability"`
	RiskTier      string    `json:"riskTier"`
	Method        string    `json:"method"`
	Findings      string    `json:"findings,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DebtScore is one historical score row. RepositoryID is empty for the
// company-wide rollup.
type DebtScore struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repositoryId,omitempty"`
	JobID        string    `json:"jobId,omitempty"`
	Score        float64   `json:"score"`
	RiskZone     string    `json:"riskZone"`
	Breakdown    string    `json:"breakdown,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Alert is a threshold-crossing notification synthesized at the end of a
// scan.
type Alert struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repositoryId"`
	JobID        string    `json:"jobId"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListJobsOptions filters and pages ListJobs.
type ListJobsOptions struct {
	Status       []JobStatus
	RepositoryID string
	Limit        int
	Offset       int
}
