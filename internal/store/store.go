package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"govscan/internal/logging"
)

// Store provides persistence backed by a SQLite database.
type Store struct {
	conn   *sql.DB
	logger *logging.Logger
	dbPath string
}

// Open opens or creates the governance database at <dir>/govscan.db.
func Open(dir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dir, "govscan.db")
	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set pragmas for performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000", // 16MB cache
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}

	if !dbExists {
		logger.Info("Creating governance database", map[string]interface{}{
			"path": dbPath,
		})
	}
	if err := store.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS repositories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			last_scan_at TEXT
		);

		CREATE TABLE IF NOT EXISTS scan_jobs (
			id TEXT PRIMARY KEY,
			repository_id TEXT NOT NULL,
			scan_type TEXT NOT NULL,
			source_path TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			progress INTEGER NOT NULL DEFAULT 0,
			claimed_by TEXT,
			lease_expires_at TEXT,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			error_message TEXT,
			summary TEXT,
			FOREIGN KEY (repository_id) REFERENCES repositories(id)
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON scan_jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON scan_jobs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_jobs_repository ON scan_jobs(repository_id);

		CREATE TABLE IF NOT EXISTS file_analyses (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			repository_id TEXT NOT NULL,
			path TEXT NOT NULL,
			language TEXT,
			line_count INTEGER NOT NULL DEFAULT 0,
			ai_probability REAL NOT NULL DEFAULT 0,
			risk_tier TEXT,
			method TEXT,
			findings TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (job_id) REFERENCES scan_jobs(id)
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_job ON file_analyses(job_id);

		CREATE TABLE IF NOT EXISTS debt_scores (
			id TEXT PRIMARY KEY,
			repository_id TEXT,
			job_id TEXT,
			score REAL NOT NULL,
			risk_zone TEXT NOT NULL,
			breakdown TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scores_repository ON debt_scores(repository_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			repository_id TEXT NOT NULL,
			job_id TEXT NOT NULL,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_job ON alerts(job_id);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// --- repositories ---

// UpsertRepository registers a repository by path, returning the existing row
// when the path is already known.
func (s *Store) UpsertRepository(name, path string) (*Repository, error) {
	existing, err := s.GetRepositoryByPath(path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	repo := &Repository{
		ID:        uuid.New().String(),
		Name:      name,
		Path:      path,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.conn.Exec(`
		INSERT INTO repositories (id, name, path, active, created_at, last_scan_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, repo.ID, repo.Name, repo.Path, boolInt(repo.Active), repo.CreatedAt.Format(time.RFC3339), nullTime(repo.LastScanAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	s.logger.Debug("Registered repository", map[string]interface{}{
		"repositoryId": repo.ID,
		"path":         repo.Path,
	})

	return repo, nil
}

// GetRepositoryByPath retrieves a repository by its filesystem path. Returns
// nil when no row matches.
func (s *Store) GetRepositoryByPath(path string) (*Repository, error) {
	row := s.conn.QueryRow(`
		SELECT id, name, path, active, created_at, last_scan_at
		FROM repositories WHERE path = ?
	`, path)
	return scanRepository(row)
}

// GetRepository retrieves a repository by ID. Returns nil when no row matches.
func (s *Store) GetRepository(id string) (*Repository, error) {
	row := s.conn.QueryRow(`
		SELECT id, name, path, active, created_at, last_scan_at
		FROM repositories WHERE id = ?
	`, id)
	return scanRepository(row)
}

// ListRepositories retrieves all active repositories.
func (s *Store) ListRepositories() ([]*Repository, error) {
	rows, err := s.conn.Query(`
		SELECT id, name, path, active, created_at, last_scan_at
		FROM repositories WHERE active = 1
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []*Repository
	for rows.Next() {
		repo, err := scanRepositoryRows(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}

	return repos, rows.Err()
}

// UpdateRepositoryLastScan records when a repository was last scanned.
func (s *Store) UpdateRepositoryLastScan(id string, at time.Time) error {
	_, err := s.conn.Exec(`
		UPDATE repositories SET last_scan_at = ? WHERE id = ?
	`, at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update last scan: %w", err)
	}
	return nil
}

func scanRepository(row *sql.Row) (*Repository, error) {
	var repo Repository
	var active int
	var createdAt string
	var lastScanAt sql.NullString

	err := row.Scan(&repo.ID, &repo.Name, &repo.Path, &active, &createdAt, &lastScanAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}

	repo.Active = active != 0
	repo.CreatedAt = parseTime(createdAt)
	repo.LastScanAt = parseNullTime(lastScanAt)
	return &repo, nil
}

func scanRepositoryRows(rows *sql.Rows) (*Repository, error) {
	var repo Repository
	var active int
	var createdAt string
	var lastScanAt sql.NullString

	if err := rows.Scan(&repo.ID, &repo.Name, &repo.Path, &active, &createdAt, &lastScanAt); err != nil {
		return nil, fmt.Errorf("failed to scan repository row: %w", err)
	}

	repo.Active = active != 0
	repo.CreatedAt = parseTime(createdAt)
	repo.LastScanAt = parseNullTime(lastScanAt)
	return &repo, nil
}

// --- scan jobs ---

// NewScanJob builds a pending job for a repository.
func NewScanJob(repositoryID string, scanType ScanType) *ScanJob {
	return &ScanJob{
		ID:           uuid.New().String(),
		RepositoryID: repositoryID,
		ScanType:     scanType,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

const jobColumns = `id, repository_id, scan_type, source_path, status, progress,
	claimed_by, lease_expires_at, created_at, started_at, completed_at, error_message, summary`

// CreateJob inserts a new scan job.
func (s *Store) CreateJob(job *ScanJob) error {
	_, err := s.conn.Exec(`
		INSERT INTO scan_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.ID,
		job.RepositoryID,
		job.ScanType,
		nullString(job.SourcePath),
		job.Status,
		job.Progress,
		nullString(job.ClaimedBy),
		nullTime(job.LeaseExpiresAt),
		job.CreatedAt.Format(time.RFC3339),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		nullString(job.ErrorMessage),
		nullString(job.Summary),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Debug("Created scan job", map[string]interface{}{
		"jobId":        job.ID,
		"repositoryId": job.RepositoryID,
		"scanType":     job.ScanType,
	})

	return nil
}

// GetJob retrieves a job by ID. Returns nil when no row matches.
func (s *Store) GetJob(id string) (*ScanJob, error) {
	row := s.conn.QueryRow(`SELECT `+jobColumns+` FROM scan_jobs WHERE id = ?`, id)

	job, err := scanJobRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}

// ListJobs retrieves jobs matching the given options, newest first.
func (s *Store) ListJobs(opts ListJobsOptions) ([]*ScanJob, error) {
	var conditions []string
	var args []interface{}

	if len(opts.Status) > 0 {
		placeholders := make([]string, len(opts.Status))
		for i, status := range opts.Status {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if opts.RepositoryID != "" {
		conditions = append(conditions, "repository_id = ?")
		args = append(args, opts.RepositoryID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	args = append(args, limit, opts.Offset)

	rows, err := s.conn.Query(fmt.Sprintf(`
		SELECT %s FROM scan_jobs %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, jobColumns, whereClause), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []*ScanJob
	for rows.Next() {
		job, err := scanJobRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// ClaimNextPending atomically claims the oldest pending job for the given
// owner: the status flip, owner, and lease expiry are written in a single
// compare-and-swap update, so only one worker can win a given job. Returns
// nil when no pending job exists.
func (s *Store) ClaimNextPending(owner string, lease time.Duration) (*ScanJob, error) {
	for {
		var id string
		err := s.conn.QueryRow(`
			SELECT id FROM scan_jobs WHERE status = 'pending'
			ORDER BY created_at ASC, id ASC LIMIT 1
		`).Scan(&id)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to select pending job: %w", err)
		}

		now := time.Now().UTC()
		result, err := s.conn.Exec(`
			UPDATE scan_jobs
			SET status = 'running', progress = 0, claimed_by = ?, lease_expires_at = ?, started_at = ?
			WHERE id = ? AND status = 'pending'
		`, owner, now.Add(lease).Format(time.RFC3339), now.Format(time.RFC3339), id)
		if err != nil {
			return nil, fmt.Errorf("failed to claim job: %w", err)
		}

		affected, _ := result.RowsAffected()
		if affected == 1 {
			s.logger.Debug("Claimed scan job", map[string]interface{}{
				"jobId": id,
				"owner": owner,
			})
			return s.GetJob(id)
		}
		// Lost the race to another worker; try the next pending job.
	}
}

// UpdateProgress advances a running job's progress and renews the worker's
// lease, so a long-running scan that keeps checkpointing is never reaped.
// Progress is monotonic: an update below the stored value is a no-op, not an
// error.
func (s *Store) UpdateProgress(id string, progress int, lease time.Duration) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	_, err := s.conn.Exec(`
		UPDATE scan_jobs SET progress = ?, lease_expires_at = ?
		WHERE id = ? AND status = 'running' AND progress <= ?
	`, progress, time.Now().UTC().Add(lease).Format(time.RFC3339), id, progress)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// CompleteJob transitions a running job to completed with its summary.
func (s *Store) CompleteJob(id, summary string) error {
	result, err := s.conn.Exec(`
		UPDATE scan_jobs
		SET status = 'completed', progress = 100, completed_at = ?, summary = ?
		WHERE id = ? AND status = 'running'
	`, time.Now().UTC().Format(time.RFC3339), summary, id)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("job not running: %s", id)
	}
	return nil
}

// FailJob transitions a pending or running job to failed with an error
// message. Failing an already-terminal job is a no-op.
func (s *Store) FailJob(id, message string) error {
	_, err := s.conn.Exec(`
		UPDATE scan_jobs
		SET status = 'failed', completed_at = ?, error_message = ?
		WHERE id = ? AND status IN ('pending', 'running')
	`, time.Now().UTC().Format(time.RFC3339), message, id)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return nil
}

// ReapStale fails jobs that have been sitting longer than the staleness
// threshold: pending jobs never claimed, and running jobs whose lease has
// expired (worker crashed or hung). Returns the number of jobs reaped.
func (s *Store) ReapStale(threshold time.Duration) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-threshold).Format(time.RFC3339)
	message := fmt.Sprintf("scan timed out: no activity within %s", threshold)

	result, err := s.conn.Exec(`
		UPDATE scan_jobs
		SET status = 'failed', completed_at = ?, error_message = ?
		WHERE (status = 'pending' AND created_at < ?)
		   OR (status = 'running' AND (lease_expires_at IS NULL OR lease_expires_at < ?))
	`, now.Format(time.RFC3339), message, cutoff, now.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to reap stale jobs: %w", err)
	}

	reaped, _ := result.RowsAffected()
	if reaped > 0 {
		s.logger.Warn("Reaped stale scan jobs", map[string]interface{}{
			"count": reaped,
		})
	}
	return reaped, nil
}

func scanJobRow(scan func(...interface{}) error) (*ScanJob, error) {
	var job ScanJob
	var sourcePath, claimedBy, leaseExpiresAt, startedAt, completedAt, errMsg, summary sql.NullString
	var createdAt string

	err := scan(
		&job.ID,
		&job.RepositoryID,
		&job.ScanType,
		&sourcePath,
		&job.Status,
		&job.Progress,
		&claimedBy,
		&leaseExpiresAt,
		&createdAt,
		&startedAt,
		&completedAt,
		&errMsg,
		&summary,
	)
	if err != nil {
		return nil, err
	}

	job.SourcePath = sourcePath.String
	job.ClaimedBy = claimedBy.String
	job.ErrorMessage = errMsg.String
	job.Summary = summary.String
	job.CreatedAt = parseTime(createdAt)
	job.LeaseExpiresAt = parseNullTime(leaseExpiresAt)
	job.StartedAt = parseNullTime(startedAt)
	job.CompletedAt = parseNullTime(completedAt)

	return &job, nil
}

// --- file analyses ---

// InsertFileAnalyses persists a batch of per-file results. The batch is
// tried as one transaction first; if that fails, every row is retried
// individually so a single malformed row cannot drop the whole batch.
// Returns the number of rows persisted.
func (s *Store) InsertFileAnalyses(analyses []*FileAnalysis) (int, error) {
	if len(analyses) == 0 {
		return 0, nil
	}

	err := s.insertAnalysisBatch(analyses)
	if err == nil {
		return len(analyses), nil
	}
	s.logger.Warn("Batch insert failed, retrying rows individually", map[string]interface{}{
		"batchSize": len(analyses),
		"error":     err.Error(),
	})

	inserted := 0
	for _, a := range analyses {
		if err := s.insertAnalysis(s.conn.Exec, a); err != nil {
			s.logger.Warn("Dropping file analysis row", map[string]interface{}{
				"path":  a.Path,
				"error": err.Error(),
			})
			continue
		}
		inserted++
	}

	return inserted, nil
}

func (s *Store) insertAnalysisBatch(analyses []*FileAnalysis) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}

	for _, a := range analyses {
		if err := s.insertAnalysis(tx.Exec, a); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

type execFunc func(query string, args ...interface{}) (sql.Result, error)

func (s *Store) insertAnalysis(exec execFunc, a *FileAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.Path == "" {
		return fmt.Errorf("file analysis missing path")
	}

	_, err := exec(`
		INSERT INTO file_analyses (id, job_id, repository_id, path, language,
			line_count, ai_probability, risk_tier, method, findings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.JobID,
		a.RepositoryID,
		a.Path,
		nullString(a.Language),
		a.LineCount,
		a.AIProbability,
		nullString(a.RiskTier),
		nullString(a.Method),
		nullString(a.Findings),
		a.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert file analysis: %w", err)
	}
	return nil
}

// ListFileAnalyses retrieves the persisted rows for a job ordered by path.
func (s *Store) ListFileAnalyses(jobID string) ([]*FileAnalysis, error) {
	rows, err := s.conn.Query(`
		SELECT id, job_id, repository_id, path, language, line_count,
			ai_probability, risk_tier, method, findings, created_at
		FROM file_analyses WHERE job_id = ?
		ORDER BY path ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list file analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []*FileAnalysis
	for rows.Next() {
		var a FileAnalysis
		var language, riskTier, method, findings sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &a.JobID, &a.RepositoryID, &a.Path, &language,
			&a.LineCount, &a.AIProbability, &riskTier, &method, &findings, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan file analysis: %w", err)
		}
		a.Language = language.String
		a.RiskTier = riskTier.String
		a.Method = method.String
		a.Findings = findings.String
		a.CreatedAt = parseTime(createdAt)
		analyses = append(analyses, &a)
	}

	return analyses, rows.Err()
}

// --- debt scores ---

// InsertDebtScore appends a score row to the trend series.
func (s *Store) InsertDebtScore(score *DebtScore) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now().UTC()
	}

	_, err := s.conn.Exec(`
		INSERT INTO debt_scores (id, repository_id, job_id, score, risk_zone, breakdown, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		score.ID,
		nullString(score.RepositoryID),
		nullString(score.JobID),
		score.Score,
		score.RiskZone,
		nullString(score.Breakdown),
		score.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt score: %w", err)
	}
	return nil
}

// LatestScorePerRepository returns the most recent per-repository score for
// every active repository that has one. Company rollup rows are excluded.
func (s *Store) LatestScorePerRepository() (map[string]float64, error) {
	rows, err := s.conn.Query(`
		SELECT d.repository_id, d.score
		FROM debt_scores d
		JOIN repositories r ON r.id = d.repository_id AND r.active = 1
		WHERE d.repository_id IS NOT NULL
		AND d.created_at = (
			SELECT MAX(created_at) FROM debt_scores
			WHERE repository_id = d.repository_id
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	latest := make(map[string]float64)
	for rows.Next() {
		var repoID string
		var score float64
		if err := rows.Scan(&repoID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		latest[repoID] = score
	}

	return latest, rows.Err()
}

// ListScores retrieves the score history, newest first. An empty
// repositoryID selects the company-wide rollup series.
func (s *Store) ListScores(repositoryID string, limit int) ([]*DebtScore, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows *sql.Rows
	var err error
	if repositoryID == "" {
		rows, err = s.conn.Query(`
			SELECT id, repository_id, job_id, score, risk_zone, breakdown, created_at
			FROM debt_scores WHERE repository_id IS NULL
			ORDER BY created_at DESC LIMIT ?
		`, limit)
	} else {
		rows, err = s.conn.Query(`
			SELECT id, repository_id, job_id, score, risk_zone, breakdown, created_at
			FROM debt_scores WHERE repository_id = ?
			ORDER BY created_at DESC LIMIT ?
		`, repositoryID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scores []*DebtScore
	for rows.Next() {
		var d DebtScore
		var repoID, jobID, breakdown sql.NullString
		var createdAt string
		if err := rows.Scan(&d.ID, &repoID, &jobID, &d.Score, &d.RiskZone, &breakdown, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan score row: %w", err)
		}
		d.RepositoryID = repoID.String
		d.JobID = jobID.String
		d.Breakdown = breakdown.String
		d.CreatedAt = parseTime(createdAt)
		scores = append(scores, &d)
	}

	return scores, rows.Err()
}

// --- alerts ---

// InsertAlert persists a threshold alert.
func (s *Store) InsertAlert(alert *Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	_, err := s.conn.Exec(`
		INSERT INTO alerts (id, repository_id, job_id, type, severity, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		alert.ID,
		alert.RepositoryID,
		alert.JobID,
		alert.Type,
		alert.Severity,
		alert.Message,
		alert.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// ListAlerts retrieves the alerts raised by a job.
func (s *Store) ListAlerts(jobID string) ([]*Alert, error) {
	rows, err := s.conn.Query(`
		SELECT id, repository_id, job_id, type, severity, message, created_at
		FROM alerts WHERE job_id = ?
		ORDER BY created_at ASC, id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []*Alert
	for rows.Next() {
		var a Alert
		var createdAt string
		if err := rows.Scan(&a.ID, &a.RepositoryID, &a.JobID, &a.Type, &a.Severity, &a.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		alerts = append(alerts, &a)
	}

	return alerts, rows.Err()
}

// Helper functions for nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, ns.String); err == nil {
		return &t
	}
	return nil
}
