// Package scan drives the asynchronous scan pipeline: claiming jobs,
// analyzing each file in the tree, running the whole-tree detectors, and
// writing the score, alerts, and terminal job state.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"govscan/internal/aidetect"
	"govscan/internal/compliance"
	"govscan/internal/config"
	"govscan/internal/debt"
	"govscan/internal/depscan"
	"govscan/internal/logging"
	"govscan/internal/rules"
	"govscan/internal/store"
)

// Progress band for the per-file analysis loop. Enumeration happens below
// it, whole-tree detection and scoring above it.
const (
	progressAnalysisStart = 10
	progressAnalysisEnd   = 80
	progressDetectors     = 90
	progressScoring       = 95
)

// Orchestrator executes scan jobs claimed from the store.
type Orchestrator struct {
	store    *store.Store
	catalog  *rules.Catalog
	resolver *depscan.Resolver
	infra    *compliance.InfraDetector
	ml       *aidetect.MLClient
	cfg      config.ScanConfig
	logger   *logging.Logger
	workerID string

	// openSource is swappable for tests.
	openSource func(job *store.ScanJob, repo *store.Repository) (Source, error)
}

// NewOrchestrator wires the detectors against a store.
func NewOrchestrator(st *store.Store, catalog *rules.Catalog, ml *aidetect.MLClient, cfg config.ScanConfig, workerID string, logger *logging.Logger) (*Orchestrator, error) {
	resolver, err := depscan.NewResolver(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load advisory tables: %w", err)
	}

	o := &Orchestrator{
		store:    st,
		catalog:  catalog,
		resolver: resolver,
		infra:    compliance.NewInfraDetector(catalog),
		ml:       ml,
		cfg:      cfg,
		logger:   logger,
		workerID: workerID,
	}
	o.openSource = o.defaultOpenSource
	return o, nil
}

func (o *Orchestrator) defaultOpenSource(job *store.ScanJob, repo *store.Repository) (Source, error) {
	if job.ScanType == store.ScanUpload {
		if job.SourcePath == "" {
			return nil, fmt.Errorf("upload scan has no archive path")
		}
		return OpenArchiveSource(job.SourcePath)
	}
	return NewDirSource(repo.Path), nil
}

// ProcessNext reaps stale jobs, claims the oldest pending job, and runs it
// to a terminal state. Returns false when no pending job exists. A job
// failure is recorded on the job row, not returned: only store-level errors
// surface to the caller.
func (o *Orchestrator) ProcessNext(ctx context.Context) (bool, error) {
	if _, err := o.store.ReapStale(o.staleThreshold()); err != nil {
		return false, fmt.Errorf("failed to reap stale jobs: %w", err)
	}

	job, err := o.store.ClaimNextPending(o.workerID, o.staleThreshold())
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	o.logger.Info("Processing scan job", map[string]interface{}{
		"jobId":        job.ID,
		"repositoryId": job.RepositoryID,
		"scanType":     job.ScanType,
	})

	start := time.Now()
	if err := o.runJob(ctx, job); err != nil {
		o.logger.Error("Scan job failed", map[string]interface{}{
			"jobId":    job.ID,
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		if failErr := o.store.FailJob(job.ID, err.Error()); failErr != nil {
			return true, fmt.Errorf("failed to mark job failed: %w", failErr)
		}
		return true, nil
	}

	o.logger.Info("Scan job completed", map[string]interface{}{
		"jobId":    job.ID,
		"duration": time.Since(start).String(),
	})
	return true, nil
}

// Run polls for jobs until the context is cancelled. With once set, it
// processes at most one job and returns.
func (o *Orchestrator) Run(ctx context.Context, once bool) error {
	interval := time.Duration(o.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		processed, err := o.ProcessNext(ctx)
		if err != nil {
			return err
		}
		if once {
			return nil
		}
		if processed {
			// Drain the queue before going back to sleep.
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (o *Orchestrator) runJob(ctx context.Context, job *store.ScanJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
	}()

	repo, err := o.store.GetRepository(job.RepositoryID)
	if err != nil {
		return err
	}
	if repo == nil {
		return fmt.Errorf("repository not found: %s", job.RepositoryID)
	}

	source, err := o.openSource(job, repo)
	if err != nil {
		return fmt.Errorf("failed to open scan source: %w", err)
	}

	all, err := source.Files(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate tree: %w", err)
	}

	var allPaths []string
	var candidates []FileInfo
	maxSize := o.maxFileSize()
	for _, f := range all {
		allPaths = append(allPaths, f.Path)
		if IsSourceFile(f.Path) && f.Size <= maxSize {
			candidates = append(candidates, f)
		}
	}

	acc := newAccumulator()

	// An empty tree completes immediately with a zero-valued summary.
	if len(candidates) == 0 && len(allPaths) == 0 {
		return o.finishJob(job, repo, acc.finalize(o.scoreAndPersist(job, repo, acc)))
	}

	if err := o.store.UpdateProgress(job.ID, progressAnalysisStart, o.staleThreshold()); err != nil {
		return err
	}

	results, err := o.analyzeFiles(ctx, job, source, candidates)
	if err != nil {
		return err
	}

	var batch []*store.FileAnalysis
	for _, r := range results {
		if r == nil {
			continue
		}
		acc.addFile(r)

		findings, marshalErr := json.Marshal(r.Findings)
		if marshalErr != nil {
			findings = nil
		}
		batch = append(batch, &store.FileAnalysis{
			JobID:         job.ID,
			RepositoryID:  repo.ID,
			Path:          r.Path,
			Language:      r.Language,
			LineCount:     r.LineCount,
			AIProbability: r.Detection.Probability,
			RiskTier:      string(r.Detection.Tier),
			Method:        r.Detection.Method,
			Findings:      string(findings),
		})
		if len(batch) >= o.batchSize() {
			if _, err := o.store.InsertFileAnalyses(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if _, err := o.store.InsertFileAnalyses(batch); err != nil {
		return err
	}

	// Whole-tree detectors.
	readTree := func(p string) ([]byte, error) { return source.Content(ctx, p) }
	acc.addDependencies(o.resolver.Scan(allPaths, readTree))
	acc.addCompliance(
		compliance.DetectSensitive(allPaths),
		compliance.DetectLicenses(allPaths, readTree),
		o.infra.Detect(allPaths, readTree),
	)
	if err := o.store.UpdateProgress(job.ID, progressDetectors, o.staleThreshold()); err != nil {
		return err
	}

	summary := acc.finalize(o.scoreAndPersist(job, repo, acc))
	if err := o.store.UpdateProgress(job.ID, progressScoring, o.staleThreshold()); err != nil {
		return err
	}

	return o.finishJob(job, repo, summary)
}

// analyzeFiles fans the per-file analysis out over a bounded worker pool.
// Results hold their input order so accumulation stays deterministic; a
// file that cannot be read or looks binary yields a nil slot.
func (o *Orchestrator) analyzeFiles(ctx context.Context, job *store.ScanJob, source Source, files []FileInfo) ([]*FileResult, error) {
	results := make([]*FileResult, len(files))
	var completed atomic.Int64
	var progressMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())

	interval := o.cfg.ProgressInterval
	if interval <= 0 {
		interval = 10
	}

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			results[i] = o.analyzeFile(ctx, source, f)

			done := completed.Add(1)
			if done%int64(interval) == 0 || done == int64(len(files)) {
				span := progressAnalysisEnd - progressAnalysisStart
				pct := progressAnalysisStart + int(int64(span)*done/int64(len(files)))
				progressMu.Lock()
				if err := o.store.UpdateProgress(job.ID, pct, o.staleThreshold()); err != nil {
					o.logger.Warn("Failed to update progress", map[string]interface{}{
						"jobId": job.ID,
						"error": err.Error(),
					})
				}
				progressMu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) analyzeFile(ctx context.Context, source Source, f FileInfo) *FileResult {
	content, err := source.Content(ctx, f.Path)
	if err != nil {
		o.logger.Debug("Skipping unreadable file", map[string]interface{}{
			"path":  f.Path,
			"error": err.Error(),
		})
		return nil
	}
	if isBinary(content) {
		return nil
	}

	text := string(content)
	language := DetectLanguage(f.Path)

	var commit aidetect.CommitContext
	if cs, ok := source.(CommitSource); ok {
		commit = cs.CommitContext(ctx, f.Path)
	}

	style := aidetect.AnalyzeStyle(text)
	meta := aidetect.AnalyzeMetadata(commit)
	ml := o.ml.Classify(ctx, text, language)
	detection := aidetect.Fuse(meta, style, ml)

	return &FileResult{
		Path:      f.Path,
		Language:  language,
		LineCount: countLines(text),
		Detection: detection,
		Findings: FileFindings{
			Vulnerabilities: rules.Evaluate(text, language, o.catalog.Rules(rules.CategoryVulnerability)),
			Quality:         rules.Evaluate(text, language, o.catalog.Rules(rules.CategoryQuality)),
			Enhancements:    rules.Evaluate(text, language, o.catalog.Rules(rules.CategoryEnhancement)),
		},
	}
}

// scoreAndPersist computes the repository score, appends it and the
// refreshed company rollup to the trend series, and returns the score for
// the summary. Persistence failures here are logged, not fatal: the scan's
// analysis results are already stored.
func (o *Orchestrator) scoreAndPersist(job *store.ScanJob, repo *store.Repository, acc *accumulator) debt.Score {
	score := debt.Compute(acc.debtInputs())

	breakdown, _ := json.Marshal(score.Breakdown)
	if err := o.store.InsertDebtScore(&store.DebtScore{
		RepositoryID: repo.ID,
		JobID:        job.ID,
		Score:        score.Value,
		RiskZone:     string(score.Zone),
		Breakdown:    string(breakdown),
	}); err != nil {
		o.logger.Warn("Failed to persist debt score", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
		return score
	}

	latest, err := o.store.LatestScorePerRepository()
	if err != nil {
		o.logger.Warn("Failed to load latest scores", map[string]interface{}{
			"error": err.Error(),
		})
		return score
	}
	var values []float64
	for _, v := range latest {
		values = append(values, v)
	}
	rollup := debt.CompanyRollup(values)
	if err := o.store.InsertDebtScore(&store.DebtScore{
		JobID:    job.ID,
		Score:    rollup.Value,
		RiskZone: string(rollup.Zone),
	}); err != nil {
		o.logger.Warn("Failed to persist company rollup", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return score
}

func (o *Orchestrator) finishJob(job *store.ScanJob, repo *store.Repository, summary Summary) error {
	for _, alert := range buildAlerts(repo.ID, job.ID, summary) {
		if err := o.store.InsertAlert(alert); err != nil {
			o.logger.Warn("Failed to persist alert", map[string]interface{}{
				"jobId": job.ID,
				"type":  alert.Type,
				"error": err.Error(),
			})
		}
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}
	if err := o.store.CompleteJob(job.ID, string(payload)); err != nil {
		return err
	}

	if err := o.store.UpdateRepositoryLastScan(repo.ID, time.Now().UTC()); err != nil {
		o.logger.Warn("Failed to update last scan", map[string]interface{}{
			"repositoryId": repo.ID,
			"error":        err.Error(),
		})
	}
	return nil
}

func (o *Orchestrator) workers() int {
	if o.cfg.Workers > 0 {
		return o.cfg.Workers
	}
	return 4
}

func (o *Orchestrator) maxFileSize() int64 {
	if o.cfg.MaxFileSizeBytes > 0 {
		return o.cfg.MaxFileSizeBytes
	}
	return 1 << 20
}

func (o *Orchestrator) batchSize() int {
	if o.cfg.BatchSize > 0 {
		return o.cfg.BatchSize
	}
	return 50
}

func (o *Orchestrator) staleThreshold() time.Duration {
	if o.cfg.StaleJobTimeoutMinutes > 0 {
		return time.Duration(o.cfg.StaleJobTimeoutMinutes) * time.Minute
	}
	return 10 * time.Minute
}

func isBinary(content []byte) bool {
	limit := len(content)
	if limit > 8000 {
		limit = 8000
	}
	for _, b := range content[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
