package store

import (
	"strings"
	"testing"
	"time"

	"govscan/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestRepo(t *testing.T, s *Store) *Repository {
	t.Helper()
	repo, err := s.UpsertRepository("demo", "/tmp/demo")
	if err != nil {
		t.Fatalf("UpsertRepository() error = %v", err)
	}
	return repo
}

func TestUpsertRepository(t *testing.T) {
	s := newTestStore(t)

	first, err := s.UpsertRepository("demo", "/tmp/demo")
	if err != nil {
		t.Fatalf("UpsertRepository() error = %v", err)
	}
	if first.ID == "" || !first.Active {
		t.Errorf("unexpected repository: %+v", first)
	}

	second, err := s.UpsertRepository("other-name", "/tmp/demo")
	if err != nil {
		t.Fatalf("UpsertRepository() second call error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("same path produced a new repository: %s vs %s", second.ID, first.ID)
	}

	missing, err := s.GetRepositoryByPath("/nope")
	if err != nil {
		t.Fatalf("GetRepositoryByPath() error = %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown path, got %+v", missing)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	loaded, err := s.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if loaded.Status != StatusPending || loaded.Progress != 0 {
		t.Errorf("fresh job = %+v, want pending/0", loaded)
	}

	claimed, err := s.ClaimNextPending("worker-1", 10*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextPending() error = %v", err)
	}
	if claimed == nil || claimed.ID != job.ID {
		t.Fatalf("claimed = %+v, want job %s", claimed, job.ID)
	}
	if claimed.Status != StatusRunning || claimed.ClaimedBy != "worker-1" {
		t.Errorf("claimed job = %+v, want running/worker-1", claimed)
	}
	if claimed.LeaseExpiresAt == nil || claimed.StartedAt == nil {
		t.Error("claimed job missing lease or start timestamp")
	}

	// No second claim while the job is running.
	again, err := s.ClaimNextPending("worker-2", 10*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextPending() second error = %v", err)
	}
	if again != nil {
		t.Errorf("second claim returned %+v, want nil", again)
	}

	if err := s.CompleteJob(job.ID, `{"total_files_scanned":3}`); err != nil {
		t.Fatalf("CompleteJob() error = %v", err)
	}
	done, _ := s.GetJob(job.ID)
	if done.Status != StatusCompleted || done.Progress != 100 || done.CompletedAt == nil {
		t.Errorf("completed job = %+v", done)
	}
	if !done.Terminal() {
		t.Error("completed job should be terminal")
	}
}

func TestClaimOrdersByCreation(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	older := NewScanJob(repo.ID, ScanFull)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := NewScanJob(repo.ID, ScanFull)

	if err := s.CreateJob(newer); err != nil {
		t.Fatalf("CreateJob(newer) error = %v", err)
	}
	if err := s.CreateJob(older); err != nil {
		t.Fatalf("CreateJob(older) error = %v", err)
	}

	claimed, err := s.ClaimNextPending("worker-1", time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextPending() error = %v", err)
	}
	if claimed.ID != older.ID {
		t.Errorf("claimed %s, want oldest job %s", claimed.ID, older.ID)
	}
}

func TestUpdateProgressMonotonic(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if _, err := s.ClaimNextPending("worker-1", time.Minute); err != nil {
		t.Fatalf("ClaimNextPending() error = %v", err)
	}

	if err := s.UpdateProgress(job.ID, 40, time.Minute); err != nil {
		t.Fatalf("UpdateProgress(40) error = %v", err)
	}
	if err := s.UpdateProgress(job.ID, 20, time.Minute); err != nil {
		t.Fatalf("UpdateProgress(20) error = %v", err)
	}

	loaded, _ := s.GetJob(job.ID)
	if loaded.Progress != 40 {
		t.Errorf("Progress = %d, want 40 (regression must be a no-op)", loaded.Progress)
	}

	if err := s.UpdateProgress(job.ID, 150, time.Minute); err != nil {
		t.Fatalf("UpdateProgress(150) error = %v", err)
	}
	loaded, _ = s.GetJob(job.ID)
	if loaded.Progress != 100 {
		t.Errorf("Progress = %d, want clamped 100", loaded.Progress)
	}
}

func TestUpdateProgressRenewsLease(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	// Claim with a lease that is already over, as if the initial lease
	// ran out while the worker was still grinding through files.
	claimed, err := s.ClaimNextPending("worker-1", -time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextPending() error = %v", err)
	}
	if claimed == nil {
		t.Fatal("expected to claim a job")
	}

	if err := s.UpdateProgress(job.ID, 30, 10*time.Minute); err != nil {
		t.Fatalf("UpdateProgress() error = %v", err)
	}

	loaded, _ := s.GetJob(job.ID)
	if loaded.LeaseExpiresAt == nil || !loaded.LeaseExpiresAt.After(time.Now().UTC()) {
		t.Errorf("LeaseExpiresAt = %v, want renewed into the future", loaded.LeaseExpiresAt)
	}

	// A scan that keeps checkpointing must not be reaped mid-flight.
	reaped, err := s.ReapStale(10 * time.Minute)
	if err != nil {
		t.Fatalf("ReapStale() error = %v", err)
	}
	if reaped != 0 {
		t.Errorf("reaped = %d, want 0", reaped)
	}
	loaded, _ = s.GetJob(job.ID)
	if loaded.Status != StatusRunning {
		t.Errorf("status = %s, want running", loaded.Status)
	}
}

func TestFailJob(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if _, err := s.ClaimNextPending("worker-1", time.Minute); err != nil {
		t.Fatalf("ClaimNextPending() error = %v", err)
	}

	if err := s.FailJob(job.ID, "tree fetch failed"); err != nil {
		t.Fatalf("FailJob() error = %v", err)
	}
	loaded, _ := s.GetJob(job.ID)
	if loaded.Status != StatusFailed || loaded.ErrorMessage != "tree fetch failed" {
		t.Errorf("failed job = %+v", loaded)
	}

	// Failing a terminal job must not overwrite the original error.
	if err := s.FailJob(job.ID, "other error"); err != nil {
		t.Fatalf("FailJob() on terminal job error = %v", err)
	}
	loaded, _ = s.GetJob(job.ID)
	if loaded.ErrorMessage != "tree fetch failed" {
		t.Errorf("ErrorMessage = %q, want original message", loaded.ErrorMessage)
	}
}

func TestReapStale(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	stalePending := NewScanJob(repo.ID, ScanFull)
	stalePending.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if err := s.CreateJob(stalePending); err != nil {
		t.Fatalf("CreateJob(stalePending) error = %v", err)
	}

	expiredLease := NewScanJob(repo.ID, ScanFull)
	expiredLease.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if err := s.CreateJob(expiredLease); err != nil {
		t.Fatalf("CreateJob(expiredLease) error = %v", err)
	}

	fresh := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(fresh); err != nil {
		t.Fatalf("CreateJob(fresh) error = %v", err)
	}

	// Claim the older job with a lease that is already over.
	claimed, err := s.ClaimNextPending("worker-1", -time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextPending() error = %v", err)
	}
	if claimed == nil {
		t.Fatal("expected to claim a job")
	}

	reaped, err := s.ReapStale(10 * time.Minute)
	if err != nil {
		t.Fatalf("ReapStale() error = %v", err)
	}
	if reaped != 2 {
		t.Errorf("reaped = %d, want 2", reaped)
	}

	for _, id := range []string{stalePending.ID, expiredLease.ID} {
		job, _ := s.GetJob(id)
		if job.Status != StatusFailed {
			t.Errorf("job %s status = %s, want failed", id, job.Status)
		}
		if !strings.Contains(job.ErrorMessage, "timed out") {
			t.Errorf("job %s error = %q, want timeout message", id, job.ErrorMessage)
		}
	}

	freshLoaded, _ := s.GetJob(fresh.ID)
	if freshLoaded.Status != StatusPending {
		t.Errorf("fresh job status = %s, want pending", freshLoaded.Status)
	}
}

func TestInsertFileAnalysesBatchFallback(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)
	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	analyses := []*FileAnalysis{
		{JobID: job.ID, RepositoryID: repo.ID, Path: "a.go", Language: "go", LineCount: 10},
		{JobID: job.ID, RepositoryID: repo.ID, Path: "", Language: "go", LineCount: 5}, // malformed
		{JobID: job.ID, RepositoryID: repo.ID, Path: "c.go", Language: "go", LineCount: 7},
	}

	inserted, err := s.InsertFileAnalyses(analyses)
	if err != nil {
		t.Fatalf("InsertFileAnalyses() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2 (malformed row dropped, others kept)", inserted)
	}

	rows, err := s.ListFileAnalyses(job.ID)
	if err != nil {
		t.Fatalf("ListFileAnalyses() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Path != "a.go" || rows[1].Path != "c.go" {
		t.Errorf("persisted rows = %+v", rows)
	}
}

func TestInsertFileAnalysesCleanBatch(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)
	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	analyses := []*FileAnalysis{
		{JobID: job.ID, RepositoryID: repo.ID, Path: "a.go", Language: "go", LineCount: 10},
		{JobID: job.ID, RepositoryID: repo.ID, Path: "b.go", Language: "go", LineCount: 20},
	}
	inserted, err := s.InsertFileAnalyses(analyses)
	if err != nil {
		t.Fatalf("InsertFileAnalyses() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}
}

func TestDebtScores(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)

	for i, v := range []float64{50, 70, 90} {
		score := &DebtScore{
			RepositoryID: repo.ID,
			Score:        v,
			RiskZone:     "caution",
			CreatedAt:    time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := s.InsertDebtScore(score); err != nil {
			t.Fatalf("InsertDebtScore() error = %v", err)
		}
	}

	latest, err := s.LatestScorePerRepository()
	if err != nil {
		t.Fatalf("LatestScorePerRepository() error = %v", err)
	}
	if got := latest[repo.ID]; got != 90 {
		t.Errorf("latest score = %v, want 90", got)
	}

	// Company rollup rows have no repository and are excluded from latest.
	if err := s.InsertDebtScore(&DebtScore{Score: 42, RiskZone: "critical"}); err != nil {
		t.Fatalf("InsertDebtScore(rollup) error = %v", err)
	}
	latest, _ = s.LatestScorePerRepository()
	if len(latest) != 1 {
		t.Errorf("latest map = %v, want only the repository entry", latest)
	}

	history, err := s.ListScores(repo.ID, 10)
	if err != nil {
		t.Fatalf("ListScores() error = %v", err)
	}
	if len(history) != 3 || history[0].Score != 90 {
		t.Errorf("history = %+v, want 3 rows newest first", history)
	}

	rollups, err := s.ListScores("", 10)
	if err != nil {
		t.Fatalf("ListScores(company) error = %v", err)
	}
	if len(rollups) != 1 || rollups[0].Score != 42 {
		t.Errorf("rollups = %+v", rollups)
	}
}

func TestAlerts(t *testing.T) {
	s := newTestStore(t)
	repo := newTestRepo(t, s)
	job := NewScanJob(repo.ID, ScanFull)
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	alert := &Alert{
		RepositoryID: repo.ID,
		JobID:        job.ID,
		Type:         "debt_score_low",
		Severity:     "high",
		Message:      "debt score 55.00 below 60",
	}
	if err := s.InsertAlert(alert); err != nil {
		t.Fatalf("InsertAlert() error = %v", err)
	}

	alerts, err := s.ListAlerts(job.ID)
	if err != nil {
		t.Fatalf("ListAlerts() error = %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != "debt_score_low" {
		t.Errorf("alerts = %+v", alerts)
	}
}
