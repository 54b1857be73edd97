package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yuvalcohen1/Cash-Flow/internal/jobs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var processed atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		processed.Add(1)
		return nil
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	job := &jobs.GenerateReportJob{UserID: "user-1"}
	if err := queue.PublishGenerateReport(ctx, job); err != nil {
		t.Fatalf("PublishGenerateReport() returned error: %v", err)
	}

	if job.JobID == "" {
		t.Error("Expected a generated job ID")
	}
	if job.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", job.MaxRetries)
	}

	waitFor(t, 2*time.Second, func() bool { return processed.Load() == 1 })

	waitFor(t, 2*time.Second, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	})
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	queue := NewQueue(10, store)
	defer queue.Close()

	var attempts atomic.Int32
	handler := func(ctx context.Context, job jobs.Job) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	}

	ctx := context.Background()
	if err := queue.Start(ctx, handler); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	job := &jobs.GenerateReportJob{UserID: "user-1"}
	if err := queue.PublishGenerateReport(ctx, job); err != nil {
		t.Fatalf("PublishGenerateReport() returned error: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool { return attempts.Load() >= 2 })

	waitFor(t, 5*time.Second, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	})
}

func TestQueueRejectsAfterClose(t *testing.T) {
	queue := NewQueue(1, NewStore())
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	err := queue.PublishGenerateReport(context.Background(), &jobs.GenerateReportJob{UserID: "user-1"})
	if err == nil {
		t.Fatal("Expected error publishing to a closed queue")
	}
}

func TestStoreFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.GenerateReportJob{
		{JobID: "j1", UserID: "user-1", Status: jobs.JobStatusPending},
		{JobID: "j2", UserID: "user-1", Status: jobs.JobStatusCompleted},
		{JobID: "j3", UserID: "user-2", Status: jobs.JobStatusPending},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob() returned error: %v", err)
		}
	}

	byUser, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ListJobs() returned error: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("Expected 2 jobs for user-1, got %d", len(byUser))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("ListJobs() returned error: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("Expected 2 pending jobs, got %d", len(byStatus))
	}

	limited, err := store.ListJobs(ctx, jobs.JobFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListJobs() returned error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected 1 job with limit, got %d", len(limited))
	}
}

func TestStoreCopiesJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.GenerateReportJob{JobID: "j1", UserID: "user-1", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() returned error: %v", err)
	}

	// Mutating the original must not affect the stored copy
	job.Status = jobs.JobStatusFailed

	saved, err := store.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob() returned error: %v", err)
	}
	if saved.Status != jobs.JobStatusPending {
		t.Errorf("Stored status = %q, want pending", saved.Status)
	}
}

func TestStoreUpdateStatus(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.GenerateReportJob{JobID: "j1", Status: jobs.JobStatusRunning}); err != nil {
		t.Fatalf("SaveJob() returned error: %v", err)
	}

	if err := store.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "model unavailable"); err != nil {
		t.Fatalf("UpdateJobStatus() returned error: %v", err)
	}

	saved, err := store.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob() returned error: %v", err)
	}
	if saved.Status != jobs.JobStatusFailed || saved.Error != "model unavailable" {
		t.Errorf("Unexpected saved job: %+v", saved)
	}

	if err := store.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("Expected error updating a missing job")
	}
}
