package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dagingaa/bank-transaction-review/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ImportJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)

	handled := make(chan string, 1)
	handler := func(ctx context.Context, job jobs.Job) error {
		handled <- job.GetID()
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.ImportJob{FileName: "export.csv"}
	if err := q.PublishImport(context.Background(), job); err != nil {
		t.Fatalf("PublishImport failed: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("PublishImport did not assign a job ID")
	}

	select {
	case id := <-handled:
		if id != job.JobID {
			t.Errorf("handled job %s, want %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was never handled")
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("completed job is missing timestamps")
	}
	if final.Error != "" {
		t.Errorf("completed job carries an error: %s", final.Error)
	}
}

func TestQueue_FailedJobIsNotRetried(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)

	var mu sync.Mutex
	attempts := 0
	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("parse failed")
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.ImportJob{}
	if err := q.PublishImport(context.Background(), job); err != nil {
		t.Fatalf("PublishImport failed: %v", err)
	}

	final := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if final.Error != "parse failed" {
		t.Errorf("Error = %q, want the handler's message", final.Error)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Errorf("handler ran %d times, want exactly 1", attempts)
	}
}

func TestQueue_OnUpdateSeesTransitions(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, store)

	var mu sync.Mutex
	var seen []jobs.JobStatus
	q.SetOnUpdate(func(job *jobs.ImportJob) {
		mu.Lock()
		seen = append(seen, job.Status)
		mu.Unlock()
	})

	if err := q.Start(context.Background(), func(ctx context.Context, job jobs.Job) error {
		return nil
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer q.Close()

	job := &jobs.ImportJob{}
	if err := q.PublishImport(context.Background(), job); err != nil {
		t.Fatalf("PublishImport failed: %v", err)
	}
	waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != jobs.JobStatusRunning || seen[1] != jobs.JobStatusCompleted {
		t.Errorf("transitions = %v, want [running completed]", seen)
	}
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(4, NewStore())
	if err := q.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := q.PublishImport(context.Background(), &jobs.ImportJob{}); err == nil {
		t.Error("PublishImport succeeded on a stopped queue")
	}
	// Stopping twice is fine.
	if err := q.Stop(context.Background()); err != nil {
		t.Errorf("second Stop errored: %v", err)
	}
}

func TestStore_GetAndList(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.ImportJob{}); err == nil {
		t.Error("SaveJob accepted a job without an ID")
	}

	base := time.Now()
	for i, status := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		job := &jobs.ImportJob{
			JobID:     string(rune('a' + i)),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	got, err := store.GetJob(ctx, "b")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != jobs.JobStatusFailed {
		t.Errorf("Status = %s, want failed", got.Status)
	}
	if _, err := store.GetJob(ctx, "missing"); err == nil {
		t.Error("GetJob found a missing job")
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(all) != 3 || all[0].JobID != "c" || all[2].JobID != "a" {
		t.Errorf("ListJobs order = %v", ids3(all))
	}

	completed, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
	if len(completed) != 2 {
		t.Errorf("got %d completed jobs, want 2", len(completed))
	}

	paged, _ := store.ListJobs(ctx, jobs.JobFilter{Offset: 1, Limit: 1})
	if len(paged) != 1 || paged[0].JobID != "b" {
		t.Errorf("paged = %v", ids3(paged))
	}

	empty, _ := store.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	if len(empty) != 0 {
		t.Errorf("out-of-range offset returned %d jobs", len(empty))
	}
}

func ids3(list []*jobs.ImportJob) []string {
	out := make([]string, len(list))
	for i, j := range list {
		out[i] = j.JobID
	}
	return out
}
