package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// fakeProcessor is a controllable Processor for manager tests.
type fakeProcessor struct {
	result  *Result
	err     error
	block   chan struct{} // closed to let Process return; nil runs immediately
	started chan struct{}
}

func (f *fakeProcessor) Process(ctx context.Context, prog chan<- ProgressUpdate, opts ProcessOpts) (*Result, error) {
	if f.started != nil {
		close(f.started)
	}

	if f.result != nil {
		for i := 1; i <= f.result.Total; i++ {
			sendProgress(prog, ProgressUpdate{Phase: FileDone, Step: i, Total: f.result.Total})
		}
	}

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.result, f.err
}

func testManager(p Processor) *Manager {
	return NewManager(p, log.New(io.Discard))
}

func waitForStatus(t *testing.T, m *Manager, jobID string, want models.JobStatus) models.Job {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		job, err := m.Status(jobID)
		if err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if job.Status == want {
			return job
		}

		select {
		case <-deadline:
			t.Fatalf("job never reached %s, stuck at %s", want, job.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	proc := &fakeProcessor{result: &Result{
		Total: 3,
		Files: []models.FileResult{
			{Source: "a.flac", Status: models.FileSucceeded},
			{Source: "b.flac", Status: models.FileSucceeded},
			{Source: "c.flac", Status: models.FileFailed, Error: "no match"},
		},
		Succeeded: 2,
		Failed:    1,
	}}

	m := testManager(proc)

	job := m.Create(ProcessOpts{InputDir: "/music"})
	if job.Status != models.JobPending {
		t.Fatalf("new job should be pending, got %s", job.Status)
	}

	if err := m.Start(context.Background(), job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := waitForStatus(t, m, job.ID, models.JobCompleted)

	// one file failing does not fail the job
	if done.Processed != 3 || done.Progress != 1 {
		t.Errorf("expected full progress, got processed=%d progress=%f", done.Processed, done.Progress)
	}

	if len(done.Files) != 3 {
		t.Errorf("expected 3 file results, got %d", len(done.Files))
	}
}

func TestManagerUnknownJob(t *testing.T) {
	m := testManager(&fakeProcessor{})

	if _, err := m.Status("nope"); !errors.Is(err, shared.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}

	if err := m.Start(context.Background(), "nope"); !errors.Is(err, shared.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}

	if err := m.Cancel("nope"); !errors.Is(err, shared.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestManagerStartTwice(t *testing.T) {
	proc := &fakeProcessor{block: make(chan struct{}), started: make(chan struct{})}
	m := testManager(proc)

	job := m.Create(ProcessOpts{})
	if err := m.Start(context.Background(), job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-proc.started

	if err := m.Start(context.Background(), job.ID); !errors.Is(err, shared.ErrJobNotIdle) {
		t.Errorf("expected ErrJobNotIdle, got %v", err)
	}

	close(proc.block)
}

func TestManagerCancelRunningJob(t *testing.T) {
	proc := &fakeProcessor{block: make(chan struct{}), started: make(chan struct{})}
	m := testManager(proc)

	job := m.Create(ProcessOpts{})
	if err := m.Start(context.Background(), job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-proc.started

	if err := m.Cancel(job.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	waitForStatus(t, m, job.ID, models.JobCancelled)
}

func TestManagerJobFailure(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("input directory unreadable")}
	m := testManager(proc)

	job := m.Create(ProcessOpts{})
	if err := m.Start(context.Background(), job.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	failed := waitForStatus(t, m, job.ID, models.JobFailed)
	if failed.Error == "" {
		t.Error("expected failure reason on the job")
	}
}

func TestManagerProgressIsolation(t *testing.T) {
	first := &fakeProcessor{result: &Result{Total: 4}}
	m := testManager(first)

	a := m.Create(ProcessOpts{})
	b := m.Create(ProcessOpts{})

	if err := m.Start(context.Background(), a.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitForStatus(t, m, a.ID, models.JobCompleted)

	got, err := m.Status(b.ID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if got.Progress != 0 || got.Processed != 0 {
		t.Errorf("job b picked up job a's progress: %+v", got)
	}
}

func TestManagerListNewestFirst(t *testing.T) {
	m := testManager(&fakeProcessor{})

	m.Create(ProcessOpts{})
	time.Sleep(2 * time.Millisecond)
	second := m.Create(ProcessOpts{})

	jobs := m.List()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	if jobs[0].ID != second.ID {
		t.Error("expected newest job first")
	}
}
