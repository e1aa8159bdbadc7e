package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// Manager tracks processing jobs in memory. Jobs exist for the life of
// the process; there is no durable history.
type Manager struct {
	mu        sync.RWMutex
	jobs      map[string]*jobState
	processor Processor
	logger    *log.Logger
}

type jobState struct {
	job    models.Job
	opts   ProcessOpts
	cancel context.CancelFunc
}

// NewManager creates a job manager over the given processor.
func NewManager(processor Processor, logger *log.Logger) *Manager {
	return &Manager{
		jobs:      map[string]*jobState{},
		processor: processor,
		logger:    logger,
	}
}

// Create registers a pending job for the given options and returns its
// snapshot. The job does not run until Start.
func (m *Manager) Create(opts ProcessOpts) models.Job {
	job := models.Job{
		ID:        shared.GenerateID(),
		Status:    models.JobPending,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = &jobState{job: job, opts: opts}
	m.mu.Unlock()

	return job
}

// Start launches a pending job in the background. ctx bounds the whole
// run; cancelling it (or calling Cancel) stops the job cooperatively.
func (m *Manager) Start(ctx context.Context, jobID string) error {
	m.mu.Lock()

	state, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, jobID)
	}

	if state.job.Status != models.JobPending {
		m.mu.Unlock()
		return fmt.Errorf("%w: job %s is %s", shared.ErrJobNotIdle, jobID, state.job.Status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	state.cancel = cancel
	state.job.Status = models.JobProcessing
	m.mu.Unlock()

	go m.run(runCtx, jobID, state.opts)

	return nil
}

func (m *Manager) run(ctx context.Context, jobID string, opts ProcessOpts) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("job panicked", "job", jobID, "panic", r)
			m.finish(jobID, nil, fmt.Errorf("job panicked: %v", r))
		}
	}()

	prog := make(chan ProgressUpdate, 64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			m.observe(jobID, update)
		}
	}()

	result, err := m.processor.Process(ctx, prog, opts)
	close(prog)
	wg.Wait()

	m.finish(jobID, result, err)
}

// observe folds a progress update into the job snapshot. Progress only
// moves forward: stale updates from racing workers never wind it back.
func (m *Manager) observe(jobID string, update ProgressUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[jobID]
	if !ok {
		return
	}

	if update.Total > 0 {
		state.job.Total = update.Total
	}

	if update.Phase == FileDone && update.Step > state.job.Processed {
		state.job.Processed = update.Step
	}

	if state.job.Total > 0 {
		progress := float64(state.job.Processed) / float64(state.job.Total)
		if progress > state.job.Progress {
			state.job.Progress = progress
		}
	}
}

func (m *Manager) finish(jobID string, result *Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[jobID]
	if !ok {
		return
	}

	if result != nil {
		state.job.Files = result.Files
		state.job.Total = result.Total
		state.job.Processed = len(result.Files)
	}

	switch {
	case err == nil:
		// files that individually failed still leave the job completed
		state.job.Status = models.JobCompleted
		state.job.Progress = 1
	case errors.Is(err, context.Canceled):
		state.job.Status = models.JobCancelled
		state.job.Error = "job cancelled"
	default:
		state.job.Status = models.JobFailed
		state.job.Error = err.Error()
	}

	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
}

// Status returns a snapshot of the job.
func (m *Manager) Status(jobID string) (models.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.jobs[jobID]
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", shared.ErrJobNotFound, jobID)
	}

	return snapshot(state.job), nil
}

// List returns snapshots of all known jobs, newest first.
func (m *Manager) List() []models.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Job, 0, len(m.jobs))
	for _, state := range m.jobs {
		out = append(out, snapshot(state.job))
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// Cancel stops a running job. Terminal jobs cannot be cancelled.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, jobID)
	}

	if state.job.Terminal() {
		return fmt.Errorf("%w: job %s already %s", shared.ErrJobCancelled, jobID, state.job.Status)
	}

	if state.cancel != nil {
		state.cancel()
	}

	// pending jobs have no run to wind down
	if state.job.Status == models.JobPending {
		state.job.Status = models.JobCancelled
	}

	return nil
}

// snapshot copies the job so callers cannot mutate manager state
// through the returned slices.
func snapshot(job models.Job) models.Job {
	out := job
	out.Files = make([]models.FileResult, len(job.Files))
	copy(out.Files, job.Files)
	return out
}
