package models

import "time"

// JobStatus is the lifecycle state of a directory processing job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// FileStatus is the terminal state of a single file within a job.
type FileStatus string

const (
	FilePending   FileStatus = "pending"
	FileRunning   FileStatus = "running"
	FileSucceeded FileStatus = "succeeded"
	FilePartial   FileStatus = "partial"
	FileFailed    FileStatus = "failed"
)

// OutcomeStatus records how a single cog fared on a single file.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Skip reasons attached to skipped cog outcomes.
const (
	SkipMissingDependency = "missing dependency"
	SkipAlreadyPresent    = "already present"
	SkipFallbackSatisfied = "fallback already satisfied"
)

// CogOutcome is the per-cog result recorded on a file task.
type CogOutcome struct {
	Cog    string        `json:"cog"`
	Status OutcomeStatus `json:"status"`
	Reason string        `json:"reason,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// FileTask is one file moving through the pipeline: its tag store plus
// the outcome of every cog that looked at it.
type FileTask struct {
	ID       string
	Source   string
	Store    *Store
	Status   FileStatus
	Output   string
	Outcomes []CogOutcome
	Err      string
}

// NewFileTask creates a pending task for the given source path.
func NewFileTask(id, source string) *FileTask {
	return &FileTask{
		ID:     id,
		Source: source,
		Store:  NewStore(),
		Status: FilePending,
	}
}

// Record appends a cog outcome to the task.
func (t *FileTask) Record(outcome CogOutcome) {
	t.Outcomes = append(t.Outcomes, outcome)
}

// Failed reports whether any recorded cog outcome is a failure.
func (t *FileTask) Failed() bool {
	for _, o := range t.Outcomes {
		if o.Status == OutcomeFailed {
			return true
		}
	}
	return false
}

// Summary reduces the task to its reportable result.
func (t *FileTask) Summary() FileResult {
	return FileResult{
		Source:   t.Source,
		Status:   t.Status,
		Output:   t.Output,
		Error:    t.Err,
		Outcomes: t.Outcomes,
	}
}

// FileResult is the per-file entry in a job's result payload.
type FileResult struct {
	Source   string       `json:"source"`
	Status   FileStatus   `json:"status"`
	Output   string       `json:"output,omitempty"`
	Error    string       `json:"error,omitempty"`
	Outcomes []CogOutcome `json:"outcomes,omitempty"`
}

// Job is one directory processing run tracked by the job manager.
type Job struct {
	ID        string       `json:"id"`
	Status    JobStatus    `json:"status"`
	Progress  float64      `json:"progress"`
	Processed int          `json:"processed"`
	Total     int          `json:"total"`
	Files     []FileResult `json:"files,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}
