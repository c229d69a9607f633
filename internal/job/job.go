// Package job provides the split Job aggregate, its state machine and the
// SplitService that drives a job from probing to the final segment.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/audiosplit/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusIdle indicates the job was accepted but has not started.
	StatusIdle Status = "IDLE"
	// StatusProbing indicates the source duration is being probed.
	StatusProbing Status = "PROBING"
	// StatusPlanning indicates segment boundaries are being computed.
	StatusPlanning Status = "PLANNING"
	// StatusTranscoding indicates segments are being extracted.
	StatusTranscoding Status = "TRANSCODING"
	// StatusDone indicates every segment was written.
	StatusDone Status = "DONE"
	// StatusFailed indicates the job stopped on its first error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusIdle:        {StatusProbing, StatusFailed},
	StatusProbing:     {StatusPlanning, StatusFailed},
	StatusPlanning:    {StatusTranscoding, StatusFailed},
	StatusTranscoding: {StatusDone, StatusFailed},
	StatusDone:        {},
	StatusFailed:      {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// SegmentStatus represents the status of a single output segment.
type SegmentStatus string

const (
	// SegmentStatusPending indicates the segment has not been extracted yet.
	SegmentStatusPending SegmentStatus = "PENDING"
	// SegmentStatusWritten indicates the segment file was written.
	SegmentStatusWritten SegmentStatus = "WRITTEN"
	// SegmentStatusFailed indicates extraction of the segment failed.
	SegmentStatusFailed SegmentStatus = "FAILED"
)

// Segment tracks one planned output file of a job.
type Segment struct {
	// Index is the 1-based position of the segment.
	Index int
	// Start is the start offset in seconds.
	Start float64
	// End is the end offset in seconds.
	End float64
	// Status is the extraction status.
	Status SegmentStatus
	// OutputPath is the file the segment is written to.
	OutputPath string
}

// Job represents a single split run.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Source is the source as requested (local path or s3:// URL).
	Source string
	// SourcePath is the local file being split.
	SourcePath string
	// MaxSegmentSec is the maximum segment length in seconds.
	MaxSegmentSec int
	// Duration is the probed source duration in seconds.
	Duration float64
	// OutputDir is the directory segments are written to.
	OutputDir string
	// Segments contains the planned segments.
	Segments []Segment
	// Progress is the percentage of completion (0-100).
	Progress int
	// Error contains the error message if the job failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when probing started.
	StartedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID in IDLE status.
func New() *Job {
	return NewWithID(id.Generate())
}

// NewWithID creates a new Job with the specified ID in IDLE status.
// Useful for testing or when ID needs to be externally generated.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusIdle,
		Segments:  make([]Segment, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(status)
}

func (j *Job) transitionLocked(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusProbing:
		j.StartedAt = j.UpdatedAt
	case StatusDone, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Complete transitions the job to DONE and sets progress to 100.
// Returns ErrInvalidTransition if the job is not transcoding.
func (j *Job) Complete() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusDone); err != nil {
		return err
	}
	j.Progress = 100
	return nil
}

// Fail transitions the job to FAILED with an error message.
// Returns ErrInvalidTransition if the job is already terminal.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.transitionLocked(StatusFailed); err != nil {
		return err
	}
	j.Error = errMsg
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetSource records the resolved local source file.
func (j *Job) SetSource(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.SourcePath = path
	j.UpdatedAt = time.Now()
}

// SetDuration records the probed duration.
func (j *Job) SetDuration(seconds float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Duration = seconds
	j.UpdatedAt = time.Now()
}

// SetPlan records the output directory and planned segments.
func (j *Job) SetPlan(outputDir string, segments []Segment) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputDir = outputDir
	j.Segments = segments
	j.UpdatedAt = time.Now()
}

// UpdateSegment sets the status of the segment with the given 1-based index.
func (j *Job) UpdateSegment(index int, status SegmentStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if index >= 1 && index <= len(j.Segments) {
		j.Segments[index-1].Status = status
		j.UpdatedAt = time.Now()
	}
}

// UpdateProgress sets the progress percentage (0-100).
func (j *Job) UpdateProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusDone || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	segments := make([]Segment, len(j.Segments))
	copy(segments, j.Segments)

	return &Job{
		ID:            j.ID,
		Status:        j.Status,
		Source:        j.Source,
		SourcePath:    j.SourcePath,
		MaxSegmentSec: j.MaxSegmentSec,
		Duration:      j.Duration,
		OutputDir:     j.OutputDir,
		Segments:      segments,
		Progress:      j.Progress,
		Error:         j.Error,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
	}
}
