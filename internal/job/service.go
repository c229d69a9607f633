package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/audiosplit/internal/audio"
	"github.com/maauso/audiosplit/internal/metrics"
	"github.com/maauso/audiosplit/internal/storage"
)

// ErrJobInProgress is returned when a job is submitted while another one
// has not finished yet.
var ErrJobInProgress = errors.New("another split job is in progress")

// SplitInput contains the input parameters for a split job.
type SplitInput struct {
	// Source is a local file path or an s3://bucket/key URL.
	Source string `validate:"required,audioext"`
	// MaxSegmentSec is the maximum segment length in seconds.
	MaxSegmentSec int `validate:"gt=0"`
}

// Progress is delivered to the caller of Run after every state change
// and after every written segment.
type Progress struct {
	JobID  string
	Status Status
	// Percent is segments written / total segments * 100.
	Percent float64
	// Done and Total count segments; both are zero before planning.
	Done  int
	Total int
	// Output is the last segment file written, if any.
	Output string
}

// ProgressFunc receives progress updates from the worker running a job.
type ProgressFunc func(Progress)

// SplitService runs split jobs: it resolves the source, probes its
// duration, plans segments and extracts them one after another.
// Only one job may be active at a time.
type SplitService struct {
	repo     Repository
	store    storage.Storage
	prober   audio.Prober
	splitter audio.Splitter
	validate *validator.Validate
	logger   *slog.Logger

	// submitMu serializes the active-job check with saving the new job.
	submitMu sync.Mutex
}

// NewSplitService creates a new SplitService.
func NewSplitService(
	repo Repository,
	store storage.Storage,
	prober audio.Prober,
	splitter audio.Splitter,
	logger *slog.Logger,
) *SplitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitService{
		repo:     repo,
		store:    store,
		prober:   prober,
		splitter: splitter,
		validate: NewValidator(),
		logger:   logger,
	}
}

// Submit validates input and stores a new IDLE job.
// Returns ErrJobInProgress if another job has not finished.
func (s *SplitService) Submit(ctx context.Context, input SplitInput) (*Job, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", audio.ErrInvalidInput, err)
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	active, err := s.repo.FindActive(ctx)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrJobInProgress, active.ID)
	case !errors.Is(err, ErrJobNotFound):
		return nil, fmt.Errorf("find active job: %w", err)
	}

	job := New()
	job.Source = input.Source
	job.MaxSegmentSec = input.MaxSegmentSec

	s.logger.Info("creating new split job",
		slog.String("job_id", job.ID),
		slog.String("source", input.Source),
		slog.Int("max_segment_sec", input.MaxSegmentSec),
	)

	if err := s.repo.Save(ctx, job); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return job, nil
}

// GetJob retrieves a job by ID.
func (s *SplitService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ListJobs returns all jobs, oldest first.
func (s *SplitService) ListJobs(ctx context.Context) ([]*Job, error) {
	return s.repo.List(ctx)
}

// Split submits and runs a job, blocking until it finishes.
func (s *SplitService) Split(ctx context.Context, input SplitInput, onProgress ProgressFunc) (*Job, error) {
	job, err := s.Submit(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, job.ID, onProgress)
}

// Run drives a submitted job to DONE or FAILED, blocking until then.
// It aborts on the first error, which is recorded on the job and returned
// unchanged. onProgress may be nil.
func (s *SplitService) Run(ctx context.Context, jobID string, onProgress ProgressFunc) (*Job, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()
	started := time.Now()

	w := &worker{service: s, job: job, onProgress: onProgress}
	runErr := w.run(ctx)
	metrics.JobDuration.Observe(time.Since(started).Seconds())

	if runErr != nil {
		if err := job.Fail(runErr.Error()); err != nil {
			s.logger.Error("failed to mark job as failed",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
		w.save(ctx)
		w.notify(Progress{Percent: float64(job.Progress)})
		metrics.JobsTotal.WithLabelValues(string(StatusFailed)).Inc()

		s.logger.Error("split job failed",
			slog.String("job_id", job.ID),
			slog.String("error", runErr.Error()),
		)
		return job.Clone(), runErr
	}

	metrics.JobsTotal.WithLabelValues(string(StatusDone)).Inc()
	s.logger.Info("split job completed",
		slog.String("job_id", job.ID),
		slog.String("output_dir", job.OutputDir),
		slog.Int("segments", len(job.Segments)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return job.Clone(), nil
}

// worker holds the state of a single Run call. Only the worker goroutine
// mutates job; readers see clones through the repository.
type worker struct {
	service    *SplitService
	job        *Job
	onProgress ProgressFunc
}

func (w *worker) run(ctx context.Context) error {
	s := w.service

	if err := w.advance(ctx, StatusProbing); err != nil {
		return err
	}

	src, err := s.store.Fetch(ctx, w.job.Source)
	if err != nil {
		if errors.Is(err, storage.ErrSourceNotFound) {
			return fmt.Errorf("%w: %w", audio.ErrFileMissing, err)
		}
		return fmt.Errorf("fetch source: %w", err)
	}
	if src.Temporary {
		defer func() {
			if err := s.store.CleanupTemp(context.WithoutCancel(ctx), []string{src.Path}); err != nil {
				s.logger.Warn("failed to remove staged source",
					slog.String("job_id", w.job.ID),
					slog.String("path", src.Path),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
	w.job.SetSource(src.Path)

	duration, err := s.prober.Duration(ctx, src.Path)
	if err != nil {
		return err
	}
	w.job.SetDuration(duration)
	s.logger.Info("probed source duration",
		slog.String("job_id", w.job.ID),
		slog.String("path", src.Path),
		slog.Float64("duration_sec", duration),
	)

	if err := w.advance(ctx, StatusPlanning); err != nil {
		return err
	}

	segments, err := audio.Plan(duration, w.job.MaxSegmentSec)
	if err != nil {
		return err
	}
	file := audio.NewSourceFile(src.Path, duration)
	outputDir := file.OutputDir()

	records := make([]Segment, len(segments))
	for i, seg := range segments {
		records[i] = Segment{
			Index:      seg.Index,
			Start:      seg.Start,
			End:        seg.End,
			Status:     SegmentStatusPending,
			OutputPath: file.SegmentPath(outputDir, seg.Index),
		}
	}
	w.job.SetPlan(outputDir, records)

	if err := w.advance(ctx, StatusTranscoding); err != nil {
		return err
	}

	_, err = s.splitter.Extract(ctx, file, segments, outputDir, func(p audio.SegmentProgress) {
		w.job.UpdateSegment(p.Done, SegmentStatusWritten)
		w.job.UpdateProgress(int(p.Percent()))
		w.save(ctx)
		w.notify(Progress{Percent: p.Percent(), Done: p.Done, Total: p.Total, Output: p.Output})
	})
	if err != nil {
		var tErr *audio.TranscodeError
		if errors.As(err, &tErr) {
			w.job.UpdateSegment(tErr.Index, SegmentStatusFailed)
		}
		return err
	}

	if err := w.job.Complete(); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	w.save(ctx)
	w.notify(Progress{Percent: 100, Done: len(segments), Total: len(segments)})
	return nil
}

// advance transitions the job, stores it and notifies the caller.
func (w *worker) advance(ctx context.Context, status Status) error {
	if err := w.job.TransitionTo(status); err != nil {
		return fmt.Errorf("transition %s to %s: %w", w.job.GetStatus(), status, err)
	}
	w.save(ctx)
	w.notify(Progress{})
	return nil
}

func (w *worker) save(ctx context.Context) {
	if err := w.service.repo.Save(context.WithoutCancel(ctx), w.job); err != nil {
		w.service.logger.Error("failed to save job",
			slog.String("job_id", w.job.ID),
			slog.String("error", err.Error()),
		)
	}
}

// notify fills in the job ID and status and calls the progress callback.
func (w *worker) notify(p Progress) {
	if w.onProgress == nil {
		return
	}
	p.JobID = w.job.ID
	p.Status = w.job.GetStatus()
	w.onProgress(p)
}
