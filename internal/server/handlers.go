package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/audiosplit/internal/audio"
	"github.com/maauso/audiosplit/internal/job"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.SplitService
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
	defaultMaxSec      int

	// baseCtx is the parent of every background job. Cancelling it
	// aborts running jobs, which then fail with the context error.
	baseCtx context.Context
	running sync.WaitGroup
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateJob only creates the job and returns immediately
// without running it.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// WithDefaultMaxSegmentSec sets the segment length used when a request
// omits max_minutes.
func WithDefaultMaxSegmentSec(sec int) HandlerOption {
	return func(h *Handlers) {
		if sec > 0 {
			h.defaultMaxSec = sec
		}
	}
}

// WithBaseContext sets the context background jobs run under.
// Jobs are not tied to the request that created them; cancel ctx to stop
// them on shutdown.
func WithBaseContext(ctx context.Context) HandlerOption {
	return func(h *Handlers) {
		if ctx != nil {
			h.baseCtx = ctx
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.SplitService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		validator:          job.NewValidator(),
		logger:             logger,
		enableAsyncProcess: true,
		defaultMaxSec:      audio.DefaultMaxSegmentSec,
		baseCtx:            context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateJob handles POST /jobs requests.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	input := job.SplitInput{
		Source:        req.Source,
		MaxSegmentSec: h.defaultMaxSec,
	}
	if req.MaxMinutes > 0 {
		input.MaxSegmentSec = req.MaxMinutes * 60
	}

	createdJob, err := h.service.Submit(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobInProgress):
			writeError(w, http.StatusConflict, err.Error(), "JOB_IN_PROGRESS")
		case errors.Is(err, audio.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		default:
			h.logger.Error("failed to create job",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		}
		return
	}

	if h.enableAsyncProcess {
		h.running.Add(1)
		go func(ctx context.Context, jobID string) {
			defer h.running.Done()
			if _, runErr := h.service.Run(ctx, jobID, nil); runErr != nil {
				h.logger.Error("background split failed",
					slog.String("job_id", jobID),
					slog.String("error", runErr.Error()),
				)
			}
		}(h.baseCtx, createdJob.ID)
	}

	h.logger.Info("job created",
		slog.String("job_id", createdJob.ID),
		slog.String("source", createdJob.Source),
		slog.Int("max_segment_sec", createdJob.MaxSegmentSec),
	)

	writeJSON(w, http.StatusAccepted, CreateJobResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// Wait blocks until every background job has returned or ctx is done.
func (h *Handlers) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

// GetJob handles GET /jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(foundJob))
}

// ListJobs handles GET /jobs requests.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_FETCH_FAILED")
		return
	}

	resp := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:            j.ID,
		Status:        string(j.Status),
		Progress:      j.Progress,
		Source:        j.Source,
		MaxSegmentSec: j.MaxSegmentSec,
		Duration:      j.Duration,
		OutputDir:     j.OutputDir,
		Error:         j.Error,
		CreatedAt:     j.CreatedAt,
	}
	if !j.CompletedAt.IsZero() {
		completed := j.CompletedAt
		resp.CompletedAt = &completed
	}
	for _, seg := range j.Segments {
		resp.Segments = append(resp.Segments, SegmentResponse{
			Index:  seg.Index,
			Start:  seg.Start,
			End:    seg.End,
			Status: string(seg.Status),
			Output: seg.OutputPath,
		})
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
