// Package server provides the HTTP surface of the audio splitter.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// CreateJobRequest is the HTTP request body for creating a new split job.
type CreateJobRequest struct {
	// Source is a local path or s3://bucket/key URL of the audio file.
	Source string `json:"source" validate:"required,audioext"`
	// MaxMinutes is the maximum segment length in minutes.
	// Zero selects the server default.
	MaxMinutes int `json:"max_minutes" validate:"omitempty,min=1,max=1440"`
}

// CreateJobResponse is the HTTP response after creating a job.
type CreateJobResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// SegmentResponse describes one planned segment of a job.
type SegmentResponse struct {
	Index  int     `json:"index"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Status string  `json:"status"`
	Output string  `json:"output,omitempty"`
}

// JobResponse is the HTTP response for getting job details.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// Source is the source as submitted.
	Source string `json:"source"`
	// MaxSegmentSec is the maximum segment length in seconds.
	MaxSegmentSec int `json:"max_segment_sec"`
	// Duration is the probed source duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// OutputDir is where segment files are written.
	OutputDir string `json:"output_dir,omitempty"`
	// Segments lists the planned segments once planning has finished.
	Segments []SegmentResponse `json:"segments,omitempty"`
	// Error contains the error message if the job failed.
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
