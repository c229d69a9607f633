package audio

import (
	"errors"
	"fmt"
)

// Static errors for split operations.
var (
	// ErrInvalidInput is returned when the duration or segment length is not positive.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFileMissing is returned when the source file or a required tool is absent.
	ErrFileMissing = errors.New("file missing")
	// ErrDurationUnavailable is returned when no probing strategy yields a duration.
	ErrDurationUnavailable = errors.New("duration unavailable")
)

// TranscodeError is returned when ffmpeg exits non-zero while extracting a segment.
type TranscodeError struct {
	// Index is the 1-based segment index that failed.
	Index int
	// Output is the file ffmpeg was asked to write.
	Output   string
	ExitCode int
	// Stderr is the diagnostic output captured from ffmpeg.
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode segment %d failed (exit code %d): %s", e.Index, e.ExitCode, e.Stderr)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
