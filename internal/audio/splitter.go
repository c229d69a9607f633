package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maauso/audiosplit/internal/media"
	"github.com/maauso/audiosplit/internal/metrics"
)

// DefaultFormats maps source extensions to the ffmpeg muxer used for the
// segment files. Extensions not listed are left to ffmpeg to infer.
func DefaultFormats() map[string]string {
	return map[string]string{
		".m4a":  "mp4",
		".ogg":  "ogg",
		".mp3":  "mp3",
		".wav":  "wav",
		".flac": "flac",
		".aac":  "adts",
		".wma":  "asf",
		".opus": "opus",
	}
}

// SegmentProgress reports that a segment has been written.
type SegmentProgress struct {
	// Done is the number of segments written so far.
	Done int
	// Total is the number of planned segments.
	Total int
	// Output is the file that was just written.
	Output string
}

// Percent returns Done/Total as a percentage.
func (p SegmentProgress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// Splitter extracts planned segments from a source file.
type Splitter interface {
	// Extract writes one file per segment into outputDir, in order, creating
	// outputDir if needed. onSegment, if non-nil, is called after each segment
	// is written. Extraction stops at the first failure; files already
	// written are left in place.
	//
	// Returns the paths of the written files.
	Extract(ctx context.Context, src SourceFile, segments []Segment, outputDir string, onSegment func(SegmentProgress)) ([]string, error)
}

// FFmpegSplitter implements Splitter using ffmpeg stream copy.
type FFmpegSplitter struct {
	locator media.ToolLocator
	formats map[string]string
	logger  *slog.Logger
}

// SplitterOption configures an FFmpegSplitter.
type SplitterOption func(*FFmpegSplitter)

// WithFormats replaces the extension to muxer table.
func WithFormats(formats map[string]string) SplitterOption {
	return func(s *FFmpegSplitter) {
		s.formats = maps.Clone(formats)
	}
}

// WithLogger sets the logger used for per-segment debug output.
func WithLogger(logger *slog.Logger) SplitterOption {
	return func(s *FFmpegSplitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFFmpegSplitter creates a new FFmpegSplitter.
// If locator is nil, ffmpeg is looked up on the system PATH.
func NewFFmpegSplitter(locator media.ToolLocator, opts ...SplitterOption) *FFmpegSplitter {
	if locator == nil {
		locator = media.SystemLocator{}
	}
	s := &FFmpegSplitter{
		locator: locator,
		formats: DefaultFormats(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract implements Splitter.Extract.
func (s *FFmpegSplitter) Extract(ctx context.Context, src SourceFile, segments []Segment, outputDir string, onSegment func(SegmentProgress)) ([]string, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments to extract", ErrInvalidInput)
	}

	ffmpeg, err := s.locator.Locate(media.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileMissing, err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	outputs := make([]string, 0, len(segments))
	for _, seg := range segments {
		output := src.SegmentPath(outputDir, seg.Index)

		if err := s.extractSegment(ctx, ffmpeg, src, seg, output); err != nil {
			return outputs, err
		}
		outputs = append(outputs, output)
		metrics.SegmentsWrittenTotal.Inc()

		if onSegment != nil {
			onSegment(SegmentProgress{
				Done:   len(outputs),
				Total:  len(segments),
				Output: output,
			})
		}
	}

	return outputs, nil
}

// extractSegment runs one ffmpeg stream-copy invocation for seg.
func (s *FFmpegSplitter) extractSegment(ctx context.Context, ffmpeg string, src SourceFile, seg Segment, output string) error {
	args := s.segmentArgs(src, seg, output)

	s.logger.Debug("extracting segment",
		slog.Int("index", seg.Index),
		slog.Float64("start", seg.Start),
		slog.Float64("end", seg.End),
		slog.String("output", output),
	)

	start := time.Now()
	_, err := media.Run(ctx, ffmpeg, args)
	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	var toolErr *media.ToolError
	if errors.As(err, &toolErr) {
		return &TranscodeError{
			Index:    seg.Index,
			Output:   output,
			ExitCode: toolErr.ExitCode,
			Stderr:   toolErr.Stderr,
			Err:      toolErr,
		}
	}
	return fmt.Errorf("extract segment %d: %w", seg.Index, err)
}

// segmentArgs builds the ffmpeg arguments for one segment. Seeking happens
// after -i so cuts are exact, and -copyts keeps the source timestamps.
func (s *FFmpegSplitter) segmentArgs(src SourceFile, seg Segment, output string) []string {
	args := []string{
		"-y", // Overwrite output
		"-i", src.Path,
		"-ss", formatSeconds(seg.Start),
		"-to", formatSeconds(seg.End),
		"-c", "copy", // Copy without re-encoding
		"-copyts",
	}
	if muxer, ok := s.formats[strings.ToLower(src.Ext)]; ok {
		args = append(args, "-f", muxer)
	}
	return append(args, output)
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', -1, 64)
}

// Verify interface implementation at compile time.
var _ Splitter = (*FFmpegSplitter)(nil)
