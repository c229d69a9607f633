package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/maauso/audiosplit/internal/media"
	"github.com/maauso/audiosplit/internal/metrics"
)

// Prober returns the total duration of a media file.
type Prober interface {
	// Duration returns the duration of the file at path in seconds.
	// Returns an error wrapping ErrDurationUnavailable if it cannot be determined.
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobeProber implements Prober with ffprobe. It first reads the stream
// and format metadata as JSON and falls back to a bare format=duration query.
type FFprobeProber struct {
	locator media.ToolLocator
	logger  *slog.Logger
}

// NewFFprobeProber creates a new FFprobeProber.
// If locator is nil, ffprobe is looked up on the system PATH.
func NewFFprobeProber(locator media.ToolLocator, logger *slog.Logger) *FFprobeProber {
	if locator == nil {
		locator = media.SystemLocator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFprobeProber{locator: locator, logger: logger}
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Duration  string `json:"duration"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// Duration implements Prober.
func (p *FFprobeProber) Duration(ctx context.Context, path string) (float64, error) {
	ffprobe, err := p.locator.Locate(media.FFprobe)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFileMissing, err)
	}

	duration, err := p.metadataDuration(ctx, ffprobe, path)
	if err == nil {
		return duration, nil
	}
	if ctx.Err() != nil {
		return 0, err
	}

	p.logger.Debug("metadata probe yielded no duration, querying format duration",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	metrics.ProbeFallbacksTotal.Inc()

	duration, err = p.formatDuration(ctx, ffprobe, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrDurationUnavailable, path, err)
	}
	return duration, nil
}

// metadataDuration reads the stream metadata, preferring the first audio
// stream's duration over the container's.
func (p *FFprobeProber) metadataDuration(ctx context.Context, ffprobe, path string) (float64, error) {
	out, err := media.Run(ctx, ffprobe, []string{
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	})
	if err != nil {
		return 0, err
	}
	return parseMetadataDuration(out)
}

func parseMetadataDuration(out []byte) (float64, error) {
	var result probeOutput
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, fmt.Errorf("parse ffprobe JSON output: %w", err)
	}

	for _, s := range result.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if d, err := parseSeconds(s.Duration); err == nil {
			return d, nil
		}
		break
	}

	return parseSeconds(result.Format.Duration)
}

// formatDuration asks ffprobe for nothing but the container duration.
func (p *FFprobeProber) formatDuration(ctx context.Context, ffprobe, path string) (float64, error) {
	out, err := media.Run(ctx, ffprobe, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	})
	if err != nil {
		return 0, err
	}
	return parseSeconds(string(out))
}

var errNoDuration = errors.New("no usable duration field")

func parseSeconds(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, errNoDuration
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("%w: %q", errNoDuration, s)
	}
	return d, nil
}

// Verify interface implementation at compile time.
var _ Prober = (*FFprobeProber)(nil)
