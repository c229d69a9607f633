// Package audio plans fixed-length segments of an audio file and extracts
// them with ffmpeg stream copy, probing durations with ffprobe.
package audio

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultMaxSegmentSec is the default maximum segment length (14 minutes).
const DefaultMaxSegmentSec = 14 * 60

// SupportedExtensions lists the audio extensions accepted as split sources.
var SupportedExtensions = []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"}

// IsSupported reports whether path has one of SupportedExtensions (case-insensitive).
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// SourceFile describes the audio file being split.
type SourceFile struct {
	// Path is the location of the file on disk.
	Path string
	// Name is the base name without extension.
	Name string
	// Ext is the original extension including the dot, as written.
	Ext string
	// Duration is the total duration in seconds.
	Duration float64
}

// NewSourceFile builds a SourceFile from a path and its probed duration.
func NewSourceFile(path string, duration float64) SourceFile {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return SourceFile{
		Path:     path,
		Name:     strings.TrimSuffix(base, ext),
		Ext:      ext,
		Duration: duration,
	}
}

// OutputDir returns the sibling directory segments are written to:
// <dir>/<name>_splits.
func OutputDir(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(path), name+"_splits")
}

// OutputDir returns the directory this file's segments are written to.
func (s SourceFile) OutputDir() string {
	return OutputDir(s.Path)
}

// SegmentPath returns the output file for the segment with the given
// 1-based index: <outputDir>/<name>_<index:03d><ext>.
func (s SourceFile) SegmentPath(outputDir string, index int) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_%03d%s", s.Name, index, s.Ext))
}

// Segment is a contiguous slice [Start, End) of the source timeline.
type Segment struct {
	// Index is 1-based.
	Index int
	Start float64
	End   float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Plan splits a total duration into ceil(total/maxSec) contiguous segments of
// at most maxSec seconds each. The last segment ends exactly at total.
func Plan(total float64, maxSec int) ([]Segment, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidInput, total)
	}
	if maxSec <= 0 {
		return nil, fmt.Errorf("%w: max segment length must be positive, got %d", ErrInvalidInput, maxSec)
	}

	limit := float64(maxSec)
	n := int(math.Ceil(total / limit))

	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		start := float64(i) * limit
		end := math.Min(float64(i+1)*limit, total)
		segments = append(segments, Segment{
			Index: i + 1,
			Start: start,
			End:   end,
		})
	}

	return segments, nil
}
