package job

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/maauso/audiosplit/internal/audio"
	"github.com/maauso/audiosplit/internal/storage"
)

// mockStorage implements storage.Storage for testing.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Fetch(ctx context.Context, source string) (storage.Source, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(storage.Source), args.Error(1)
}

func (m *mockStorage) CleanupTemp(ctx context.Context, paths []string) error {
	args := m.Called(ctx, paths)
	return args.Error(0)
}

// mockProber implements audio.Prober for testing.
type mockProber struct {
	mock.Mock
}

func (m *mockProber) Duration(ctx context.Context, path string) (float64, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(float64), args.Error(1)
}

// mockSplitter implements audio.Splitter for testing.
type mockSplitter struct {
	mock.Mock
}

func (m *mockSplitter) Extract(ctx context.Context, src audio.SourceFile, segments []audio.Segment, outputDir string, onSegment func(audio.SegmentProgress)) ([]string, error) {
	args := m.Called(ctx, src, segments, outputDir, onSegment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// reportSegments returns a mock.Run function that reports the first n
// segments of total as written through the onSegment callback.
func reportSegments(n, total int, outputs []string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		onSegment := args.Get(4).(func(audio.SegmentProgress))
		for i := 0; i < n; i++ {
			onSegment(audio.SegmentProgress{Done: i + 1, Total: total, Output: outputs[i]})
		}
	}
}
