package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/audiosplit/internal/audio"
	"github.com/maauso/audiosplit/internal/storage"
)

type serviceFixture struct {
	svc      *SplitService
	repo     *MemoryRepository
	store    *mockStorage
	prober   *mockProber
	splitter *mockSplitter
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:     NewMemoryRepository(),
		store:    &mockStorage{},
		prober:   &mockProber{},
		splitter: &mockSplitter{},
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = NewSplitService(f.repo, f.store, f.prober, f.splitter, logger)
	return f
}

func (f *serviceFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.store.AssertExpectations(t)
	f.prober.AssertExpectations(t)
	f.splitter.AssertExpectations(t)
}

func collectProgress(events *[]Progress) ProgressFunc {
	return func(p Progress) {
		*events = append(*events, p)
	}
}

func TestNewSplitService(t *testing.T) {
	svc := NewSplitService(NewMemoryRepository(), nil, nil, nil, nil)
	require.NotNil(t, svc)
	assert.NotNil(t, svc.logger)
	assert.NotNil(t, svc.validate)
}

func TestSplitService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input SplitInput
	}{
		{"zero max duration", SplitInput{Source: "/music/show.mp3", MaxSegmentSec: 0}},
		{"negative max duration", SplitInput{Source: "/music/show.mp3", MaxSegmentSec: -60}},
		{"missing source", SplitInput{MaxSegmentSec: 840}},
		{"unsupported extension", SplitInput{Source: "/music/show.txt", MaxSegmentSec: 840}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)

			_, err := f.svc.Split(context.Background(), tt.input, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, audio.ErrInvalidInput)

			jobs, _ := f.repo.List(context.Background())
			assert.Empty(t, jobs, "rejected input must not create a job")
			f.store.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
			f.prober.AssertNotCalled(t, "Duration", mock.Anything, mock.Anything)
			f.splitter.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSplitService_Submit_OneJobAtATime(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	input := SplitInput{Source: "/music/show.mp3", MaxSegmentSec: 600}

	first, err := f.svc.Submit(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, first.Status)
	assert.Equal(t, 600, first.MaxSegmentSec)

	_, err = f.svc.Submit(ctx, input)
	assert.ErrorIs(t, err, ErrJobInProgress)
	assert.Contains(t, err.Error(), first.ID)

	// A finished job no longer blocks new submissions.
	_ = first.Fail("boom")
	require.NoError(t, f.repo.Save(ctx, first))

	_, err = f.svc.Submit(ctx, input)
	assert.NoError(t, err)
}

func TestSplitService_Split_Success(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	src := "/music/show.mp3"
	outDir := filepath.Join("/music", "show_splits")
	outputs := []string{
		filepath.Join(outDir, "show_001.mp3"),
		filepath.Join(outDir, "show_002.mp3"),
	}
	wantSegments := []audio.Segment{{Index: 1, Start: 0, End: 600}, {Index: 2, Start: 600, End: 1000}}

	f.store.On("Fetch", mock.Anything, src).Return(storage.Source{Path: src}, nil)
	f.prober.On("Duration", mock.Anything, src).Return(1000.0, nil)
	f.splitter.On("Extract", mock.Anything, audio.NewSourceFile(src, 1000), wantSegments, outDir, mock.Anything).
		Run(reportSegments(2, 2, outputs)).
		Return(outputs, nil)

	var events []Progress
	job, err := f.svc.Split(ctx, SplitInput{Source: src, MaxSegmentSec: 600}, collectProgress(&events))
	require.NoError(t, err)
	f.assertExpectations(t)

	assert.Equal(t, StatusDone, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, 1000.0, job.Duration)
	assert.Equal(t, src, job.SourcePath)
	assert.Equal(t, outDir, job.OutputDir)
	require.Len(t, job.Segments, 2)
	for i, seg := range job.Segments {
		assert.Equal(t, SegmentStatusWritten, seg.Status)
		assert.Equal(t, outputs[i], seg.OutputPath)
	}

	var statuses []Status
	var percents []float64
	for _, e := range events {
		assert.Equal(t, job.ID, e.JobID)
		statuses = append(statuses, e.Status)
		percents = append(percents, e.Percent)
	}
	assert.Equal(t, []Status{StatusProbing, StatusPlanning, StatusTranscoding, StatusTranscoding, StatusTranscoding, StatusDone}, statuses)
	assert.Equal(t, []float64{0, 0, 0, 50, 100, 100}, percents)

	stored, err := f.svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, stored.Status)
}

func TestSplitService_Split_TranscodeFailure(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	src := "/music/show.mp3"
	outDir := filepath.Join("/music", "show_splits")
	first := filepath.Join(outDir, "show_001.mp3")
	transcodeErr := &audio.TranscodeError{Index: 2, ExitCode: 1, Stderr: "Conversion failed!"}

	f.store.On("Fetch", mock.Anything, src).Return(storage.Source{Path: src}, nil)
	f.prober.On("Duration", mock.Anything, src).Return(1500.0, nil)
	f.splitter.On("Extract", mock.Anything, mock.Anything, mock.Anything, outDir, mock.Anything).
		Run(reportSegments(1, 3, []string{first})).
		Return([]string{first}, transcodeErr)

	var events []Progress
	job, err := f.svc.Split(ctx, SplitInput{Source: src, MaxSegmentSec: 600}, collectProgress(&events))
	require.Error(t, err)
	f.assertExpectations(t)

	var tErr *audio.TranscodeError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, 2, tErr.Index)

	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, err.Error(), job.Error)
	assert.Equal(t, 33, job.Progress)
	require.Len(t, job.Segments, 3)
	assert.Equal(t, SegmentStatusWritten, job.Segments[0].Status)
	assert.Equal(t, SegmentStatusFailed, job.Segments[1].Status)
	assert.Equal(t, SegmentStatusPending, job.Segments[2].Status)

	last := events[len(events)-1]
	assert.Equal(t, StatusFailed, last.Status)
	for _, e := range events {
		assert.NotEqual(t, StatusDone, e.Status, "no success may be reported")
	}
}

func TestSplitService_Split_DurationUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	src := "/music/broken.ogg"
	probeErr := fmt.Errorf("%w: %s: no usable duration field", audio.ErrDurationUnavailable, src)

	f.store.On("Fetch", mock.Anything, src).Return(storage.Source{Path: src}, nil)
	f.prober.On("Duration", mock.Anything, src).Return(0.0, probeErr)

	job, err := f.svc.Split(context.Background(), SplitInput{Source: src, MaxSegmentSec: 840}, nil)
	assert.ErrorIs(t, err, audio.ErrDurationUnavailable)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, probeErr.Error(), job.Error)
	assert.Empty(t, job.Segments)
	f.splitter.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSplitService_Split_SourceMissing(t *testing.T) {
	f := newServiceFixture(t)
	src := "/music/missing.wav"

	f.store.On("Fetch", mock.Anything, src).
		Return(storage.Source{}, fmt.Errorf("%w: %s", storage.ErrSourceNotFound, src))

	job, err := f.svc.Split(context.Background(), SplitInput{Source: src, MaxSegmentSec: 840}, nil)
	assert.ErrorIs(t, err, audio.ErrFileMissing)
	assert.Equal(t, StatusFailed, job.Status)
	f.prober.AssertNotCalled(t, "Duration", mock.Anything, mock.Anything)
}

func TestSplitService_Split_CleansUpStagedSource(t *testing.T) {
	f := newServiceFixture(t)
	staged := filepath.Join("/tmp/audiosplit/src-1", "episode.flac")
	outDir := filepath.Join("/tmp/audiosplit/src-1", "episode_splits")
	outputs := []string{filepath.Join(outDir, "episode_001.flac")}

	f.store.On("Fetch", mock.Anything, "s3://media/episode.flac").
		Return(storage.Source{Path: staged, Temporary: true}, nil)
	f.store.On("CleanupTemp", mock.Anything, []string{staged}).Return(nil)
	f.prober.On("Duration", mock.Anything, staged).Return(30.0, nil)
	f.splitter.On("Extract", mock.Anything, mock.Anything, mock.Anything, outDir, mock.Anything).
		Run(reportSegments(1, 1, outputs)).
		Return(outputs, nil)

	job, err := f.svc.Split(context.Background(), SplitInput{Source: "s3://media/episode.flac", MaxSegmentSec: 840}, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, job.Status)
	assert.Equal(t, "s3://media/episode.flac", job.Source)
	f.assertExpectations(t)
}

func TestSplitService_Run_NotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Run(context.Background(), "nonexistent", nil)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSplitService_GetJob_NotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetJob(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestSplitService_ListJobs(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Submit(ctx, SplitInput{Source: "/music/a.wav", MaxSegmentSec: 60})
	require.NoError(t, err)

	jobs, err := f.svc.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, created.ID, jobs[0].ID)
}
