package job

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	job := New()

	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.Status != StatusIdle {
		t.Errorf("expected status %s, got %s", StatusIdle, job.Status)
	}
	if job.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if job.Segments == nil {
		t.Error("expected Segments to be initialized")
	}
}

func TestNewWithID(t *testing.T) {
	id := "test-job-123"
	job := NewWithID(id)

	if job.ID != id {
		t.Errorf("expected ID %s, got %s", id, job.ID)
	}
	if job.Status != StatusIdle {
		t.Errorf("expected status %s, got %s", StatusIdle, job.Status)
	}
}

func TestJob_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"IDLE to PROBING", StatusIdle, StatusProbing, false},
		{"PROBING to PLANNING", StatusProbing, StatusPlanning, false},
		{"PLANNING to TRANSCODING", StatusPlanning, StatusTranscoding, false},
		{"TRANSCODING to DONE", StatusTranscoding, StatusDone, false},
		{"IDLE to FAILED", StatusIdle, StatusFailed, false},
		{"PROBING to FAILED", StatusProbing, StatusFailed, false},
		{"PLANNING to FAILED", StatusPlanning, StatusFailed, false},
		{"TRANSCODING to FAILED", StatusTranscoding, StatusFailed, false},
		// Invalid transitions
		{"IDLE to PLANNING", StatusIdle, StatusPlanning, true},
		{"IDLE to DONE", StatusIdle, StatusDone, true},
		{"PROBING to TRANSCODING", StatusProbing, StatusTranscoding, true},
		{"PLANNING to DONE", StatusPlanning, StatusDone, true},
		{"TRANSCODING to PROBING", StatusTranscoding, StatusProbing, true},
		{"PROBING to IDLE", StatusProbing, StatusIdle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewWithID("test")
			job.Status = tt.from

			err := job.TransitionTo(tt.to)

			if tt.wantErr && err == nil {
				t.Errorf("expected error for transition %s -> %s", tt.from, tt.to)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for transition %s -> %s: %v", tt.from, tt.to, err)
			}
		})
	}
}

func TestJob_FullLifecycle(t *testing.T) {
	job := New()
	before := time.Now()

	for _, s := range []Status{StatusProbing, StatusPlanning, StatusTranscoding} {
		if err := job.TransitionTo(s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}
	if job.StartedAt.Before(before) {
		t.Error("expected StartedAt to be set when probing starts")
	}

	if err := job.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != StatusDone {
		t.Errorf("expected status %s, got %s", StatusDone, job.Status)
	}
	if job.Progress != 100 {
		t.Errorf("expected progress 100, got %d", job.Progress)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
}

func TestJob_Fail(t *testing.T) {
	job := New()
	_ = job.TransitionTo(StatusProbing)

	errMsg := "duration unavailable"
	if err := job.Fail(errMsg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if job.Status != StatusFailed {
		t.Errorf("expected status %s, got %s", StatusFailed, job.Status)
	}
	if job.Error != errMsg {
		t.Errorf("expected error %q, got %q", errMsg, job.Error)
	}
	if job.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set on failure")
	}
}

func TestJob_CompleteRequiresTranscoding(t *testing.T) {
	job := New()
	if err := job.Complete(); err != ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if job.Progress != 0 {
		t.Errorf("progress must not change on a rejected completion, got %d", job.Progress)
	}
}

func TestJob_CannotTransitionFromTerminalState(t *testing.T) {
	terminalStates := []Status{StatusDone, StatusFailed}
	allStates := []Status{StatusIdle, StatusProbing, StatusPlanning, StatusTranscoding, StatusDone, StatusFailed}

	for _, terminal := range terminalStates {
		for _, target := range allStates {
			t.Run(string(terminal)+"_to_"+string(target), func(t *testing.T) {
				job := NewWithID("test")
				job.Status = terminal

				err := job.TransitionTo(target)
				if err != ErrInvalidTransition {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
			})
		}
	}

	t.Run("fail after done keeps error empty", func(t *testing.T) {
		job := NewWithID("test")
		job.Status = StatusDone

		if err := job.Fail("late"); err != ErrInvalidTransition {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if job.Error != "" {
			t.Errorf("expected no error message, got %q", job.Error)
		}
	})
}

func TestJob_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusIdle, false},
		{StatusProbing, false},
		{StatusPlanning, false},
		{StatusTranscoding, false},
		{StatusDone, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := NewWithID("test")
			job.Status = tt.status

			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestJob_SetPlanAndUpdateSegment(t *testing.T) {
	job := New()
	job.SetPlan("/music/show_splits", []Segment{
		{Index: 1, Start: 0, End: 600, Status: SegmentStatusPending},
		{Index: 2, Start: 600, End: 1000, Status: SegmentStatusPending},
	})

	job.UpdateSegment(2, SegmentStatusWritten)
	job.UpdateSegment(0, SegmentStatusFailed) // out of range, ignored
	job.UpdateSegment(3, SegmentStatusFailed) // out of range, ignored

	if job.OutputDir != "/music/show_splits" {
		t.Errorf("expected output dir to be set, got %s", job.OutputDir)
	}
	if job.Segments[0].Status != SegmentStatusPending {
		t.Errorf("expected segment 1 pending, got %s", job.Segments[0].Status)
	}
	if job.Segments[1].Status != SegmentStatusWritten {
		t.Errorf("expected segment 2 written, got %s", job.Segments[1].Status)
	}
}

func TestJob_UpdateProgress(t *testing.T) {
	job := New()

	tests := []struct {
		input    int
		expected int
	}{
		{50, 50},
		{0, 0},
		{100, 100},
		{-10, 0},   // Clamped to 0
		{150, 100}, // Clamped to 100
	}

	for _, tt := range tests {
		job.UpdateProgress(tt.input)
		if job.Progress != tt.expected {
			t.Errorf("UpdateProgress(%d): expected %d, got %d", tt.input, tt.expected, job.Progress)
		}
	}
}

func TestJob_Clone(t *testing.T) {
	job := New()
	job.Status = StatusTranscoding
	job.Progress = 50
	job.SetSource("/music/show.mp3")
	job.SetDuration(1000)
	job.SetPlan("/music/show_splits", []Segment{
		{Index: 1, Status: SegmentStatusWritten},
	})

	clone := job.Clone()

	if clone.ID != job.ID || clone.Status != job.Status || clone.Progress != job.Progress {
		t.Errorf("clone differs from original: %+v", clone)
	}
	if clone.SourcePath != "/music/show.mp3" || clone.Duration != 1000 || clone.OutputDir != "/music/show_splits" {
		t.Errorf("clone lost fields: %+v", clone)
	}

	clone.Status = StatusDone
	if job.Status == StatusDone {
		t.Error("modifying clone should not affect original")
	}

	clone.Segments[0].Status = SegmentStatusFailed
	if job.Segments[0].Status == SegmentStatusFailed {
		t.Error("modifying clone segments should not affect original")
	}
}

func TestJob_GetStatus_ThreadSafe(t *testing.T) {
	job := New()

	done := make(chan bool)
	go func() {
		for i := 0; i < 100; i++ {
			_ = job.GetStatus()
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = job.TransitionTo(StatusProbing)
		}
		done <- true
	}()

	<-done
	<-done
}
