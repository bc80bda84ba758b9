package stream

import (
	"context"
	"testing"
	"time"
)

func drain(t *testing.T, r *Reader) []Frame {
	t.Helper()
	var frames []Frame
	for f := range r.Frames() {
		frames = append(frames, f)
	}
	return frames
}

func TestStreamOrdersWithinEachSource(t *testing.T) {
	r, err := Start(context.Background(), []string{"/bin/sh", "-c", "echo out1; echo out2; echo out3"}, Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	frames := drain(t, r)
	if err := r.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stdoutLines []string
	for _, f := range frames {
		if f.Source == Stdout {
			stdoutLines = append(stdoutLines, string(f.Line))
		}
	}
	want := []string{"out1\n", "out2\n", "out3\n"}
	if len(stdoutLines) != len(want) {
		t.Fatalf("got %d stdout lines, want %d: %v", len(stdoutLines), len(want), stdoutLines)
	}
	for i := range want {
		if stdoutLines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, stdoutLines[i], want[i])
		}
	}
}

func TestStreamSurfacesExitError(t *testing.T) {
	r, err := Start(context.Background(), []string{"/bin/sh", "-c", "echo 'Error: no such volume: v1' >&2; exit 1"}, Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	drain(t, r)
	if r.Err() == nil {
		t.Fatal("expected a terminal error after nonzero exit")
	}
}

func TestStreamCloseTerminatesChild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, err := Start(ctx, []string{"/bin/sh", "-c", "trap 'exit 0' TERM; while true; do echo tick; sleep 0.05; done"}, Options{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Read a couple of frames then abandon early.
	count := 0
	for range r.Frames() {
		count++
		if count >= 2 {
			break
		}
	}

	done := make(chan error, 1)
	go func() { done <- r.Close() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return in time; child likely still alive")
	}
}
