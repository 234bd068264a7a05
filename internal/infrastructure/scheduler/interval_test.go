package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartRunsImmediatelyWhenConfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	fired := make(chan struct{}, 1)

	s := NewIntervalScheduler(time.Hour, true)
	err := s.Start(context.Background(), func(time.Time) {
		calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire on start")
	}

	if calls.Load() != 1 {
		t.Fatalf("expected exactly one immediate run, got %d", calls.Load())
	}
}

func TestStartTicksOnInterval(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	s := NewIntervalScheduler(20*time.Millisecond, false)
	if err := s.Start(context.Background(), func(time.Time) { calls.Add(1) }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop(context.Background())

	deadline := time.After(2 * time.Second)
	for calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 ticks, got %d", calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestStopHaltsTicking(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	s := NewIntervalScheduler(10*time.Millisecond, false)
	if err := s.Start(context.Background(), func(time.Time) { calls.Add(1) }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}

	snapshot := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != snapshot {
		t.Fatalf("job still firing after Stop: %d -> %d", snapshot, calls.Load())
	}
}

func TestContextCancellationStopsTicking(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(10*time.Millisecond, false)
	if err := s.Start(ctx, func(time.Time) { calls.Add(1) }); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(30 * time.Millisecond)

	snapshot := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != snapshot {
		t.Fatalf("job still firing after cancellation: %d -> %d", snapshot, calls.Load())
	}
}

func TestStartNilJob(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Millisecond, true)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start with nil job must be a no-op, got %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
}
