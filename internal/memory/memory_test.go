package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMonitor(limit int64) *Monitor {
	cfg := DefaultConfig()
	cfg.LimitBytes = limit
	return NewMonitor(cfg)
}

func TestObservePauseAndResume(t *testing.T) {
	m := newTestMonitor(1000)

	m.observe(800)
	if m.Paused() {
		t.Fatal("80% should not pause")
	}
	m.observe(900)
	if !m.Paused() {
		t.Fatal("90% should pause")
	}
	// Hysteresis: between the marks stays paused.
	m.observe(750)
	if !m.Paused() {
		t.Fatal("75% should stay paused")
	}
	m.observe(600)
	if m.Paused() {
		t.Fatal("60% should resume")
	}

	current, limit, usage := m.Stats()
	if current != 600 || limit != 1000 || usage != 0.6 {
		t.Errorf("Stats() = %d, %d, %v", current, limit, usage)
	}
}

func TestWaitNotPaused(t *testing.T) {
	m := newTestMonitor(1000)
	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
}

func TestWaitResumes(t *testing.T) {
	m := newTestMonitor(1000)
	m.observe(950)

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	m.observe(100)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait() = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after recovery")
	}
}

func TestWaitCanceled(t *testing.T) {
	m := newTestMonitor(1000)
	m.observe(950)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() = %v, want context.Canceled", err)
	}
}

func TestWaitReleasedByStop(t *testing.T) {
	m := newTestMonitor(1000)
	m.observe(950)
	m.Stop()
	m.Stop()

	if err := m.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() after Stop = %v", err)
	}
}

func TestDisabledMonitorNeverPauses(t *testing.T) {
	m := &Monitor{stopChan: make(chan struct{}), resumeCh: make(chan struct{})}
	m.observe(1 << 40)
	if m.Paused() || m.Enabled() {
		t.Error("monitor without limit should not pause")
	}
}
