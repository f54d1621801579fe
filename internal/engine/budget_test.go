package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock drives a BudgetManager without real waiting: sleep advances the
// clock and records the requested duration.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) install(m *BudgetManager) {
	m.now = func() time.Time { return c.now }
	m.sleep = func(_ context.Context, d time.Duration) error {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
		return nil
	}
}

func TestBudgetExhaustion(t *testing.T) {
	m := NewBudgetManager(2, 0)

	for i := 0; i < 2; i++ {
		grant, err := m.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if grant.Remaining != 1-i {
			t.Errorf("acquire %d: expected remaining %d, got %d", i, 1-i, grant.Remaining)
		}
	}

	_, err := m.Acquire(context.Background())
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got %v", err)
	}
	if m.Remaining() != 0 {
		t.Errorf("remaining must never go negative, got %d", m.Remaining())
	}

	// Repeated acquires keep failing without side effects.
	if _, err := m.Acquire(context.Background()); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted on retry, got %v", err)
	}
}

func TestBudgetZeroCap(t *testing.T) {
	m := NewBudgetManager(0, time.Second)
	if _, err := m.Acquire(context.Background()); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected immediate exhaustion, got %v", err)
	}

	// Negative caps are clamped to zero.
	m = NewBudgetManager(-3, 0)
	if m.Remaining() != 0 {
		t.Errorf("expected clamped cap 0, got %d", m.Remaining())
	}
}

func TestBudgetThrottleInterval(t *testing.T) {
	m := NewBudgetManager(3, 500*time.Millisecond)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	clock.install(m)

	var grants []time.Time
	for i := 0; i < 3; i++ {
		if _, err := m.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		grants = append(grants, clock.now)
	}

	// First grant is immediate; every later pair is spaced at least the
	// minimum interval apart.
	if len(clock.sleeps) != 2 {
		t.Fatalf("expected 2 throttle waits, got %d", len(clock.sleeps))
	}
	for i := 1; i < len(grants); i++ {
		if spacing := grants[i].Sub(grants[i-1]); spacing < 500*time.Millisecond {
			t.Errorf("grants %d and %d spaced %v apart, want >= 500ms", i-1, i, spacing)
		}
	}
}

func TestBudgetAcquireCancelled(t *testing.T) {
	m := NewBudgetManager(2, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := m.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	cancel()
	_, err := m.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled during throttle wait, got %v", err)
	}
	// The cancelled attempt must not consume budget.
	if m.Remaining() != 1 {
		t.Errorf("expected remaining 1 after cancelled acquire, got %d", m.Remaining())
	}
}
