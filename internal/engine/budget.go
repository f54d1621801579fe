package engine

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExhausted signals that the run's external-call budget is spent.
// It is an expected terminal condition the scheduler handles, not a failure
// that escapes the run.
var ErrBudgetExhausted = errors.New("call budget exhausted")

// Grant is the token returned by a successful Acquire.
type Grant struct {
	Remaining int
}

// BudgetManager is the single source of truth for the external-call budget of
// one run. Acquire enforces both the remaining-call cap and the minimum
// interval between consecutive grants; the throttle wait is the run's only
// suspension point.
type BudgetManager struct {
	remaining   int
	minInterval time.Duration
	lastGrant   time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewBudgetManager(calls int, minInterval time.Duration) *BudgetManager {
	if calls < 0 {
		calls = 0
	}
	return &BudgetManager{
		remaining:   calls,
		minInterval: minInterval,
		now:         time.Now,
		sleep:       sleepFor,
	}
}

// Acquire returns a grant once the throttle interval since the previous grant
// has elapsed, or ErrBudgetExhausted when no calls remain. The remaining
// count never goes negative.
func (m *BudgetManager) Acquire(ctx context.Context) (Grant, error) {
	if m.remaining == 0 {
		return Grant{}, ErrBudgetExhausted
	}
	if !m.lastGrant.IsZero() && m.minInterval > 0 {
		if wait := m.minInterval - m.now().Sub(m.lastGrant); wait > 0 {
			if err := m.sleep(ctx, wait); err != nil {
				return Grant{}, err
			}
		}
	}
	m.lastGrant = m.now()
	m.remaining--
	return Grant{Remaining: m.remaining}, nil
}

func (m *BudgetManager) Remaining() int {
	return m.remaining
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
