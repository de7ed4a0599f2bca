package utils

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is the cancellable handle returned by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

var realClock = clockwork.NewRealClock()

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return realClock.Now()
}

func (s SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return realClock.AfterFunc(d, f)
}

// MockClock is a manually driven clock. Timers scheduled with AfterFunc fire
// once Advance or SetNow moves past their deadline; their callbacks run on
// their own goroutines.
type MockClock struct {
	fake *clockwork.FakeClock
}

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{fake: clockwork.NewFakeClockAt(now)}
}

func (m *MockClock) Now() time.Time {
	return m.fake.Now()
}

func (m *MockClock) AfterFunc(d time.Duration, f func()) Timer {
	return m.fake.AfterFunc(d, f)
}

// SetNow moves the clock to now, which must not be in the past.
func (m *MockClock) SetNow(now time.Time) {
	m.fake.Advance(now.Sub(m.fake.Now()))
}

func (m *MockClock) Advance(d time.Duration) {
	m.fake.Advance(d)
}

// WaitForTimers blocks until exactly n timers are armed. It gives up after a
// second and returns the context error.
func (m *MockClock) WaitForTimers(n int) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return m.fake.BlockUntilContext(ctx, n)
}
