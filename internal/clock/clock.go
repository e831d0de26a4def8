package clock

import "time"

// Clock abstracts time operations for testability.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules fn to run after d. The returned Timer can cancel
	// the call if it has not fired yet.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancelable scheduled call.
type Timer interface {
	Stop() bool
}

// Real is a Clock backed by the system clock.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc schedules fn on a real time.Timer.
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Mock is a Clock that returns a fixed time and collects scheduled calls
// so tests can fire them manually.
type Mock struct {
	T         time.Time
	Scheduled []func()
}

// Now returns the fixed time.
func (m *Mock) Now() time.Time { return m.T }

// AfterFunc records fn without running it. Use Fire to run pending calls.
func (m *Mock) AfterFunc(_ time.Duration, fn func()) Timer {
	m.Scheduled = append(m.Scheduled, fn)
	return mockTimer{}
}

// Fire runs and clears all pending scheduled calls.
func (m *Mock) Fire() {
	pending := m.Scheduled
	m.Scheduled = nil
	for _, fn := range pending {
		fn()
	}
}

type mockTimer struct{}

func (mockTimer) Stop() bool { return true }
