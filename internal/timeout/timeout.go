// Package timeout provides deadline checks against an injected clock. The
// control loop never sleeps on them: each component compares the current
// time with its deadline once per iteration and either acts or returns.
package timeout

import "time"

// Timeout is a one-shot deadline. The zero value is disabled.
type Timeout struct {
	deadline time.Time
	enabled  bool
}

// Expired returns a timeout that fires on the first Check.
func Expired() Timeout {
	return Timeout{enabled: true}
}

// After returns a timeout firing d after now.
func After(now time.Time, d time.Duration) Timeout {
	var t Timeout
	t.Reset(now, d)
	return t
}

// Reset arms the timeout to fire d after now. A non-positive d disables it.
func (t *Timeout) Reset(now time.Time, d time.Duration) {
	if d <= 0 {
		t.Disable()
		return
	}
	t.deadline = now.Add(d)
	t.enabled = true
}

// Disable cancels the timeout without firing it.
func (t *Timeout) Disable() {
	*t = Timeout{}
}

// Active reports whether the timeout is armed and has not yet elapsed.
func (t *Timeout) Active(now time.Time) bool {
	return t.enabled && now.Before(t.deadline)
}

// Check reports true exactly once when the deadline has passed, then
// disables the timeout.
func (t *Timeout) Check(now time.Time) bool {
	if !t.enabled || now.Before(t.deadline) {
		return false
	}
	t.enabled = false
	return true
}

// Remaining returns the time left, zero when not active.
func (t *Timeout) Remaining(now time.Time) time.Duration {
	if !t.Active(now) {
		return 0
	}
	return t.deadline.Sub(now)
}
