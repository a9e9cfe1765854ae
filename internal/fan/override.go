package fan

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/timeout"
)

// overrideLadder lists the override durations in minutes a short press
// steps through. Pressing at the top step cancels the override.
var overrideLadder = [...]int{1, 5, 15, 60, 120}

// Override is the manual force-on countdown.
type Override struct {
	timer timeout.Timeout
}

// Press advances the override to the next ladder step above the remaining
// time, rounded up to whole minutes, and returns the new duration in
// minutes. 0 means the override was cancelled.
func (o *Override) Press(now time.Time) int {
	remaining := o.RemainingMinutes(now)

	next := 0
	for _, step := range overrideLadder {
		if remaining < step {
			next = step
			break
		}
	}

	o.timer.Reset(now, time.Duration(next)*time.Minute)
	return next
}

// Active reports whether the override still forces the fan on.
func (o *Override) Active(now time.Time) bool {
	return o.timer.Active(now)
}

// Remaining returns the override time left.
func (o *Override) Remaining(now time.Time) time.Duration {
	return o.timer.Remaining(now)
}

// RemainingMinutes returns the override time left in whole minutes,
// rounded up.
func (o *Override) RemainingMinutes(now time.Time) int {
	rem := o.timer.Remaining(now)
	return int((rem + time.Minute - 1) / time.Minute)
}

// Check reports true once when the override runs out.
func (o *Override) Check(now time.Time) bool {
	return o.timer.Check(now)
}

// Cancel ends the override immediately.
func (o *Override) Cancel() {
	o.timer.Disable()
}
