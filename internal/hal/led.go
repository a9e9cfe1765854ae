package hal

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
)

const (
	DefaultBlink     = time.Second
	DefaultFastBlink = 250 * time.Millisecond
)

// LED blinks the status indicator. The caller picks the half-period on
// each update, so the cadence can change between two toggles.
type LED struct {
	out     Output
	on      bool
	started bool
	last    time.Time
}

func NewLED(out Output) *LED {
	return &LED{out: out}
}

// Blink toggles the LED when half has elapsed since the last toggle.
func (l *LED) Blink(now time.Time, half time.Duration) error {
	if l.started && now.Sub(l.last) < half {
		return nil
	}
	l.started = true
	l.last = now
	return l.Set(!l.on)
}

// Set forces the LED state.
func (l *LED) Set(on bool) error {
	if err := l.out.SetValue(boolToValue(on)); err != nil {
		return errors.New().Wrap(errors.ErrGPIOWrite, err)
	}
	l.on = on
	return nil
}

func (l *LED) On() bool {
	return l.on
}
