package hal

import (
	"sync/atomic"
	"time"
)

const (
	DefaultLongPress = time.Second
	DefaultDebounce  = 10 * time.Millisecond
	buttonQueueSize  = 16
)

// ButtonEvent is one debounced transition of the button line.
type ButtonEvent struct {
	Pressed bool
	At      time.Time
}

// Button tracks the operator button. Events arrive from the edge context
// through Push, which never blocks; the loop consumes them with Check.
type Button struct {
	events  chan ButtonEvent
	dropped atomic.Uint64

	pressed  bool
	since    time.Time
	released time.Duration
	pending  bool
}

func NewButton() *Button {
	return &Button{events: make(chan ButtonEvent, buttonQueueSize)}
}

// Push queues an event. When the queue is full the event is dropped and
// counted.
func (b *Button) Push(ev ButtonEvent) {
	select {
	case b.events <- ev:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns the number of events lost to a full queue.
func (b *Button) Dropped() uint64 {
	return b.dropped.Load()
}

// Check drains queued events and reports whether the button changed state.
func (b *Button) Check(now time.Time) bool {
	changed := false
	for {
		select {
		case ev := <-b.events:
			if ev.At.IsZero() {
				ev.At = now
			}
			if b.apply(ev) {
				changed = true
			}
		default:
			return changed
		}
	}
}

func (b *Button) apply(ev ButtonEvent) bool {
	if ev.Pressed == b.pressed {
		return false
	}
	b.pressed = ev.Pressed
	if ev.Pressed {
		b.since = ev.At
		return true
	}
	b.released = ev.At.Sub(b.since)
	if b.released < 0 {
		b.released = 0
	}
	b.pending = true
	return true
}

// Held reports whether the button is down.
func (b *Button) Held() bool {
	return b.pressed
}

// Pressed returns how long the button has been held, zero when up.
func (b *Button) Pressed(now time.Time) time.Duration {
	if !b.pressed {
		return 0
	}
	return now.Sub(b.since)
}

// Released returns the duration of the last completed press, once.
func (b *Button) Released() (time.Duration, bool) {
	if !b.pending {
		return 0, false
	}
	b.pending = false
	return b.released, true
}
