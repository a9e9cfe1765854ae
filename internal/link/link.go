// Package link uploads telemetry frames to the peer node.
package link

import (
	"fmt"
	"time"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/frame"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/timeout"
	"golang.org/x/time/rate"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultPeer     = 'L'
)

// Status is the result of the last upload. Values other than the ones
// defined here come from the transport and are passed through unchanged.
type Status uint8

const (
	StatusOK Status = 0
	// StatusPeerInvalid means the peer replied but its ack failed the
	// checksum or had the wrong size.
	StatusPeerInvalid Status = 0xFD
	// StatusNone is reported until the first upload.
	StatusNone Status = 0xFF
)

func (s Status) Failed() bool {
	return s != StatusOK
}

func (s Status) String() string {
	return fmt.Sprintf("%02X", uint8(s))
}

// Bus moves opaque buffers to and from a fixed peer. Both calls return 0
// on success and a transport specific code otherwise.
type Bus interface {
	Transmit(peer byte, buf []byte) uint8
	Receive(peer byte, out []byte) uint8
}

// Snapshot is the state captured at the top of a loop iteration.
type Snapshot struct {
	TempIn   fixnum.Temperature
	RHIn     fixnum.Humidity
	TempOut  fixnum.Temperature
	RHOut    fixnum.Humidity
	Cond     condition.Condition
	Voltage  fixnum.Voltage
	FanPower bool
	FanRPM   fixnum.RPM
}

type Config struct {
	Interval time.Duration
	Peer     byte
	Layout   frame.Layout
	// Ack makes every upload wait for the peer's reply.
	Ack bool
}

func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Peer:     DefaultPeer,
		Layout:   frame.LayoutWithCondition,
		Ack:      true,
	}
}

// Link builds, seals and transmits a frame once per interval.
type Link struct {
	bus    Bus
	cfg    Config
	timer  timeout.Timeout
	status Status
	frame  *frame.Frame
	ack    *frame.Ack
	warn   rate.Sometimes
	logger logger.Logger
}

// New schedules the first upload one interval after now.
func New(bus Bus, cfg Config, now time.Time, log logger.Logger) *Link {
	return &Link{
		bus:    bus,
		cfg:    cfg,
		timer:  timeout.After(now, cfg.Interval),
		status: StatusNone,
		frame:  frame.New(cfg.Layout),
		ack:    frame.NewAck(),
		warn:   rate.Sometimes{First: 1, Interval: time.Minute},
		logger: log,
	}
}

// Upload sends the snapshot when the interval has elapsed. It reports the
// current status and whether an upload was attempted.
func (l *Link) Upload(now time.Time, snap Snapshot) (Status, bool) {
	if !l.timer.Check(now) {
		return l.status, false
	}
	l.timer.Reset(now, l.cfg.Interval)

	f := l.frame
	f.Clear()
	f.TempIn = snap.TempIn
	f.RHIn = snap.RHIn
	f.TempOut = snap.TempOut
	f.RHOut = snap.RHOut
	f.Cond = snap.Cond
	f.Voltage = snap.Voltage
	f.FanPower = frame.FlagOf(snap.FanPower)
	f.FanRPM = snap.FanRPM
	f.Seal()

	buf, _ := f.MarshalBinary()
	status := Status(l.bus.Transmit(l.cfg.Peer, buf))
	if status == StatusOK && l.cfg.Ack {
		status = l.receiveAck()
	}
	if status.Failed() {
		l.ack.Clear()
		l.warn.Do(func() {
			l.logger.Warn().Str("status", status.String()).Msg("Upload to peer failed")
		})
	}
	l.status = status

	l.logger.Debug().
		Hex("frame", buf).
		Str("state", status.String()).
		Msg("Upload")

	return status, true
}

func (l *Link) receiveAck() Status {
	reply := make([]byte, frame.AckSize)
	if status := Status(l.bus.Receive(l.cfg.Peer, reply)); status.Failed() {
		return status
	}
	if err := l.ack.UnmarshalBinary(reply); err != nil || !l.ack.Verify() {
		return StatusPeerInvalid
	}
	return StatusOK
}

// Status returns the result of the last upload.
func (l *Link) Status() Status {
	return l.status
}

// Ack returns the last verified peer reply, cleared after any failure.
func (l *Link) Ack() frame.Ack {
	return *l.ack
}

// LastFrame returns the frame of the last upload.
func (l *Link) LastFrame() frame.Frame {
	return *l.frame
}
