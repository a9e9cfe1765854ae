// Package peer implements the logger node: it verifies incoming frames,
// records them and answers with an ack carrying its own readings.
package peer

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/frame"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/metrics"
)

// Replier sends the ack back to the sensor node. 0 is success.
type Replier interface {
	Reply(peer byte, buf []byte) uint8
}

// Local supplies the readings the ack carries.
type Local interface {
	TempRef() fixnum.Temperature
	Voltage() fixnum.Voltage
}

// Stats counts handled frames.
type Stats struct {
	Received    uint64
	Corrupt     uint64
	ReplyFailed uint64
}

type Receiver struct {
	layout   frame.Layout
	replier  Replier
	local    Local
	recorder metrics.Collector
	now      func() time.Time
	logger   logger.Logger

	mu    sync.Mutex
	stats Stats
	last  frame.Frame
}

func NewReceiver(layout frame.Layout, replier Replier, local Local, recorder metrics.Collector, log logger.Logger) *Receiver {
	return &Receiver{
		layout:   layout,
		replier:  replier,
		local:    local,
		recorder: recorder,
		now:      time.Now,
		logger:   log,
		last:     *frame.New(layout),
	}
}

// Handle processes one frame addressed to peer. A frame of the wrong size
// or with a bad checksum is recorded cleared. The ack is sent either way.
func (r *Receiver) Handle(peer byte, buf []byte) {
	f := frame.New(r.layout)
	valid := false
	if err := f.UnmarshalBinary(buf); err != nil {
		r.logger.WarnWithCode(errors.New().Wrap(errors.ErrBadFrame, err)).Msg("Dropped frame")
		f.Clear()
	} else if valid = f.Verify(); !valid {
		r.logger.Warn().Hex("frame", buf).Msg("Frame failed checksum, cleared")
	}

	r.mu.Lock()
	r.stats.Received++
	if !valid {
		r.stats.Corrupt++
	}
	r.last = *f
	r.mu.Unlock()

	if r.recorder != nil {
		if err := r.recorder.Record(context.Background(), &metrics.Snapshot{
			Timestamp: r.now(),
			Source:    metrics.SourcePeer,
			Valid:     valid,
			Frame:     *f,
		}); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to record frame")
		}
	}

	ack := frame.NewAck()
	ack.TempRef = r.local.TempRef()
	ack.Voltage = r.local.Voltage()
	ack.Seal()
	out, _ := ack.MarshalBinary()

	if status := r.replier.Reply(peer, out); status != 0 {
		r.mu.Lock()
		r.stats.ReplyFailed++
		r.mu.Unlock()
		r.logger.WarnWithCode(errors.New().New(errors.ErrPeerReply)).
			Uint8("status", status).
			Msg("Failed to send ack")
		return
	}

	r.logger.Debug().
		Bool("valid", valid).
		Str("temp_in", f.TempIn.String()).
		Str("temp_out", f.TempOut.String()).
		Str("rpm", f.FanRPM.String()).
		Msg("Frame received")
}

func (r *Receiver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Last returns the last handled frame, cleared if it was corrupt.
func (r *Receiver) Last() frame.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
