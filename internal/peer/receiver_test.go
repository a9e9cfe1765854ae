package peer_test

import (
	"testing"

	"codeberg.org/mutker/fanctl/internal/bus/mqtt"
	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/fan"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/frame"
	"codeberg.org/mutker/fanctl/internal/hal"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"codeberg.org/mutker/fanctl/internal/peer"
	"codeberg.org/mutker/fanctl/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type local struct{}

func (local) TempRef() fixnum.Temperature { return fixnum.FromRaw[int16, fixnum.D1](200) }
func (local) Voltage() fixnum.Voltage     { return fixnum.FromRaw[int16, fixnum.D1](50) }

type failingReplier struct{}

func (failingReplier) Reply(byte, []byte) uint8 { return mqtt.StatusNotConnected }

func sealed(t *testing.T) []byte {
	t.Helper()
	f := frame.New(frame.LayoutWithCondition)
	f.TempIn = fixnum.FromRaw[int16, fixnum.D1](215)
	f.TempOut = fixnum.FromRaw[int16, fixnum.D1](-32)
	f.Cond = condition.Damp
	f.FanPower = frame.FlagOf(true)
	f.Seal()
	buf, err := f.MarshalBinary()
	require.NoError(t, err)
	return buf
}

func newCollector(t *testing.T) metrics.Collector {
	t.Helper()
	c, err := metrics.NewService(metrics.DefaultConfig(), nil, logger.Get())
	require.NoError(t, err)
	return c
}

func TestHandleValidFrame(t *testing.T) {
	bus := mqtt.NewFake()
	r := peer.NewReceiver(frame.LayoutWithCondition, bus, local{}, newCollector(t), logger.Get())

	r.Handle('L', sealed(t))

	assert.Equal(t, peer.Stats{Received: 1}, r.Stats())
	last := r.Last()
	assert.Equal(t, int16(215), last.TempIn.Raw())
	assert.Equal(t, condition.Damp, last.Cond)

	require.Len(t, bus.Replies, 1)
	ack := frame.NewAck()
	require.NoError(t, ack.UnmarshalBinary(bus.Replies[0]))
	require.True(t, ack.Verify())
	assert.Equal(t, int16(200), ack.TempRef.Raw())
	assert.Equal(t, int16(50), ack.Voltage.Raw())
}

func TestHandleCorruptFrame(t *testing.T) {
	bus := mqtt.NewFake()
	r := peer.NewReceiver(frame.LayoutWithCondition, bus, local{}, nil, logger.Get())

	buf := sealed(t)
	buf[0] ^= 0x04
	r.Handle('L', buf)

	assert.Equal(t, peer.Stats{Received: 1, Corrupt: 1}, r.Stats())
	assert.Equal(t, *frame.New(frame.LayoutWithCondition), r.Last())
	assert.Len(t, bus.Replies, 1)
}

func TestHandleWrongSize(t *testing.T) {
	bus := mqtt.NewFake()
	r := peer.NewReceiver(frame.LayoutCompact, bus, local{}, nil, logger.Get())

	r.Handle('L', sealed(t))

	assert.Equal(t, peer.Stats{Received: 1, Corrupt: 1}, r.Stats())
	assert.False(t, r.Last().TempIn.Valid())
}

func TestHandleReplyFailure(t *testing.T) {
	r := peer.NewReceiver(frame.LayoutWithCondition, failingReplier{}, local{}, nil, logger.Get())

	r.Handle('L', sealed(t))
	assert.Equal(t, peer.Stats{Received: 1, ReplyFailed: 1}, r.Stats())
}

func TestReadings(t *testing.T) {
	s := &sensor.Fake{}
	s.Set(fixnum.FromRaw[int16, fixnum.D1](185), fixnum.FromRaw[int8, fixnum.D0](50))

	r := peer.NewReadings(s, nil)
	assert.Equal(t, "18.5", r.TempRef().String())
	assert.False(t, r.Voltage().Valid())

	v := fan.NewVoltageSampler(&hal.FakeADC{Samples: []int{100}}, fan.DefaultDivider(), 0, logger.Get())
	r = peer.NewReadings(s, v)
	assert.Equal(t, "8.0", r.Voltage().String())
}
