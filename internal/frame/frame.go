// Package frame holds the fixed-layout records exchanged between the sensor
// node and its peer, together with their CRC-8 seal.
//
// Records are serialised field by field, little-endian and without padding,
// in declaration order. The checksum is the last byte and covers every byte
// before it. A record that fails verification is cleared: an unknown
// reading is preferred over a corrupt one.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/fixnum"
)

// ErrFrameSize is returned when a buffer does not match the layout size.
var ErrFrameSize = errors.New("frame: wrong size")

// Layout selects one of the two wire variants. Both nodes must agree.
type Layout uint8

const (
	// LayoutWithCondition carries the classified condition after RHOut.
	LayoutWithCondition Layout = iota
	// LayoutCompact omits the condition; the peer does not classify.
	LayoutCompact
)

const (
	sizeCompact       = 2 + 1 + 2 + 1 + 2 + 1 + 4 + 1
	sizeWithCondition = sizeCompact + 1
)

// Size returns the encoded size of a frame in this layout, checksum
// included.
func (l Layout) Size() int {
	if l == LayoutCompact {
		return sizeCompact
	}
	return sizeWithCondition
}

func (l Layout) String() string {
	switch l {
	case LayoutWithCondition:
		return "with_condition"
	case LayoutCompact:
		return "compact"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// Flag is a boolean carried as one byte. Writers only produce 0 and 1; a
// byte read from the wire is kept verbatim so the checksum still covers it.
type Flag uint8

// FlagOf converts b to its wire form.
func FlagOf(b bool) Flag {
	if b {
		return 1
	}
	return 0
}

// On reports whether the flag is set.
func (f Flag) On() bool {
	return f != 0
}

// Frame is the telemetry record sent from the sensor node.
type Frame struct {
	Layout Layout

	TempIn   fixnum.Temperature
	RHIn     fixnum.Humidity
	TempOut  fixnum.Temperature
	RHOut    fixnum.Humidity
	Cond     condition.Condition
	Voltage  fixnum.Voltage
	FanPower Flag
	FanRPM   fixnum.RPM
	CRC      byte
}

// New returns a cleared frame for the given layout.
func New(l Layout) *Frame {
	f := &Frame{Layout: l}
	f.Clear()
	return f
}

// Clear marks every reading unavailable. The checksum is left undefined
// (zero) until the next Seal.
func (f *Frame) Clear() {
	*f = Frame{
		Layout:  f.Layout,
		TempIn:  fixnum.Invalid[int16, fixnum.D1](),
		RHIn:    fixnum.Invalid[int8, fixnum.D0](),
		TempOut: fixnum.Invalid[int16, fixnum.D1](),
		RHOut:   fixnum.Invalid[int8, fixnum.D0](),
		Cond:    condition.Unknown,
		Voltage: fixnum.Invalid[int16, fixnum.D1](),
		FanRPM:  fixnum.Invalid[int32, fixnum.D0](),
	}
}

// Seal computes the checksum over the encoded fields.
func (f *Frame) Seal() {
	buf := f.encode()
	f.CRC = CRC8(buf[:len(buf)-1])
}

// Verify recomputes the checksum. On mismatch the frame is cleared and
// false is returned.
func (f *Frame) Verify() bool {
	buf := f.encode()
	if CRC8(buf[:len(buf)-1]) == f.CRC {
		return true
	}
	f.Clear()
	return false
}

// MarshalBinary encodes the frame including its current checksum.
func (f *Frame) MarshalBinary() ([]byte, error) {
	return f.encode(), nil
}

// UnmarshalBinary decodes buf according to f.Layout. It does not verify
// the checksum; call Verify afterwards.
func (f *Frame) UnmarshalBinary(buf []byte) error {
	if len(buf) != f.Layout.Size() {
		return fmt.Errorf("%w: got %d bytes, %s layout needs %d",
			ErrFrameSize, len(buf), f.Layout, f.Layout.Size())
	}

	r := reader{buf: buf}
	f.TempIn = fixnum.FromRaw[int16, fixnum.D1](r.int16())
	f.RHIn = fixnum.FromRaw[int8, fixnum.D0](r.int8())
	f.TempOut = fixnum.FromRaw[int16, fixnum.D1](r.int16())
	f.RHOut = fixnum.FromRaw[int8, fixnum.D0](r.int8())
	f.Cond = condition.Unknown
	if f.Layout == LayoutWithCondition {
		f.Cond = condition.Condition(r.uint8())
	}
	f.Voltage = fixnum.FromRaw[int16, fixnum.D1](r.int16())
	f.FanPower = Flag(r.uint8())
	f.FanRPM = fixnum.FromRaw[int32, fixnum.D0](r.int32())
	f.CRC = r.uint8()

	return nil
}

func (f *Frame) encode() []byte {
	w := writer{buf: make([]byte, 0, f.Layout.Size())}
	w.int16(f.TempIn.Raw())
	w.int8(f.RHIn.Raw())
	w.int16(f.TempOut.Raw())
	w.int8(f.RHOut.Raw())
	if f.Layout == LayoutWithCondition {
		w.uint8(uint8(f.Cond))
	}
	w.int16(f.Voltage.Raw())
	w.uint8(uint8(f.FanPower))
	w.int32(f.FanRPM.Raw())
	w.uint8(f.CRC)
	return w.buf
}

type writer struct {
	buf []byte
}

func (w *writer) uint8(v uint8) { w.buf = append(w.buf, v) }
func (w *writer) int8(v int8)   { w.buf = append(w.buf, byte(v)) }
func (w *writer) int16(v int16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v)) }
func (w *writer) int32(v int32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v)) }

// reader assumes the length was checked by the caller.
type reader struct {
	buf []byte
	off int
}

func (r *reader) uint8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) int8() int8 {
	return int8(r.uint8())
}

func (r *reader) int16() int16 {
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return int16(v)
}

func (r *reader) int32() int32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return int32(v)
}
