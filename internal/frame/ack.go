package frame

import (
	"fmt"

	"codeberg.org/mutker/fanctl/internal/fixnum"
)

// AckSize is the encoded size of an Ack, checksum included.
const AckSize = 2 + 2 + 1

// Ack is the peer's reply to a frame: its own reference temperature and
// supply voltage.
type Ack struct {
	TempRef fixnum.Temperature
	Voltage fixnum.Voltage
	CRC     byte
}

// NewAck returns a cleared Ack.
func NewAck() *Ack {
	a := &Ack{}
	a.Clear()
	return a
}

func (a *Ack) Clear() {
	*a = Ack{
		TempRef: fixnum.Invalid[int16, fixnum.D1](),
		Voltage: fixnum.Invalid[int16, fixnum.D1](),
	}
}

func (a *Ack) Seal() {
	buf := a.encode()
	a.CRC = CRC8(buf[:AckSize-1])
}

// Verify checks the checksum and clears a on mismatch.
func (a *Ack) Verify() bool {
	buf := a.encode()
	if CRC8(buf[:AckSize-1]) == a.CRC {
		return true
	}
	a.Clear()
	return false
}

func (a *Ack) MarshalBinary() ([]byte, error) {
	return a.encode(), nil
}

func (a *Ack) UnmarshalBinary(buf []byte) error {
	if len(buf) != AckSize {
		return fmt.Errorf("%w: got %d bytes, ack needs %d", ErrFrameSize, len(buf), AckSize)
	}

	r := reader{buf: buf}
	a.TempRef = fixnum.FromRaw[int16, fixnum.D1](r.int16())
	a.Voltage = fixnum.FromRaw[int16, fixnum.D1](r.int16())
	a.CRC = r.uint8()

	return nil
}

func (a *Ack) encode() []byte {
	w := writer{buf: make([]byte, 0, AckSize)}
	w.int16(a.TempRef.Raw())
	w.int16(a.Voltage.Raw())
	w.uint8(a.CRC)
	return w.buf
}
