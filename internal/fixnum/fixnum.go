// Package fixnum implements scaled-integer numbers with an "unavailable"
// sentinel. Every reading that crosses the wire between the sensor node and
// its peer is one of these.
//
// A Fixed[T, S] stores an integer of type T scaled by 10^S.Decimals(). The
// minimum value of T is reserved: it marks a value as invalid and never
// represents a reading. The zero value of Fixed is invalid.
//
// Arithmetic propagates invalidity and every comparison involving an invalid
// operand is false. Two invalid values are not Equal.
package fixnum

import (
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Scale fixes the number of implied decimal digits of a Fixed type.
type Scale interface {
	Decimals() int
}

type (
	D0 struct{}
	D1 struct{}
	D2 struct{}
	D3 struct{}
)

func (D0) Decimals() int { return 0 }
func (D1) Decimals() int { return 1 }
func (D2) Decimals() int { return 2 }
func (D3) Decimals() int { return 3 }

// Fixed is a fixed-point number. Construct it with FromRaw, FromFloat,
// FromInt or Invalid.
type Fixed[T constraints.Signed, S Scale] struct {
	raw   T
	valid bool
}

// Quantities exchanged by the two nodes.
type (
	Temperature   = Fixed[int16, D1] // °C
	Humidity      = Fixed[int8, D0]  // %RH
	Voltage       = Fixed[int16, D1] // V
	RPM           = Fixed[int32, D0]
	VaporPressure = Fixed[int32, D3] // kPa
	Minutes       = Fixed[int16, D0]
)

// Sentinel returns the raw value reserved for "invalid" in T.
func Sentinel[T constraints.Signed]() T {
	var zero T
	return T(-1) << (8*unsafe.Sizeof(zero) - 1)
}

func maxOf[T constraints.Signed]() T {
	return ^Sentinel[T]()
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// Invalid returns the unavailable value.
func Invalid[T constraints.Signed, S Scale]() Fixed[T, S] {
	return Fixed[T, S]{}
}

// FromRaw wraps an already scaled integer. The sentinel yields an invalid
// value.
func FromRaw[T constraints.Signed, S Scale](raw T) Fixed[T, S] {
	if raw == Sentinel[T]() {
		return Fixed[T, S]{}
	}
	return Fixed[T, S]{raw: raw, valid: true}
}

// FromInt converts a whole number of units, e.g. FromInt(7) is 7.0 V.
func FromInt[T constraints.Signed, S Scale](n int64) Fixed[T, S] {
	var s S
	scaled, ok := mul64(n, pow10(s.Decimals()))
	if !ok {
		return Fixed[T, S]{}
	}
	return fromInt64[T, S](scaled)
}

// FromFloat rounds v to the nearest representable value. NaN, infinities
// and values outside the range of T are invalid.
func FromFloat[T constraints.Signed, S Scale](v float64) Fixed[T, S] {
	var s S
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Fixed[T, S]{}
	}
	scaled := math.Round(v * float64(pow10(s.Decimals())))
	if scaled <= float64(Sentinel[T]()) || scaled > float64(maxOf[T]()) {
		return Fixed[T, S]{}
	}
	return Fixed[T, S]{raw: T(scaled), valid: true}
}

func fromInt64[T constraints.Signed, S Scale](v int64) Fixed[T, S] {
	if v <= int64(Sentinel[T]()) || v > int64(maxOf[T]()) {
		return Fixed[T, S]{}
	}
	return Fixed[T, S]{raw: T(v), valid: true}
}

// Valid reports whether f holds a reading.
func (f Fixed[T, S]) Valid() bool {
	return f.valid
}

// Raw returns the scaled integer, or the sentinel when f is invalid.
func (f Fixed[T, S]) Raw() T {
	if !f.valid {
		return Sentinel[T]()
	}
	return f.raw
}

// Decimals returns the number of implied decimal digits.
func (Fixed[T, S]) Decimals() int {
	var s S
	return s.Decimals()
}

// Float returns f as a float64, NaN when invalid.
func (f Fixed[T, S]) Float() float64 {
	if !f.valid {
		return math.NaN()
	}
	return float64(f.raw) / float64(pow10(f.Decimals()))
}

func (f Fixed[T, S]) Add(o Fixed[T, S]) Fixed[T, S] {
	if !f.valid || !o.valid {
		return Fixed[T, S]{}
	}
	return fromInt64[T, S](int64(f.raw) + int64(o.raw))
}

func (f Fixed[T, S]) Sub(o Fixed[T, S]) Fixed[T, S] {
	if !f.valid || !o.valid {
		return Fixed[T, S]{}
	}
	return fromInt64[T, S](int64(f.raw) - int64(o.raw))
}

func (f Fixed[T, S]) Mul(o Fixed[T, S]) Fixed[T, S] {
	if !f.valid || !o.valid {
		return Fixed[T, S]{}
	}
	p, ok := mul64(int64(f.raw), int64(o.raw))
	if !ok {
		return Fixed[T, S]{}
	}
	return fromInt64[T, S](divRound(p, pow10(f.Decimals())))
}

// Div divides f by o. A zero divisor yields an invalid value.
func (f Fixed[T, S]) Div(o Fixed[T, S]) Fixed[T, S] {
	if !f.valid || !o.valid || o.raw == 0 {
		return Fixed[T, S]{}
	}
	n, ok := mul64(int64(f.raw), pow10(f.Decimals()))
	if !ok {
		return Fixed[T, S]{}
	}
	return fromInt64[T, S](divRound(n, int64(o.raw)))
}

func (f Fixed[T, S]) Less(o Fixed[T, S]) bool {
	return f.valid && o.valid && f.raw < o.raw
}

func (f Fixed[T, S]) LessEq(o Fixed[T, S]) bool {
	return f.valid && o.valid && f.raw <= o.raw
}

func (f Fixed[T, S]) Greater(o Fixed[T, S]) bool {
	return f.valid && o.valid && f.raw > o.raw
}

func (f Fixed[T, S]) GreaterEq(o Fixed[T, S]) bool {
	return f.valid && o.valid && f.raw >= o.raw
}

// Equal is false when either side is invalid, including two invalids.
func (f Fixed[T, S]) Equal(o Fixed[T, S]) bool {
	return f.valid && o.valid && f.raw == o.raw
}

func (f Fixed[T, S]) NotEqual(o Fixed[T, S]) bool {
	return f.valid && o.valid && f.raw != o.raw
}

func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}

// divRound divides rounding half away from zero.
func divRound(n, d int64) int64 {
	q, r := n/d, n%d
	if r < 0 {
		r = -r
	}
	if 2*r >= abs64(d) {
		if (n < 0) != (d < 0) {
			q--
		} else {
			q++
		}
	}
	return q
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
