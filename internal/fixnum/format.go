package fixnum

import (
	"strconv"
	"strings"
)

// Flags select the layout produced by Format.
type Flags uint8

const (
	// FmtRight pads on the left instead of the right.
	FmtRight Flags = 1 << iota
	// FmtSign prints '+' in front of non-negative values.
	FmtSign
)

const placeholder = '?'

// Format renders f in at least width columns with the decimal point at the
// type's scale. Invalid values keep the shape but every digit is '?'.
// Output longer than width is not truncated.
func (f Fixed[T, S]) Format(width int, flags Flags) string {
	d := f.Decimals()

	var text string
	if f.valid {
		text = f.digits(d, flags)
	} else {
		text = unknown(width, d)
	}

	if pad := width - len(text); pad > 0 {
		if flags&FmtRight != 0 {
			return strings.Repeat(" ", pad) + text
		}
		return text + strings.Repeat(" ", pad)
	}
	return text
}

// String implements fmt.Stringer.
func (f Fixed[T, S]) String() string {
	return f.Format(0, 0)
}

func (f Fixed[T, S]) digits(d int, flags Flags) string {
	neg := f.raw < 0
	mag := uint64(f.raw)
	if neg {
		mag = uint64(-int64(f.raw))
	}

	s := strconv.FormatUint(mag, 10)
	if len(s) < d+1 {
		s = strings.Repeat("0", d+1-len(s)) + s
	}
	if d > 0 {
		s = s[:len(s)-d] + "." + s[len(s)-d:]
	}

	switch {
	case neg:
		return "-" + s
	case flags&FmtSign != 0:
		return "+" + s
	default:
		return s
	}
}

func unknown(width, d int) string {
	n := d + 1
	if d > 0 {
		n++
	}
	if width > n {
		n = width
	}

	b := []byte(strings.Repeat(string(placeholder), n))
	if d > 0 {
		b[n-d-1] = '.'
	}
	return string(b)
}
