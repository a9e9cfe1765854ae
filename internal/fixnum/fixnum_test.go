package fixnum_test

import (
	"math"
	"testing"

	"codeberg.org/mutker/fanctl/internal/fixnum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type temp = fixnum.Temperature

func TestRawRoundTrip(t *testing.T) {
	for _, r := range []int16{0, 1, -1, 215, -40, math.MaxInt16, math.MinInt16 + 1} {
		v := fixnum.FromRaw[int16, fixnum.D1](r)
		require.True(t, v.Valid(), "raw %d", r)
		assert.Equal(t, r, v.Raw())
	}

	for _, r := range []int8{0, 55, 100, math.MaxInt8, math.MinInt8 + 1} {
		v := fixnum.FromRaw[int8, fixnum.D0](r)
		require.True(t, v.Valid())
		assert.Equal(t, r, v.Raw())
	}
}

func TestSentinel(t *testing.T) {
	assert.Equal(t, int8(math.MinInt8), fixnum.Sentinel[int8]())
	assert.Equal(t, int16(math.MinInt16), fixnum.Sentinel[int16]())
	assert.Equal(t, int32(math.MinInt32), fixnum.Sentinel[int32]())
	assert.Equal(t, int64(math.MinInt64), fixnum.Sentinel[int64]())

	v := fixnum.FromRaw[int16, fixnum.D1](math.MinInt16)
	assert.False(t, v.Valid())
	assert.Equal(t, int16(math.MinInt16), v.Raw())

	var zero temp
	assert.False(t, zero.Valid(), "zero value must be invalid")
	assert.Equal(t, fixnum.Invalid[int16, fixnum.D1](), v)
	assert.True(t, math.IsNaN(zero.Float()))
}

func TestFromFloat(t *testing.T) {
	tests := []struct {
		name  string
		in    float64
		raw   int16
		valid bool
	}{
		{"exact", 21.5, 215, true},
		{"round up", 21.46, 215, true},
		{"round down", 21.44, 214, true},
		{"negative half", -0.25, -3, true},
		{"max", 3276.7, math.MaxInt16, true},
		{"too large", 3276.8, 0, false},
		{"sentinel", -3276.8, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(-1), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := fixnum.FromFloat[int16, fixnum.D1](tt.in)
			require.Equal(t, tt.valid, v.Valid())
			if tt.valid {
				assert.Equal(t, tt.raw, v.Raw())
			}
		})
	}
}

func TestFromInt(t *testing.T) {
	v := fixnum.FromInt[int16, fixnum.D1](7)
	require.True(t, v.Valid())
	assert.Equal(t, int16(70), v.Raw())

	assert.False(t, fixnum.FromInt[int16, fixnum.D1](4000).Valid())
	assert.False(t, fixnum.FromInt[int64, fixnum.D3](math.MaxInt64).Valid())
}

func TestArithmetic(t *testing.T) {
	a := fixnum.FromRaw[int16, fixnum.D1](105) // 10.5
	b := fixnum.FromRaw[int16, fixnum.D1](20)  // 2.0

	assert.Equal(t, int16(125), a.Add(b).Raw())
	assert.Equal(t, int16(85), a.Sub(b).Raw())
	assert.Equal(t, int16(210), a.Mul(b).Raw())
	assert.Equal(t, int16(53), a.Div(b).Raw()) // 5.25 rounds to 5.3
	assert.Equal(t, int16(-53), a.Div(fixnum.FromRaw[int16, fixnum.D1](-20)).Raw())

	assert.False(t, a.Div(fixnum.FromRaw[int16, fixnum.D1](0)).Valid())

	big := fixnum.FromRaw[int16, fixnum.D1](math.MaxInt16)
	assert.False(t, big.Add(b).Valid(), "overflow must be invalid")
	assert.False(t, big.Mul(big).Valid())
	assert.False(t, fixnum.FromRaw[int16, fixnum.D1](math.MinInt16+1).Sub(b).Valid())
}

func TestInvalidPropagation(t *testing.T) {
	x := fixnum.Invalid[int16, fixnum.D1]()
	for _, y := range []temp{
		fixnum.Invalid[int16, fixnum.D1](),
		fixnum.FromRaw[int16, fixnum.D1](0),
		fixnum.FromRaw[int16, fixnum.D1](123),
		fixnum.FromRaw[int16, fixnum.D1](-123),
	} {
		assert.False(t, x.Add(y).Valid())
		assert.False(t, x.Sub(y).Valid())
		assert.False(t, x.Mul(y).Valid())
		assert.False(t, x.Div(y).Valid())
		assert.False(t, y.Add(x).Valid())
		assert.False(t, y.Sub(x).Valid())
		assert.False(t, y.Mul(x).Valid())
		assert.False(t, y.Div(x).Valid())

		assert.False(t, x.Less(y))
		assert.False(t, x.LessEq(y))
		assert.False(t, x.Greater(y))
		assert.False(t, x.GreaterEq(y))
		assert.False(t, x.Equal(y))
		assert.False(t, x.NotEqual(y))
		assert.False(t, y.Less(x))
		assert.False(t, y.GreaterEq(x))
	}
	assert.False(t, x.Valid())
}

func TestCompare(t *testing.T) {
	lo := fixnum.FromRaw[int16, fixnum.D1](60)
	hi := fixnum.FromRaw[int16, fixnum.D1](80)

	assert.True(t, lo.Less(hi))
	assert.True(t, lo.LessEq(hi))
	assert.True(t, lo.LessEq(lo))
	assert.True(t, hi.Greater(lo))
	assert.True(t, hi.GreaterEq(hi))
	assert.True(t, lo.Equal(lo))
	assert.True(t, lo.NotEqual(hi))
	assert.False(t, hi.Less(lo))
	assert.False(t, lo.Equal(hi))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value string
		got   string
	}{
		{"signed right", "+21.5", fixnum.FromRaw[int16, fixnum.D1](215).Format(5, fixnum.FmtSign|fixnum.FmtRight)},
		{"signed small", " +1.5", fixnum.FromRaw[int16, fixnum.D1](15).Format(5, fixnum.FmtSign|fixnum.FmtRight)},
		{"negative", " -0.5", fixnum.FromRaw[int16, fixnum.D1](-5).Format(5, fixnum.FmtSign|fixnum.FmtRight)},
		{"zero signed", " +0.0", fixnum.FromRaw[int16, fixnum.D1](0).Format(5, fixnum.FmtSign|fixnum.FmtRight)},
		{"left", "7.2  ", fixnum.FromRaw[int16, fixnum.D1](72).Format(5, 0)},
		{"integer", "45", fixnum.FromRaw[int8, fixnum.D0](45).Format(2, fixnum.FmtRight)},
		{"integer pad", " 5", fixnum.FromRaw[int8, fixnum.D0](5).Format(2, fixnum.FmtRight)},
		{"overflow width", "100", fixnum.FromRaw[int8, fixnum.D0](100).Format(2, fixnum.FmtRight)},
		{"three decimals", " 1.234", fixnum.FromRaw[int32, fixnum.D3](1234).Format(6, fixnum.FmtRight)},
		{"leading zeros", " 0.012", fixnum.FromRaw[int32, fixnum.D3](12).Format(6, fixnum.FmtRight)},
		{"rpm", "36000", fixnum.FromRaw[int32, fixnum.D0](36000).Format(5, fixnum.FmtRight)},
		{"invalid decimal", "???.?", fixnum.Invalid[int16, fixnum.D1]().Format(5, fixnum.FmtSign|fixnum.FmtRight)},
		{"invalid integer", "??", fixnum.Invalid[int8, fixnum.D0]().Format(2, fixnum.FmtRight)},
		{"invalid narrow", "?.?", fixnum.Invalid[int16, fixnum.D1]().Format(0, 0)},
		{"string", "-12.3", fixnum.FromRaw[int16, fixnum.D1](-123).String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, tt.got)
		})
	}
}
