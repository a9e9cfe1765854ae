package condition_test

import (
	"testing"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func celsius(v float64) fixnum.Temperature {
	return fixnum.FromFloat[int16, fixnum.D1](v)
}

func rh(v int8) fixnum.Humidity {
	return fixnum.FromRaw[int8, fixnum.D0](v)
}

func kpa(v float64) fixnum.VaporPressure {
	return fixnum.FromFloat[int32, fixnum.D3](v)
}

func readings(in, out fixnum.Temperature) condition.Readings {
	return condition.Readings{
		In:  condition.Pair{Temp: in, RH: rh(40)},
		Out: condition.Pair{Temp: out, RH: rh(40)},
	}
}

func TestClassify(t *testing.T) {
	noTemp := fixnum.Invalid[int16, fixnum.D1]()
	noWVP := fixnum.Invalid[int32, fixnum.D3]()
	th := condition.DefaultThresholds()

	tests := []struct {
		name   string
		r      condition.Readings
		wvpIn  fixnum.VaporPressure
		wvpOut fixnum.VaporPressure
		want   condition.Condition
	}{
		{"too hot", readings(celsius(10), celsius(15)), kpa(1), kpa(2), condition.TooHot},
		{"warm but outside cooler", readings(celsius(10), celsius(8)), kpa(1), kpa(2), condition.Dry},
		{"hot at threshold is not hot", readings(celsius(5), celsius(15)), kpa(2), kpa(1), condition.Damp},
		{"too cold", readings(celsius(0), celsius(-2)), kpa(2), kpa(1), condition.TooCold},
		{"cold but outside warmer", readings(celsius(0), celsius(3)), kpa(2), kpa(1), condition.Damp},
		{"dry", readings(celsius(3), celsius(3)), kpa(0.5), kpa(0.7), condition.Dry},
		{"equal proxies are dry", readings(celsius(3), celsius(3)), kpa(0.7), kpa(0.7), condition.Dry},
		{"damp", readings(celsius(3), celsius(3)), kpa(0.8), kpa(0.7), condition.Damp},
		{"indoor temp invalid", readings(noTemp, celsius(15)), kpa(1), kpa(2), condition.Unknown},
		{"outdoor temp invalid", readings(celsius(10), noTemp), kpa(1), kpa(2), condition.Unknown},
		{"indoor proxy invalid", readings(celsius(3), celsius(3)), noWVP, kpa(0.7), condition.Unknown},
		{"outdoor proxy invalid", readings(celsius(3), celsius(3)), kpa(0.7), noWVP, condition.Unknown},
		{"hot wins over invalid proxy", readings(celsius(10), celsius(15)), noWVP, noWVP, condition.TooHot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, condition.Classify(tt.r, th, tt.wvpIn, tt.wvpOut))
		})
	}
}

func TestVaporPressure(t *testing.T) {
	// Saturation at 20 °C is about 2.34 kPa.
	p := condition.VaporPressure(celsius(20), rh(100))
	require.True(t, p.Valid())
	assert.InDelta(t, 2.34, p.Float(), 0.02)

	half := condition.VaporPressure(celsius(20), rh(50))
	assert.InDelta(t, p.Float()/2, half.Float(), 0.002)

	assert.True(t, condition.VaporPressure(celsius(10), rh(60)).Less(condition.VaporPressure(celsius(20), rh(60))))
	assert.False(t, condition.VaporPressure(fixnum.Invalid[int16, fixnum.D1](), rh(50)).Valid())
	assert.False(t, condition.VaporPressure(celsius(20), fixnum.Invalid[int8, fixnum.D0]()).Valid())
	assert.Equal(t, int32(0), condition.VaporPressure(celsius(20), rh(0)).Raw())
}

func TestProxiesBiasTowardsDry(t *testing.T) {
	r := condition.Readings{
		In:  condition.Pair{Temp: celsius(12), RH: rh(70)},
		Out: condition.Pair{Temp: celsius(12), RH: rh(70)},
	}

	in, out := condition.Proxies(r, condition.DefaultMargins())
	require.True(t, in.Valid())
	require.True(t, out.Valid())
	assert.True(t, in.Less(out))
	assert.Equal(t, condition.Dry, condition.Classify(r, condition.DefaultThresholds(), in, out))

	r.In.RH = rh(98)
	r.Out.RH = rh(40)
	in, out = condition.Proxies(r, condition.DefaultMargins())
	assert.Equal(t, condition.Damp, condition.Classify(r, condition.DefaultThresholds(), in, out))

	r.Out.RH = rh(98)
	_, out = condition.Proxies(r, condition.DefaultMargins())
	assert.True(t, out.Valid(), "RH above 100 after margin must saturate")

	r.In.RH = fixnum.Invalid[int8, fixnum.D0]()
	in, _ = condition.Proxies(r, condition.DefaultMargins())
	assert.False(t, in.Valid())
}

func TestLabels(t *testing.T) {
	want := map[condition.Condition]string{
		condition.Unknown: " ????",
		condition.TooHot:  "  HOT",
		condition.TooCold: " COLD",
		condition.Dry:     "  DRY",
		condition.Damp:    "!DAMP",
	}

	for _, c := range condition.All() {
		assert.Equal(t, want[c], c.Label())
		assert.Len(t, c.Label(), 5)
		assert.NotEmpty(t, c.String())
	}
	assert.Equal(t, " ????", condition.Condition(9).Label())
	assert.Equal(t, "condition(9)", condition.Condition(9).String())
}
