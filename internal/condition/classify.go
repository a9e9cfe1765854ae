package condition

import "codeberg.org/mutker/fanctl/internal/fixnum"

const (
	DefaultHot         = 5 // °C
	DefaultCold        = 1 // °C
	DefaultTempMargin  = 1 // °C
	DefaultHumidMargin = 5 // %RH
)

// Pair is one temperature/humidity acquisition.
type Pair struct {
	Temp fixnum.Temperature
	RH   fixnum.Humidity
}

// Readings is the snapshot the classifier works on.
type Readings struct {
	In  Pair
	Out Pair
}

// Thresholds configures the temperature tests.
type Thresholds struct {
	Hot  fixnum.Temperature
	Cold fixnum.Temperature
}

// DefaultThresholds returns hot 5 °C and cold 1 °C.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Hot:  fixnum.FromInt[int16, fixnum.D1](DefaultHot),
		Cold: fixnum.FromInt[int16, fixnum.D1](DefaultCold),
	}
}

// Margins is the assumed sensor error used to bias the vapour pressure
// comparison.
type Margins struct {
	Temp  fixnum.Temperature
	Humid fixnum.Humidity
}

// DefaultMargins returns ±1 °C and ±5 %RH.
func DefaultMargins() Margins {
	return Margins{
		Temp:  fixnum.FromInt[int16, fixnum.D1](DefaultTempMargin),
		Humid: fixnum.FromInt[int8, fixnum.D0](DefaultHumidMargin),
	}
}

// Proxies derives the indoor and outdoor vapour pressures with the margins
// applied so that indoor air looks drier and outdoor air wetter than
// measured. Damp is only reported when it holds despite the sensor error.
func Proxies(r Readings, m Margins) (in, out fixnum.VaporPressure) {
	in = VaporPressure(r.In.Temp.Sub(m.Temp), subRH(r.In.RH, m.Humid))
	out = VaporPressure(r.Out.Temp.Add(m.Temp), addRH(r.Out.RH, m.Humid))
	return in, out
}

// Classify maps a snapshot to a Condition. The first matching rule wins:
//
//  1. either temperature invalid: Unknown
//  2. indoor above hot and outdoor warmer than indoor: TooHot
//  3. indoor below cold and outdoor colder than indoor: TooCold
//  4. either vapour pressure invalid: Unknown
//  5. indoor vapour pressure not above outdoor: Dry
//  6. otherwise: Damp
func Classify(r Readings, t Thresholds, wvpIn, wvpOut fixnum.VaporPressure) Condition {
	in, out := r.In.Temp, r.Out.Temp
	if !in.Valid() || !out.Valid() {
		return Unknown
	}
	if in.Greater(t.Hot) && out.Greater(in) {
		return TooHot
	}
	if in.Less(t.Cold) && out.Less(in) {
		return TooCold
	}
	if !wvpIn.Valid() || !wvpOut.Valid() {
		return Unknown
	}
	if wvpIn.LessEq(wvpOut) {
		return Dry
	}
	return Damp
}

// RH arithmetic saturates instead of overflowing int8 near 100 %.
func addRH(rh, d fixnum.Humidity) fixnum.Humidity {
	if !rh.Valid() || !d.Valid() {
		return fixnum.Invalid[int8, fixnum.D0]()
	}
	return fixnum.FromRaw[int8, fixnum.D0](clampRH(int(rh.Raw()) + int(d.Raw())))
}

func subRH(rh, d fixnum.Humidity) fixnum.Humidity {
	if !rh.Valid() || !d.Valid() {
		return fixnum.Invalid[int8, fixnum.D0]()
	}
	return fixnum.FromRaw[int8, fixnum.D0](clampRH(int(rh.Raw()) - int(d.Raw())))
}

func clampRH(v int) int8 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int8(v)
}
