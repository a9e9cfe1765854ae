package condition

import (
	"math"

	"codeberg.org/mutker/fanctl/internal/fixnum"
)

// Magnus coefficients over water (Alduchov and Eskridge, 1996).
const (
	magnusA = 0.61094 // kPa
	magnusB = 17.625
	magnusC = 243.04 // °C
)

// VaporPressure returns the partial pressure of water vapour in kPa for air
// at temperature t with relative humidity rh. It is only used to compare
// two air masses, so the Magnus approximation is precise enough. RH is
// clamped to [0, 100]; any invalid input gives an invalid result.
func VaporPressure(t fixnum.Temperature, rh fixnum.Humidity) fixnum.VaporPressure {
	if !t.Valid() || !rh.Valid() {
		return fixnum.Invalid[int32, fixnum.D3]()
	}
	tc := t.Float()
	if tc <= -magnusC {
		return fixnum.Invalid[int32, fixnum.D3]()
	}
	saturation := magnusA * math.Exp(magnusB*tc/(tc+magnusC))
	return fixnum.FromFloat[int32, fixnum.D3](saturation * float64(clampRH(int(rh.Raw()))) / 100)
}
