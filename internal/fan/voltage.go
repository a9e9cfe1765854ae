package fan

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/logger"
)

const DefaultVoltageInterval = time.Second

// Divider describes the resistive divider in front of the ADC. Resistances
// only matter as a ratio, any unit works.
type Divider struct {
	VRefMilli int64 // ADC reference in mV
	ADCMax    int64 // counts at VRef
	RHigh     int64
	RLow      int64
}

// DefaultDivider is 5.1 MΩ over 330 kΩ on a 5 V 10-bit ADC.
func DefaultDivider() Divider {
	return Divider{
		VRefMilli: 5000,
		ADCMax:    1024,
		RHigh:     510,
		RLow:      33,
	}
}

func (d Divider) Validate() error {
	errFactory := errors.New()
	if d.VRefMilli <= 0 || d.ADCMax <= 0 || d.RHigh < 0 || d.RLow <= 0 {
		return errFactory.WithData(ErrInvalidDivider, d)
	}
	return nil
}

// Convert scales a raw ADC count to the voltage before the divider.
func (d Divider) Convert(raw int) fixnum.Voltage {
	if raw < 0 {
		return fixnum.Invalid[int16, fixnum.D1]()
	}
	// tenths of a volt: raw * Vref[mV] / 100 * (RH+RL) / RL / ADCMax
	deci := int64(raw) * d.VRefMilli * (d.RHigh + d.RLow) / (d.RLow * d.ADCMax * 100)
	return fixnum.FromRaw[int16, fixnum.D1](clampInt16(deci))
}

func clampInt16(v int64) int16 {
	if v > 1<<15-1 {
		// The sentinel is the only other out of range value.
		return -1 << 15
	}
	return int16(v)
}

// VoltageSampler reads the supply voltage at most once per interval and
// serves the cached value in between.
type VoltageSampler struct {
	adc      ADC
	divider  Divider
	interval time.Duration
	logger   logger.Logger

	sampled bool
	last    time.Time
	value   fixnum.Voltage
}

func NewVoltageSampler(adc ADC, divider Divider, interval time.Duration, log logger.Logger) *VoltageSampler {
	return &VoltageSampler{
		adc:      adc,
		divider:  divider,
		interval: interval,
		logger:   log,
		value:    fixnum.Invalid[int16, fixnum.D1](),
	}
}

// Voltage returns the supply voltage, sampling the ADC when the cached
// value is older than the interval. A failed read caches an invalid value.
func (s *VoltageSampler) Voltage(now time.Time) fixnum.Voltage {
	if s.sampled && now.Sub(s.last) < s.interval {
		return s.value
	}

	s.sampled = true
	s.last = now

	raw, err := s.adc.Read()
	if err != nil {
		s.logger.Debug().Err(errors.New().Wrap(ErrVoltageRead, err)).Msg("Supply voltage unavailable")
		s.value = fixnum.Invalid[int16, fixnum.D1]()
		return s.value
	}

	s.value = s.divider.Convert(raw)
	return s.value
}

// Cached returns the last sampled value without touching the ADC.
func (s *VoltageSampler) Cached() fixnum.Voltage {
	return s.value
}
