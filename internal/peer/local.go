package peer

import (
	"sync"
	"time"

	"codeberg.org/mutker/fanctl/internal/fan"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/sensor"
)

// Readings serves the peer's own reference temperature and supply
// voltage. Frames arrive on the bus goroutine, so access is serialized.
type Readings struct {
	mu      sync.Mutex
	sensor  sensor.Sensor
	voltage *fan.VoltageSampler
	now     func() time.Time
}

// NewReadings combines a sensor and an optional voltage sampler.
func NewReadings(s sensor.Sensor, v *fan.VoltageSampler) *Readings {
	return &Readings{sensor: s, voltage: v, now: time.Now}
}

func (r *Readings) TempRef() fixnum.Temperature {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sensor.Check(r.now())
	return r.sensor.Temperature()
}

func (r *Readings) Voltage() fixnum.Voltage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.voltage == nil {
		return fixnum.Invalid[int16, fixnum.D1]()
	}
	return r.voltage.Voltage(r.now())
}
