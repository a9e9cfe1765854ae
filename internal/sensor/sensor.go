// Package sensor reads temperature and relative humidity.
package sensor

import (
	"path/filepath"
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/hal"
	"codeberg.org/mutker/fanctl/internal/logger"
)

const DefaultPollInterval = 2 * time.Second

// Sensor is one temperature/humidity probe.
type Sensor interface {
	Temperature() fixnum.Temperature
	Humidity() fixnum.Humidity
	// Check reports true once per fresh acquisition.
	Check(now time.Time) bool
}

// IIO reads a humidity sensor exposed through the industrial I/O sysfs
// interface, in_temp_input in m°C and in_humidityrelative_input in m%RH.
type IIO struct {
	name     string
	dir      string
	interval time.Duration
	logger   logger.Logger

	sampled bool
	last    time.Time
	temp    fixnum.Temperature
	rh      fixnum.Humidity
}

func NewIIO(name, dir string, interval time.Duration, log logger.Logger) *IIO {
	return &IIO{
		name:     name,
		dir:      dir,
		interval: interval,
		logger:   log,
	}
}

func (s *IIO) Temperature() fixnum.Temperature { return s.temp }
func (s *IIO) Humidity() fixnum.Humidity       { return s.rh }

// Check acquires a new reading once the poll interval has elapsed. A
// failed read still counts as an acquisition, with invalid values.
func (s *IIO) Check(now time.Time) bool {
	if s.sampled && now.Sub(s.last) < s.interval {
		return false
	}
	s.sampled = true
	s.last = now

	s.temp = fixnum.Invalid[int16, fixnum.D1]()
	s.rh = fixnum.Invalid[int8, fixnum.D0]()

	milliC, err := hal.ReadSysfsInt(filepath.Join(s.dir, "in_temp_input"))
	if err != nil {
		s.readFailed(err)
		return true
	}
	milliRH, err := hal.ReadSysfsInt(filepath.Join(s.dir, "in_humidityrelative_input"))
	if err != nil {
		s.readFailed(err)
		return true
	}

	s.temp = fixnum.FromFloat[int16, fixnum.D1](float64(milliC) / 1000)
	s.rh = fixnum.FromFloat[int8, fixnum.D0](float64(milliRH) / 1000)

	return true
}

func (s *IIO) readFailed(err error) {
	s.logger.Debug().
		Err(errors.New().Wrap(errors.ErrSensorRead, err)).
		Str("sensor", s.name).
		Msg("Sensor reading unavailable")
}
