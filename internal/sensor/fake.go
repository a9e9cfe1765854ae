package sensor

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/fixnum"
)

// Fake is a sensor whose readings are set by the test.
type Fake struct {
	temp  fixnum.Temperature
	rh    fixnum.Humidity
	fresh bool
}

// Set stores a new reading and marks it fresh.
func (f *Fake) Set(temp fixnum.Temperature, rh fixnum.Humidity) {
	f.temp = temp
	f.rh = rh
	f.fresh = true
}

func (f *Fake) Temperature() fixnum.Temperature { return f.temp }
func (f *Fake) Humidity() fixnum.Humidity       { return f.rh }

func (f *Fake) Check(time.Time) bool {
	fresh := f.fresh
	f.fresh = false
	return fresh
}
