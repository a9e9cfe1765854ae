// Package fan measures the fan and decides when it runs.
package fan

// Actuator switches the fan relay.
type Actuator interface {
	SetFanPower(on bool) error
	FanPower() bool
}

// ADC reads one raw sample from the supply voltage channel.
type ADC interface {
	Read() (int, error)
}
