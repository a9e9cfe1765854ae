package fan

import (
	"sync/atomic"
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fixnum"
)

const (
	DefaultRPMInterval = time.Second
	DefaultRPMPeriod   = time.Minute
)

// EdgeCounter counts falling edges of the tachometer signal. Inc is called
// from the edge event context; the sampler drains it with TakeAndReset.
// Those two calls are the only access to the count.
type EdgeCounter struct {
	n atomic.Uint32
}

// Inc records one edge.
func (c *EdgeCounter) Inc() {
	c.n.Add(1)
}

// TakeAndReset returns the edges counted since the previous call and
// restarts the count in the same atomic exchange, so no edge is lost or
// counted twice.
func (c *EdgeCounter) TakeAndReset() uint32 {
	return c.n.Swap(0)
}

// RPMConfig configures an RPMSampler.
type RPMConfig struct {
	// Interval is the minimum time between two samples.
	Interval time.Duration
	// Period is the unit of the reported rate, a minute for RPM.
	Period time.Duration
	// PulsesPerRev divides the edge count; 0 means 1.
	PulsesPerRev int
}

func DefaultRPMConfig() RPMConfig {
	return RPMConfig{
		Interval:     DefaultRPMInterval,
		Period:       DefaultRPMPeriod,
		PulsesPerRev: 1,
	}
}

func (c RPMConfig) Validate() error {
	errFactory := errors.New()
	if c.Interval < 0 || c.Period <= 0 || c.PulsesPerRev < 0 {
		return errFactory.WithData(ErrInvalidSampling, c)
	}
	return nil
}

// RPMSampler turns the edge count into a rotation rate once per interval.
type RPMSampler struct {
	counter *EdgeCounter
	cfg     RPMConfig
	last    time.Time
	rpm     fixnum.RPM
}

// NewRPMSampler starts the first sampling window at now.
func NewRPMSampler(counter *EdgeCounter, cfg RPMConfig, now time.Time) *RPMSampler {
	if cfg.PulsesPerRev == 0 {
		cfg.PulsesPerRev = 1
	}
	return &RPMSampler{
		counter: counter,
		cfg:     cfg,
		last:    now,
		rpm:     fixnum.Invalid[int32, fixnum.D0](),
	}
}

// Check takes a new sample when the interval has elapsed and reports
// whether it did. Otherwise the cached rate is left unchanged.
func (s *RPMSampler) Check(now time.Time) bool {
	dt := now.Sub(s.last)
	if dt < s.cfg.Interval {
		return false
	}
	elapsed := dt.Milliseconds()
	if elapsed <= 0 {
		return false
	}

	edges := int64(s.counter.TakeAndReset())
	rate := edges * s.cfg.Period.Milliseconds() / (elapsed * int64(s.cfg.PulsesPerRev))
	s.rpm = fixnum.FromInt[int32, fixnum.D0](rate)
	s.last = now

	return true
}

// RPM returns the last sampled rate, invalid before the first sample.
func (s *RPMSampler) RPM() fixnum.RPM {
	return s.rpm
}
