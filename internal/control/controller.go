// Package control runs the sensor node: one Step per loop iteration reads
// the sensors once, classifies, drives the fan, redraws the display and
// uploads telemetry, in that order.
package control

import (
	"context"
	"slices"
	"time"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/display"
	"codeberg.org/mutker/fanctl/internal/fan"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/hal"
	"codeberg.org/mutker/fanctl/internal/link"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"codeberg.org/mutker/fanctl/internal/sensor"
	"codeberg.org/mutker/fanctl/internal/timeout"
)

const (
	DefaultTick      = 50 * time.Millisecond
	DefaultRedraw    = time.Second
	DefaultFreshMark = time.Second
)

type Config struct {
	Thresholds condition.Thresholds
	Margins    condition.Margins
	LongPress  time.Duration
	Redraw     time.Duration
	FreshMark  time.Duration
	Blink      time.Duration
	FastBlink  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Thresholds: condition.DefaultThresholds(),
		Margins:    condition.DefaultMargins(),
		LongPress:  hal.DefaultLongPress,
		Redraw:     DefaultRedraw,
		FreshMark:  DefaultFreshMark,
		Blink:      hal.DefaultBlink,
		FastBlink:  hal.DefaultFastBlink,
	}
}

// Deps are the components a Controller drives. Recorder may be nil.
type Deps struct {
	Indoor   sensor.Sensor
	Outdoor  sensor.Sensor
	RPM      *fan.RPMSampler
	Voltage  *fan.VoltageSampler
	Policy   *fan.Policy
	Override *fan.Override
	Button   *hal.Button
	LED      *hal.LED
	Link     *link.Link
	Grid     *display.Grid
	Recorder metrics.Collector
	Logger   logger.Logger
}

// Controller owns the state carried between iterations.
type Controller struct {
	Deps
	cfg Config

	readings condition.Readings
	wvpIn    fixnum.VaporPressure
	wvpOut   fixnum.VaporPressure
	cond     condition.Condition

	redraw   timeout.Timeout
	freshIn  timeout.Timeout
	freshOut timeout.Timeout

	lines []string
}

func New(deps Deps, cfg Config) *Controller {
	return &Controller{
		Deps:   deps,
		cfg:    cfg,
		redraw: timeout.Expired(),
	}
}

// Step runs one iteration at now.
func (c *Controller) Step(now time.Time) {
	update := false

	freshIn := c.Indoor.Check(now)
	freshOut := c.Outdoor.Check(now)
	c.readings = condition.Readings{
		In:  condition.Pair{Temp: c.Indoor.Temperature(), RH: c.Indoor.Humidity()},
		Out: condition.Pair{Temp: c.Outdoor.Temperature(), RH: c.Outdoor.Humidity()},
	}
	if freshIn {
		c.freshIn.Reset(now, c.cfg.FreshMark)
	}
	if freshOut {
		c.freshOut.Reset(now, c.cfg.FreshMark)
	}
	if freshIn || freshOut {
		c.wvpIn, c.wvpOut = condition.Proxies(c.readings, c.cfg.Margins)
		c.cond = condition.Classify(c.readings, c.cfg.Thresholds, c.wvpIn, c.wvpOut)
		update = true
	}

	update = c.RPM.Check(now) || update
	update = c.redraw.Check(now) || update
	update = c.freshIn.Check(now) || update
	update = c.freshOut.Check(now) || update
	update = c.Button.Check(now) || update
	update = c.Override.Check(now) || update

	if d, ok := c.Button.Released(); ok && d < c.cfg.LongPress {
		mins := c.Override.Press(now)
		c.Logger.Info().Int("minutes", mins).Msg("Fan override set")
		update = true
	}

	voltage := c.Voltage.Voltage(now)

	if update {
		c.Policy.Update(now, c.cond, voltage)
		c.render(now, voltage)
		c.redraw.Reset(now, c.cfg.Redraw)
	}

	snap := link.Snapshot{
		TempIn:   c.readings.In.Temp,
		RHIn:     c.readings.In.RH,
		TempOut:  c.readings.Out.Temp,
		RHOut:    c.readings.Out.RH,
		Cond:     c.cond,
		Voltage:  voltage,
		FanPower: c.Policy.Power(),
		FanRPM:   c.RPM.RPM(),
	}
	status, sent := c.Link.Upload(now, snap)
	if sent {
		c.record(now, status)
	}

	blink := c.cfg.Blink
	if status.Failed() {
		blink = c.cfg.FastBlink
	}
	if err := c.LED.Blink(now, blink); err != nil {
		c.Logger.Debug().Err(err).Msg("Status LED write failed")
	}
}

func (c *Controller) render(now time.Time, voltage fixnum.Voltage) {
	c.Grid.Home()
	if c.Button.Pressed(now) > c.cfg.LongPress {
		ack := c.Link.Ack()
		display.RenderAlt(c.Grid, display.Alt{
			WVPOut:      c.wvpOut,
			WVPIn:       c.wvpIn,
			PeerTemp:    ack.TempRef,
			PeerVoltage: ack.Voltage,
			Status:      uint8(c.Link.Status()),
			Voltage:     voltage,
		})
	} else {
		display.RenderMain(c.Grid, display.Main{
			TempOut:         c.readings.Out.Temp,
			TempIn:          c.readings.In.Temp,
			RHOut:           c.readings.Out.RH,
			RHIn:            c.readings.In.RH,
			FreshOut:        c.freshOut.Active(now),
			FreshIn:         c.freshIn.Active(now),
			Condition:       c.cond,
			OverrideMinutes: c.Override.RemainingMinutes(now),
			RPM:             c.RPM.RPM(),
		})
	}

	if lines := c.Grid.Lines(); !slices.Equal(lines, c.lines) {
		c.lines = lines
		c.Logger.Debug().Strs("display", lines).Msg("Display updated")
	}
}

func (c *Controller) record(now time.Time, status link.Status) {
	if c.Recorder == nil {
		return
	}
	if err := c.Recorder.Record(context.Background(), &metrics.Snapshot{
		Timestamp: now,
		Source:    metrics.SourceLocal,
		Valid:     true,
		Frame:     c.Link.LastFrame(),
		Status:    uint8(status),
	}); err != nil {
		c.Logger.Warn().Err(err).Msg("Failed to record frame")
	}
}

// Condition returns the last classification.
func (c *Controller) Condition() condition.Condition {
	return c.cond
}

// Run calls Step on every tick until ctx is done.
func (c *Controller) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	c.Step(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Step(now)
		}
	}
}
