package fan

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/timeout"
)

const DefaultPolicyInterval = 30 * time.Second

// DefaultMinVoltage is the supply voltage the fan needs to spin up.
var DefaultMinVoltage = fixnum.FromRaw[int16, fixnum.D1](70)

// PolicyConfig configures a Policy.
type PolicyConfig struct {
	Interval   time.Duration
	MinVoltage fixnum.Voltage
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Interval:   DefaultPolicyInterval,
		MinVoltage: DefaultMinVoltage,
	}
}

// Policy decides the fan power. The fan runs when the outside air would
// dry the inside and the supply can drive it, re-evaluated at most once
// per interval so the relay does not cycle. An active Override forces the
// fan on and leaves the periodic deadline alone.
type Policy struct {
	actuator Actuator
	override *Override
	cfg      PolicyConfig
	timer    timeout.Timeout
	power    bool
	logger   logger.Logger
}

func NewPolicy(actuator Actuator, override *Override, cfg PolicyConfig, log logger.Logger) *Policy {
	return &Policy{
		actuator: actuator,
		override: override,
		cfg:      cfg,
		timer:    timeout.Expired(),
		logger:   log,
	}
}

// Update runs one policy tick and returns the commanded power.
func (p *Policy) Update(now time.Time, cond condition.Condition, voltage fixnum.Voltage) bool {
	switch {
	case p.override.Active(now):
		p.power = true
	case !p.timer.Check(now):
		return p.power
	default:
		p.power = cond == condition.Damp && voltage.Greater(p.cfg.MinVoltage)
		p.timer.Reset(now, p.cfg.Interval)
		p.logger.Debug().
			Str("condition", cond.String()).
			Str("voltage", voltage.String()).
			Bool("power", p.power).
			Msg("Fan power re-evaluated")
	}

	p.apply()
	return p.power
}

func (p *Policy) apply() {
	if p.actuator.FanPower() == p.power {
		return
	}
	if err := p.actuator.SetFanPower(p.power); err != nil {
		// Retried on the next evaluation.
		p.logger.Error().Err(errors.New().Wrap(ErrSetPower, err)).Bool("power", p.power).Msg("Failed to switch fan")
		return
	}
	p.logger.Info().Bool("power", p.power).Msg("Fan switched")
}

// Power returns the last commanded state.
func (p *Policy) Power() bool {
	return p.power
}

// Off switches the fan off regardless of policy, used at shutdown.
func (p *Policy) Off() error {
	p.power = false
	p.override.Cancel()
	if err := p.actuator.SetFanPower(false); err != nil {
		return errors.New().Wrap(ErrSetPower, err)
	}
	return nil
}
