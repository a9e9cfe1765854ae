package hal

import "codeberg.org/mutker/fanctl/internal/errors"

// Relay switches the fan supply.
type Relay struct {
	out Output
	on  bool
}

func NewRelay(out Output) *Relay {
	return &Relay{out: out}
}

func (r *Relay) SetFanPower(on bool) error {
	if err := r.out.SetValue(boolToValue(on)); err != nil {
		return errors.New().Wrap(errors.ErrGPIOWrite, err)
	}
	r.on = on
	return nil
}

// FanPower returns the last state written successfully.
func (r *Relay) FanPower() bool {
	return r.on
}
