package fan

import "codeberg.org/mutker/fanctl/internal/errors"

const (
	ErrSetPower        = errors.ErrorCode("fan_set_power_failed")
	ErrVoltageRead     = errors.ErrorCode("fan_voltage_read_failed")
	ErrInvalidSampling = errors.ErrorCode("fan_invalid_sampling")
	ErrInvalidDivider  = errors.ErrorCode("fan_invalid_divider")
)
