//go:build !linux

package hal

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
)

// Chip is not available on non-Linux platforms.
type Chip struct{}

func Open(string) (*Chip, error) {
	return nil, errors.New().WithMessage(errors.ErrGPIOInit, "GPIO requires Linux")
}

func (c *Chip) WatchFalling(int, func()) error {
	return errors.New().WithMessage(errors.ErrGPIOInit, "GPIO requires Linux")
}

func (c *Chip) Output(int, bool) (Output, error) {
	return nil, errors.New().WithMessage(errors.ErrGPIOInit, "GPIO requires Linux")
}

func (c *Chip) WatchButton(int, time.Duration, *Button) error {
	return errors.New().WithMessage(errors.ErrGPIOInit, "GPIO requires Linux")
}

func (c *Chip) Close() error {
	return nil
}
