//go:build linux

package hal

import (
	"time"

	"codeberg.org/mutker/fanctl/internal/errors"
	"github.com/warthog618/go-gpiocdev"
)

// Chip owns the requested lines of one GPIO chip.
type Chip struct {
	name  string
	lines []*gpiocdev.Line
}

// Open checks that the chip exists. Lines are requested individually.
func Open(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrGPIOInit, err)
	}
	chip.Close()

	return &Chip{name: name}, nil
}

func (c *Chip) request(offset int, opts ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	line, err := gpiocdev.RequestLine(c.name, offset, opts...)
	if err != nil {
		return nil, errors.New().WithData(errors.ErrGPIOInit, map[string]interface{}{
			"chip":   c.name,
			"offset": offset,
			"error":  err.Error(),
		})
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// WatchFalling calls onEdge from the event goroutine for every falling
// edge of the line.
func (c *Chip) WatchFalling(offset int, onEdge func()) error {
	_, err := c.request(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
			onEdge()
		}),
	)
	return err
}

// Output requests a line driven low initially.
func (c *Chip) Output(offset int, activeLow bool) (Output, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := c.request(offset, opts...)
	if err != nil {
		return nil, err
	}
	return line, nil
}

// WatchButton feeds both edges of an active-low button line into b.
func (c *Chip) WatchButton(offset int, debounce time.Duration, b *Button) error {
	_, err := c.request(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.AsActiveLow,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			b.Push(ButtonEvent{
				Pressed: evt.Type == gpiocdev.LineEventRisingEdge,
				At:      time.Now(),
			})
		}),
	)
	return err
}

// Close releases every requested line, outputs back to input first.
func (c *Chip) Close() error {
	var errs []error
	for _, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, err)
		}
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.lines = nil

	if len(errs) > 0 {
		return errors.New().WithData(errors.ErrShutdownFailed, errs)
	}
	return nil
}
