// Package hal connects the control loop to the board: the tachometer edge
// source, the fan relay, the operator button, the status LED and the
// supply voltage ADC.
//
// The real implementation uses the Linux GPIO character device and the IIO
// sysfs interface. Fakes allow testing without hardware.
package hal

// Output drives a single digital line. *gpiocdev.Line satisfies it.
type Output interface {
	SetValue(value int) error
}

// Line offsets on gpiochip0 for the reference board.
const (
	DefaultChip      = "gpiochip0"
	DefaultTachPin   = 17
	DefaultRelayPin  = 27
	DefaultButtonPin = 22
	DefaultLEDPin    = 23
)

func boolToValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
