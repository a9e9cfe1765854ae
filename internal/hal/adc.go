package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/fanctl/internal/errors"
)

const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// IIOADC reads a raw channel of an industrial I/O ADC through sysfs.
type IIOADC struct {
	path string
}

// NewIIOADC returns a reader for in_voltage<channel>_raw of device.
func NewIIOADC(device string, channel int) *IIOADC {
	return &IIOADC{path: filepath.Join(device, fmt.Sprintf("in_voltage%d_raw", channel))}
}

func (a *IIOADC) Read() (int, error) {
	v, err := ReadSysfsInt(a.path)
	if err != nil {
		return 0, errors.New().Wrap(errors.ErrADCRead, err)
	}
	return v, nil
}

// ReadSysfsInt reads a single integer attribute.
func ReadSysfsInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
