package sensor_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func writeAttr(t *testing.T, dir, name, value string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o600))
}

func TestIIOSensor(t *testing.T) {
	dir := t.TempDir()
	writeAttr(t, dir, "in_temp_input", "21460")
	writeAttr(t, dir, "in_humidityrelative_input", "55500")

	s := sensor.NewIIO("indoor", dir, 2*time.Second, logger.Get())
	assert.False(t, s.Temperature().Valid())

	require.True(t, s.Check(t0))
	assert.Equal(t, int16(215), s.Temperature().Raw())
	assert.Equal(t, int8(56), s.Humidity().Raw())

	writeAttr(t, dir, "in_temp_input", "-3040")
	assert.False(t, s.Check(t0.Add(time.Second)))
	assert.Equal(t, int16(215), s.Temperature().Raw())

	require.True(t, s.Check(t0.Add(2*time.Second)))
	assert.Equal(t, int16(-30), s.Temperature().Raw())
}

func TestIIOSensorMissing(t *testing.T) {
	dir := t.TempDir()
	writeAttr(t, dir, "in_temp_input", "21000")

	s := sensor.NewIIO("outdoor", dir, time.Second, logger.Get())
	require.True(t, s.Check(t0))
	assert.False(t, s.Temperature().Valid())
	assert.False(t, s.Humidity().Valid())
}

func TestFake(t *testing.T) {
	var f sensor.Fake
	assert.False(t, f.Check(t0))

	f.Set(fixnum.FromRaw[int16, fixnum.D1](100), fixnum.FromRaw[int8, fixnum.D0](40))
	assert.True(t, f.Check(t0))
	assert.False(t, f.Check(t0))
	assert.Equal(t, "10.0", f.Temperature().String())
	assert.Equal(t, "40", f.Humidity().String())
}
