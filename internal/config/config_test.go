package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/fanctl/internal/config"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fanctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
tick = "100ms"

[log]
level = "debug"

[condition]
hot = 6.5
humid_margin = 3

[fan]
policy_interval = "1m"
min_voltage = 11.5

[gpio]
relay = 5

[frame]
condition = false

[link]
peer = "P"
ack = false

[mqtt]
broker = "tcp://broker.lan:1883"
client_id = "cellar-node"
prefix = "cellar"

[metrics]
enabled = true
db_path = "/tmp/history.db"
`)
	t.Setenv("FANCTL_CONFIG", path)

	cfg, err := config.LoadArgs("fanctl", nil)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Tick)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.GPIO.Relay)
	assert.Equal(t, byte('P'), cfg.Peer())
	assert.Equal(t, frame.LayoutCompact, cfg.Layout())
	assert.False(t, cfg.LinkConfig().Ack)
	assert.Equal(t, "cellar", cfg.MQTTOptions("fanctl").Prefix)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTTOptions("fanctl").Broker)
	assert.Equal(t, "cellar-node", cfg.MQTTOptions("fanctl").ClientID)
	assert.True(t, cfg.MetricsConfig().Enabled)
	assert.Equal(t, "/tmp/history.db", cfg.MetricsConfig().DBPath)

	ctl := cfg.ControlConfig()
	assert.Equal(t, int16(65), ctl.Thresholds.Hot.Raw())
	assert.Equal(t, int8(3), ctl.Margins.Humid.Raw())

	policy := cfg.PolicyConfig()
	assert.Equal(t, time.Minute, policy.Interval)
	assert.Equal(t, int16(115), policy.MinVoltage.Raw())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FANCTL_CONFIG", "")

	cfg, err := config.LoadArgs("fanctl", nil)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, 50*time.Millisecond, cfg.Tick)
	assert.Equal(t, byte('L'), cfg.Peer())
	assert.Equal(t, frame.LayoutWithCondition, cfg.Layout())
	assert.True(t, cfg.Link.Ack)
	assert.Equal(t, 5*time.Second, cfg.Link.Interval)
	assert.Equal(t, 30*time.Second, cfg.Fan.PolicyInterval)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, time.Second, cfg.Button.LongPress)
	assert.False(t, cfg.Metrics.Enabled)

	ctl := cfg.ControlConfig()
	assert.Equal(t, int16(50), ctl.Thresholds.Hot.Raw())
	assert.Equal(t, int16(10), ctl.Thresholds.Cold.Raw())
	assert.Equal(t, int16(10), ctl.Margins.Temp.Raw())
	assert.Equal(t, int8(5), ctl.Margins.Humid.Raw())

	assert.True(t, strings.HasPrefix(cfg.MQTTOptions("fanlogger").ClientID, "fanlogger-"))

	d := cfg.Divider()
	assert.Equal(t, int64(510), d.RHigh)
	assert.Equal(t, int64(33), d.RLow)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("FANCTL_CONFIG", path)

	_, err := config.LoadArgs("fanctl", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("FANCTL_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := config.LoadArgs("fanctl", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	t.Setenv("FANCTL_CONFIG", writeConfig(t, `
[log]
level = "invalid"
`))

	_, err := config.LoadArgs("fanctl", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"zero tick", `tick = "0s"`, errors.ErrInvalidInterval},
		{"negative link interval", "[link]\ninterval = \"-5s\"", errors.ErrInvalidInterval},
		{"long peer", "[link]\npeer = \"LX\"", errors.ErrInvalidPeer},
		{"empty peer", "[link]\npeer = \"\"", errors.ErrInvalidPeer},
		{"zero divider", "[voltage]\nr_low = 0", errors.ErrInvalidConfig},
		{"humid margin", "[condition]\nhumid_margin = 120", errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FANCTL_CONFIG", writeConfig(t, tt.content))

			_, err := config.LoadArgs("fanctl", nil)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FANCTL_CONFIG", writeConfig(t, `
[mqtt]
prefix = "file"
`))
	t.Setenv("FANCTL_MQTT_PREFIX", "env")

	cfg, err := config.LoadArgs("fanctl", nil)
	require.NoError(t, err)
	assert.Equal(t, "env", cfg.MQTT.Prefix)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "error"

[link]
peer = "P"
`)

	cfg, err := config.LoadArgs("fanctl", []string{"--config", path, "--log-level", "debug", "--peer", "Q", "--metrics"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, byte('Q'), cfg.Peer())
	assert.True(t, cfg.Metrics.Enabled)
}

func TestUnknownFlag(t *testing.T) {
	t.Setenv("FANCTL_CONFIG", "")

	_, err := config.LoadArgs("fanctl", []string{"--no-such-flag"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrBindFlags))
}
