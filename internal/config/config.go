package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/fanctl/internal/bus/mqtt"
	"codeberg.org/mutker/fanctl/internal/condition"
	"codeberg.org/mutker/fanctl/internal/control"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fan"
	"codeberg.org/mutker/fanctl/internal/fixnum"
	"codeberg.org/mutker/fanctl/internal/frame"
	"codeberg.org/mutker/fanctl/internal/hal"
	"codeberg.org/mutker/fanctl/internal/httpserver"
	"codeberg.org/mutker/fanctl/internal/link"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"codeberg.org/mutker/fanctl/internal/sensor"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "/etc/fanctl.toml"
	DefaultLogLevel   = string(LogLevelInfo)
	EnvConfigFile     = "FANCTL_CONFIG"
	EnvPrefix         = "FANCTL"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Tick      time.Duration   `mapstructure:"tick"`
	Redraw    time.Duration   `mapstructure:"redraw"`
	Condition ConditionConfig `mapstructure:"condition"`
	Fan       FanConfig       `mapstructure:"fan"`
	Voltage   VoltageConfig   `mapstructure:"voltage"`
	GPIO      GPIOConfig      `mapstructure:"gpio"`
	Sensor    SensorConfig    `mapstructure:"sensor"`
	Button    ButtonConfig    `mapstructure:"button"`
	Frame     FrameConfig     `mapstructure:"frame"`
	Link      LinkConfig      `mapstructure:"link"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxAgeDay int    `mapstructure:"max_age_days"`
}

// ConditionConfig holds the classifier thresholds in °C and %RH.
type ConditionConfig struct {
	Hot         float64 `mapstructure:"hot"`
	Cold        float64 `mapstructure:"cold"`
	TempMargin  float64 `mapstructure:"temp_margin"`
	HumidMargin int     `mapstructure:"humid_margin"`
}

type FanConfig struct {
	PolicyInterval time.Duration `mapstructure:"policy_interval"`
	MinVoltage     float64       `mapstructure:"min_voltage"`
	RPMInterval    time.Duration `mapstructure:"rpm_interval"`
	RPMPeriod      time.Duration `mapstructure:"rpm_period"`
	PulsesPerRev   int           `mapstructure:"pulses_per_rev"`
}

type VoltageConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Device    string        `mapstructure:"device"`
	Channel   int           `mapstructure:"channel"`
	VRefMilli int64         `mapstructure:"vref_mv"`
	ADCMax    int64         `mapstructure:"adc_max"`
	RHigh     int64         `mapstructure:"r_high"`
	RLow      int64         `mapstructure:"r_low"`
}

type GPIOConfig struct {
	Chip     string        `mapstructure:"chip"`
	Tach     int           `mapstructure:"tach"`
	Relay    int           `mapstructure:"relay"`
	Button   int           `mapstructure:"button"`
	LED      int           `mapstructure:"led"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// SensorConfig names the IIO device directories of the probes. Reference
// is the probe read by the peer for its acks.
type SensorConfig struct {
	Indoor       string        `mapstructure:"indoor"`
	Outdoor      string        `mapstructure:"outdoor"`
	Reference    string        `mapstructure:"reference"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type ButtonConfig struct {
	LongPress time.Duration `mapstructure:"long_press"`
}

type FrameConfig struct {
	Condition bool `mapstructure:"condition"`
}

type LinkConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Peer     string        `mapstructure:"peer"`
	Ack      bool          `mapstructure:"ack"`
}

type MQTTConfig struct {
	Broker         string        `mapstructure:"broker"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Prefix         string        `mapstructure:"prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	ReplyTimeout   time.Duration `mapstructure:"reply_timeout"`
}

type MetricsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	DBPath       string        `mapstructure:"db_path"`
	BackupDir    string        `mapstructure:"backup_dir"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Listen       string        `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	md := metrics.DefaultConfig()
	divider := fan.DefaultDivider()

	defaults := map[string]any{
		"log.level":        DefaultLogLevel,
		"log.file":         "",
		"log.max_size_mb":  10,
		"log.max_age_days": 30,

		"tick":   control.DefaultTick,
		"redraw": control.DefaultRedraw,

		"condition.hot":          float64(condition.DefaultHot),
		"condition.cold":         float64(condition.DefaultCold),
		"condition.temp_margin":  float64(condition.DefaultTempMargin),
		"condition.humid_margin": condition.DefaultHumidMargin,

		"fan.policy_interval": fan.DefaultPolicyInterval,
		"fan.min_voltage":     fan.DefaultMinVoltage.Float(),
		"fan.rpm_interval":    fan.DefaultRPMConfig().Interval,
		"fan.rpm_period":      fan.DefaultRPMConfig().Period,
		"fan.pulses_per_rev":  fan.DefaultRPMConfig().PulsesPerRev,

		"voltage.interval": fan.DefaultVoltageInterval,
		"voltage.device":   hal.DefaultIIODevice,
		"voltage.channel":  0,
		"voltage.vref_mv":  divider.VRefMilli,
		"voltage.adc_max":  divider.ADCMax,
		"voltage.r_high":   divider.RHigh,
		"voltage.r_low":    divider.RLow,

		"gpio.chip":     hal.DefaultChip,
		"gpio.tach":     hal.DefaultTachPin,
		"gpio.relay":    hal.DefaultRelayPin,
		"gpio.button":   hal.DefaultButtonPin,
		"gpio.led":      hal.DefaultLEDPin,
		"gpio.debounce": hal.DefaultDebounce,

		"sensor.indoor":        "/sys/bus/iio/devices/iio:device1",
		"sensor.outdoor":       "/sys/bus/iio/devices/iio:device2",
		"sensor.reference":     "/sys/bus/iio/devices/iio:device1",
		"sensor.poll_interval": sensor.DefaultPollInterval,

		"button.long_press": hal.DefaultLongPress,

		"frame.condition": true,

		"link.interval": link.DefaultInterval,
		"link.peer":     string(rune(link.DefaultPeer)),
		"link.ack":      true,

		"mqtt.broker":          mqtt.DefaultBroker,
		"mqtt.client_id":       "",
		"mqtt.username":        "",
		"mqtt.password":        "",
		"mqtt.prefix":          mqtt.DefaultPrefix,
		"mqtt.connect_timeout": mqtt.DefaultConnectTimeout,
		"mqtt.publish_timeout": mqtt.DefaultPublishTimeout,
		"mqtt.reply_timeout":   mqtt.DefaultReplyTimeout,

		"metrics.enabled":       md.Enabled,
		"metrics.db_path":       md.DBPath,
		"metrics.backup_dir":    md.BackupDir,
		"metrics.batch_size":    md.BatchSize,
		"metrics.batch_timeout": md.BatchTimeout,
		"metrics.listen":        httpserver.DefaultAddr,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to the TOML config file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.String("log-file", "", "Also write JSON logs to this file")
	fs.Duration("tick", control.DefaultTick, "Control loop period")
	fs.String("peer", string(rune(link.DefaultPeer)), "Peer id the frames are addressed to")
	fs.String("broker", mqtt.DefaultBroker, "MQTT broker URL")
	fs.Bool("metrics", false, "Record frame history to sqlite")
	fs.String("listen", httpserver.DefaultAddr, "Address of the HTTP endpoint, empty to disable")
	return fs
}

var flagKeys = map[string]string{
	"log-level": "log.level",
	"log-file":  "log.file",
	"tick":      "tick",
	"peer":      "link.peer",
	"broker":    "mqtt.broker",
	"metrics":   "metrics.enabled",
	"listen":    "metrics.listen",
}

// Load reads the configuration for the process' command line.
func Load() (*Config, error) {
	return LoadArgs(os.Args[0], os.Args[1:])
}

// LoadArgs reads defaults, then the config file, then FANCTL_* environment
// variables, then args, each overriding the previous.
func LoadArgs(name string, args []string) (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, explicit := configPath(fs)
	if err := readConfigFile(v, path, explicit); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func configPath(fs *pflag.FlagSet) (string, bool) {
	if path, _ := fs.GetString("config"); path != "" {
		return path, true
	}
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path, true
	}
	return DefaultConfigFile, false
}

// readConfigFile loads path. Only an explicitly named file must exist.
func readConfigFile(v *viper.Viper, path string, explicit bool) error {
	errFactory := errors.New()

	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks values the components cannot recover from.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.Log.Level).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.Log.Level)
	}

	intervals := map[string]time.Duration{
		"tick":                 c.Tick,
		"redraw":               c.Redraw,
		"fan.policy_interval":  c.Fan.PolicyInterval,
		"fan.rpm_interval":     c.Fan.RPMInterval,
		"fan.rpm_period":       c.Fan.RPMPeriod,
		"voltage.interval":     c.Voltage.Interval,
		"sensor.poll_interval": c.Sensor.PollInterval,
		"button.long_press":    c.Button.LongPress,
		"link.interval":        c.Link.Interval,
	}
	for key, d := range intervals {
		if d <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, key+"="+d.String())
		}
	}

	if len(c.Link.Peer) != 1 {
		return errFactory.WithData(errors.ErrInvalidPeer, c.Link.Peer)
	}

	if c.Condition.HumidMargin < 0 || c.Condition.HumidMargin > 100 {
		return errFactory.WithData(errors.ErrInvalidConfig, "condition.humid_margin")
	}

	if err := c.Divider().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := c.RPMConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := c.MetricsConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

func (c *Config) ControlConfig() control.Config {
	cfg := control.DefaultConfig()
	cfg.Thresholds = condition.Thresholds{
		Hot:  fixnum.FromFloat[int16, fixnum.D1](c.Condition.Hot),
		Cold: fixnum.FromFloat[int16, fixnum.D1](c.Condition.Cold),
	}
	cfg.Margins = condition.Margins{
		Temp:  fixnum.FromFloat[int16, fixnum.D1](c.Condition.TempMargin),
		Humid: fixnum.FromInt[int8, fixnum.D0](int64(c.Condition.HumidMargin)),
	}
	cfg.LongPress = c.Button.LongPress
	cfg.Redraw = c.Redraw
	return cfg
}

func (c *Config) PolicyConfig() fan.PolicyConfig {
	return fan.PolicyConfig{
		Interval:   c.Fan.PolicyInterval,
		MinVoltage: fixnum.FromFloat[int16, fixnum.D1](c.Fan.MinVoltage),
	}
}

func (c *Config) RPMConfig() fan.RPMConfig {
	return fan.RPMConfig{
		Interval:     c.Fan.RPMInterval,
		Period:       c.Fan.RPMPeriod,
		PulsesPerRev: c.Fan.PulsesPerRev,
	}
}

func (c *Config) Divider() fan.Divider {
	return fan.Divider{
		VRefMilli: c.Voltage.VRefMilli,
		ADCMax:    c.Voltage.ADCMax,
		RHigh:     c.Voltage.RHigh,
		RLow:      c.Voltage.RLow,
	}
}

func (c *Config) Layout() frame.Layout {
	if c.Frame.Condition {
		return frame.LayoutWithCondition
	}
	return frame.LayoutCompact
}

// Peer returns the configured peer id. Validate guarantees one byte.
func (c *Config) Peer() byte {
	return c.Link.Peer[0]
}

func (c *Config) LinkConfig() link.Config {
	return link.Config{
		Interval: c.Link.Interval,
		Peer:     c.Peer(),
		Layout:   c.Layout(),
		Ack:      c.Link.Ack,
	}
}

// MQTTOptions returns the broker options. Without a configured client id
// one is generated from role.
func (c *Config) MQTTOptions(role string) mqtt.Options {
	clientID := c.MQTT.ClientID
	if clientID == "" {
		clientID = mqtt.ClientID(role)
	}
	return mqtt.Options{
		Broker:         c.MQTT.Broker,
		ClientID:       clientID,
		Username:       c.MQTT.Username,
		Password:       c.MQTT.Password,
		Prefix:         c.MQTT.Prefix,
		ConnectTimeout: c.MQTT.ConnectTimeout,
		PublishTimeout: c.MQTT.PublishTimeout,
		ReplyTimeout:   c.MQTT.ReplyTimeout,
	}
}

func (c *Config) MetricsConfig() metrics.Config {
	return metrics.Config{
		DBPath:       c.Metrics.DBPath,
		BackupDir:    c.Metrics.BackupDir,
		BatchSize:    c.Metrics.BatchSize,
		BatchTimeout: c.Metrics.BatchTimeout,
		Enabled:      c.Metrics.Enabled,
	}
}
