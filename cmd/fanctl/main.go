package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/fanctl/internal/bus/mqtt"
	"codeberg.org/mutker/fanctl/internal/config"
	"codeberg.org/mutker/fanctl/internal/control"
	"codeberg.org/mutker/fanctl/internal/display"
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fan"
	"codeberg.org/mutker/fanctl/internal/hal"
	"codeberg.org/mutker/fanctl/internal/httpserver"
	"codeberg.org/mutker/fanctl/internal/link"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"codeberg.org/mutker/fanctl/internal/pid"
	"codeberg.org/mutker/fanctl/internal/sensor"
)

var cfg *config.Config

type app struct {
	chip     *hal.Chip
	bus      *mqtt.Client
	recorder metrics.Collector
	policy   *fan.Policy
	ctl      *control.Controller
	server   *httpserver.Server
}

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{
		Level:     cfg.Log.Level,
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
		MaxAgeDay: cfg.Log.MaxAgeDay,
		IsService: logger.IsService(),
	})
	logger.Debug().Msg("Config loaded")
}

func main() {
	pidFile := pid.New("fanctl")
	if err := pidFile.Write(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to write pid file")
	}

	a, err := setup()
	if err != nil {
		_ = pidFile.Remove()
		logger.FatalWithCode(errors.New().Wrap(errors.ErrInitApp, err)).Msg("Failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if a.server != nil {
		go func() {
			if err := a.server.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("HTTP server stopped")
			}
		}()
	}

	logger.Info().
		Str("peer", cfg.Link.Peer).
		Str("layout", cfg.Layout().String()).
		Dur("tick", cfg.Tick).
		Msg("Sensor node running")

	a.ctl.Run(ctx, cfg.Tick)

	a.close()
	if err := pidFile.Remove(); err != nil {
		logger.Error().Err(err).Msg("Failed to remove pid file")
	}
	logger.Info().Msg("Exiting...")
}

func setup() (*app, error) {
	log := logger.Get()
	a := &app{}

	chip, err := hal.Open(cfg.GPIO.Chip)
	if err != nil {
		return nil, err
	}
	a.chip = chip

	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	counter := &fan.EdgeCounter{}
	if err := chip.WatchFalling(cfg.GPIO.Tach, counter.Inc); err != nil {
		return fail(err)
	}
	relayLine, err := chip.Output(cfg.GPIO.Relay, false)
	if err != nil {
		return fail(err)
	}
	ledLine, err := chip.Output(cfg.GPIO.LED, false)
	if err != nil {
		return fail(err)
	}
	button := hal.NewButton()
	if err := chip.WatchButton(cfg.GPIO.Button, cfg.GPIO.Debounce, button); err != nil {
		return fail(err)
	}

	override := &fan.Override{}
	a.policy = fan.NewPolicy(hal.NewRelay(relayLine), override, cfg.PolicyConfig(), log)

	bus, err := mqtt.Dial(cfg.MQTTOptions("fanctl"), log)
	if err != nil {
		return fail(err)
	}
	a.bus = bus
	if cfg.Link.Ack {
		if err := bus.Watch(cfg.Peer()); err != nil {
			return fail(err)
		}
	}

	reg := metrics.NewRegistry()
	recorder, err := metrics.NewService(cfg.MetricsConfig(), metrics.NewGauges(reg), log)
	if err != nil {
		return fail(err)
	}
	a.recorder = recorder

	now := time.Now()
	a.ctl = control.New(control.Deps{
		Indoor:   sensor.NewIIO("indoor", cfg.Sensor.Indoor, cfg.Sensor.PollInterval, log),
		Outdoor:  sensor.NewIIO("outdoor", cfg.Sensor.Outdoor, cfg.Sensor.PollInterval, log),
		RPM:      fan.NewRPMSampler(counter, cfg.RPMConfig(), now),
		Voltage:  fan.NewVoltageSampler(hal.NewIIOADC(cfg.Voltage.Device, cfg.Voltage.Channel), cfg.Divider(), cfg.Voltage.Interval, log),
		Policy:   a.policy,
		Override: override,
		Button:   button,
		LED:      hal.NewLED(ledLine),
		Link:     link.New(bus, cfg.LinkConfig(), now, log),
		Grid:     display.NewGrid(display.DefaultCols, display.DefaultRows),
		Recorder: recorder,
		Logger:   log,
	}, cfg.ControlConfig())

	if cfg.Metrics.Listen != "" {
		a.server = httpserver.New(cfg.Metrics.Listen, metrics.Handler(reg), recorder, bus.IsConnected)
	}

	return a, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// close leaves the fan off and releases everything setup acquired.
func (a *app) close() {
	if a.policy != nil {
		if err := a.policy.Off(); err != nil {
			logger.ErrorWithCode(errors.New().Wrap(errors.ErrFanOff, err)).Msg("Failed to switch fan off")
		}
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close history")
		}
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to disconnect from broker")
		}
	}
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to release GPIO lines")
		}
	}
}
