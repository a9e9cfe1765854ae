// fanlogger is the peer of the sensor node: it receives frames over the
// bus, records them and answers each with an ack.
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
	"codeberg.org/mutker/fanctl/internal/errors"
	"codeberg.org/mutker/fanctl/internal/fan"
	"codeberg.org/mutker/fanctl/internal/hal"
	"codeberg.org/mutker/fanctl/internal/httpserver"
	"codeberg.org/mutker/fanctl/internal/logger"
	"codeberg.org/mutker/fanctl/internal/metrics"
	"codeberg.org/mutker/fanctl/internal/peer"
	"codeberg.org/mutker/fanctl/internal/pid"
	"codeberg.org/mutker/fanctl/internal/sensor"
)

const statsInterval = 5 * time.Minute

var cfg *config.Config

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
	log := logger.Get()

	pidFile := pid.New("fanlogger")
	if err := pidFile.Write(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to write pid file")
	}
	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Error().Err(err).Msg("Failed to remove pid file")
		}
	}()

	reg := metrics.NewRegistry()
	recorder, err := metrics.NewService(cfg.MetricsConfig(), metrics.NewGauges(reg), log)
	if err != nil {
		logger.ErrorWithCode(errors.New().Wrap(errors.ErrInitApp, err)).Msg("Failed to initialize history")
		return
	}
	defer recorder.Close()

	bus, err := mqtt.Dial(cfg.MQTTOptions("fanlogger"), log)
	if err != nil {
		logger.ErrorWithCode(errors.New().Wrap(errors.ErrInitApp, err)).Msg("Failed to connect to broker")
		return
	}
	defer bus.Close()

	local := peer.NewReadings(
		sensor.NewIIO("reference", cfg.Sensor.Reference, cfg.Sensor.PollInterval, log),
		fan.NewVoltageSampler(hal.NewIIOADC(cfg.Voltage.Device, cfg.Voltage.Channel), cfg.Divider(), cfg.Voltage.Interval, log),
	)
	receiver := peer.NewReceiver(cfg.Layout(), bus, local, recorder, log)
	if err := bus.Subscribe(cfg.Peer(), receiver.Handle); err != nil {
		logger.Error().Err(err).Msg("Failed to subscribe to frames")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Metrics.Listen != "" {
		server := httpserver.New(cfg.Metrics.Listen, metrics.Handler(reg), recorder, bus.IsConnected)
		go func() {
			if err := server.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("HTTP server stopped")
			}
		}()
	}

	logger.Info().
		Str("peer", cfg.Link.Peer).
		Str("layout", cfg.Layout().String()).
		Msg("Waiting for frames")

	loop(ctx, receiver)
	logger.Info().Msg("Exiting...")
}

func loop(ctx context.Context, receiver *peer.Receiver) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := receiver.Stats()
			logger.Info().
				Uint64("received", stats.Received).
				Uint64("corrupt", stats.Corrupt).
				Uint64("reply_failed", stats.ReplyFailed).
				Msg("Frame statistics")
		}
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
