//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"co2scope/app"
	"co2scope/config"
	"co2scope/hal"
	"co2scope/internal/buildinfo"
	"co2scope/internal/log"
	"co2scope/station/sensor"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file (defaults when empty or missing).")
	headless := flag.Bool("headless", false, "Run without a window.")
	hz := flag.Int("hz", 100, "Tick fold rate in headless mode.")
	duration := flag.Duration("duration", 0, "Stop after this long in headless mode (0 = run forever).")
	port := flag.String("port", "", "Sensor serial port (empty = simulator).")
	verify := flag.Bool("verify", false, "Reject sensor replies with a bad checksum.")
	debug := flag.Bool("debug", false, "Development logging.")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if isFlagSet("headless") {
		cfg.Host.Headless = *headless
	}
	if isFlagSet("port") {
		cfg.Sensor.Port = *port
	}
	if isFlagSet("verify") {
		cfg.Sensor.VerifyChecksum = *verify
	}
	if isFlagSet("debug") {
		cfg.Host.Debug = *debug
	}

	if err := log.Init(cfg.Host.Debug); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *configFile != "" {
		if _, err := os.Stat(*configFile); errors.Is(err, os.ErrNotExist) {
			log.Warnf("config %s not found, using defaults", *configFile)
		}
	}
	log.Debugf("config: %+v", *cfg)

	if err := run(cfg, *hz, *duration); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, hz int, duration time.Duration) error {
	hostCfg := hal.HostConfig{
		Logger:      log.NewLineLogger(nil),
		WindowScale: cfg.Host.WindowScale,
		Title:       "co2scope " + buildinfo.Short(),
	}

	log.Infof("co2scope %s", buildinfo.String())
	if cfg.Sensor.Port != "" {
		p, err := hal.OpenSerial(cfg.Sensor.Port, cfg.Sensor.BaudRate, 50*time.Millisecond)
		if err != nil {
			return err
		}
		defer p.Close()
		log.Infof("sensor on %s at %d baud", p.Name(), cfg.Sensor.BaudRate)
		hostCfg.Serial = p
	} else {
		log.Infof("sensor simulator, baseline %d ppm", cfg.Simulator.Baseline)
		hostCfg.Serial = sensor.NewSimulator(&cfg.Simulator)
	}

	station := func(ctx context.Context, h hal.HAL) error {
		return app.Run(ctx, h, cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if cfg.Host.Headless {
		err = hal.RunHeadless(ctx, hal.HeadlessConfig{Host: hostCfg, Hz: hz, Duration: duration}, station)
	} else {
		err = hal.RunWindow(ctx, hostCfg, station)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
