//go:build !tinygo

// Command mhz19 talks to an MH-Z19 sensor on a host serial port: it prints
// readings and can switch the sensor's automatic baseline correction.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"co2scope/hal"
	"co2scope/station/sensor"
)

type options struct {
	port     string
	baud     int
	count    int
	interval time.Duration
	selfCal  string
	verify   bool
	timeout  time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.port, "port", "", "Serial port of the sensor (empty lists ports).")
	flag.IntVar(&opts.baud, "baud", 9600, "Baud rate.")
	flag.IntVar(&opts.count, "count", 1, "Readings to take (0 = until interrupted).")
	flag.DurationVar(&opts.interval, "interval", 2*time.Second, "Delay between readings.")
	flag.StringVar(&opts.selfCal, "selfcal", "keep", "Automatic baseline correction: on, off or keep.")
	flag.BoolVar(&opts.verify, "verify", false, "Reject replies with a bad checksum.")
	flag.DurationVar(&opts.timeout, "timeout", sensor.DefaultTimeout, "Reply timeout per attempt.")
	flag.Parse()

	if opts.port == "" {
		if err := listPorts(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listPorts(w io.Writer) error {
	ports, err := hal.ListSerialPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

func run(opts options, w io.Writer) error {
	selfCal, change, err := parseSelfCal(opts.selfCal)
	if err != nil {
		return err
	}

	port, err := hal.OpenSerial(opts.port, opts.baud, 50*time.Millisecond)
	if err != nil {
		return err
	}
	defer port.Close()

	client := sensor.NewClient(port, sensor.Options{
		Timeout: opts.timeout,
		Retries: sensor.DefaultRetries,
		Verify:  opts.verify,
	})
	return session(client, opts, selfCal, change, w, time.Sleep)
}

// session performs the calibration change, if any, then the readings.
func session(c *sensor.Client, opts options, selfCal, change bool, w io.Writer, sleep func(time.Duration)) error {
	if change {
		if err := c.SetSelfCalibration(selfCal); err != nil {
			return fmt.Errorf("set self-calibration: %w", err)
		}
		fmt.Fprintf(w, "self-calibration %s\n", onOff(selfCal))
	}

	for i := 0; opts.count == 0 || i < opts.count; i++ {
		if i > 0 {
			sleep(opts.interval)
		}
		ppm, err := c.ReadPPM()
		if err != nil {
			if errors.Is(err, sensor.ErrMalformed) {
				fmt.Fprintf(w, "reading %d: % x\n", i+1, c.Reply())
			}
			return fmt.Errorf("reading %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "%s %d ppm\n", time.Now().Format(time.TimeOnly), ppm)
	}
	return nil
}

func parseSelfCal(s string) (enabled, change bool, err error) {
	switch s {
	case "on":
		return true, true, nil
	case "off":
		return false, true, nil
	case "keep", "":
		return false, false, nil
	}
	return false, false, fmt.Errorf("invalid -selfcal %q: want on, off or keep", s)
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
