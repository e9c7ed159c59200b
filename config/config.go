// Package config holds the station settings. Defaults are the compiled-in
// constants used on the device; the host build can override them from YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// RangeCount is the number of selectable time ranges.
const RangeCount = 7

// ErrInvalid is returned by Validate for settings the station cannot run with.
var ErrInvalid = errors.New("config: invalid")

// Config represents the station configuration.
type Config struct {
	Station   StationConfig   `yaml:"station"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Host      HostConfig      `yaml:"host"`
}

// StationConfig contains the display and sampling constants.
type StationConfig struct {
	Scale           uint32   `yaml:"scale"`            // ppm per pixel row
	RangeMinutes    []uint32 `yaml:"range_minutes"`    // graph span per range, finest first
	TickDivisor     uint32   `yaml:"tick_divisor"`     // minutes*60000/divisor = ticks per column
	SelfCalibration bool     `yaml:"self_calibration"` // sensor-side automatic baseline correction
}

// SensorConfig contains the sensor channel parameters.
type SensorConfig struct {
	Port           string        `yaml:"port"` // host only; empty selects the simulator
	BaudRate       int           `yaml:"baud_rate"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	Retries        int           `yaml:"retries"`
	VerifyChecksum bool          `yaml:"verify_checksum"`
	WarmUp         time.Duration `yaml:"warm_up"` // sensor is mute after power-up
	Settle         time.Duration `yaml:"settle"`  // and again after the calibration command
}

// SimulatorConfig shapes the readings of the built-in sensor simulator.
type SimulatorConfig struct {
	Baseline  uint32        `yaml:"baseline"`
	Amplitude uint32        `yaml:"amplitude"`
	Period    time.Duration `yaml:"period"`
	Latency   time.Duration `yaml:"latency"`
}

// HostConfig contains desktop runner settings.
type HostConfig struct {
	Headless    bool `yaml:"headless"`
	WindowScale int  `yaml:"window_scale"`
	Debug       bool `yaml:"debug"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Station: StationConfig{
			Scale:           6,
			RangeMinutes:    []uint32{1, 5, 30, 60, 720, 1440, 4320},
			TickDivisor:     273,
			SelfCalibration: true,
		},
		Sensor: SensorConfig{
			BaudRate:    9600,
			ReadTimeout: time.Second,
			Retries:     3,
			WarmUp:      4 * time.Second,
			Settle:      time.Second,
		},
		Simulator: SimulatorConfig{
			Baseline:  450,
			Amplitude: 700,
			Period:    10 * time.Minute,
			Latency:   20 * time.Millisecond,
		},
		Host: HostConfig{
			WindowScale: 2,
		},
	}
}

// Ranges returns the range table minutes as a fixed array.
func (s StationConfig) Ranges() [RangeCount]uint32 {
	var out [RangeCount]uint32
	copy(out[:], s.RangeMinutes)
	return out
}

// Validate checks the invariants the station depends on.
func (c *Config) Validate() error {
	st := c.Station
	if st.Scale == 0 {
		return fmt.Errorf("%w: station.scale must be > 0", ErrInvalid)
	}
	if st.TickDivisor == 0 {
		return fmt.Errorf("%w: station.tick_divisor must be > 0", ErrInvalid)
	}
	if len(st.RangeMinutes) != RangeCount {
		return fmt.Errorf("%w: station.range_minutes needs %d entries, got %d", ErrInvalid, RangeCount, len(st.RangeMinutes))
	}
	for i, m := range st.RangeMinutes {
		if m == 0 {
			return fmt.Errorf("%w: station.range_minutes[%d] is zero", ErrInvalid, i)
		}
		if uint64(m)*60*1000/uint64(st.TickDivisor) > math.MaxUint32 {
			return fmt.Errorf("%w: station.range_minutes[%d] = %d overflows the tick counter", ErrInvalid, i, m)
		}
		if i > 0 && m <= st.RangeMinutes[i-1] {
			return fmt.Errorf("%w: station.range_minutes must be ordered finest first", ErrInvalid)
		}
	}
	if c.Sensor.BaudRate <= 0 {
		return fmt.Errorf("%w: sensor.baud_rate must be > 0", ErrInvalid)
	}
	if c.Sensor.Retries < 0 {
		return fmt.Errorf("%w: sensor.retries must be >= 0", ErrInvalid)
	}
	return nil
}

// ensureDefaults fills zero values left by a partial file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Station.Scale == 0 {
		c.Station.Scale = def.Station.Scale
	}
	if len(c.Station.RangeMinutes) == 0 {
		c.Station.RangeMinutes = def.Station.RangeMinutes
	}
	if c.Station.TickDivisor == 0 {
		c.Station.TickDivisor = def.Station.TickDivisor
	}

	if c.Sensor.BaudRate == 0 {
		c.Sensor.BaudRate = def.Sensor.BaudRate
	}
	if c.Sensor.ReadTimeout == 0 {
		c.Sensor.ReadTimeout = def.Sensor.ReadTimeout
	}

	if c.Simulator.Baseline == 0 {
		c.Simulator.Baseline = def.Simulator.Baseline
	}
	if c.Simulator.Period == 0 {
		c.Simulator.Period = def.Simulator.Period
	}

	if c.Host.WindowScale <= 0 {
		c.Host.WindowScale = def.Host.WindowScale
	}
}
