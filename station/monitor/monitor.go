// Package monitor runs the station control loop: read the sensor, advance
// the per-range histories on their tick cadence, redraw the selected range,
// sound alerts and handle the buttons.
//
// The loop is synchronous. One iteration blocks for at most
// ReadTimeout*(Retries+1) on the sensor, plus a triple beep (1.1 s), plus one
// full redraw.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"co2scope/config"
	"co2scope/hal"
	"co2scope/station/alert"
	"co2scope/station/graph"
	"co2scope/station/history"
	"co2scope/station/ranges"
	"co2scope/station/selector"
	"co2scope/station/sensor"
	"co2scope/station/tick"
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithSleep replaces time.Sleep for boot delays, beeps and sensor polling.
func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// WithClock replaces time.Now for sensor read deadlines.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithChannel reads the sensor over ch instead of the HAL serial port.
func WithChannel(ch sensor.Channel) Option {
	return func(m *Monitor) { m.channel = ch }
}

// Monitor is the station main loop state. Everything except the tick clock
// is owned by the goroutine calling Boot, Step and Run.
type Monitor struct {
	cfg *config.Config
	log hal.Logger

	table   ranges.Table
	clock   *tick.Clock
	hist    *history.History
	sensor  *sensor.Client
	alarm   *alert.Controller
	screen  *graph.Renderer
	sel     *selector.Selector
	light   *selector.Toggle
	buttons [hal.ButtonCount]hal.GPIOPin
	blPin   hal.GPIOPin

	channel sensor.Channel
	sleep   func(time.Duration)
	now     func() time.Time

	labelValid bool
	available  bool
}

// New builds a monitor on h.
func New(h hal.HAL, cfg *config.Config, opts ...Option) (*Monitor, error) {
	if h == nil {
		return nil, errors.New("monitor: nil HAL")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Monitor{
		cfg:       cfg,
		log:       h.Logger(),
		sleep:     time.Sleep,
		now:       time.Now,
		available: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.channel == nil {
		m.channel = h.Serial()
	}
	if m.channel == nil {
		return nil, errors.New("monitor: no sensor channel")
	}
	d := h.Display()
	if d == nil {
		return nil, errors.New("monitor: no display")
	}
	in := h.Input()
	if in == nil {
		return nil, errors.New("monitor: no input")
	}
	for i := range m.buttons {
		b := hal.Button(i)
		if m.buttons[i] = in.Button(b); m.buttons[i] == nil {
			return nil, fmt.Errorf("monitor: no %s button", b)
		}
	}

	st := cfg.Station
	m.table = ranges.NewTable(st.Ranges(), st.TickDivisor)
	m.clock = tick.NewClock(m.table.Thresholds())
	m.hist = history.New(st.Scale)
	m.sensor = sensor.NewClient(m.channel, sensor.Options{
		Timeout: cfg.Sensor.ReadTimeout,
		Retries: cfg.Sensor.Retries,
		Verify:  cfg.Sensor.VerifyChecksum,
		Now:     m.now,
		Sleep:   m.sleep,
	})
	m.alarm = &alert.Controller{Buzzer: h.Buzzer(), Sleep: m.sleep}
	m.screen = graph.NewRenderer(d, st.Scale)
	m.sel = selector.New(ranges.Count)
	m.light = selector.NewToggle(true)
	m.blPin = h.Backlight()
	return m, nil
}

// Clock is the tick clock fed by the tick source.
func (m *Monitor) Clock() *tick.Clock { return m.clock }

// History exposes the per-range sample buffers.
func (m *Monitor) History() *history.History { return m.hist }

// Selected is the index of the displayed range.
func (m *Monitor) Selected() int { return m.sel.Index() }

// Renderer is the screen renderer.
func (m *Monitor) Renderer() *graph.Renderer { return m.screen }

// SensorAvailable reports whether the last sensor read succeeded.
func (m *Monitor) SensorAvailable() bool { return m.available }

// BacklightOn reports the backlight latch.
func (m *Monitor) BacklightOn() bool { return m.light.On() }

func (m *Monitor) logf(format string, args ...any) {
	if m.log == nil {
		return
	}
	m.log.WriteLineString(fmt.Sprintf(format, args...))
}

// Boot waits for the sensor to come up, applies the self-calibration
// setting and paints the static screen. Progress goes to console, which may
// be nil.
func (m *Monitor) Boot(console io.Writer) error {
	if console == nil {
		console = io.Discard
	}
	sc := m.cfg.Sensor

	fmt.Fprintf(console, "sensor warm-up %s\n", sc.WarmUp)
	m.sleep(sc.WarmUp)

	selfCal := m.cfg.Station.SelfCalibration
	state := "OFF"
	if selfCal {
		state = "ON"
	}
	fmt.Fprintf(console, "self-calibration %s\n", state)
	if err := m.sensor.SetSelfCalibration(selfCal); err != nil {
		m.logf("sensor: self-calibration: %v", err)
		fmt.Fprintf(console, "  failed: %v\n", err)
	}
	m.sleep(sc.Settle)

	fmt.Fprintln(console, "ready")
	if err := m.screen.Layout(selfCal); err != nil {
		return err
	}
	if err := m.screen.Loading(); err != nil {
		return err
	}
	if err := m.drawLabel(); err != nil {
		return err
	}
	m.logf("monitor: booted, range %s", m.table[m.sel.Index()].Label())
	return m.screen.Present()
}

// Step runs one loop iteration. Sensor failures are absorbed into the
// unavailable state; the returned error is always a display failure.
func (m *Monitor) Step() error {
	ppm, err := m.sensor.ReadPPM()
	if err != nil {
		if err := m.sensorDown(err); err != nil {
			return err
		}
	} else if err := m.advance(ppm); err != nil {
		return err
	}

	m.scanButtons()
	if !m.labelValid {
		if err := m.drawLabel(); err != nil {
			return err
		}
	}
	return m.screen.Present()
}

// Run steps until ctx is done or the display fails.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
}

// sensorDown switches to the unavailable readout. Tick counters keep
// running so the histories catch up on the first good reading.
func (m *Monitor) sensorDown(err error) error {
	if !m.available {
		return nil
	}
	m.available = false
	m.logf("sensor: unavailable: %v", err)
	return m.screen.Unavailable()
}

func (m *Monitor) advance(ppm uint32) error {
	if !m.available {
		m.available = true
		m.logf("sensor: recovered, %d ppm", ppm)
		v := history.Clamp(ppm, m.hist.Scale())
		if err := m.screen.Readout(v, alert.Classify(v).Color()); err != nil {
			return err
		}
	}

	selected := m.sel.Index()
	for i := range m.table {
		if m.clock.TakeAndMaybeReset(i) == 0 {
			continue
		}
		m.hist.Advance(i, ppm)
		if i != selected {
			continue
		}
		if err := m.redraw(i); err != nil {
			return err
		}
	}
	return nil
}

func (m *Monitor) redraw(i int) error {
	latest := m.hist.Latest(i)
	level, p, err := m.alarm.Evaluate(latest, m.hist.Previous(i), m.light.On())
	if err != nil {
		m.logf("alert: %v", err)
	} else if p.Count > 0 {
		m.logf("alert: %s at %d ppm", level, latest)
	}
	if err := m.screen.Readout(latest, level.Color()); err != nil {
		return err
	}
	m.screen.Render(m.hist.Samples(i))
	return nil
}

func (m *Monitor) scanButtons() {
	var down [hal.ButtonCount]bool
	for i, pin := range m.buttons {
		level, err := pin.Read()
		if err != nil {
			continue
		}
		down[i] = !level
	}

	if m.light.Update(down[hal.ButtonBacklight]) && m.blPin != nil {
		if err := m.blPin.Write(m.light.On()); err != nil {
			m.logf("backlight: %v", err)
		}
	}

	if c, ok := m.sel.OnButtons(down[hal.ButtonCoarser], down[hal.ButtonFiner]); ok {
		m.clock.Force(c.To)
		m.labelValid = false
		m.logf("monitor: range %d -> %d", c.From, c.To)
	}
}

func (m *Monitor) drawLabel() error {
	if err := m.screen.RangeLabel(m.table[m.sel.Index()].Label()); err != nil {
		return err
	}
	m.labelValid = true
	return nil
}
