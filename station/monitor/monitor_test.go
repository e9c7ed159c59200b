package monitor

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"co2scope/config"
	"co2scope/hal"
	"co2scope/station/alert"
	"co2scope/station/graph"
	"co2scope/station/sensor"
)

type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *lineLog) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *lineLog) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.lines {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type countingBuzzer struct {
	enables int
	on      bool
}

func (b *countingBuzzer) Enable() error {
	b.enables++
	b.on = true
	return nil
}

func (b *countingBuzzer) Disable() error {
	b.on = false
	return nil
}

type failingDisplay struct {
	*hal.FramebufferDisplay
	fillErr error
	showErr error
}

func (d *failingDisplay) FillRectangle(x, y, w, h int16, c color.RGBA) error {
	if d.fillErr != nil {
		return d.fillErr
	}
	return d.FramebufferDisplay.FillRectangle(x, y, w, h, c)
}

func (d *failingDisplay) Display() error { return d.showErr }

type buttons [hal.ButtonCount]*hal.VirtualPin

func (b *buttons) Button(id hal.Button) hal.GPIOPin { return b[id] }

type fakeHAL struct {
	log       *lineLog
	display   *failingDisplay
	input     *buttons
	buzzer    *countingBuzzer
	backlight *hal.VirtualPin
	sim       *sensor.Simulator
}

func (h *fakeHAL) Logger() hal.Logger     { return h.log }
func (h *fakeHAL) Display() hal.Display   { return h.display }
func (h *fakeHAL) Input() hal.Input       { return h.input }
func (h *fakeHAL) Buzzer() hal.Buzzer     { return h.buzzer }
func (h *fakeHAL) Backlight() hal.GPIOPin { return h.backlight }
func (h *fakeHAL) Serial() hal.Serial     { return h.sim }
func (h *fakeHAL) Time() hal.Time         { return nil }

// press drives an active-low button.
func (h *fakeHAL) press(b hal.Button, down bool) { h.input[b].Set(!down) }

type fakeTime struct {
	t      time.Time
	slept  time.Duration
	sleeps []time.Duration
}

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) sleep(d time.Duration) {
	f.t = f.t.Add(d)
	f.slept += d
	f.sleeps = append(f.sleeps, d)
}

type rig struct {
	h   *fakeHAL
	m   *Monitor
	clk *fakeTime
}

func newRig(t *testing.T, edit func(*config.Config)) *rig {
	t.Helper()

	cfg := config.Default()
	cfg.Simulator.Period = 0
	cfg.Simulator.Latency = 0
	if edit != nil {
		edit(cfg)
	}

	clk := &fakeTime{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}
	sim := sensor.NewSimulator(&cfg.Simulator)
	sim.SetClock(clk.now)

	var in buttons
	for i := range in {
		in[i] = hal.NewVirtualPin("KEY", hal.GPIOCapInput|hal.GPIOCapPullUp)
		require.NoError(t, in[i].Configure(hal.GPIOModeInput, hal.GPIOPullUp))
	}
	bl := hal.NewVirtualPin("LCD_BACKLIGHT", hal.GPIOCapOutput)
	require.NoError(t, bl.Configure(hal.GPIOModeOutput, hal.GPIOPullNone))
	require.NoError(t, bl.Write(true))

	h := &fakeHAL{
		log:       &lineLog{},
		display:   &failingDisplay{FramebufferDisplay: hal.NewFramebufferDisplay(hal.NewMemoryFramebuffer(hal.ScreenWidth, hal.ScreenHeight))},
		input:     &in,
		buzzer:    &countingBuzzer{},
		backlight: bl,
		sim:       sim,
	}
	m, err := New(h, cfg, WithSleep(clk.sleep), WithClock(clk.now))
	require.NoError(t, err)
	return &rig{h: h, m: m, clk: clk}
}

// readoutPixels counts pixels of colour c in the readout area.
func (r *rig) readoutPixels(c color.RGBA) int {
	n := 0
	for y := int16(30); y < 70; y++ {
		for x := int16(30); x < 293; x++ {
			if r.h.display.Pixel(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestBoot(t *testing.T) {
	r := newRig(t, nil)
	var console bytes.Buffer

	require.NoError(t, r.m.Boot(&console))

	on, ok := r.h.sim.SelfCalibration()
	require.True(t, ok)
	assert.True(t, on)
	assert.Equal(t, []time.Duration{4 * time.Second, time.Second}, r.clk.sleeps)
	assert.Contains(t, console.String(), "self-calibration ON")
	assert.Contains(t, console.String(), "ready")
	assert.Zero(t, r.h.sim.Requests(), "no reading during boot")
}

func TestBootSelfCalibrationOff(t *testing.T) {
	r := newRig(t, func(c *config.Config) { c.Station.SelfCalibration = false })
	require.NoError(t, r.m.Boot(nil))

	on, ok := r.h.sim.SelfCalibration()
	require.True(t, ok)
	assert.False(t, on)
}

func TestReading400IsNormalGreen(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.m.Boot(nil))

	r.h.sim.Push(400)
	r.m.Clock().Elapse(220)
	require.NoError(t, r.m.Step())

	assert.Equal(t, uint32(400), r.m.History().Latest(0))
	assert.Equal(t, uint32(400), r.m.History().Latest(1), "range 1 has not crossed its threshold")
	assert.Positive(t, r.readoutPixels(alert.ColorNormal))
	assert.Zero(t, r.h.buzzer.enables)
	assert.Zero(t, r.m.Clock().Count(0))
}

func TestWarningTransitionBeepsOnce(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.m.Boot(nil))

	r.h.sim.Push(650, 750, 760)
	for i := 0; i < 3; i++ {
		r.m.Clock().Elapse(220)
		require.NoError(t, r.m.Step())
	}

	assert.Equal(t, 2, r.h.buzzer.enables, "one double beep")
	assert.False(t, r.h.buzzer.on)
	assert.Positive(t, r.readoutPixels(alert.ColorWarning))
	assert.Zero(t, r.readoutPixels(alert.ColorNormal))
	assert.True(t, r.h.log.contains("alert: warning at 750 ppm"))
}

func TestNoAdvanceBelowThreshold(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.m.Boot(nil))

	r.h.sim.Push(900)
	r.m.Clock().Elapse(219)
	require.NoError(t, r.m.Step())

	assert.Equal(t, uint32(400), r.m.History().Latest(0))
	assert.Equal(t, uint32(219), r.m.Clock().Count(0))
	assert.Equal(t, 1, r.h.sim.Requests())
}

func TestCoarserRangeRedrawsImmediately(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.m.Boot(nil))

	// Feed both range 0 and range 1 once.
	r.h.sim.Push(520)
	r.m.Clock().Elapse(1099)
	require.NoError(t, r.m.Step())
	require.Equal(t, uint32(520), r.m.History().Latest(1))

	r.h.sim.Push(530)
	r.h.press(hal.ButtonCoarser, true)
	require.NoError(t, r.m.Step())
	assert.Equal(t, 1, r.m.Selected())

	r.h.sim.Push(540)
	r.h.press(hal.ButtonCoarser, false)
	require.NoError(t, r.m.Step())

	samples := r.m.History().Samples(1)
	assert.Equal(t, uint32(520), samples[318])
	assert.Equal(t, uint32(540), samples[319])
	assert.Equal(t, *samples, r.m.Renderer().Curve())
	assert.Zero(t, r.m.Clock().Count(1))
	assert.True(t, r.h.log.contains("range 0 -> 1"))
}

func TestHeldButtonMovesOnce(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.m.Boot(nil))

	r.h.press(hal.ButtonCoarser, true)
	for i := 0; i < 5; i++ {
		require.NoError(t, r.m.Step())
	}
	assert.Equal(t, 1, r.m.Selected())

	r.h.press(hal.ButtonCoarser, false)
	require.NoError(t, r.m.Step())
	r.h.press(hal.ButtonFiner, true)
	require.NoError(t, r.m.Step())
	assert.Equal(t, 0, r.m.Selected())
}

func TestBacklightSilencesAlerts(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.m.Boot(nil))

	r.h.press(hal.ButtonBacklight, true)
	require.NoError(t, r.m.Step())
	r.h.press(hal.ButtonBacklight, false)
	assert.False(t, r.m.BacklightOn())
	level, err := r.h.backlight.Read()
	require.NoError(t, err)
	assert.False(t, level)

	r.h.sim.Push(1200)
	r.m.Clock().Elapse(220)
	require.NoError(t, r.m.Step())
	assert.Zero(t, r.h.buzzer.enables)
	assert.Positive(t, r.readoutPixels(alert.ColorCritical))

	r.h.press(hal.ButtonBacklight, true)
	require.NoError(t, r.m.Step())
	assert.True(t, r.m.BacklightOn())
}

func TestSensorUnavailableKeepsTicks(t *testing.T) {
	r := newRig(t, func(c *config.Config) { c.Sensor.Retries = 2 })
	require.NoError(t, r.m.Boot(nil))

	r.h.sim.DropReplies(3)
	r.m.Clock().Elapse(500)
	require.NoError(t, r.m.Step())

	assert.False(t, r.m.SensorAvailable())
	assert.Equal(t, 3, r.h.sim.Requests())
	assert.Equal(t, uint32(500), r.m.Clock().Count(0), "counters not consumed")
	assert.True(t, r.h.log.contains("sensor: unavailable"))

	r.h.sim.Push(800)
	require.NoError(t, r.m.Step())
	assert.True(t, r.m.SensorAvailable())
	assert.Equal(t, uint32(800), r.m.History().Latest(0))
	assert.Zero(t, r.m.Clock().Count(0), "ticks past the threshold are dropped at reset")
	assert.Positive(t, r.readoutPixels(alert.ColorWarning))
}

func TestDisplayFailureIsFatal(t *testing.T) {
	r := newRig(t, nil)
	boom := errors.New("spi fault")
	r.h.display.fillErr = boom

	err := r.m.Boot(nil)
	var de *graph.DisplayError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, boom)

	r.h.display.fillErr = nil
	r.h.display.showErr = boom
	err = r.m.Run(context.Background())
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "present", de.Op)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.m.Run(ctx), context.Canceled)
	assert.Zero(t, r.h.sim.Requests())
}

func TestNewValidatesConfig(t *testing.T) {
	r := newRig(t, nil)
	cfg := config.Default()
	cfg.Station.Scale = 0

	_, err := New(r.h, cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = New(nil, nil)
	assert.Error(t, err)
}
