//go:build !tinygo

package app

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"co2scope/config"
	"co2scope/hal"
	"co2scope/station/monitor"
	"co2scope/station/ranges"
	"co2scope/station/sensor"
	"co2scope/station/tick"
)

type lineRecorder struct {
	lines chan string
}

func newLineRecorder() *lineRecorder { return &lineRecorder{lines: make(chan string, 256)} }

func (l *lineRecorder) WriteLineString(s string) {
	select {
	case l.lines <- s:
	default:
	}
}

func (l *lineRecorder) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *lineRecorder) contains(s string) bool {
	for {
		select {
		case line := <-l.lines:
			if line == s {
				return true
			}
		default:
			return false
		}
	}
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

func TestPumpTicksCatchesUpGaps(t *testing.T) {
	var thresholds [ranges.Count]uint32
	for i := range thresholds {
		thresholds[i] = 1 << 30
	}
	clock := tick.NewClock(thresholds)

	ticks := make(chan uint64, 4)
	ticks <- 1
	ticks <- 2
	ticks <- 7
	ticks <- 7
	close(ticks)

	pumpTicks(context.Background(), ticks, clock)
	for i := 0; i < ranges.Count; i++ {
		assert.Equal(t, uint32(7), clock.Count(i), "range %d", i)
	}
}

func TestPumpTicksStopsOnCancel(t *testing.T) {
	var thresholds [ranges.Count]uint32
	clock := tick.NewClock(thresholds)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		pumpTicks(ctx, make(chan uint64), clock)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestShowHalt(t *testing.T) {
	rec := newLineRecorder()
	h := hal.NewHost(hal.HostConfig{Logger: rec})
	d := h.Display().(*hal.FramebufferDisplay)

	showHalt(h, errors.New("display: spi write failed"))

	assert.True(t, rec.contains("app: halted: display: spi write failed"))
	assert.Equal(t, white, d.Pixel(hal.ScreenWidth-1, hal.ScreenHeight-1))

	inked := false
	for y := int16(0); y < 18 && !inked; y++ {
		for x := int16(0); x < hal.ScreenWidth; x++ {
			if d.Pixel(x, y) != white {
				inked = true
				break
			}
		}
	}
	assert.True(t, inked, "title drawn")
}

func TestConsoleDrawsOnDisplay(t *testing.T) {
	h := hal.NewHost(hal.HostConfig{Logger: newLineRecorder()})
	d := h.Display().(*hal.FramebufferDisplay)
	black := color.RGBA{A: 255}

	c := newConsole(d)
	n, err := c.Write([]byte("ready\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	inked := false
	for y := int16(0); y < 18 && !inked; y++ {
		for x := int16(0); x < hal.ScreenWidth; x++ {
			if d.Pixel(x, y) != black {
				inked = true
				break
			}
		}
	}
	assert.True(t, inked, "console text drawn")
}

func TestTakeRunes(t *testing.T) {
	prefix, rest := takeRunes("ppm: 1234", 4)
	assert.Equal(t, "ppm:", prefix)
	assert.Equal(t, " 1234", rest)

	prefix, rest = takeRunes("µg", 1)
	assert.Equal(t, "µ", prefix)
	assert.Equal(t, "g", rest)

	prefix, rest = takeRunes("ok", 10)
	assert.Equal(t, "ok", prefix)
	assert.Empty(t, rest)
}

func TestRunUntilCanceled(t *testing.T) {
	sim := sensor.NewSimulator(&config.SimulatorConfig{Baseline: 500})
	rec := newLineRecorder()
	h := hal.NewHost(hal.HostConfig{Serial: sim, Logger: rec})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Run(ctx, h, config.Default(), monitor.WithSleep(func(time.Duration) {})) }()

	require.Eventually(t, func() bool { return sim.Requests() >= 2 }, 2*time.Second, 5*time.Millisecond)
	enabled, ok := sim.SelfCalibration()
	assert.True(t, ok)
	assert.True(t, enabled)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Station.Scale = 0
	h := hal.NewHost(hal.HostConfig{Logger: newLineRecorder()})

	err := Run(context.Background(), h, cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
