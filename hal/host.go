//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
)

// HostConfig wires the host HAL.
type HostConfig struct {
	// Serial is the sensor channel: an opened port or a simulator.
	Serial Serial
	// Logger defaults to stdout.
	Logger Logger
	// WindowScale is the integer zoom of the window.
	WindowScale int
	// Title is the window title.
	Title string

	tone bool
}

type hostHAL struct {
	logger    Logger
	fb        *hostFramebuffer
	display   *FramebufferDisplay
	buttons   *buttonSet
	backlight *VirtualPin
	buzzer    *hostBuzzer
	t         *hostTime
	serial    Serial
}

// NewHost returns a host HAL implementation.
func NewHost(cfg HostConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg HostConfig) *hostHAL {
	logger := cfg.Logger
	if logger == nil {
		logger = &hostLogger{w: os.Stdout}
	}
	serial := cfg.Serial
	if serial == nil {
		serial = nullSerial{}
	}

	fb := newHostFramebuffer(ScreenWidth, ScreenHeight)
	backlight := NewVirtualPin("LCD_BACKLIGHT", GPIOCapOutput)
	_ = backlight.Configure(GPIOModeOutput, GPIOPullNone)
	_ = backlight.Write(true)

	var tone toneOutput
	if cfg.tone {
		tone = newHostTone()
	}

	return &hostHAL{
		logger:    logger,
		fb:        fb,
		display:   NewFramebufferDisplay(fb),
		buttons:   newButtonSet(),
		backlight: backlight,
		buzzer:    &hostBuzzer{logger: logger, tone: tone},
		t:         newHostTime(),
		serial:    serial,
	}
}

func (h *hostHAL) Logger() Logger     { return h.logger }
func (h *hostHAL) Display() Display   { return h.display }
func (h *hostHAL) Input() Input       { return h.buttons }
func (h *hostHAL) Buzzer() Buzzer     { return h.buzzer }
func (h *hostHAL) Backlight() GPIOPin { return h.backlight }
func (h *hostHAL) Serial() Serial     { return h.serial }
func (h *hostHAL) Time() Time         { return h.t }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// toneOutput is the audible side of the host buzzer.
type toneOutput interface {
	SetGate(on bool) error
}

// hostBuzzer logs gate changes and forwards them to a tone output when one
// is available.
type hostBuzzer struct {
	mu     sync.Mutex
	on     bool
	logger Logger
	tone   toneOutput
}

func (b *hostBuzzer) Enable() error  { return b.set(true) }
func (b *hostBuzzer) Disable() error { return b.set(false) }

func (b *hostBuzzer) set(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.on == on {
		return nil
	}
	b.on = on
	if on {
		b.logger.WriteLineString("buzzer: ON")
	}
	if b.tone == nil {
		return nil
	}
	return b.tone.SetGate(on)
}

type nullSerial struct{}

func (nullSerial) Read(p []byte) (int, error)  { return 0, ErrNotImplemented }
func (nullSerial) Write(p []byte) (int, error) { return 0, ErrNotImplemented }
