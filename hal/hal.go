package hal

import (
	"errors"
	"image/color"
	"io"

	"tinygo.org/x/drivers"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Panel geometry of the station display.
const (
	ScreenWidth  = 320
	ScreenHeight = 240
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display is the drawing surface: a tinygo driver display that can also fill
// rectangles. Display() presents pending pixels.
type Display interface {
	drivers.Displayer
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// Button identifies one of the three top buttons, left to right.
type Button uint8

const (
	ButtonBacklight Button = iota
	ButtonCoarser
	ButtonFiner

	ButtonCount = 3
)

func (b Button) String() string {
	switch b {
	case ButtonBacklight:
		return "backlight"
	case ButtonCoarser:
		return "coarser"
	case ButtonFiner:
		return "finer"
	default:
		return "unknown"
	}
}

// Input provides the buttons. Pins are active-low: a pressed button reads
// false.
type Input interface {
	Button(b Button) GPIOPin
}

// Buzzer gates a fixed-frequency tone.
type Buzzer interface {
	Enable() error
	Disable() error
}

// Serial is the byte channel to the sensor. Read may return 0, nil when no
// data is buffered.
type Serial interface {
	io.Reader
	io.Writer
}

// Time provides a base tick stream.
//
// Each value is a sequence number; one step is one millisecond.
type Time interface {
	Ticks() <-chan uint64
}

// HAL provides the only contact point between the station and the outside
// world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Buzzer() Buzzer
	Backlight() GPIOPin
	Serial() Serial
	Time() Time
}
