package app

import (
	"image/color"
	"io"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyterm"

	"co2scope/hal"
)

// consoleDisplay adds the scrolling hooks tinyterm expects. The boot log is
// a handful of lines, so scrolling is never needed.
type consoleDisplay struct {
	d hal.Display
}

func (c consoleDisplay) Size() (x, y int16) { return c.d.Size() }

func (c consoleDisplay) SetPixel(x, y int16, col color.RGBA) { c.d.SetPixel(x, y, col) }

func (c consoleDisplay) Display() error { return c.d.Display() }

func (c consoleDisplay) FillRectangle(x, y, width, height int16, col color.RGBA) error {
	return c.d.FillRectangle(x, y, width, height, col)
}

func (consoleDisplay) SetScroll(line int16) {}

func (consoleDisplay) SetRotation(rotation drivers.Rotation) error { return nil }

var _ tinyterm.Displayer = consoleDisplay{}

type console struct {
	t *tinyterm.Terminal
	d hal.Display
}

// newConsole returns a terminal on d that presents after every write. A nil
// d discards output.
func newConsole(d hal.Display) io.Writer {
	if d == nil {
		return io.Discard
	}
	t := tinyterm.NewTerminal(consoleDisplay{d: d})
	t.Configure(&tinyterm.Config{
		Font:       &freemono.Regular9pt7b,
		FontHeight: 18,
		FontOffset: 13,
	})
	return &console{t: t, d: d}
}

func (c *console) Write(p []byte) (int, error) {
	n, err := c.t.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.d.Display()
}
