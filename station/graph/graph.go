// Package graph draws the station screen: the ppm curve of the selected
// range, the numeric readout, the axis labels and the range label.
package graph

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"

	"co2scope/station/history"
)

// Screen geometry.
const (
	Width  = 320
	Height = 240

	// FirstColumn is the leftmost data column; columns to its left hold the
	// axis labels.
	FirstColumn = 47
	// BaseRow is the y of a Floor reading.
	BaseRow = 230
)

var (
	colorBackground = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	colorCurve      = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorText       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorDim        = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// Display is the drawing surface.
type Display interface {
	drivers.Displayer
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// DisplayError reports a failed draw primitive. The screen content is
// undefined afterwards.
type DisplayError struct {
	Op  string
	Err error
}

func (e *DisplayError) Error() string { return fmt.Sprintf("graph: %s: %v", e.Op, e.Err) }
func (e *DisplayError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DisplayError{Op: op, Err: err}
}

// Renderer owns the screen and the curve currently drawn on it.
type Renderer struct {
	d     Display
	scale int32
	curve [history.Columns]uint32
}

// NewRenderer returns a renderer for d at scale ppm per row. A zero scale is
// treated as one.
func NewRenderer(d Display, scale uint32) *Renderer {
	if scale == 0 {
		scale = 1
	}
	return &Renderer{d: d, scale: int32(scale)}
}

// Row maps a reading to its screen row. Readings below Floor map below
// BaseRow, possibly off screen.
func (r *Renderer) Row(ppm uint32) int16 {
	return int16(BaseRow - (int32(ppm)-history.Floor)/r.scale)
}

// Render replaces the drawn curve with samples. Only the previous pixel and
// the new pixel of each data column are touched.
func (r *Renderer) Render(samples *[history.Columns]uint32) {
	for x := FirstColumn; x < history.Columns; x++ {
		r.plot(int16(x), r.Row(r.curve[x]), colorBackground)
		r.plot(int16(x), r.Row(samples[x]), colorCurve)
	}
	r.curve = *samples
}

// Curve returns the samples currently drawn.
func (r *Renderer) Curve() [history.Columns]uint32 { return r.curve }

func (r *Renderer) plot(x, y int16, c color.RGBA) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	r.d.SetPixel(x, y, c)
}

// Present pushes pending pixels to the panel.
func (r *Renderer) Present() error {
	return wrap("present", r.d.Display())
}

// Layout paints the static screen: background, axis labels and the
// self-calibration label. The drawn curve is forgotten.
func (r *Renderer) Layout(selfCal bool) error {
	if err := r.d.FillRectangle(0, 0, Width, Height, colorBackground); err != nil {
		return wrap("layout background", err)
	}
	r.curve = [history.Columns]uint32{}

	for _, l := range axisLabels {
		row := int32(axisLabelTop) - int32(l.ppm-history.Floor)/r.scale
		writeText(r.d, fontAxis, 0, int16(row)+axisBaseline, l.text, l.color)
	}

	label := "Self-Cal: OFF"
	if selfCal {
		label = "Self-Cal: ON"
	}
	writeText(r.d, fontSmall, selfCalX, labelBaseline, label, colorText)
	return nil
}

// Loading shows the warm-up message in the readout area.
func (r *Renderer) Loading() error {
	if err := r.clearReadout(); err != nil {
		return err
	}
	writeText(r.d, fontReadout, loadingX, readoutBaseline, "loading...", colorText)
	return nil
}

// Readout shows ppm in c.
func (r *Renderer) Readout(ppm uint32, c color.RGBA) error {
	if err := r.clearReadout(); err != nil {
		return err
	}
	writeText(r.d, fontReadout, readoutX, readoutBaseline, ReadoutText(ppm), c)
	return nil
}

// Unavailable replaces the readout after the sensor stopped answering.
func (r *Renderer) Unavailable() error {
	if err := r.clearReadout(); err != nil {
		return err
	}
	writeText(r.d, fontAxis, readoutX, readoutBaseline-6, "sensor unavailable", colorDim)
	return nil
}

// RangeLabel redraws the range label area with text.
func (r *Renderer) RangeLabel(text string) error {
	if err := r.d.FillRectangle(0, 0, rangeLabelWidth, rangeLabelHeight, colorBackground); err != nil {
		return wrap("range label", err)
	}
	writeText(r.d, fontSmall, rangeLabelX, labelBaseline, text, colorText)
	return nil
}

func (r *Renderer) clearReadout() error {
	return wrap("readout", r.d.FillRectangle(readoutBox.x, readoutBox.y, readoutBox.w, readoutBox.h, colorBackground))
}
