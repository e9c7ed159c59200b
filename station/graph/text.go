package graph

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	fontReadout tinyfont.Fonter = &freemono.Bold18pt7b
	fontAxis    tinyfont.Fonter = &freemono.Bold9pt7b
	fontSmall   tinyfont.Fonter = &proggy.TinySZ8pt7b
)

// Text positions. Fonts draw from the baseline, so each y below is the top
// of the text box plus the font ascent.
const (
	readoutX        = 30
	loadingX        = 50
	readoutBaseline = 56

	axisLabelTop = 224
	axisBaseline = 12

	rangeLabelX      = 8
	selfCalX         = 210
	labelBaseline    = 18
	rangeLabelWidth  = 210
	rangeLabelHeight = 31
)

var readoutBox = struct{ x, y, w, h int16 }{x: 30, y: 30, w: 263, h: 36}

var axisLabels = []struct {
	text  string
	ppm   uint32
	color color.RGBA
}{
	{" 400", 400, color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}},
	{" 700", 700, color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}},
	{"1000", 1000, color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}},
}

// ReadoutText formats the numeric readout.
func ReadoutText(ppm uint32) string {
	return fmt.Sprintf("CO2:%4dppm", ppm)
}

func writeText(d drivers.Displayer, font tinyfont.Fonter, x, y int16, s string, c color.RGBA) {
	tinyfont.WriteLine(d, font, x, y, s, c)
}
