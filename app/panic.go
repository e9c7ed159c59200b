package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"co2scope/hal"
)

// showHalt replaces the screen with the fatal error. The station does not
// recover from here; on the device the caller stops.
func showHalt(h hal.HAL, err error) {
	if l := h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf("app: halted: %v", err))
	}

	d := h.Display()
	if d == nil {
		return
	}
	w, ht := d.Size()
	if d.FillRectangle(0, 0, w, ht, color.RGBA{R: 255, G: 255, B: 255, A: 255}) != nil {
		return
	}

	font := &freemono.Regular9pt7b
	fontHeight, fontOffset := int16(18), int16(13)
	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 {
		_ = d.Display()
		return
	}

	lines := []string{"co2scope halted", ""}
	lines = append(lines, strings.Split(err.Error(), "\n")...)

	fg := color.RGBA{R: 0, G: 0, B: 0, A: 255}
	cols := w / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := int16(0)
	for _, line := range lines {
		if line == "" {
			y += fontHeight
			continue
		}
		for len(line) > 0 {
			if y+fontHeight > ht {
				_ = d.Display()
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(d, font, fontWidth, fontOffset, 0, y, chunk, fg)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = d.Display()
}

func drawTextLine(
	d hal.Display,
	font tinyfont.Fonter,
	fontWidth, fontOffset int16,
	x0, y0 int16,
	s string,
	fg color.RGBA,
) {
	var drawX = x0
	for _, r := range s {
		tinyfont.DrawChar(d, font, drawX, y0+fontOffset, r, fg)
		drawX += fontWidth
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	if int64(len(s)) <= int64(n) {
		return s, ""
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			break
		}
		i += size
		count++
	}
	if i >= len(s) {
		return s, ""
	}
	return s[:i], s[i:]
}
