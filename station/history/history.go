// Package history keeps one fixed-length rolling buffer of readings per range.
package history

import "co2scope/station/ranges"

const (
	// Columns is the number of stored samples per range, one per screen column.
	Columns = 320
	// Floor is the lowest storable reading (outdoor air).
	Floor = 400
	// Rows is the graph height in ppm steps of one scale unit.
	Rows = 140
)

// Ceiling is the highest storable reading for a display scale.
func Ceiling(scale uint32) uint32 {
	return Floor + Rows*scale
}

// Clamp limits v to the drawable band of the graph.
func Clamp(v, scale uint32) uint32 {
	if v < Floor {
		return Floor
	}
	if c := Ceiling(scale); v > c {
		return c
	}
	return v
}

// History holds the samples of every range, oldest first. The newest sample
// is always at Columns-1.
type History struct {
	scale   uint32
	samples [ranges.Count][Columns]uint32
}

// New returns a history with every slot at Floor.
func New(scale uint32) *History {
	h := &History{scale: scale}
	for i := range h.samples {
		for j := range h.samples[i] {
			h.samples[i][j] = Floor
		}
	}
	return h
}

// Advance drops the oldest sample of range i and appends v, clamped.
func (h *History) Advance(i int, v uint32) {
	if i < 0 || i >= len(h.samples) {
		return
	}
	buf := &h.samples[i]
	copy(buf[:Columns-1], buf[1:])
	buf[Columns-1] = Clamp(v, h.scale)
}

// Samples returns the buffer of range i. Callers must not modify it.
func (h *History) Samples(i int) *[Columns]uint32 {
	return &h.samples[i]
}

// Latest returns the newest sample of range i.
func (h *History) Latest(i int) uint32 {
	return h.samples[i][Columns-1]
}

// Previous returns the sample before the newest one of range i.
func (h *History) Previous(i int) uint32 {
	return h.samples[i][Columns-2]
}

// Scale returns the display scale the history clamps to.
func (h *History) Scale() uint32 { return h.scale }
