// Package ranges describes the selectable graph time spans.
package ranges

import (
	"fmt"
	"math"
)

// Count is the number of configured ranges.
const Count = 7

// Range is one graph time span. Index addresses the tick counter and the
// history buffer of the range.
type Range struct {
	Index     int
	Minutes   uint32
	Threshold uint32 // ticks per new column

	divisor uint32
}

// Table is the range list, finest resolution first.
type Table [Count]Range

// NewTable derives per-column tick thresholds from the span of each range.
//
// The divisor is a calibration constant measured against the main loop
// latency, not a unit conversion. Re-measure it when the loop period changes.
func NewTable(minutes [Count]uint32, divisor uint32) Table {
	if divisor == 0 {
		divisor = 1
	}
	var t Table
	for i, m := range minutes {
		t[i] = Range{
			Index:     i,
			Minutes:   m,
			Threshold: Ticks(m, divisor),
			divisor:   divisor,
		}
	}
	return t
}

// Ticks is the per-column threshold of a span of minutes, saturated at
// math.MaxUint32.
func Ticks(minutes, divisor uint32) uint32 {
	if divisor == 0 {
		divisor = 1
	}
	t := uint64(minutes) * 60 * 1000 / uint64(divisor)
	if t > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(t)
}

// SecondsPerColumn is the time one graph column stands for.
func (r Range) SecondsPerColumn() float32 {
	if r.divisor == 0 {
		return 0
	}
	return float32(r.Minutes) * 60 / float32(r.divisor)
}

// Label is the on-screen range caption.
func (r Range) Label() string {
	if r.Minutes > 60 {
		return fmt.Sprintf("range: %dh %.2fs/div", r.Minutes/60, r.SecondsPerColumn())
	}
	return fmt.Sprintf("range: %dmin %.2fs/div", r.Minutes, r.SecondsPerColumn())
}

// Last is the index of the coarsest range.
func (t *Table) Last() int { return len(t) - 1 }

// Thresholds returns the tick threshold of every range.
func (t *Table) Thresholds() [Count]uint32 {
	var out [Count]uint32
	for i, r := range t {
		out[i] = r.Threshold
	}
	return out
}
