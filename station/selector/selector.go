// Package selector turns button levels into range selection changes.
package selector

// Edge detects the released-to-pressed transition of one button.
type Edge struct {
	pressed bool
}

// Update records the current state and reports whether the button was just
// pressed.
func (e *Edge) Update(down bool) bool {
	fired := down && !e.pressed
	e.pressed = down
	return fired
}

// Change describes an accepted range switch.
type Change struct {
	From, To int
}

// Selector is the cursor over the range table.
type Selector struct {
	index int
	last  int
	inc   Edge
	dec   Edge
}

// New returns a selector over count ranges starting at index zero.
func New(count int) *Selector {
	if count < 1 {
		count = 1
	}
	return &Selector{last: count - 1}
}

// Index is the selected range.
func (s *Selector) Index() int { return s.index }

// OnButtons feeds one scan of the coarser (inc) and finer (dec) buttons.
// Both presses in one scan are applied in that order; the result reports the
// net move, if any.
func (s *Selector) OnButtons(inc, dec bool) (Change, bool) {
	from := s.index
	if s.inc.Update(inc) && s.index < s.last {
		s.index++
	}
	if s.dec.Update(dec) && s.index > 0 {
		s.index--
	}
	if s.index == from {
		return Change{}, false
	}
	return Change{From: from, To: s.index}, true
}

// Toggle is an on/off latch flipped by each press of one button.
type Toggle struct {
	on   bool
	edge Edge
}

// NewToggle returns a latch in state on.
func NewToggle(on bool) *Toggle { return &Toggle{on: on} }

// On reports the latch state.
func (t *Toggle) On() bool { return t.on }

// Update feeds one scan of the button and reports whether the state flipped.
func (t *Toggle) Update(down bool) bool {
	if !t.edge.Update(down) {
		return false
	}
	t.on = !t.on
	return true
}
