//go:build !tinygo

package hal

import "time"

const tickDur = time.Millisecond

// hostTime turns wall time observed at each step into 1 ms ticks. When the
// consumer lags, sequence numbers are skipped instead of queued, so the
// consumer sees the gap.
type hostTime struct {
	ch  chan uint64
	seq uint64
	now func() time.Time

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 64), now: time.Now}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

func (t *hostTime) step() {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / tickDur)
	if ticks == 0 {
		return
	}
	t.acc %= tickDur
	t.seq += ticks
	select {
	case t.ch <- t.seq:
	default:
	}
}
