//go:build !tinygo

package sensor

import (
	"errors"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"co2scope/config"
)

// ErrSimulatedFault is returned by Read while an injected fault is active.
var ErrSimulatedFault = errors.New("sensor: simulated fault")

// Simulator emulates an MH-Z19 on the far side of a Channel. Requests are
// parsed as they are written; replies become readable after the configured
// latency. Readings come from the Push queue, otherwise from a slow raised
// cosine between Baseline and Baseline+Amplitude.
type Simulator struct {
	cfg config.SimulatorConfig
	now func() time.Time

	mu       sync.Mutex
	start    time.Time
	req      []byte
	pending  []byte
	readyAt  time.Time
	script   []uint32
	drop     int
	fault    int
	selfCal  *bool
	requests int
}

var _ Channel = (*Simulator)(nil)

// NewSimulator creates a simulator. A nil cfg selects the defaults.
func NewSimulator(cfg *config.SimulatorConfig) *Simulator {
	if cfg == nil {
		def := config.Default().Simulator
		cfg = &def
	}
	s := &Simulator{cfg: *cfg, now: time.Now}
	s.start = s.now()
	return s
}

// SetClock replaces the time source. Used by tests.
func (s *Simulator) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.start = now()
}

// Push queues readings returned by the next read requests, in order.
func (s *Simulator) Push(ppm ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, ppm...)
}

// DropReplies makes the next n read requests go unanswered.
func (s *Simulator) DropReplies(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop = n
}

// FailReads makes the next n Read calls return ErrSimulatedFault.
func (s *Simulator) FailReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = n
}

// SelfCalibration reports the last calibration command received. ok is false
// until one arrives.
func (s *Simulator) SelfCalibration() (enabled, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selfCal == nil {
		return false, false
	}
	return *s.selfCal, true
}

// Requests returns the number of read requests answered or dropped.
func (s *Simulator) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// ResetInputBuffer discards a reply that has not been read yet.
func (s *Simulator) ResetInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.pending[:0]
	return nil
}

// Write implements io.Writer.
func (s *Simulator) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range p {
		if len(s.req) == 0 && b != frameHeader {
			continue
		}
		s.req = append(s.req, b)
		if len(s.req) == FrameSize {
			var f Frame
			copy(f[:], s.req)
			s.req = s.req[:0]
			s.handle(f)
		}
	}
	return len(p), nil
}

// Read implements io.Reader. It returns 0, nil while the reply is still in
// flight.
func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fault > 0 {
		s.fault--
		return 0, ErrSimulatedFault
	}
	if len(s.pending) == 0 || s.now().Before(s.readyAt) {
		return 0, nil
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *Simulator) handle(f Frame) {
	switch f[2] {
	case cmdReadCO2:
		s.requests++
		if s.drop > 0 {
			s.drop--
			return
		}
		reply := Reply(s.nextReading())
		s.pending = append(s.pending[:0], reply[:]...)
		s.readyAt = s.now().Add(s.cfg.Latency)
	case cmdSelfCalibration:
		on := f[3] == selfCalibrationEnable
		s.selfCal = &on
	}
}

func (s *Simulator) nextReading() uint32 {
	if len(s.script) > 0 {
		v := s.script[0]
		s.script = s.script[1:]
		return v
	}
	if s.cfg.Period <= 0 {
		return s.cfg.Baseline
	}
	phase := float32(s.now().Sub(s.start)%s.cfg.Period) / float32(s.cfg.Period)
	swing := (1 - math32.Cos(2*math32.Pi*phase)) / 2
	return s.cfg.Baseline + uint32(swing*float32(s.cfg.Amplitude))
}

// Reply builds a well-formed read reply carrying ppm. The value is placed at
// both the datasheet offset (bytes 2-3) and the offset decoded by PPM.
func Reply(ppm uint32) Frame {
	hi, lo := byte(ppm>>8), byte(ppm)
	f := Frame{frameHeader, cmdReadCO2, hi, lo, hi, lo}
	f[8] = Checksum(f)
	return f
}
