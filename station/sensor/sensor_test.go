package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"co2scope/config"
)

type fakeClock struct {
	t      time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.sleeps++
	c.t = c.t.Add(d)
}

// scriptedChannel records writes and hands out rx in chunks, returning an
// empty read between chunks.
type scriptedChannel struct {
	writes   [][]byte
	rx       []byte
	chunk    int
	idle     bool
	err      error
	resets   int
	resetErr error
}

func (c *scriptedChannel) Write(p []byte) (int, error) {
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *scriptedChannel) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.idle || len(c.rx) == 0 {
		c.idle = false
		return 0, nil
	}
	c.idle = true
	n := len(c.rx)
	if c.chunk > 0 && n > c.chunk {
		n = c.chunk
	}
	n = copy(p, c.rx[:n])
	c.rx = c.rx[n:]
	return n, nil
}

func (c *scriptedChannel) ResetInputBuffer() error {
	c.resets++
	c.rx = nil
	return c.resetErr
}

func (c *scriptedChannel) written() []byte {
	var out []byte
	for _, w := range c.writes {
		out = append(out, w...)
	}
	return out
}

func TestCommandFrames(t *testing.T) {
	assert.Equal(t, Frame{0xFF, 0x01, 0x86, 0x00, 0x00, 0x00, 0x00, 0x00, 0x79}, ReadCO2)
	assert.Equal(t, Frame{0xFF, 0x01, 0x79, 0xA0, 0x00, 0x00, 0x00, 0x00, 0xE6}, SelfCalibrationOn)
	assert.Equal(t, Frame{0xFF, 0x01, 0x79, 0x00, 0x00, 0x00, 0x00, 0x00, 0x86}, SelfCalibrationOff)
	assert.True(t, ReadCO2.Valid())
	assert.True(t, SelfCalibrationOn.Valid())
}

func TestFramePPM(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  uint32
	}{
		{"outdoor", Frame{0xFF, 0x86, 0x00, 0x00, 0x01, 0x90}, 400},
		{"zero", Frame{0xFF, 0x86}, 0},
		{"high byte only", Frame{0xFF, 0x86, 0, 0, 0x03, 0x00}, 768},
		{"max", Frame{0xFF, 0x86, 0, 0, 0xFF, 0xFF}, 65535},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.frame.PPM())
		})
	}
}

func TestReplyIsWellFormed(t *testing.T) {
	f := Reply(1234)
	assert.True(t, f.Valid())
	assert.Equal(t, uint32(1234), f.PPM())
	assert.Equal(t, byte(0x04), f[2])
	assert.Equal(t, byte(0xD2), f[3])
}

func TestRequestReadingWritesBytewise(t *testing.T) {
	ch := &scriptedChannel{rx: []byte{0xFF, 0x86, 0x00, 0x00, 0x01, 0x90, 0x00, 0x00, 0x00}}
	clk := newFakeClock()
	c := NewClient(ch, Options{Now: clk.now, Sleep: clk.sleep})

	ppm, err := c.RequestReading()
	require.NoError(t, err)
	assert.Equal(t, uint32(400), ppm)

	require.Len(t, ch.writes, FrameSize)
	for _, w := range ch.writes {
		assert.Len(t, w, 1)
	}
	assert.Equal(t, ReadCO2[:], ch.written())
}

func TestRequestReadingAssemblesChunks(t *testing.T) {
	reply := Reply(987)
	ch := &scriptedChannel{rx: reply[:], chunk: 2}
	clk := newFakeClock()
	c := NewClient(ch, Options{Now: clk.now, Sleep: clk.sleep})

	ppm, err := c.RequestReading()
	require.NoError(t, err)
	assert.Equal(t, uint32(987), ppm)
	assert.Equal(t, reply, c.Reply())
	assert.Positive(t, clk.sleeps)
}

func TestRequestReadingVerify(t *testing.T) {
	bad := []byte{0xFF, 0x86, 0x00, 0x00, 0x01, 0x90, 0x00, 0x00, 0x00}
	clk := newFakeClock()

	c := NewClient(&scriptedChannel{rx: bad}, Options{Verify: true, Now: clk.now, Sleep: clk.sleep})
	_, err := c.RequestReading()
	assert.ErrorIs(t, err, ErrMalformed)

	good := Reply(400)
	c = NewClient(&scriptedChannel{rx: good[:]}, Options{Verify: true, Now: clk.now, Sleep: clk.sleep})
	ppm, err := c.RequestReading()
	require.NoError(t, err)
	assert.Equal(t, uint32(400), ppm)
}

func TestRequestReadingTimeout(t *testing.T) {
	ch := &scriptedChannel{rx: []byte{0xFF, 0x86, 0x00}}
	clk := newFakeClock()
	c := NewClient(ch, Options{Timeout: 50 * time.Millisecond, Now: clk.now, Sleep: clk.sleep})

	start := clk.now()
	_, err := c.RequestReading()
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, clk.now().Sub(start), 50*time.Millisecond)
	assert.Less(t, clk.now().Sub(start), 60*time.Millisecond)
}

func TestRequestReadingChannelError(t *testing.T) {
	ch := &scriptedChannel{err: errors.New("port closed")}
	clk := newFakeClock()
	c := NewClient(ch, Options{Now: clk.now, Sleep: clk.sleep})

	_, err := c.RequestReading()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "port closed")
	assert.Zero(t, clk.sleeps)
}

func TestReadPPMRetries(t *testing.T) {
	clk := newFakeClock()
	sim := NewSimulator(&config.SimulatorConfig{Baseline: 450})
	sim.SetClock(clk.now)
	sim.DropReplies(2)
	sim.Push(812)

	c := NewClient(sim, Options{Timeout: 10 * time.Millisecond, Retries: 3, Now: clk.now, Sleep: clk.sleep})
	ppm, err := c.ReadPPM()
	require.NoError(t, err)
	assert.Equal(t, uint32(812), ppm)
	assert.Equal(t, 3, sim.Requests())
}

func TestReadPPMGivesUp(t *testing.T) {
	ch := &scriptedChannel{}
	clk := newFakeClock()
	c := NewClient(ch, Options{Timeout: 5 * time.Millisecond, Retries: 2, Now: clk.now, Sleep: clk.sleep})

	_, err := c.ReadPPM()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, ch.resets)
	assert.Len(t, ch.writes, 3*FrameSize)
}

func TestReadPPMReportsResetFailure(t *testing.T) {
	ch := &scriptedChannel{resetErr: errors.New("flush: device gone")}
	clk := newFakeClock()
	c := NewClient(ch, Options{Timeout: 5 * time.Millisecond, Retries: 1, Now: clk.now, Sleep: clk.sleep})

	_, err := c.ReadPPM()
	require.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "input reset: flush: device gone")
	assert.Equal(t, 1, ch.resets)
}

func TestSetSelfCalibration(t *testing.T) {
	sim := NewSimulator(nil)
	c := NewClient(sim, Options{})

	_, ok := sim.SelfCalibration()
	assert.False(t, ok)

	require.NoError(t, c.SetSelfCalibration(true))
	on, ok := sim.SelfCalibration()
	require.True(t, ok)
	assert.True(t, on)

	require.NoError(t, c.SetSelfCalibration(false))
	on, _ = sim.SelfCalibration()
	assert.False(t, on)
	assert.Zero(t, sim.Requests(), "calibration is not a read request")
}

func TestSimulatorLatency(t *testing.T) {
	clk := newFakeClock()
	sim := NewSimulator(&config.SimulatorConfig{Baseline: 500, Latency: 30 * time.Millisecond})
	sim.SetClock(clk.now)
	sim.Push(640)

	_, err := sim.Write(ReadCO2[:])
	require.NoError(t, err)

	buf := make([]byte, FrameSize)
	n, err := sim.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n, "reply still in flight")

	clk.sleep(30 * time.Millisecond)
	n, err = sim.Read(buf)
	require.NoError(t, err)
	require.Equal(t, FrameSize, n)

	var f Frame
	copy(f[:], buf)
	assert.True(t, f.Valid())
	assert.Equal(t, uint32(640), f.PPM())
}

func TestSimulatorFaults(t *testing.T) {
	sim := NewSimulator(nil)
	sim.FailReads(1)

	_, err := sim.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrSimulatedFault)
	n, err := sim.Read(make([]byte, 1))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestSimulatorIgnoresNoiseBeforeHeader(t *testing.T) {
	sim := NewSimulator(&config.SimulatorConfig{Baseline: 420})
	_, _ = sim.Write([]byte{0x00, 0x13})
	_, _ = sim.Write(ReadCO2[:])
	assert.Equal(t, 1, sim.Requests())
}

func TestSimulatorBaselineCurve(t *testing.T) {
	clk := newFakeClock()
	sim := NewSimulator(&config.SimulatorConfig{Baseline: 450, Amplitude: 600, Period: time.Minute})
	sim.SetClock(clk.now)
	c := NewClient(sim, Options{Now: clk.now, Sleep: clk.sleep})

	ppm, err := c.RequestReading()
	require.NoError(t, err)
	assert.Equal(t, uint32(450), ppm)

	clk.t = clk.t.Add(30 * time.Second)
	ppm, err = c.RequestReading()
	require.NoError(t, err)
	assert.InDelta(t, 1050, ppm, 1)
}
