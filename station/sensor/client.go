package sensor

import (
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrTimeout is returned when the channel fails or no complete reply
	// arrives before the read deadline.
	ErrTimeout = errors.New("sensor: timeout")
	// ErrMalformed is returned when reply verification is enabled and the
	// header or checksum does not match.
	ErrMalformed = errors.New("sensor: malformed reply")
)

const (
	// DefaultTimeout bounds one reply read.
	DefaultTimeout = time.Second
	// DefaultRetries is the number of extra attempts ReadPPM makes.
	DefaultRetries = 3

	pollInterval = time.Millisecond
)

// Channel is a byte-oriented duplex serial link. Read may return 0 bytes and
// no error when nothing has arrived yet.
type Channel interface {
	io.Reader
	io.Writer
}

// inputResetter is implemented by channels that can drop buffered input.
type inputResetter interface {
	ResetInputBuffer() error
}

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	Retries int
	Verify  bool

	Now   func() time.Time
	Sleep func(time.Duration)
}

// Client performs request/reply transactions with the sensor. It is owned by
// the main loop and is not safe for concurrent use.
type Client struct {
	ch      Channel
	timeout time.Duration
	retries int
	verify  bool
	now     func() time.Time
	sleep   func(time.Duration)

	reply Frame
}

// NewClient creates a client on ch.
func NewClient(ch Channel, opts Options) *Client {
	c := &Client{
		ch:      ch,
		timeout: opts.Timeout,
		retries: opts.Retries,
		verify:  opts.Verify,
		now:     opts.Now,
		sleep:   opts.Sleep,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c
}

// RequestReading performs one read transaction and returns the concentration.
func (c *Client) RequestReading() (uint32, error) {
	if err := c.send(ReadCO2); err != nil {
		return 0, err
	}
	if err := c.readReply(); err != nil {
		return 0, err
	}
	if c.verify && !c.reply.Valid() {
		return 0, fmt.Errorf("%w: % x", ErrMalformed, c.reply[:])
	}
	return c.reply.PPM(), nil
}

// ReadPPM is RequestReading with a bounded number of retries. Stale input is
// dropped before each retry when the channel supports it.
func (c *Client) ReadPPM() (uint32, error) {
	var err, resetErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if r, ok := c.ch.(inputResetter); ok {
				if rerr := r.ResetInputBuffer(); rerr != nil {
					resetErr = rerr
				}
			}
		}
		var ppm uint32
		ppm, err = c.RequestReading()
		if err == nil {
			return ppm, nil
		}
	}
	if resetErr != nil {
		return 0, fmt.Errorf("after %d attempts: %w (input reset: %v)", c.retries+1, err, resetErr)
	}
	return 0, fmt.Errorf("after %d attempts: %w", c.retries+1, err)
}

// SetSelfCalibration sends the calibration command. The sensor does not
// acknowledge it.
func (c *Client) SetSelfCalibration(enabled bool) error {
	if enabled {
		return c.send(SelfCalibrationOn)
	}
	return c.send(SelfCalibrationOff)
}

// Reply returns the last received reply frame.
func (c *Client) Reply() Frame { return c.reply }

func (c *Client) send(f Frame) error {
	for i := range f {
		if _, err := c.ch.Write(f[i : i+1]); err != nil {
			return fmt.Errorf("sensor: write byte %d: %w", i, err)
		}
	}
	return nil
}

func (c *Client) readReply() error {
	deadline := c.now().Add(c.timeout)
	got := 0
	for got < FrameSize {
		n, err := c.ch.Read(c.reply[got:])
		got += n
		if err != nil {
			if got == FrameSize {
				return nil
			}
			return fmt.Errorf("%w: read after %d bytes: %v", ErrTimeout, got, err)
		}
		if got == FrameSize {
			return nil
		}
		if n == 0 {
			if !c.now().Before(deadline) {
				return fmt.Errorf("%w: %d of %d bytes", ErrTimeout, got, FrameSize)
			}
			c.sleep(pollInterval)
		}
	}
	return nil
}
