//go:build tinygo && baremetal

package hal

import (
	"fmt"
	"machine"
	"time"
)

// tinyGoTime publishes the number of whole milliseconds since boot. Ticks are
// derived from elapsed time, so a late ticker fire never loses any.
type tinyGoTime struct {
	ch chan uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		start := time.Now()
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		var seq uint64
		for range ticker.C {
			now := uint64(time.Since(start) / time.Millisecond)
			if now == seq {
				continue
			}
			seq = now
			select {
			case t.ch <- seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

type usbLogger struct{}

func (l *usbLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		machine.Serial.WriteByte(s[i])
	}
	machine.Serial.WriteByte('\r')
	machine.Serial.WriteByte('\n')
}

func (l *usbLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		machine.Serial.WriteByte(b[i])
	}
	machine.Serial.WriteByte('\r')
	machine.Serial.WriteByte('\n')
}

// machinePin adapts a machine.Pin to GPIOPin.
type machinePin struct {
	name string
	pin  machine.Pin
	caps GPIOCaps
	mode GPIOMode
}

func newMachinePin(name string, pin machine.Pin, caps GPIOCaps) *machinePin {
	return &machinePin{name: name, pin: pin, caps: caps}
}

func (p *machinePin) Name() string   { return p.name }
func (p *machinePin) Caps() GPIOCaps { return p.caps }

func (p *machinePin) Configure(mode GPIOMode, pull GPIOPull) error {
	var m machine.PinMode
	switch {
	case mode == GPIOModeOutput && p.caps&GPIOCapOutput != 0:
		m = machine.PinOutput
	case mode == GPIOModeInput && pull == GPIOPullUp && p.caps&GPIOCapPullUp != 0:
		m = machine.PinInputPullup
	case mode == GPIOModeInput && pull == GPIOPullDown && p.caps&GPIOCapPullDown != 0:
		m = machine.PinInputPulldown
	case mode == GPIOModeInput && pull == GPIOPullNone && p.caps&GPIOCapInput != 0:
		m = machine.PinInput
	default:
		return fmt.Errorf("gpio: pin %s: unsupported configuration", p.name)
	}
	p.pin.Configure(machine.PinConfig{Mode: m})
	p.mode = mode
	return nil
}

func (p *machinePin) Read() (bool, error) { return p.pin.Get(), nil }

func (p *machinePin) Write(level bool) error {
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.pin.Set(level)
	return nil
}

type pinInput struct {
	pins [ButtonCount]*machinePin
}

func newPinInput(backlight, coarser, finer *machinePin) *pinInput {
	in := &pinInput{pins: [ButtonCount]*machinePin{backlight, coarser, finer}}
	for _, p := range in.pins {
		_ = p.Configure(GPIOModeInput, GPIOPullUp)
	}
	return in
}

func (in *pinInput) Button(b Button) GPIOPin {
	if int(b) >= len(in.pins) {
		return nil
	}
	return in.pins[b]
}

type uartSerial struct {
	uart *machine.UART
}

func (s *uartSerial) Read(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	return s.uart.Read(p)
}

func (s *uartSerial) Write(p []byte) (int, error) {
	if s.uart == nil {
		return 0, ErrNotImplemented
	}
	return s.uart.Write(p)
}

// ResetInputBuffer drops buffered receive bytes.
func (s *uartSerial) ResetInputBuffer() error {
	if s.uart == nil {
		return ErrNotImplemented
	}
	for s.uart.Buffered() > 0 {
		if _, err := s.uart.ReadByte(); err != nil {
			return err
		}
	}
	return nil
}
