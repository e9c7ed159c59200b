//go:build tinygo && baremetal

package hal

import (
	"machine"
)

const buzzerHz = 1000

type pwmDevice interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmBuzzer drives the piezo with a fixed 1 kHz carrier. The gate is the duty
// cycle: half on, zero off.
type pwmBuzzer struct {
	pin machine.Pin
	pwm pwmDevice
	ch  uint8
	top uint32

	started bool
}

func newPWMBuzzer(pin machine.Pin) *pwmBuzzer {
	return &pwmBuzzer{pin: pin, pwm: machine.TCC0}
}

func (b *pwmBuzzer) start() error {
	if err := b.pwm.Configure(machine.PWMConfig{Period: 1e9 / buzzerHz}); err != nil {
		return err
	}
	ch, err := b.pwm.Channel(b.pin)
	if err != nil {
		return err
	}
	b.ch = ch
	b.top = b.pwm.Top()
	b.pwm.Set(b.ch, 0)
	b.started = true
	return nil
}

func (b *pwmBuzzer) Enable() error {
	if b == nil || b.pwm == nil {
		return ErrNotImplemented
	}
	if !b.started {
		if err := b.start(); err != nil {
			return err
		}
	}
	b.pwm.Set(b.ch, b.top/2)
	return nil
}

func (b *pwmBuzzer) Disable() error {
	if b == nil || b.pwm == nil || !b.started {
		return nil
	}
	b.pwm.Set(b.ch, 0)
	return nil
}
