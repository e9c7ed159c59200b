package hal

import (
	"fmt"
	"sync"
)

// GPIOMode selects whether a pin is an input or output.
type GPIOMode uint8

const (
	GPIOModeInput GPIOMode = iota
	GPIOModeOutput
)

// GPIOPull selects the pull resistor configuration.
type GPIOPull uint8

const (
	GPIOPullNone GPIOPull = iota
	GPIOPullUp
	GPIOPullDown
)

// GPIOCaps declares what operations a pin supports.
type GPIOCaps uint8

const (
	GPIOCapInput GPIOCaps = 1 << iota
	GPIOCapOutput
	GPIOCapPullUp
	GPIOCapPullDown
)

// GPIOPin is a single digital IO pin.
type GPIOPin interface {
	Name() string
	Caps() GPIOCaps
	Configure(mode GPIOMode, pull GPIOPull) error
	Read() (level bool, err error)
	Write(level bool) error
}

// VirtualPin is an in-memory pin. Host input backends and tests drive its
// level with Set.
type VirtualPin struct {
	mu    sync.Mutex
	name  string
	caps  GPIOCaps
	mode  GPIOMode
	pull  GPIOPull
	level bool
	set   bool
}

// NewVirtualPin returns an unconfigured pin.
func NewVirtualPin(name string, caps GPIOCaps) *VirtualPin {
	return &VirtualPin{
		name: name,
		caps: caps,
		mode: GPIOModeInput,
		pull: GPIOPullNone,
	}
}

func (p *VirtualPin) Name() string   { return p.name }
func (p *VirtualPin) Caps() GPIOCaps { return p.caps }

func (p *VirtualPin) Configure(mode GPIOMode, pull GPIOPull) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch mode {
	case GPIOModeInput:
		if p.caps&GPIOCapInput == 0 {
			return fmt.Errorf("gpio: pin %s: input unsupported", p.name)
		}
	case GPIOModeOutput:
		if p.caps&GPIOCapOutput == 0 {
			return fmt.Errorf("gpio: pin %s: output unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid mode", p.name)
	}

	switch pull {
	case GPIOPullNone:
	case GPIOPullUp:
		if p.caps&GPIOCapPullUp == 0 {
			return fmt.Errorf("gpio: pin %s: pull-up unsupported", p.name)
		}
	case GPIOPullDown:
		if p.caps&GPIOCapPullDown == 0 {
			return fmt.Errorf("gpio: pin %s: pull-down unsupported", p.name)
		}
	default:
		return fmt.Errorf("gpio: pin %s: invalid pull", p.name)
	}

	p.mode = mode
	p.pull = pull
	return nil
}

// Read returns the driven level; an undriven input floats to its pull.
func (p *VirtualPin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode == GPIOModeInput && !p.set {
		return p.pull == GPIOPullUp, nil
	}
	return p.level, nil
}

func (p *VirtualPin) Write(level bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != GPIOModeOutput {
		return fmt.Errorf("gpio: pin %s: not in output mode", p.name)
	}
	p.level = level
	p.set = true
	return nil
}

// Set drives the pin from outside, regardless of mode.
func (p *VirtualPin) Set(level bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = level
	p.set = true
}

// Level returns the current level without mode checks.
func (p *VirtualPin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.set {
		return p.pull == GPIOPullUp
	}
	return p.level
}

// buttonPin is an active-low input fed by a host key. A press is held until
// it has been read at least once, so taps shorter than one loop iteration
// are not lost.
type buttonPin struct {
	*VirtualPin

	mu      sync.Mutex
	unread  bool
	release bool
}

func (p *buttonPin) Read() (bool, error) {
	level, err := p.VirtualPin.Read()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unread = false
	if p.release {
		p.release = false
		p.VirtualPin.Set(true)
	}
	return level, err
}

func (p *buttonPin) press(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if down {
		p.VirtualPin.Set(false)
		p.unread = true
		p.release = false
		return
	}
	if p.unread {
		p.release = true
		return
	}
	p.VirtualPin.Set(true)
}

// buttonSet is an Input over virtual pins, one per button.
type buttonSet [ButtonCount]*buttonPin

func newButtonSet() *buttonSet {
	var bs buttonSet
	for i := range bs {
		pin := NewVirtualPin("KEY_"+Button(i).String(), GPIOCapInput|GPIOCapPullUp)
		_ = pin.Configure(GPIOModeInput, GPIOPullUp)
		bs[i] = &buttonPin{VirtualPin: pin}
	}
	return &bs
}

func (bs *buttonSet) Button(b Button) GPIOPin {
	if int(b) >= len(bs) {
		return nil
	}
	return bs[b]
}

func (bs *buttonSet) press(b Button, down bool) {
	if int(b) >= len(bs) {
		return
	}
	bs[b].press(down)
}
