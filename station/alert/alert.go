// Package alert classifies readings into alert levels and sounds the buzzer
// on upward level transitions.
package alert

import (
	"fmt"
	"image/color"
	"time"
)

// Level is the alert classification of a reading.
type Level uint8

// Levels in increasing severity.
const (
	Normal Level = iota
	Warning
	Critical
)

// Level breakpoints in ppm.
const (
	WarningPPM  = 700
	CriticalPPM = 1000
)

// Readout colours per level.
var (
	ColorNormal   = color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	ColorWarning  = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	ColorCritical = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
)

// Classify maps ppm to a level.
func Classify(ppm uint32) Level {
	switch {
	case ppm < WarningPPM:
		return Normal
	case ppm < CriticalPPM:
		return Warning
	default:
		return Critical
	}
}

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Color is the readout colour of the level.
func (l Level) Color() color.RGBA {
	switch l {
	case Warning:
		return ColorWarning
	case Critical:
		return ColorCritical
	default:
		return ColorNormal
	}
}

// Pattern is a beep sequence: Count pulses of On, separated by Off.
type Pattern struct {
	Count int
	On    time.Duration
	Off   time.Duration
}

// Alert patterns: a rise to Warning plays DoubleBeep, to Critical TripleBeep.
var (
	Silent     = Pattern{}
	DoubleBeep = Pattern{Count: 2, On: 300 * time.Millisecond, Off: 100 * time.Millisecond}
	TripleBeep = Pattern{Count: 3, On: 300 * time.Millisecond, Off: 100 * time.Millisecond}
)

// Duration is how long playing p blocks.
func (p Pattern) Duration() time.Duration {
	if p.Count <= 0 {
		return 0
	}
	return time.Duration(p.Count)*p.On + time.Duration(p.Count-1)*p.Off
}

// Buzzer gates the tone generator.
type Buzzer interface {
	Enable() error
	Disable() error
}

// Controller plays alert patterns on a Buzzer. Playing blocks the caller.
type Controller struct {
	Buzzer Buzzer
	Sleep  func(time.Duration)
}

// NewController returns a controller that sleeps with time.Sleep.
func NewController(b Buzzer) *Controller {
	return &Controller{Buzzer: b, Sleep: time.Sleep}
}

// Evaluate classifies the newest sample and the one before it and sounds
// the transition between them. It returns the level of sample and the
// pattern played.
func (c *Controller) Evaluate(sample, previous uint32, displayActive bool) (Level, Pattern, error) {
	level := Classify(sample)
	p, err := c.MaybeSound(level, Classify(previous), displayActive)
	return level, p, err
}

// MaybeSound plays DoubleBeep when level newly reaches Warning and
// TripleBeep when it newly reaches Critical. Downward and flat transitions
// are silent, and so is everything while the display is off.
func (c *Controller) MaybeSound(level, previous Level, displayActive bool) (Pattern, error) {
	p := Transition(level, previous)
	if !displayActive || p.Count == 0 {
		return Silent, nil
	}
	return p, c.Play(p)
}

// Transition returns the pattern for a move from previous to level.
func Transition(level, previous Level) Pattern {
	if level <= previous {
		return Silent
	}
	switch level {
	case Warning:
		return DoubleBeep
	case Critical:
		return TripleBeep
	default:
		return Silent
	}
}

// Play sounds p and returns once it has finished. The buzzer is left
// disabled.
func (c *Controller) Play(p Pattern) error {
	if c.Buzzer == nil {
		return nil
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for i := 0; i < p.Count; i++ {
		if i > 0 {
			sleep(p.Off)
		}
		if err := c.Buzzer.Enable(); err != nil {
			return fmt.Errorf("alert: buzzer on: %w", err)
		}
		sleep(p.On)
		if err := c.Buzzer.Disable(); err != nil {
			return fmt.Errorf("alert: buzzer off: %w", err)
		}
	}
	return nil
}
