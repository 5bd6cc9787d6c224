// Package driver describes the strip and PWM capabilities the animation core
// consumes, plus the staging helpers shared by the concrete backends.
package driver

import (
	"io"

	"go.uber.org/multierr"
)

// MaxLEDs is the largest strip a backend accepts in Setup.
const MaxLEDs = 100

// Mode selects the PWM output algorithm.
type Mode int

const (
	Balanced Mode = iota
	MarkSpace
)

func (m Mode) String() string {
	if m == MarkSpace {
		return "mark-space"
	}
	return "balanced"
}

// Stager stages one LED colour. Nothing is visible until the strip transmits.
type Stager interface {
	SetColorRGB(led, r, g, b int)
	SetColorHSB(led, h, s, b int)
}

// Strip is an addressable LED strip. Setup must be the first call and Cleanup
// the last one on a handle.
type Strip interface {
	Stager
	Setup(gpioPin, ledCount int) error
	// Transmit pushes every staged colour to the strip as one frame.
	Transmit() error
	// ClearAll stages and transmits an all-off frame.
	ClearAll() error
	Cleanup() error
}

// PWM drives a hardware PWM channel. SetPwmDuty(pin, 0) silences the channel
// without touching the configured range.
type PWM interface {
	ConfigurePwmOutput(pin int) error
	SetPwmMode(pin int, mode Mode) error
	SetPwmRange(pin int, cycle uint32) error
	SetPwmDuty(pin int, duty uint32) error
}

// Driver is the full capability set used by an animation run.
type Driver interface {
	Strip
	PWM
}

type combined struct {
	Strip
	PWM
}

// Combine joins a strip backend and a PWM backend into one Driver. If the PWM
// backend is an io.Closer it is closed after the strip's Cleanup.
func Combine(s Strip, p PWM) Driver {
	return &combined{Strip: s, PWM: p}
}

func (c *combined) Cleanup() error {
	err := c.Strip.Cleanup()
	if cl, ok := c.PWM.(io.Closer); ok {
		err = multierr.Append(err, cl.Close())
	}
	return err
}
