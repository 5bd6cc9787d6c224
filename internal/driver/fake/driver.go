// Package fake provides a recording Driver for headless tests.
package fake

import (
	"fmt"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// Op names one driver call.
type Op string

const (
	OpSetup     Op = "setup"
	OpSetRGB    Op = "rgb"
	OpSetHSB    Op = "hsb"
	OpTransmit  Op = "transmit"
	OpClearAll  Op = "clear"
	OpCleanup   Op = "cleanup"
	OpPwmOutput Op = "pwm-output"
	OpPwmMode   Op = "pwm-mode"
	OpPwmRange  Op = "pwm-range"
	OpPwmDuty   Op = "pwm-duty"
)

// Call is one recorded driver call. Args holds the integer arguments in call
// order.
type Call struct {
	Op   Op
	Args []int
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Op, c.Args) }

// Driver records every call and emulates the staged buffer, the transmitted
// frame and the PWM registers.
type Driver struct {
	driver.Buffer

	Calls []Call
	// Shown is the last frame pushed to the strip.
	Shown []driver.Pixel
	Count int

	Range map[int]uint32
	Duty  map[int]uint32
	Mode  map[int]driver.Mode

	SetupErr    error
	PwmErr      error
	TransmitErr error
	// FailAfter makes Transmit return TransmitErr once Count reaches it. Zero
	// means fail on every call when TransmitErr is set.
	FailAfter int
	// OnTransmit runs after a successful transmit with the frame count.
	OnTransmit func(count int)

	ready   bool
	cleaned bool
}

// New returns an empty recording driver.
func New() *Driver {
	return &Driver{
		Range: map[int]uint32{},
		Duty:  map[int]uint32{},
		Mode:  map[int]driver.Mode{},
	}
}

func (d *Driver) record(op Op, args ...int) {
	d.Calls = append(d.Calls, Call{Op: op, Args: args})
}

func (d *Driver) Setup(gpioPin, ledCount int) error {
	d.record(OpSetup, gpioPin, ledCount)
	if d.SetupErr != nil {
		return d.SetupErr
	}
	if err := d.Reset(ledCount); err != nil {
		return err
	}
	d.Shown = make([]driver.Pixel, ledCount)
	d.ready = true
	return nil
}

func (d *Driver) SetColorRGB(led, r, g, b int) {
	d.record(OpSetRGB, led, r, g, b)
	d.Buffer.SetColorRGB(led, r, g, b)
}

func (d *Driver) SetColorHSB(led, h, s, b int) {
	d.record(OpSetHSB, led, h, s, b)
	d.Buffer.SetColorHSB(led, h, s, b)
}

func (d *Driver) Transmit() error {
	d.record(OpTransmit)
	if err := d.usable(); err != nil {
		return err
	}
	if d.TransmitErr != nil && d.Count >= d.FailAfter {
		return d.TransmitErr
	}
	d.Shown = d.Pixels()
	d.Count++
	if d.OnTransmit != nil {
		d.OnTransmit(d.Count)
	}
	return nil
}

func (d *Driver) ClearAll() error {
	d.record(OpClearAll)
	if err := d.usable(); err != nil {
		return err
	}
	d.Clear()
	d.Shown = d.Pixels()
	return nil
}

func (d *Driver) Cleanup() error {
	d.record(OpCleanup)
	if err := d.usable(); err != nil {
		return err
	}
	d.cleaned = true
	return nil
}

func (d *Driver) ConfigurePwmOutput(pin int) error {
	d.record(OpPwmOutput, pin)
	return d.PwmErr
}

func (d *Driver) SetPwmMode(pin int, mode driver.Mode) error {
	d.record(OpPwmMode, pin, int(mode))
	d.Mode[pin] = mode
	return d.PwmErr
}

func (d *Driver) SetPwmRange(pin int, cycle uint32) error {
	d.record(OpPwmRange, pin, int(cycle))
	d.Range[pin] = cycle
	return d.PwmErr
}

func (d *Driver) SetPwmDuty(pin int, duty uint32) error {
	d.record(OpPwmDuty, pin, int(duty))
	d.Duty[pin] = duty
	return d.PwmErr
}

func (d *Driver) usable() error {
	if !d.ready {
		return fmt.Errorf("fake driver: not set up")
	}
	if d.cleaned {
		return fmt.Errorf("fake driver: used after cleanup")
	}
	return nil
}

// Ops returns the recorded operation names in order.
func (d *Driver) Ops() []Op {
	out := make([]Op, len(d.Calls))
	for i, c := range d.Calls {
		out[i] = c.Op
	}
	return out
}

// Counts tallies the recorded calls per operation.
func (d *Driver) Counts() map[Op]int {
	m := map[Op]int{}
	for _, c := range d.Calls {
		m[c.Op]++
	}
	return m
}

// Lit reports whether any LED of the last shown frame is on.
func (d *Driver) Lit() bool {
	for _, p := range d.Shown {
		if p != 0 {
			return true
		}
	}
	return false
}

var _ driver.Driver = (*Driver)(nil)
