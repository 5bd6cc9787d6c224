// Package rpio drives the BCM283x PWM peripheral through go-rpio's
// memory-mapped registers. It needs root or /dev/gpiomem access.
package rpio

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// MaxClockHz is the oscillator go-rpio divides the PWM clock from.
const MaxClockHz = 19200000

// Pin is the part of rpio.Pin the backend uses.
type Pin interface {
	Mode(mode rpio.Mode)
	Freq(freq int)
	DutyCycleWithPwmMode(dutyLen, cycleLen uint32, mode bool)
}

// PWM writes range and duty as one register pair; go-rpio has no call
// for either alone, so the range is cached until the duty is written.
type PWM struct {
	ClockHz uint32
	// Open maps the registers and Unmap releases them. They default to
	// rpio.Open and rpio.Close.
	Open  func() error
	Unmap func() error
	// Pin builds a pin handle. Defaults to rpio.Pin.
	Pin func(n int) Pin

	opened bool
	ch     map[int]*channel
}

type channel struct {
	pin   Pin
	mode  bool
	cycle uint32
}

func NewPWM(clockHz uint32) *PWM {
	return &PWM{
		ClockHz: clockHz,
		Open:    rpio.Open,
		Unmap:   rpio.Close,
		Pin:     func(n int) Pin { return rpio.Pin(n) },
	}
}

func (p *PWM) ConfigurePwmOutput(pin int) error {
	if !p.opened {
		open := p.Open
		if open == nil {
			open = rpio.Open
		}
		if err := open(); err != nil {
			return errors.Wrap(err, "rpio open")
		}
		p.opened = true
		p.ch = map[int]*channel{}
	}
	clk := p.ClockHz
	if clk > MaxClockHz {
		log.Warn().Uint32("clock_hz", clk).Uint32("max_hz", MaxClockHz).Msg("pwm clock above oscillator; clamping")
		clk = MaxClockHz
	}
	mk := p.Pin
	if mk == nil {
		mk = func(n int) Pin { return rpio.Pin(n) }
	}
	h := mk(pin)
	h.Mode(rpio.Pwm)
	h.Freq(int(clk))
	p.ch[pin] = &channel{pin: h, mode: rpio.MarkSpace}
	log.Debug().Int("pin", pin).Uint32("clock_hz", clk).Msg("rpio pwm output")
	return nil
}

func (p *PWM) channel(pin int) (*channel, error) {
	c, ok := p.ch[pin]
	if !ok {
		return nil, errors.Errorf("gpio %d is not configured for pwm", pin)
	}
	return c, nil
}

func (p *PWM) SetPwmMode(pin int, mode driver.Mode) error {
	c, err := p.channel(pin)
	if err != nil {
		return err
	}
	c.mode = rpio.MarkSpace
	if mode == driver.Balanced {
		c.mode = rpio.Balanced
	}
	return nil
}

func (p *PWM) SetPwmRange(pin int, cycle uint32) error {
	c, err := p.channel(pin)
	if err != nil {
		return err
	}
	c.cycle = cycle
	return nil
}

func (p *PWM) SetPwmDuty(pin int, duty uint32) error {
	c, err := p.channel(pin)
	if err != nil {
		return err
	}
	if c.cycle == 0 {
		if duty != 0 {
			return errors.Errorf("gpio %d: duty %d with no range", pin, duty)
		}
		return nil
	}
	c.pin.DutyCycleWithPwmMode(duty, c.cycle, c.mode)
	return nil
}

// Close silences every channel and unmaps the registers.
func (p *PWM) Close() error {
	if !p.opened {
		return nil
	}
	for _, c := range p.ch {
		if c.cycle != 0 {
			c.pin.DutyCycleWithPwmMode(0, c.cycle, c.mode)
		}
	}
	p.opened, p.ch = false, nil
	if p.Unmap == nil {
		return rpio.Close()
	}
	return p.Unmap()
}

var _ driver.PWM = (*PWM)(nil)
