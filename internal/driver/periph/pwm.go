package periph

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// PWM emulates the BCM range/duty register pair on periph's PinOut.PWM:
// output frequency is ClockHz/range and duty is duty/range of DutyMax.
type PWM struct {
	ClockHz uint32
	// Lookup resolves a BCM gpio number. Defaults to the periph registry.
	Lookup func(pin int) gpio.PinIO

	ch map[int]*channel
}

type channel struct {
	pin   gpio.PinIO
	mode  driver.Mode
	cycle uint32
}

// NewPWM returns a PWM backend whose virtual clock runs at clockHz.
func NewPWM(clockHz uint32) *PWM {
	return &PWM{ClockHz: clockHz, Lookup: lookupPin}
}

func lookupPin(pin int) gpio.PinIO {
	if err := initHost(); err != nil {
		log.Error().Err(err).Msg("periph host init")
		return nil
	}
	return gpioreg.ByName(strconv.Itoa(pin))
}

func (p *PWM) channel(pin int) (*channel, error) {
	c, ok := p.ch[pin]
	if !ok {
		return nil, errors.Errorf("gpio %d is not configured for pwm", pin)
	}
	return c, nil
}

func (p *PWM) ConfigurePwmOutput(pin int) error {
	if p.ClockHz == 0 {
		return errors.New("periph pwm needs a non-zero clock_hz")
	}
	if p.ch == nil {
		p.ch = map[int]*channel{}
	}
	lookup := p.Lookup
	if lookup == nil {
		lookup = lookupPin
	}
	gp := lookup(pin)
	if gp == nil {
		return errors.Errorf("no gpio %d", pin)
	}
	if err := gp.Out(gpio.Low); err != nil {
		return errors.Wrapf(err, "gpio %d output", pin)
	}
	p.ch[pin] = &channel{pin: gp}
	return nil
}

// SetPwmMode records the mode. periph generates mark:space output only.
func (p *PWM) SetPwmMode(pin int, mode driver.Mode) error {
	c, err := p.channel(pin)
	if err != nil {
		return err
	}
	if mode != driver.MarkSpace {
		log.Warn().Int("pin", pin).Stringer("mode", mode).Msg("periph pwm only does mark-space")
	}
	c.mode = mode
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
	if duty == 0 {
		return c.pin.Out(gpio.Low)
	}
	if c.cycle == 0 {
		return errors.Errorf("gpio %d: duty %d with no range", pin, duty)
	}
	if duty > c.cycle {
		duty = c.cycle
	}
	f := physic.Frequency(p.ClockHz) * physic.Hertz / physic.Frequency(c.cycle)
	d := gpio.Duty(uint64(duty) * uint64(gpio.DutyMax) / uint64(c.cycle))
	return c.pin.PWM(d, f)
}

// Close drives every configured pin low.
func (p *PWM) Close() error {
	var err error
	for n, c := range p.ch {
		if e := c.pin.Out(gpio.Low); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "gpio %d", n))
		}
	}
	p.ch = nil
	return err
}

var _ driver.PWM = (*PWM)(nil)
