// Package sim renders the strip on the terminal and logs tones instead of
// sounding them. It needs no hardware.
package sim

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// Strip draws each transmitted frame as one row of ANSI coloured cells.
type Strip struct {
	driver.Buffer

	// NewDrawer builds the output for n LEDs. Defaults to screen.New.
	NewDrawer func(n int) display.Drawer

	out display.Drawer
	img *image.NRGBA
}

func NewStrip() *Strip {
	return &Strip{NewDrawer: func(n int) display.Drawer { return screen.New(n) }}
}

func (s *Strip) Setup(gpioPin, ledCount int) error {
	if err := s.Reset(ledCount); err != nil {
		return err
	}
	nd := s.NewDrawer
	if nd == nil {
		nd = func(n int) display.Drawer { return screen.New(n) }
	}
	s.out = nd(ledCount)
	s.img = image.NewNRGBA(image.Rect(0, 0, ledCount, 1))
	log.Info().Int("gpio", gpioPin).Int("leds", ledCount).Msg("sim strip ready")
	return nil
}

func (s *Strip) Transmit() error {
	if s.out == nil {
		return errors.New("sim strip not set up")
	}
	for i, p := range s.Pixels() {
		r, g, b := p.RGB()
		s.img.SetNRGBA(i, 0, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return s.out.Draw(s.out.Bounds(), s.img, image.Point{})
}

func (s *Strip) ClearAll() error {
	s.Clear()
	return s.Transmit()
}

func (s *Strip) Cleanup() error {
	if s.out == nil {
		return nil
	}
	err := s.out.Halt()
	s.out = nil
	return err
}

// PWM keeps the register values a real channel would hold and logs every
// change that starts or stops a tone.
type PWM struct {
	ClockHz uint32

	Range map[int]uint32
	Duty  map[int]uint32
	Mode  map[int]driver.Mode
}

func NewPWM(clockHz uint32) *PWM {
	return &PWM{
		ClockHz: clockHz,
		Range:   map[int]uint32{},
		Duty:    map[int]uint32{},
		Mode:    map[int]driver.Mode{},
	}
}

func (p *PWM) ConfigurePwmOutput(pin int) error {
	if p.Range == nil {
		*p = *NewPWM(p.ClockHz)
	}
	p.Range[pin] = 0
	p.Duty[pin] = 0
	log.Debug().Int("pin", pin).Msg("sim pwm output")
	return nil
}

func (p *PWM) configured(pin int) error {
	if _, ok := p.Range[pin]; !ok {
		return errors.Errorf("gpio %d is not configured for pwm", pin)
	}
	return nil
}

func (p *PWM) SetPwmMode(pin int, mode driver.Mode) error {
	if err := p.configured(pin); err != nil {
		return err
	}
	p.Mode[pin] = mode
	return nil
}

func (p *PWM) SetPwmRange(pin int, cycle uint32) error {
	if err := p.configured(pin); err != nil {
		return err
	}
	p.Range[pin] = cycle
	return nil
}

func (p *PWM) SetPwmDuty(pin int, duty uint32) error {
	if err := p.configured(pin); err != nil {
		return err
	}
	was := p.Duty[pin]
	p.Duty[pin] = duty
	switch {
	case duty != 0 && p.Range[pin] != 0:
		log.Info().Int("pin", pin).Float64("hz", p.Frequency(pin)).Uint32("cycle", p.Range[pin]).Uint32("duty", duty).Msg("beep")
	case duty == 0 && was != 0:
		log.Debug().Int("pin", pin).Msg("silence")
	}
	return nil
}

// Frequency is the tone a real channel would output on pin, 0 if silent.
func (p *PWM) Frequency(pin int) float64 {
	if p.Duty[pin] == 0 || p.Range[pin] == 0 {
		return 0
	}
	return float64(p.ClockHz) / float64(p.Range[pin])
}

var (
	_ driver.Strip = (*Strip)(nil)
	_ driver.PWM   = (*PWM)(nil)
)
