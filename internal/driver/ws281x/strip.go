// Package ws281x drives the strip through the rpi_ws281x C library, which
// generates the bit stream with the PWM and DMA peripherals. Build with the
// ws281x tag to link it; without the tag Setup fails.
package ws281x

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// Engine is the part of the rpi_ws281x device the strip uses.
type Engine interface {
	Init() error
	Render() error
	Wait() error
	Fini()
	Leds(channel int) []uint32
}

// Strip owns PWM channel 0 and the DMA engine for as long as it is set up,
// so a PWM tone backend must not share the same peripheral.
type Strip struct {
	driver.Buffer

	Brightness int
	// NewEngine creates the device. Defaults to the rpi_ws281x binding.
	NewEngine func(gpioPin, ledCount, brightness int) (Engine, error)

	eng Engine
}

func NewStrip(brightness int) *Strip {
	return &Strip{Brightness: brightness, NewEngine: newEngine}
}

func (s *Strip) Setup(gpioPin, ledCount int) error {
	if s.eng != nil {
		return errors.New("ws281x strip already set up")
	}
	if err := s.Reset(ledCount); err != nil {
		return err
	}
	mk := s.NewEngine
	if mk == nil {
		mk = newEngine
	}
	eng, err := mk(gpioPin, ledCount, s.Brightness)
	if err != nil {
		return errors.Wrap(err, "ws281x")
	}
	if err := eng.Init(); err != nil {
		eng.Fini()
		return errors.Wrap(err, "ws281x init")
	}
	s.eng = eng
	log.Info().Int("gpio", gpioPin).Int("leds", ledCount).Int("brightness", s.Brightness).Msg("ws281x strip ready")
	return nil
}

func (s *Strip) Transmit() error {
	if s.eng == nil {
		return errors.New("ws281x strip not set up")
	}
	leds := s.eng.Leds(0)
	for i, p := range s.Pixels() {
		if i >= len(leds) {
			break
		}
		leds[i] = uint32(p)
	}
	if err := s.eng.Render(); err != nil {
		return errors.Wrap(err, "ws281x render")
	}
	return s.eng.Wait()
}

func (s *Strip) ClearAll() error {
	s.Clear()
	return s.Transmit()
}

func (s *Strip) Cleanup() error {
	if s.eng == nil {
		return nil
	}
	s.eng.Fini()
	s.eng = nil
	return nil
}

var _ driver.Strip = (*Strip)(nil)
