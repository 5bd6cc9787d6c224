// Package backend builds the driver named in the configuration.
package backend

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kut-tktlab/serial-led-pi/internal/config"
	"github.com/kut-tktlab/serial-led-pi/internal/driver"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/periph"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/rpio"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/sim"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/sysfs"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/ws281x"
)

var (
	StripDrivers = []string{"periph", "sim", "ws281x"}
	PWMDrivers   = []string{"none", "periph", "rpio", "sim", "sysfs"}
)

// Strip returns an unopened strip backend. Hardware is touched in Setup.
func Strip(c config.Strip) (driver.Strip, error) {
	switch c.Driver {
	case "periph", "spi":
		return periph.NewStrip(c.SPIPort), nil
	case "ws281x":
		if !ws281x.Linked {
			return nil, errors.New("ws281x driver requested but the binary was built without -tags ws281x")
		}
		return ws281x.NewStrip(c.Brightness), nil
	case "sim", "":
		return sim.NewStrip(), nil
	}
	return nil, errors.Errorf("unknown strip driver %q (have %v)", c.Driver, StripDrivers)
}

// PWM returns an unopened tone backend.
func PWM(c config.Speaker) (driver.PWM, error) {
	switch c.Driver {
	case "periph":
		return periph.NewPWM(c.ClockHz), nil
	case "rpio":
		return rpio.NewPWM(c.ClockHz), nil
	case "sysfs":
		p := sysfs.NewPWM(sysfs.ChipDir(c.PWMChip), c.ClockHz)
		p.Channels = map[int]int{c.GPIO: c.Channel}
		return p, nil
	case "sim", "none", "":
		return sim.NewPWM(c.ClockHz), nil
	}
	return nil, errors.Errorf("unknown speaker driver %q (have %v)", c.Driver, PWMDrivers)
}

// Open combines the configured strip and speaker backends.
func Open(c *config.Config) (driver.Driver, error) {
	s, err := Strip(c.Strip)
	if err != nil {
		return nil, err
	}
	p, err := PWM(c.Speaker)
	if err != nil {
		return nil, err
	}
	if c.Strip.Driver == "ws281x" && (c.Speaker.Driver == "rpio" || c.Speaker.Driver == "periph") {
		log.Warn().Str("speaker", c.Speaker.Driver).Msg("ws281x reprograms the pwm clock; tones may be off pitch")
	}
	log.Debug().Str("strip", c.Strip.Driver).Str("speaker", c.Speaker.Driver).Msg("backend")
	return driver.Combine(s, p), nil
}
