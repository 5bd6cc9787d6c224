// Package tone turns an audio frequency into PWM range/duty register values
// and plays square-wave pulses on a PWM channel.
package tone

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// DefaultClockHz is the PWM clock the strip driver configures (PLLD / 25).
const DefaultClockHz = 20 * 1000 * 1000

// ErrInvalid marks a tone spec that can never produce a tone.
var ErrInvalid = errors.New("invalid tone")

// Spec describes one tone pulse.
type Spec struct {
	FrequencyHz uint32        `yaml:"frequency_hz"`
	Duration    time.Duration `yaml:"duration"`
	ClockHz     uint32        `yaml:"clock_hz,omitempty"`
}

// Validate rejects specs whose register value would be zero.
func (s Spec) Validate() error {
	switch {
	case s.ClockHz == 0:
		return errors.Wrap(ErrInvalid, "pwm clock is zero")
	case s.FrequencyHz == 0:
		return errors.Wrap(ErrInvalid, "frequency is zero")
	case s.FrequencyHz > s.ClockHz:
		return errors.Wrapf(ErrInvalid, "frequency %d Hz above pwm clock %d Hz", s.FrequencyHz, s.ClockHz)
	case s.Duration < 0:
		return errors.Wrapf(ErrInvalid, "negative duration %s", s.Duration)
	}
	return nil
}

// Registers returns the PWM period in clock ticks and the 50% duty for it.
// Both truncate. A zero frequency or one above the clock gives (0, 0).
func Registers(clockHz, freqHz uint32) (cycle, duty uint32) {
	if freqHz == 0 || freqHz > clockHz {
		return 0, 0
	}
	cycle = clockHz / freqHz
	return cycle, cycle / 2
}

// Tone plays pulses on one PWM pin.
type Tone struct {
	PWM   driver.PWM
	Pin   int
	Clock clock.Clock
}

// New returns a Tone on pin using the wall clock.
func New(p driver.PWM, pin int) *Tone {
	return &Tone{PWM: p, Pin: pin, Clock: clock.New()}
}

// Configure switches the pin to PWM output in mark:space mode.
func (t *Tone) Configure() error {
	if err := t.PWM.ConfigurePwmOutput(t.Pin); err != nil {
		return errors.Wrapf(err, "pwm output on gpio %d", t.Pin)
	}
	if err := t.PWM.SetPwmMode(t.Pin, driver.MarkSpace); err != nil {
		return errors.Wrapf(err, "pwm mode on gpio %d", t.Pin)
	}
	return nil
}

// Play sounds one pulse and blocks for its duration, then sets the duty to
// zero. The range register keeps its value. A degenerate spec stays silent
// for the same duration.
func (t *Tone) Play(s Spec) error {
	cycle, duty := Registers(s.ClockHz, s.FrequencyHz)
	if cycle == 0 {
		log.Debug().Uint32("freq_hz", s.FrequencyHz).Msg("degenerate tone; holding silence")
		if err := t.PWM.SetPwmDuty(t.Pin, 0); err != nil {
			return errors.Wrap(err, "silence pwm")
		}
		t.Clock.Sleep(s.Duration)
		return nil
	}

	if err := t.PWM.SetPwmRange(t.Pin, cycle); err != nil {
		return errors.Wrapf(err, "pwm range %d", cycle)
	}
	if err := t.PWM.SetPwmDuty(t.Pin, duty); err != nil {
		return errors.Wrapf(err, "pwm duty %d", duty)
	}
	log.Debug().Int("pin", t.Pin).Uint32("cycle", cycle).Uint32("duty", duty).Dur("hold", s.Duration).Msg("tone on")

	t.Clock.Sleep(s.Duration)

	if err := t.PWM.SetPwmDuty(t.Pin, 0); err != nil {
		return errors.Wrap(err, "silence pwm")
	}
	return nil
}
