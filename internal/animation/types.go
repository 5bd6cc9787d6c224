package animation

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
	"github.com/kut-tktlab/serial-led-pi/internal/frame"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

// State enumerates sequencer states. Stopped is terminal.
type State string

const (
	Idle    State = "idle"
	Running State = "running"
	Stopped State = "stopped"
)

var (
	// ErrPrecondition marks a configuration the run cannot start with.
	ErrPrecondition = errors.New("precondition violation")
	// ErrNotIdle is returned by Run on a sequencer that already ran.
	ErrNotIdle = errors.New("sequencer is not idle")
)

// SetupError reports a driver that rejected its pin or LED count, or a tone
// channel that could not be configured.
type SetupError struct {
	Pin  int
	LEDs int
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("driver setup (gpio %d, %d leds): %v", e.Pin, e.LEDs, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Config is one animation run. It is not modified after New.
type Config struct {
	LEDs      int
	StripPin  int
	Generator frame.Generator

	// Frames > 0 runs exactly that many frames; otherwise frames run while
	// the elapsed time is below Duration.
	Frames   int
	Duration time.Duration
	FPS      int

	// Tone, when set, sounds on SpeakerPin once per frame.
	Tone       *tone.Spec
	SpeakerPin int
}

// Period is the nominal frame period.
func (c Config) Period() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// Validate checks everything that can be checked before touching hardware.
func (c Config) Validate() error {
	switch {
	case c.LEDs <= 0:
		return errors.Wrapf(ErrPrecondition, "led count %d must be positive", c.LEDs)
	case c.LEDs > driver.MaxLEDs:
		return errors.Wrapf(ErrPrecondition, "led count %d above %d", c.LEDs, driver.MaxLEDs)
	case c.Generator == nil:
		return errors.Wrap(ErrPrecondition, "no frame generator")
	case c.FPS <= 0:
		return errors.Wrapf(ErrPrecondition, "fps %d must be positive", c.FPS)
	case c.Frames < 0:
		return errors.Wrapf(ErrPrecondition, "frame count %d is negative", c.Frames)
	case c.Frames == 0 && c.Duration <= 0:
		return errors.Wrap(ErrPrecondition, "neither a frame count nor a duration")
	}
	if c.Tone != nil {
		if err := c.Tone.Validate(); err != nil {
			return errors.Wrap(ErrPrecondition, err.Error())
		}
		if c.SpeakerPin == c.StripPin {
			return errors.Wrapf(ErrPrecondition, "speaker and strip share gpio %d", c.StripPin)
		}
	}
	return nil
}

// Hooks are optional callbacks run on the control goroutine.
type Hooks struct {
	// FrameDone runs after frame i was transmitted and its tone played,
	// before the cadence sleep.
	FrameDone func(i int, elapsed time.Duration)
}
