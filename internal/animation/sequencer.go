// Package animation runs frame-timed LED animations with optional tone pulses.
package animation

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

// Option customises a Sequencer.
type Option func(*Sequencer)

// WithClock replaces the wall clock used for cadence and tone holds.
func WithClock(c clock.Clock) Option {
	return func(s *Sequencer) { s.clk = c }
}

// WithHooks installs callbacks.
func WithHooks(h Hooks) Option {
	return func(s *Sequencer) { s.hooks = h }
}

// Sequencer owns one animation run on one driver handle. It is the only
// caller of the driver and never issues calls concurrently.
type Sequencer struct {
	State State

	cfg   Config
	drv   driver.Driver
	tone  *tone.Tone
	clk   clock.Clock
	hooks Hooks

	frame int
}

// New validates cfg and returns an idle sequencer. The driver is not touched.
func New(cfg Config, drv driver.Driver, opts ...Option) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if drv == nil {
		return nil, errors.Wrap(ErrPrecondition, "no driver")
	}
	s := &Sequencer{
		State: Idle,
		cfg:   cfg,
		drv:   drv,
		clk:   clock.New(),
	}
	for _, o := range opts {
		o(s)
	}
	if cfg.Tone != nil {
		s.tone = &tone.Tone{PWM: drv, Pin: cfg.SpeakerPin, Clock: s.clk}
	}
	return s, nil
}

// Frames is the number of frames transmitted so far.
func (s *Sequencer) Frames() int { return s.frame }

// Run sets the driver up, plays the animation and stops. Cancelling ctx ends
// the run at the next frame boundary; the strip is still cleared and the
// driver cleaned up, and ctx.Err() is returned.
func (s *Sequencer) Run(ctx context.Context) (err error) {
	if s.State != Idle {
		return ErrNotIdle
	}
	cfg := s.cfg

	if err := s.drv.Setup(cfg.StripPin, cfg.LEDs); err != nil {
		s.State = Stopped
		return &SetupError{Pin: cfg.StripPin, LEDs: cfg.LEDs, Err: err}
	}
	defer func() {
		err = multierr.Append(err, s.stop())
	}()

	if s.tone != nil {
		if err := s.tone.Configure(); err != nil {
			return &SetupError{Pin: cfg.SpeakerPin, LEDs: cfg.LEDs, Err: err}
		}
	}

	s.State = Running
	log.Info().
		Int("pin", cfg.StripPin).
		Int("leds", cfg.LEDs).
		Str("pattern", cfg.Generator.Name()).
		Int("fps", cfg.FPS).
		Int("frames", cfg.Frames).
		Dur("duration", cfg.Duration).
		Bool("tone", cfg.Tone != nil).
		Msg("animation running")

	return s.loop(ctx)
}

func (s *Sequencer) loop(ctx context.Context) error {
	cfg := s.cfg
	period := cfg.Period()
	start := s.clk.Now()

	for i := 0; s.more(i, start); i++ {
		if err := ctx.Err(); err != nil {
			log.Info().Int("frame", i).Msg("animation cancelled")
			return err
		}
		t := s.clk.Now()

		for led := 0; led < cfg.LEDs; led++ {
			cfg.Generator.Color(i, led, cfg.LEDs).Stage(s.drv, led)
		}
		if err := s.drv.Transmit(); err != nil {
			return errors.Wrapf(err, "transmit frame %d", i)
		}
		s.frame++

		if s.tone != nil {
			if err := s.tone.Play(*cfg.Tone); err != nil {
				return errors.Wrapf(err, "tone in frame %d", i)
			}
		}

		elapsed := s.clk.Since(t)
		if s.hooks.FrameDone != nil {
			s.hooks.FrameDone(i, elapsed)
		}
		log.Debug().Int("frame", i).Dur("busy", elapsed).Msg("frame sent")

		// A tone-bearing frame takes the same period as a silent one.
		if rest := period - s.clk.Since(t); rest > 0 {
			s.clk.Sleep(rest)
		}
	}
	return nil
}

func (s *Sequencer) more(i int, start time.Time) bool {
	if s.cfg.Frames > 0 {
		return i < s.cfg.Frames
	}
	return s.clk.Since(start) < s.cfg.Duration
}

// stop turns every LED off and releases the driver. Both calls are attempted
// even if the first fails.
func (s *Sequencer) stop() error {
	s.State = Stopped
	var err error
	if e := s.drv.ClearAll(); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "clear strip"))
	}
	if e := s.drv.Cleanup(); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "cleanup driver"))
	}
	log.Info().Int("frames", s.frame).Msg("animation stopped")
	return err
}
