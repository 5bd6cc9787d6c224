package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kut-tktlab/serial-led-pi/internal/animation"
	"github.com/kut-tktlab/serial-led-pi/internal/frame"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

type Strip struct {
	Driver     string `yaml:"driver"` // "periph" | "ws281x" | "sim"
	GPIO       int    `yaml:"gpio"`
	LEDs       int    `yaml:"leds"`
	SPIPort    string `yaml:"spi_port,omitempty"` // e.g. /dev/spidev0.0, empty for the first port
	Brightness int    `yaml:"brightness"`         // 0..255, ws281x only
}

type Speaker struct {
	Driver  string `yaml:"driver"` // "periph" | "rpio" | "sysfs" | "sim" | "none"
	GPIO    int    `yaml:"gpio"`
	ClockHz uint32 `yaml:"clock_hz"`
	PWMChip int    `yaml:"pwmchip"` // sysfs only
	Channel int    `yaml:"channel"` // sysfs only
}

type Animation struct {
	Preset   string        `yaml:"preset,omitempty"`
	Pattern  string        `yaml:"pattern,omitempty"` // "rgb" | "rainbow"
	Frames   int           `yaml:"frames,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
	FPS      int           `yaml:"fps,omitempty"`
	Tone     *tone.Spec    `yaml:"tone,omitempty"`
}

type Preview struct {
	Addr string `yaml:"addr,omitempty"` // e.g. :8080, empty disables the preview server
}

type Receiver struct {
	FIFO string `yaml:"fifo"`
}

type Config struct {
	Strip     Strip     `yaml:"strip"`
	Speaker   Speaker   `yaml:"speaker"`
	Animation Animation `yaml:"animation"`
	Preview   Preview   `yaml:"preview,omitempty"`
	Receiver  Receiver  `yaml:"receiver"`
	LogLevel  string    `yaml:"log_level"`
}

// Default is the wiring of the reference board: strip data on GPIO 18,
// speaker on GPIO 19, ten LEDs and a 20 MHz PWM clock.
func Default() *Config {
	return &Config{
		Strip:     Strip{Driver: "sim", GPIO: 18, LEDs: 10, Brightness: 255},
		Speaker:   Speaker{Driver: "sim", GPIO: 19, ClockHz: tone.DefaultClockHz, Channel: 1},
		Animation: Animation{Preset: "sample"},
		Receiver:  Receiver{FIFO: "/tmp/bky-led-fifo"},
		LogLevel:  "info",
	}
}

// Load reads path over the defaults; keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Run builds the animation run this config describes. The preset is applied
// first; pattern, frames, duration, fps and tone override it where set.
func (c *Config) Run() (animation.Config, error) {
	run := animation.Config{
		LEDs:       c.Strip.LEDs,
		StripPin:   c.Strip.GPIO,
		SpeakerPin: c.Speaker.GPIO,
	}
	a := c.Animation

	if a.Preset != "" {
		p, ok := animation.LookupPreset(a.Preset)
		if !ok {
			return run, errors.Wrapf(animation.ErrPrecondition, "unknown preset %q (have %v)", a.Preset, animation.PresetNames())
		}
		run = p.Apply(run)
	}
	if a.Pattern != "" {
		g, ok := frame.Lookup(a.Pattern)
		if !ok {
			return run, errors.Wrapf(animation.ErrPrecondition, "unknown pattern %q (have %v)", a.Pattern, frame.Names())
		}
		run.Generator = g
	}
	switch {
	case a.Frames > 0:
		run.Frames, run.Duration = a.Frames, 0
	case a.Duration > 0:
		run.Frames, run.Duration = 0, a.Duration
	}
	if a.FPS > 0 {
		run.FPS = a.FPS
	}
	if a.Tone != nil {
		t := *a.Tone
		run.Tone = &t
	}
	if c.Speaker.Driver == "none" {
		run.Tone = nil
	}
	// Register values must come from the clock the speaker backend converts
	// them with.
	if run.Tone != nil {
		if c.Speaker.ClockHz == 0 {
			return run, errors.Wrap(animation.ErrPrecondition, "speaker clock_hz must be set to play a tone")
		}
		if a.Tone != nil && a.Tone.ClockHz != 0 && a.Tone.ClockHz != c.Speaker.ClockHz {
			return run, errors.Wrapf(animation.ErrPrecondition, "tone clock_hz %d differs from speaker clock_hz %d", a.Tone.ClockHz, c.Speaker.ClockHz)
		}
		run.Tone.ClockHz = c.Speaker.ClockHz
	}

	if err := run.Validate(); err != nil {
		return run, err
	}
	return run, nil
}
