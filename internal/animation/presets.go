package animation

import (
	"sort"
	"time"

	"github.com/kut-tktlab/serial-led-pi/internal/frame"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

// Preset is a named program: pattern, budget, cadence and optional tone.
// Pins and LED count come from the hardware config.
type Preset struct {
	Generator frame.Generator
	Frames    int
	Duration  time.Duration
	FPS       int
	Tone      *tone.Spec
}

var presets = map[string]Preset{
	// 25 frames of the moving RGB band, one per second.
	"sample": {Generator: frame.RGBCycle{}, Frames: 25, FPS: 1},
	// sample plus a 100 ms 440 Hz beep at the start of every frame.
	"beep": {
		Generator: frame.RGBCycle{},
		Frames:    25,
		FPS:       1,
		Tone:      &tone.Spec{FrequencyHz: 440, Duration: 100 * time.Millisecond, ClockHz: tone.DefaultClockHz},
	},
	// 20 s of the drifting rainbow at 30 fps.
	"rainbow": {Generator: frame.Rainbow{}, Frames: 20 * 30, FPS: 30},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// PresetNames lists the presets, sorted.
func PresetNames() []string {
	out := make([]string, 0, len(presets))
	for k := range presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Apply copies the preset's program into c, keeping c's pins and LED count.
func (p Preset) Apply(c Config) Config {
	c.Generator = p.Generator
	c.Frames = p.Frames
	c.Duration = p.Duration
	c.FPS = p.FPS
	c.Tone = nil
	if p.Tone != nil {
		t := *p.Tone
		c.Tone = &t
	}
	return c
}
