// Package frame computes per-LED colours for successive animation frames.
//
// Generators are pure: the colour of an LED depends only on the frame index,
// the LED index and the strip length.
package frame

import (
	"sort"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// Model is the colour representation a generator produces.
type Model string

const (
	ModelRGB Model = "rgb"
	ModelHSB Model = "hsb"
)

// Color is a staged LED value. It is implemented by RGB and HSB only.
type Color interface {
	// Stage issues the non-transmitting driver call for this colour.
	Stage(s driver.Stager, led int)
	model() Model
}

type RGB struct{ R, G, B uint8 }

func (c RGB) Stage(s driver.Stager, led int) {
	s.SetColorRGB(led, int(c.R), int(c.G), int(c.B))
}

func (RGB) model() Model { return ModelRGB }

// HSB is hue in degrees (0..359), saturation and brightness in 0..255.
type HSB struct {
	H    uint16
	S, B uint8
}

func (c HSB) Stage(s driver.Stager, led int) {
	s.SetColorHSB(led, int(c.H), int(c.S), int(c.B))
}

func (HSB) model() Model { return ModelHSB }

// ModelOf reports the representation of c.
func ModelOf(c Color) Model { return c.model() }

// Generator produces the colour of one LED for one frame.
type Generator interface {
	Name() string
	Model() Model
	Color(frame, led, n int) Color
}

var registry = map[string]Generator{}

func register(g Generator) { registry[g.Name()] = g }

func init() {
	register(RGBCycle{})
	register(Rainbow{})
}

// Lookup returns the generator registered under name.
func Lookup(name string) (Generator, bool) {
	g, ok := registry[name]
	return g, ok
}

// Names lists the registered generators, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// mod is a non-negative remainder.
func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
