package frame

const (
	RainbowSaturation = 255
	// RainbowBrightness is half scale to limit current draw and glare.
	RainbowBrightness = 128
	// RainbowStep is the hue rotation per frame in degrees; a full turn takes
	// 180 frames.
	RainbowStep = 2
)

// Rainbow spreads n hues around the strip and rotates them by RainbowStep
// degrees per frame. Spacing is 360/n with floor division, so lengths that do
// not divide 360 get slightly uneven spacing.
type Rainbow struct{}

func (Rainbow) Name() string { return "rainbow" }
func (Rainbow) Model() Model { return ModelHSB }

func (Rainbow) Color(frame, led, n int) Color {
	return HSB{H: uint16(Hue(frame, led, n)), S: RainbowSaturation, B: RainbowBrightness}
}

// Hue is (led*(360/n) + frame*RainbowStep) mod 360. A non-positive n spaces
// every LED at hue 0.
func Hue(frame, led, n int) int {
	spacing := 0
	if n > 0 {
		spacing = 360 / n
	}
	return mod(led*spacing+frame*RainbowStep, 360)
}
