package frame

const full = 255

// RGBCycle lights every LED in exactly one primary, chosen by
// (led + frame) mod 3. The three-colour band moves one LED per frame.
type RGBCycle struct{}

func (RGBCycle) Name() string { return "rgb" }
func (RGBCycle) Model() Model { return ModelRGB }

func (RGBCycle) Color(frame, led, _ int) Color {
	switch mod(led+frame, 3) {
	case 0:
		return RGB{R: full}
	case 1:
		return RGB{G: full}
	default:
		return RGB{B: full}
	}
}
