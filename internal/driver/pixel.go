package driver

const (
	redOffset   uint8 = 0x10
	greenOffset uint8 = 0x08
	blueOffset  uint8 = 0x0

	channelMax = 0xFF
)

// Pixel is a packed 0x00RRGGBB colour word.
type Pixel uint32

// NewPixel packs r, g, b, clamping each channel to 0..255.
func NewPixel(r, g, b int) Pixel {
	var p Pixel
	p = p.with(clamp8(r), redOffset)
	p = p.with(clamp8(g), greenOffset)
	p = p.with(clamp8(b), blueOffset)
	return p
}

func (p Pixel) with(n uint8, off uint8) Pixel {
	mask := Pixel(channelMax) << off
	return (p &^ mask) | Pixel(n)<<off
}

func (p Pixel) get(off uint8) uint8 {
	return uint8((p >> off) & channelMax)
}

func (p Pixel) R() uint8 { return p.get(redOffset) }
func (p Pixel) G() uint8 { return p.get(greenOffset) }
func (p Pixel) B() uint8 { return p.get(blueOffset) }

// RGB returns the three channels.
func (p Pixel) RGB() (r, g, b uint8) {
	return p.R(), p.G(), p.B()
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > channelMax {
		return channelMax
	}
	return uint8(v)
}

// HSBToRGB converts hue (degrees), saturation and brightness (0..255) to RGB
// using integer arithmetic. Hue is clamped to 0..359, the other inputs to
// 0..255. Results truncate toward zero.
func HSBToRGB(h, s, v int) (r, g, b int) {
	if h < 0 {
		h = 0
	}
	if h > 359 {
		h = 359
	}
	s = int(clamp8(s))
	v = int(clamp8(v))

	group := (h / 60) % 6
	f := float64(h%60) / 60
	ss := float64(s) / channelMax
	p := int(float64(v) * (1.0 - ss))
	q := int(float64(v) * (1.0 - f*ss))
	t := int(float64(v) * (1.0 - (1.0-f)*ss))

	switch group {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
