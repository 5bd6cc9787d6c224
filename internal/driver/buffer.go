package driver

import "github.com/pkg/errors"

// Buffer holds the staged colour of every LED on a strip. Backends embed it to
// get the staging half of Strip for free.
type Buffer struct {
	px []Pixel
}

// Reset sizes the buffer for n LEDs, all off. It fails when n is outside
// 0..MaxLEDs.
func (b *Buffer) Reset(n int) error {
	if n < 0 || n > MaxLEDs {
		return errors.Errorf("led count %d outside 0..%d", n, MaxLEDs)
	}
	b.px = make([]Pixel, n)
	return nil
}

// Len is the number of LEDs on the strip.
func (b *Buffer) Len() int { return len(b.px) }

// SetColorRGB stages one LED. Out-of-range indices are ignored.
func (b *Buffer) SetColorRGB(led, r, g, bl int) {
	if led < 0 || led >= len(b.px) {
		return
	}
	b.px[led] = NewPixel(r, g, bl)
}

// SetColorHSB stages one LED from hue, saturation and brightness.
func (b *Buffer) SetColorHSB(led, h, s, v int) {
	r, g, bl := HSBToRGB(h, s, v)
	b.SetColorRGB(led, r, g, bl)
}

// Clear stages all LEDs off.
func (b *Buffer) Clear() {
	for i := range b.px {
		b.px[i] = 0
	}
}

// At returns the staged colour of one LED.
func (b *Buffer) At(led int) Pixel {
	if led < 0 || led >= len(b.px) {
		return 0
	}
	return b.px[led]
}

// Pixels returns a copy of the staged frame.
func (b *Buffer) Pixels() []Pixel {
	return append([]Pixel(nil), b.px...)
}

// Bytes renders the staged frame as R,G,B triplets, 3*Len() bytes.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.px)*3)
	for i, p := range b.px {
		out[i*3+0], out[i*3+1], out[i*3+2] = p.RGB()
	}
	return out
}
