package driver_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/kut-tktlab/serial-led-pi/internal/driver"
)

var TestRGBIsExpectedPixel = []struct {
	R, G, B int
	Expect  Pixel
}{
	{0x11, 0x22, 0x33, 0x112233},
	{0xFF, 0x00, 0x00, 0xFF0000},
	{0x00, 0xFF, 0x00, 0x00FF00},
	{0x00, 0x00, 0xFF, 0x0000FF},
	{-5, 300, 7, 0x00FF07},
}

var TestHSBIsExpectedRGB = []struct {
	H, S, V int
	R, G, B int
}{
	{0, 255, 128, 128, 0, 0},
	{30, 255, 128, 128, 64, 0},
	{120, 255, 128, 0, 128, 0},
	{240, 255, 128, 0, 0, 128},
	{0, 0, 200, 200, 200, 200},
	{400, 255, 255, 255, 0, 4},
	{-20, 255, 255, 255, 0, 0},
	{0, 255, 999, 255, 0, 0},
}

func TestPixelsRGB(t *testing.T) {
	for k, v := range TestRGBIsExpectedPixel {
		t.Run("Given RGB"+strconv.Itoa(k), func(t *testing.T) {
			p := NewPixel(v.R, v.G, v.B)
			assert.Equal(t, v.Expect, p, "should be same val")
			r, g, b := p.RGB()
			assert.Equal(t, uint8(v.Expect>>16), r)
			assert.Equal(t, uint8(v.Expect>>8), g)
			assert.Equal(t, uint8(v.Expect), b)
		})
	}
}

func TestHSBToRGB(t *testing.T) {
	for k, v := range TestHSBIsExpectedRGB {
		t.Run("Given HSB"+strconv.Itoa(k), func(t *testing.T) {
			r, g, b := HSBToRGB(v.H, v.S, v.V)
			assert.Equal(t, []int{v.R, v.G, v.B}, []int{r, g, b})
		})
	}
}

func TestBufferStaging(t *testing.T) {
	var b Buffer
	require.NoError(t, b.Reset(3))
	assert.Equal(t, 3, b.Len())

	b.SetColorRGB(0, 255, 0, 0)
	b.SetColorHSB(1, 120, 255, 128)
	b.SetColorRGB(3, 1, 2, 3)
	b.SetColorRGB(-1, 1, 2, 3)

	assert.Equal(t, Pixel(0xFF0000), b.At(0))
	assert.Equal(t, Pixel(0x008000), b.At(1))
	assert.Equal(t, Pixel(0), b.At(2))
	assert.Equal(t, []byte{255, 0, 0, 0, 128, 0, 0, 0, 0}, b.Bytes())

	b.Clear()
	assert.Equal(t, []Pixel{0, 0, 0}, b.Pixels())
}

func TestBufferResetBounds(t *testing.T) {
	var b Buffer
	assert.Error(t, b.Reset(-1))
	assert.Error(t, b.Reset(MaxLEDs+1))
	assert.NoError(t, b.Reset(MaxLEDs))
	assert.NoError(t, b.Reset(0))
}

type nopStrip struct {
	Buffer
	cleaned int
}

func (s *nopStrip) Setup(_, n int) error { return s.Reset(n) }
func (s *nopStrip) Transmit() error      { return nil }
func (s *nopStrip) ClearAll() error      { s.Clear(); return nil }
func (s *nopStrip) Cleanup() error       { s.cleaned++; return nil }

type closingPWM struct {
	closed int
	err    error
}

func (p *closingPWM) ConfigurePwmOutput(int) error  { return nil }
func (p *closingPWM) SetPwmMode(int, Mode) error    { return nil }
func (p *closingPWM) SetPwmRange(int, uint32) error { return nil }
func (p *closingPWM) SetPwmDuty(int, uint32) error  { return nil }
func (p *closingPWM) Close() error                  { p.closed++; return p.err }

func TestCombineClosesPWM(t *testing.T) {
	s := &nopStrip{}
	p := &closingPWM{err: errors.New("boom")}
	d := Combine(s, p)

	require.NoError(t, d.Setup(18, 2))
	err := d.Cleanup()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, s.cleaned)
	assert.Equal(t, 1, p.closed)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "mark-space", MarkSpace.String())
	assert.Equal(t, "balanced", Balanced.String())
}
