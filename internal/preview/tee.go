package preview

import "github.com/kut-tktlab/serial-led-pi/internal/driver"

// Tee forwards every call to the wrapped driver and publishes each frame the
// driver transmitted without error. It keeps its own copy of the staged
// colours, so the wrapped driver needs no read-back.
type Tee struct {
	driver.Driver
	Hub *Hub

	mirror driver.Buffer
}

func NewTee(d driver.Driver, h *Hub) *Tee {
	return &Tee{Driver: d, Hub: h}
}

func (t *Tee) Setup(gpioPin, ledCount int) error {
	if err := t.Driver.Setup(gpioPin, ledCount); err != nil {
		return err
	}
	return t.mirror.Reset(ledCount)
}

func (t *Tee) SetColorRGB(led, r, g, b int) {
	t.Driver.SetColorRGB(led, r, g, b)
	t.mirror.SetColorRGB(led, r, g, b)
}

func (t *Tee) SetColorHSB(led, h, s, b int) {
	t.Driver.SetColorHSB(led, h, s, b)
	t.mirror.SetColorHSB(led, h, s, b)
}

func (t *Tee) Transmit() error {
	if err := t.Driver.Transmit(); err != nil {
		return err
	}
	t.Hub.Publish(t.mirror.Pixels())
	return nil
}

func (t *Tee) ClearAll() error {
	if err := t.Driver.ClearAll(); err != nil {
		return err
	}
	t.mirror.Clear()
	t.Hub.Publish(t.mirror.Pixels())
	return nil
}

var _ driver.Driver = (*Tee)(nil)
