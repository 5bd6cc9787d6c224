// Package periph drives a WS2812 strip over SPI with periph's nrzled
// encoder, and sounds tones through periph's GPIO PWM.
package periph

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// DefaultFreq is the NRZ bit rate handed to nrzled.
const DefaultFreq = 2500 * physic.KiloHertz

var (
	hostOnce sync.Once
	hostErr  error
)

func initHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	return hostErr
}

// OpenPort opens an SPI port by name after loading the host drivers. An
// empty name is the first port found.
func OpenPort(name string) (spi.PortCloser, error) {
	if err := initHost(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	return spireg.Open(name)
}

// Strip sends the staged frame as NRZ pulses on SPI MOSI. The data line is
// fixed by the SPI port, so the gpio passed to Setup is informational.
type Strip struct {
	driver.Buffer

	Port string
	Freq physic.Frequency
	// Open obtains the port in Setup. Defaults to OpenPort.
	Open func(name string) (spi.PortCloser, error)

	port spi.PortCloser
	dev  *nrzled.Dev
}

// NewStrip returns a strip on the named SPI port.
func NewStrip(port string) *Strip {
	return &Strip{Port: port, Freq: DefaultFreq, Open: OpenPort}
}

func (s *Strip) Setup(gpioPin, ledCount int) error {
	if s.dev != nil {
		return errors.New("spi strip already set up")
	}
	if err := s.Reset(ledCount); err != nil {
		return err
	}
	open := s.Open
	if open == nil {
		open = OpenPort
	}
	p, err := open(s.Port)
	if err != nil {
		return errors.Wrapf(err, "open spi port %q", s.Port)
	}
	freq := s.Freq
	if freq == 0 {
		freq = DefaultFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: ledCount, Channels: 3, Freq: freq})
	if err != nil {
		_ = p.Close()
		return errors.Wrap(err, "nrzled")
	}
	s.port, s.dev = p, d
	log.Info().Str("port", p.String()).Int("gpio", gpioPin).Int("leds", ledCount).Msg("spi strip ready")
	return nil
}

func (s *Strip) Transmit() error {
	if s.dev == nil {
		return errors.New("spi strip not set up")
	}
	_, err := s.dev.Write(s.Bytes())
	return err
}

func (s *Strip) ClearAll() error {
	s.Clear()
	return s.Transmit()
}

// Cleanup halts the encoder and closes the port. The handle is unusable
// afterwards.
func (s *Strip) Cleanup() error {
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	err = multierr.Append(err, s.port.Close())
	s.dev, s.port = nil, nil
	return err
}

var _ driver.Strip = (*Strip)(nil)
