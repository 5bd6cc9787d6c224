//go:build ws281x

package ws281x

import (
	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// Linked reports whether the rpi_ws281x library is compiled in.
const Linked = true

// options returns the library defaults for one strip. The channel slice is
// copied so the package-level defaults stay untouched.
func options(gpioPin, ledCount, brightness int) ws2811.Option {
	opt := ws2811.DefaultOptions
	opt.Channels = append([]ws2811.ChannelOption(nil), ws2811.DefaultOptions.Channels...)
	opt.Channels[0].GpioPin = gpioPin
	opt.Channels[0].LedCount = ledCount
	opt.Channels[0].Brightness = brightness
	return opt
}

func newEngine(gpioPin, ledCount, brightness int) (Engine, error) {
	opt := options(gpioPin, ledCount, brightness)
	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
