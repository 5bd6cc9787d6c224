package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kut-tktlab/serial-led-pi/internal/config"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/periph"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/rpio"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/sim"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/sysfs"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/ws281x"
)

func TestStripSelection(t *testing.T) {
	s, err := Strip(config.Strip{Driver: "sim"})
	require.NoError(t, err)
	assert.IsType(t, &sim.Strip{}, s)

	s, err = Strip(config.Strip{Driver: "periph", SPIPort: "/dev/spidev0.0"})
	require.NoError(t, err)
	require.IsType(t, &periph.Strip{}, s)
	assert.Equal(t, "/dev/spidev0.0", s.(*periph.Strip).Port)

	_, err = Strip(config.Strip{Driver: "ws281x"})
	assert.Equal(t, !ws281x.Linked, err != nil)

	_, err = Strip(config.Strip{Driver: "dotstar"})
	assert.Error(t, err)
}

func TestPWMSelection(t *testing.T) {
	p, err := PWM(config.Speaker{Driver: "rpio", ClockHz: rpio.MaxClockHz})
	require.NoError(t, err)
	assert.IsType(t, &rpio.PWM{}, p)

	p, err = PWM(config.Speaker{Driver: "sysfs", GPIO: 13, PWMChip: 2, Channel: 1, ClockHz: 1000000})
	require.NoError(t, err)
	require.IsType(t, &sysfs.PWM{}, p)
	sp := p.(*sysfs.PWM)
	assert.Equal(t, "/sys/class/pwm/pwmchip2", sp.Dir)
	assert.Equal(t, map[int]int{13: 1}, sp.Channels)

	p, err = PWM(config.Speaker{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, &sim.PWM{}, p)

	_, err = PWM(config.Speaker{Driver: "buzzer"})
	assert.Error(t, err)
}

func TestOpenDefault(t *testing.T) {
	d, err := Open(config.Default())
	require.NoError(t, err)
	assert.NotNil(t, d)
}
