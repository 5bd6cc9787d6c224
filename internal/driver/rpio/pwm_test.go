package rpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

type write struct {
	duty, cycle uint32
	mode        bool
}

type pin struct {
	mode   rpio.Mode
	freq   int
	writes []write
}

func (p *pin) Mode(m rpio.Mode) { p.mode = m }
func (p *pin) Freq(f int)       { p.freq = f }
func (p *pin) DutyCycleWithPwmMode(duty, cycle uint32, mode bool) {
	p.writes = append(p.writes, write{duty, cycle, mode})
}

func testPWM(clockHz uint32) (*PWM, map[int]*pin, *int) {
	pins := map[int]*pin{}
	unmapped := 0
	p := &PWM{
		ClockHz: clockHz,
		Open:    func() error { return nil },
		Unmap:   func() error { unmapped++; return nil },
		Pin: func(n int) Pin {
			pins[n] = &pin{}
			return pins[n]
		},
	}
	return p, pins, &unmapped
}

func TestToneRegisters(t *testing.T) {
	p, pins, unmapped := testPWM(MaxClockHz)
	require.NoError(t, p.ConfigurePwmOutput(19))
	require.NoError(t, p.SetPwmMode(19, driver.MarkSpace))
	assert.Equal(t, rpio.Pwm, pins[19].mode)
	assert.Equal(t, MaxClockHz, pins[19].freq)

	cycle, duty := tone.Registers(MaxClockHz, 440)
	require.NoError(t, p.SetPwmRange(19, cycle))
	assert.Empty(t, pins[19].writes, "range alone is cached")
	require.NoError(t, p.SetPwmDuty(19, duty))
	require.NoError(t, p.SetPwmDuty(19, 0))
	assert.Equal(t, []write{
		{duty, cycle, rpio.MarkSpace},
		{0, cycle, rpio.MarkSpace},
	}, pins[19].writes)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, *unmapped)
	assert.Error(t, p.SetPwmDuty(19, 1))
}

func TestClockClamped(t *testing.T) {
	p, pins, _ := testPWM(tone.DefaultClockHz)
	require.NoError(t, p.ConfigurePwmOutput(18))
	assert.Equal(t, MaxClockHz, pins[18].freq)
}

func TestBalancedMode(t *testing.T) {
	p, pins, _ := testPWM(MaxClockHz)
	require.NoError(t, p.ConfigurePwmOutput(19))
	require.NoError(t, p.SetPwmMode(19, driver.Balanced))
	require.NoError(t, p.SetPwmRange(19, 100))
	require.NoError(t, p.SetPwmDuty(19, 50))
	assert.Equal(t, rpio.Balanced, pins[19].writes[0].mode)
}

func TestOpenFailure(t *testing.T) {
	p, _, _ := testPWM(MaxClockHz)
	p.Open = func() error { return errors.New("/dev/gpiomem: permission denied") }
	assert.Error(t, p.ConfigurePwmOutput(19))
	assert.Error(t, p.SetPwmRange(19, 1))
	assert.NoError(t, p.Close())
}

func TestDutyWithoutRange(t *testing.T) {
	p, pins, _ := testPWM(MaxClockHz)
	require.NoError(t, p.ConfigurePwmOutput(19))
	assert.NoError(t, p.SetPwmDuty(19, 0))
	assert.Error(t, p.SetPwmDuty(19, 10))
	assert.Empty(t, pins[19].writes)
}
