package sysfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

// fakeChip lays out a pwmchip directory, optionally with pwm1 exported.
func fakeChip(t *testing.T, exported bool) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"export", "unexport"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}
	if exported {
		ch := filepath.Join(dir, "pwm1")
		require.NoError(t, os.Mkdir(ch, 0755))
		for _, f := range []string{"period", "duty_cycle", "enable"} {
			require.NoError(t, os.WriteFile(filepath.Join(ch, f), []byte("0"), 0644))
		}
	}
	return dir
}

func read(t *testing.T, parts ...string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(parts...))
	require.NoError(t, err)
	return string(b)
}

func TestToneInNanoseconds(t *testing.T) {
	dir := fakeChip(t, true)
	p := NewPWM(dir, tone.DefaultClockHz)

	require.NoError(t, p.ConfigurePwmOutput(19))
	require.NoError(t, p.SetPwmMode(19, driver.MarkSpace))
	assert.Equal(t, "1", read(t, dir, "pwm1", "enable"))
	assert.Equal(t, "1000000", read(t, dir, "pwm1", "period"))

	cycle, duty := tone.Registers(tone.DefaultClockHz, 440)
	require.NoError(t, p.SetPwmRange(19, cycle))
	require.NoError(t, p.SetPwmDuty(19, duty))
	assert.Equal(t, "2272700", read(t, dir, "pwm1", "period"))
	assert.Equal(t, "1136350", read(t, dir, "pwm1", "duty_cycle"))

	require.NoError(t, p.SetPwmDuty(19, 0))
	assert.Equal(t, "0", read(t, dir, "pwm1", "duty_cycle"))
	assert.Equal(t, "2272700", read(t, dir, "pwm1", "period"), "silencing keeps the period")

	require.NoError(t, p.Close())
	assert.Equal(t, "0", read(t, dir, "pwm1", "enable"))
	assert.Equal(t, "1", read(t, dir, "unexport"))
}

func TestShorterRangeDropsDuty(t *testing.T) {
	dir := fakeChip(t, true)
	p := NewPWM(dir, tone.DefaultClockHz)
	require.NoError(t, p.ConfigurePwmOutput(19))
	require.NoError(t, p.SetPwmRange(19, 45454))
	require.NoError(t, p.SetPwmDuty(19, 22727))

	require.NoError(t, p.SetPwmRange(19, 1000))
	assert.Equal(t, "50000", read(t, dir, "pwm1", "period"))
	assert.Equal(t, "0", read(t, dir, "pwm1", "duty_cycle"))
}

func TestExportWaitsForFiles(t *testing.T) {
	dir := fakeChip(t, false)
	p := NewPWM(dir, tone.DefaultClockHz)
	p.Verify = 5 * time.Millisecond

	err := p.ConfigurePwmOutput(19)
	require.Error(t, err)
	assert.Equal(t, "1", read(t, dir, "export"))
}

func TestRejects(t *testing.T) {
	dir := fakeChip(t, true)
	p := NewPWM(dir, tone.DefaultClockHz)
	assert.Error(t, p.ConfigurePwmOutput(4), "no channel for gpio 4")
	assert.Error(t, p.SetPwmDuty(19, 1), "not configured")

	require.NoError(t, p.ConfigurePwmOutput(19))
	assert.Error(t, p.SetPwmMode(19, driver.Balanced))
	assert.Error(t, p.SetPwmRange(19, 0))
}

func TestZeroClockRejected(t *testing.T) {
	dir := fakeChip(t, true)
	p := NewPWM(dir, 0)
	assert.Error(t, p.ConfigurePwmOutput(19))
	assert.Error(t, p.SetPwmRange(19, 45454))
	assert.Equal(t, "0", read(t, dir, "pwm1", "enable"))
	assert.Zero(t, p.ns(45454))
}
