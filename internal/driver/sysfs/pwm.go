// Package sysfs drives a PWM channel through the kernel's /sys/class/pwm
// interface. Register-style range and duty are converted to nanoseconds.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// ChipDir returns the sysfs directory of a pwmchip.
func ChipDir(chip int) string {
	return fmt.Sprintf("/sys/class/pwm/pwmchip%d", chip)
}

// PiChannels maps the Raspberry Pi PWM-capable gpios to their channel.
var PiChannels = map[int]int{12: 0, 18: 0, 13: 1, 19: 1}

// initialPeriod is written before enabling so the channel never starts with
// a zero period.
const initialPeriod = time.Millisecond

type PWM struct {
	Dir     string
	ClockHz uint32
	// Channels maps a gpio to its channel on the chip.
	Channels map[int]int
	// Verify is how long to wait for exported files to become writable. udev
	// fixes their permissions some time after export when not running as root.
	Verify time.Duration

	ch map[int]*channel
}

type channel struct {
	n      int
	dir    string
	period int64
	duty   int64
}

// NewPWM returns a backend for chip dir with the Pi gpio mapping.
func NewPWM(dir string, clockHz uint32) *PWM {
	return &PWM{Dir: dir, ClockHz: clockHz, Channels: PiChannels, Verify: 2 * time.Second}
}

func (p *PWM) ConfigurePwmOutput(pin int) error {
	if p.ClockHz == 0 {
		return errors.New("sysfs pwm needs a non-zero clock_hz")
	}
	n, ok := p.Channels[pin]
	if !ok {
		return errors.Errorf("gpio %d has no pwm channel on %s", pin, p.Dir)
	}
	if p.ch == nil {
		p.ch = map[int]*channel{}
	}
	c := &channel{n: n, dir: filepath.Join(p.Dir, fmt.Sprintf("pwm%d", n)), period: -1, duty: -1}
	if err := p.export(c); err != nil {
		return errors.Wrapf(err, "export pwm%d", n)
	}
	if err := c.set(initialPeriod.Nanoseconds(), 0); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(c.dir, "enable"), "1"); err != nil {
		return errors.Wrapf(err, "enable pwm%d", n)
	}
	p.ch[pin] = c
	log.Debug().Int("pin", pin).Str("dir", c.dir).Msg("sysfs pwm output")
	return nil
}

func (p *PWM) export(c *channel) error {
	period := filepath.Join(c.dir, "period")
	if unix.Access(period, unix.W_OK|unix.R_OK) == nil {
		return nil
	}
	if err := writeFile(filepath.Join(p.Dir, "export"), strconv.Itoa(c.n)); err != nil {
		return err
	}
	return verifyFile(period, p.Verify)
}

func (p *PWM) channel(pin int) (*channel, error) {
	c, ok := p.ch[pin]
	if !ok {
		return nil, errors.Errorf("gpio %d is not configured for pwm", pin)
	}
	return c, nil
}

// SetPwmMode accepts mark:space only; sysfs has no balanced algorithm.
func (p *PWM) SetPwmMode(pin int, mode driver.Mode) error {
	if _, err := p.channel(pin); err != nil {
		return err
	}
	if mode != driver.MarkSpace {
		return errors.Errorf("sysfs pwm does not support %s mode", mode)
	}
	return nil
}

func (p *PWM) SetPwmRange(pin int, cycle uint32) error {
	c, err := p.channel(pin)
	if err != nil {
		return err
	}
	if cycle == 0 {
		return errors.Errorf("gpio %d: zero range", pin)
	}
	duty := c.duty
	if per := p.ns(cycle); duty > per {
		duty = 0
	}
	return c.set(p.ns(cycle), duty)
}

func (p *PWM) SetPwmDuty(pin int, duty uint32) error {
	c, err := p.channel(pin)
	if err != nil {
		return err
	}
	d := p.ns(duty)
	if d > c.period {
		d = c.period
	}
	return c.set(c.period, d)
}

// ns converts ticks of ClockHz to nanoseconds. A zero clock yields zero.
func (p *PWM) ns(ticks uint32) int64 {
	if p.ClockHz == 0 {
		return 0
	}
	return int64(ticks) * int64(time.Second) / int64(p.ClockHz)
}

// set writes period and duty in an order that never leaves duty above
// period.
func (c *channel) set(period, duty int64) error {
	writeDuty := func() error {
		if duty == c.duty {
			return nil
		}
		return writeFile(filepath.Join(c.dir, "duty_cycle"), strconv.FormatInt(duty, 10))
	}
	writePeriod := func() error {
		if period == c.period {
			return nil
		}
		return writeFile(filepath.Join(c.dir, "period"), strconv.FormatInt(period, 10))
	}
	first, second := writeDuty, writePeriod
	if duty > c.period {
		first, second = writePeriod, writeDuty
	}
	if err := first(); err != nil {
		return errors.Wrapf(err, "pwm%d", c.n)
	}
	if err := second(); err != nil {
		return errors.Wrapf(err, "pwm%d", c.n)
	}
	c.period, c.duty = period, duty
	return nil
}

// Close disables and unexports every configured channel.
func (p *PWM) Close() error {
	var err error
	for _, c := range p.ch {
		err = multierr.Append(err, c.set(c.period, 0))
		err = multierr.Append(err, writeFile(filepath.Join(c.dir, "enable"), "0"))
		err = multierr.Append(err, writeFile(filepath.Join(p.Dir, "unexport"), strconv.Itoa(c.n)))
	}
	p.ch = nil
	return err
}

func writeFile(name, s string) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(s)
	return err
}

func verifyFile(name string, timeout time.Duration) error {
	const step = time.Millisecond
	for waited := time.Duration(0); waited < timeout; waited += step {
		if unix.Access(name, unix.W_OK) == nil {
			return nil
		}
		time.Sleep(step)
	}
	return errors.Errorf("%s: not writable", name)
}

var _ driver.PWM = (*PWM)(nil)
