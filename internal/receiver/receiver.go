// Package receiver shows frames that arrive as text lines, one frame per
// line, each LED written as #rrggbb:
//
//	#ff0000#00ff00#0000ff
//
// It is the strip end of a block-programming front end that writes frames
// into a named pipe.
package receiver

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/kut-tktlab/serial-led-pi/internal/animation"
	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// groupLen is the length of one "#rrggbb" group.
const groupLen = 7

var ErrFormat = errors.New("malformed frame line")

// Decode parses one line into at most limit colours. Groups past limit are
// still validated.
func Decode(line string, limit int) ([]driver.Pixel, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line)%groupLen != 0 {
		return nil, errors.Wrapf(ErrFormat, "length %d is not a multiple of %d", len(line), groupLen)
	}
	n := len(line) / groupLen
	out := make([]driver.Pixel, 0, n)
	for i := 0; i < n; i++ {
		g := line[i*groupLen : (i+1)*groupLen]
		if g[0] != '#' {
			return nil, errors.Wrapf(ErrFormat, "group %d: %q does not start with #", i, g)
		}
		b, err := hex.DecodeString(g[1:])
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "group %d: %v", i, err)
		}
		if i < limit {
			out = append(out, driver.NewPixel(int(b[0]), int(b[1]), int(b[2])))
		}
	}
	return out, nil
}

// Receiver owns a strip for the lifetime of Serve.
type Receiver struct {
	Strip driver.Strip
	Pin   int
	LEDs  int

	frames int
}

func New(s driver.Strip, pin, leds int) *Receiver {
	return &Receiver{Strip: s, Pin: pin, LEDs: leds}
}

// Frames is the number of lines shown so far.
func (r *Receiver) Frames() int { return r.frames }

// Serve sets the strip up and shows every valid line read from src until
// EOF or until ctx is done, then clears the strip and cleans up. Malformed
// lines are logged and skipped. A reader blocked in Read is not interrupted
// by ctx; close src to release it.
func (r *Receiver) Serve(ctx context.Context, src io.Reader) (err error) {
	if r.LEDs <= 0 || r.LEDs > driver.MaxLEDs {
		return errors.Wrapf(animation.ErrPrecondition, "led count %d outside 1..%d", r.LEDs, driver.MaxLEDs)
	}
	if err := r.Strip.Setup(r.Pin, r.LEDs); err != nil {
		return &animation.SetupError{Pin: r.Pin, LEDs: r.LEDs, Err: err}
	}
	defer func() {
		err = multierr.Append(err, r.stop())
	}()
	log.Info().Int("pin", r.Pin).Int("leds", r.LEDs).Msg("receiver waiting for frames")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(src)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return errors.Wrap(<-scanErr, "read frames")
			}
			if err := r.show(line); err != nil {
				return err
			}
		}
	}
}

func (r *Receiver) show(line string) error {
	px, err := Decode(line, r.LEDs)
	if err != nil {
		log.Warn().Err(err).Int("len", len(line)).Msg("skipping frame")
		return nil
	}
	for i, p := range px {
		cr, cg, cb := p.RGB()
		r.Strip.SetColorRGB(i, int(cr), int(cg), int(cb))
	}
	if err := r.Strip.Transmit(); err != nil {
		return errors.Wrapf(err, "transmit frame %d", r.frames)
	}
	r.frames++
	log.Debug().Int("frame", r.frames).Int("leds", len(px)).Msg("frame shown")
	return nil
}

func (r *Receiver) stop() error {
	var err error
	if e := r.Strip.ClearAll(); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "clear strip"))
	}
	if e := r.Strip.Cleanup(); e != nil {
		err = multierr.Append(err, errors.Wrap(e, "cleanup driver"))
	}
	log.Info().Int("frames", r.frames).Msg("receiver stopped")
	return err
}

// OpenFIFO opens the named pipe at path for reading, creating it first if
// it does not exist. Opening blocks until a writer appears.
func OpenFIFO(path string) (*os.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := unix.Mkfifo(path, 0666); err != nil {
			return nil, errors.Wrapf(err, "mkfifo %s", path)
		}
		log.Info().Str("path", path).Msg("created fifo")
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return f, nil
}
