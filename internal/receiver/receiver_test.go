package receiver

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kut-tktlab/serial-led-pi/internal/animation"
	"github.com/kut-tktlab/serial-led-pi/internal/driver"
	"github.com/kut-tktlab/serial-led-pi/internal/driver/fake"
)

func TestDecode(t *testing.T) {
	px, err := Decode("#ff0000#00FF00#0000ff\n", 10)
	require.NoError(t, err)
	assert.Equal(t, []driver.Pixel{0xFF0000, 0x00FF00, 0x0000FF}, px)

	px, err = Decode("#010203#040506", 1)
	require.NoError(t, err)
	assert.Equal(t, []driver.Pixel{0x010203}, px)

	px, err = Decode("", 10)
	require.NoError(t, err)
	assert.Empty(t, px)

	for _, bad := range []string{
		"#ff000",
		"ff0000#",
		"#ff0000#00ff0g",
		"#ff0000!00ff00",
	} {
		_, err := Decode(bad, 10)
		assert.ErrorIs(t, err, ErrFormat, bad)
	}

	_, err = Decode("#ff0000#zz0000", 1)
	assert.ErrorIs(t, err, ErrFormat, "groups past the strip are still checked")
}

func TestServeShowsLinesUntilEOF(t *testing.T) {
	d := fake.New()
	long := strings.Repeat("#101010", 12)
	src := strings.NewReader("#ff0000#00ff00#0000ff\nnot a frame\n" + long + "\n")

	r := New(d, 18, 10)
	require.NoError(t, r.Serve(context.Background(), src))

	assert.Equal(t, 2, r.Frames())
	counts := d.Counts()
	assert.Equal(t, 2, counts[fake.OpTransmit])
	assert.Equal(t, 13, counts[fake.OpSetRGB])
	assert.Equal(t, []int{18, 10}, d.Calls[0].Args)
	ops := d.Ops()
	assert.Equal(t, []fake.Op{fake.OpClearAll, fake.OpCleanup}, ops[len(ops)-2:])
	assert.False(t, d.Lit())
}

func TestServeCancel(t *testing.T) {
	d := fake.New()
	shown := make(chan int, 1)
	d.OnTransmit = func(n int) { shown <- n }
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	r := New(d, 18, 3)
	go func() { done <- r.Serve(ctx, pr) }()

	_, err := pw.Write([]byte("#ffffff#ffffff#ffffff\n"))
	require.NoError(t, err)
	select {
	case n := <-shown:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("frame never shown")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	ops := d.Ops()
	assert.Equal(t, []fake.Op{fake.OpClearAll, fake.OpCleanup}, ops[len(ops)-2:])
}

func TestServeSetupFailure(t *testing.T) {
	d := fake.New()
	d.SetupErr = errors.New("no strip")
	err := New(d, 18, 10).Serve(context.Background(), strings.NewReader(""))

	var se *animation.SetupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []fake.Op{fake.OpSetup}, d.Ops())

	err = New(fake.New(), 18, 0).Serve(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, animation.ErrPrecondition)
}

func TestServeTransmitFailure(t *testing.T) {
	d := fake.New()
	d.TransmitErr = errors.New("bus")
	err := New(d, 18, 2).Serve(context.Background(), strings.NewReader("#000001\n#000002\n"))
	assert.ErrorIs(t, err, d.TransmitErr)
	ops := d.Ops()
	assert.Equal(t, []fake.Op{fake.OpClearAll, fake.OpCleanup}, ops[len(ops)-2:])
}

func TestOpenFIFOCreatesPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bky-led-fifo")
	d := fake.New()
	done := make(chan error, 1)
	go func() {
		f, err := OpenFIFO(path)
		if err != nil {
			done <- err
			return
		}
		defer f.Close()
		done <- New(d, 18, 2).Serve(context.Background(), f)
	}()

	// the reader creates the pipe; wait for it before opening the write end
	require.Eventually(t, func() bool {
		fi, err := os.Stat(path)
		return err == nil && fi.Mode()&os.ModeNamedPipe != 0
	}, 2*time.Second, 5*time.Millisecond)

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = w.WriteString("#ff0000#0000ff\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not see EOF")
	}
	assert.Equal(t, 1, d.Counts()[fake.OpTransmit])
}
