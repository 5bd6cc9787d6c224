//go:build !ws281x

package ws281x

import "github.com/pkg/errors"

// Linked reports whether the rpi_ws281x library is compiled in.
const Linked = false

func newEngine(int, int, int) (Engine, error) {
	return nil, errors.New("built without the ws281x tag")
}
