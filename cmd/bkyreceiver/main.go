package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kut-tktlab/serial-led-pi/internal/animation"
	"github.com/kut-tktlab/serial-led-pi/internal/backend"
	"github.com/kut-tktlab/serial-led-pi/internal/config"
	"github.com/kut-tktlab/serial-led-pi/internal/receiver"
)

// defaultLEDs is the strip length used when there is no config file.
const defaultLEDs = 12

type options struct {
	follow bool
	debug  bool
}

// parse reads args over config.yaml. Flags override the file only where
// given.
func parse(args []string) (*config.Config, options, error) {
	fs := flag.NewFlagSet("bkyreceiver", flag.ContinueOnError)
	var (
		opts       options
		configPath = fs.String("config", "config.yaml", "path to config.yaml")
		stripDrv   = fs.String("driver", "", "strip driver: "+strings.Join(backend.StripDrivers, " | "))
		gpio       = fs.Int("g", 0, "strip data pin (BCM number)")
		leds       = fs.Int("n", defaultLEDs, "number of LEDs")
		fifo       = fs.String("fifo", "", "named pipe to read frames from")
	)
	fs.BoolVar(&opts.follow, "follow", false, "reopen the pipe after each writer closes it")
	fs.BoolVar(&opts.debug, "debug", false, "log every frame")
	if err := fs.Parse(args); err != nil {
		return nil, opts, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		}
		cfg = config.Default()
		cfg.Strip.LEDs = defaultLEDs
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Strip.Driver = *stripDrv
		case "g":
			cfg.Strip.GPIO = *gpio
		case "n":
			cfg.Strip.LEDs = *leds
		case "fifo":
			cfg.Receiver.FIFO = *fifo
		}
	})
	return cfg, opts, nil
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, opts, err := parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if opts.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		err := serve(ctx, cfg)
		var se *animation.SetupError
		switch {
		case errors.As(err, &se):
			log.Error().Err(err).Msg("cannot set up the strip")
			os.Exit(1)
		case errors.Is(err, animation.ErrPrecondition):
			log.Error().Err(err).Msg("invalid configuration")
			os.Exit(2)
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			log.Error().Err(err).Msg("receiver failed")
			os.Exit(1)
		}
		if !opts.follow {
			return
		}
	}
}

// serve shows one writer's worth of frames.
func serve(ctx context.Context, cfg *config.Config) error {
	strip, err := backend.Strip(cfg.Strip)
	if err != nil {
		return &animation.SetupError{Pin: cfg.Strip.GPIO, LEDs: cfg.Strip.LEDs, Err: err}
	}
	log.Info().Str("fifo", cfg.Receiver.FIFO).Int("gpio", cfg.Strip.GPIO).Int("leds", cfg.Strip.LEDs).Msg("starting the blockly receiver")

	// Opening a fifo blocks until a writer connects; an interrupt meanwhile
	// ends the process without having touched the strip.
	opened := make(chan *os.File, 1)
	openErr := make(chan error, 1)
	go func() {
		f, err := receiver.OpenFIFO(cfg.Receiver.FIFO)
		if err != nil {
			openErr <- err
			return
		}
		opened <- f
	}()

	var f *os.File
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-openErr:
		return err
	case f = <-opened:
	}
	defer f.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			f.Close()
		case <-done:
		}
	}()
	return receiver.New(strip, cfg.Strip.GPIO, cfg.Strip.LEDs).Serve(ctx, f)
}
