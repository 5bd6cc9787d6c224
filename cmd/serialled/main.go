package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
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
	"github.com/kut-tktlab/serial-led-pi/internal/frame"
	"github.com/kut-tktlab/serial-led-pi/internal/preview"
	"github.com/kut-tktlab/serial-led-pi/internal/tone"
)

const (
	exitSetup        = 1
	exitPrecondition = 2
)

func main() {
	// ---- Flags (override config.yaml where given) ----
	var (
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		stripDrv    = flag.String("driver", "", "strip driver: "+strings.Join(backend.StripDrivers, " | "))
		speakerDrv  = flag.String("speaker", "", "speaker driver: "+strings.Join(backend.PWMDrivers, " | "))
		gpio        = flag.Int("gpio", 0, "strip data pin (BCM number)")
		speakerGPIO = flag.Int("speaker-gpio", 0, "speaker pin (BCM number)")
		leds        = flag.Int("leds", 0, "number of LEDs (1..100)")
		spiPort     = flag.String("spi", "", "SPI port for the periph driver")
		preset      = flag.String("preset", "", "program: "+strings.Join(animation.PresetNames(), " | "))
		pattern     = flag.String("pattern", "", "pattern: "+strings.Join(frame.Names(), " | "))
		frames      = flag.Int("frames", 0, "number of frames")
		duration    = flag.Duration("duration", 0, "run time when no frame count is given")
		fps         = flag.Int("fps", 0, "frames per second")
		toneHz      = flag.Uint("tone-hz", 0, "beep frequency per frame")
		toneLen     = flag.Duration("tone-len", 100*time.Millisecond, "beep length")
		clockHz     = flag.Uint("clock-hz", 0, "PWM clock the speaker runs at")
		addr        = flag.String("addr", "", "preview HTTP listen address (empty: off)")
		logLevel    = flag.String("log-level", "", "trace | debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		}
		cfg = config.Default()
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "driver":
			cfg.Strip.Driver = *stripDrv
		case "speaker":
			cfg.Speaker.Driver = *speakerDrv
		case "gpio":
			cfg.Strip.GPIO = *gpio
		case "speaker-gpio":
			cfg.Speaker.GPIO = *speakerGPIO
		case "leds":
			cfg.Strip.LEDs = *leds
		case "spi":
			cfg.Strip.SPIPort = *spiPort
		case "preset":
			cfg.Animation.Preset = *preset
		case "pattern":
			cfg.Animation.Pattern = *pattern
		case "frames":
			cfg.Animation.Frames = *frames
		case "duration":
			cfg.Animation.Duration = *duration
		case "fps":
			cfg.Animation.FPS = *fps
		case "tone-hz":
			cfg.Animation.Tone = &tone.Spec{FrequencyHz: uint32(*toneHz), Duration: *toneLen}
		case "clock-hz":
			cfg.Speaker.ClockHz = uint32(*clockHz)
		case "addr":
			cfg.Preview.Addr = *addr
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level")
	} else if lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	run, err := cfg.Run()
	if err != nil {
		log.Error().Err(err).Msg("invalid run")
		os.Exit(exitPrecondition)
	}

	// ---- Driver ----
	drv, err := backend.Open(cfg)
	if err != nil {
		log.Error().Err(err).Msg("driver")
		os.Exit(exitSetup)
	}

	// ---- Preview server ----
	var srv *http.Server
	if cfg.Preview.Addr != "" {
		hub := preview.NewHub(nil)
		hub.Throttle = 50 * time.Millisecond // ~20 FPS to the browser
		defer hub.Close()
		drv = preview.NewTee(drv, hub)

		srv = &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      hub.Mux(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("preview server")
			}
		}()
	}

	seq, err := animation.New(run, drv)
	if err != nil {
		log.Error().Err(err).Msg("invalid run")
		os.Exit(exitPrecondition)
	}

	// ---- Run until done or interrupted ----
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = seq.Run(ctx)
	stop()
	if srv != nil {
		_ = srv.Close()
	}

	var se *animation.SetupError
	switch {
	case err == nil:
		log.Info().Int("frames", seq.Frames()).Msg("done")
	case errors.Is(err, context.Canceled):
		log.Info().Int("frames", seq.Frames()).Msg("interrupted")
	case errors.As(err, &se):
		log.Error().Err(err).Msg("cannot set up the strip")
		os.Exit(exitSetup)
	default:
		log.Error().Err(err).Msg("animation failed")
		os.Exit(exitSetup)
	}
}
