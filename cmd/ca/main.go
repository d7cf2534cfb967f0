//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"vegpattern/internal/app"
	"vegpattern/internal/core"
	"vegpattern/internal/logging"
	_ "vegpattern/internal/sims/rietkerk"
)

type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	logLevel := flag.String("log-level", "info", "log level: info, debug, trace, warn, error")
	flag.Parse()

	factory, ok := core.Lookup(cfg.Sim)
	if !ok {
		log.Fatalf("unknown sim %q (available: %v)", cfg.Sim, core.SimNames())
	}

	sim := factory(cfg.Params)
	if s, ok := sim.(loggerSetter); ok {
		s.SetLogger(logging.NewLogger(*logLevel, os.Stderr))
	}
	sim.Reset(cfg.Seed)

	game := app.New(sim, cfg)
	w, h := game.Layout(0, 0)

	ebiten.SetWindowTitle("vegpattern: " + sim.Name())
	ebiten.SetWindowSize(w, h)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
