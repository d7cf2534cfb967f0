package app

import (
	"flag"
	"fmt"
	"strings"
)

// Config represents the command-line parameters for the viewer.
type Config struct {
	Sim string
	// Scale is the pixel size of one cell.
	Scale int
	// SPS is the number of simulation steps per second.
	SPS  int
	Seed int64
	// HUDWidth is the parameter panel width; 0 hides it.
	HUDWidth int
	// Params are forwarded to the simulation factory.
	Params map[string]string
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{Sim: "rietkerk", Scale: 4, SPS: 30, Seed: 0, HUDWidth: 240, Params: map[string]string{}}
}

// Bind attaches the configuration to the provided FlagSet. The repeatable
// -set key=value flag fills Params.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.SPS, "sps", c.SPS, "simulation steps per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset (0 = configured seed)")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "parameter panel width in pixels (0 hides it)")
	fs.Func("set", "simulation parameter as key=value (repeatable)", c.setParam)
}

func (c *Config) setParam(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", kv)
	}
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	c.Params[key] = strings.TrimSpace(value)
	return nil
}
