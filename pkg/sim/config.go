package sim

import (
	"flag"
	"math/rand"
	"time"
)

// Config defines the simulated sensor network.
type Config struct {
	Dst     uint
	Nodes   uint
	Rate    float64
	Corrupt float64
	Noise   float64
	Seed    int64
}

// Defaults
const (
	DefaultNodes = 4
	DefaultRate  = 10
)

var defaultConfig = Config{
	Dst:   1,
	Nodes: DefaultNodes,
	Rate:  DefaultRate,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.Dst, "dst", defaultConfig.Dst, "Destination node address of the frames.")
	flag.UintVar(&defaultConfig.Nodes, "nodes", defaultConfig.Nodes, "Number of simulated sensor nodes, addressed from 2.")
	flag.Float64Var(&defaultConfig.Rate, "rate", defaultConfig.Rate, "Frames per second.")
	flag.Float64Var(&defaultConfig.Corrupt, "corrupt", defaultConfig.Corrupt, "Probability (0-1) a frame is corrupted.")
	flag.Float64Var(&defaultConfig.Noise, "noise", defaultConfig.Noise, "Probability (0-1) of line noise before a frame.")
	flag.Int64Var(&defaultConfig.Seed, "seed", defaultConfig.Seed, "Random seed, 0 seeds from the clock.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Interval returns the time between frames.
func (c *Config) Interval() time.Duration {
	if c.Rate <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / c.Rate)
}

// NewGenerator creates a Generator.
func (c *Config) NewGenerator() *Generator {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := NewGenerator(rand.New(rand.NewSource(seed)), byte(c.Dst), int(c.Nodes))
	g.Corrupt, g.Noise = c.Corrupt, c.Noise
	return g
}
