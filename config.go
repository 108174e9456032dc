package igc

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/movingc/igc/internal/arena"
)

// Config controls how an Arena is constructed, with the default
// implementation given by NewConfig.
type Config struct {
	chain               arena.Chain
	symbolTableBytes    uint64
	tickIntervalMS      int64
	telemetry           bool
	finalizationEnabled bool
}

// defaultConfig is never mutated; every With* clones it first.
var defaultConfig = &Config{
	chain:               arena.DefaultChain(),
	symbolTableBytes:    4096 * 1024,
	tickIntervalMS:      10,
	finalizationEnabled: true,
}

// NewConfig returns the default Config: the two-generation chain (32000 KB
// nursery at 0.8 mortality, 160045 KB old generation at 0.4 mortality), a
// 4096 KB symbol table, and telemetry disabled.
func NewConfig() *Config {
	return defaultConfig.clone()
}

// clone ensures every field is copied even as Config grows.
func (c *Config) clone() *Config {
	ret := *c
	return &ret
}

// WithGenerations replaces the generation chain. Capacities are given as
// datasize strings (e.g. "32000 KB", "160045 KB") so callers never need to
// hand-compute byte counts.
func (c *Config) WithGenerations(gens ...GenerationSpec) (*Config, error) {
	chain := arena.Chain{}
	for _, g := range gens {
		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(g.Capacity)); err != nil {
			return nil, fmt.Errorf("igc: generation %q: invalid capacity %q: %w", g.Name, g.Capacity, err)
		}
		if g.Mortality < 0 || g.Mortality > 1 {
			return nil, fmt.Errorf("igc: generation %q: mortality %v out of [0,1]", g.Name, g.Mortality)
		}
		chain.Generations = append(chain.Generations, arena.Generation{
			Name:          g.Name,
			CapacityBytes: size.Bytes(),
			Mortality:     g.Mortality,
		})
	}
	if len(chain.Generations) == 0 {
		return nil, fmt.Errorf("igc: at least one generation is required")
	}
	ret := c.clone()
	ret.chain = chain
	return ret, nil
}

// GenerationSpec is one generation of a chain passed to WithGenerations.
type GenerationSpec struct {
	Name      string
	Capacity  string // a datasize string, e.g. "32000 KB"
	Mortality float64
}

// WithSymbolTable sets the non-moving symbol table's capacity.
func (c *Config) WithSymbolTable(capacity string) (*Config, error) {
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(capacity)); err != nil {
		return nil, fmt.Errorf("igc: invalid symbol table capacity %q: %w", capacity, err)
	}
	ret := c.clone()
	ret.symbolTableBytes = size.Bytes()
	return ret, nil
}

// WithTickInterval sets the background collector goroutine's idle-tick
// period, in milliseconds. A non-positive value disables the background
// ticker entirely, so the collector only progresses through explicit
// OnIdle calls; useful for embedders with their own event loop and for
// tests that need deterministic cycle counts.
func (c *Config) WithTickInterval(ms int64) *Config {
	ret := c.clone()
	ret.tickIntervalMS = ms
	return ret
}

// WithTelemetry enables or disables the optional Prometheus instrumentation
// channel named in the hook surface.
func (c *Config) WithTelemetry(on bool) *Config {
	ret := c.clone()
	ret.telemetry = on
	return ret
}

// WithFinalization enables or disables delivery of finalizer callbacks
// queued via RegisterFinalizer. Finalization is enabled by default; this
// is the startup toggle an embedder uses to suppress it entirely instead
// of registering callbacks it never intends to fire.
func (c *Config) WithFinalization(on bool) *Config {
	ret := c.clone()
	ret.finalizationEnabled = on
	return ret
}
