// Package worldgen wires the density engine, the terrain driver and their
// configuration together into a ready-to-use overworld generator.
package worldgen

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/andreypfau/mcrs/worldgen/density"
	"github.com/andreypfau/mcrs/worldgen/terrain"
	"github.com/pelletier/go-toml"
)

// Config contains options for creating a world generator.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set
	// to slog.Default().
	Log *slog.Logger
	// Seed is the world seed. Routers compiled from the same seed produce
	// byte-identical terrain.
	Seed int64
	// LegacyRandom selects the pre-1.18 LCG seeding paths instead of
	// xoroshiro128++.
	LegacyRandom bool
	// LazyRangeChoice enables skipping the losing branch of RangeChoice
	// entries in the hot evaluation path.
	LazyRangeChoice bool
	// SurfaceSkip enables the surface height prediction that skips
	// all-air sections. It is an optimization only; output is identical
	// with it disabled.
	SurfaceSkip bool
	// StoneID and AirID are the block-state runtime IDs written for solid
	// and empty blocks. They are opaque to the generator.
	StoneID, AirID uint32
}

// New compiles the built-in overworld graph with the configuration and
// returns a terrain generator for it.
func New(conf Config) (*terrain.Generator, error) {
	router, err := density.Compile(density.CompileOptions{
		Log:          conf.Log,
		Functions:    terrain.OverworldFunctions(),
		Noises:       terrain.Noises(),
		Roots:        terrain.OverworldRoots(),
		Seed:         conf.Seed,
		LegacyRandom: conf.LegacyRandom,
		DisableLazy:  !conf.LazyRangeChoice,
	})
	if err != nil {
		return nil, fmt.Errorf("worldgen: %w", err)
	}
	return terrain.New(terrain.Config{
		Log:         conf.Log,
		Router:      router,
		StoneID:     conf.StoneID,
		AirID:       conf.AirID,
		SurfaceSkip: conf.SurfaceSkip,
	}), nil
}

// UserConfig is the TOML serialisable form of Config.
type UserConfig struct {
	World struct {
		// Seed is the seed terrain is generated from.
		Seed int64
		// LegacyRandom selects the pre-1.18 generator family.
		LegacyRandom bool
	}
	Generation struct {
		// LazyRangeChoice toggles lazy branch evaluation.
		LazyRangeChoice bool
		// SurfaceSkip toggles the all-air section prediction.
		SurfaceSkip bool
		// Workers is the number of generation goroutines drivers should
		// run. Zero means one per CPU.
		Workers int
	}
}

// DefaultConfig returns a UserConfig with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Generation.LazyRangeChoice = true
	return c
}

// Config converts the user configuration to a Config understood by New.
func (uc UserConfig) Config(log *slog.Logger) Config {
	return Config{
		Log:             log,
		Seed:            uc.World.Seed,
		LegacyRandom:    uc.World.LegacyRandom,
		LazyRangeChoice: uc.Generation.LazyRangeChoice,
		SurfaceSkip:     uc.Generation.SurfaceSkip,
	}
}

// ReadConfig reads a UserConfig from the TOML file at path. If the file does
// not exist yet, it is created holding the default configuration.
func ReadConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data, err = toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
