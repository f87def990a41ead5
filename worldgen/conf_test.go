package worldgen

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/andreypfau/mcrs/worldgen/terrain"
)

func TestReadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	c, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !c.Generation.LazyRangeChoice {
		t.Fatalf("lazy range choice must default to on")
	}
	if c.Generation.SurfaceSkip {
		t.Fatalf("surface skip must default to off")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file was not created: %v", err)
	}

	// In-memory changes do not touch the file; a reread returns what is
	// on disk.
	c.World.Seed = 42
	c.Generation.SurfaceSkip = true
	again, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if again.World.Seed != 0 || again.Generation.SurfaceSkip {
		t.Fatalf("file content must win over in-memory changes")
	}
}

func TestNewGeneratesTerrain(t *testing.T) {
	gen, err := New(Config{
		Log:             slog.New(slog.DiscardHandler),
		Seed:            0,
		LazyRangeChoice: true,
		StoneID:         7,
		AirID:           2,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c := terrain.NewChunk()
	gen.NewWorker().GenerateChunk(cube.ChunkPos{0, 0}, c)
	if c.Count(7) == 0 || c.Count(2) == 0 {
		t.Fatalf("generated chunk must contain the configured stone and air IDs")
	}
}
