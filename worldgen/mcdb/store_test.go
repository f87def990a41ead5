package mcdb

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/andreypfau/mcrs/worldgen/cube"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Config{Log: slog.New(slog.DiscardHandler)}.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestStoreLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)

	blocks := make([]uint32, 16*16*384)
	for i := range blocks {
		blocks[i] = uint32(i * 2654435761)
	}
	pos := cube.ChunkPos{3, -7}
	if err := db.StoreChunk(pos, blocks); err != nil {
		t.Fatalf("store: %v", err)
	}
	loaded, err := db.LoadChunk(pos)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(blocks) {
		t.Fatalf("loaded %d blocks, want %d", len(loaded), len(blocks))
	}
	for i := range blocks {
		if loaded[i] != blocks[i] {
			t.Fatalf("block %d: got %d, want %d", i, loaded[i], blocks[i])
		}
	}
}

func TestLoadMissingChunk(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.LoadChunk(cube.ChunkPos{1, 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCorruptedChunk(t *testing.T) {
	db := openTestDB(t)
	pos := cube.ChunkPos{0, 0}
	if err := db.StoreChunk(pos, []uint32{1, 2, 3, 4}); err != nil {
		t.Fatalf("store: %v", err)
	}

	key := chunkKey(pos)
	raw, err := db.ldb.Get(key, nil)
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := db.ldb.Put(key, raw, nil); err != nil {
		t.Fatalf("raw put: %v", err)
	}

	if _, err := db.LoadChunk(pos); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}

	raw = raw[:len(raw)-3]
	if err := db.ldb.Put(key, raw, nil); err != nil {
		t.Fatalf("raw put: %v", err)
	}
	if _, err := db.LoadChunk(pos); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("truncated record: expected ErrChecksumMismatch, got %v", err)
	}
}

func TestWorldIdentityPersists(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	id := db.WorldID()
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if db.WorldID() != id {
		t.Fatalf("world identity changed across reopen: %v then %v", id, db.WorldID())
	}
}
