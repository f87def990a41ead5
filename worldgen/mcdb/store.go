// Package mcdb persists generated chunk block arrays in a LevelDB database.
// It is a cache in front of the generator: records are keyed on chunk
// position and carry a content checksum, and a database is bound to the world
// identity it was created with.
package mcdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/google/uuid"
	"github.com/segmentio/fasthash/fnv1a"
)

var (
	// ErrNotFound is returned when a chunk is not present in the store.
	ErrNotFound = errors.New("chunk not found")
	// ErrChecksumMismatch is returned when a stored record fails its
	// content checksum.
	ErrChecksumMismatch = errors.New("chunk record checksum mismatch")
)

// keyWorldID is the metadata key holding the world identity record.
var keyWorldID = []byte("world_uuid")

const chunkKeyTag = 0x2f

// DB is a LevelDB-backed store of generated chunks. It is safe for use by
// multiple goroutines.
type DB struct {
	ldb *leveldb.DB
	log *slog.Logger
	id  uuid.UUID
}

// Config contains options for opening a chunk database.
type Config struct {
	// Log is the logger the database reports to. If nil, slog.Default()
	// is used.
	Log *slog.Logger
}

// Open opens or creates the chunk database in dir. A fresh database is
// assigned a world identity; reopening returns the stored one.
func (conf Config) Open(dir string) (*DB, error) {
	log := conf.Log
	if log == nil {
		log = slog.Default()
	}
	ldb, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open chunk db: %w", err)
	}
	db := &DB{ldb: ldb, log: log}

	raw, err := ldb.Get(keyWorldID, nil)
	switch {
	case err == nil:
		if db.id, err = uuid.FromBytes(raw); err != nil {
			_ = ldb.Close()
			return nil, fmt.Errorf("open chunk db: world identity: %w", err)
		}
	case errors.Is(err, leveldb.ErrNotFound):
		db.id = uuid.New()
		if err := ldb.Put(keyWorldID, db.id[:], nil); err != nil {
			_ = ldb.Close()
			return nil, fmt.Errorf("open chunk db: world identity: %w", err)
		}
		log.Debug("created chunk db", "world", db.id.String())
	default:
		_ = ldb.Close()
		return nil, fmt.Errorf("open chunk db: %w", err)
	}
	return db, nil
}

// Open opens or creates a chunk database with default options.
func Open(dir string) (*DB, error) {
	return Config{}.Open(dir)
}

// WorldID returns the identity of the world the database belongs to.
func (db *DB) WorldID() uuid.UUID {
	return db.id
}

func chunkKey(pos cube.ChunkPos) []byte {
	key := make([]byte, 9)
	binary.LittleEndian.PutUint32(key[0:], uint32(pos.X()))
	binary.LittleEndian.PutUint32(key[4:], uint32(pos.Z()))
	key[8] = chunkKeyTag
	return key
}

// StoreChunk writes the block array of a generated chunk.
func (db *DB) StoreChunk(pos cube.ChunkPos, blocks []uint32) error {
	buf := make([]byte, 8+len(blocks)*4)
	h := fnv1a.Init64
	for i, b := range blocks {
		binary.LittleEndian.PutUint32(buf[8+i*4:], b)
		h = fnv1a.AddUint64(h, uint64(b))
	}
	binary.LittleEndian.PutUint64(buf[0:], h)
	if err := db.ldb.Put(chunkKey(pos), buf, nil); err != nil {
		return fmt.Errorf("store chunk %v: %w", pos, err)
	}
	return nil
}

// LoadChunk reads the block array of a chunk previously stored, verifying
// its checksum.
func (db *DB) LoadChunk(pos cube.ChunkPos) ([]uint32, error) {
	raw, err := db.ldb.Get(chunkKey(pos), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("load chunk %v: %w", pos, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %v: %w", pos, err)
	}
	if len(raw) < 8 || (len(raw)-8)%4 != 0 {
		return nil, fmt.Errorf("load chunk %v: %w", pos, ErrChecksumMismatch)
	}
	blocks := make([]uint32, (len(raw)-8)/4)
	h := fnv1a.Init64
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint32(raw[8+i*4:])
		h = fnv1a.AddUint64(h, uint64(blocks[i]))
	}
	if h != binary.LittleEndian.Uint64(raw[0:]) {
		return nil, fmt.Errorf("load chunk %v: %w", pos, ErrChecksumMismatch)
	}
	return blocks, nil
}

// Close flushes and closes the database.
func (db *DB) Close() error {
	return db.ldb.Close()
}
