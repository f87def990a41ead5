// Package terrain drives chunk-volume evaluation of a compiled density
// router: column cache population, section-by-section corner sampling,
// uniform-sign fast paths and trilinear in-cell interpolation.
package terrain

import (
	"github.com/segmentio/fasthash/fnv1a"
)

// World height constants of the 1.20.1 overworld.
const (
	// MinY is the lowest block Y coordinate, inclusive.
	MinY = -64
	// MaxY is the highest block Y coordinate, exclusive.
	MaxY = 320
	// Height is the block height of a chunk column.
	Height = MaxY - MinY
	// SectionHeight is the block height of one section.
	SectionHeight = 16
)

// Chunk is a generated 16×Height×16 column of block-state runtime IDs. The
// IDs are opaque to the generator; the caller provides the solid and air IDs.
type Chunk struct {
	blocks []uint32
}

// NewChunk returns a chunk with all blocks set to the zero runtime ID.
func NewChunk() *Chunk {
	return &Chunk{blocks: make([]uint32, 16*16*Height)}
}

func blockIndex(x, y, z int) int {
	return ((y-MinY)*16+z)*16 + x
}

// Block returns the runtime ID at a position local in X and Z and absolute
// in Y.
func (c *Chunk) Block(x, y, z int) uint32 {
	return c.blocks[blockIndex(x, y, z)]
}

// SetBlock sets the runtime ID at a position local in X and Z and absolute
// in Y.
func (c *Chunk) SetBlock(x, y, z int, id uint32) {
	c.blocks[blockIndex(x, y, z)] = id
}

// Fill sets every block of the chunk to id.
func (c *Chunk) Fill(id uint32) {
	for i := range c.blocks {
		c.blocks[i] = id
	}
}

// Count returns the number of blocks holding id.
func (c *Chunk) Count(id uint32) int {
	n := 0
	for _, b := range c.blocks {
		if b == id {
			n++
		}
	}
	return n
}

// Blocks exposes the backing block array, index ((y-MinY)*16+z)*16+x. The
// slice must be treated as read-only by consumers.
func (c *Chunk) Blocks() []uint32 {
	return c.blocks
}

// Hash returns a content hash of the full block array, used as a regression
// fingerprint of generated terrain.
func (c *Chunk) Hash() uint64 {
	h := fnv1a.Init64
	for _, b := range c.blocks {
		h = fnv1a.AddUint64(h, uint64(b))
	}
	return h
}
