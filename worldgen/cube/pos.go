// Package cube holds the position types shared by the world generation
// packages.
package cube

// Pos holds the position of a block. The position is represented of an array
// with an x, y and z value, where the y value is positioned vertically.
type Pos [3]int

// X returns the X coordinate of the block position.
func (p Pos) X() int {
	return p[0]
}

// Y returns the Y coordinate of the block position.
func (p Pos) Y() int {
	return p[1]
}

// Z returns the Z coordinate of the block position.
func (p Pos) Z() int {
	return p[2]
}

// Add adds two block positions together and returns a new one with the sum of
// both positions.
func (p Pos) Add(pos Pos) Pos {
	return Pos{p[0] + pos[0], p[1] + pos[1], p[2] + pos[2]}
}

// ChunkPos holds the position of a chunk. The type is similar to Pos, except
// that it is a column position: it holds only an x and z value.
type ChunkPos [2]int32

// X returns the X coordinate of the chunk position.
func (p ChunkPos) X() int32 {
	return p[0]
}

// Z returns the Z coordinate of the chunk position.
func (p ChunkPos) Z() int32 {
	return p[1]
}

// BlockX returns the X coordinate of the westernmost block in the chunk.
func (p ChunkPos) BlockX() int {
	return int(p[0]) << 4
}

// BlockZ returns the Z coordinate of the northernmost block in the chunk.
func (p ChunkPos) BlockZ() int {
	return int(p[1]) << 4
}
