package density

// DensityCache is the per-worker scratch state of a router. Every stack entry
// stores its value in scratch exactly once per sweep; the remembered column
// decides when the column-only zone must be refreshed. Caches are never
// shared between goroutines.
type DensityCache struct {
	scratch []float32
	aux     []float32

	columnX, columnZ int
	hasColumn        bool

	skip []bool
}

// NewCache returns a cache sized for the router's stack.
func (r *Router) NewCache() *DensityCache {
	return &DensityCache{
		scratch: make([]float32, len(r.stack)),
		aux:     make([]float32, len(r.stack)),
		skip:    make([]bool, len(r.stack)),
	}
}

// Invalidate drops the remembered column so the next evaluation refreshes the
// column-only zone.
func (c *DensityCache) Invalidate() {
	c.hasColumn = false
}

// Grid constants of the 1.20.1 generation model. A cell is 4×8×4 blocks; the
// column cache covers a 17×17 corner grid at cell spacing, one chunk plus the
// adjacent-chunk overlap used by the generation window.
const (
	// CellWidth is the horizontal size of a cell in blocks.
	CellWidth = 4
	// CellHeight is the vertical size of a cell in blocks.
	CellHeight = 8
	// ColumnGridSize is the side length of the column cache corner grid.
	ColumnGridSize = 17
)

// ColumnCache stores the column-only zone of a router evaluated at every
// corner of the 17×17 XZ grid anchored at a chunk origin.
type ColumnCache struct {
	originX, originZ int
	zoneA            int
	data             []float32
}

// NewColumnCache returns an empty column cache anchored at the given block
// origin. Populate it with PopulateColumns before loading columns from it.
func (r *Router) NewColumnCache(blockX, blockZ int) *ColumnCache {
	return &ColumnCache{
		originX: blockX,
		originZ: blockZ,
		zoneA:   r.columnBoundary,
		data:    make([]float32, ColumnGridSize*ColumnGridSize*r.columnBoundary),
	}
}

// Reset re-anchors the cache at a new chunk origin, keeping its buffer.
func (cc *ColumnCache) Reset(blockX, blockZ int) {
	cc.originX, cc.originZ = blockX, blockZ
}

// Origin returns the block position of grid corner (0, 0).
func (cc *ColumnCache) Origin() (x, z int) {
	return cc.originX, cc.originZ
}

// Column returns the contiguous column-only slice for the grid corner at the
// given local block offsets, which must be multiples of the cell width.
func (cc *ColumnCache) Column(localX, localZ int) []float32 {
	gx, gz := localX/CellWidth, localZ/CellWidth
	off := (gx*ColumnGridSize + gz) * cc.zoneA
	return cc.data[off : off+cc.zoneA]
}

// PopulateColumns evaluates the column-only zone at every grid corner of the
// cache. The cache may afterwards be shared read-only with the interpolation
// hot path of the same worker.
func (r *Router) PopulateColumns(c *DensityCache, cc *ColumnCache) {
	for gx := 0; gx < ColumnGridSize; gx++ {
		x := cc.originX + gx*CellWidth
		for gz := 0; gz < ColumnGridSize; gz++ {
			z := cc.originZ + gz*CellWidth
			slot := cc.data[(gx*ColumnGridSize+gz)*cc.zoneA : (gx*ColumnGridSize+gz+1)*cc.zoneA]
			for i := 0; i < r.columnBoundary; i++ {
				slot[i] = r.evalComponent(i, slot, c, x, 0, z)
			}
		}
	}
}
