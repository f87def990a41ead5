package terrain

import (
	"log/slog"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/andreypfau/mcrs/worldgen/density"
)

// Config contains options for creating a terrain generator.
type Config struct {
	// Log is the logger the generator reports to. If nil, slog.Default()
	// is used.
	Log *slog.Logger
	// Router is the compiled density program terrain is shaped by.
	Router *density.Router
	// StoneID and AirID are the block-state runtime IDs written for solid
	// and empty cells. They are opaque to the generator.
	StoneID, AirID uint32
	// SurfaceSkip enables the surface height prediction that skips
	// sections proven to be entirely air. Output is identical with the
	// prediction on or off.
	SurfaceSkip bool
}

// Generator generates chunk terrain from a compiled density router. The
// generator itself is immutable and safe to share; per-goroutine state lives
// in Workers.
type Generator struct {
	log         *slog.Logger
	router      *density.Router
	stoneID     uint32
	airID       uint32
	surfaceSkip bool
}

// New creates a terrain generator with the given configuration.
func New(conf Config) *Generator {
	log := conf.Log
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		log:         log,
		router:      conf.Router,
		stoneID:     conf.StoneID,
		airID:       conf.AirID,
		surfaceSkip: conf.SurfaceSkip,
	}
}

// Router returns the generator's compiled density program.
func (g *Generator) Router() *density.Router {
	return g.router
}

// Worker owns the caches of one generation goroutine: the density scratch
// state, the chunk column cache and the section interpolator. A worker
// generates one chunk at a time and is reused across chunks; it must not be
// shared between goroutines.
type Worker struct {
	g       *Generator
	cache   *density.DensityCache
	columns *density.ColumnCache
	interp  *density.SectionInterpolator
}

// NewWorker creates a worker for the generator. Each generation goroutine
// needs its own.
func (g *Generator) NewWorker() *Worker {
	return &Worker{
		g:      g,
		cache:  g.router.NewCache(),
		interp: density.NewInterpolator(),
	}
}

// GenerateChunk fills dest with the terrain of the chunk at pos. Given the
// same router and position the output is byte-identical regardless of which
// worker or goroutine runs it.
func (w *Worker) GenerateChunk(pos cube.ChunkPos, dest *Chunk) {
	g := w.g
	blockX, blockZ := pos.BlockX(), pos.BlockZ()

	if w.columns == nil {
		w.columns = g.router.NewColumnCache(blockX, blockZ)
	} else {
		w.columns.Reset(blockX, blockZ)
	}
	w.cache.Invalidate()
	g.router.PopulateColumns(w.cache, w.columns)

	maxY, skip := 0, false
	if g.surfaceSkip {
		maxY, skip = g.router.EstimateMaxSurfaceY(w.cache, w.columns)
	}

	dest.Fill(g.airID)
	w.interp.ResetSectionBoundary()
	for sectionY := MinY; sectionY < MaxY; sectionY += SectionHeight {
		if skip && sectionY >= maxY {
			// Everything above the predicted surface is air; the saved
			// boundary row no longer matches the next section's bottom.
			w.interp.ResetSectionBoundary()
			continue
		}
		w.generateSection(dest, blockX, sectionY, blockZ)
	}
}

// generateSection samples the 5×3×5 corner grid of one section and fills its
// 4×2×4 cells, interpolating only the cells whose corners disagree in sign.
func (w *Worker) generateSection(dest *Chunk, blockX, sectionY, blockZ int) {
	g, in := w.g, w.interp

	in.FillPlane(g.router, w.cache, w.columns, 0, true, blockX, sectionY, blockZ)
	for cellX := 0; cellX < density.HCells; cellX++ {
		nextX := blockX + (cellX+1)*density.CellWidth
		in.FillPlane(g.router, w.cache, w.columns, cellX+1, false, nextX, sectionY, blockZ)

		for cellZ := 0; cellZ < density.HCells; cellZ++ {
			for cellY := density.VCells - 1; cellY >= 0; cellY-- {
				in.OnSampledCellCorners(cellY, cellZ)

				baseX := cellX * density.CellWidth
				baseY := sectionY + cellY*density.CellHeight
				baseZ := cellZ * density.CellWidth

				solid, uniform := in.CornersUniformSign()
				if uniform {
					if solid {
						w.fillCell(dest, baseX, baseY, baseZ)
					}
					continue
				}

				for localY := density.CellHeight - 1; localY >= 0; localY-- {
					in.InterpolateY(float32(localY) / density.CellHeight)
					for localX := 0; localX < density.CellWidth; localX++ {
						in.InterpolateX(float32(localX) / density.CellWidth)
						for localZ := 0; localZ < density.CellWidth; localZ++ {
							in.InterpolateZ(float32(localZ) / density.CellWidth)
							if in.Result() > 0 {
								dest.SetBlock(baseX+localX, baseY+localY, baseZ+localZ, g.stoneID)
							}
						}
					}
				}
			}
		}
		in.SwapBuffers()
	}
	in.EndSection()
}

func (w *Worker) fillCell(dest *Chunk, baseX, baseY, baseZ int) {
	for y := 0; y < density.CellHeight; y++ {
		for z := 0; z < density.CellWidth; z++ {
			for x := 0; x < density.CellWidth; x++ {
				dest.SetBlock(baseX+x, baseY+y, baseZ+z, w.g.stoneID)
			}
		}
	}
}
