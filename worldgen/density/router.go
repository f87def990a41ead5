package density

import (
	"fmt"
	"math"
	"sort"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"golang.org/x/exp/maps"
)

// Router is a compiled density function program: the optimized component
// stack, its zone boundaries and the named roots. A router is immutable after
// construction and may be shared by reference between any number of
// generation workers; all mutable evaluation state lives in per-worker
// caches.
type Router struct {
	stack []Component
	roots map[string]int

	columnBoundary int
	fdBoundary     int

	plans []branchPlan
	seed  int64
	lazy  bool
}

// Len returns the number of components in the stack.
func (r *Router) Len() int {
	return len(r.stack)
}

// Seed returns the world seed the router was compiled with.
func (r *Router) Seed() int64 {
	return r.seed
}

// ColumnBoundary returns the end of the column-only zone.
func (r *Router) ColumnBoundary() int {
	return r.columnBoundary
}

// FinalDensityIndex returns the stack index of the final density root, the
// last entry of the per-block zone.
func (r *Router) FinalDensityIndex() int {
	return r.fdBoundary - 1
}

// Roots returns the sorted names of the exposed roots.
func (r *Router) Roots() []string {
	names := maps.Keys(r.roots)
	sort.Strings(names)
	return names
}

// Root returns the stack index of a named root.
func (r *Router) Root(name string) (int, bool) {
	idx, ok := r.roots[name]
	return idx, ok
}

// ZoneStats returns the entry count of each zone.
func (r *Router) ZoneStats() (column, perBlock, other int) {
	return r.columnBoundary, r.fdBoundary - r.columnBoundary, len(r.stack) - r.fdBoundary
}

// Sample evaluates a named root at a block position using the given cache.
// It is the entry point for non-chunk consumers; chunk generation goes
// through the column cache and the section interpolator instead.
func (r *Router) Sample(c *DensityCache, name string, pos cube.Pos) (float32, error) {
	root, ok := r.roots[name]
	if !ok {
		return 0, fmt.Errorf("sample density: %w: %q", ErrUnknownRoot, name)
	}
	return r.sampleIndex(root, c, pos.X(), pos.Y(), pos.Z()), nil
}

// SampleIndex evaluates the stack entry at a root index obtained from Root.
// It avoids the name lookup of Sample on hot secondary-root paths.
func (r *Router) SampleIndex(c *DensityCache, root int, pos cube.Pos) float32 {
	return r.sampleIndex(root, c, pos.X(), pos.Y(), pos.Z())
}

// sampleIndex evaluates the stack up to root at a position. Column-only
// roots are answered from the refreshed column zone; everything else sweeps
// the tail of the stack.
func (r *Router) sampleIndex(root int, c *DensityCache, x, y, z int) float32 {
	r.refreshColumn(c, x, z)
	if r.stack[root].Zone == ZoneColumn {
		return c.scratch[root]
	}
	for i := r.columnBoundary; i <= root; i++ {
		c.scratch[i] = r.evalComponent(i, c.scratch, c, x, y, z)
	}
	return c.scratch[root]
}

// refreshColumn recomputes the column-only zone if the cache's remembered
// column differs. The ignored Y coordinate is fixed to zero.
func (r *Router) refreshColumn(c *DensityCache, x, z int) {
	if c.hasColumn && c.columnX == x && c.columnZ == z {
		return
	}
	for i := 0; i < r.columnBoundary; i++ {
		c.scratch[i] = r.evalComponent(i, c.scratch, c, x, 0, z)
	}
	c.columnX, c.columnZ, c.hasColumn = x, z, true
}

// FinalDensityFromColumnCache evaluates the final density root at a position
// whose column-only zone was precomputed in cc. The zone slice for the
// position's grid corner is copied into the scratch buffer in one move, and
// RangeChoice branch plans skip entries of the losing branches.
func (r *Router) FinalDensityFromColumnCache(c *DensityCache, cc *ColumnCache, localX, localZ, x, y, z int) float32 {
	copy(c.scratch[:r.columnBoundary], cc.Column(localX, localZ))
	c.columnX, c.columnZ, c.hasColumn = x, z, true

	fd := r.fdBoundary
	s := c.scratch
	if !r.lazy || len(r.plans) == 0 {
		for i := r.columnBoundary; i < fd; i++ {
			s[i] = r.evalComponent(i, s, c, x, y, z)
		}
		return s[fd-1]
	}

	skip := c.skip
	for i := r.columnBoundary; i < fd; i++ {
		skip[i] = false
	}
	plans := r.plans
	p := 0
	for p < len(plans) && plans[p].selector < int32(r.columnBoundary) {
		r.decide(&plans[p], s[plans[p].selector], skip)
		p++
	}
	for i := r.columnBoundary; i < fd; i++ {
		if !skip[i] {
			s[i] = r.evalComponent(i, s, c, x, y, z)
		}
		for p < len(plans) && plans[p].selector == int32(i) {
			if !skip[i] {
				r.decide(&plans[p], s[i], skip)
			}
			p++
		}
	}
	return s[fd-1]
}

// decide marks the stack entries of the losing RangeChoice branch.
func (r *Router) decide(plan *branchPlan, selector float32, skip []bool) {
	choice := &r.stack[plan.choice]
	dead := plan.inOnly
	if selector >= choice.P0 && selector < choice.P1 {
		dead = plan.outOnly
	}
	for _, i := range dead {
		skip[i] = true
	}
}

// surfaceNoiseMax bounds the magnitude of the blended terrain noise. The
// surface predictor leans on this literal; if the gradient table or octave
// weighting changes, it must be revalidated.
const surfaceNoiseMax = 2.0

// EstimateMaxSurfaceY predicts a Y level above which every block of the
// chunk anchored at cc is air, reading the "offset" and "factor" roots at the
// chunk's 5×5 cell corners. It reports ok=false when the router does not
// expose those roots or any corner value is unusable; generation must remain
// correct without the prediction.
func (r *Router) EstimateMaxSurfaceY(c *DensityCache, cc *ColumnCache) (int, bool) {
	offsetRoot, ok := r.roots["offset"]
	if !ok {
		return 0, false
	}
	factorRoot, ok := r.roots["factor"]
	if !ok {
		return 0, false
	}
	maxY := math.Inf(-1)
	for i := 0; i <= 4; i++ {
		for j := 0; j <= 4; j++ {
			x := cc.originX + i*CellWidth
			z := cc.originZ + j*CellWidth
			offset := float64(r.sampleIndex(offsetRoot, c, x, 0, z))
			factor := float64(r.sampleIndex(factorRoot, c, x, 0, z))
			if math.IsNaN(offset) || math.IsInf(offset, 0) || math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
				return 0, false
			}
			y := (1.5+offset+surfaceNoiseMax/factor)*128 - 64
			if y > maxY {
				maxY = y
			}
		}
	}
	// One extra section of headroom over the highest corner.
	return int(math.Ceil(maxY)) + 16, true
}

// evalComponent evaluates stack entry i at a position, reading inputs from s.
// Every component produces a finite value for any legal position; evaluation
// has no error path.
func (r *Router) evalComponent(i int, s []float32, c *DensityCache, x, y, z int) float32 {
	comp := &r.stack[i]
	switch comp.Op {
	case OpConstant:
		return comp.P0
	case OpYGradient:
		return gradient(comp.P0, comp.P1, comp.P2, comp.P3, float32(y))
	case OpNoise:
		return comp.Normal.Sample(float32(x)*comp.P0, float32(y)*comp.P1, float32(z)*comp.P0)
	case OpBlendedNoise:
		return comp.Blended.Sample(x, y, z)
	case OpShiftA:
		return comp.Normal.Sample(float32(x)*0.25, 0, float32(z)*0.25) * 4
	case OpShiftB:
		return comp.Normal.Sample(float32(z)*0.25, float32(x)*0.25, 0) * 4
	case OpShift:
		return comp.Normal.Sample(float32(z)*0.25, float32(x)*0.25, float32(z)*0.25) * 4
	case OpShiftedNoise:
		return comp.Normal.Sample(
			float32(x)*comp.P0+s[comp.In],
			float32(y)*comp.P1+s[comp.In2],
			float32(z)*comp.P0+s[comp.In3],
		)
	case OpWeirdScaled:
		amp, coordMul := rarity(comp.Mapper, s[comp.In])
		return amp * comp.Normal.Sample(float32(x)*coordMul, float32(y)*coordMul, float32(z)*coordMul)
	case OpAdd:
		return s[comp.In] + s[comp.In2]
	case OpMul:
		return s[comp.In] * s[comp.In2]
	case OpMin:
		return min32(s[comp.In], s[comp.In2])
	case OpMax:
		return max32(s[comp.In], s[comp.In2])
	case OpAbs, OpSquare, OpCube, OpHalfNeg, OpQuarterNeg, OpSqueeze:
		return applyUnary(comp.Op, s[comp.In])
	case OpClamp:
		return clamp32(s[comp.In], comp.P0, comp.P1)
	case OpRangeChoice:
		if v := s[comp.In]; v >= comp.P0 && v < comp.P1 {
			return s[comp.In2]
		}
		return s[comp.In3]
	case OpLinearAdd:
		return s[comp.In] + comp.P0
	case OpLinearMul:
		return s[comp.In] * comp.P0
	case OpAffine:
		return s[comp.In]*comp.P0 + comp.P1
	case OpPiecewiseAffine:
		t := s[comp.In]*comp.P0 + comp.P1
		if t > 0 {
			return t
		}
		return t * comp.P2
	case OpSlide:
		p := comp.Slide
		fy := float32(y)
		v := s[comp.In]
		if fy >= p.FastMinY && fy <= p.FastMaxY {
			return v + p.Combined
		}
		g1 := gradient(p.FromY1, p.ToY1, p.FromV1, p.ToV1, fy)
		g2 := gradient(p.FromY2, p.ToY2, p.FromV2, p.ToV2, fy)
		return ((v+p.OffA)*g1+p.OffB)*g2 + p.OffC
	case OpSpline:
		return evalSpline(comp.Spline, s)
	case OpFlatCache, OpCache2D, OpCacheOnce, OpCacheInCell:
		return s[comp.In]
	case OpFindTopSurface:
		return r.findTopSurface(comp, s, c, x, z)
	}
	return 0
}

// findTopSurface probes the density input downwards from the upper bound in
// cell-height steps until a solid sample is found. Probes run on the
// secondary scratch buffer so the primary sweep is undisturbed.
func (r *Router) findTopSurface(comp *Component, s []float32, c *DensityCache, x, z int) float32 {
	cellHeight := comp.P1
	topY := float32(math.Floor(float64(s[comp.In2]/cellHeight))) * cellHeight
	if topY <= comp.P0 {
		return comp.P0
	}
	for y := topY; y > comp.P0; y -= cellHeight {
		if d := r.evalAux(int(comp.In), c, x, int(y), z); d > 0 {
			return y
		}
	}
	return comp.P0
}

// evalAux evaluates the stack up to root into the secondary scratch buffer.
// The column zone keeps its fixed Y of zero.
func (r *Router) evalAux(root int, c *DensityCache, x, y, z int) float32 {
	aux := c.aux
	for i := 0; i <= root; i++ {
		if i < r.columnBoundary {
			aux[i] = r.evalComponent(i, aux, c, x, 0, z)
		} else {
			aux[i] = r.evalComponent(i, aux, c, x, y, z)
		}
	}
	return aux[root]
}

// gradient maps fy linearly from fromV at fromY to toV at toY, clamped
// outside the range.
func gradient(fromY, toY, fromV, toV, fy float32) float32 {
	if fy < fromY {
		return fromV
	}
	if fy > toY {
		return toV
	}
	return fromV + (toV-fromV)*(fy-fromY)/(toY-fromY)
}

// rarity returns the amplitude and coordinate multiplier of a weird-scaled
// sampler for the given input density.
func rarity(mapper RarityMapper, density float32) (amp, coordMul float32) {
	if mapper == RarityType1 {
		switch {
		case density < -0.5:
			return 0.75, 1 / 0.75
		case density < 0:
			return 1, 1
		case density < 0.5:
			return 1.5, 1 / 1.5
		default:
			return 2, 0.5
		}
	}
	switch {
	case density < -0.75:
		return 0.5, 2
	case density < -0.5:
		return 0.75, 1 / 0.75
	case density < 0.5:
		return 1, 1
	case density < 0.75:
		return 2, 0.5
	default:
		return 3, 1.0 / 3
	}
}

// evalSpline interpolates the compiled spline at the coordinate value stored
// in s, extending linearly outside the first and last control points.
func evalSpline(sp *CompiledSpline, s []float32) float32 {
	loc := s[sp.CoordIn]
	locs := sp.Locations
	n := len(locs)
	idx := sort.Search(n, func(i int) bool { return locs[i] > loc })

	if idx == 0 {
		v := sp.Values[0].eval(s)
		if d := sp.Derivatives[0]; d != 0 {
			return d*(loc-locs[0]) + v
		}
		return v
	}
	if idx == n {
		v := sp.Values[n-1].eval(s)
		if d := sp.Derivatives[n-1]; d != 0 {
			return d*(loc-locs[n-1]) + v
		}
		return v
	}

	i0 := idx - 1
	v0 := sp.Values[i0].eval(s)
	v1 := sp.Values[idx].eval(s)
	seg := sp.Segments[i0]
	t := (loc - seg.Left) * seg.InvDist
	delta := v1 - v0
	e0 := seg.LowerDerivDist - delta
	e1 := -seg.UpperDerivDist + delta
	cubic := (t * (1 - t)) * lerp32(t, e0, e1)
	return cubic + lerp32(t, v0, v1)
}

func (v SplineValue) eval(s []float32) float32 {
	if v.Spline != nil {
		return evalSpline(v.Spline, s)
	}
	return v.Const
}

func lerp32(delta, start, end float32) float32 {
	return start + delta*(end-start)
}
