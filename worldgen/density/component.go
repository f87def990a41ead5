package density

import (
	"math"

	"github.com/andreypfau/mcrs/worldgen/noise"
)

// Op identifies the operation a Component performs.
type Op uint8

const (
	// OpConstant yields P0 everywhere.
	OpConstant Op = iota
	// OpYGradient maps Y linearly from P2 at P0 to P3 at P1, clamped.
	OpYGradient
	// OpNoise samples Normal at (x*P0, y*P1, z*P0).
	OpNoise
	// OpBlendedNoise samples Blended at the block position.
	OpBlendedNoise
	// OpShiftA samples Normal at (x/4, 0, z/4) times four.
	OpShiftA
	// OpShiftB samples Normal at (z/4, x/4, 0) times four.
	OpShiftB
	// OpShift samples Normal at (z/4, x/4, z/4) times four.
	OpShift
	// OpShiftedNoise samples Normal at scaled coordinates offset by the
	// values of In, In2 and In3.
	OpShiftedNoise
	// OpWeirdScaled samples Normal at a rarity-scaled frequency selected
	// by In; Mapper picks the rarity curve.
	OpWeirdScaled
	// OpAdd, OpMul, OpMin and OpMax combine In and In2.
	OpAdd
	OpMul
	OpMin
	OpMax
	// OpAbs through OpSqueeze transform In.
	OpAbs
	OpSquare
	OpCube
	OpHalfNeg
	OpQuarterNeg
	OpSqueeze
	// OpClamp limits In to [P0, P1].
	OpClamp
	// OpRangeChoice yields In2 if In lies in [P0, P1), else In3.
	OpRangeChoice
	// OpLinearAdd and OpLinearMul are single-constant binaries produced by
	// the optimizer's demotion pass; both are promoted to OpAffine before
	// the pass ends.
	OpLinearAdd
	OpLinearMul
	// OpAffine yields In*P0 + P1.
	OpAffine
	// OpPiecewiseAffine yields t = In*P0 + P1, scaled by P2 when t <= 0.
	OpPiecewiseAffine
	// OpSlide applies two Y-gradient tapers and three offsets in one step.
	OpSlide
	// OpSpline applies a monotone cubic spline to the value of In.
	OpSpline
	// OpFlatCache and OpCache2D are zone barriers: their output is
	// column-only regardless of input.
	OpFlatCache
	OpCache2D
	// OpCacheOnce and OpCacheInCell are per-sweep cache requests removed
	// by the optimizer.
	OpCacheOnce
	OpCacheInCell
	// OpFindTopSurface probes In downwards from the value of In2 in steps
	// of P1 blocks until it turns solid, not below P0.
	OpFindTopSurface
)

// Zone classifies a stack entry by coordinate dependency.
type Zone uint8

const (
	// ZoneColumn entries depend only on (x, z) along paths reaching the
	// final density root. They are evaluated once per column at y=0.
	ZoneColumn Zone = iota
	// ZonePerBlock entries reaching the final density root depend on Y.
	ZonePerBlock
	// ZoneOther entries feed only secondary roots.
	ZoneOther
)

// Component is one entry of a compiled density function stack. Input indices
// always refer to earlier entries. After optimization and partitioning,
// components are never mutated.
type Component struct {
	Op Op

	// In, In2 and In3 are input indices; their meaning depends on Op. An
	// unused input is -1.
	In, In2, In3 int32

	// Min and Max bound the output of the component for any legal input.
	Min, Max float32

	// P0 through P3 are operation-specific scalars.
	P0, P1, P2, P3 float32

	// Normal and Blended are the samplers of noise components.
	Normal  *noise.Normal
	Blended *noise.Blended

	// Spline is the compiled spline table of OpSpline components.
	Spline *CompiledSpline

	// Slide carries the fused gradient parameters of OpSlide components.
	Slide *SlideParams

	// Mapper selects the rarity curve of OpWeirdScaled.
	Mapper RarityMapper

	// PerBlock reports if the output depends on Y.
	PerBlock bool

	// Zone is the coordinate dependency class assigned by partitioning.
	Zone Zone
}

// SlideParams hold the fused parameters of an OpSlide component:
// ((in + OffA) * grad1(y) + OffB) * grad2(y) + OffC, where each gradient is a
// clamped Y gradient. On [FastMinY, FastMaxY] both gradients saturate to one
// and the slide reduces to in + Combined.
type SlideParams struct {
	FromY1, ToY1, FromV1, ToV1 float32
	FromY2, ToY2, FromV2, ToV2 float32
	OffA, OffB, OffC           float32
	Combined                   float32
	FastMinY, FastMaxY         float32
}

// CompiledSpline is a spline with precomputed segment tables. Coordinate
// functions are stack indices; values are nested splines or constants.
type CompiledSpline struct {
	CoordIn     int32
	Min, Max    float32
	Locations   []float32
	Derivatives []float32
	Values      []SplineValue
	Segments    []SplineSegment
}

// SplineValue is one control point value: a nested spline or a constant.
type SplineValue struct {
	Spline *CompiledSpline
	Const  float32
}

// SplineSegment holds the per-segment factors of the cubic interpolation.
type SplineSegment struct {
	Left           float32
	InvDist        float32
	LowerDerivDist float32
	UpperDerivDist float32
}

// noInput marks an unused input slot.
const noInput = int32(-1)

// eachInput calls f for a pointer to every input index the component reads,
// including the coordinate indices of nested splines. Mutating through the
// pointer remaps the input.
func (c *Component) eachInput(f func(*int32)) {
	if c.In != noInput {
		f(&c.In)
	}
	if c.In2 != noInput {
		f(&c.In2)
	}
	if c.In3 != noInput {
		f(&c.In3)
	}
	if c.Spline != nil {
		c.Spline.eachCoord(f)
	}
}

func (s *CompiledSpline) eachCoord(f func(*int32)) {
	f(&s.CoordIn)
	for i := range s.Values {
		if s.Values[i].Spline != nil {
			s.Values[i].Spline.eachCoord(f)
		}
	}
}

// applyUnary applies a scalar unary operation.
func applyUnary(op Op, v float32) float32 {
	switch op {
	case OpAbs:
		return float32(math.Abs(float64(v)))
	case OpSquare:
		return v * v
	case OpCube:
		return v * v * v
	case OpHalfNeg:
		if v > 0 {
			return v
		}
		return v * 0.5
	case OpQuarterNeg:
		if v > 0 {
			return v
		}
		return v * 0.25
	case OpSqueeze:
		c := clamp32(v, -1, 1)
		return c/2 - c*c*c/24
	}
	return v
}

// unaryEnvelope computes a sound output envelope of a unary operation over
// the input envelope [lo, hi].
func unaryEnvelope(op Op, lo, hi float32) (float32, float32) {
	loImg, hiImg := applyUnary(op, lo), applyUnary(op, hi)
	switch op {
	case OpAbs, OpSquare:
		mn := min32(loImg, hiImg)
		if lo <= 0 && hi >= 0 {
			mn = 0
		}
		return mn, max32(loImg, hiImg)
	default:
		// The remaining unaries are monotone.
		return min32(loImg, hiImg), max32(loImg, hiImg)
	}
}

// binaryEnvelope computes a sound output envelope of a binary operation over
// the input envelopes.
func binaryEnvelope(op Op, lo1, hi1, lo2, hi2 float32) (float32, float32) {
	switch op {
	case OpAdd:
		return lo1 + lo2, hi1 + hi2
	case OpMul:
		a, b, c, d := lo1*lo2, lo1*hi2, hi1*lo2, hi1*hi2
		return min32(min32(a, b), min32(c, d)), max32(max32(a, b), max32(c, d))
	case OpMin:
		return min32(lo1, lo2), min32(hi1, hi2)
	case OpMax:
		return max32(lo1, lo2), max32(hi1, hi2)
	}
	return 0, 0
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
