package density

import (
	"math"
	"reflect"
	"testing"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/andreypfau/mcrs/worldgen/rand"
)

func TestOptimizeStaticRangeChoice(t *testing.T) {
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: RangeChoice{
			Input:        Constant(0),
			MinInclusive: -1,
			MaxExclusive: 1,
			WhenIn:       Constant(1),
			WhenOut:      Constant(-1),
		},
	}})
	if r.Len() != 1 {
		t.Fatalf("static range choice must collapse, got %d entries", r.Len())
	}
	if c := r.stack[0]; c.Op != OpConstant || c.P0 != 1 {
		t.Fatalf("expected Constant(1), got op %d value %v", c.Op, c.P0)
	}
}

func TestOptimizeConstantFolding(t *testing.T) {
	for _, tc := range []struct {
		name string
		def  Def
		want float32
	}{
		{"add", Add{A: Constant(2), B: Constant(3)}, 5},
		{"mul", Mul{A: Constant(2), B: Constant(-3)}, -6},
		{"min", Min{A: Constant(2), B: Constant(3)}, 2},
		{"max", Max{A: Constant(2), B: Constant(3)}, 3},
		{"abs", Abs{Input: Constant(-2)}, 2},
		{"cube", Cube{Input: Constant(-2)}, -8},
		{"clamp", Clamp{Input: Constant(9), Min: -1, Max: 1}, 1},
		{"mul_by_zero", Mul{A: Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}, B: Constant(0)}, 0},
		{"affine_chain", Add{A: Mul{A: Add{A: Constant(4), B: Constant(1)}, B: Constant(2)}, B: Constant(1)}, 11},
	} {
		r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{RootFinalDensity: tc.def}})
		fd := r.FinalDensityIndex()
		if c := r.stack[fd]; c.Op != OpConstant || c.P0 != tc.want {
			t.Fatalf("%s: expected Constant(%v), got op %d value %v", tc.name, tc.want, c.Op, c.P0)
		}
	}
}

func TestOptimizeAffineIdentity(t *testing.T) {
	n := Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}
	// x*1 + 0 must collapse to x.
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: Add{A: Mul{A: n, B: Constant(1)}, B: Constant(0)},
	}})
	if c := r.stack[r.FinalDensityIndex()]; c.Op != OpNoise {
		t.Fatalf("identity affine must collapse to its input, got op %d", c.Op)
	}
}

func TestOptimizeAffineFusion(t *testing.T) {
	n := Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}
	// ((x + 3) * 2) * 4 + 5 fuses into a single multiply-add.
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: Add{A: Mul{A: Mul{A: Add{A: n, B: Constant(3)}, B: Constant(2)}, B: Constant(4)}, B: Constant(5)},
	}})
	if r.Len() != 2 {
		t.Fatalf("expected noise + one fused affine, got %d entries", r.Len())
	}
	c := r.stack[r.FinalDensityIndex()]
	if c.Op != OpAffine || c.P0 != 8 || c.P1 != 29 {
		t.Fatalf("expected Affine(8, 29), got op %d scale %v offset %v", c.Op, c.P0, c.P1)
	}
}

func TestOptimizeMinMaxDomination(t *testing.T) {
	low := Clamp{Input: Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}, Min: -1, Max: 1}
	high := Add{A: Clamp{Input: Noise{Noise: testNoise(-5, 1, 1), XZScale: 0.5, YScale: 1}, Min: -1, Max: 1}, B: Constant(10)}
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: Min{A: low, B: high},
	}})
	if c := r.stack[r.FinalDensityIndex()]; c.Op == OpMin {
		t.Fatalf("dominated min must be redirected to its low input")
	}
	r = compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: Max{A: low, B: high},
	}})
	if c := r.stack[r.FinalDensityIndex()]; c.Op == OpMax {
		t.Fatalf("dominated max must be redirected to its high input")
	}
}

func TestOptimizeClampElimination(t *testing.T) {
	inner := Clamp{Input: Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}, Min: -0.5, Max: 0.5}
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: Clamp{Input: inner, Min: -1, Max: 1},
	}})
	clamps := 0
	for _, c := range r.stack {
		if c.Op == OpClamp {
			clamps++
		}
	}
	if clamps != 1 {
		t.Fatalf("outer clamp covers the input envelope and must vanish, got %d clamps", clamps)
	}
}

func TestOptimizeSquareFusion(t *testing.T) {
	n := Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: Mul{A: n, B: n},
	}})
	c := r.stack[r.FinalDensityIndex()]
	if c.Op != OpSquare {
		t.Fatalf("mul of a node with itself must fuse to square, got op %d", c.Op)
	}
	if c.Min < 0 {
		t.Fatalf("square envelope must be non-negative, got [%v, %v]", c.Min, c.Max)
	}
}

func TestOptimizeSlideFusion(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 5})
	found := false
	for _, c := range r.stack {
		if c.Op == OpSlide {
			found = true
			if c.Slide.Combined != c.Slide.OffA+c.Slide.OffB+c.Slide.OffC {
				t.Fatalf("combined offset mismatch")
			}
			if c.Slide.FastMinY != -40 || c.Slide.FastMaxY != 240 {
				t.Fatalf("fast path range [%v, %v], want [-40, 240]", c.Slide.FastMinY, c.Slide.FastMaxY)
			}
		}
	}
	if !found {
		t.Fatalf("the slide chain must fuse into an OpSlide entry")
	}
}

func TestOptimizePiecewiseAffineFusion(t *testing.T) {
	n := Noise{Noise: testNoise(-4, 1), XZScale: 1, YScale: 1}
	r := compileTest(t, CompileOptions{Functions: map[string]Def{}, Roots: map[string]Def{
		RootFinalDensity: HalfNegative{Input: Add{A: Mul{A: n, B: Constant(2)}, B: Constant(0.25)}},
	}})
	c := r.stack[r.FinalDensityIndex()]
	if c.Op != OpPiecewiseAffine || c.P0 != 2 || c.P1 != 0.25 || c.P2 != 0.5 {
		t.Fatalf("expected PiecewiseAffine(2, 0.25, 0.5), got op %d params %v %v %v", c.Op, c.P0, c.P1, c.P2)
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 9, DisableOptimizer: true})

	once, onceRoots, err := optimizeStack(cloneStack(r.stack), cloneRoots(r.roots))
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, twiceRoots, err := optimizeStack(cloneStack(once), cloneRoots(onceRoots))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("optimizer is not idempotent: %d entries then %d entries", len(once), len(twice))
	}
	if !reflect.DeepEqual(onceRoots, twiceRoots) {
		t.Fatalf("root table changed on the second pass: %v then %v", onceRoots, twiceRoots)
	}
}

func TestOptimizeEquivalence(t *testing.T) {
	optimized := compileTest(t, CompileOptions{Seed: 11})
	plain := compileTest(t, CompileOptions{Seed: 11, DisableOptimizer: true})

	co, cp := optimized.NewCache(), plain.NewCache()
	src := rand.NewXoroshiro(123)
	for _, name := range optimized.Roots() {
		if name == "surface" {
			// The top-surface probe crosses the solid threshold; the
			// reassociated slide arithmetic may move a probe across it
			// and shift the result by a whole cell. Compared below.
			continue
		}
		iterations := 300
		if name == RootFinalDensity {
			iterations = 1500
		}
		for i := 0; i < iterations; i++ {
			pos := cube.Pos{
				int(src.Uint32n(4000)) - 2000,
				int(src.Uint32n(384)) - 64,
				int(src.Uint32n(4000)) - 2000,
			}
			a, err := optimized.Sample(co, name, pos)
			if err != nil {
				t.Fatalf("sample optimized %q: %v", name, err)
			}
			b, err := plain.Sample(cp, name, pos)
			if err != nil {
				t.Fatalf("sample plain %q: %v", name, err)
			}
			if math.Abs(float64(a-b)) > 1e-4 {
				t.Fatalf("root %q at %v: optimized %v, plain %v", name, pos, a, b)
			}
		}
	}
	for i := 0; i < 50; i++ {
		pos := cube.Pos{
			int(src.Uint32n(4000)) - 2000,
			0,
			int(src.Uint32n(4000)) - 2000,
		}
		a, _ := optimized.Sample(co, "surface", pos)
		b, _ := plain.Sample(cp, "surface", pos)
		if math.Abs(float64(a-b)) > 8 {
			t.Fatalf("surface at %v: optimized %v, plain %v", pos, a, b)
		}
	}
}

func cloneStack(stack []Component) []Component {
	out := make([]Component, len(stack))
	copy(out, stack)
	for i := range out {
		if out[i].Spline != nil {
			out[i].Spline = cloneSpline(out[i].Spline)
		}
	}
	return out
}

func cloneSpline(s *CompiledSpline) *CompiledSpline {
	c := *s
	c.Values = append([]SplineValue(nil), s.Values...)
	for i := range c.Values {
		if c.Values[i].Spline != nil {
			c.Values[i].Spline = cloneSpline(c.Values[i].Spline)
		}
	}
	return &c
}

func cloneRoots(roots map[string]int) map[string]int {
	out := make(map[string]int, len(roots))
	for k, v := range roots {
		out[k] = v
	}
	return out
}
