package density

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/andreypfau/mcrs/worldgen/noise"
)

func testNoise(firstOctave int, amplitudes ...float64) NoiseRef {
	return NoiseRef{Params: &noise.Parameters{FirstOctave: firstOctave, Amplitudes: amplitudes}}
}

// testFunctions builds a compact overworld-shaped graph exercising the whole
// operator set: barriers, shifted noise, splines, the slide chain, a
// RangeChoice with disjoint branches and a top-surface probe.
func testFunctions() map[string]Def {
	continents := FlatCache{Input: ShiftedNoise{
		ShiftX:  Ref("shift_x"),
		ShiftY:  Constant(0),
		ShiftZ:  Ref("shift_z"),
		XZScale: 0.25,
		Noise:   testNoise(-7, 1, 1, 2),
	}}
	offsetSpline := Spline{
		Coordinate: Ref("continents"),
		Points: []SplinePoint{
			{Location: -1, Value: Constant(-0.2)},
			{Location: -0.4, Value: Constant(-0.1)},
			{Location: 0, Derivative: 0.1, Value: Spline{
				Coordinate: Ref("erosion"),
				Points: []SplinePoint{
					{Location: -1, Value: Constant(0.1)},
					{Location: 1, Value: Constant(0.35)},
				},
			}},
			{Location: 1, Value: Constant(0.4)},
		},
	}
	return map[string]Def{
		"shift_x":    FlatCache{Input: Cache2D{Input: ShiftA{Noise: testNoise(-3, 1, 1, 1, 0)}}},
		"shift_z":    FlatCache{Input: Cache2D{Input: ShiftB{Noise: testNoise(-3, 1, 1, 1, 0)}}},
		"continents": continents,
		"erosion": FlatCache{Input: ShiftedNoise{
			ShiftX:  Ref("shift_x"),
			ShiftY:  Constant(0),
			ShiftZ:  Ref("shift_z"),
			XZScale: 0.25,
			Noise:   testNoise(-8, 1, 0, 1),
		}},
		"offset": FlatCache{Input: Cache2D{Input: Add{A: Constant(-0.5), B: offsetSpline}}},
		"factor": FlatCache{Input: Cache2D{Input: Spline{
			Coordinate: Ref("erosion"),
			Points: []SplinePoint{
				{Location: -1, Value: Constant(5)},
				{Location: 1, Value: Constant(2.5)},
			},
		}}},
		"depth": Add{
			A: YClampedGradient{FromY: -64, ToY: 320, FromValue: 1.5, ToValue: -1.5},
			B: Ref("offset"),
		},
		"base_3d_noise": BlendedNoise{XZScale: 0.25, YScale: 0.125, XZFactor: 80, YFactor: 160, SmearScaleMultiplier: 8},
		"sloped_cheese": Add{
			A: Mul{A: Constant(4), B: QuarterNegative{Input: Mul{A: Ref("depth"), B: Ref("factor")}}},
			B: Ref("base_3d_noise"),
		},
		"entrances": CacheOnce{Input: Add{
			A: WeirdScaled{
				Input:  Noise{Noise: testNoise(-11, 1), XZScale: 2, YScale: 1},
				Noise:  testNoise(-7, 1),
				Mapper: RarityType1,
			},
			B: Clamp{Input: Noise{Noise: testNoise(-8, 1), XZScale: 1, YScale: 1}, Min: -0.6, Max: -0.3},
		}},
		"cheese": Add{
			A: Noise{Noise: testNoise(-8, 0.5, 1, 2, 1), XZScale: 1, YScale: 0.6666666666666666},
			B: Add{A: Constant(0.45), B: Mul{
				A: Constant(1.2),
				B: Square{Input: Noise{Noise: testNoise(-8, 1), XZScale: 1, YScale: 8}},
			}},
		},
		"pre_slide": RangeChoice{
			Input:        Ref("sloped_cheese"),
			MinInclusive: -1000000,
			MaxExclusive: 1.5625,
			WhenIn:       Min{A: Ref("sloped_cheese"), B: Mul{A: Constant(5), B: Ref("entrances")}},
			WhenOut:      Min{A: Ref("cheese"), B: Mul{A: Constant(5), B: Ref("entrances")}},
		},
		"slided": Add{
			A: Mul{
				A: YClampedGradient{FromY: 240, ToY: 256, FromValue: 1, ToValue: 0},
				B: Add{
					A: Mul{
						A: YClampedGradient{FromY: -64, ToY: -40, FromValue: 0, ToValue: 1},
						B: Add{A: Ref("pre_slide"), B: Constant(-0.078125)},
					},
					B: Constant(0.1171875),
				},
			},
			B: Constant(-0.0078125),
		},
		"noodle": Add{
			A: Mul{A: Constant(8), B: Abs{Input: Noise{Noise: testNoise(-8, 1), XZScale: 1, YScale: 1}}},
			B: Constant(0.05),
		},
		"final": Interpolated{Input: BlendDensity{Input: Min{
			A: Squeeze{Input: Mul{A: Constant(0.64), B: Ref("slided")}},
			B: Ref("noodle"),
		}}},
	}
}

func testRoots() map[string]Def {
	return map[string]Def{
		RootFinalDensity: Ref("final"),
		"continents":     Ref("continents"),
		"erosion":        Ref("erosion"),
		"offset":         Ref("offset"),
		"factor":         Ref("factor"),
		"depth":          Ref("depth"),
		"surface": FindTopSurface{
			Density:    Ref("slided"),
			UpperBound: Constant(320),
			LowerBound: -64,
			CellHeight: 8,
		},
	}
}

func compileTest(t *testing.T, opts CompileOptions) *Router {
	t.Helper()
	if opts.Functions == nil {
		opts.Functions = testFunctions()
	}
	if opts.Roots == nil {
		opts.Roots = testRoots()
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	r, err := Compile(opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return r
}

func TestCompileTopologicalOrder(t *testing.T) {
	for _, disable := range []bool{false, true} {
		r := compileTest(t, CompileOptions{Seed: 1, DisableOptimizer: disable})
		if err := validateStack(r.stack); err != nil {
			t.Fatalf("optimizer disabled %v: %v", disable, err)
		}
	}
}

func TestCompileHashConsing(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 1, DisableOptimizer: true})
	// The graph references shift_x, erosion and sloped_cheese several
	// times; consing must emit each subtree once. Count barriers as a
	// proxy: two shift wrappers, continents, erosion, offset, factor.
	flat := 0
	for _, c := range r.stack {
		if c.Op == OpFlatCache {
			flat++
		}
	}
	if flat != 6 {
		t.Fatalf("expected 6 flat cache entries after consing, got %d", flat)
	}
}

func TestCompileFinalDensityAtBoundary(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 1})
	fd, ok := r.Root(RootFinalDensity)
	if !ok {
		t.Fatalf("router must expose %q", RootFinalDensity)
	}
	if fd != r.fdBoundary-1 {
		t.Fatalf("final density at %d, want fd boundary - 1 = %d", fd, r.fdBoundary-1)
	}
	if r.columnBoundary > r.fdBoundary || r.fdBoundary > len(r.stack) {
		t.Fatalf("invalid boundaries %d, %d over %d entries", r.columnBoundary, r.fdBoundary, len(r.stack))
	}
}

func TestCompileZoneMonotonicity(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 1})
	for i := range r.stack {
		c := &r.stack[i]
		c.eachInput(func(p *int32) {
			in := &r.stack[*p]
			switch c.Zone {
			case ZoneColumn:
				if in.Zone != ZoneColumn {
					t.Fatalf("column entry %d reads zone %d entry %d", i, in.Zone, *p)
				}
			case ZonePerBlock:
				if in.Zone == ZoneOther {
					t.Fatalf("per-block entry %d reads other-zone entry %d", i, *p)
				}
			}
		})
	}
	for i := range r.stack[:r.columnBoundary] {
		if r.stack[i].Op == OpFlatCache || r.stack[i].Op == OpCache2D {
			return
		}
	}
	t.Fatalf("expected at least one barrier inside the column zone")
}

func TestCompileErrors(t *testing.T) {
	base := func() CompileOptions {
		return CompileOptions{
			Log:       slog.New(slog.DiscardHandler),
			Functions: testFunctions(),
			Roots:     testRoots(),
		}
	}

	opts := base()
	delete(opts.Roots, RootFinalDensity)
	if _, err := Compile(opts); !errors.Is(err, ErrUnknownRoot) {
		t.Fatalf("missing final density: got %v", err)
	}

	opts = base()
	opts.Roots["broken"] = Ref("nope")
	if _, err := Compile(opts); !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("unknown function: got %v", err)
	}

	opts = base()
	opts.Functions["loop_a"] = Add{A: Ref("loop_b"), B: Constant(1)}
	opts.Functions["loop_b"] = Ref("loop_a")
	opts.Roots["loop"] = Ref("loop_a")
	if _, err := Compile(opts); !errors.Is(err, ErrCyclicReference) {
		t.Fatalf("reference cycle: got %v", err)
	}

	opts = base()
	opts.Roots["noise"] = Noise{Noise: NoiseRef{Name: "minecraft:missing"}, XZScale: 1, YScale: 1}
	if _, err := Compile(opts); !errors.Is(err, ErrUnknownNoise) {
		t.Fatalf("unknown noise: got %v", err)
	}

	opts = base()
	opts.Roots["spline"] = Spline{
		Coordinate: Constant(0),
		Points:     []SplinePoint{{Location: 0, Value: Abs{Input: Constant(1)}}},
	}
	if _, err := Compile(opts); !errors.Is(err, ErrSplineValue) {
		t.Fatalf("bad spline value: got %v", err)
	}
}

func TestCacheOnceOfConstantCollapses(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 0, DisableOptimizer: true, Functions: map[string]Def{},
		Roots: map[string]Def{RootFinalDensity: CacheOnce{Input: Constant(2)}}})
	if r.Len() != 1 || r.stack[0].Op != OpConstant {
		t.Fatalf("cache once of a constant must compile to the constant, got %d entries", r.Len())
	}
}

func TestSampleUnknownRoot(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 1})
	c := r.NewCache()
	if _, err := r.Sample(c, "missing", cube.Pos{0, 64, 0}); !errors.Is(err, ErrUnknownRoot) {
		t.Fatalf("expected ErrUnknownRoot, got %v", err)
	}
}

func TestLegacyRandomCompiles(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 3, LegacyRandom: true})
	c := r.NewCache()
	v, err := r.Sample(c, RootFinalDensity, cube.Pos{8, 64, 8})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if v != v { // NaN
		t.Fatalf("legacy router produced NaN")
	}
}
