package density

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/andreypfau/mcrs/worldgen/noise"
	"github.com/andreypfau/mcrs/worldgen/rand"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
)

// RootFinalDensity is the root name driving terrain shaping. Every compiled
// router must expose it.
const RootFinalDensity = "final_density"

// CompileOptions configure a Compile call.
type CompileOptions struct {
	// Log is the logger construction statistics are reported to. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// Functions is the registry Ref nodes resolve against.
	Functions map[string]Def
	// Noises is the registry named noises resolve against.
	Noises map[string]noise.Parameters
	// Roots are the named roots the router exposes. Roots must contain
	// RootFinalDensity.
	Roots map[string]Def
	// Seed is the world seed all noise samplers derive from.
	Seed int64
	// LegacyRandom selects the pre-1.18 LCG seeding paths.
	LegacyRandom bool
	// DisableOptimizer skips the peephole pass, keeping the stack as
	// compiled. Used by equivalence validation; production routers should
	// leave it unset.
	DisableOptimizer bool
	// DisableLazy disables lazy RangeChoice branch skipping in the hot
	// evaluation path.
	DisableLazy bool
}

// Compile builds an immutable Router from a density function description.
// The same options always produce the same router.
func Compile(opts CompileOptions) (*Router, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if _, ok := opts.Roots[RootFinalDensity]; !ok {
		return nil, fmt.Errorf("compile density graph: %w: %q", ErrUnknownRoot, RootFinalDensity)
	}

	b := &builder{
		opts:      &opts,
		random:    rand.New(opts.Seed, opts.LegacyRandom),
		consed:    make(map[uint64][]consEntry),
		refKeys:   make(map[string]string),
		resolving: make(map[string]bool),
		samplers:  make(map[string]*noise.Normal),
	}

	rootNames := maps.Keys(opts.Roots)
	sort.Strings(rootNames)

	roots := make(map[string]int, len(rootNames))
	for _, name := range rootNames {
		idx, err := b.compileDef(opts.Roots[name])
		if err != nil {
			return nil, fmt.Errorf("compile density graph: root %q: %w", name, err)
		}
		roots[name] = idx
	}
	log.Debug("compiled density stack", "components", len(b.stack), "roots", len(roots))

	stack := b.stack
	if !opts.DisableOptimizer {
		var err error
		stack, roots, err = optimizeStack(stack, roots)
		if err != nil {
			return nil, fmt.Errorf("compile density graph: %w", err)
		}
		log.Debug("optimized density stack", "components", len(stack))
	}

	stack, roots, columnBoundary, fdBoundary := partitionStack(stack, roots)
	log.Debug("partitioned density stack",
		"column", columnBoundary, "per_block", fdBoundary-columnBoundary, "other", len(stack)-fdBoundary)

	r := &Router{
		stack:          stack,
		roots:          roots,
		columnBoundary: columnBoundary,
		fdBoundary:     fdBoundary,
		seed:           opts.Seed,
		lazy:           !opts.DisableLazy,
	}
	r.plans = planLazyBranches(stack, columnBoundary, fdBoundary)
	return r, nil
}

type consEntry struct {
	key   string
	index int
}

type builder struct {
	opts      *CompileOptions
	random    rand.Source
	stack     []Component
	consed    map[uint64][]consEntry
	refKeys   map[string]string
	resolving map[string]bool
	samplers  map[string]*noise.Normal
}

// emit appends c to the stack unless a structurally identical definition was
// emitted before, and returns the component's index.
func (b *builder) emit(key string, c Component) (int, error) {
	h := xxhash.Sum64String(key)
	for _, e := range b.consed[h] {
		if e.key == key {
			return e.index, nil
		}
	}
	if err := checkEnvelope(c); err != nil {
		return 0, err
	}
	idx := len(b.stack)
	b.stack = append(b.stack, c)
	b.consed[h] = append(b.consed[h], consEntry{key: key, index: idx})
	return idx, nil
}

func checkEnvelope(c Component) error {
	mn, mx := float64(c.Min), float64(c.Max)
	if math.IsNaN(mn) || math.IsNaN(mx) || mn > mx {
		return fmt.Errorf("%w: op %d: [%v, %v]", ErrInvalidEnvelope, c.Op, c.Min, c.Max)
	}
	return nil
}

func (b *builder) compileDef(d Def) (int, error) {
	if ref, ok := d.(Ref); ok {
		if b.resolving[string(ref)] {
			return 0, fmt.Errorf("%w: %q", ErrCyclicReference, string(ref))
		}
		target, ok := b.opts.Functions[string(ref)]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownFunction, string(ref))
		}
		b.resolving[string(ref)] = true
		idx, err := b.compileDef(target)
		delete(b.resolving, string(ref))
		return idx, err
	}

	key, err := b.defKey(d)
	if err != nil {
		return 0, err
	}

	switch d := d.(type) {
	case Constant:
		return b.emitConstant(float32(d))
	case BlendAlpha:
		return b.emitConstant(1)
	case BlendOffset, Beardifier:
		return b.emitConstant(0)
	case BlendDensity:
		return b.compileDef(d.Input)
	case Interpolated:
		return b.compileDef(d.Input)

	case Noise:
		sampler, err := b.noiseSampler(d.Noise)
		if err != nil {
			return 0, err
		}
		mx := sampler.MaxValue()
		return b.emit(key, Component{
			Op: OpNoise, In: noInput, In2: noInput, In3: noInput,
			Min: -mx, Max: mx,
			P0: float32(d.XZScale), P1: float32(d.YScale),
			Normal: sampler,
		})
	case BlendedNoise:
		var r rand.Source
		if b.random.Legacy() {
			r = rand.New(0, true)
		} else {
			r = b.random.Clone().ForkHash("minecraft:terrain")
		}
		sampler := noise.NewBlended(r,
			float32(d.XZScale), float32(d.YScale),
			float32(d.XZFactor), float32(d.YFactor), float32(d.SmearScaleMultiplier))
		mx := sampler.MaxValue()
		return b.emit(key, Component{
			Op: OpBlendedNoise, In: noInput, In2: noInput, In3: noInput,
			Min: -mx, Max: mx,
			Blended: sampler,
		})
	case ShiftA, ShiftB, Shift:
		var (
			op  Op
			ref NoiseRef
		)
		switch d := d.(type) {
		case ShiftA:
			op, ref = OpShiftA, d.Noise
		case ShiftB:
			op, ref = OpShiftB, d.Noise
		case Shift:
			op, ref = OpShift, d.Noise
		}
		sampler, err := b.noiseSampler(ref)
		if err != nil {
			return 0, err
		}
		mx := sampler.MaxValue() * 4
		return b.emit(key, Component{
			Op: op, In: noInput, In2: noInput, In3: noInput,
			Min: -mx, Max: mx,
			Normal: sampler,
		})
	case ShiftedNoise:
		inX, err := b.compileDef(d.ShiftX)
		if err != nil {
			return 0, err
		}
		inY, err := b.compileDef(d.ShiftY)
		if err != nil {
			return 0, err
		}
		inZ, err := b.compileDef(d.ShiftZ)
		if err != nil {
			return 0, err
		}
		sampler, err := b.noiseSampler(d.Noise)
		if err != nil {
			return 0, err
		}
		mx := sampler.MaxValue()
		return b.emit(key, Component{
			Op: OpShiftedNoise, In: int32(inX), In2: int32(inY), In3: int32(inZ),
			Min: -mx, Max: mx,
			P0: float32(d.XZScale), P1: float32(d.YScale),
			Normal: sampler,
		})
	case WeirdScaled:
		in, err := b.compileDef(d.Input)
		if err != nil {
			return 0, err
		}
		sampler, err := b.noiseSampler(d.Noise)
		if err != nil {
			return 0, err
		}
		mult := float32(2)
		if d.Mapper == RarityType2 {
			mult = 3
		}
		mx := sampler.MaxValue() * mult
		return b.emit(key, Component{
			Op: OpWeirdScaled, In: int32(in), In2: noInput, In3: noInput,
			Min: -mx, Max: mx,
			Normal: sampler, Mapper: d.Mapper,
		})

	case Add, Mul, Min, Max:
		var (
			op   Op
			a, c Def
		)
		switch d := d.(type) {
		case Add:
			op, a, c = OpAdd, d.A, d.B
		case Mul:
			op, a, c = OpMul, d.A, d.B
		case Min:
			op, a, c = OpMin, d.A, d.B
		case Max:
			op, a, c = OpMax, d.A, d.B
		}
		in1, err := b.compileDef(a)
		if err != nil {
			return 0, err
		}
		in2, err := b.compileDef(c)
		if err != nil {
			return 0, err
		}
		mn, mx := binaryEnvelope(op,
			b.stack[in1].Min, b.stack[in1].Max,
			b.stack[in2].Min, b.stack[in2].Max)
		return b.emit(key, Component{
			Op: op, In: int32(in1), In2: int32(in2), In3: noInput,
			Min: mn, Max: mx,
		})

	case Abs, Square, Cube, HalfNegative, QuarterNegative, Squeeze:
		var (
			op    Op
			input Def
		)
		switch d := d.(type) {
		case Abs:
			op, input = OpAbs, d.Input
		case Square:
			op, input = OpSquare, d.Input
		case Cube:
			op, input = OpCube, d.Input
		case HalfNegative:
			op, input = OpHalfNeg, d.Input
		case QuarterNegative:
			op, input = OpQuarterNeg, d.Input
		case Squeeze:
			op, input = OpSqueeze, d.Input
		}
		in, err := b.compileDef(input)
		if err != nil {
			return 0, err
		}
		mn, mx := unaryEnvelope(op, b.stack[in].Min, b.stack[in].Max)
		return b.emit(key, Component{
			Op: op, In: int32(in), In2: noInput, In3: noInput,
			Min: mn, Max: mx,
		})

	case Clamp:
		in, err := b.compileDef(d.Input)
		if err != nil {
			return 0, err
		}
		lo, hi := float32(d.Min), float32(d.Max)
		return b.emit(key, Component{
			Op: OpClamp, In: int32(in), In2: noInput, In3: noInput,
			Min: clamp32(b.stack[in].Min, lo, hi), Max: clamp32(b.stack[in].Max, lo, hi),
			P0: lo, P1: hi,
		})

	case RangeChoice:
		in, err := b.compileDef(d.Input)
		if err != nil {
			return 0, err
		}
		whenIn, err := b.compileDef(d.WhenIn)
		if err != nil {
			return 0, err
		}
		whenOut, err := b.compileDef(d.WhenOut)
		if err != nil {
			return 0, err
		}
		return b.emit(key, Component{
			Op: OpRangeChoice, In: int32(in), In2: int32(whenIn), In3: int32(whenOut),
			Min: min32(b.stack[whenIn].Min, b.stack[whenOut].Min),
			Max: max32(b.stack[whenIn].Max, b.stack[whenOut].Max),
			P0:  float32(d.MinInclusive), P1: float32(d.MaxExclusive),
		})

	case YClampedGradient:
		fromV, toV := float32(d.FromValue), float32(d.ToValue)
		return b.emit(key, Component{
			Op: OpYGradient, In: noInput, In2: noInput, In3: noInput,
			Min: min32(fromV, toV), Max: max32(fromV, toV),
			P0: float32(d.FromY), P1: float32(d.ToY), P2: fromV, P3: toV,
		})

	case Spline:
		compiled, err := b.compileSpline(d)
		if err != nil {
			return 0, err
		}
		return b.emit(key, Component{
			Op: OpSpline, In: compiled.CoordIn, In2: noInput, In3: noInput,
			Min: compiled.Min, Max: compiled.Max,
			Spline: compiled,
		})

	case FlatCache, Cache2D, CacheOnce, CacheAllInCell:
		var (
			op    Op
			input Def
		)
		switch d := d.(type) {
		case FlatCache:
			op, input = OpFlatCache, d.Input
		case Cache2D:
			op, input = OpCache2D, d.Input
		case CacheOnce:
			op, input = OpCacheOnce, d.Input
		case CacheAllInCell:
			op, input = OpCacheInCell, d.Input
		}
		in, err := b.compileDef(input)
		if err != nil {
			return 0, err
		}
		if (op == OpCacheOnce || op == OpCacheInCell) && b.stack[in].Op == OpConstant {
			return in, nil
		}
		return b.emit(key, Component{
			Op: op, In: int32(in), In2: noInput, In3: noInput,
			Min: b.stack[in].Min, Max: b.stack[in].Max,
		})

	case FindTopSurface:
		density, err := b.compileDef(d.Density)
		if err != nil {
			return 0, err
		}
		upper, err := b.compileDef(d.UpperBound)
		if err != nil {
			return 0, err
		}
		lower := float32(d.LowerBound)
		return b.emit(key, Component{
			Op: OpFindTopSurface, In: int32(density), In2: int32(upper), In3: noInput,
			Min: lower, Max: max32(b.stack[upper].Max, lower),
			P0: lower, P1: float32(d.CellHeight),
		})
	}
	return 0, fmt.Errorf("unsupported definition %T", d)
}

func (b *builder) emitConstant(v float32) (int, error) {
	return b.emit("const:"+strconv.FormatFloat(float64(v), 'x', -1, 32), Component{
		Op: OpConstant, In: noInput, In2: noInput, In3: noInput,
		Min: v, Max: v, P0: v,
	})
}

// compileSpline compiles a spline definition and its nested values, computing
// the envelope from control point ranges and derivative overshoot.
func (b *builder) compileSpline(d Spline) (*CompiledSpline, error) {
	coord, err := b.compileDef(d.Coordinate)
	if err != nil {
		return nil, err
	}
	coordMin, coordMax := b.stack[coord].Min, b.stack[coord].Max

	n := len(d.Points) - 1
	if n < 0 {
		return nil, fmt.Errorf("%w: spline without control points", ErrSplineValue)
	}
	locations := make([]float32, len(d.Points))
	derivatives := make([]float32, len(d.Points))
	values := make([]SplineValue, len(d.Points))
	for i, p := range d.Points {
		locations[i] = float32(p.Location)
		derivatives[i] = float32(p.Derivative)
		switch v := p.Value.(type) {
		case Constant:
			values[i] = SplineValue{Const: float32(v)}
		case Spline:
			nested, err := b.compileSpline(v)
			if err != nil {
				return nil, err
			}
			values[i] = SplineValue{Spline: nested}
		default:
			return nil, fmt.Errorf("%w: got %T", ErrSplineValue, p.Value)
		}
	}

	minValue := float32(math.Inf(1))
	maxValue := float32(math.Inf(-1))

	extend := func(point float32, i int, value float32) float32 {
		if derivatives[i] == 0 {
			return value
		}
		return value + derivatives[i]*(point-locations[i])
	}
	if coordMin < locations[0] {
		lo := extend(coordMin, 0, values[0].minValue())
		hi := extend(coordMin, 0, values[0].maxValue())
		minValue = min32(minValue, min32(lo, hi))
		maxValue = max32(maxValue, max32(lo, hi))
	}
	if coordMax > locations[n] {
		lo := extend(coordMax, n, values[n].minValue())
		hi := extend(coordMax, n, values[n].maxValue())
		minValue = min32(minValue, min32(lo, hi))
		maxValue = max32(maxValue, max32(lo, hi))
	}
	for i := range values {
		minValue = min32(minValue, values[i].minValue())
		maxValue = max32(maxValue, values[i].maxValue())
	}
	for i := 0; i < n; i++ {
		locationDelta := locations[i+1] - locations[i]
		derivLeft, derivRight := derivatives[i], derivatives[i+1]
		if derivLeft == 0 && derivRight == 0 {
			continue
		}
		minLeft, maxLeft := values[i].minValue(), values[i].maxValue()
		minRight, maxRight := values[i+1].minValue(), values[i+1].maxValue()

		deltaLeft := derivLeft * locationDelta
		deltaRight := derivRight * locationDelta

		localMin := min32(minLeft, minRight)
		localMax := max32(maxLeft, maxRight)

		minDelta := min32(deltaLeft-maxRight+minLeft, -deltaRight+minRight-maxLeft)
		maxDelta := max32(deltaLeft-minRight+maxLeft, -deltaRight+maxRight-minLeft)

		minValue = min32(minValue, localMin+0.25*minDelta)
		maxValue = max32(maxValue, localMax+0.25*maxDelta)
	}

	segments := make([]SplineSegment, n)
	for i := 0; i < n; i++ {
		dist := locations[i+1] - locations[i]
		segments[i] = SplineSegment{
			Left:           locations[i],
			InvDist:        1 / dist,
			LowerDerivDist: derivatives[i] * dist,
			UpperDerivDist: derivatives[i+1] * dist,
		}
	}
	return &CompiledSpline{
		CoordIn:     int32(coord),
		Min:         minValue,
		Max:         maxValue,
		Locations:   locations,
		Derivatives: derivatives,
		Values:      values,
		Segments:    segments,
	}, nil
}

func (v SplineValue) minValue() float32 {
	if v.Spline != nil {
		return v.Spline.Min
	}
	return v.Const
}

func (v SplineValue) maxValue() float32 {
	if v.Spline != nil {
		return v.Spline.Max
	}
	return v.Const
}

// noiseSampler resolves a noise reference to a sampler, drawing its seed lane
// from a clone of the base random so the result is independent of resolution
// order.
func (b *builder) noiseSampler(ref NoiseRef) (*noise.Normal, error) {
	key := noiseKey(ref)
	if s, ok := b.samplers[key]; ok {
		return s, nil
	}
	var s *noise.Normal
	if ref.Params != nil {
		s = noise.NewNormalParams(b.random.Clone(), *ref.Params)
	} else if legacy, ok := b.random.(*rand.Legacy); ok && legacySampler(ref.Name) {
		s = legacyNoiseSampler(legacy, ref.Name, b.random)
	} else {
		params, ok := b.opts.Noises[ref.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNoise, ref.Name)
		}
		s = noise.NewNormalParams(b.random.Clone().ForkHash(ref.Name), params)
	}
	b.samplers[key] = s
	return s, nil
}

func legacySampler(name string) bool {
	switch name {
	case "minecraft:temperature", "minecraft:vegetation", "minecraft:offset":
		return true
	}
	return false
}

// legacyNoiseSampler reproduces the fixed seeding of the legacy generator's
// climate noises: temperature and vegetation are seeded from the world seed
// (vegetation from seed+1) rather than a hash lane; offset is a flat
// zero-amplitude noise on its own hash lane.
func legacyNoiseSampler(legacy *rand.Legacy, name string, base rand.Source) *noise.Normal {
	switch name {
	case "minecraft:temperature":
		return noise.NewNormal(rand.NewLegacy(int64(legacy.Seed())), -7, []float32{1, 1})
	case "minecraft:vegetation":
		return noise.NewNormal(rand.NewLegacy(int64(legacy.Seed())+1), -7, []float32{1, 1})
	default:
		return noise.NewNormal(base.Clone().ForkHash("minecraft:offset"), 0, []float32{0})
	}
}

func noiseKey(ref NoiseRef) string {
	if ref.Params == nil {
		return "ref:" + ref.Name
	}
	var sb strings.Builder
	sb.WriteString("inline:")
	sb.WriteString(strconv.Itoa(ref.Params.FirstOctave))
	for _, a := range ref.Params.Amplitudes {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(a, 'x', -1, 64))
	}
	return sb.String()
}

// defKey returns a canonical structural encoding of a definition with all
// references resolved; equal keys mean equal subtrees.
func (b *builder) defKey(d Def) (string, error) {
	var sb strings.Builder
	if err := b.appendKey(&sb, d); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (b *builder) appendKey(sb *strings.Builder, d Def) error {
	if ref, ok := d.(Ref); ok {
		if key, ok := b.refKeys[string(ref)]; ok {
			sb.WriteString(key)
			return nil
		}
		if b.resolving[string(ref)] {
			return fmt.Errorf("%w: %q", ErrCyclicReference, string(ref))
		}
		target, ok := b.opts.Functions[string(ref)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFunction, string(ref))
		}
		b.resolving[string(ref)] = true
		key, err := b.defKey(target)
		delete(b.resolving, string(ref))
		if err != nil {
			return err
		}
		b.refKeys[string(ref)] = key
		sb.WriteString(key)
		return nil
	}

	num := func(v float64) {
		sb.WriteString(strconv.FormatFloat(v, 'x', -1, 64))
		sb.WriteByte(',')
	}
	noiseRef := func(ref NoiseRef) {
		sb.WriteString(noiseKey(ref))
		sb.WriteByte(',')
	}

	switch d := d.(type) {
	case Constant:
		sb.WriteString("const(")
		num(float64(d))
	case BlendAlpha:
		sb.WriteString("const(")
		num(1)
	case BlendOffset, Beardifier:
		sb.WriteString("const(")
		num(0)
	case Noise:
		sb.WriteString("noise(")
		noiseRef(d.Noise)
		num(d.XZScale)
		num(d.YScale)
	case BlendedNoise:
		sb.WriteString("blended(")
		num(d.XZScale)
		num(d.YScale)
		num(d.XZFactor)
		num(d.YFactor)
		num(d.SmearScaleMultiplier)
	case ShiftA:
		sb.WriteString("shift_a(")
		noiseRef(d.Noise)
	case ShiftB:
		sb.WriteString("shift_b(")
		noiseRef(d.Noise)
	case Shift:
		sb.WriteString("shift(")
		noiseRef(d.Noise)
	case ShiftedNoise:
		sb.WriteString("shifted_noise(")
		noiseRef(d.Noise)
		num(d.XZScale)
		num(d.YScale)
		for _, in := range []Def{d.ShiftX, d.ShiftY, d.ShiftZ} {
			if err := b.appendKey(sb, in); err != nil {
				return err
			}
		}
	case WeirdScaled:
		sb.WriteString("weird_scaled(")
		noiseRef(d.Noise)
		num(float64(d.Mapper))
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case Add:
		sb.WriteString("add(")
		if err := b.appendKey(sb, d.A); err != nil {
			return err
		}
		if err := b.appendKey(sb, d.B); err != nil {
			return err
		}
	case Mul:
		sb.WriteString("mul(")
		if err := b.appendKey(sb, d.A); err != nil {
			return err
		}
		if err := b.appendKey(sb, d.B); err != nil {
			return err
		}
	case Min:
		sb.WriteString("min(")
		if err := b.appendKey(sb, d.A); err != nil {
			return err
		}
		if err := b.appendKey(sb, d.B); err != nil {
			return err
		}
	case Max:
		sb.WriteString("max(")
		if err := b.appendKey(sb, d.A); err != nil {
			return err
		}
		if err := b.appendKey(sb, d.B); err != nil {
			return err
		}
	case Abs:
		sb.WriteString("abs(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case Square:
		sb.WriteString("square(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case Cube:
		sb.WriteString("cube(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case HalfNegative:
		sb.WriteString("half_negative(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case QuarterNegative:
		sb.WriteString("quarter_negative(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case Squeeze:
		sb.WriteString("squeeze(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case Clamp:
		sb.WriteString("clamp(")
		num(d.Min)
		num(d.Max)
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case RangeChoice:
		sb.WriteString("range_choice(")
		num(d.MinInclusive)
		num(d.MaxExclusive)
		for _, in := range []Def{d.Input, d.WhenIn, d.WhenOut} {
			if err := b.appendKey(sb, in); err != nil {
				return err
			}
		}
	case YClampedGradient:
		sb.WriteString("y_clamped_gradient(")
		num(float64(d.FromY))
		num(float64(d.ToY))
		num(d.FromValue)
		num(d.ToValue)
	case Spline:
		sb.WriteString("spline(")
		if err := b.appendKey(sb, d.Coordinate); err != nil {
			return err
		}
		for _, p := range d.Points {
			num(p.Location)
			num(p.Derivative)
			if err := b.appendKey(sb, p.Value); err != nil {
				return err
			}
		}
	case BlendDensity:
		return b.appendKey(sb, d.Input)
	case Interpolated:
		return b.appendKey(sb, d.Input)
	case FlatCache:
		sb.WriteString("flat_cache(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case Cache2D:
		sb.WriteString("cache_2d(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case CacheOnce:
		sb.WriteString("cache_once(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case CacheAllInCell:
		sb.WriteString("cache_all_in_cell(")
		if err := b.appendKey(sb, d.Input); err != nil {
			return err
		}
	case FindTopSurface:
		sb.WriteString("find_top_surface(")
		num(float64(d.LowerBound))
		num(float64(d.CellHeight))
		for _, in := range []Def{d.Density, d.UpperBound} {
			if err := b.appendKey(sb, in); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported definition %T", d)
	}
	sb.WriteByte(')')
	return nil
}
