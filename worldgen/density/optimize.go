package density

import (
	"fmt"
	"math"

	"github.com/brentp/intintmap"
)

// optimizeStack applies the peephole rewrite pass to a compiled stack. Each
// component is examined once in stack order; obsolete components are entered
// into a redirect table that later consumers read when resolving their input
// indices. After the pass, components unreachable from the named roots are
// swept and the stack is renumbered.
func optimizeStack(stack []Component, roots map[string]int) ([]Component, map[string]int, error) {
	redirects := intintmap.New(len(stack), 0.6)
	resolve := func(i int32) int32 {
		if v, ok := redirects.Get(int64(i)); ok {
			return int32(v)
		}
		return i
	}
	redirect := func(from int, to int32) {
		redirects.Put(int64(from), int64(resolve(to)))
	}

	constant := func(i int32) (float32, bool) {
		if stack[i].Op == OpConstant {
			return stack[i].P0, true
		}
		return 0, false
	}
	makeConstant := func(c *Component, v float32) {
		*c = Component{Op: OpConstant, In: noInput, In2: noInput, In3: noInput, Min: v, Max: v, P0: v}
	}

	for i := range stack {
		c := &stack[i]
		c.eachInput(func(p *int32) { *p = resolve(*p) })

		switch c.Op {
		case OpCacheOnce, OpCacheInCell:
			// The scratch buffer stores every entry's value exactly once
			// per sweep; per-sweep cache wrappers are inert.
			redirect(i, c.In)

		case OpAdd, OpMul, OpMin, OpMax:
			v1, const1 := constant(c.In)
			v2, const2 := constant(c.In2)
			switch {
			case const1 && const2:
				makeConstant(c, applyBinary(c.Op, v1, v2))
			case c.Op == OpMul && ((const1 && v1 == 0) || (const2 && v2 == 0)):
				makeConstant(c, 0)
			case c.Op == OpMul && c.In == c.In2:
				mn, mx := unaryEnvelope(OpSquare, stack[c.In].Min, stack[c.In].Max)
				c.Op, c.In2 = OpSquare, noInput
				c.Min, c.Max = mn, mx
			case (c.Op == OpAdd || c.Op == OpMul) && (const1 || const2):
				in, arg := c.In, v2
				if const1 {
					in, arg = c.In2, v1
				}
				if c.Op == OpAdd {
					c.Op = OpLinearAdd
				} else {
					c.Op = OpLinearMul
				}
				c.In, c.In2, c.P0 = in, noInput, arg
				promoteAffine(stack, i, redirect)
			case c.Op == OpMin && stack[c.In].Max <= stack[c.In2].Min:
				redirect(i, c.In)
			case c.Op == OpMin && stack[c.In2].Max <= stack[c.In].Min:
				redirect(i, c.In2)
			case c.Op == OpMax && stack[c.In].Min >= stack[c.In2].Max:
				redirect(i, c.In)
			case c.Op == OpMax && stack[c.In2].Min >= stack[c.In].Max:
				redirect(i, c.In2)
			}

		case OpLinearAdd, OpLinearMul:
			// Linears only appear through demotion above, but a second
			// optimizer run over an already-optimized stack must leave
			// them in the same fused form.
			promoteAffine(stack, i, redirect)

		case OpAffine:
			promoteAffine(stack, i, redirect)

		case OpAbs, OpSquare, OpCube, OpHalfNeg, OpQuarterNeg, OpSqueeze:
			if v, ok := constant(c.In); ok {
				makeConstant(c, applyUnary(c.Op, v))
				break
			}
			if (c.Op == OpHalfNeg || c.Op == OpQuarterNeg) && stack[c.In].Op == OpAffine {
				k := float32(0.5)
				if c.Op == OpQuarterNeg {
					k = 0.25
				}
				affine := &stack[c.In]
				c.Op = OpPiecewiseAffine
				c.P0, c.P1, c.P2 = affine.P0, affine.P1, k
				c.In = affine.In
			}

		case OpClamp:
			if v, ok := constant(c.In); ok {
				makeConstant(c, clamp32(v, c.P0, c.P1))
				break
			}
			if stack[c.In].Min >= c.P0 && stack[c.In].Max <= c.P1 {
				redirect(i, c.In)
			}

		case OpRangeChoice:
			sel := &stack[c.In]
			switch {
			case sel.Min >= c.P0 && sel.Max < c.P1:
				redirect(i, c.In2)
			case sel.Max < c.P0 || sel.Min >= c.P1:
				redirect(i, c.In3)
			}
		}
	}

	// Resolve the roots through the redirect table before sweeping.
	for name, idx := range roots {
		roots[name] = int(resolve(int32(idx)))
	}

	stack, roots = sweepUnreachable(stack, roots)
	if err := validateStack(stack); err != nil {
		return nil, nil, err
	}
	return stack, roots, nil
}

// promoteAffine rewrites a Linear at index i into the fused multiply-add
// form, folds it into an input Affine if there is one, and eliminates
// identities.
func promoteAffine(stack []Component, i int, redirect func(int, int32)) {
	c := &stack[i]
	switch c.Op {
	case OpLinearAdd:
		c.Op, c.P1, c.P0 = OpAffine, c.P0, 1
	case OpLinearMul:
		c.Op, c.P1 = OpAffine, 0
	}

	if in := &stack[c.In]; in.Op == OpAffine {
		// Affine(a2,b2) ∘ Affine(a1,b1) = Affine(a1·a2, b1·a2 + b2).
		c.P0, c.P1 = in.P0*c.P0, in.P1*c.P0+c.P1
		c.In = in.In
	}

	switch {
	case c.P0 == 1 && c.P1 == 0:
		redirect(i, c.In)
	case c.P0 == 0:
		v := c.P1
		*c = Component{Op: OpConstant, In: noInput, In2: noInput, In3: noInput, Min: v, Max: v, P0: v}
	default:
		if v := stack[c.In]; v.Op == OpConstant {
			folded := v.P0*c.P0 + c.P1
			*c = Component{Op: OpConstant, In: noInput, In2: noInput, In3: noInput, Min: folded, Max: folded, P0: folded}
			return
		}
		fuseSlide(stack, i)
	}
}

// fuseSlide recognises the five-node slide pattern rooted at an offset-only
// Affine and collapses it into a single OpSlide entry:
//
//	Affine(+c) ← Mul(grad2, Affine(+b) ← Mul(grad1, Affine(+a, input)))
func fuseSlide(stack []Component, i int) {
	c := &stack[i]
	if c.Op != OpAffine || c.P0 != 1 {
		return
	}
	mul2 := &stack[c.In]
	grad2, aff2 := gradMulOperands(stack, mul2)
	if grad2 == nil || aff2 == nil || aff2.Op != OpAffine || aff2.P0 != 1 {
		return
	}
	mul1 := &stack[aff2.In]
	grad1, aff1 := gradMulOperands(stack, mul1)
	if grad1 == nil || aff1 == nil || aff1.Op != OpAffine || aff1.P0 != 1 {
		return
	}

	offA, offB, offC := aff1.P1, aff2.P1, c.P1
	params := &SlideParams{
		FromY1: grad1.P0, ToY1: grad1.P1, FromV1: grad1.P2, ToV1: grad1.P3,
		FromY2: grad2.P0, ToY2: grad2.P1, FromV2: grad2.P2, ToV2: grad2.P3,
		OffA: offA, OffB: offB, OffC: offC,
		Combined: offA + offB + offC,
	}
	params.FastMinY, params.FastMaxY = saturatedRange(grad1)
	lo2, hi2 := saturatedRange(grad2)
	params.FastMinY = max32(params.FastMinY, lo2)
	params.FastMaxY = min32(params.FastMaxY, hi2)

	in := aff1.In
	*c = Component{
		Op: OpSlide, In: in, In2: noInput, In3: noInput,
		Min: c.Min, Max: c.Max,
		Slide: params,
	}
}

// gradMulOperands splits a multiplication into its Y-gradient operand and the
// other operand, in either order.
func gradMulOperands(stack []Component, mul *Component) (grad, other *Component) {
	if mul.Op != OpMul {
		return nil, nil
	}
	a, b := &stack[mul.In], &stack[mul.In2]
	if a.Op == OpYGradient {
		return a, b
	}
	if b.Op == OpYGradient {
		return b, a
	}
	return nil, nil
}

// saturatedRange returns the Y interval on which a clamped gradient evaluates
// to exactly one, or an empty interval if there is none.
func saturatedRange(grad *Component) (float32, float32) {
	fromY, toY := grad.P0, grad.P1
	fromV, toV := grad.P2, grad.P3
	switch {
	case fromV == 1 && toV == 1:
		return float32(math.Inf(-1)), float32(math.Inf(1))
	case fromV == 1:
		return float32(math.Inf(-1)), fromY
	case toV == 1:
		return toY, float32(math.Inf(1))
	}
	return float32(math.Inf(1)), float32(math.Inf(-1))
}

func applyBinary(op Op, a, b float32) float32 {
	switch op {
	case OpAdd:
		return a + b
	case OpMul:
		return a * b
	case OpMin:
		return min32(a, b)
	}
	return max32(a, b)
}

// sweepUnreachable removes components not reachable from the named roots and
// renumbers the survivors, preserving order.
func sweepUnreachable(stack []Component, roots map[string]int) ([]Component, map[string]int) {
	reachable := make([]bool, len(stack))
	var mark func(i int32)
	mark = func(i int32) {
		if reachable[i] {
			return
		}
		reachable[i] = true
		stack[i].eachInput(func(p *int32) { mark(*p) })
	}
	for _, idx := range roots {
		mark(int32(idx))
	}

	remap := make([]int32, len(stack))
	out := make([]Component, 0, len(stack))
	for i := range stack {
		if !reachable[i] {
			remap[i] = noInput
			continue
		}
		remap[i] = int32(len(out))
		out = append(out, stack[i])
	}
	for i := range out {
		out[i].eachInput(func(p *int32) { *p = remap[*p] })
	}
	newRoots := make(map[string]int, len(roots))
	for name, idx := range roots {
		newRoots[name] = int(remap[idx])
	}
	return out, newRoots
}

// validateStack checks the topological invariant: every input index refers to
// an earlier entry.
func validateStack(stack []Component) error {
	for i := range stack {
		bad := false
		stack[i].eachInput(func(p *int32) {
			if *p < 0 || *p >= int32(i) {
				bad = true
			}
		})
		if bad {
			return fmt.Errorf("component %d reads a non-earlier input", i)
		}
	}
	return nil
}
