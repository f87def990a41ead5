package density

// partitionStack classifies every stack entry by coordinate dependency and
// reorders the stack into three contiguous zones: column-only entries feeding
// the final density root, per-block entries feeding it, and everything else.
// Topological order is preserved within each zone and input indices are
// remapped through the permutation.
func partitionStack(stack []Component, roots map[string]int) ([]Component, map[string]int, int, int) {
	perBlock := computePerBlock(stack)
	fd := roots[RootFinalDensity]

	fdReach := make([]bool, len(stack))
	var markReach func(i int32)
	markReach = func(i int32) {
		if fdReach[i] {
			return
		}
		fdReach[i] = true
		stack[i].eachInput(func(p *int32) { markReach(*p) })
	}
	markReach(int32(fd))

	// Zone A is every column-only entry on a path to final density, plus
	// the full input closure of those entries: a barrier forces its whole
	// subtree into the column sweep, where Y is fixed to zero.
	zoneA := make([]bool, len(stack))
	var closeOver func(i int32)
	closeOver = func(i int32) {
		if zoneA[i] {
			return
		}
		zoneA[i] = true
		stack[i].eachInput(func(p *int32) { closeOver(*p) })
	}
	for i := range stack {
		if fdReach[i] && !perBlock[i] {
			closeOver(int32(i))
		}
	}

	order := make([]int, 0, len(stack))
	for i := range stack {
		if zoneA[i] {
			order = append(order, i)
		}
	}
	columnBoundary := len(order)
	for i := range stack {
		if fdReach[i] && !zoneA[i] {
			order = append(order, i)
		}
	}
	fdBoundary := len(order)
	for i := range stack {
		if !fdReach[i] && !zoneA[i] {
			order = append(order, i)
		}
	}

	remap := make([]int32, len(stack))
	for newIdx, oldIdx := range order {
		remap[oldIdx] = int32(newIdx)
	}
	out := make([]Component, len(stack))
	for newIdx, oldIdx := range order {
		c := stack[oldIdx]
		c.eachInput(func(p *int32) { *p = remap[*p] })
		c.PerBlock = perBlock[oldIdx]
		switch {
		case newIdx < columnBoundary:
			c.Zone = ZoneColumn
		case newIdx < fdBoundary:
			c.Zone = ZonePerBlock
		default:
			c.Zone = ZoneOther
		}
		out[newIdx] = c
	}
	newRoots := make(map[string]int, len(roots))
	for name, idx := range roots {
		newRoots[name] = int(remap[idx])
	}
	return out, newRoots, columnBoundary, fdBoundary
}

// computePerBlock propagates Y dependency forward through the stack. An entry
// is per-block if its operation reads Y or any of its inputs is per-block;
// the flat cache barriers reset the flag, fixing their subtree to y=0.
func computePerBlock(stack []Component) []bool {
	perBlock := make([]bool, len(stack))
	for i := range stack {
		c := &stack[i]
		switch c.Op {
		case OpFlatCache, OpCache2D:
			continue
		case OpYGradient, OpBlendedNoise, OpSlide, OpWeirdScaled:
			perBlock[i] = true
			continue
		case OpNoise, OpShiftedNoise:
			if c.P1 != 0 {
				perBlock[i] = true
				continue
			}
		}
		c.eachInput(func(p *int32) {
			if perBlock[*p] {
				perBlock[i] = true
			}
		})
	}
	return perBlock
}
