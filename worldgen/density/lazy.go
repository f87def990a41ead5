package density

import "sort"

// branchPlan precomputes, for one RangeChoice in the per-block zone, the
// disjoint sets of stack indices reachable only through its in-range and
// only through its out-of-range branch. Everything else is common and always
// evaluated.
type branchPlan struct {
	choice   int
	selector int32
	inOnly   []int32
	outOnly  []int32
}

// planLazyBranches builds a branch plan for every RangeChoice inside the
// per-block zone. The sets are conservative: an index reachable from both
// branches, or from any path that bypasses the RangeChoice, stays common.
func planLazyBranches(stack []Component, columnBoundary, fdBoundary int) []branchPlan {
	if fdBoundary == columnBoundary {
		return nil
	}
	fd := fdBoundary - 1

	var plans []branchPlan
	for rc := columnBoundary; rc < fdBoundary; rc++ {
		c := &stack[rc]
		if c.Op != OpRangeChoice {
			continue
		}
		reachIn := reachSet(stack, c.In2)
		reachOut := reachSet(stack, c.In3)

		// Reach final density treating this RangeChoice as depending on
		// its selector alone; whatever still gets visited is needed no
		// matter which branch wins.
		bypass := make([]bool, len(stack))
		var mark func(i int32)
		mark = func(i int32) {
			if bypass[i] {
				return
			}
			bypass[i] = true
			if int(i) == rc {
				mark(stack[i].In)
				return
			}
			stack[i].eachInput(func(p *int32) { mark(*p) })
		}
		mark(int32(fd))

		plan := branchPlan{choice: rc, selector: c.In}
		for i := columnBoundary; i < fdBoundary; i++ {
			switch {
			case bypass[i]:
			case reachIn[i] && !reachOut[i]:
				plan.inOnly = append(plan.inOnly, int32(i))
			case reachOut[i] && !reachIn[i]:
				plan.outOnly = append(plan.outOnly, int32(i))
			}
		}
		if len(plan.inOnly) > 0 || len(plan.outOnly) > 0 {
			plans = append(plans, plan)
		}
	}
	// The hot path walks the stack once and decides each plan as soon as
	// its selector value lands in the scratch buffer.
	sort.Slice(plans, func(i, j int) bool { return plans[i].selector < plans[j].selector })
	return plans
}

func reachSet(stack []Component, root int32) []bool {
	seen := make([]bool, len(stack))
	var mark func(i int32)
	mark = func(i int32) {
		if seen[i] {
			return
		}
		seen[i] = true
		stack[i].eachInput(func(p *int32) { mark(*p) })
	}
	mark(root)
	return seen
}
