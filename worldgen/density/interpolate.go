package density

// Cell grid constants of a 16×16×16 section: 4×2×4 cells of 4×8×4 blocks,
// giving a 5×3×5 corner grid.
const (
	// HCells is the number of cells per horizontal axis of a section.
	HCells = 4
	// VCells is the number of cells per vertical axis of a section.
	VCells = 2
	// HCorners and VCorners are the corner grid side lengths.
	HCorners = HCells + 1
	VCorners = VCells + 1
)

// SectionInterpolator trilinearly interpolates the sparse cell corner grid of
// a section. Two Y-Z corner planes slide along X; the top corner row of a
// finished section is kept so the next section above reuses it instead of
// resampling.
type SectionInterpolator struct {
	startBuf, endBuf []float32

	savedTopY            [HCorners][HCorners]float32
	sectionBoundaryValid bool

	firstPass  [8]float32
	secondPass [4]float32
	thirdPass  [2]float32
	result     float32
}

// NewInterpolator returns an interpolator with empty corner planes.
func NewInterpolator() *SectionInterpolator {
	return &SectionInterpolator{
		startBuf: make([]float32, VCorners*HCorners),
		endBuf:   make([]float32, VCorners*HCorners),
	}
}

func bufIndex(cellY, cellZ int) int {
	return cellZ*VCorners + cellY
}

// FillPlane samples the Y-Z corner plane at X index planeX of the section
// with bottom corner (blockX, sectionY, blockZ), into the start or end
// buffer. Bottom corners are reused from the previous section's saved top row
// when the section boundary is still valid.
func (in *SectionInterpolator) FillPlane(r *Router, c *DensityCache, cc *ColumnCache, planeX int, start bool, blockX, sectionY, blockZ int) {
	buf := in.endBuf
	if start {
		buf = in.startBuf
	}
	originX, originZ := cc.Origin()
	localX := blockX - originX
	for iz := 0; iz < HCorners; iz++ {
		z := blockZ + iz*CellWidth
		for iy := 0; iy < VCorners; iy++ {
			var v float32
			if iy == 0 && in.sectionBoundaryValid {
				v = in.savedTopY[planeX][iz]
			} else {
				v = r.FinalDensityFromColumnCache(c, cc, localX, z-originZ, blockX, sectionY+iy*CellHeight, z)
			}
			buf[bufIndex(iy, iz)] = v
			if iy == VCorners-1 {
				in.savedTopY[planeX][iz] = v
			}
		}
	}
}

// OnSampledCellCorners loads the eight corners of the cell at (cellY, cellZ)
// between the two planes.
func (in *SectionInterpolator) OnSampledCellCorners(cellY, cellZ int) {
	in.firstPass[0] = in.startBuf[bufIndex(cellY, cellZ)]
	in.firstPass[1] = in.startBuf[bufIndex(cellY, cellZ+1)]
	in.firstPass[4] = in.endBuf[bufIndex(cellY, cellZ)]
	in.firstPass[5] = in.endBuf[bufIndex(cellY, cellZ+1)]
	in.firstPass[2] = in.startBuf[bufIndex(cellY+1, cellZ)]
	in.firstPass[3] = in.startBuf[bufIndex(cellY+1, cellZ+1)]
	in.firstPass[6] = in.endBuf[bufIndex(cellY+1, cellZ)]
	in.firstPass[7] = in.endBuf[bufIndex(cellY+1, cellZ+1)]
}

// CornersUniformSign examines the loaded cell corners: solid reports whether
// all corners are positive, uniform whether all corners agree in sign. Only a
// uniform cell may skip per-block interpolation.
func (in *SectionInterpolator) CornersUniformSign() (solid, uniform bool) {
	positive, nonPositive := 0, 0
	for _, v := range in.firstPass {
		if v > 0 {
			positive++
		} else {
			nonPositive++
		}
	}
	switch {
	case positive == len(in.firstPass):
		return true, true
	case nonPositive == len(in.firstPass):
		return false, true
	}
	return false, false
}

// InterpolateY collapses the eight corners to four at the given Y fraction.
func (in *SectionInterpolator) InterpolateY(delta float32) {
	in.secondPass[0] = lerp32(delta, in.firstPass[0], in.firstPass[2])
	in.secondPass[2] = lerp32(delta, in.firstPass[4], in.firstPass[6])
	in.secondPass[1] = lerp32(delta, in.firstPass[1], in.firstPass[3])
	in.secondPass[3] = lerp32(delta, in.firstPass[5], in.firstPass[7])
}

// InterpolateX collapses four to two at the given X fraction.
func (in *SectionInterpolator) InterpolateX(delta float32) {
	in.thirdPass[0] = lerp32(delta, in.secondPass[0], in.secondPass[2])
	in.thirdPass[1] = lerp32(delta, in.secondPass[1], in.secondPass[3])
}

// InterpolateZ collapses two to the final value at the given Z fraction.
func (in *SectionInterpolator) InterpolateZ(delta float32) {
	in.result = lerp32(delta, in.thirdPass[0], in.thirdPass[1])
}

// Result returns the value of the last InterpolateZ call.
func (in *SectionInterpolator) Result() float32 {
	return in.result
}

// SwapBuffers advances the sliding planes by one cell along X.
func (in *SectionInterpolator) SwapBuffers() {
	in.startBuf, in.endBuf = in.endBuf, in.startBuf
}

// EndSection marks the saved top corner rows as valid for reuse by the next
// section up.
func (in *SectionInterpolator) EndSection() {
	in.sectionBoundaryValid = true
}

// ResetSectionBoundary invalidates the saved rows; call it when a section is
// skipped entirely.
func (in *SectionInterpolator) ResetSectionBoundary() {
	in.sectionBoundaryValid = false
}
