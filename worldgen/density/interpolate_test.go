package density

import (
	"testing"
)

// fillSection runs the plane-filling sweep of one section the way the chunk
// driver does, collecting every corner value.
func fillSection(r *Router, c *DensityCache, cc *ColumnCache, in *SectionInterpolator, blockX, sectionY, blockZ int) [][]float32 {
	corners := make([][]float32, 0, HCorners)
	in.FillPlane(r, c, cc, 0, true, blockX, sectionY, blockZ)
	corners = append(corners, append([]float32(nil), in.startBuf...))
	for cellX := 0; cellX < HCells; cellX++ {
		in.FillPlane(r, c, cc, cellX+1, false, blockX+(cellX+1)*CellWidth, sectionY, blockZ)
		corners = append(corners, append([]float32(nil), in.endBuf...))
		in.SwapBuffers()
	}
	in.EndSection()
	return corners
}

// TestBoundaryReuseMatchesRecompute generates two stacked sections with and
// without Y-boundary reuse; the corner arrays must be identical.
func TestBoundaryReuseMatchesRecompute(t *testing.T) {
	r := compileTest(t, CompileOptions{Seed: 77})
	c := r.NewCache()
	cc := r.NewColumnCache(-32, 96)
	r.PopulateColumns(c, cc)

	withReuse := NewInterpolator()
	var reused [][]float32
	for sectionY := 0; sectionY < 48; sectionY += 16 {
		reused = fillSection(r, c, cc, withReuse, -32, sectionY, 96)
	}

	fresh := NewInterpolator()
	var recomputed [][]float32
	for sectionY := 0; sectionY < 48; sectionY += 16 {
		// Invalidating the boundary forces a full recompute of the
		// bottom corner rows.
		fresh.ResetSectionBoundary()
		recomputed = fillSection(r, c, cc, fresh, -32, sectionY, 96)
	}

	for p := range reused {
		for i := range reused[p] {
			if reused[p][i] != recomputed[p][i] {
				t.Fatalf("plane %d corner %d: reuse %v, recompute %v", p, i, reused[p][i], recomputed[p][i])
			}
		}
	}
}

func TestCornersUniformSign(t *testing.T) {
	in := NewInterpolator()
	set := func(vals [8]float32) {
		in.firstPass = vals
	}
	set([8]float32{1, 2, 3, 4, 5, 6, 7, 8})
	if solid, uniform := in.CornersUniformSign(); !solid || !uniform {
		t.Fatalf("all-positive corners: got solid=%v uniform=%v", solid, uniform)
	}
	set([8]float32{-1, -2, -3, 0, -5, -6, -7, -8})
	if solid, uniform := in.CornersUniformSign(); solid || !uniform {
		t.Fatalf("non-positive corners: got solid=%v uniform=%v", solid, uniform)
	}
	set([8]float32{-1, 2, -3, 4, -5, 6, -7, 8})
	if _, uniform := in.CornersUniformSign(); uniform {
		t.Fatalf("mixed corners must not be uniform")
	}
}

func TestTrilinearInterpolation(t *testing.T) {
	in := NewInterpolator()
	// Corners form the linear field f(x, y, z) = x + 2y + 4z over the
	// unit cell; trilinear interpolation must reproduce it exactly.
	f := func(x, y, z float32) float32 { return x + 2*y + 4*z }
	in.firstPass = [8]float32{
		f(0, 0, 0), f(0, 0, 1), f(0, 1, 0), f(0, 1, 1),
		f(1, 0, 0), f(1, 0, 1), f(1, 1, 0), f(1, 1, 1),
	}
	for _, p := range [][3]float32{{0, 0, 0}, {0.5, 0.25, 0.75}, {1, 1, 1}, {0.125, 0.875, 0.5}} {
		in.InterpolateY(p[1])
		in.InterpolateX(p[0])
		in.InterpolateZ(p[2])
		if got, want := in.Result(), f(p[0], p[1], p[2]); got != want {
			t.Fatalf("at %v: got %v, want %v", p, got, want)
		}
	}
}
