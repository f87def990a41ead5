package noise

import (
	"math"
	"testing"

	"github.com/andreypfau/mcrs/worldgen/rand"
)

func near(t *testing.T, got float32, want, tolerance float64) {
	t.Helper()
	if math.Abs(float64(got)-want) > tolerance {
		t.Fatalf("got %v, want %v (±%v)", got, want, tolerance)
	}
}

func TestImprovedCreate(t *testing.T) {
	n := NewImproved(rand.NewLegacy(845))
	x, y, z := n.Origin()
	near(t, x, 179.49112098377014, 1e-3)
	near(t, y, 178.89801548324886, 1e-3)
	near(t, z, 139.89344963681773, 1e-3)

	expected := []uint8{12, 160, 244, 220, 152, 102, 106, 117, 151, 137}
	for i, e := range expected {
		if n.permutation[i] != e {
			t.Fatalf("permutation[%d] = %d, want %d", i, n.permutation[i], e)
		}
	}
}

func TestImprovedSample(t *testing.T) {
	n := NewImproved(rand.NewLegacy(845))
	near(t, n.Sample(0, 0, 0, 0, 0), 0.009862268437005883, 1e-3)
	near(t, n.Sample(0.5, 4, -2, 0, 0), -0.11885865493740287, 1e-3)
	near(t, n.Sample(-204, 28, 12, 0, 0), -0.589681280485348, 1e-3)
}

func TestOctaveSample(t *testing.T) {
	n := NewOctave(rand.NewLegacy(381), -6, []float32{1, 1}, true)
	near(t, n.Sample(0, 0, 0), 0.02904968471563733, 1e-3)
	near(t, n.Sample(0.5, 4, -2), -0.003498819899307167, 1e-3)
	near(t, n.Sample(-204, 28, 12), 0.19407799903721645, 1e-3)
}

func TestNormalSample(t *testing.T) {
	n := NewNormal(rand.NewLegacy(82), -6, []float32{1, 1})
	near(t, n.Sample(0, 0, 0), -0.11173738673691287, 1e-3)
	near(t, n.Sample(0.5, 4, -2), -0.12418270136523879, 1e-3)
	near(t, n.Sample(-204, 28, 12), -0.593348747968403, 1e-3)
}

func TestNormalBound(t *testing.T) {
	n := NewNormal(rand.NewXoroshiro(3), -7, []float32{1, 2, 1})
	bound := float64(n.MaxValue())
	r := rand.NewXoroshiro(99)
	for i := 0; i < 2000; i++ {
		x := float32(r.Float64()*4000 - 2000)
		y := float32(r.Float64()*512 - 128)
		z := float32(r.Float64()*4000 - 2000)
		if v := math.Abs(float64(n.Sample(x, y, z))); v > bound {
			t.Fatalf("|sample(%v, %v, %v)| = %v exceeds bound %v", x, y, z, v, bound)
		}
	}
}

func TestBlendedBound(t *testing.T) {
	n := NewBlended(rand.New(0, true), 0.25, 0.125, 80, 160, 8)
	bound := float64(n.MaxValue())
	r := rand.NewXoroshiro(7)
	for i := 0; i < 500; i++ {
		x := int(r.Uint32n(4000)) - 2000
		y := int(r.Uint32n(384)) - 64
		z := int(r.Uint32n(4000)) - 2000
		v := math.Abs(float64(n.Sample(x, y, z)))
		if v > bound {
			t.Fatalf("|sample(%d, %d, %d)| = %v exceeds bound %v", x, y, z, v, bound)
		}
		// The surface predictor depends on the blended output staying
		// within ±2.
		if v > 2 {
			t.Fatalf("|sample(%d, %d, %d)| = %v exceeds the predictor bound 2", x, y, z, v)
		}
	}
}

func TestOctaveDeterministic(t *testing.T) {
	a := NewOctave(rand.NewXoroshiro(11), -5, []float32{1, 1, 0, 1}, false)
	b := NewOctave(rand.NewXoroshiro(11), -5, []float32{1, 1, 0, 1}, false)
	r := rand.NewXoroshiro(12)
	for i := 0; i < 200; i++ {
		x := float32(r.Float64() * 100)
		y := float32(r.Float64() * 100)
		z := float32(r.Float64() * 100)
		if a.Sample(x, y, z) != b.Sample(x, y, z) {
			t.Fatalf("same seed produced different fields at (%v, %v, %v)", x, y, z)
		}
	}
}

func TestMaintainPrecision(t *testing.T) {
	if v := MaintainPrecision(10); v != 10 {
		t.Fatalf("small values must pass through, got %v", v)
	}
	if v := MaintainPrecision(precisionModulus + 5); math.Abs(float64(v-5)) > 4 {
		t.Fatalf("large values must fold towards zero, got %v", v)
	}
}
