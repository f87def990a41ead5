// Package noise implements the deterministic scalar noise fields sampled by
// the density function engine: the permutation-table gradient noise, its
// octave and double-octave blends and the legacy terrain noise.
package noise

import (
	"math"

	"github.com/andreypfau/mcrs/worldgen/rand"
)

// flatSimplexGrad is the gradient table, four entries per vector so a hash
// shifted left by two indexes the vector directly.
var flatSimplexGrad = [64]float32{
	1, 1, 0, 0, -1, 1, 0, 0, 1, -1, 0, 0, -1, -1, 0, 0,
	1, 0, 1, 0, -1, 0, 1, 0, 1, 0, -1, 0, -1, 0, -1, 0,
	0, 1, 1, 0, 0, -1, 1, 0, 0, 1, -1, 0, 0, -1, -1, 0,
	1, 1, 0, 0, 0, -1, 1, 0, -1, 1, 0, 0, 0, -1, -1, 0,
}

// Improved is a single octave of permutation-table gradient noise. The origin
// offsets and the permutation are drawn from the random source at
// construction, so equal sources produce equal fields.
type Improved struct {
	permutation [256]uint8

	originX, originY, originZ float32
}

// NewImproved draws a noise octave from r.
func NewImproved(r rand.Source) *Improved {
	n := &Improved{
		originX: float32(r.Float64() * 256),
		originY: float32(r.Float64() * 256),
		originZ: float32(r.Float64() * 256),
	}
	for i := range n.permutation {
		n.permutation[i] = uint8(i)
	}
	for i := uint32(0); i < 256; i++ {
		j := r.Uint32n(256 - i)
		n.permutation[i], n.permutation[i+j] = n.permutation[i+j], n.permutation[i]
	}
	return n
}

// Origin returns the random origin offset of the octave.
func (n *Improved) Origin() (x, y, z float32) {
	return n.originX, n.originY, n.originZ
}

// Sample evaluates the octave at (x, y, z). A non-zero yScale smears the Y
// fade coordinate to yScale-sized steps, clamped at yMax when yMax >= 0; both
// zero gives plain gradient noise.
func (n *Improved) Sample(x, y, z, yScale, yMax float32) float32 {
	shiftedX := x + n.originX
	shiftedY := y + n.originY
	shiftedZ := z + n.originZ
	sectionX := floor32(shiftedX)
	sectionY := floor32(shiftedY)
	sectionZ := floor32(shiftedZ)
	localX := shiftedX - float32(sectionX)
	localY := shiftedY - float32(sectionY)
	localZ := shiftedZ - float32(sectionZ)

	var fade float32
	if yScale != 0 {
		t := localY
		if yMax >= 0 && yMax < localY {
			t = yMax
		}
		fade = float32(math.Floor(float64(t/yScale+1.0e-7))) * yScale
	}
	return n.sampleAndLerp(sectionX, sectionY, sectionZ, localX, localY-fade, localZ, localY)
}

// sampleAndLerp hashes the eight cell corners, takes the gradient dot products
// and interpolates them with the quintic fade curve.
func (n *Improved) sampleAndLerp(sectionX, sectionY, sectionZ int, localX, localY, localZ, fadeLocalY float32) float32 {
	perm := &n.permutation

	p0 := uint(perm[sectionX&0xFF])
	p1 := uint(perm[(sectionX+1)&0xFF])

	sy := uint(sectionY)
	p4 := uint(perm[(p0+sy)&0xFF])
	p5 := uint(perm[(p1+sy)&0xFF])
	p6 := uint(perm[(p0+sy+1)&0xFF])
	p7 := uint(perm[(p1+sy+1)&0xFF])

	sz := uint(sectionZ)
	h000 := uint(perm[(p4+sz)&0xFF]&15) << 2
	h100 := uint(perm[(p5+sz)&0xFF]&15) << 2
	h010 := uint(perm[(p6+sz)&0xFF]&15) << 2
	h110 := uint(perm[(p7+sz)&0xFF]&15) << 2
	h001 := uint(perm[(p4+sz+1)&0xFF]&15) << 2
	h101 := uint(perm[(p5+sz+1)&0xFF]&15) << 2
	h011 := uint(perm[(p6+sz+1)&0xFF]&15) << 2
	h111 := uint(perm[(p7+sz+1)&0xFF]&15) << 2

	x1 := localX - 1
	y1 := localY - 1
	z1 := localZ - 1

	g := &flatSimplexGrad
	d000 := g[h000]*localX + g[h000+1]*localY + g[h000+2]*localZ
	d100 := g[h100]*x1 + g[h100+1]*localY + g[h100+2]*localZ
	d010 := g[h010]*localX + g[h010+1]*y1 + g[h010+2]*localZ
	d110 := g[h110]*x1 + g[h110+1]*y1 + g[h110+2]*localZ
	d001 := g[h001]*localX + g[h001+1]*localY + g[h001+2]*z1
	d101 := g[h101]*x1 + g[h101+1]*localY + g[h101+2]*z1
	d011 := g[h011]*localX + g[h011+1]*y1 + g[h011+2]*z1
	d111 := g[h111]*x1 + g[h111+1]*y1 + g[h111+2]*z1

	fadeX := fadeCurve(localX)
	fadeY := fadeCurve(fadeLocalY)
	fadeZ := fadeCurve(localZ)

	l00 := lerp(fadeX, d000, d100)
	l10 := lerp(fadeX, d010, d110)
	l01 := lerp(fadeX, d001, d101)
	l11 := lerp(fadeX, d011, d111)
	ll0 := lerp(fadeY, l00, l10)
	ll1 := lerp(fadeY, l01, l11)
	return lerp(fadeZ, ll0, ll1)
}

// fadeCurve is the quintic t³(6t² - 15t + 10).
func fadeCurve(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

// Lerp returns start + delta*(end-start).
func Lerp(delta, start, end float32) float32 {
	return lerp(delta, start, end)
}

func lerp(delta, start, end float32) float32 {
	return start + delta*(end-start)
}

func floor32(v float32) int {
	return int(math.Floor(float64(v)))
}
