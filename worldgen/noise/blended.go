package noise

import (
	"github.com/andreypfau/mcrs/worldgen/rand"
)

// Blended is the legacy interpolated terrain noise: two 16-octave limit
// blends selected by an 8-octave main blend. Its output magnitude is bounded
// by maxValue.
type Blended struct {
	xzScale, yScale      float32
	xzFactor, yFactor    float32
	smearScaleMultiplier float32

	xzMultiplier, yMultiplier float32
	limitSmear, mainSmear     float32
	maxValue                  float32

	lower, upper, main *Octave
}

// NewBlended draws a blended terrain noise from r. All octave amplitudes are
// one, so every octave sampler is populated.
func NewBlended(r rand.Source, xzScale, yScale, xzFactor, yFactor, smearScaleMultiplier float32) *Blended {
	xzMultiplier := 684.412 * xzScale
	yMultiplier := 684.412 * yScale
	limitSmear := yMultiplier * smearScaleMultiplier

	ones16 := make([]float32, 16)
	ones8 := make([]float32, 8)
	for i := range ones16 {
		ones16[i] = 1
	}
	for i := range ones8 {
		ones8[i] = 1
	}

	lower := NewOctave(r, -15, ones16, true)
	n := &Blended{
		xzScale:              xzScale,
		yScale:               yScale,
		xzFactor:             xzFactor,
		yFactor:              yFactor,
		smearScaleMultiplier: smearScaleMultiplier,
		xzMultiplier:         xzMultiplier,
		yMultiplier:          yMultiplier,
		limitSmear:           limitSmear,
		mainSmear:            limitSmear / yFactor,
		maxValue:             lower.EdgeValue(yMultiplier + 2),
		lower:                lower,
		upper:                NewOctave(r, -15, ones16, true),
		main:                 NewOctave(r, -7, ones8, true),
	}
	return n
}

// MaxValue returns the magnitude bound of the sampler output.
func (n *Blended) MaxValue() float32 {
	return n.maxValue
}

// Sample evaluates the blended noise at a block position.
func (n *Blended) Sample(x, y, z int) float32 {
	scaledX := float32(x) * n.xzMultiplier
	scaledY := float32(y) * n.yMultiplier
	scaledZ := float32(z) * n.xzMultiplier

	factoredX := scaledX / n.xzFactor
	factoredY := scaledY / n.yFactor
	factoredZ := scaledZ / n.xzFactor

	var value float32
	factor := float32(1)
	for i := 0; i < 8; i++ {
		if sampler := n.main.Octave(i); sampler != nil {
			value += sampler.Sample(
				MaintainPrecision(factoredX*factor),
				MaintainPrecision(factoredY*factor),
				MaintainPrecision(factoredZ*factor),
				n.mainSmear*factor,
				factoredY*factor,
			) / factor
		}
		factor /= 2
	}

	value = (value/10 + 1) / 2
	lessThanOne := value < 1
	moreThanZero := value > 0

	var low, high float32
	factor = 1
	for i := 0; i < 16; i++ {
		xx := MaintainPrecision(scaledX * factor)
		yy := MaintainPrecision(scaledY * factor)
		zz := MaintainPrecision(scaledZ * factor)
		smear := n.limitSmear * factor
		if lessThanOne {
			if sampler := n.lower.Octave(i); sampler != nil {
				low += sampler.Sample(xx, yy, zz, smear, scaledY*factor) / factor
			}
		}
		if moreThanZero {
			if sampler := n.upper.Octave(i); sampler != nil {
				high += sampler.Sample(xx, yy, zz, smear, scaledY*factor) / factor
			}
		}
		factor /= 2
	}

	start := low / 512
	end := high / 512
	switch {
	case value < 0:
		value = start
	case value > 1:
		value = end
	default:
		value = value*(end-start) + start
	}
	return value / 128
}
