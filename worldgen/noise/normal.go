package noise

import (
	"github.com/andreypfau/mcrs/worldgen/rand"
)

// inputFactor offsets the second octave blend so the two blends decorrelate.
const inputFactor = 1.0181268882175227

// Parameters describe a named noise: the octave of the lowest frequency and
// the amplitude per octave above it.
type Parameters struct {
	FirstOctave int
	Amplitudes  []float64
}

// Normal blends two Octave instances, the second sampled at slightly scaled
// coordinates, and normalises the sum to an expected deviation.
type Normal struct {
	first, second *Octave
	valueFactor   float32
	maxValue      float32
}

// NewNormal draws a double octave blend from r.
func NewNormal(r rand.Source, firstOctave int, amplitudes []float32) *Normal {
	first := NewOctave(r, firstOctave, amplitudes, r.Legacy())
	second := NewOctave(r, firstOctave, amplitudes, r.Legacy())

	minAmp, maxAmp := float32(0), float32(0)
	seen := false
	for i, amp := range amplitudes {
		if amp != 0 {
			if !seen || float32(i) < minAmp {
				minAmp = float32(i)
			}
			if !seen || float32(i) > maxAmp {
				maxAmp = float32(i)
			}
			seen = true
		}
	}

	expectedDeviation := 0.1 * (1.0 + 1.0/(maxAmp-minAmp+1))
	valueFactor := float32(1.0/6.0) / expectedDeviation
	return &Normal{
		first:       first,
		second:      second,
		valueFactor: valueFactor,
		maxValue:    (first.MaxValue() + second.MaxValue()) * valueFactor,
	}
}

// NewNormalParams draws a double octave blend from r using Parameters.
func NewNormalParams(r rand.Source, p Parameters) *Normal {
	amplitudes := make([]float32, len(p.Amplitudes))
	for i, a := range p.Amplitudes {
		amplitudes[i] = float32(a)
	}
	return NewNormal(r, p.FirstOctave, amplitudes)
}

// MaxValue returns the maximum magnitude the blend can reach.
func (n *Normal) MaxValue() float32 {
	return n.maxValue
}

// Sample evaluates the blend at (x, y, z).
func (n *Normal) Sample(x, y, z float32) float32 {
	x2 := x * inputFactor
	y2 := y * inputFactor
	z2 := z * inputFactor
	return (n.first.Sample(x, y, z) + n.second.Sample(x2, y2, z2)) * n.valueFactor
}
