package noise

import (
	"fmt"
	"math"

	"github.com/andreypfau/mcrs/worldgen/rand"
)

// precisionModulus keeps octave inputs inside the range where float32 retains
// fractional precision; without it coordinates beyond ~33M blocks degenerate.
const precisionModulus = 3.3554432e7

// Octave sums several Improved octaves with halving persistence and doubling
// lacunarity.
type Octave struct {
	lacunarity  float32
	persistence float32
	maxValue    float32
	amplitudes  []float32
	samplers    []*Improved
}

// NewOctave draws an octave blend from r. Amplitude entries of zero skip the
// octave. The legacy construction consumes the random source the way the LCG
// generator family does: sequential draws with a fixed 262-step skip for
// missing octaves, and the sampler order reversed.
func NewOctave(r rand.Source, firstOctave int, amplitudes []float32, legacy bool) *Octave {
	samplers := make([]*Improved, 0, len(amplitudes))

	if !legacy {
		for i, amp := range amplitudes {
			if amp != 0 {
				octaveRandom := r.Clone().ForkHash(fmt.Sprintf("octave_%d", i+firstOctave))
				samplers = append(samplers, NewImproved(octaveRandom))
			} else {
				samplers = append(samplers, nil)
			}
		}
		r.Fork()
	} else {
		for i := -firstOctave; i >= 0; i-- {
			if i < len(amplitudes) && amplitudes[i] != 0 {
				samplers = append(samplers, NewImproved(r))
			} else {
				samplers = append(samplers, nil)
				for skip := 0; skip < 262; skip++ {
					r.Int32()
				}
			}
		}
		for i, j := 0, len(samplers)-1; i < j; i, j = i+1, j-1 {
			samplers[i], samplers[j] = samplers[j], samplers[i]
		}
	}

	const scale = 2.0
	a := float32(math.Pow(scale, float64(len(amplitudes))-1))
	b := float32(math.Pow(scale, float64(len(amplitudes)))) - 1

	n := &Octave{
		lacunarity:  float32(math.Pow(scale, float64(firstOctave))),
		persistence: a / b,
		amplitudes:  amplitudes,
		samplers:    samplers,
	}
	n.maxValue = n.EdgeValue(scale)
	return n
}

// Octave returns the sampler for the given octave counted from the highest
// frequency, or nil if the octave's amplitude was zero.
func (n *Octave) Octave(octave int) *Improved {
	i := len(n.samplers) - 1 - octave
	if i < 0 || i >= len(n.samplers) {
		return nil
	}
	return n.samplers[i]
}

// MaxValue returns the maximum magnitude the blend can reach.
func (n *Octave) MaxValue() float32 {
	return n.maxValue
}

// EdgeValue sums the amplitude-weighted persistence series at the given
// per-octave bound.
func (n *Octave) EdgeValue(scale float32) float32 {
	var value float32
	factor := n.persistence
	for i := range n.samplers {
		if n.samplers[i] != nil {
			value += n.amplitudes[i] * scale * factor
		}
		factor *= 0.5
	}
	return value
}

// MaintainPrecision folds v back towards zero by a multiple of the precision
// modulus.
func MaintainPrecision(v float32) float32 {
	return v - float32(math.Floor(float64(v/precisionModulus+0.5)))*precisionModulus
}

// Sample evaluates the blend at (x, y, z).
func (n *Octave) Sample(x, y, z float32) float32 {
	lacunarity := n.lacunarity
	persistence := n.persistence
	var acc float32
	for i := range n.samplers {
		if sampler := n.samplers[i]; sampler != nil {
			acc += sampler.Sample(
				MaintainPrecision(x*lacunarity),
				MaintainPrecision(y*lacunarity),
				MaintainPrecision(z*lacunarity),
				0, 0,
			) * persistence * n.amplitudes[i]
		}
		lacunarity *= 2
		persistence *= 0.5
	}
	return acc
}
