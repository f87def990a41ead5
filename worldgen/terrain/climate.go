package terrain

import (
	"fmt"

	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/andreypfau/mcrs/worldgen/density"
	"github.com/go-gl/mathgl/mgl64"
)

// TargetPoint is a sampled climate target: the six climate roots of a router
// evaluated at one biome position.
type TargetPoint struct {
	Temperature, Humidity, Continentalness, Erosion, Depth, Weirdness float64
}

// Param is a closed interval on one climate axis.
type Param struct {
	Min, Max float64
}

// Point returns a degenerate interval containing only v.
func Point(v float64) Param {
	return Param{Min: v, Max: v}
}

// Span returns the interval [min, max].
func Span(min, max float64) Param {
	return Param{Min: min, Max: max}
}

func (p Param) distance(v float64) float64 {
	if d := v - p.Max; d > 0 {
		return d
	}
	if d := p.Min - v; d > 0 {
		return d
	}
	return 0
}

// ParamPoint is a biome's climate parameter box with a placement offset.
type ParamPoint struct {
	Temperature, Humidity, Continentalness, Erosion, Depth, Weirdness Param
	Offset                                                            float64
}

// Fitness returns the distance between the box and a target in parameter
// space. Smaller is a better match.
func (p ParamPoint) Fitness(t TargetPoint) float64 {
	d := mgl64.NewVecNFromData([]float64{
		p.Temperature.distance(t.Temperature),
		p.Humidity.distance(t.Humidity),
		p.Continentalness.distance(t.Continentalness),
		p.Erosion.distance(t.Erosion),
		p.Depth.distance(t.Depth),
		p.Weirdness.distance(t.Weirdness),
		p.Offset,
	})
	return d.Len()
}

// ClimateSampler evaluates the climate roots of a router at biome
// resolution. Like all evaluation state, a sampler is per-goroutine.
type ClimateSampler struct {
	router *density.Router
	cache  *density.DensityCache

	temperature, vegetation, continents, erosion, depth, ridges int
}

// NewClimateSampler creates a climate sampler over the router's climate
// roots.
func NewClimateSampler(r *density.Router) (*ClimateSampler, error) {
	s := &ClimateSampler{router: r, cache: r.NewCache()}
	for _, root := range []struct {
		name string
		idx  *int
	}{
		{RootTemperature, &s.temperature},
		{RootVegetation, &s.vegetation},
		{RootContinents, &s.continents},
		{RootErosion, &s.erosion},
		{RootDepth, &s.depth},
		{RootRidges, &s.ridges},
	} {
		idx, ok := r.Root(root.name)
		if !ok {
			return nil, fmt.Errorf("climate sampler: %w: %q", density.ErrUnknownRoot, root.name)
		}
		*root.idx = idx
	}
	return s, nil
}

// Sample evaluates the climate target at a biome position (block position
// divided by four).
func (s *ClimateSampler) Sample(biomePos cube.Pos) TargetPoint {
	pos := cube.Pos{biomePos.X() << 2, biomePos.Y() << 2, biomePos.Z() << 2}
	return TargetPoint{
		Temperature:     s.at(s.temperature, pos),
		Humidity:        s.at(s.vegetation, pos),
		Continentalness: s.at(s.continents, pos),
		Erosion:         s.at(s.erosion, pos),
		Depth:           s.at(s.depth, pos),
		Weirdness:       s.at(s.ridges, pos),
	}
}

func (s *ClimateSampler) at(root int, pos cube.Pos) float64 {
	return float64(s.router.SampleIndex(s.cache, root, pos))
}

// BestMatch returns the index of the candidate whose parameter box is
// closest to the target, or -1 for an empty candidate list.
func BestMatch(candidates []ParamPoint, t TargetPoint) int {
	best, bestFit := -1, 0.0
	for i, c := range candidates {
		if fit := c.Fitness(t); best == -1 || fit < bestFit {
			best, bestFit = i, fit
		}
	}
	return best
}
