package terrain

import (
	"testing"

	"github.com/andreypfau/mcrs/worldgen/cube"
)

func TestClimateSamplerDeterministic(t *testing.T) {
	g := testGenerator(t, 5, false)
	a, err := NewClimateSampler(g.Router())
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}
	b, err := NewClimateSampler(g.Router())
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}
	for _, pos := range []cube.Pos{{0, 16, 0}, {40, 16, -25}, {-300, 0, 112}} {
		if a.Sample(pos) != b.Sample(pos) {
			t.Fatalf("climate sample at %v is not deterministic", pos)
		}
	}
}

func TestClimateSamplerIgnoresYForColumnAxes(t *testing.T) {
	g := testGenerator(t, 5, false)
	s, err := NewClimateSampler(g.Router())
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}
	low := s.Sample(cube.Pos{12, 0, 34})
	high := s.Sample(cube.Pos{12, 40, 34})
	if low.Continentalness != high.Continentalness || low.Erosion != high.Erosion {
		t.Fatalf("column climate axes must not depend on Y")
	}
	// Depth follows the Y gradient and must differ between the samples.
	if low.Depth == high.Depth {
		t.Fatalf("depth must follow Y")
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []ParamPoint{
		{Temperature: Span(-1, -0.5), Humidity: Span(-1, 1), Continentalness: Span(-1, 1),
			Erosion: Span(-1, 1), Depth: Span(-1, 1), Weirdness: Span(-1, 1)},
		{Temperature: Span(0.5, 1), Humidity: Span(-1, 1), Continentalness: Span(-1, 1),
			Erosion: Span(-1, 1), Depth: Span(-1, 1), Weirdness: Span(-1, 1)},
	}
	cold := TargetPoint{Temperature: -0.8}
	hot := TargetPoint{Temperature: 0.9}
	if got := BestMatch(candidates, cold); got != 0 {
		t.Fatalf("cold target matched candidate %d", got)
	}
	if got := BestMatch(candidates, hot); got != 1 {
		t.Fatalf("hot target matched candidate %d", got)
	}
	if got := BestMatch(nil, cold); got != -1 {
		t.Fatalf("empty candidate list must return -1, got %d", got)
	}
}

func TestBestMatchPrefersLowerOffset(t *testing.T) {
	inside := TargetPoint{}
	a := ParamPoint{Offset: 0.4}
	b := ParamPoint{Offset: 0.1}
	if got := BestMatch([]ParamPoint{a, b}, inside); got != 1 {
		t.Fatalf("the lower offset candidate must win, got %d", got)
	}
}
