package terrain

import (
	"github.com/andreypfau/mcrs/worldgen/density"
)

// Root names exposed by the built-in overworld router beside final_density.
const (
	RootTemperature             = "temperature"
	RootVegetation              = "vegetation"
	RootContinents              = "continents"
	RootErosion                 = "erosion"
	RootDepth                   = "depth"
	RootRidges                  = "ridges"
	RootOffset                  = "offset"
	RootFactor                  = "factor"
	RootPreliminarySurfaceLevel = "preliminary_surface_level"
)

// OverworldFunctions returns the built-in overworld density function
// registry: a reduced rendition of the 1.20.1 overworld graph that exercises
// the full operator set while staying self-contained. Production servers load
// the full data pack through an external loader and pass it to Compile
// directly.
func OverworldFunctions() map[string]density.Def {
	offsetSplineLow := density.Spline{
		Coordinate: density.Ref("minecraft:overworld/erosion"),
		Points: []density.SplinePoint{
			{Location: -0.85, Value: density.Constant(0.39)},
			{Location: -0.45, Value: density.Constant(0.2)},
			{Location: 0.45, Value: density.Constant(0.05)},
			{Location: 0.7, Derivative: 0.07, Value: density.Constant(-0.05)},
			{Location: 1, Value: density.Constant(-0.1)},
		},
	}
	offsetSplineHigh := density.Spline{
		Coordinate: density.Ref("minecraft:overworld/erosion"),
		Points: []density.SplinePoint{
			{Location: -0.85, Value: density.Constant(0.65)},
			{Location: -0.45, Value: density.Constant(0.45)},
			{Location: 0.45, Value: density.Constant(0.1)},
			{Location: 1, Value: density.Constant(-0.03)},
		},
	}
	offsetSpline := density.Spline{
		Coordinate: density.Ref("minecraft:overworld/continents"),
		Points: []density.SplinePoint{
			{Location: -1.1, Value: density.Constant(0.044)},
			{Location: -1.02, Value: density.Constant(-0.2222)},
			{Location: -0.51, Value: density.Constant(-0.2222)},
			{Location: -0.44, Value: density.Constant(-0.12)},
			{Location: -0.18, Value: density.Constant(-0.12)},
			{Location: -0.16, Value: offsetSplineLow},
			{Location: 0.25, Value: offsetSplineLow},
			{Location: 0.4, Value: offsetSplineHigh},
			{Location: 1, Derivative: 0.01, Value: offsetSplineHigh},
		},
	}
	factorSpline := density.Spline{
		Coordinate: density.Ref("minecraft:overworld/erosion"),
		Points: []density.SplinePoint{
			{Location: -0.85, Value: density.Constant(5.5)},
			{Location: -0.4, Value: density.Constant(5)},
			{Location: 0, Value: density.Constant(4.2)},
			{Location: 0.4, Value: density.Constant(3.5)},
			{Location: 1, Value: density.Constant(2.5)},
		},
	}

	shiftNoise := density.NoiseRef{Name: "minecraft:offset"}
	return map[string]density.Def{
		"minecraft:overworld/shift_x": density.FlatCache{Input: density.Cache2D{Input: density.ShiftA{Noise: shiftNoise}}},
		"minecraft:overworld/shift_z": density.FlatCache{Input: density.Cache2D{Input: density.ShiftB{Noise: shiftNoise}}},

		"minecraft:overworld/continents": density.FlatCache{Input: density.ShiftedNoise{
			ShiftX:  density.Ref("minecraft:overworld/shift_x"),
			ShiftY:  density.Constant(0),
			ShiftZ:  density.Ref("minecraft:overworld/shift_z"),
			XZScale: 0.25,
			Noise:   density.NoiseRef{Name: "minecraft:continentalness"},
		}},
		"minecraft:overworld/erosion": density.FlatCache{Input: density.ShiftedNoise{
			ShiftX:  density.Ref("minecraft:overworld/shift_x"),
			ShiftY:  density.Constant(0),
			ShiftZ:  density.Ref("minecraft:overworld/shift_z"),
			XZScale: 0.25,
			Noise:   density.NoiseRef{Name: "minecraft:erosion"},
		}},
		"minecraft:overworld/ridges": density.FlatCache{Input: density.ShiftedNoise{
			ShiftX:  density.Ref("minecraft:overworld/shift_x"),
			ShiftY:  density.Constant(0),
			ShiftZ:  density.Ref("minecraft:overworld/shift_z"),
			XZScale: 0.25,
			Noise:   density.NoiseRef{Name: "minecraft:ridge"},
		}},
		"minecraft:overworld/temperature": density.ShiftedNoise{
			ShiftX:  density.Ref("minecraft:overworld/shift_x"),
			ShiftY:  density.Constant(0),
			ShiftZ:  density.Ref("minecraft:overworld/shift_z"),
			XZScale: 0.25,
			Noise:   density.NoiseRef{Name: "minecraft:temperature"},
		},
		"minecraft:overworld/vegetation": density.ShiftedNoise{
			ShiftX:  density.Ref("minecraft:overworld/shift_x"),
			ShiftY:  density.Constant(0),
			ShiftZ:  density.Ref("minecraft:overworld/shift_z"),
			XZScale: 0.25,
			Noise:   density.NoiseRef{Name: "minecraft:vegetation"},
		},

		"minecraft:overworld/base_3d_noise": density.BlendedNoise{
			XZScale: 0.25, YScale: 0.125, XZFactor: 80, YFactor: 160, SmearScaleMultiplier: 8,
		},

		"minecraft:overworld/offset": density.FlatCache{Input: density.Cache2D{Input: density.Add{
			A: density.Constant(-0.50375),
			B: offsetSpline,
		}}},
		"minecraft:overworld/factor": density.FlatCache{Input: density.Cache2D{Input: factorSpline}},

		"minecraft:overworld/depth": density.Add{
			A: density.YClampedGradient{FromY: -64, ToY: 320, FromValue: 1.5, ToValue: -1.5},
			B: density.Ref("minecraft:overworld/offset"),
		},

		"minecraft:overworld/sloped_cheese": density.Add{
			A: density.Mul{
				A: density.Constant(4),
				B: density.QuarterNegative{Input: density.Mul{
					A: density.Ref("minecraft:overworld/depth"),
					B: density.Ref("minecraft:overworld/factor"),
				}},
			},
			B: density.Ref("minecraft:overworld/base_3d_noise"),
		},

		// Cave carving near the surface: spaghetti tunnels scaled by
		// their rarity modulator.
		"minecraft:overworld/caves/spaghetti": density.Add{
			A: density.WeirdScaled{
				Input:  density.Noise{Noise: density.NoiseRef{Name: "minecraft:spaghetti_3d_rarity"}, XZScale: 2, YScale: 1},
				Noise:  density.NoiseRef{Name: "minecraft:spaghetti_3d_1"},
				Mapper: density.RarityType1,
			},
			B: density.Clamp{
				Input: density.Noise{Noise: density.NoiseRef{Name: "minecraft:spaghetti_3d_thickness"}, XZScale: 1, YScale: 1},
				Min:   -0.6, Max: -0.3,
			},
		},
		"minecraft:overworld/caves/entrances": density.CacheOnce{Input: density.Add{
			A: density.Ref("minecraft:overworld/caves/spaghetti"),
			B: density.Constant(0.77),
		}},
		// The deep cave network: cheese carving against the cheese and
		// layer noise.
		"minecraft:overworld/caves/cheese": density.Add{
			A: density.Noise{Noise: density.NoiseRef{Name: "minecraft:cave_cheese"}, XZScale: 1, YScale: 0.6666666666666666},
			B: density.Add{
				A: density.Constant(0.45),
				B: density.Mul{
					A: density.Constant(1.2),
					B: density.Square{Input: density.Noise{Noise: density.NoiseRef{Name: "minecraft:cave_layer"}, XZScale: 1, YScale: 8}},
				},
			},
		},
		"minecraft:overworld/caves/underground": density.Min{
			A: density.Ref("minecraft:overworld/caves/cheese"),
			B: density.Mul{
				A: density.Constant(5),
				B: density.Ref("minecraft:overworld/caves/entrances"),
			},
		},

		"minecraft:overworld/pre_slide": density.RangeChoice{
			Input:        density.Ref("minecraft:overworld/sloped_cheese"),
			MinInclusive: -1000000,
			MaxExclusive: 1.5625,
			WhenIn: density.Min{
				A: density.Ref("minecraft:overworld/sloped_cheese"),
				B: density.Mul{
					A: density.Constant(5),
					B: density.Ref("minecraft:overworld/caves/entrances"),
				},
			},
			WhenOut: density.Ref("minecraft:overworld/caves/underground"),
		},

		// The slide: a bottom taper, a top taper and three offsets. The
		// optimizer fuses this chain into one entry.
		"minecraft:overworld/slided": density.Add{
			A: density.Mul{
				A: density.YClampedGradient{FromY: 240, ToY: 256, FromValue: 1, ToValue: 0},
				B: density.Add{
					A: density.Mul{
						A: density.YClampedGradient{FromY: -64, ToY: -40, FromValue: 0, ToValue: 1},
						B: density.Add{
							A: density.Ref("minecraft:overworld/pre_slide"),
							B: density.Constant(-0.078125),
						},
					},
					B: density.Constant(0.1171875),
				},
			},
			B: density.Constant(-0.0078125),
		},

		"minecraft:overworld/noodle": density.Add{
			A: density.Mul{
				A: density.Constant(8),
				B: density.Abs{Input: density.Noise{Noise: density.NoiseRef{Name: "minecraft:noodle"}, XZScale: 1, YScale: 1}},
			},
			B: density.Constant(0.05),
		},

		"minecraft:overworld/final_density": density.Interpolated{Input: density.BlendDensity{Input: density.Min{
			A: density.Squeeze{Input: density.Mul{
				A: density.Constant(0.64),
				B: density.Ref("minecraft:overworld/slided"),
			}},
			B: density.Ref("minecraft:overworld/noodle"),
		}}},
	}
}

// OverworldRoots returns the named roots of the built-in overworld graph.
func OverworldRoots() map[string]density.Def {
	return map[string]density.Def{
		density.RootFinalDensity: density.Ref("minecraft:overworld/final_density"),
		RootTemperature:          density.Ref("minecraft:overworld/temperature"),
		RootVegetation:           density.Ref("minecraft:overworld/vegetation"),
		RootContinents:           density.Ref("minecraft:overworld/continents"),
		RootErosion:              density.Ref("minecraft:overworld/erosion"),
		RootDepth:                density.Ref("minecraft:overworld/depth"),
		RootRidges:               density.Ref("minecraft:overworld/ridges"),
		RootOffset:               density.Ref("minecraft:overworld/offset"),
		RootFactor:               density.Ref("minecraft:overworld/factor"),
		RootPreliminarySurfaceLevel: density.FindTopSurface{
			Density:    density.Ref("minecraft:overworld/slided"),
			UpperBound: density.Constant(320),
			LowerBound: -64,
			CellHeight: 8,
		},
	}
}
