package terrain

import "github.com/andreypfau/mcrs/worldgen/noise"

// Noises returns the built-in noise parameter registry, matching the 1.20.1
// data pack values. Callers may extend or override the returned map before
// compiling.
func Noises() map[string]noise.Parameters {
	return map[string]noise.Parameters{
		"minecraft:temperature":                   {FirstOctave: -10, Amplitudes: []float64{1.5, 0, 1, 0, 0, 0}},
		"minecraft:vegetation":                    {FirstOctave: -8, Amplitudes: []float64{1, 1, 0, 0, 0, 0}},
		"minecraft:continentalness":               {FirstOctave: -9, Amplitudes: []float64{1, 1, 2, 2, 2, 1, 1, 1, 1}},
		"minecraft:erosion":                       {FirstOctave: -9, Amplitudes: []float64{1, 1, 0, 1, 1}},
		"minecraft:ridge":                         {FirstOctave: -7, Amplitudes: []float64{1, 2, 1, 0, 0, 0}},
		"minecraft:offset":                        {FirstOctave: -3, Amplitudes: []float64{1, 1, 1, 0}},
		"minecraft:aquifer_barrier":               {FirstOctave: -3, Amplitudes: []float64{1}},
		"minecraft:aquifer_lava":                  {FirstOctave: -1, Amplitudes: []float64{1}},
		"minecraft:pillar":                        {FirstOctave: -7, Amplitudes: []float64{1, 1}},
		"minecraft:pillar_rareness":               {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:pillar_thickness":              {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:spaghetti_2d":                  {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:spaghetti_3d_1":                {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:spaghetti_3d_2":                {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:spaghetti_3d_rarity":           {FirstOctave: -11, Amplitudes: []float64{1}},
		"minecraft:spaghetti_3d_thickness":        {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:spaghetti_roughness":           {FirstOctave: -5, Amplitudes: []float64{1}},
		"minecraft:spaghetti_roughness_modulator": {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:cave_entrance":                 {FirstOctave: -7, Amplitudes: []float64{0.4, 0.5, 1}},
		"minecraft:cave_layer":                    {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:cave_cheese":                   {FirstOctave: -8, Amplitudes: []float64{0.5, 1, 2, 1, 2, 1, 0, 2, 0}},
		"minecraft:noodle":                        {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:noodle_thickness":              {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:noodle_ridge_a":                {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:noodle_ridge_b":                {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:jagged":                        {FirstOctave: -16, Amplitudes: []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		"minecraft:surface":                       {FirstOctave: -6, Amplitudes: []float64{1, 1, 1}},
		"minecraft:surface_secondary":             {FirstOctave: -6, Amplitudes: []float64{1, 1, 0, 1}},
		"minecraft:ore_veininess":                 {FirstOctave: -8, Amplitudes: []float64{1}},
		"minecraft:ore_vein_a":                    {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:ore_vein_b":                    {FirstOctave: -7, Amplitudes: []float64{1}},
		"minecraft:ore_gap":                       {FirstOctave: -5, Amplitudes: []float64{1}},
		"minecraft:calcite":                       {FirstOctave: -9, Amplitudes: []float64{1, 1, 1, 1}},
		"minecraft:gravel":                        {FirstOctave: -8, Amplitudes: []float64{1, 1, 1, 1}},
	}
}
