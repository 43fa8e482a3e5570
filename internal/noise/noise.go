// Package noise provides pluggable deterministic scalar noise for terrain
// generation. Providers are stateless after construction and safe for
// concurrent use; identical inputs always produce bit-identical outputs.
package noise

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Context carries the deterministic inputs of a noise sample.
type Context struct {
	// Position relative to the planet center.
	Position mgl64.Vec3
	// PlanetRadius in world units, available for radius-aware layers.
	PlanetRadius float64
	// PlanetSeed is the base seed all octave seeds derive from.
	PlanetSeed uint64
}

// Provider produces deterministic scalar noise nominally in [-1, 1].
type Provider interface {
	// Sample returns one octave of noise at the context position scaled by
	// frequency. Out-of-range octaves return 0.
	Sample(ctx Context, frequency float64, octave int) float64

	// SampleFractal sums octaves with amplitude *= persistence and
	// frequency *= lacunarity per step, normalized by the amplitude sum so
	// the result stays within roughly [-1, 1].
	SampleFractal(ctx Context, baseFrequency float64, octaves int, persistence, lacunarity float64) float64

	// MaxAmplitude is the maximum absolute value this provider can emit.
	MaxAmplitude() float64

	// Clone returns an independent provider with the same seeds.
	Clone() Provider
}

// fractalSum is the shared FBM loop used by all providers.
func fractalSum(p Provider, ctx Context, baseFrequency float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves < 1 {
		octaves = 1
	}

	value := 0.0
	amplitude := 1.0
	frequency := baseFrequency
	maxValue := 0.0

	for i := 0; i < octaves; i++ {
		value += p.Sample(ctx, frequency, i) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	if maxValue > 0 {
		value /= maxValue
	}
	return value
}
