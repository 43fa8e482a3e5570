package noise

import (
	"math"

	"planetgen/internal/seed"

	"github.com/go-gl/mathgl/mgl64"
)

// Gradient is a Perlin-style gradient noise provider. Corner gradients come
// from hashed lattice coordinates, so no permutation table needs storing.
type Gradient struct {
	baseSeed    uint64
	maxOctaves  int
	octaveSeeds []uint64
}

// NewGradient creates a gradient noise provider with per-octave derived
// seeds.
func NewGradient(baseSeed uint64, maxOctaves int) *Gradient {
	if maxOctaves < 1 {
		maxOctaves = 1
	}
	return &Gradient{
		baseSeed:    baseSeed,
		maxOctaves:  maxOctaves,
		octaveSeeds: seed.OctaveSeeds(baseSeed, maxOctaves),
	}
}

func (g *Gradient) Sample(ctx Context, frequency float64, octave int) float64 {
	if octave < 0 || octave >= g.maxOctaves {
		return 0
	}
	p := ctx.Position.Mul(frequency)
	return gradientNoise(p, g.octaveSeeds[octave])
}

func (g *Gradient) SampleFractal(ctx Context, baseFrequency float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves > g.maxOctaves {
		octaves = g.maxOctaves
	}
	return fractalSum(g, ctx, baseFrequency, octaves, persistence, lacunarity)
}

func (g *Gradient) MaxAmplitude() float64 { return 1 }

func (g *Gradient) Clone() Provider {
	return NewGradient(g.baseSeed, g.maxOctaves)
}

// gradientNoise evaluates one octave of Perlin-style noise at p.
func gradientNoise(p mgl64.Vec3, s uint64) float64 {
	ix := int32(math.Floor(p[0]))
	iy := int32(math.Floor(p[1]))
	iz := int32(math.Floor(p[2]))

	fx := p[0] - float64(ix)
	fy := p[1] - float64(iy)
	fz := p[2] - float64(iz)

	u := fade(fx)
	v := fade(fy)
	w := fade(fz)

	n000 := grad(seed.HashCoordinate(ix, iy, iz, s), fx, fy, fz)
	n100 := grad(seed.HashCoordinate(ix+1, iy, iz, s), fx-1, fy, fz)
	n010 := grad(seed.HashCoordinate(ix, iy+1, iz, s), fx, fy-1, fz)
	n110 := grad(seed.HashCoordinate(ix+1, iy+1, iz, s), fx-1, fy-1, fz)
	n001 := grad(seed.HashCoordinate(ix, iy, iz+1, s), fx, fy, fz-1)
	n101 := grad(seed.HashCoordinate(ix+1, iy, iz+1, s), fx-1, fy, fz-1)
	n011 := grad(seed.HashCoordinate(ix, iy+1, iz+1, s), fx, fy-1, fz-1)
	n111 := grad(seed.HashCoordinate(ix+1, iy+1, iz+1, s), fx-1, fy-1, fz-1)

	x00 := lerp(n000, n100, u)
	x10 := lerp(n010, n110, u)
	x01 := lerp(n001, n101, u)
	x11 := lerp(n011, n111, u)

	y0 := lerp(x00, x10, v)
	y1 := lerp(x01, x11, v)

	result := lerp(y0, y1, w)
	if result > 1 {
		return 1
	}
	if result < -1 {
		return -1
	}
	return result
}

// fade is the smoothstep quintic 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// grad projects the fractional offset onto one of Perlin's 12 gradient
// directions selected from the low hash bits.
func grad(hash uint64, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}
