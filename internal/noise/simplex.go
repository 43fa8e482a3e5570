package noise

import (
	"math"

	"planetgen/internal/seed"

	"github.com/go-gl/mathgl/mgl64"
)

// Simplex is a 3D simplex noise provider. Compared to Gradient it has no
// axis-aligned artifacts, at slightly higher cost per sample.
type Simplex struct {
	baseSeed    uint64
	maxOctaves  int
	octaveSeeds []uint64
}

// NewSimplex creates a simplex noise provider with per-octave derived seeds.
func NewSimplex(baseSeed uint64, maxOctaves int) *Simplex {
	if maxOctaves < 1 {
		maxOctaves = 1
	}
	return &Simplex{
		baseSeed:    baseSeed,
		maxOctaves:  maxOctaves,
		octaveSeeds: seed.OctaveSeeds(baseSeed, maxOctaves),
	}
}

func (s *Simplex) Sample(ctx Context, frequency float64, octave int) float64 {
	if octave < 0 || octave >= s.maxOctaves {
		return 0
	}
	p := ctx.Position.Mul(frequency)
	return simplexNoise(p, int32(s.octaveSeeds[octave]))
}

func (s *Simplex) SampleFractal(ctx Context, baseFrequency float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves > s.maxOctaves {
		octaves = s.maxOctaves
	}
	return fractalSum(s, ctx, baseFrequency, octaves, persistence, lacunarity)
}

func (s *Simplex) MaxAmplitude() float64 { return 1 }

func (s *Simplex) Clone() Provider {
	return NewSimplex(s.baseSeed, s.maxOctaves)
}

// Skewing constants for the 3D case.
const (
	simplexF3 = 1.0 / 3.0
	simplexG3 = 1.0 / 6.0
)

// simplexGradients holds gradient directions along cube edges.
var simplexGradients = [16]mgl64.Vec3{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
	{1, 1, 0}, {-1, 1, 0}, {0, -1, 1}, {0, -1, -1},
}

// simplexNoise evaluates one octave of 3D simplex noise at p.
func simplexNoise(p mgl64.Vec3, s int32) float64 {
	// Skew input space to find the containing simplex cell.
	skew := (p[0] + p[1] + p[2]) * simplexF3
	i := int32(math.Floor(p[0] + skew))
	j := int32(math.Floor(p[1] + skew))
	k := int32(math.Floor(p[2] + skew))

	unskew := float64(i+j+k) * simplexG3
	x0 := p[0] - (float64(i) - unskew)
	y0 := p[1] - (float64(j) - unskew)
	z0 := p[2] - (float64(k) - unskew)

	// The simplex shape in 3D is a tetrahedron; order the traversal by the
	// ranking of the fractional offsets.
	var i1, j1, k1, i2, j2, k2 int32
	if x0 >= y0 {
		switch {
		case y0 >= z0:
			i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 1, 0
		case x0 >= z0:
			i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 0, 1
		default:
			i1, j1, k1, i2, j2, k2 = 0, 0, 1, 1, 0, 1
		}
	} else {
		switch {
		case y0 < z0:
			i1, j1, k1, i2, j2, k2 = 0, 0, 1, 0, 1, 1
		case x0 < z0:
			i1, j1, k1, i2, j2, k2 = 0, 1, 0, 0, 1, 1
		default:
			i1, j1, k1, i2, j2, k2 = 0, 1, 0, 1, 1, 0
		}
	}

	x1 := x0 - float64(i1) + simplexG3
	y1 := y0 - float64(j1) + simplexG3
	z1 := z0 - float64(k1) + simplexG3
	x2 := x0 - float64(i2) + 2*simplexG3
	y2 := y0 - float64(j2) + 2*simplexG3
	z2 := z0 - float64(k2) + 2*simplexG3
	x3 := x0 - 1 + 3*simplexG3
	y3 := y0 - 1 + 3*simplexG3
	z3 := z0 - 1 + 3*simplexG3

	n := simplexCorner(x0, y0, z0, simplexHash(i, j, k, s))
	n += simplexCorner(x1, y1, z1, simplexHash(i+i1, j+j1, k+k1, s))
	n += simplexCorner(x2, y2, z2, simplexHash(i+i2, j+j2, k+k2, s))
	n += simplexCorner(x3, y3, z3, simplexHash(i+1, j+1, k+1, s))

	// Scale to stay just inside [-1, 1].
	return 32 * n
}

func simplexCorner(x, y, z float64, hash int32) float64 {
	t := 0.6 - x*x - y*y - z*z
	if t < 0 {
		return 0
	}
	g := simplexGradients[hash&15]
	t *= t
	return t * t * (g[0]*x + g[1]*y + g[2]*z)
}

// simplexHash selects a pseudo-random gradient for a lattice corner.
func simplexHash(i, j, k, s int32) int32 {
	return simplexPerm(simplexPerm(simplexPerm(i, s)+j, s)+k, s)
}

func simplexPerm(x, s int32) int32 {
	return (((x*x*15731+789221)*x + 1376312589) ^ s) & 0x7fffffff
}
