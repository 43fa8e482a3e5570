// Package density combines a signed-distance sphere with fractal noise
// displacement and optional cave carving into a single scalar density
// function. Sign convention throughout the pipeline: negative = solid,
// positive = air, zero = surface.
package density

import (
	"math"

	"planetgen/internal/mathx"
	"planetgen/internal/noise"
	"planetgen/internal/seed"

	"github.com/go-gl/mathgl/mgl64"
)

// Params configures a Generator. Invalid values are clamped by NewGenerator
// rather than rejected; this is generator input, not user-facing I/O.
type Params struct {
	PlanetRadius float64
	// CoreRadius, when > 0, carves a hollow boundary at the core so the
	// inside of the planet also produces a surface. Clamped to 0.9×radius.
	CoreRadius float64

	TerrainAmplitude float64
	TerrainFrequency float64
	Octaves          int
	Persistence      float64
	Lacunarity       float64

	Seed uint64

	EnableCaves   bool
	CaveFrequency float64
	CaveThreshold float64

	// VoxelSize normalizes density magnitude into voxel units so marching
	// cubes interpolation behaves the same at every resolution.
	VoxelSize float64

	// NormalEpsilon is the central-difference step for gradient normals.
	// Smaller values are needed when noise frequency is high, or the
	// gradient aliases.
	NormalEpsilon float64
}

// Generator is a pure density function over planet-relative positions.
// Safe for concurrent use: it holds no mutable state after construction.
type Generator struct {
	params       Params
	terrainNoise noise.Provider
	caveNoise    noise.Provider
}

// NewGenerator builds a Generator, clamping out-of-range parameters to safe
// values. terrainNoise may be nil, in which case the planet is a pure
// sphere. caveNoise is only consulted when caves are enabled.
func NewGenerator(params Params, terrainNoise, caveNoise noise.Provider) *Generator {
	params.PlanetRadius = math.Max(params.PlanetRadius, 1)
	params.VoxelSize = math.Max(params.VoxelSize, 1e-3)
	params.CoreRadius = mathx.Clamp(params.CoreRadius, 0, params.PlanetRadius*0.9)
	params.TerrainAmplitude = math.Max(params.TerrainAmplitude, 0)
	if params.Octaves < 1 {
		params.Octaves = 4
	}
	if params.Persistence <= 0 {
		params.Persistence = 0.5
	}
	if params.Lacunarity <= 0 {
		params.Lacunarity = 2.0
	}
	if params.NormalEpsilon <= 0 {
		params.NormalEpsilon = 0.1
	}
	return &Generator{
		params:       params,
		terrainNoise: terrainNoise,
		caveNoise:    caveNoise,
	}
}

// Params returns the clamped parameters in use.
func (g *Generator) Params() Params { return g.params }

// SampleDensity computes the density at a planet-relative position.
// Negative is solid ground, positive is air.
func (g *Generator) SampleDensity(pos mgl64.Vec3) float64 {
	d := g.SampleBaseSphere(pos) - g.ComputeTerrainDisplacement(pos)

	if g.params.EnableCaves && g.caveNoise != nil {
		d = math.Min(d, g.computeCaveDensity(pos))
	}
	return d
}

// SampleBaseSphere is the signed distance to the ideal sphere in voxel
// units. With a solid core configured, the core boundary also carves a
// surface: max(dist−radius, coreRadius−dist).
func (g *Generator) SampleBaseSphere(pos mgl64.Vec3) float64 {
	dist := pos.Len()
	d := dist - g.params.PlanetRadius
	if g.params.CoreRadius > 0 {
		d = math.Max(d, g.params.CoreRadius-dist)
	}
	return d / g.params.VoxelSize
}

// ComputeTerrainDisplacement returns the fractal terrain height at pos in
// voxel units. Zero when no noise provider is set or amplitude is zero.
func (g *Generator) ComputeTerrainDisplacement(pos mgl64.Vec3) float64 {
	if g.terrainNoise == nil || g.params.TerrainAmplitude <= 0 {
		return 0
	}
	n := g.terrainNoise.SampleFractal(g.context(pos),
		g.params.TerrainFrequency, g.params.Octaves,
		g.params.Persistence, g.params.Lacunarity)
	return n * g.params.TerrainAmplitude / g.params.VoxelSize
}

// computeCaveDensity thresholds cave noise into a density term. Values
// above the threshold are air; the ×10 steepens the transition so caves cut
// cleanly.
func (g *Generator) computeCaveDensity(pos mgl64.Vec3) float64 {
	n := g.caveNoise.SampleFractal(g.context(pos),
		g.params.CaveFrequency, 3, 0.7, 1.8)
	return (n - g.params.CaveThreshold) * 10
}

func (g *Generator) context(pos mgl64.Vec3) noise.Context {
	return noise.Context{
		Position:     pos,
		PlanetRadius: g.params.PlanetRadius,
		PlanetSeed:   g.params.Seed,
	}
}

// GetNormalAtPos estimates the surface normal at pos from the central
// difference gradient of the density field. With negative=solid the density
// grows outward, so the normal is the normalized gradient itself. Falls
// back to the radial direction when the gradient is degenerate.
func (g *Generator) GetNormalAtPos(pos mgl64.Vec3) mgl64.Vec3 {
	eps := g.params.NormalEpsilon

	grad := mgl64.Vec3{
		g.SampleDensity(pos.Add(mgl64.Vec3{eps, 0, 0})) - g.SampleDensity(pos.Sub(mgl64.Vec3{eps, 0, 0})),
		g.SampleDensity(pos.Add(mgl64.Vec3{0, eps, 0})) - g.SampleDensity(pos.Sub(mgl64.Vec3{0, eps, 0})),
		g.SampleDensity(pos.Add(mgl64.Vec3{0, 0, eps})) - g.SampleDensity(pos.Sub(mgl64.Vec3{0, 0, eps})),
	}

	if grad.LenSqr() < 1e-16 {
		radial := mathx.SafeNormalize(pos, 1e-12)
		if radial.LenSqr() < 0.5 {
			return mgl64.Vec3{0, 0, 1}
		}
		return radial
	}
	return grad.Normalize()
}

// ChunkSeed derives the deterministic seed for a chunk of this planet.
func (g *Generator) ChunkSeed(face int, lod, x, y int32) uint64 {
	return seed.ChunkSeed(g.params.Seed, face, lod, x, y)
}
