// Package mesh extracts triangle meshes from sampled density fields with
// marching cubes.
package mesh

import (
	"math"

	"planetgen/internal/chunk"
	"planetgen/internal/density"
	"planetgen/internal/mathx"

	"github.com/go-gl/mathgl/mgl64"
)

// Sampler provides point density queries for vertex normals. Implemented
// by density.Generator.
type Sampler interface {
	SampleDensity(pos mgl64.Vec3) float64
	GetNormalAtPos(pos mgl64.Vec3) mgl64.Vec3
}

// Config tunes mesh extraction.
type Config struct {
	// IsoLevel is the density value of the extracted surface.
	IsoLevel float64
	// IsoEpsilon biases corner classification so samples sitting exactly on
	// the iso-level pick a consistent side.
	IsoEpsilon float64
	// FlatNormals switches from gradient normals to per-triangle normals.
	FlatNormals bool
	// TexelScale converts world units to UV units for the planar projection.
	TexelScale float64
}

// DefaultConfig returns the extraction settings used by the streaming
// pipeline.
func DefaultConfig() Config {
	return Config{
		IsoLevel:   0,
		IsoEpsilon: 1e-9,
		TexelScale: 1.0 / 256,
	}
}

// Generate runs marching cubes over a density field and returns the chunk
// mesh. Vertices are unwelded: every triangle owns its three vertices.
// Solid cells below the surface and empty cells above it are skipped by the
// edge table without emitting geometry.
func Generate(field *density.Field, sampler Sampler, cfg Config) *chunk.MeshData {
	res := field.Frame.Resolution
	ghost := field.GhostLayers
	face := field.Frame.Face
	right := mathx.CubeFaceTangents[face]
	up := mathx.CubeFaceBitangents[face]

	m := &chunk.MeshData{}

	var cornerDensity [8]float64
	var cornerPos [8]mgl64.Vec3
	var edgeVerts [12]mgl64.Vec3

	for z := 0; z < res; z++ {
		for y := 0; y < res; y++ {
			for x := 0; x < res; x++ {
				cubeIndex := 0
				for i, off := range cornerOffsets {
					cx, cy, cz := x+ghost+off[0], y+ghost+off[1], z+ghost+off[2]
					d := field.At(cx, cy, cz)
					cornerDensity[i] = d
					cornerPos[i] = field.PositionAt(cx, cy, cz)
					if d < cfg.IsoLevel-cfg.IsoEpsilon {
						cubeIndex |= 1 << i
					}
				}

				edges := edgeTable[cubeIndex]
				if edges == 0 {
					continue
				}

				for e := 0; e < 12; e++ {
					if edges&(1<<e) == 0 {
						continue
					}
					a, b := edgeCorners[e][0], edgeCorners[e][1]
					edgeVerts[e] = interpVertex(cfg.IsoLevel,
						cornerPos[a], cornerPos[b],
						cornerDensity[a], cornerDensity[b])
				}

				tris := triTable[cubeIndex]
				for i := 0; i+2 < len(tris); i += 3 {
					emitTriangle(m, sampler, cfg, right, up,
						edgeVerts[tris[i]], edgeVerts[tris[i+1]], edgeVerts[tris[i+2]])
				}
			}
		}
	}

	weldVertices(m)
	return m
}

// interpVertex places a surface vertex on the edge between two samples.
// The parameter is clamped so numeric noise never pushes a vertex outside
// its cell; equal densities fall back to the midpoint.
func interpVertex(iso float64, p1, p2 mgl64.Vec3, d1, d2 float64) mgl64.Vec3 {
	denom := d2 - d1
	if math.Abs(denom) < 1e-12 {
		return p1.Add(p2).Mul(0.5)
	}
	t := mathx.Clamp((iso-d1)/denom, 0, 1)
	return p1.Add(p2.Sub(p1).Mul(t))
}

func emitTriangle(m *chunk.MeshData, sampler Sampler, cfg Config, right, up, v0, v1, v2 mgl64.Vec3) {
	centroid := v0.Add(v1).Add(v2).Mul(1.0 / 3)
	outward := sampler.GetNormalAtPos(centroid)

	faceNormal := v1.Sub(v0).Cross(v2.Sub(v0))
	if faceNormal.Dot(outward) < 0 {
		v1, v2 = v2, v1
		faceNormal = faceNormal.Mul(-1)
	}

	base := uint32(len(m.Positions))
	for _, v := range [3]mgl64.Vec3{v0, v1, v2} {
		var n mgl64.Vec3
		if cfg.FlatNormals {
			n = mathx.SafeNormalize(faceNormal, 1e-24)
			if n.LenSqr() < 0.5 {
				n = outward
			}
		} else {
			n = sampler.GetNormalAtPos(v)
		}

		m.Positions = append(m.Positions, v)
		m.Normals = append(m.Normals, n)
		m.UVs = append(m.UVs, mgl64.Vec2{
			v.Dot(right) * cfg.TexelScale,
			v.Dot(up) * cfg.TexelScale,
		})
		m.Tangents = append(m.Tangents, right)
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// weldVertices is a placeholder for index deduplication. Chunks keep
// unwelded vertices so per-triangle attributes stay independent; the hook
// exists so a welding pass can slot in without touching the extraction
// loop.
func weldVertices(m *chunk.MeshData) {
	m.InvalidateBounds()
}
