package density

import (
	"planetgen/internal/mathx"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkFrame identifies a chunk's patch on the cube-sphere: which face it
// sits on, and the UV window of that face it covers.
type ChunkFrame struct {
	Face  int
	UVMin mgl64.Vec2
	UVMax mgl64.Vec2
	// Resolution is the number of voxel cells per axis. The sample grid has
	// Resolution+1 points per axis, plus ghost layers.
	Resolution int
	VoxelSize  float64
}

// Field is a sampled density grid over a chunk, including ghost layers.
// Index (0,0,0) is the first ghost sample; the chunk's own samples start at
// (GhostLayers, GhostLayers, GhostLayers).
type Field struct {
	Frame       ChunkFrame
	GhostLayers int
	// SamplesPerAxis = Resolution + 1 + 2*GhostLayers.
	SamplesPerAxis int

	Densities []float64
	Positions []mgl64.Vec3
}

// Index converts 3D sample coordinates to the flat array index, clamping
// out-of-range coordinates to the grid boundary.
func (f *Field) Index(x, y, z int) int {
	n := f.SamplesPerAxis
	x = clampIndex(x, n)
	y = clampIndex(y, n)
	z = clampIndex(z, n)
	return (z*n+y)*n + x
}

// At returns the density at sample coordinates, clamped to the grid.
func (f *Field) At(x, y, z int) float64 {
	return f.Densities[f.Index(x, y, z)]
}

// PositionAt returns the planet-relative sample position, clamped to the grid.
func (f *Field) PositionAt(x, y, z int) mgl64.Vec3 {
	return f.Positions[f.Index(x, y, z)]
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// GetProjectedPosition maps a sample grid index to a planet-relative world
// position. X and Y walk the chunk's UV window across the face; Z is
// altitude, centered so the nominal surface sits at the middle of the
// chunk's voxel column. The spherified cube mapping keeps sample spacing
// close to uniform across the face.
func GetProjectedPosition(frame ChunkFrame, planetRadius float64, x, y, z int) mgl64.Vec3 {
	res := float64(frame.Resolution)

	u := mathx.Lerp(frame.UVMin.X(), frame.UVMax.X(), float64(x)/res)
	v := mathx.Lerp(frame.UVMin.Y(), frame.UVMax.Y(), float64(y)/res)

	dir := mathx.SpherifiedFaceToSphere(frame.Face, u, v)
	altitude := (float64(z) - res/2) * frame.VoxelSize
	return dir.Mul(planetRadius + altitude)
}

// GenerateDensityField samples the generator over a chunk's grid, including
// ghostLayers extra samples on every side so cell extraction and gradients
// have neighbor data at chunk boundaries.
func (g *Generator) GenerateDensityField(frame ChunkFrame, ghostLayers int) *Field {
	if ghostLayers < 0 {
		ghostLayers = 0
	}
	n := frame.Resolution + 1 + 2*ghostLayers

	f := &Field{
		Frame:          frame,
		GhostLayers:    ghostLayers,
		SamplesPerAxis: n,
		Densities:      make([]float64, n*n*n),
		Positions:      make([]mgl64.Vec3, n*n*n),
	}

	i := 0
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				pos := GetProjectedPosition(frame, g.params.PlanetRadius,
					x-ghostLayers, y-ghostLayers, z-ghostLayers)
				f.Positions[i] = pos
				f.Densities[i] = g.SampleDensity(pos)
				i++
			}
		}
	}
	return f
}
