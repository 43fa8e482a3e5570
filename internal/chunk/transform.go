package chunk

import (
	"planetgen/internal/mathx"

	"github.com/go-gl/mathgl/mgl64"
)

// boundsMargin expands chunk AABBs so terrain displacement poking past the
// nominal voxel volume is still inside the bounds.
const boundsMargin = 0.05

// Transform places a chunk in world space. Chunk-local coordinates are
// planet-relative: the planet center is the local origin, so converting
// between spaces is a translation.
type Transform struct {
	Id           Id
	PlanetCenter mgl64.Vec3
	PlanetRadius float64

	// UV window on the cube face, each axis in [-1,1].
	UVMin mgl64.Vec2
	UVMax mgl64.Vec2

	// Center is the world-space point where the chunk's UV center meets the
	// nominal sphere surface.
	Center mgl64.Vec3
	// WorldSize approximates the chunk's edge length in world units.
	WorldSize float64

	FaceNormal mgl64.Vec3
	FaceRight  mgl64.Vec3
	FaceUp     mgl64.Vec3

	boundsMin mgl64.Vec3
	boundsMax mgl64.Vec3
}

// NewTransform computes the transform for a chunk id on a planet whose
// faces are split into chunksPerFace chunks per axis at the id's LOD.
func NewTransform(planetCenter mgl64.Vec3, planetRadius float64, id Id, chunksPerFace int32) *Transform {
	uvMin, uvMax := id.UVWindow(chunksPerFace)
	face := int(id.Face)

	centerU := (uvMin.X() + uvMax.X()) / 2
	centerV := (uvMin.Y() + uvMax.Y()) / 2
	centerDir := mathx.SpherifiedFaceToSphere(face, centerU, centerV)

	t := &Transform{
		Id:           id,
		PlanetCenter: planetCenter,
		PlanetRadius: planetRadius,
		UVMin:        uvMin,
		UVMax:        uvMax,
		Center:       planetCenter.Add(centerDir.Mul(planetRadius)),
		WorldSize:    mathx.FaceEdgeLength(planetRadius) / float64(chunksPerFace),
		FaceNormal:   mathx.CubeFaceNormals[face],
		FaceRight:    mathx.CubeFaceTangents[face],
		FaceUp:       mathx.CubeFaceBitangents[face],
	}
	t.computeBounds()
	return t
}

// LocalToWorld converts a planet-relative position to world space.
func (t *Transform) LocalToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return t.PlanetCenter.Add(local)
}

// WorldToLocal converts a world position to planet-relative space.
func (t *Transform) WorldToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return world.Sub(t.PlanetCenter)
}

// WorldBounds returns the chunk's axis-aligned world bounds, padded so
// displaced terrain stays inside them.
func (t *Transform) WorldBounds() (min, max mgl64.Vec3) {
	return t.boundsMin, t.boundsMax
}

// ContainsWorldPosition reports whether a world position falls inside the
// chunk's padded bounds.
func (t *Transform) ContainsWorldPosition(pos mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if pos[i] < t.boundsMin[i] || pos[i] > t.boundsMax[i] {
			return false
		}
	}
	return true
}

// ExpandBounds grows the padded bounds by margin world units on every
// axis. Callers use it to account for terrain displacement amplitude,
// which the fixed WorldSize pad cannot see.
func (t *Transform) ExpandBounds(margin float64) {
	if margin <= 0 {
		return
	}
	for i := 0; i < 3; i++ {
		t.boundsMin[i] -= margin
		t.boundsMax[i] += margin
	}
}

// DistanceToCenter is the world-space distance from pos to the chunk's
// surface center point.
func (t *Transform) DistanceToCenter(pos mgl64.Vec3) float64 {
	return pos.Sub(t.Center).Len()
}

func (t *Transform) computeBounds() {
	face := int(t.Id.Face)
	half := t.WorldSize / 2

	// The center sample captures the spherical bulge between the corners.
	corners := [5][2]float64{
		{t.UVMin.X(), t.UVMin.Y()},
		{t.UVMax.X(), t.UVMin.Y()},
		{t.UVMin.X(), t.UVMax.Y()},
		{t.UVMax.X(), t.UVMax.Y()},
		{(t.UVMin.X() + t.UVMax.X()) / 2, (t.UVMin.Y() + t.UVMax.Y()) / 2},
	}

	first := true
	for _, c := range corners {
		dir := mathx.SpherifiedFaceToSphere(face, c[0], c[1])
		for _, altitude := range []float64{-half, half} {
			p := t.PlanetCenter.Add(dir.Mul(t.PlanetRadius + altitude))
			if first {
				t.boundsMin, t.boundsMax = p, p
				first = false
				continue
			}
			for i := 0; i < 3; i++ {
				if p[i] < t.boundsMin[i] {
					t.boundsMin[i] = p[i]
				}
				if p[i] > t.boundsMax[i] {
					t.boundsMax[i] = p[i]
				}
			}
		}
	}

	pad := t.WorldSize * boundsMargin
	for i := 0; i < 3; i++ {
		t.boundsMin[i] -= pad
		t.boundsMax[i] += pad
	}
}
