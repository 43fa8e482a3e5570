// Package chunk holds the terrain chunk entity: its identity on the
// cube-sphere, lifecycle state machine, spatial transform, and generated
// mesh payload.
package chunk

import (
	"fmt"

	"planetgen/internal/mathx"

	"github.com/go-gl/mathgl/mgl64"
)

// Id uniquely identifies a chunk: which cube face it lives on, its integer
// grid coordinates within that face, and its LOD level. LOD is part of the
// identity, so a chunk at a different detail level is a different chunk.
type Id struct {
	Face int32
	X    int32
	Y    int32
	LOD  int32
}

func (id Id) String() string {
	return fmt.Sprintf("%s(%d,%d)@L%d", mathx.FaceName(int(id.Face)), id.X, id.Y, id.LOD)
}

// Neighbor returns the id offset by (dx,dy) on the same face and LOD.
// Coordinates are not wrapped across face boundaries; callers that walk off
// an edge get an id outside the valid grid.
func (id Id) Neighbor(dx, dy int32) Id {
	return Id{Face: id.Face, X: id.X + dx, Y: id.Y + dy, LOD: id.LOD}
}

// IdFromWorldPosition finds the chunk containing a planet-relative position
// at the given LOD, with chunksPerFace chunks along each face axis.
func IdFromWorldPosition(pos mgl64.Vec3, lod int32, chunksPerFace int32) Id {
	face, u, v := mathx.SphereToSpherifiedFace(pos)

	// Map UV from [-1,1] to grid coordinates [0, chunksPerFace).
	cx := int32((u + 1) * 0.5 * float64(chunksPerFace))
	cy := int32((v + 1) * 0.5 * float64(chunksPerFace))
	if cx >= chunksPerFace {
		cx = chunksPerFace - 1
	}
	if cy >= chunksPerFace {
		cy = chunksPerFace - 1
	}
	return Id{Face: int32(face), X: cx, Y: cy, LOD: lod}
}

// UVWindow returns the face UV range [-1,1] this chunk covers when the face
// is split into chunksPerFace chunks per axis.
func (id Id) UVWindow(chunksPerFace int32) (uvMin, uvMax mgl64.Vec2) {
	step := 2.0 / float64(chunksPerFace)
	uvMin = mgl64.Vec2{
		-1 + float64(id.X)*step,
		-1 + float64(id.Y)*step,
	}
	uvMax = mgl64.Vec2{uvMin.X() + step, uvMin.Y() + step}
	return uvMin, uvMax
}
