package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cube face indices. Faces are paired by axis: index/2 selects the axis,
// index&1 selects the sign.
const (
	FaceXPos = 0
	FaceXNeg = 1
	FaceYPos = 2
	FaceYNeg = 3
	FaceZPos = 4
	FaceZNeg = 5

	FaceCount = 6
)

// CubeFaceNormals points outward from the cube center for each face.
var CubeFaceNormals = [FaceCount]mgl64.Vec3{
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// CubeFaceTangents is the U axis of each face in cube space.
var CubeFaceTangents = [FaceCount]mgl64.Vec3{
	{0, 0, -1},
	{0, 0, 1},
	{1, 0, 0},
	{1, 0, 0},
	{1, 0, 0},
	{-1, 0, 0},
}

// CubeFaceBitangents is the V axis of each face in cube space.
var CubeFaceBitangents = [FaceCount]mgl64.Vec3{
	{0, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{0, 0, -1},
	{0, 1, 0},
	{0, 1, 0},
}

// FaceName returns a short printable name such as "+X" for a face index.
func FaceName(face int) string {
	names := [FaceCount]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}
	if face < 0 || face >= FaceCount {
		return "??"
	}
	return names[face]
}

// CubeFaceToSphere maps face UV coordinates in [-1,1] to a unit sphere
// direction. UVs outside the range are clamped first so edge samples stay
// numerically stable.
func CubeFaceToSphere(face int, u, v float64) mgl64.Vec3 {
	u = Clamp(u, -1, 1)
	v = Clamp(v, -1, 1)

	p := CubeFaceNormals[face].
		Add(CubeFaceTangents[face].Mul(u)).
		Add(CubeFaceBitangents[face].Mul(v))

	if l := p.Len(); l > 0 {
		return p.Mul(1 / l)
	}
	return CubeFaceNormals[face]
}

// SphereToCubeFace is the inverse projection: given a direction it returns
// the dominant face and the UV of the intersection with that face's plane.
// A zero or near-zero input maps to the +X face center.
func SphereToCubeFace(dir mgl64.Vec3) (face int, u, v float64) {
	if dir.LenSqr() < 1e-12 {
		return FaceXPos, 0, 0
	}
	if !IsValidSphereDirection(dir, 1e-4) {
		dir = dir.Mul(1 / dir.Len())
	}

	face = DominantFace(dir)

	axis := math.Abs(dir[face/2])
	if axis < 1e-6 {
		return face, 0, 0
	}

	cube := dir.Mul(1 / axis)
	u = Clamp(cube.Dot(CubeFaceTangents[face]), -1, 1)
	v = Clamp(cube.Dot(CubeFaceBitangents[face]), -1, 1)
	return face, u, v
}

// CubePointToSphere projects an arbitrary cube-surface point onto the unit
// sphere by normalization.
func CubePointToSphere(cube mgl64.Vec3) mgl64.Vec3 {
	return SafeNormalize(cube, 1e-12)
}

// SpherePointToCube projects a sphere direction back onto the surface of the
// unit cube.
func SpherePointToCube(dir mgl64.Vec3) mgl64.Vec3 {
	if dir.LenSqr() < 1e-12 {
		return CubeFaceNormals[FaceXPos]
	}
	dir = SafeNormalize(dir, 1e-12)
	face := DominantFace(dir)
	return dir.Mul(1 / math.Abs(dir[face/2]))
}

// DominantFace selects the face whose axis has the largest absolute
// component. Ties resolve X before Y before Z.
func DominantFace(dir mgl64.Vec3) int {
	ax, ay, az := math.Abs(dir[0]), math.Abs(dir[1]), math.Abs(dir[2])
	switch {
	case ax >= ay && ax >= az:
		if dir[0] >= 0 {
			return FaceXPos
		}
		return FaceXNeg
	case ay >= az:
		if dir[1] >= 0 {
			return FaceYPos
		}
		return FaceYNeg
	default:
		if dir[2] >= 0 {
			return FaceZPos
		}
		return FaceZNeg
	}
}

// FaceUV computes the UV of a direction on a given face without re-deriving
// the dominant face. The direction must not be perpendicular to the face
// axis.
func FaceUV(dir mgl64.Vec3, face int) (u, v float64) {
	axis := math.Abs(dir[face/2])
	if axis < 1e-12 {
		return 0, 0
	}
	cube := dir.Mul(1 / axis)
	u = Clamp(cube.Dot(CubeFaceTangents[face]), -1, 1)
	v = Clamp(cube.Dot(CubeFaceBitangents[face]), -1, 1)
	return u, v
}

// GetSpherifiedCubePoint maps a cube-surface point to the sphere using the
// closed-form spherified cube correction, which distributes area far more
// evenly than plain normalization.
// Reference: http://mathproofs.blogspot.com/2005/07/mapping-cube-to-sphere.html
func GetSpherifiedCubePoint(p mgl64.Vec3) mgl64.Vec3 {
	x2 := p[0] * p[0]
	y2 := p[1] * p[1]
	z2 := p[2] * p[2]

	return mgl64.Vec3{
		p[0] * math.Sqrt(1-y2/2-z2/2+y2*z2/3),
		p[1] * math.Sqrt(1-z2/2-x2/2+z2*x2/3),
		p[2] * math.Sqrt(1-x2/2-y2/2+x2*y2/3),
	}
}

// SpherifiedFaceToSphere maps face UV coordinates in [-1,1] to a unit
// sphere direction using the spherified cube correction. This is the
// mapping the terrain pipeline uses: density sampling, chunk transforms
// and chunk centers all agree on it.
func SpherifiedFaceToSphere(face int, u, v float64) mgl64.Vec3 {
	u = Clamp(u, -1, 1)
	v = Clamp(v, -1, 1)

	p := CubeFaceNormals[face].
		Add(CubeFaceTangents[face].Mul(u)).
		Add(CubeFaceBitangents[face].Mul(v))

	return GetSpherifiedCubePoint(p)
}

// SpherifiedFaceUV inverts SpherifiedFaceToSphere for a known face: it
// returns the UV whose spherified direction matches dir. Directions that
// project outside the face clamp to its edge. The direction must not be
// perpendicular to the face axis.
func SpherifiedFaceUV(dir mgl64.Vec3, face int) (u, v float64) {
	su := dir.Dot(CubeFaceTangents[face])
	sv := dir.Dot(CubeFaceBitangents[face])
	return spherifiedInverse(su, sv)
}

// SphereToSpherifiedFace returns the dominant face of a direction and the
// UV whose spherified mapping reproduces it. A zero or near-zero input
// maps to the +X face center.
func SphereToSpherifiedFace(dir mgl64.Vec3) (face int, u, v float64) {
	if dir.LenSqr() < 1e-12 {
		return FaceXPos, 0, 0
	}
	if !IsValidSphereDirection(dir, 1e-4) {
		dir = dir.Mul(1 / dir.Len())
	}
	face = DominantFace(dir)
	u, v = SpherifiedFaceUV(dir, face)
	return face, u, v
}

// spherifiedInverse solves the spherified cube mapping for the face-local
// tangential components of a unit direction. With s = spherified(u, v, 1)
// the tangential components satisfy s_u^2 = u^2(3 - v^2)/6 and
// s_v^2 = v^2(3 - u^2)/6; eliminating one unknown leaves a quadratic in
// u^2. The discriminant is clamped at zero so off-face directions resolve
// to the nearest edge instead of NaN.
func spherifiedInverse(su, sv float64) (u, v float64) {
	su2 := su * su
	sv2 := sv * sv

	qu := 3 + 2*su2 - 2*sv2
	qv := 3 + 2*sv2 - 2*su2

	u2 := (qu - math.Sqrt(math.Max(qu*qu-24*su2, 0))) / 2
	v2 := (qv - math.Sqrt(math.Max(qv*qv-24*sv2, 0))) / 2

	u = math.Copysign(math.Sqrt(math.Max(u2, 0)), su)
	v = math.Copysign(math.Sqrt(math.Max(v2, 0)), sv)
	return Clamp(u, -1, 1), Clamp(v, -1, 1)
}
