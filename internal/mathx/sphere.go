package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Lerp performs linear interpolation.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SafeNormalize normalizes v, returning the zero vector when the squared
// length is below tolerance.
func SafeNormalize(v mgl64.Vec3, tolerance float64) mgl64.Vec3 {
	sizeSq := v.LenSqr()
	if sizeSq > tolerance {
		return v.Mul(1 / math.Sqrt(sizeSq))
	}
	return mgl64.Vec3{}
}

// SignedDistanceToSphere returns the signed distance from a point to a
// sphere centered at the origin. Negative inside, positive outside.
func SignedDistanceToSphere(p mgl64.Vec3, radius float64) float64 {
	return p.Len() - radius
}

// StretchFactor approximates the area distortion of the naive cube-sphere
// projection at a face UV coordinate, via the Jacobian of the mapping of the
// point (1,u,v) onto the sphere. 1 at the face center, shrinking toward the
// corners.
func StretchFactor(u, v float64) float64 {
	u2 := u * u
	v2 := v * v
	denom := 1 + u2 + v2
	if denom <= 0 {
		return 1
	}
	return math.Sqrt((1+u2)*(1+v2)) / denom
}

// FaceEdgeLength is the arc length of one cube face edge projected onto a
// sphere of the given radius.
func FaceEdgeLength(sphereRadius float64) float64 {
	return sphereRadius * math.Pi / 2
}

// FaceSurfaceArea is the area of one sixth of a sphere of the given radius.
func FaceSurfaceArea(sphereRadius float64) float64 {
	return 4 * math.Pi * sphereRadius * sphereRadius / 6
}

// SphericalToCartesian converts (radius, theta, phi) to a cartesian point.
// Theta is the polar angle from +Z, phi the azimuth from +X.
func SphericalToCartesian(radius, theta, phi float64) mgl64.Vec3 {
	sinTheta := math.Sin(theta)
	return mgl64.Vec3{
		radius * sinTheta * math.Cos(phi),
		radius * sinTheta * math.Sin(phi),
		radius * math.Cos(theta),
	}
}

// CartesianToSpherical is the inverse of SphericalToCartesian. A point at
// the origin yields zero angles.
func CartesianToSpherical(p mgl64.Vec3) (radius, theta, phi float64) {
	radius = p.Len()
	if radius > 1e-6 {
		theta = math.Acos(p[2] / radius)
		phi = math.Atan2(p[1], p[0])
	}
	return radius, theta, phi
}

// IsValidSphereDirection reports whether dir is normalized within tolerance.
func IsValidSphereDirection(dir mgl64.Vec3, tolerance float64) bool {
	return math.Abs(dir.LenSqr()-1) < tolerance
}
