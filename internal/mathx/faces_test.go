package mathx

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// TestRoundTrip verifies SphereToCubeFace followed by CubeFaceToSphere
// reconstructs random directions within tolerance.
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1337))

	for i := 0; i < 1000; i++ {
		dir := randomUnitVec(rng)

		face, u, v := SphereToCubeFace(dir)
		back := CubeFaceToSphere(face, u, v)

		if err := dir.Sub(back).Len(); err > 1e-3 {
			t.Fatalf("round-trip error %g for dir %v (face %d, uv %g,%g)", err, dir, face, u, v)
		}
	}
}

// TestFaceCenters verifies each face center projects exactly onto the face
// normal.
func TestFaceCenters(t *testing.T) {
	for face := 0; face < FaceCount; face++ {
		dir := CubeFaceToSphere(face, 0, 0)
		if err := dir.Sub(CubeFaceNormals[face]).Len(); err > 1e-3 {
			t.Errorf("face %s center error %g", FaceName(face), err)
		}
	}
}

// TestCubeCorners verifies the 8 normalized cube corners map to |u|,|v| ~= 1.
func TestCubeCorners(t *testing.T) {
	for _, corner := range []mgl64.Vec3{
		{1, 1, 1}, {1, 1, -1}, {1, -1, 1}, {1, -1, -1},
		{-1, 1, 1}, {-1, 1, -1}, {-1, -1, 1}, {-1, -1, -1},
	} {
		_, u, v := SphereToCubeFace(corner.Normalize())
		if math.Abs(math.Abs(u)-1) > 1e-3 || math.Abs(math.Abs(v)-1) > 1e-3 {
			t.Errorf("corner %v mapped to uv (%g, %g), want |u|=|v|=1", corner, u, v)
		}
	}
}

func TestDominantFace(t *testing.T) {
	cases := []struct {
		dir  mgl64.Vec3
		face int
	}{
		{mgl64.Vec3{1, 0, 0}, FaceXPos},
		{mgl64.Vec3{-1, 0, 0}, FaceXNeg},
		{mgl64.Vec3{0, 1, 0}, FaceYPos},
		{mgl64.Vec3{0, -1, 0}, FaceYNeg},
		{mgl64.Vec3{0, 0, 1}, FaceZPos},
		{mgl64.Vec3{0, 0, -1}, FaceZNeg},
		// Ties resolve X before Y before Z.
		{mgl64.Vec3{1, 1, 1}, FaceXPos},
		{mgl64.Vec3{0, 1, 1}, FaceYPos},
	}
	for _, c := range cases {
		if got := DominantFace(c.dir); got != c.face {
			t.Errorf("DominantFace(%v) = %s, want %s", c.dir, FaceName(got), FaceName(c.face))
		}
	}
}

// TestPoles verifies the poles land on the Z faces.
func TestPoles(t *testing.T) {
	if face, _, _ := SphereToCubeFace(mgl64.Vec3{0, 0, 1}); face != FaceZPos {
		t.Errorf("north pole mapped to %s", FaceName(face))
	}
	if face, _, _ := SphereToCubeFace(mgl64.Vec3{0, 0, -1}); face != FaceZNeg {
		t.Errorf("south pole mapped to %s", FaceName(face))
	}
}

// TestZeroVector verifies degenerate input is handled deterministically.
func TestZeroVector(t *testing.T) {
	face, u, v := SphereToCubeFace(mgl64.Vec3{})
	if face != FaceXPos || u != 0 || v != 0 {
		t.Errorf("zero vector mapped to face %d uv (%g, %g)", face, u, v)
	}

	// Tiny vectors must still land on a valid face.
	face, _, _ = SphereToCubeFace(mgl64.Vec3{1e-10, 2e-10, 3e-10})
	if face < 0 || face >= FaceCount {
		t.Errorf("tiny vector mapped to invalid face %d", face)
	}
}

// TestUVClamping verifies out-of-range UVs still produce unit directions.
func TestUVClamping(t *testing.T) {
	dir := CubeFaceToSphere(FaceXPos, 1.5, -1.5)
	if err := math.Abs(dir.Len() - 1); err > 1e-3 {
		t.Errorf("clamped projection length error %g", err)
	}
	want := CubeFaceToSphere(FaceXPos, 1, -1)
	if diff := dir.Sub(want).Len(); diff > 1e-9 {
		t.Errorf("clamped projection differs from edge projection by %g", diff)
	}
}

// TestProjectionNormalized verifies every projection output is unit length.
func TestProjectionNormalized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		face := rng.Intn(FaceCount)
		u := rng.Float64()*2 - 1
		v := rng.Float64()*2 - 1
		dir := CubeFaceToSphere(face, u, v)
		if err := math.Abs(dir.Len() - 1); err > 1e-9 {
			t.Fatalf("projection not normalized: face %d uv (%g,%g) err %g", face, u, v, err)
		}
	}
}

// TestSpherifiedCubePoint verifies the spherified mapping stays on the unit
// sphere for cube surface points and matches the axes exactly.
func TestSpherifiedCubePoint(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for face := 0; face < FaceCount; face++ {
		// Face centers map to themselves.
		p := GetSpherifiedCubePoint(CubeFaceNormals[face])
		if err := p.Sub(CubeFaceNormals[face]).Len(); err > 1e-9 {
			t.Errorf("face %s center moved by %g", FaceName(face), err)
		}
	}

	for i := 0; i < 200; i++ {
		face := rng.Intn(FaceCount)
		u := rng.Float64()*2 - 1
		v := rng.Float64()*2 - 1
		cube := CubeFaceNormals[face].
			Add(CubeFaceTangents[face].Mul(u)).
			Add(CubeFaceBitangents[face].Mul(v))
		p := GetSpherifiedCubePoint(cube)
		if err := math.Abs(p.Len() - 1); err > 1e-6 {
			t.Fatalf("spherified point off unit sphere by %g (face %d uv %g,%g)", err, face, u, v)
		}
	}
}

// TestSpherifiedFaceToSphere verifies the wired projection applies the
// spherified correction rather than plain normalization.
func TestSpherifiedFaceToSphere(t *testing.T) {
	dir := SpherifiedFaceToSphere(FaceXPos, 0.5, 0)
	// Cube point (1, 0, -0.5) spherified: x = sqrt(1 - 0.25/2),
	// z = -0.5*sqrt(1 - 1/2).
	want := mgl64.Vec3{math.Sqrt(0.875), 0, -0.5 * math.Sqrt(0.5)}
	if err := dir.Sub(want).Len(); err > 1e-12 {
		t.Fatalf("spherified direction %v, want %v (err %g)", dir, want, err)
	}

	// Plain normalization would land over 5 degrees away at this UV.
	plain := CubeFaceToSphere(FaceXPos, 0.5, 0)
	if angle := math.Acos(Clamp(dir.Dot(plain), -1, 1)); angle < 0.05 {
		t.Fatalf("spherified and normalized directions only %g rad apart", angle)
	}

	for face := 0; face < FaceCount; face++ {
		if err := SpherifiedFaceToSphere(face, 0, 0).Sub(CubeFaceNormals[face]).Len(); err > 1e-12 {
			t.Errorf("face %s center moved by %g", FaceName(face), err)
		}
	}
}

// TestSpherifiedRoundTrip verifies SphereToSpherifiedFace inverts the
// spherified projection across all faces and the full UV range.
func TestSpherifiedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))

	for i := 0; i < 1000; i++ {
		face := rng.Intn(FaceCount)
		u := rng.Float64()*1.98 - 0.99
		v := rng.Float64()*1.98 - 0.99

		dir := SpherifiedFaceToSphere(face, u, v)
		gotFace, gotU, gotV := SphereToSpherifiedFace(dir)

		if gotFace != face {
			t.Fatalf("face %d uv (%g,%g): inverse picked face %d", face, u, v, gotFace)
		}
		if math.Abs(gotU-u) > 1e-9 || math.Abs(gotV-v) > 1e-9 {
			t.Fatalf("face %d uv (%g,%g): inverse returned (%g,%g)", face, u, v, gotU, gotV)
		}
	}

	if face, u, v := SphereToSpherifiedFace(mgl64.Vec3{}); face != FaceXPos || u != 0 || v != 0 {
		t.Errorf("zero vector mapped to face %d uv (%g,%g)", face, u, v)
	}
}

// TestSmoothTraversal walks across a face and checks the direction changes
// without sudden jumps.
func TestSmoothTraversal(t *testing.T) {
	const steps = 20
	var prev mgl64.Vec3
	maxAngle := 0.0

	for i := 0; i <= steps; i++ {
		u := Lerp(-0.99, 0.99, float64(i)/steps)
		dir := CubeFaceToSphere(FaceXPos, u, 0)
		if i > 0 {
			angle := math.Acos(Clamp(prev.Dot(dir), -1, 1))
			if angle > maxAngle {
				maxAngle = angle
			}
		}
		prev = dir
	}

	// Roughly 90 degrees split over the walk, with slack for distortion.
	limit := (math.Pi / 2) / steps * 1.5
	if maxAngle > limit {
		t.Errorf("max step angle %g exceeds %g", maxAngle, limit)
	}
}

func TestStretchFactorBounds(t *testing.T) {
	for u := -1.0; u <= 1.0; u += 0.5 {
		for v := -1.0; v <= 1.0; v += 0.5 {
			s := StretchFactor(u, v)
			if s < 0.65 || s > 1.05 {
				t.Errorf("stretch factor %g out of bounds at uv (%g, %g)", s, u, v)
			}
		}
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		p := randomUnitVec(rng).Mul(1 + rng.Float64()*1000)
		r, theta, phi := CartesianToSpherical(p)
		back := SphericalToCartesian(r, theta, phi)
		if err := p.Sub(back).Len(); err > r*1e-9 {
			t.Fatalf("spherical round-trip error %g for %v", err, p)
		}
	}
}

func randomUnitVec(rng *rand.Rand) mgl64.Vec3 {
	for {
		v := mgl64.Vec3{
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
			rng.Float64()*2 - 1,
		}
		if sq := v.LenSqr(); sq > 1e-6 && sq <= 1 {
			return v.Normalize()
		}
	}
}
