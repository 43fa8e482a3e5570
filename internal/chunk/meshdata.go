package chunk

import "github.com/go-gl/mathgl/mgl64"

// MeshData is the triangle mesh produced for one chunk. Positions are
// planet-relative; Transform.LocalToWorld places them in the world.
// Vertices are not welded across triangles.
type MeshData struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	UVs       []mgl64.Vec2
	Tangents  []mgl64.Vec3
	Indices   []uint32

	boundsMin      mgl64.Vec3
	boundsMax      mgl64.Vec3
	boundsUpToDate bool
}

// VertexCount returns the number of vertices in the mesh.
func (m *MeshData) VertexCount() int { return len(m.Positions) }

// TriangleCount returns the number of triangles in the mesh.
func (m *MeshData) TriangleCount() int { return len(m.Indices) / 3 }

// IsValid reports whether the mesh has renderable geometry.
func (m *MeshData) IsValid() bool {
	return m != nil && len(m.Positions) > 0 && len(m.Indices) >= 3
}

// Bounds returns the mesh's axis-aligned bounds in planet-relative space,
// computing and caching them on first use. An empty mesh has zero bounds.
func (m *MeshData) Bounds() (min, max mgl64.Vec3) {
	if !m.boundsUpToDate {
		m.computeBounds()
	}
	return m.boundsMin, m.boundsMax
}

// InvalidateBounds forces recomputation on the next Bounds call. Call after
// mutating Positions.
func (m *MeshData) InvalidateBounds() { m.boundsUpToDate = false }

// EstimateMemoryBytes approximates the heap footprint of the mesh payload.
func (m *MeshData) EstimateMemoryBytes() int {
	const vec3Size, vec2Size, indexSize = 24, 16, 4
	return len(m.Positions)*vec3Size +
		len(m.Normals)*vec3Size +
		len(m.Tangents)*vec3Size +
		len(m.UVs)*vec2Size +
		len(m.Indices)*indexSize
}

func (m *MeshData) computeBounds() {
	m.boundsUpToDate = true
	if len(m.Positions) == 0 {
		m.boundsMin, m.boundsMax = mgl64.Vec3{}, mgl64.Vec3{}
		return
	}
	m.boundsMin, m.boundsMax = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < m.boundsMin[i] {
				m.boundsMin[i] = p[i]
			}
			if p[i] > m.boundsMax[i] {
				m.boundsMax[i] = p[i]
			}
		}
	}
}
