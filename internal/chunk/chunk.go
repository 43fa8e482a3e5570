package chunk

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
)

// Chunk is one terrain patch moving through the streaming lifecycle. All
// fields are owned by the streaming thread; generation workers only ever
// see copies of the inputs and hand results back by value.
type Chunk struct {
	Id        Id
	Transform *Transform
	state     State

	// GenerationId is bumped every time new generation work is kicked off
	// for this chunk. Results carrying an older id are stale and dropped.
	GenerationId uint64

	Mesh *MeshData

	// Proxy is the renderer-side handle, nil until the mesh is uploaded.
	Proxy RenderProxy

	CollisionEnabled bool
}

// RenderProxy is the renderer's handle for an uploaded chunk mesh. The
// streaming controller drives it; implementations live with the renderer.
type RenderProxy interface {
	UploadMesh(mesh *MeshData)
	SetVisible(visible bool)
	SetCollisionEnabled(enabled bool)
	Release()
}

// New creates a chunk in the unloaded state.
func New(id Id, transform *Transform) *Chunk {
	return &Chunk{Id: id, Transform: transform, state: StateUnloaded}
}

// State returns the chunk's current lifecycle state.
func (c *Chunk) State() State { return c.state }

// TransitionTo moves the chunk to a new lifecycle state, rejecting
// transitions outside the lifecycle table.
func (c *Chunk) TransitionTo(to State) error {
	if !IsValidTransition(c.state, to) {
		slog.Error("rejected chunk state transition",
			"chunk", c.Id.String(), "from", c.state.String(), "to", to.String())
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.state, to)
	}
	c.state = to
	return nil
}

// BeginGeneration bumps the generation counter and returns the id that the
// produced result must carry to be accepted.
func (c *Chunk) BeginGeneration() uint64 {
	c.GenerationId++
	return c.GenerationId
}

// AcceptsResult reports whether a generation result with the given id is
// still current for this chunk.
func (c *Chunk) AcceptsResult(generationId uint64) bool {
	return generationId == c.GenerationId && c.state == StateGenerating
}

// DetachProxy hides the render proxy, detaches it from the chunk and
// returns it so the owner can recycle or release it. Nil when no proxy is
// attached.
func (c *Chunk) DetachProxy() RenderProxy {
	p := c.Proxy
	if p == nil {
		return nil
	}
	c.Proxy = nil
	p.SetVisible(false)
	if c.CollisionEnabled {
		p.SetCollisionEnabled(false)
		c.CollisionEnabled = false
	}
	return p
}

// WorldBounds returns the chunk's axis-aligned world bounds: the exact
// mesh bounds while the mesh payload is held, the padded transform box
// after the mesh has been handed to the renderer.
func (c *Chunk) WorldBounds() (min, max mgl64.Vec3) {
	if c.Mesh.IsValid() {
		bmin, bmax := c.Mesh.Bounds()
		return c.Transform.LocalToWorld(bmin), c.Transform.LocalToWorld(bmax)
	}
	return c.Transform.WorldBounds()
}
