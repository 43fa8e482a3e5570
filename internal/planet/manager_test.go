package planet

import (
	"sync"
	"testing"
	"time"

	"planetgen/internal/chunk"
	"planetgen/internal/density"
	"planetgen/internal/mathx"

	"github.com/go-gl/mathgl/mgl64"
)

type fakeProxy struct {
	mu        sync.Mutex
	uploaded  *chunk.MeshData
	visible   bool
	collision bool
	released  bool
}

func (p *fakeProxy) UploadMesh(m *chunk.MeshData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploaded = m
}
func (p *fakeProxy) SetVisible(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = v
}
func (p *fakeProxy) SetCollisionEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.collision = v
}
func (p *fakeProxy) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released = true
}

type fakeSink struct {
	mu      sync.Mutex
	proxies []*fakeProxy
}

func (s *fakeSink) AcquireProxy(chunk.Id) chunk.RenderProxy {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &fakeProxy{}
	s.proxies = append(s.proxies, p)
	return p
}

func testGenerator(radius float64) *density.Generator {
	return density.NewGenerator(density.Params{
		PlanetRadius: radius,
		VoxelSize:    radius / 50,
		Seed:         7,
	}, nil, nil)
}

func testManager(t *testing.T, sink RenderSink) *Manager {
	t.Helper()
	m, err := NewManager(testGenerator(1000), sink, Options{
		Resolution:               8,
		MaxLevel:                 2,
		RenderDistance:           3000,
		HighResDistance:          600,
		CollisionDistance:        500,
		ChunksToSpawnPerFrame:    16,
		MaxConcurrentGenerations: 32,
		MeshUpdatesPerFrame:      16,
		Workers:                  2,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// pump runs updates until cond holds or the timeout expires.
func pump(t *testing.T, m *Manager, view ViewContext, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.Update(view)
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

// settle pumps until the chunk set stops changing: nothing generating,
// nothing queued, every chunk visible.
func settle(t *testing.T, m *Manager, view ViewContext) {
	t.Helper()
	stable := 0
	ok := pump(t, m, view, 10*time.Second, func() bool {
		counts := m.StateCounts()
		if m.inFlight == 0 && len(m.readyQueue) == 0 && len(m.pendingSubmit) == 0 &&
			counts[chunk.StateVisible] == m.ChunkCount() {
			stable++
		} else {
			stable = 0
		}
		return stable >= 5
	})
	if !ok {
		t.Fatalf("streaming did not settle: %v, in flight %d", m.StateCounts(), m.inFlight)
	}
}

func surfaceView(radius float64) ViewContext {
	return ViewContext{Observer: mgl64.Vec3{radius + 10, 0, 0}}
}

func TestStreamingProducesVisibleChunks(t *testing.T) {
	sink := &fakeSink{}
	m := testManager(t, sink)
	view := surfaceView(1000)

	settle(t, m, view)

	if m.ChunkCount() == 0 {
		t.Fatal("no chunks after settling")
	}
	visible := m.VisibleChunks()
	if len(visible) != m.ChunkCount() {
		t.Fatalf("%d visible of %d chunks after settling", len(visible), m.ChunkCount())
	}

	// The chunk under the observer is at the finest level.
	finest := int32(0)
	for _, id := range visible {
		if id.LOD > finest {
			finest = id.LOD
		}
	}
	if finest != 2 {
		t.Errorf("finest live level = %d, want 2", finest)
	}
	near := chunk.IdFromWorldPosition(view.Observer, 2, 4)
	if m.Chunk(near) == nil {
		t.Errorf("no finest-level chunk %v under the observer", near)
	}

	// Every chunk holding a proxy had its mesh uploaded and made visible.
	sink.mu.Lock()
	acquired := len(sink.proxies)
	sink.mu.Unlock()
	if acquired == 0 {
		t.Fatal("no proxies acquired")
	}
	for _, id := range visible {
		c := m.Chunk(id)
		if c.Proxy == nil {
			continue
		}
		p := c.Proxy.(*fakeProxy)
		p.mu.Lock()
		if p.uploaded == nil || !p.visible {
			t.Errorf("chunk %v proxy not uploaded+visible", id)
		}
		p.mu.Unlock()
	}

	stats := m.Stats()
	if stats.Generated == 0 || stats.Uploaded == 0 {
		t.Errorf("stats not advancing: %+v", stats)
	}
}

func TestCollisionOnlyNearObserver(t *testing.T) {
	m := testManager(t, &fakeSink{})
	view := surfaceView(1000)
	settle(t, m, view)

	anyEnabled := false
	for _, id := range m.VisibleChunks() {
		c := m.Chunk(id)
		d := c.Transform.DistanceToCenter(view.Observer)
		if c.CollisionEnabled {
			anyEnabled = true
			if d > 500 {
				t.Errorf("chunk %v has collision at distance %v", id, d)
			}
		} else if d <= 450 {
			t.Errorf("chunk %v near observer (%v) without collision", id, d)
		}
	}
	if !anyEnabled {
		t.Error("no chunk has collision enabled")
	}
}

func TestEvictionFollowsObserver(t *testing.T) {
	m := testManager(t, &fakeSink{})
	view := surfaceView(1000)
	settle(t, m, view)

	near := chunk.IdFromWorldPosition(view.Observer, 2, 4)
	if m.Chunk(near) == nil {
		t.Fatalf("expected finest chunk %v near observer", near)
	}

	// Jump to the antipode; the old finest chunks are now far outside
	// their band and must be destroyed.
	far := ViewContext{Observer: mgl64.Vec3{-1010, 0, 0}}
	ok := pump(t, m, far, 10*time.Second, func() bool {
		return m.Chunk(near) == nil
	})
	if !ok {
		t.Fatal("chunk under old observer position never evicted")
	}
	if m.Stats().Destroyed == 0 {
		t.Error("destroyed counter did not advance")
	}

	settle(t, m, far)
	newNear := chunk.IdFromWorldPosition(far.Observer, 2, 4)
	if m.Chunk(newNear) == nil {
		t.Errorf("no finest chunk under new observer position")
	}
}

func TestHysteresisSuppressesFlicker(t *testing.T) {
	m := testManager(t, &fakeSink{})
	base := surfaceView(1000)
	settle(t, m, base)

	destroyed := m.Stats().Destroyed
	spawned := m.Stats().Spawned

	// Oscillate the observer by ±1%, well inside the 10% hysteresis
	// stretch. The chunk set must not churn.
	for i := 0; i < 60; i++ {
		off := 10.0
		if i%2 == 1 {
			off = -10.0
		}
		view := ViewContext{Observer: mgl64.Vec3{1010 + off, off, 0}}
		m.Update(view)
		time.Sleep(time.Millisecond)
	}

	if got := m.Stats().Destroyed; got != destroyed {
		t.Errorf("oscillation destroyed %d chunks", got-destroyed)
	}
	if got := m.Stats().Spawned; got != spawned {
		t.Errorf("oscillation spawned %d chunks", got-spawned)
	}
}

func TestStaleResultsDropped(t *testing.T) {
	m := testManager(t, &fakeSink{})

	// Kick off generation for one chunk by hand, then destroy it before
	// the result lands.
	id := chunk.Id{Face: int32(mathx.FaceXPos), X: 1, Y: 1, LOD: 2}
	c := m.createChunk(id)
	if !m.submitGeneration(c) {
		t.Fatal("submit failed on empty queue")
	}
	m.destroy(id)

	deadline := time.Now().Add(5 * time.Second)
	for m.Stats().StaleDropped == 0 && time.Now().Before(deadline) {
		m.drainResults()
		time.Sleep(2 * time.Millisecond)
	}
	if m.Stats().StaleDropped == 0 {
		t.Fatal("result for destroyed chunk was not dropped")
	}
	if m.inFlight != 0 {
		t.Errorf("inFlight = %d after drain, want 0", m.inFlight)
	}
}

func TestGenerationIdSupersedesOlderWork(t *testing.T) {
	m := testManager(t, &fakeSink{})

	id := chunk.Id{Face: int32(mathx.FaceXPos), X: 0, Y: 0, LOD: 2}
	c := m.createChunk(id)
	if err := c.TransitionTo(chunk.StateGenerating); err != nil {
		t.Fatal(err)
	}
	oldGen := c.BeginGeneration()
	newGen := c.BeginGeneration()

	if c.AcceptsResult(oldGen) {
		t.Error("superseded generation id accepted")
	}
	if !c.AcceptsResult(newGen) {
		t.Error("current generation id rejected")
	}
}

// readyChunkWithMesh walks a chunk to the ready state holding a minimal
// valid mesh, bypassing the worker pool.
func readyChunkWithMesh(t *testing.T, m *Manager, id chunk.Id) *chunk.Chunk {
	t.Helper()
	c := m.createChunk(id)
	if err := c.TransitionTo(chunk.StateGenerating); err != nil {
		t.Fatal(err)
	}
	c.Mesh = &chunk.MeshData{
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   make([]mgl64.Vec3, 3),
		UVs:       make([]mgl64.Vec2, 3),
		Tangents:  make([]mgl64.Vec3, 3),
		Indices:   []uint32{0, 1, 2},
	}
	if err := c.TransitionTo(chunk.StateReady); err != nil {
		t.Fatal(err)
	}
	m.readyQueue = append(m.readyQueue, id)
	return c
}

func TestUploadReleasesMeshPayload(t *testing.T) {
	sink := &fakeSink{}
	m := testManager(t, sink)

	id := chunk.Id{Face: int32(mathx.FaceXPos), X: 0, Y: 0, LOD: 2}
	c := readyChunkWithMesh(t, m, id)
	m.upload(mgl64.Vec3{2000, 0, 0})

	if c.State() != chunk.StateVisible {
		t.Fatalf("state = %s after upload, want visible", c.State())
	}
	if c.Proxy == nil {
		t.Fatal("no proxy attached after upload")
	}
	p := c.Proxy.(*fakeProxy)
	if p.uploaded == nil || !p.visible {
		t.Error("proxy not uploaded+visible")
	}
	if c.Mesh != nil {
		t.Error("mesh payload retained after upload")
	}
	// With the payload gone the chunk falls back to transform bounds.
	min, max := c.WorldBounds()
	tmin, tmax := c.Transform.WorldBounds()
	if min != tmin || max != tmax {
		t.Errorf("bounds %v..%v after upload, want transform bounds %v..%v", min, max, tmin, tmax)
	}
}

func TestProxyPoolRecyclesReleasedProxies(t *testing.T) {
	sink := &fakeSink{}
	m := testManager(t, sink)

	id := chunk.Id{Face: int32(mathx.FaceXPos), X: 0, Y: 0, LOD: 2}
	c := readyChunkWithMesh(t, m, id)
	m.upload(mgl64.Vec3{2000, 0, 0})
	p := c.Proxy.(*fakeProxy)

	m.destroy(id)
	if p.released {
		t.Fatal("destroyed chunk's proxy released instead of pooled")
	}
	if p.visible {
		t.Error("pooled proxy still visible")
	}
	if len(m.freeProxies) != 1 {
		t.Fatalf("free pool holds %d proxies, want 1", len(m.freeProxies))
	}

	// The next chunk draws from the pool instead of the sink.
	id2 := id.Neighbor(1, 0)
	c2 := readyChunkWithMesh(t, m, id2)
	m.upload(mgl64.Vec3{2000, 0, 0})
	if c2.Proxy != p {
		t.Error("pooled proxy not reused")
	}
	if got := len(sink.proxies); got != 1 {
		t.Errorf("sink allocated %d proxies, want 1", got)
	}
	if len(m.freeProxies) != 0 {
		t.Errorf("free pool holds %d proxies after reuse, want 0", len(m.freeProxies))
	}
}

func TestEmptyMeshChunkVisibleWithoutProxy(t *testing.T) {
	sink := &fakeSink{}
	m := testManager(t, sink)

	id := chunk.Id{Face: int32(mathx.FaceXPos), X: 1, Y: 0, LOD: 2}
	c := m.createChunk(id)
	if err := c.TransitionTo(chunk.StateGenerating); err != nil {
		t.Fatal(err)
	}
	c.Mesh = &chunk.MeshData{}
	if err := c.TransitionTo(chunk.StateReady); err != nil {
		t.Fatal(err)
	}
	m.readyQueue = append(m.readyQueue, id)
	m.upload(mgl64.Vec3{2000, 0, 0})

	if c.State() != chunk.StateVisible {
		t.Fatalf("state = %s, want visible", c.State())
	}
	if c.Proxy != nil {
		t.Error("proxy attached for an empty mesh")
	}
	if got := len(sink.proxies); got != 0 {
		t.Errorf("sink allocated %d proxies for an empty mesh", got)
	}
}

func TestImpostor(t *testing.T) {
	m := testManager(t, &fakeSink{})

	// On the surface the horizon is close; no impostor needed.
	low := m.Impostor(mgl64.Vec3{1001, 0, 0})
	if low.Active {
		t.Errorf("impostor active at the surface (horizon within %v)", low.StartDistance)
	}

	// High above, terrain is visible far beyond the chunked range.
	high := m.Impostor(mgl64.Vec3{6000, 0, 0})
	if !high.Active {
		t.Error("impostor inactive at high altitude")
	}
	if high.StartDistance != 3000*impostorFraction {
		t.Errorf("impostor start = %v, want %v", high.StartDistance, 3000*impostorFraction)
	}
	if high.Radius != 1000 {
		t.Errorf("impostor radius = %v, want planet radius", high.Radius)
	}

	// Inside the planet nothing is visible.
	if m.Impostor(mgl64.Vec3{100, 0, 0}).Active {
		t.Error("impostor active below the surface")
	}
}

func TestViewDistanceCapsStreaming(t *testing.T) {
	m := testManager(t, &fakeSink{})
	view := ViewContext{Observer: mgl64.Vec3{1010, 0, 0}, ViewDistance: 700}
	settle(t, m, view)

	for id, c := range m.chunks {
		d := c.Transform.DistanceToCenter(view.Observer)
		if d > 700*hysteresisFactor {
			t.Errorf("chunk %v at distance %v exceeds capped view distance", id, d)
		}
	}
}

func TestLevelCapStreamsCoarserChunks(t *testing.T) {
	m := testManager(t, &fakeSink{})
	view := surfaceView(1000)
	view.MaxLOD = 1
	settle(t, m, view)

	if m.ChunkCount() == 0 {
		t.Fatal("no chunks streamed under level cap")
	}
	for id := range m.chunks {
		if id.LOD > 1 {
			t.Errorf("chunk %v exceeds level cap", id)
		}
	}
	// The area under the observer is still covered, just at the capped
	// level instead of the finest one.
	under := chunk.IdFromWorldPosition(view.Observer, 1, 2)
	if m.Chunk(under) == nil {
		t.Errorf("chunk %v under observer missing", under)
	}
}

// A table whose coarsest band stops short of the render distance leaves
// the area beyond it unchunked; nothing may be clamped into the finest
// band instead.
func TestDesiredSetEndsAtCoarsestBand(t *testing.T) {
	m, err := NewManager(testGenerator(1000), nil, Options{
		Resolution:     8,
		RenderDistance: 10000,
		LODs: []LODInfo{
			{Level: 3, MaxDistance: 150},
			{Level: 2, MaxDistance: 300},
		},
		ChunksToSpawnPerFrame:    16,
		MaxConcurrentGenerations: 32,
		MeshUpdatesPerFrame:      16,
		Workers:                  1,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(m.Close)

	view := surfaceView(1000)
	desired := m.computeDesired(view, m.opts.RenderDistance, 0)
	if len(desired) == 0 {
		t.Fatal("no chunks desired under the observer")
	}
	for id := range desired {
		center := m.chunkCenter(id, (LODInfo{Level: id.LOD}).ChunksPerFace())
		dist := view.Observer.Sub(center).Len()
		if dist > 300 {
			t.Errorf("chunk %v at distance %v desired beyond the coarsest band", id, dist)
		}
	}
}

func TestCoveredByExistingSeesAnyLiveChild(t *testing.T) {
	m := testManager(t, &fakeSink{})

	parent := chunk.Id{Face: int32(mathx.FaceXPos), X: 1, Y: 1, LOD: 1}
	for _, off := range [][2]int32{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		child := chunk.Id{Face: parent.Face, X: parent.X<<1 + off[0], Y: parent.Y<<1 + off[1], LOD: 2}
		m.createChunk(child)
		if !m.coveredByExisting(parent) {
			t.Errorf("live child at offset %v does not cover its parent", off)
		}
		m.destroy(child)
	}
	if m.coveredByExisting(parent) {
		t.Error("parent covered with no live children")
	}

	// A neighbor's child covers nothing here.
	other := chunk.Id{Face: parent.Face, X: 0, Y: 0, LOD: 2}
	m.createChunk(other)
	if m.coveredByExisting(parent) {
		t.Error("parent covered by a neighbor's child")
	}
}

func TestNewManagerValidation(t *testing.T) {
	gen := testGenerator(1000)
	if _, err := NewManager(gen, nil, Options{Resolution: 1, RenderDistance: 100}); err == nil {
		t.Error("resolution 1 accepted")
	}
	if _, err := NewManager(gen, nil, Options{Resolution: 8}); err == nil {
		t.Error("zero render distance accepted")
	}
	if _, err := NewManager(gen, nil, Options{
		Resolution:     8,
		RenderDistance: 100,
		LODs:           []LODInfo{{Level: 1, MaxDistance: 100}, {Level: 1, MaxDistance: 50}},
	}); err == nil {
		t.Error("invalid LOD table accepted")
	}
}
