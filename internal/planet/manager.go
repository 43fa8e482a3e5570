package planet

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"planetgen/internal/chunk"
	"planetgen/internal/density"
	"planetgen/internal/mathx"
	"planetgen/internal/mesh"
	"planetgen/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
)

// faceHalfAngle is the angle from a face center to its corner on the unit
// sphere, used to cull faces entirely outside the view disc.
var faceHalfAngle = math.Atan(math.Sqrt2)

// impostorFraction of the render distance beyond which the far sphere
// impostor stands in for real chunks. The band between the fraction and
// the full render distance is drawn by both, hiding the seam.
const impostorFraction = 0.75

// Options configures a streaming Manager.
type Options struct {
	Center mgl64.Vec3

	// Resolution is the voxel cell count per chunk axis.
	Resolution int

	// LODs overrides the band table. When nil it is derived from MaxLevel
	// and the two distances below.
	LODs     []LODInfo
	MaxLevel int32

	RenderDistance    float64
	HighResDistance   float64
	CollisionDistance float64

	ChunksToSpawnPerFrame    int
	MaxConcurrentGenerations int
	MeshUpdatesPerFrame      int
	Workers                  int

	// MeshConfig tunes extraction; the zero value selects the defaults.
	MeshConfig mesh.Config
}

// ViewContext describes the observer for one update.
type ViewContext struct {
	Observer mgl64.Vec3
	// ViewDistance caps the render distance for this update; zero keeps the
	// configured distance.
	ViewDistance float64
	// MaxLOD caps the subdivision level for this update; zero means no cap.
	MaxLOD int32
}

// RenderSink hands out render proxies for uploaded chunk meshes. A nil
// sink runs the full lifecycle without a renderer attached.
type RenderSink interface {
	AcquireProxy(id chunk.Id) chunk.RenderProxy
}

// Stats counts streaming events since the manager was created.
type Stats struct {
	Spawned        uint64
	Generated      uint64
	Uploaded       uint64
	Destroyed      uint64
	StaleDropped   uint64
	QueueSaturated uint64
}

// ImpostorInfo tells the renderer whether to draw the far sphere stand-in.
type ImpostorInfo struct {
	Active bool
	// StartDistance is where the impostor takes over from real chunks.
	StartDistance float64
	Radius        float64
}

// Manager owns the chunk set of one planet. It is not safe for concurrent
// use: Update and the accessors belong to a single streaming thread, while
// generation runs on the internal worker pool.
type Manager struct {
	opts Options
	gen  *density.Generator
	pool *generatorPool
	sink RenderSink
	lods []LODInfo

	chunks        map[chunk.Id]*chunk.Chunk
	readyQueue    []chunk.Id
	pendingSubmit []chunk.Id
	inFlight      int

	// freeProxies recycles render proxies from destroyed chunks so the
	// sink only allocates when the pool runs dry. Released on Close.
	freeProxies []chunk.RenderProxy

	stats Stats
	frame uint64
}

// NewManager wires a manager around a density generator. The generator
// must be safe for concurrent sampling.
func NewManager(gen *density.Generator, sink RenderSink, opts Options) (*Manager, error) {
	if opts.Resolution < 2 {
		return nil, fmt.Errorf("planet: resolution %d too small", opts.Resolution)
	}
	if opts.RenderDistance <= 0 {
		return nil, fmt.Errorf("planet: render distance must be positive")
	}
	if opts.ChunksToSpawnPerFrame <= 0 {
		opts.ChunksToSpawnPerFrame = 8
	}
	if opts.MaxConcurrentGenerations <= 0 {
		opts.MaxConcurrentGenerations = 32
	}
	if opts.MeshUpdatesPerFrame <= 0 {
		opts.MeshUpdatesPerFrame = 4
	}
	if opts.MeshConfig == (mesh.Config{}) {
		opts.MeshConfig = mesh.DefaultConfig()
	}

	lods := opts.LODs
	if lods == nil {
		lods = BuildLODTable(opts.MaxLevel, opts.HighResDistance, opts.RenderDistance)
	}
	sortLODTable(lods)
	if err := ValidateLODTable(lods); err != nil {
		return nil, err
	}

	queueSize := opts.MaxConcurrentGenerations * 4
	return &Manager{
		opts:   opts,
		gen:    gen,
		pool:   newGeneratorPool(gen, opts.MeshConfig, opts.Workers, queueSize),
		sink:   sink,
		lods:   lods,
		chunks: make(map[chunk.Id]*chunk.Chunk),
	}, nil
}

// Close stops the worker pool, destroys every chunk and releases the
// pooled render proxies.
func (m *Manager) Close() {
	m.pool.Close()
	for id := range m.chunks {
		m.destroy(id)
	}
	for _, p := range m.freeProxies {
		p.Release()
	}
	m.freeProxies = nil
}

// Update runs one streaming step: ingest finished generations, reconcile
// the desired chunk set around the observer, kick off new generation work
// and push ready meshes to the renderer.
func (m *Manager) Update(view ViewContext) {
	defer profiling.Track("planet.Update")()
	m.frame++

	renderDist := m.opts.RenderDistance
	if view.ViewDistance > 0 && view.ViewDistance < renderDist {
		renderDist = view.ViewDistance
	}

	m.drainResults()
	firstBand := m.firstAllowedBand(view)
	desired := m.computeDesired(view, renderDist, firstBand)
	m.evict(view.Observer, desired, renderDist)
	m.spawn(view.Observer, desired, renderDist, firstBand)
	m.upload(view.Observer)
	m.updateCollision(view.Observer)
}

// Impostor reports whether terrain beyond the chunked range is visible
// from the observer and the far sphere should be drawn.
func (m *Manager) Impostor(observer mgl64.Vec3) ImpostorInfo {
	start := m.opts.RenderDistance * impostorFraction
	info := ImpostorInfo{
		StartDistance: start,
		Radius:        m.gen.Params().PlanetRadius,
	}

	d := observer.Sub(m.opts.Center).Len()
	if d <= info.Radius {
		return info
	}
	horizon := math.Sqrt(d*d - info.Radius*info.Radius)
	info.Active = horizon > start
	return info
}

// Stats returns a copy of the event counters.
func (m *Manager) Stats() Stats { return m.stats }

// ChunkCount returns the number of live chunks.
func (m *Manager) ChunkCount() int { return len(m.chunks) }

// Chunk returns a live chunk by id, or nil.
func (m *Manager) Chunk(id chunk.Id) *chunk.Chunk { return m.chunks[id] }

// StateCounts tallies live chunks by lifecycle state.
func (m *Manager) StateCounts() map[chunk.State]int {
	out := make(map[chunk.State]int)
	for _, c := range m.chunks {
		out[c.State()]++
	}
	return out
}

// VisibleChunks returns the ids of all chunks currently visible.
func (m *Manager) VisibleChunks() []chunk.Id {
	var out []chunk.Id
	for id, c := range m.chunks {
		if c.State() == chunk.StateVisible {
			out = append(out, id)
		}
	}
	return out
}

// LogStatistics emits a structured summary of the streaming state.
func (m *Manager) LogStatistics() {
	counts := m.StateCounts()
	inUse := 0
	for _, c := range m.chunks {
		if c.Proxy != nil {
			inUse++
		}
	}
	slog.Info("chunk streaming stats",
		"chunks", len(m.chunks),
		"visible", counts[chunk.StateVisible],
		"generating", counts[chunk.StateGenerating],
		"ready", counts[chunk.StateReady],
		"proxies_in_use", inUse,
		"proxies_pooled", len(m.freeProxies),
		"in_flight", m.inFlight,
		"spawned", m.stats.Spawned,
		"generated", m.stats.Generated,
		"uploaded", m.stats.Uploaded,
		"destroyed", m.stats.Destroyed,
		"stale_dropped", m.stats.StaleDropped,
	)
}

func (m *Manager) drainResults() {
	for _, r := range m.pool.drain() {
		m.inFlight--
		c := m.chunks[r.id]
		if c == nil || !c.AcceptsResult(r.generationId) {
			m.stats.StaleDropped++
			continue
		}
		c.Mesh = r.mesh
		if err := c.TransitionTo(chunk.StateReady); err != nil {
			continue
		}
		m.stats.Generated++
		m.readyQueue = append(m.readyQueue, r.id)
	}
}

// firstAllowedBand returns the index of the finest band still permitted
// by the view's level cap. Without a cap that is band zero.
func (m *Manager) firstAllowedBand(view ViewContext) int {
	if view.MaxLOD <= 0 {
		return 0
	}
	first := 0
	for i, l := range m.lods {
		first = i
		if l.Level <= view.MaxLOD {
			break
		}
	}
	return first
}

// computeDesired builds the set of chunk ids that should exist for this
// view, mapped to their band index.
func (m *Manager) computeDesired(view ViewContext, renderDist float64, firstBand int) map[chunk.Id]int {
	desired := make(map[chunk.Id]int)

	radius := m.gen.Params().PlanetRadius
	rel := view.Observer.Sub(m.opts.Center)
	dir := mathx.SafeNormalize(rel, 1e-12)
	if dir.LenSqr() < 0.5 {
		return desired
	}

	for band, lod := range m.lods {
		if band < firstBand {
			continue
		}
		maxDist := math.Min(lod.MaxDistance, renderDist)
		angular := angularRadius(maxDist, radius)

		n := lod.ChunksPerFace()
		for face := 0; face < mathx.FaceCount; face++ {
			x0, x1, y0, y1, ok := faceIndexRange(dir, face, angular, n)
			if !ok {
				continue
			}
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					id := chunk.Id{Face: int32(face), X: x, Y: y, LOD: lod.Level}
					center := m.chunkCenter(id, n)
					dist := view.Observer.Sub(center).Len()
					if dist > renderDist {
						continue
					}
					// A table whose coarsest band stops short of the render
					// distance leaves everything beyond it unchunked.
					b := selectBand(m.lods, dist)
					if b < 0 {
						continue
					}
					// Distances inside bands skipped by the level cap
					// fall through to the finest band still allowed.
					if b < firstBand {
						b = firstBand
					}
					if b == band {
						desired[id] = band
					}
				}
			}
		}
	}
	return desired
}

// faceIndexRange conservatively bounds the chunk indices on a face that can
// fall inside the view disc. Reports ok=false when the face is entirely
// outside it.
func faceIndexRange(dir mgl64.Vec3, face int, angular float64, n int32) (x0, x1, y0, y1 int32, ok bool) {
	if angular >= math.Pi/2 {
		return 0, n - 1, 0, n - 1, true
	}

	faceDot := mathx.Clamp(dir.Dot(mathx.CubeFaceNormals[face]), -1, 1)
	if math.Acos(faceDot)-faceHalfAngle > angular {
		return 0, 0, 0, 0, false
	}

	u, v := mathx.SpherifiedFaceUV(dir, face)
	// UV stretch relative to arc length peaks toward the face corners;
	// 3.0 over-covers so the exact distance check downstream decides.
	uvRadius := angular * 3.0

	toIndex := func(uv float64) int32 {
		i := int32((mathx.Clamp(uv, -1, 1) + 1) * 0.5 * float64(n))
		if i < 0 {
			i = 0
		}
		if i >= n {
			i = n - 1
		}
		return i
	}
	return toIndex(u - uvRadius), toIndex(u + uvRadius),
		toIndex(v - uvRadius), toIndex(v + uvRadius), true
}

// chunkCenter returns the world position of a chunk's surface center
// without building the full transform.
func (m *Manager) chunkCenter(id chunk.Id, n int32) mgl64.Vec3 {
	uvMin, uvMax := id.UVWindow(n)
	dir := mathx.SpherifiedFaceToSphere(int(id.Face),
		(uvMin.X()+uvMax.X())/2, (uvMin.Y()+uvMax.Y())/2)
	return m.opts.Center.Add(dir.Mul(m.gen.Params().PlanetRadius))
}

// evict destroys chunks that are neither desired nor retained by band
// hysteresis. Anything beyond the stretched render distance always goes.
func (m *Manager) evict(observer mgl64.Vec3, desired map[chunk.Id]int, renderDist float64) {
	for id, c := range m.chunks {
		if _, ok := desired[id]; ok {
			continue
		}
		dist := c.Transform.DistanceToCenter(observer)
		if dist <= renderDist*hysteresisFactor {
			band := bandByLevel(m.lods, id.LOD)
			if withinBandHysteresis(m.lods, band, dist) {
				continue
			}
		}
		m.destroy(id)
	}
}

func (m *Manager) destroy(id chunk.Id) {
	c := m.chunks[id]
	if c == nil {
		return
	}
	switch c.State() {
	case chunk.StateRequested, chunk.StateGenerating:
		// Nothing uploaded yet; cancel straight back to unloaded.
		_ = c.TransitionTo(chunk.StateUnloaded)
	case chunk.StateReady, chunk.StateVisible:
		if err := c.TransitionTo(chunk.StateUnloading); err == nil {
			m.recycleProxy(c)
			_ = c.TransitionTo(chunk.StateUnloaded)
		}
	}
	delete(m.chunks, id)
	m.stats.Destroyed++
}

// recycleProxy detaches a chunk's render proxy into the free pool
// instead of releasing it.
func (m *Manager) recycleProxy(c *chunk.Chunk) {
	if p := c.DetachProxy(); p != nil {
		m.freeProxies = append(m.freeProxies, p)
	}
}

// acquireProxy pops a pooled proxy when one is available and falls back
// to the sink otherwise.
func (m *Manager) acquireProxy(id chunk.Id) chunk.RenderProxy {
	if n := len(m.freeProxies); n > 0 {
		p := m.freeProxies[n-1]
		m.freeProxies[n-1] = nil
		m.freeProxies = m.freeProxies[:n-1]
		return p
	}
	if m.sink == nil {
		return nil
	}
	return m.sink.AcquireProxy(id)
}

// spawn requests generation for missing desired chunks, closest first,
// bounded by the per-frame spawn cap and the in-flight generation cap.
func (m *Manager) spawn(observer mgl64.Vec3, desired map[chunk.Id]int, renderDist float64, firstBand int) {
	m.retryPending()

	type candidate struct {
		id   chunk.Id
		band int
		dist float64
	}
	var cands []candidate
	for id, band := range desired {
		if _, exists := m.chunks[id]; exists {
			continue
		}
		if m.coveredByExisting(id) {
			continue
		}
		center := m.chunkCenter(id, (LODInfo{Level: id.LOD}).ChunksPerFace())
		cands = append(cands, candidate{id: id, band: band, dist: observer.Sub(center).Len()})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].id.String() < cands[j].id.String()
	})

	spawned := 0
	saturated := false
	for _, cand := range cands {
		if spawned >= m.opts.ChunksToSpawnPerFrame || m.inFlight >= m.opts.MaxConcurrentGenerations {
			break
		}
		// The desired set was computed at the top of the update; re-check
		// the distance so a fast-moving observer does not spawn chunks it
		// already left behind.
		if cand.dist > renderDist {
			continue
		}
		b := selectBand(m.lods, cand.dist)
		if b < 0 {
			continue
		}
		if b < firstBand {
			b = firstBand
		}
		if b != cand.band {
			continue
		}

		c := m.createChunk(cand.id)
		m.stats.Spawned++
		spawned++
		if !m.submitGeneration(c) {
			saturated = true
		}
	}
	if saturated {
		m.stats.QueueSaturated++
		slog.Warn("chunk generation queue saturated",
			"in_flight", m.inFlight, "pending_submit", len(m.pendingSubmit))
	}
}

// coveredByExisting reports whether the area of a candidate chunk is
// already represented by a live chunk at another level, kept by
// hysteresis.
func (m *Manager) coveredByExisting(id chunk.Id) bool {
	for _, lod := range m.lods {
		if lod.Level == id.LOD {
			continue
		}
		if lod.Level < id.LOD {
			// A coarser ancestor covers the candidate entirely.
			shift := uint(id.LOD - lod.Level)
			ancestor := chunk.Id{Face: id.Face, X: id.X >> shift, Y: id.Y >> shift, LOD: lod.Level}
			if c := m.chunks[ancestor]; c != nil && c.State() != chunk.StateUnloading {
				return true
			}
			continue
		}
		// For finer levels, probe one descendant per quadrant. Any live one
		// means part of the area is still drawn at the finer level, and a
		// coarse chunk on top of it would double-draw that region.
		shift := uint(lod.Level - id.LOD)
		span := int32(1) << shift
		quads := [2]int32{span / 4, 3 * span / 4}
		for _, dx := range quads {
			for _, dy := range quads {
				child := chunk.Id{Face: id.Face, X: id.X<<shift + dx, Y: id.Y<<shift + dy, LOD: lod.Level}
				if c := m.chunks[child]; c != nil && c.State() != chunk.StateUnloading {
					return true
				}
			}
		}
	}
	return false
}

func (m *Manager) createChunk(id chunk.Id) *chunk.Chunk {
	n := (LODInfo{Level: id.LOD}).ChunksPerFace()
	tr := chunk.NewTransform(m.opts.Center, m.gen.Params().PlanetRadius, id, n)
	tr.ExpandBounds(m.gen.Params().TerrainAmplitude)
	c := chunk.New(id, tr)
	_ = c.TransitionTo(chunk.StateRequested)
	m.chunks[id] = c
	return c
}

// submitGeneration moves a requested chunk into generation and queues its
// job. On a full queue the chunk stays requested and is retried next
// update.
func (m *Manager) submitGeneration(c *chunk.Chunk) bool {
	n := (LODInfo{Level: c.Id.LOD}).ChunksPerFace()
	uvMin, uvMax := c.Id.UVWindow(n)
	frame := density.ChunkFrame{
		Face:       int(c.Id.Face),
		UVMin:      uvMin,
		UVMax:      uvMax,
		Resolution: m.opts.Resolution,
		VoxelSize:  c.Transform.WorldSize / float64(m.opts.Resolution),
	}

	if err := c.TransitionTo(chunk.StateGenerating); err != nil {
		return true
	}
	job := generationJob{id: c.Id, generationId: c.BeginGeneration(), frame: frame}
	if !m.pool.trySubmit(job) {
		// Roll back to requested via unload is not allowed; park the chunk
		// and resubmit with a fresh generation id next update.
		m.pendingSubmit = append(m.pendingSubmit, c.Id)
		return false
	}
	m.inFlight++
	return true
}

func (m *Manager) retryPending() {
	if len(m.pendingSubmit) == 0 {
		return
	}
	remaining := m.pendingSubmit[:0]
	for _, id := range m.pendingSubmit {
		c := m.chunks[id]
		if c == nil || c.State() != chunk.StateGenerating {
			continue
		}
		if m.inFlight >= m.opts.MaxConcurrentGenerations {
			remaining = append(remaining, id)
			continue
		}
		n := (LODInfo{Level: id.LOD}).ChunksPerFace()
		uvMin, uvMax := id.UVWindow(n)
		job := generationJob{
			id:           id,
			generationId: c.BeginGeneration(),
			frame: density.ChunkFrame{
				Face:       int(id.Face),
				UVMin:      uvMin,
				UVMax:      uvMax,
				Resolution: m.opts.Resolution,
				VoxelSize:  c.Transform.WorldSize / float64(m.opts.Resolution),
			},
		}
		if m.pool.trySubmit(job) {
			m.inFlight++
		} else {
			remaining = append(remaining, id)
		}
	}
	m.pendingSubmit = remaining
}

// upload pushes ready meshes to the renderer, oldest first, bounded per
// update so a burst of finished chunks cannot stall the frame.
func (m *Manager) upload(observer mgl64.Vec3) {
	uploads := 0
	for len(m.readyQueue) > 0 && uploads < m.opts.MeshUpdatesPerFrame {
		id := m.readyQueue[0]
		m.readyQueue = m.readyQueue[1:]

		c := m.chunks[id]
		if c == nil || c.State() != chunk.StateReady {
			continue
		}

		if c.Mesh.IsValid() {
			c.Proxy = m.acquireProxy(id)
			if c.Proxy != nil {
				c.Proxy.UploadMesh(c.Mesh)
				c.Proxy.SetVisible(true)
				// The proxy owns the geometry now; drop the CPU copy.
				c.Mesh = nil
			}
		}
		if err := c.TransitionTo(chunk.StateVisible); err != nil {
			continue
		}
		m.applyCollision(c, observer)
		m.stats.Uploaded++
		uploads++
	}
}

func (m *Manager) updateCollision(observer mgl64.Vec3) {
	for _, c := range m.chunks {
		if c.State() == chunk.StateVisible {
			m.applyCollision(c, observer)
		}
	}
}

func (m *Manager) applyCollision(c *chunk.Chunk, observer mgl64.Vec3) {
	want := c.Transform.DistanceToCenter(observer) <= m.opts.CollisionDistance
	if want == c.CollisionEnabled {
		return
	}
	c.CollisionEnabled = want
	if c.Proxy != nil {
		c.Proxy.SetCollisionEnabled(want)
	}
}
