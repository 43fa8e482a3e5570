package planet

import (
	"context"
	"runtime"
	"sync"

	"planetgen/internal/chunk"
	"planetgen/internal/density"
	"planetgen/internal/mesh"
	"planetgen/internal/profiling"
)

// generationJob carries everything a worker needs by value, so a chunk
// being destroyed on the streaming thread cannot race the job.
type generationJob struct {
	id           chunk.Id
	generationId uint64
	frame        density.ChunkFrame
}

// generationResult is handed back to the streaming thread over a channel
// and matched against the chunk's current generation id.
type generationResult struct {
	id           chunk.Id
	generationId uint64
	mesh         *chunk.MeshData
}

// generatorPool runs density sampling and mesh extraction off the
// streaming thread.
type generatorPool struct {
	gen     *density.Generator
	meshCfg mesh.Config

	jobs    chan generationJob
	results chan generationResult

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newGeneratorPool(gen *density.Generator, meshCfg mesh.Config, workers, queueSize int) *generatorPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &generatorPool{
		gen:     gen,
		meshCfg: meshCfg,
		jobs:    make(chan generationJob, queueSize),
		results: make(chan generationResult, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *generatorPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(job)
		}
	}
}

func (p *generatorPool) run(job generationJob) {
	defer profiling.Track("planet.GenerateChunk")()

	// Vertex normals come from the analytic density gradient, not the
	// sampled field, so extraction needs no ghost samples.
	field := p.gen.GenerateDensityField(job.frame, 0)
	m := mesh.Generate(field, p.gen, p.meshCfg)

	select {
	case p.results <- generationResult{id: job.id, generationId: job.generationId, mesh: m}:
	case <-p.ctx.Done():
	}
}

// trySubmit queues a job without blocking. A false return means the queue
// is saturated and the caller should retry next update.
func (p *generatorPool) trySubmit(job generationJob) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// drain returns all results currently available without blocking.
func (p *generatorPool) drain() []generationResult {
	var out []generationResult
	for {
		select {
		case r := <-p.results:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Close stops the workers and waits for in-flight jobs to finish.
func (p *generatorPool) Close() {
	p.cancel()
	p.wg.Wait()
}
