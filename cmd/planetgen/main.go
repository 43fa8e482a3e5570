// Command planetgen streams a procedural voxel planet around a simulated
// orbiting observer and reports streaming statistics. It exercises the
// full generation pipeline without a renderer attached.
package main

import (
	"flag"
	"log/slog"
	"math"
	"os"
	"time"

	"planetgen/internal/config"
	"planetgen/internal/density"
	"planetgen/internal/noise"
	"planetgen/internal/planet"
	"planetgen/internal/profiling"
	"planetgen/internal/seed"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xlab/closer"
)

func main() {
	configPath := flag.String("config", "planetgen.toml", "path to the TOML config")
	frames := flag.Int("frames", 600, "streaming updates to run, 0 for until interrupted")
	frameTime := flag.Duration("frame-time", 16*time.Millisecond, "simulated frame duration")
	orbitPeriod := flag.Duration("orbit-period", 2*time.Minute, "time for one full orbit")
	statsEvery := flag.Int("stats-every", 60, "log statistics every N frames")
	deriveFromSeed := flag.Bool("derive-from-seed", false, "derive planet shape from the seed instead of the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log.Level)
	for _, fix := range cfg.Validate() {
		slog.Warn("config adjusted", "fix", fix)
	}
	if *deriveFromSeed {
		derivePlanet(&cfg)
	}

	maxLevel := int32(cfg.Chunks.MaxLOD)
	if maxLevel == 0 {
		maxLevel = planet.AutoMaxLevel(cfg.Planet.Radius, cfg.Chunks.VoxelSize, cfg.Chunks.Resolution)
		slog.Info("auto chunk sizing", "max_level", maxLevel)
	}

	gen := buildGenerator(cfg)
	mgr, err := planet.NewManager(gen, nil, planet.Options{
		Resolution:               cfg.Chunks.Resolution,
		MaxLevel:                 maxLevel,
		RenderDistance:           cfg.Streaming.RenderDistance,
		HighResDistance:          cfg.Streaming.HighResDistance,
		CollisionDistance:        cfg.Streaming.CollisionDistance,
		ChunksToSpawnPerFrame:    cfg.Streaming.ChunksToSpawnPerFrame,
		MaxConcurrentGenerations: cfg.Streaming.MaxConcurrentGenerations,
		MeshUpdatesPerFrame:      cfg.Streaming.MeshUpdatesPerFrame,
		Workers:                  cfg.Streaming.GeneratorWorkers,
	})
	if err != nil {
		slog.Error("create planet manager", "err", err)
		os.Exit(1)
	}

	closer.Bind(func() {
		mgr.LogStatistics()
		mgr.Close()
		slog.Info("shut down")
	})

	go run(mgr, cfg, *frames, *frameTime, *orbitPeriod, *statsEvery)
	closer.Hold()
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// derivePlanet replaces the configured planet shape with one rolled from
// the seed, keeping streaming and chunk settings as configured.
func derivePlanet(cfg *config.Config) {
	s := uint64(cfg.Planet.Seed)
	cfg.Planet.Radius = seed.RandomFloatRange(seed.Derive(s, 1), 50000, 500000)
	cfg.Terrain.Amplitude = cfg.Planet.Radius * seed.RandomFloatRange(seed.Derive(s, 2), 0.005, 0.04)
	cfg.Terrain.Frequency = seed.RandomFloatRange(seed.Derive(s, 3), 0.5, 4) / cfg.Planet.Radius
	cfg.Terrain.Octaves = seed.RandomInt(seed.Derive(s, 4), 3, 6)
	slog.Info("derived planet",
		"radius", cfg.Planet.Radius,
		"amplitude", cfg.Terrain.Amplitude,
		"frequency", cfg.Terrain.Frequency,
		"octaves", cfg.Terrain.Octaves,
	)
}

func buildGenerator(cfg config.Config) *density.Generator {
	planetSeed := uint64(cfg.Planet.Seed)

	var terrain, caves noise.Provider
	terrainSeed := seed.LayerSeed(planetSeed, "terrain")
	caveSeed := seed.LayerSeed(planetSeed, "caves")
	switch cfg.Terrain.NoiseType {
	case "gradient":
		terrain = noise.NewGradient(terrainSeed, cfg.Terrain.Octaves)
		caves = noise.NewGradient(caveSeed, 3)
	default:
		terrain = noise.NewSimplex(terrainSeed, cfg.Terrain.Octaves)
		caves = noise.NewSimplex(caveSeed, 3)
	}

	return density.NewGenerator(density.Params{
		PlanetRadius:     cfg.Planet.Radius,
		CoreRadius:       cfg.Planet.CoreRadius,
		TerrainAmplitude: cfg.Terrain.Amplitude,
		TerrainFrequency: cfg.Terrain.Frequency,
		Octaves:          cfg.Terrain.Octaves,
		Persistence:      cfg.Terrain.Persistence,
		Lacunarity:       cfg.Terrain.Lacunarity,
		Seed:             planetSeed,
		EnableCaves:      cfg.Terrain.CavesEnabled,
		CaveFrequency:    cfg.Terrain.CaveFrequency,
		CaveThreshold:    cfg.Terrain.CaveThreshold,
		VoxelSize:        cfg.Chunks.VoxelSize,
	}, terrain, caves)
}

// run drives the streaming loop with an observer circling the equator at
// low altitude.
func run(mgr *planet.Manager, cfg config.Config, frames int, frameTime, orbitPeriod time.Duration, statsEvery int) {
	radius := cfg.Planet.Radius
	altitude := cfg.Terrain.Amplitude*2 + cfg.Chunks.VoxelSize*4

	slog.Info("streaming started",
		"radius", radius,
		"seed", cfg.Planet.Seed,
		"render_distance", cfg.Streaming.RenderDistance,
		"frames", frames,
	)

	start := time.Now()
	for frame := 0; frames == 0 || frame < frames; frame++ {
		angle := 2 * math.Pi * float64(frame) * frameTime.Seconds() / orbitPeriod.Seconds()
		observer := mgl64.Vec3{
			(radius + altitude) * math.Cos(angle),
			0,
			(radius + altitude) * math.Sin(angle),
		}

		profiling.ResetFrame()
		mgr.Update(planet.ViewContext{Observer: observer})

		if statsEvery > 0 && frame%statsEvery == 0 {
			mgr.LogStatistics()
			if hot := profiling.TopN(3); hot != "" {
				slog.Debug("frame profile", "top", hot)
			}
			if imp := mgr.Impostor(observer); imp.Active {
				slog.Debug("far impostor active", "start", imp.StartDistance)
			}
		}
		time.Sleep(frameTime)
	}

	slog.Info("streaming finished", "elapsed", time.Since(start).Round(time.Millisecond))
	closer.Close()
}
