// Package config loads and validates the planet generation settings from a
// TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

// Config holds every user-tunable knob of the generation and streaming
// pipeline.
type Config struct {
	Planet struct {
		// Radius of the planet surface in world units.
		Radius float64
		// CoreRadius hollows the planet below this radius. Zero disables
		// the core surface.
		CoreRadius float64
		Seed       int64
	}
	Terrain struct {
		Amplitude   float64
		Frequency   float64
		Octaves     int
		Persistence float64
		Lacunarity  float64
		// NoiseType selects the terrain noise: "gradient" or "simplex".
		NoiseType string

		CavesEnabled  bool
		CaveFrequency float64
		CaveThreshold float64
	}
	Chunks struct {
		// Resolution is the voxel cell count per chunk axis.
		Resolution int
		// VoxelSize is the target voxel edge length at the highest LOD, in
		// world units. Per-LOD sizes are derived from it.
		VoxelSize float64
		MaxLOD    int
	}
	Streaming struct {
		RenderDistance    float64
		HighResDistance   float64
		CollisionDistance float64

		ChunksToSpawnPerFrame    int
		MaxConcurrentGenerations int
		MeshUpdatesPerFrame      int
		GeneratorWorkers         int
	}
	Log struct {
		// Level is one of debug, info, warn, error.
		Level string
	}
}

// DefaultConfig returns a config describing a small earth-like planet.
func DefaultConfig() Config {
	c := Config{}
	c.Planet.Radius = 100000
	c.Planet.CoreRadius = 0
	c.Planet.Seed = 0

	c.Terrain.Amplitude = 2000
	c.Terrain.Frequency = 0.00005
	c.Terrain.Octaves = 4
	c.Terrain.Persistence = 0.5
	c.Terrain.Lacunarity = 2.0
	c.Terrain.NoiseType = "simplex"
	c.Terrain.CavesEnabled = false
	c.Terrain.CaveFrequency = 0.0002
	c.Terrain.CaveThreshold = 0.4

	c.Chunks.Resolution = 16
	c.Chunks.VoxelSize = 100
	c.Chunks.MaxLOD = 6

	c.Streaming.RenderDistance = 50000
	c.Streaming.HighResDistance = 10000
	c.Streaming.CollisionDistance = 3000
	c.Streaming.ChunksToSpawnPerFrame = 8
	c.Streaming.MaxConcurrentGenerations = 32
	c.Streaming.MeshUpdatesPerFrame = 4
	c.Streaming.GeneratorWorkers = 0 // 0 selects runtime.NumCPU

	c.Log.Level = "info"
	return c
}

// Validate clamps out-of-range values in place and returns the list of
// adjustments made, one human-readable message per field touched.
func (c *Config) Validate() []string {
	var fixes []string
	clampF := func(name string, v *float64, lo, hi float64) {
		if *v < lo || *v > hi {
			old := *v
			if *v < lo {
				*v = lo
			} else {
				*v = hi
			}
			fixes = append(fixes, fmt.Sprintf("%s clamped from %v to %v", name, old, *v))
		}
	}
	clampI := func(name string, v *int, lo, hi int) {
		if *v < lo || *v > hi {
			old := *v
			if *v < lo {
				*v = lo
			} else {
				*v = hi
			}
			fixes = append(fixes, fmt.Sprintf("%s clamped from %d to %d", name, old, *v))
		}
	}

	clampF("planet.radius", &c.Planet.Radius, 100, 1e9)
	clampF("planet.core-radius", &c.Planet.CoreRadius, 0, c.Planet.Radius*0.9)

	clampF("terrain.amplitude", &c.Terrain.Amplitude, 0, c.Planet.Radius*0.5)
	clampF("terrain.frequency", &c.Terrain.Frequency, 0, 1)
	clampI("terrain.octaves", &c.Terrain.Octaves, 1, 12)
	clampF("terrain.persistence", &c.Terrain.Persistence, 0.01, 1)
	clampF("terrain.lacunarity", &c.Terrain.Lacunarity, 1.01, 4)
	if c.Terrain.NoiseType != "gradient" && c.Terrain.NoiseType != "simplex" {
		fixes = append(fixes, fmt.Sprintf("terrain.noise-type %q replaced with simplex", c.Terrain.NoiseType))
		c.Terrain.NoiseType = "simplex"
	}
	clampF("terrain.cave-threshold", &c.Terrain.CaveThreshold, -1, 1)

	clampI("chunks.resolution", &c.Chunks.Resolution, 4, 128)
	clampF("chunks.voxel-size", &c.Chunks.VoxelSize, 0.01, c.Planet.Radius)
	clampI("chunks.max-lod", &c.Chunks.MaxLOD, 0, 16)

	clampF("streaming.render-distance", &c.Streaming.RenderDistance, c.Chunks.VoxelSize, 1e9)
	clampF("streaming.high-res-distance", &c.Streaming.HighResDistance, 0, c.Streaming.RenderDistance)
	clampF("streaming.collision-distance", &c.Streaming.CollisionDistance, 0, c.Streaming.RenderDistance)
	clampI("streaming.chunks-to-spawn-per-frame", &c.Streaming.ChunksToSpawnPerFrame, 1, 1024)
	clampI("streaming.max-concurrent-generations", &c.Streaming.MaxConcurrentGenerations, 1, 4096)
	clampI("streaming.mesh-updates-per-frame", &c.Streaming.MeshUpdatesPerFrame, 1, 1024)
	clampI("streaming.generator-workers", &c.Streaming.GeneratorWorkers, 0, 1024)

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		fixes = append(fixes, fmt.Sprintf("log.level %q replaced with info", c.Log.Level))
		c.Log.Level = "info"
	}
	return fixes
}

// Load reads a config from path. A missing file is created with the
// defaults first, so a fresh install gets an editable template.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c := DefaultConfig()
		if err := Save(c, path); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c := DefaultConfig()
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Save writes the config to path as TOML.
func Save(c Config, path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
