// Package planet drives chunk streaming for a cube-sphere planet: it
// decides which chunks should exist around an observer, runs their
// generation on a worker pool, and walks each chunk through its lifecycle.
package planet

import (
	"fmt"
	"math"
	"sort"

	"planetgen/internal/mathx"
)

// hysteresisFactor stretches every LOD band so a chunk is only replaced
// once the observer has moved clearly past the boundary, not while
// oscillating on it.
const hysteresisFactor = 1.1

// LODInfo is one detail band. Chunks whose center lies within MaxDistance
// of the observer, and outside every finer band, are built at Level.
type LODInfo struct {
	// Level is the subdivision depth; face grids have 1<<Level chunks per
	// axis, so higher levels mean smaller, denser chunks.
	Level int32
	// MaxDistance is the outer edge of this band in world units.
	MaxDistance float64
}

// ChunksPerFace returns the per-axis chunk count of a face at this level.
func (l LODInfo) ChunksPerFace() int32 {
	return 1 << l.Level
}

// ValidateLODTable checks that bands are sorted finest (highest level,
// smallest distance) to coarsest with strictly increasing distances and
// strictly decreasing levels.
func ValidateLODTable(lods []LODInfo) error {
	if len(lods) == 0 {
		return fmt.Errorf("planet: empty LOD table")
	}
	for i, l := range lods {
		if l.Level < 0 || l.Level > 30 {
			return fmt.Errorf("planet: LOD level %d out of range", l.Level)
		}
		if l.MaxDistance <= 0 {
			return fmt.Errorf("planet: LOD %d has non-positive distance %v", l.Level, l.MaxDistance)
		}
		if i == 0 {
			continue
		}
		if l.MaxDistance <= lods[i-1].MaxDistance {
			return fmt.Errorf("planet: LOD distances not increasing at index %d", i)
		}
		if l.Level >= lods[i-1].Level {
			return fmt.Errorf("planet: LOD levels not decreasing at index %d", i)
		}
	}
	return nil
}

// BuildLODTable derives a band table from the streaming distances: the
// finest band covers highResDistance at maxLevel, and each coarser band
// doubles the distance and halves the subdivision until renderDistance is
// reached.
func BuildLODTable(maxLevel int32, highResDistance, renderDistance float64) []LODInfo {
	if highResDistance <= 0 {
		highResDistance = renderDistance / 8
	}
	if highResDistance > renderDistance {
		highResDistance = renderDistance
	}

	var lods []LODInfo
	dist := highResDistance
	for level := maxLevel; level >= 0; level-- {
		if dist >= renderDistance || level == 0 {
			lods = append(lods, LODInfo{Level: level, MaxDistance: renderDistance})
			break
		}
		lods = append(lods, LODInfo{Level: level, MaxDistance: dist})
		dist *= 2
	}
	return lods
}

// selectBand returns the index of the band a chunk at the given distance
// belongs to, or -1 when it is beyond the coarsest band.
func selectBand(lods []LODInfo, distance float64) int {
	for i, l := range lods {
		if distance <= l.MaxDistance {
			return i
		}
	}
	return -1
}

// bandByLevel finds the band index for a subdivision level, or -1.
func bandByLevel(lods []LODInfo, level int32) int {
	for i, l := range lods {
		if l.Level == level {
			return i
		}
	}
	return -1
}

// withinBandHysteresis reports whether a chunk built for band i may be kept
// at the given distance. The band is stretched by the hysteresis factor on
// both sides.
func withinBandHysteresis(lods []LODInfo, i int, distance float64) bool {
	if i < 0 || i >= len(lods) {
		return false
	}
	inner := 0.0
	if i > 0 {
		inner = lods[i-1].MaxDistance / hysteresisFactor
	}
	return distance >= inner && distance <= lods[i].MaxDistance*hysteresisFactor
}

// sortLODTable orders bands finest to coarsest in place.
func sortLODTable(lods []LODInfo) {
	sort.Slice(lods, func(i, j int) bool { return lods[i].MaxDistance < lods[j].MaxDistance })
}

// AutoChunksPerFace sizes the finest face grid so one chunk spans about
// resolution voxels of the given size. A densityFactor above 1 packs more
// chunks per face. The result is rounded up to a power of two so it maps
// onto a subdivision level, then clamped to [minChunks, maxChunks].
func AutoChunksPerFace(planetRadius, voxelSize float64, resolution int, densityFactor float64, minChunks, maxChunks int32) int32 {
	if densityFactor <= 0 {
		densityFactor = 1
	}
	chunkSpan := float64(resolution) * voxelSize
	if chunkSpan <= 0 || planetRadius <= 0 {
		return minChunks
	}
	want := mathx.FaceEdgeLength(planetRadius) / chunkSpan * densityFactor

	n := int32(1)
	for float64(n) < want && n < maxChunks {
		n <<= 1
	}
	if n < minChunks {
		n = minChunks
	}
	if n > maxChunks {
		n = maxChunks
	}
	return n
}

// AutoMaxLevel derives the finest subdivision level from the planet size
// and the target voxel resolution.
func AutoMaxLevel(planetRadius, voxelSize float64, resolution int) int32 {
	n := AutoChunksPerFace(planetRadius, voxelSize, resolution, 1, 1, 1<<16)
	level := int32(0)
	for int32(1)<<level < n {
		level++
	}
	return level
}

// angularRadius converts a surface distance to the angle it subtends at the
// planet center, capped at a half turn.
func angularRadius(surfaceDistance, planetRadius float64) float64 {
	return math.Min(surfaceDistance/planetRadius, math.Pi)
}
