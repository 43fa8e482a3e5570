// Package seed provides deterministic hashing and seed derivation for
// chunks, voxels and noise octaves. Every function is a pure function of its
// inputs: no global RNG state, stable across process runs, safe to call from
// any goroutine.
package seed

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// SplitMix64 is the classic splitmix finalizer. Kept alongside the PCG mix
// for callers that want a cheaper avalanche.
func SplitMix64(x uint64) uint64 {
	z := x + 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// pcgHash is a PCG-style multiply-xor-shift output permutation.
func pcgHash(x uint64) uint64 {
	state := x*6364136223846793005 + 1442695040888963407
	word := ((state >> ((state >> 59) + 5)) ^ state) * 12605985483714917081
	return (word >> 43) ^ word
}

// Hash64 mixes a 64-bit value into a well-distributed 64-bit output.
func Hash64(x uint64) uint64 {
	return pcgHash(x)
}

// Combine mixes two seeds into one.
func Combine(a, b uint64) uint64 {
	return Hash64(a ^ Hash64(b))
}

// CombineAll folds an arbitrary number of seeds left to right.
func CombineAll(seeds ...uint64) uint64 {
	if len(seeds) == 0 {
		return 0
	}
	result := seeds[0]
	for _, s := range seeds[1:] {
		result = Combine(result, s)
	}
	return result
}

// Derive produces a sub-seed for a specific purpose tag. Purpose tags are
// small sequential integers, so the cheap splitmix avalanche is enough to
// spread them before the combine.
func Derive(base, purpose uint64) uint64 {
	return Combine(base, SplitMix64(purpose))
}

// LayerSeed derives a seed for a named noise layer, e.g. "terrain" or
// "caves". The name hash is stable across runs.
func LayerSeed(planetSeed uint64, name string) uint64 {
	return Derive(planetSeed, xxhash.Sum64String(name))
}

// HashCoordinate hashes 3D integer coordinates with a seed. Large primes
// decorrelate the axes before mixing.
func HashCoordinate(x, y, z int32, s uint64) uint64 {
	h := s
	h = Hash64(h ^ uint64(uint32(x))*73856093)
	h = Hash64(h ^ uint64(uint32(y))*19349663)
	h = Hash64(h ^ uint64(uint32(z))*83492791)
	return h
}

// positionGrid quantizes float positions for hashing, finer than any noise
// frequency in use.
const positionGrid = 0.01

// HashPosition hashes a continuous position by quantizing it to a 1cm grid.
func HashPosition(x, y, z float64, s uint64) uint64 {
	ix := int32(math.Floor(x / positionGrid))
	iy := int32(math.Floor(y / positionGrid))
	iz := int32(math.Floor(z / positionGrid))
	return HashCoordinate(ix, iy, iz, s)
}

// ChunkSeed derives the seed for a chunk from the planet seed and the full
// chunk identity. Chunks differing in any one field produce different seeds.
func ChunkSeed(planetSeed uint64, face int, lod, x, y int32) uint64 {
	h := planetSeed
	h = Combine(h, uint64(face))
	h = Combine(h, uint64(uint32(lod)))
	h = Combine(h, uint64(uint32(x)))
	h = Combine(h, uint64(uint32(y)))
	return Hash64(h)
}

// VoxelSeed derives a per-voxel seed within a chunk.
func VoxelSeed(chunkSeed uint64, x, y, z int32) uint64 {
	return HashCoordinate(x, y, z, chunkSeed)
}

// RandomFloat maps a seed to [0, 1) using the top 24 bits of the hash.
func RandomFloat(s uint64) float64 {
	h := Hash64(s)
	v := float64(h>>40) / float64(1<<24)
	if v >= 1 {
		v = math.Nextafter(1, 0)
	}
	return v
}

// RandomFloatRange maps a seed to [min, max).
func RandomFloatRange(s uint64, min, max float64) float64 {
	return min + RandomFloat(s)*(max-min)
}

// RandomInt maps a seed to [min, max] inclusive.
func RandomInt(s uint64, min, max int) int {
	if min >= max {
		return min
	}
	h := Hash64(s)
	return min + int(h%uint64(max-min+1))
}

// RandomDirection maps a seed to a unit vector. Degenerate draws fall back
// to +X so the result is always usable.
func RandomDirection(s uint64) mgl64.Vec3 {
	dir := mgl64.Vec3{
		RandomFloatRange(s, -1, 1),
		RandomFloatRange(Combine(s, 1), -1, 1),
		RandomFloatRange(Combine(s, 2), -1, 1),
	}
	if dir.LenSqr() < 1e-12 {
		return mgl64.Vec3{1, 0, 0}
	}
	return dir.Normalize()
}

// OctaveSeeds derives one independent seed per noise octave.
func OctaveSeeds(base uint64, octaves int) []uint64 {
	seeds := make([]uint64, 0, octaves)
	for i := 0; i < octaves; i++ {
		seeds = append(seeds, Derive(base, uint64(i)*1234567))
	}
	return seeds
}
