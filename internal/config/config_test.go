package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	if fixes := c.Validate(); len(fixes) != 0 {
		t.Errorf("defaults needed fixing: %v", fixes)
	}
}

func TestValidateClamps(t *testing.T) {
	c := DefaultConfig()
	c.Planet.Radius = -5
	c.Terrain.Octaves = 200
	c.Terrain.NoiseType = "white"
	c.Chunks.Resolution = 1
	c.Streaming.HighResDistance = c.Streaming.RenderDistance * 10
	c.Log.Level = "loud"

	fixes := c.Validate()
	if len(fixes) == 0 {
		t.Fatal("no fixes reported for invalid config")
	}

	if c.Planet.Radius != 100 {
		t.Errorf("radius = %v, want clamped to 100", c.Planet.Radius)
	}
	if c.Terrain.Octaves != 12 {
		t.Errorf("octaves = %d, want 12", c.Terrain.Octaves)
	}
	if c.Terrain.NoiseType != "simplex" {
		t.Errorf("noise type = %q, want simplex", c.Terrain.NoiseType)
	}
	if c.Chunks.Resolution != 4 {
		t.Errorf("resolution = %d, want 4", c.Chunks.Resolution)
	}
	if c.Streaming.HighResDistance > c.Streaming.RenderDistance {
		t.Errorf("high-res distance %v exceeds render distance %v",
			c.Streaming.HighResDistance, c.Streaming.RenderDistance)
	}
	if c.Log.Level != "info" {
		t.Errorf("log level = %q, want info", c.Log.Level)
	}

	// A second pass has nothing left to fix.
	if fixes := c.Validate(); len(fixes) != 0 {
		t.Errorf("second validation still fixing: %v", fixes)
	}
}

func TestCoreRadiusClampFollowsRadius(t *testing.T) {
	c := DefaultConfig()
	c.Planet.Radius = 1000
	c.Planet.CoreRadius = 5000
	c.Validate()
	if c.Planet.CoreRadius != 900 {
		t.Errorf("core radius = %v, want 900", c.Planet.CoreRadius)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.toml")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c != DefaultConfig() {
		t.Error("fresh load did not return defaults")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.toml")

	want := DefaultConfig()
	want.Planet.Radius = 250000
	want.Planet.Seed = 987654321
	want.Terrain.CavesEnabled = true
	want.Chunks.Resolution = 32
	want.Streaming.GeneratorWorkers = 4
	if err := Save(want, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planet.toml")
	partial := "[Planet]\nRadius = 42000.0\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Planet.Radius != 42000 {
		t.Errorf("radius = %v, want 42000", c.Planet.Radius)
	}
	// Unspecified fields keep their defaults.
	if c.Chunks.Resolution != DefaultConfig().Chunks.Resolution {
		t.Errorf("resolution = %d, want default", c.Chunks.Resolution)
	}
}
