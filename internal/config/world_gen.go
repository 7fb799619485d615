package config

import (
	"alphacraft/internal/world"
)

// World generator kinds.
const (
	WorldTypeDefault = "default"
	WorldTypeFlat    = "flat"
)

// WorldConfig holds world generation configuration
type WorldConfig struct {
	Seed        int64  `yaml:"seed"`
	Type        string `yaml:"type"`
	FlatHeight  int    `yaml:"flat_height"`
	ChunkSize   int    `yaml:"chunk_size"`
	WorldHeight int    `yaml:"world_height"`
	SeaLevel    int    `yaml:"sea_level"`
	GroundLevel int    `yaml:"ground_level"`
	Caves       bool   `yaml:"caves"`
	Ores        bool   `yaml:"ores"`
	SpawnX      int    `yaml:"spawn_x"`
	SpawnZ      int    `yaml:"spawn_z"`
}

// DefaultWorld returns the Alpha-style generator settings.
func DefaultWorld() WorldConfig {
	d := world.DefaultDimensions()
	return WorldConfig{
		Seed:        42,
		Type:        WorldTypeDefault,
		FlatHeight:  4,
		ChunkSize:   d.ChunkSize,
		WorldHeight: d.WorldHeight,
		SeaLevel:    d.SeaLevel,
		GroundLevel: d.GroundLevel,
		Caves:       true,
		Ores:        true,
	}
}

// Dimensions returns the voxel grid layout.
func (w WorldConfig) Dimensions() world.Dimensions {
	return world.Dimensions{
		ChunkSize:   w.ChunkSize,
		WorldHeight: w.WorldHeight,
		SeaLevel:    w.SeaLevel,
		GroundLevel: w.GroundLevel,
	}
}

// InitPayload builds the worker init message. blocks is the registry's
// name->id table.
func (w WorldConfig) InitPayload(blocks map[string]world.BlockType) world.InitPayload {
	p := world.InitPayload{
		ChunkSize:    w.ChunkSize,
		WorldHeight:  w.WorldHeight,
		SeaLevel:     w.SeaLevel,
		GroundLevel:  w.GroundLevel,
		Blocks:       blocks,
		WorldSeed:    w.Seed,
		DisableCaves: !w.Caves,
		DisableOres:  !w.Ores,
	}
	if w.Type == WorldTypeFlat {
		p.FlatHeight = w.FlatHeight
	}
	return p
}
