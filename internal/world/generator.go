package world

import (
	"fmt"
	"math"
	"sync"

	"alphacraft/internal/profiling"
)

// TerrainGenerator fills chunks from coordinates alone. Implementations must
// be deterministic and safe for concurrent use.
type TerrainGenerator interface {
	Dimensions() Dimensions
	HeightAt(worldX, worldZ int) int
	PopulateChunk(c *Chunk)
}

// Terrain shape constants.
const (
	terrainScale  = 0.02
	terrainRelief = 16.0
	terrainOffset = 8.0
	biomeScale    = 0.01
)

// GenParams configures a Generator.
type GenParams struct {
	Seed    int64
	Dims    Dimensions
	Palette Palette
	Caves   bool
	Ores    bool
}

// DefaultGenParams returns the standard pipeline for a seed.
func DefaultGenParams(seed int64) GenParams {
	return GenParams{
		Seed:    seed,
		Dims:    DefaultDimensions(),
		Palette: DefaultPalette(),
		Caves:   true,
		Ores:    true,
	}
}

// Generator runs the terrain pipeline: heights, biome, column fill, water,
// caves, ores.
type Generator struct {
	params GenParams

	terrain *NoiseSource
	biome   *NoiseSource
	cave    *NoiseSource

	caveSeed int64
	ores     []oreVein

	heights sync.Pool
}

// NewGenerator validates params and builds the noise fields.
func NewGenerator(p GenParams) (*Generator, error) {
	if err := p.Dims.Validate(); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	g := &Generator{
		params:   p,
		terrain:  NewNoiseSource(deriveSeed(p.Seed, saltTerrain)),
		biome:    NewNoiseSource(deriveSeed(p.Seed, saltBiome)),
		cave:     NewNoiseSource(deriveSeed(p.Seed, saltCave)),
		caveSeed: deriveSeed(p.Seed, saltCaveMix),
		ores:     buildOreVeins(p.Seed, p.Palette),
	}
	area := p.Dims.ChunkSize * p.Dims.ChunkSize
	g.heights.New = func() any {
		s := make([]int, area)
		return &s
	}
	return g, nil
}

// Dimensions returns the grid layout chunks must be created with.
func (g *Generator) Dimensions() Dimensions {
	return g.params.Dims
}

// Seed returns the world seed.
func (g *Generator) Seed() int64 {
	return g.params.Seed
}

// HeightAt computes the surface block Y at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	n := g.terrain.Sample2D(float64(worldX)*terrainScale, float64(worldZ)*terrainScale)
	norm := n*0.5 + 0.5
	h := int(math.Floor(float64(g.params.Dims.GroundLevel) + norm*terrainRelief - terrainOffset))
	return max(1, min(h, g.params.Dims.WorldHeight-1))
}

// BiomeAt classifies a whole chunk from one low-frequency sample.
func (g *Generator) BiomeAt(chunkX, chunkZ int) *Biome {
	return classifyBiome(g.biome.Sample2D(float64(chunkX)*biomeScale, float64(chunkZ)*biomeScale))
}

// Generate creates and populates the chunk at (chunkX, chunkZ).
func (g *Generator) Generate(chunkX, chunkZ int) *Chunk {
	c := NewChunk(chunkX, chunkZ, g.params.Dims)
	g.PopulateChunk(c)
	return c
}

// PopulateChunk fills a fresh all-air chunk created with g.Dimensions().
func (g *Generator) PopulateChunk(c *Chunk) {
	defer profiling.Track("world.PopulateChunk")()

	hp := g.heights.Get().(*[]int)
	defer g.heights.Put(hp)
	heights := *hp

	size := g.params.Dims.ChunkSize
	for lx := range size {
		for lz := range size {
			heights[lx*size+lz] = g.HeightAt(c.X*size+lx, c.Z*size+lz)
		}
	}
	biome := g.BiomeAt(c.X, c.Z)

	g.fillColumns(c, heights, biome)
	g.fillWater(c, heights)
	if g.params.Caves {
		g.carveCaves(c)
	}
	if g.params.Ores {
		g.placeOres(c)
	}
	c.dirty = true
}

func (g *Generator) fillColumns(c *Chunk, heights []int, biome *Biome) {
	p := g.params.Palette
	dims := g.params.Dims
	filler := biome.filler(p)
	for lx := range dims.ChunkSize {
		for lz := range dims.ChunkSize {
			h := heights[lx*dims.ChunkSize+lz]
			c.SetBlock(lx, 0, lz, p.Bedrock)

			band := max(1, h-biome.SurfaceDepth)
			for y := 1; y < band; y++ {
				c.SetBlock(lx, y, lz, p.Stone)
			}
			for y := band; y < h; y++ {
				c.SetBlock(lx, y, lz, filler)
			}
			c.SetBlock(lx, h, lz, biome.surface(p, h, dims.SeaLevel))
		}
	}
}

func (g *Generator) fillWater(c *Chunk, heights []int) {
	p := g.params.Palette
	dims := g.params.Dims
	top := min(dims.SeaLevel, dims.WorldHeight-1)
	for lx := range dims.ChunkSize {
		for lz := range dims.ChunkSize {
			for y := heights[lx*dims.ChunkSize+lz] + 1; y <= top; y++ {
				if c.GetBlock(lx, y, lz) == p.Air {
					c.SetBlock(lx, y, lz, p.Water)
				}
			}
		}
	}
}

// FlatGenerator produces bedrock, dirt and a grass top at a fixed height.
type FlatGenerator struct {
	height  int
	dims    Dimensions
	palette Palette
}

// NewFlatGenerator creates a flat world generator on the default grid.
func NewFlatGenerator(height int) *FlatGenerator {
	return NewFlatGeneratorFor(DefaultDimensions(), DefaultPalette(), height)
}

// NewFlatGeneratorFor creates a flat generator for a specific grid and palette.
func NewFlatGeneratorFor(dims Dimensions, p Palette, height int) *FlatGenerator {
	return &FlatGenerator{
		height:  max(0, min(height, dims.WorldHeight-1)),
		dims:    dims,
		palette: p,
	}
}

func (f *FlatGenerator) Dimensions() Dimensions { return f.dims }

func (f *FlatGenerator) HeightAt(worldX, worldZ int) int { return f.height }

func (f *FlatGenerator) PopulateChunk(c *Chunk) {
	for lx := range f.dims.ChunkSize {
		for lz := range f.dims.ChunkSize {
			c.SetBlock(lx, 0, lz, f.palette.Bedrock)
			if f.height == 0 {
				continue
			}
			for y := 1; y < f.height; y++ {
				c.SetBlock(lx, y, lz, f.palette.Dirt)
			}
			c.SetBlock(lx, f.height, lz, f.palette.Grass)
		}
	}
	c.dirty = true
}
