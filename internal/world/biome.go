package world

// Biome is a chunk-wide surface classification.
type Biome struct {
	ID           int
	Name         string
	SurfaceDepth int  // cells of filler directly under the surface block
	Sandy        bool // sand filler and sand surface
}

var (
	BiomeDesert = &Biome{
		ID:           2,
		Name:         "Desert",
		SurfaceDepth: 4,
		Sandy:        true,
	}
	BiomePlains = &Biome{
		ID:           1,
		Name:         "Plains",
		SurfaceDepth: 3,
	}
	BiomeForest = &Biome{
		ID:           4,
		Name:         "Forest",
		SurfaceDepth: 3,
	}
)

var Biomes = []*Biome{BiomeDesert, BiomePlains, BiomeForest}

// Biome noise cut points.
const (
	desertBelow = -0.3
	forestFrom  = 0.3
)

// classifyBiome maps one biome noise sample to a biome.
func classifyBiome(v float64) *Biome {
	switch {
	case v < desertBelow:
		return BiomeDesert
	case v < forestFrom:
		return BiomePlains
	default:
		return BiomeForest
	}
}

// filler returns the block used for the band under the surface.
func (b *Biome) filler(p Palette) BlockType {
	if b.Sandy {
		return p.Sand
	}
	return p.Dirt
}

// surface returns the top block for a column of the given height.
func (b *Biome) surface(p Palette, height, seaLevel int) BlockType {
	if b.Sandy || height <= seaLevel+1 {
		return p.Sand
	}
	return p.Grass
}
