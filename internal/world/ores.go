package world

// oreVein is one ore layer. A stone cell becomes ore when the cave field
// exceeds threshold and the cell's draw is below chance.
type oreVein struct {
	name      string
	block     BlockType
	minY      int
	maxY      int
	threshold float64
	chance    float64
	scale     float64
	seed      int64
}

func buildOreVeins(seed int64, p Palette) []oreVein {
	veins := []oreVein{
		{name: "coal", block: p.CoalOre, minY: 5, maxY: 80, threshold: 0.8, chance: 0.6, scale: 0.1},
		{name: "iron", block: p.IronOre, minY: 5, maxY: 60, threshold: 0.85, chance: 0.4, scale: 0.1},
		{name: "gold", block: p.GoldOre, minY: 5, maxY: 30, threshold: 0.9, chance: 0.2, scale: 0.12},
		{name: "diamond", block: p.DiamondOre, minY: 5, maxY: 15, threshold: 0.95, chance: 0.1, scale: 0.15},
	}
	for i := range veins {
		veins[i].seed = deriveSeed(seed, saltOre^uint64(veins[i].block))
	}
	return veins
}

func (g *Generator) placeOres(c *Chunk) {
	stone := g.params.Palette.Stone
	size := g.params.Dims.ChunkSize
	top := g.params.Dims.WorldHeight - 1

	for _, ore := range g.ores {
		lo := max(ore.minY, 1)
		hi := min(ore.maxY, top)
		for x := range size {
			for z := range size {
				wx := c.X*size + x
				wz := c.Z*size + z
				for y := lo; y <= hi; y++ {
					if c.GetBlock(x, y, z) != stone {
						continue
					}
					if unitFloat(hash3(int64(wx), int64(y), int64(wz), ore.seed)) >= ore.chance {
						continue
					}
					v := g.cave.Sample3D(float64(wx)*ore.scale, float64(y)*ore.scale, float64(wz)*ore.scale)
					if v > ore.threshold {
						c.SetBlock(x, y, z, ore.block)
					}
				}
			}
		}
	}
}
