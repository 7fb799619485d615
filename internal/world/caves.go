package world

const (
	caveScale      = 0.03
	caveYStretch   = 1.5
	caveThreshold  = 0.2
	caveSkipChance = 0.3
	caveMinY       = 10
	caveMaxY       = 60
	caveStride     = 2
)

// CaveSkipped reports whether a chunk gets no caves at all.
func (g *Generator) CaveSkipped(chunkX, chunkZ int) bool {
	return unitFloat(hash2(int64(chunkX), int64(chunkZ), g.caveSeed)) < caveSkipChance
}

func (g *Generator) carveCaves(c *Chunk) {
	if g.CaveSkipped(c.X, c.Z) {
		return
	}
	p := g.params.Palette
	size := g.params.Dims.ChunkSize
	maxY := min(caveMaxY, g.params.Dims.WorldHeight-1)

	for x := 0; x < size; x += caveStride {
		for z := 0; z < size; z += caveStride {
			wx := float64(c.X*size + x)
			wz := float64(c.Z*size + z)
			for y := caveMinY; y < maxY; y += caveStride {
				b := c.GetBlock(x, y, z)
				if b == p.Air || b == p.Bedrock {
					continue
				}
				v := g.cave.Sample3D(wx*caveScale, float64(y)*caveScale*caveYStretch, wz*caveScale)
				if v > caveThreshold {
					g.carveCell(c, x, y, z)
				}
			}
		}
	}
}

// carveCell clears a stride-sized cube anchored at (x, y, z).
func (g *Generator) carveCell(c *Chunk, x, y, z int) {
	p := g.params.Palette
	for dx := range caveStride {
		for dy := range caveStride {
			for dz := range caveStride {
				cx, cy, cz := x+dx, y+dy, z+dz
				if !c.inBounds(cx, cy, cz) || c.GetBlock(cx, cy, cz) == p.Bedrock {
					continue
				}
				c.SetBlock(cx, cy, cz, p.Air)
			}
		}
	}
}
