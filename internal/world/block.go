package world

import "fmt"

// BlockType is the numeric voxel id. Values follow the Alpha block numbering.
type BlockType uint16

const (
	BlockTypeAir               BlockType = 0
	BlockTypeStone             BlockType = 1
	BlockTypeGrass             BlockType = 2
	BlockTypeDirt              BlockType = 3
	BlockTypeCobblestone       BlockType = 4
	BlockTypePlanksOak         BlockType = 5
	BlockTypeSaplingOak        BlockType = 6
	BlockTypeBedrock           BlockType = 7
	BlockTypeWaterFlowing      BlockType = 8
	BlockTypeWater             BlockType = 9
	BlockTypeLavaFlowing       BlockType = 10
	BlockTypeLava              BlockType = 11
	BlockTypeSand              BlockType = 12
	BlockTypeGravel            BlockType = 13
	BlockTypeGoldOre           BlockType = 14
	BlockTypeIronOre           BlockType = 15
	BlockTypeCoalOre           BlockType = 16
	BlockTypeLogOak            BlockType = 17
	BlockTypeLeavesOak         BlockType = 18
	BlockTypeGlass             BlockType = 20
	BlockTypeSandstone         BlockType = 24
	BlockTypeGoldBlock         BlockType = 41
	BlockTypeIronBlock         BlockType = 42
	BlockTypeTNT               BlockType = 46
	BlockTypeBookshelf         BlockType = 47
	BlockTypeMossyCobblestone  BlockType = 48
	BlockTypeObsidian          BlockType = 49
	BlockTypeTorch             BlockType = 50
	BlockTypeStairsOak         BlockType = 53
	BlockTypeChest             BlockType = 54
	BlockTypeDiamondOre        BlockType = 56
	BlockTypeDiamondBlock      BlockType = 57
	BlockTypeCraftingTable     BlockType = 58
	BlockTypeStairsCobblestone BlockType = 67
)

// BlockProperties is the slice of block metadata the world core depends on.
// The full definition table lives in the registry package.
type BlockProperties interface {
	IsSolid(id BlockType) bool
	IsTransparent(id BlockType) bool
}

// Palette holds the block ids the generator writes. It is resolved from the
// name->id map carried by the worker init envelope.
type Palette struct {
	Air        BlockType
	Bedrock    BlockType
	Stone      BlockType
	Dirt       BlockType
	Grass      BlockType
	Sand       BlockType
	Water      BlockType
	CoalOre    BlockType
	IronOre    BlockType
	GoldOre    BlockType
	DiamondOre BlockType
}

// DefaultPalette returns the palette for the built-in block numbering.
func DefaultPalette() Palette {
	return Palette{
		Air:        BlockTypeAir,
		Bedrock:    BlockTypeBedrock,
		Stone:      BlockTypeStone,
		Dirt:       BlockTypeDirt,
		Grass:      BlockTypeGrass,
		Sand:       BlockTypeSand,
		Water:      BlockTypeWater,
		CoalOre:    BlockTypeCoalOre,
		IronOre:    BlockTypeIronOre,
		GoldOre:    BlockTypeGoldOre,
		DiamondOre: BlockTypeDiamondOre,
	}
}

// Names maps the names used in init envelopes to the palette slots.
func (p Palette) Names() map[string]BlockType {
	return map[string]BlockType{
		"air":         p.Air,
		"bedrock":     p.Bedrock,
		"stone":       p.Stone,
		"dirt":        p.Dirt,
		"grass":       p.Grass,
		"sand":        p.Sand,
		"water_still": p.Water,
		"coal_ore":    p.CoalOre,
		"iron_ore":    p.IronOre,
		"gold_ore":    p.GoldOre,
		"diamond_ore": p.DiamondOre,
	}
}

// PaletteFromNames resolves a palette from a name->id table. Every slot must
// be present; extra names are ignored.
func PaletteFromNames(blocks map[string]BlockType) (Palette, error) {
	var p Palette
	slots := map[string]*BlockType{
		"air":         &p.Air,
		"bedrock":     &p.Bedrock,
		"stone":       &p.Stone,
		"dirt":        &p.Dirt,
		"grass":       &p.Grass,
		"sand":        &p.Sand,
		"water_still": &p.Water,
		"coal_ore":    &p.CoalOre,
		"iron_ore":    &p.IronOre,
		"gold_ore":    &p.GoldOre,
		"diamond_ore": &p.DiamondOre,
	}
	for name, dst := range slots {
		id, ok := blocks[name]
		if !ok {
			return Palette{}, fmt.Errorf("palette: missing block %q", name)
		}
		*dst = id
	}
	if p.Air != BlockTypeAir {
		return Palette{}, fmt.Errorf("palette: air must be id %d, got %d", BlockTypeAir, p.Air)
	}
	return p, nil
}
