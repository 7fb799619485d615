package registry

import (
	"fmt"
	"sort"
	"sync"

	"alphacraft/internal/world"
)

// Tool is the tool class that mines a block fastest.
type Tool string

const (
	ToolNone    Tool = ""
	ToolPickaxe Tool = "pickaxe"
	ToolAxe     Tool = "axe"
	ToolShovel  Tool = "shovel"
	ToolShears  Tool = "shears"
)

// Tier is the minimum tool material needed for a drop.
type Tier int

const (
	TierNone Tier = iota
	TierWood
	TierStone
	TierIron
	TierDiamond
)

// BlockDefinition defines the properties of a block type
type BlockDefinition struct {
	ID            world.BlockType
	Key           string // stable snake_case name used on the wire
	Name          string // display name
	Hardness      float32
	Tool          Tool
	RequiredTier  Tier
	IsSolid       bool
	IsTransparent bool
	IsFluid       bool
	HasGravity    bool
	Light         uint8
}

// Unbreakable reports whether mining never completes.
func (d *BlockDefinition) Unbreakable() bool {
	return d.Hardness < 0
}

// Registry is an immutable block table. It implements world.BlockProperties.
type Registry struct {
	byID  map[world.BlockType]*BlockDefinition
	byKey map[string]*BlockDefinition
}

// New builds a registry, rejecting duplicate ids or keys.
func New(defs []BlockDefinition) (*Registry, error) {
	r := &Registry{
		byID:  make(map[world.BlockType]*BlockDefinition, len(defs)),
		byKey: make(map[string]*BlockDefinition, len(defs)),
	}
	for i := range defs {
		def := defs[i]
		if _, dup := r.byID[def.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate block id %d (%s)", def.ID, def.Key)
		}
		if _, dup := r.byKey[def.Key]; dup {
			return nil, fmt.Errorf("registry: duplicate block key %q", def.Key)
		}
		r.byID[def.ID] = &def
		r.byKey[def.Key] = &def
	}
	if _, ok := r.byID[world.BlockTypeAir]; !ok {
		return nil, fmt.Errorf("registry: air (id %d) must be defined", world.BlockTypeAir)
	}
	return r, nil
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := New(alphaBlocks)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the shared Alpha block table.
func Default() *Registry {
	return defaultRegistry()
}

// Get returns the definition for id.
func (r *Registry) Get(id world.BlockType) (*BlockDefinition, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Lookup returns the definition for a wire key.
func (r *Registry) Lookup(key string) (*BlockDefinition, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// IsSolid implements world.BlockProperties. Unknown ids are not solid.
func (r *Registry) IsSolid(id world.BlockType) bool {
	d, ok := r.byID[id]
	return ok && d.IsSolid
}

// IsTransparent implements world.BlockProperties. Unknown ids are transparent.
func (r *Registry) IsTransparent(id world.BlockType) bool {
	d, ok := r.byID[id]
	return !ok || d.IsTransparent
}

// Hardness returns the break hardness of id. Negative means unbreakable.
func (r *Registry) Hardness(id world.BlockType) (float32, bool) {
	d, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return d.Hardness, true
}

// Names returns the key->id table carried by worker init envelopes.
func (r *Registry) Names() map[string]world.BlockType {
	out := make(map[string]world.BlockType, len(r.byKey))
	for k, d := range r.byKey {
		out[k] = d.ID
	}
	return out
}

// IDs returns every registered id in ascending order.
func (r *Registry) IDs() []world.BlockType {
	ids := make([]world.BlockType, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var alphaBlocks = []BlockDefinition{
	{ID: world.BlockTypeAir, Key: "air", Name: "Air", IsTransparent: true},
	{ID: world.BlockTypeStone, Key: "stone", Name: "Stone", Hardness: 1.5, Tool: ToolPickaxe, RequiredTier: TierWood, IsSolid: true},
	{ID: world.BlockTypeGrass, Key: "grass", Name: "Grass Block", Hardness: 0.6, IsSolid: true},
	{ID: world.BlockTypeDirt, Key: "dirt", Name: "Dirt", Hardness: 0.5, Tool: ToolShovel, IsSolid: true},
	{ID: world.BlockTypeCobblestone, Key: "cobblestone", Name: "Cobblestone", Hardness: 2.0, Tool: ToolPickaxe, RequiredTier: TierWood, IsSolid: true},
	{ID: world.BlockTypePlanksOak, Key: "oak_planks", Name: "Oak Planks", Hardness: 2.0, Tool: ToolAxe, IsSolid: true},
	{ID: world.BlockTypeSaplingOak, Key: "oak_sapling", Name: "Oak Sapling", IsTransparent: true},
	{ID: world.BlockTypeBedrock, Key: "bedrock", Name: "Bedrock", Hardness: -1, IsSolid: true},
	{ID: world.BlockTypeWaterFlowing, Key: "water_flowing", Name: "Flowing Water", Hardness: 100, IsTransparent: true, IsFluid: true},
	{ID: world.BlockTypeWater, Key: "water_still", Name: "Water", Hardness: 100, IsTransparent: true, IsFluid: true},
	{ID: world.BlockTypeLavaFlowing, Key: "lava_flowing", Name: "Flowing Lava", Hardness: 100, IsTransparent: true, IsFluid: true, Light: 15},
	{ID: world.BlockTypeLava, Key: "lava_still", Name: "Lava", Hardness: 100, IsTransparent: true, IsFluid: true, Light: 15},
	{ID: world.BlockTypeSand, Key: "sand", Name: "Sand", Hardness: 0.5, Tool: ToolShovel, IsSolid: true, HasGravity: true},
	{ID: world.BlockTypeGravel, Key: "gravel", Name: "Gravel", Hardness: 0.6, Tool: ToolShovel, IsSolid: true, HasGravity: true},
	{ID: world.BlockTypeGoldOre, Key: "gold_ore", Name: "Gold Ore", Hardness: 3.0, Tool: ToolPickaxe, RequiredTier: TierIron, IsSolid: true},
	{ID: world.BlockTypeIronOre, Key: "iron_ore", Name: "Iron Ore", Hardness: 3.0, Tool: ToolPickaxe, RequiredTier: TierStone, IsSolid: true},
	{ID: world.BlockTypeCoalOre, Key: "coal_ore", Name: "Coal Ore", Hardness: 3.0, Tool: ToolPickaxe, RequiredTier: TierWood, IsSolid: true},
	{ID: world.BlockTypeLogOak, Key: "oak_log", Name: "Oak Log", Hardness: 2.0, Tool: ToolAxe, IsSolid: true},
	{ID: world.BlockTypeLeavesOak, Key: "oak_leaves", Name: "Oak Leaves", Hardness: 0.2, Tool: ToolShears, IsTransparent: true},
	{ID: world.BlockTypeGlass, Key: "glass", Name: "Glass", Hardness: 0.3, IsTransparent: true},
	{ID: world.BlockTypeSandstone, Key: "sandstone", Name: "Sandstone", Hardness: 0.8, Tool: ToolPickaxe, RequiredTier: TierWood, IsSolid: true},
	{ID: world.BlockTypeGoldBlock, Key: "gold_block", Name: "Block of Gold", Hardness: 3.0, Tool: ToolPickaxe, RequiredTier: TierIron, IsSolid: true},
	{ID: world.BlockTypeIronBlock, Key: "iron_block", Name: "Block of Iron", Hardness: 5.0, Tool: ToolPickaxe, RequiredTier: TierStone, IsSolid: true},
	{ID: world.BlockTypeTNT, Key: "tnt", Name: "TNT", IsSolid: true},
	{ID: world.BlockTypeBookshelf, Key: "bookshelf", Name: "Bookshelf", Hardness: 1.5, Tool: ToolAxe, IsSolid: true},
	{ID: world.BlockTypeMossyCobblestone, Key: "mossy_cobblestone", Name: "Mossy Cobblestone", Hardness: 2.0, Tool: ToolPickaxe, RequiredTier: TierWood, IsSolid: true},
	{ID: world.BlockTypeObsidian, Key: "obsidian", Name: "Obsidian", Hardness: 50.0, Tool: ToolPickaxe, RequiredTier: TierDiamond, IsSolid: true},
	{ID: world.BlockTypeTorch, Key: "torch", Name: "Torch", IsTransparent: true, Light: 14},
	// stairs and chests have no box model yet and collide as air
	{ID: world.BlockTypeStairsOak, Key: "oak_stairs", Name: "Oak Stairs", Hardness: 2.0, Tool: ToolAxe, IsTransparent: true},
	{ID: world.BlockTypeChest, Key: "chest", Name: "Chest", Hardness: 2.5, Tool: ToolAxe, IsTransparent: true},
	{ID: world.BlockTypeDiamondOre, Key: "diamond_ore", Name: "Diamond Ore", Hardness: 3.0, Tool: ToolPickaxe, RequiredTier: TierIron, IsSolid: true},
	{ID: world.BlockTypeDiamondBlock, Key: "diamond_block", Name: "Block of Diamond", Hardness: 5.0, Tool: ToolPickaxe, RequiredTier: TierIron, IsSolid: true},
	{ID: world.BlockTypeCraftingTable, Key: "crafting_table", Name: "Crafting Table", Hardness: 2.5, Tool: ToolAxe, IsSolid: true},
	{ID: world.BlockTypeStairsCobblestone, Key: "cobblestone_stairs", Name: "Cobblestone Stairs", Hardness: 2.0, Tool: ToolPickaxe, RequiredTier: TierWood, IsTransparent: true},
}
