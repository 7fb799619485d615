package registry

import (
	"testing"

	"alphacraft/internal/world"
)

func TestDefaultCoversGeneratorPalette(t *testing.T) {
	r := Default()
	pal, err := world.PaletteFromNames(r.Names())
	if err != nil {
		t.Fatalf("registry names do not resolve a palette: %v", err)
	}
	if pal != world.DefaultPalette() {
		t.Errorf("palette = %+v, want %+v", pal, world.DefaultPalette())
	}
}

func TestSolidity(t *testing.T) {
	r := Default()
	cases := []struct {
		id           world.BlockType
		solid, clear bool
	}{
		{world.BlockTypeAir, false, true},
		{world.BlockTypeStone, true, false},
		{world.BlockTypeBedrock, true, false},
		{world.BlockTypeWater, false, true},
		{world.BlockTypeLeavesOak, false, true},
		{world.BlockTypeTorch, false, true},
		{world.BlockTypeGlass, false, true},
		{world.BlockType(999), false, true},
	}
	for _, tc := range cases {
		if got := r.IsSolid(tc.id); got != tc.solid {
			t.Errorf("IsSolid(%d) = %v", tc.id, got)
		}
		if got := r.IsTransparent(tc.id); got != tc.clear {
			t.Errorf("IsTransparent(%d) = %v", tc.id, got)
		}
	}
}

func TestHardness(t *testing.T) {
	r := Default()
	if h, ok := r.Hardness(world.BlockTypeStone); !ok || h != 1.5 {
		t.Errorf("stone hardness = %v, %v", h, ok)
	}
	def, _ := r.Get(world.BlockTypeBedrock)
	if !def.Unbreakable() {
		t.Error("bedrock breakable")
	}
	if _, ok := r.Hardness(world.BlockType(999)); ok {
		t.Error("unknown id has hardness")
	}
}

func TestLookup(t *testing.T) {
	r := Default()
	d, ok := r.Lookup("diamond_ore")
	if !ok || d.ID != world.BlockTypeDiamondOre {
		t.Fatalf("Lookup(diamond_ore) = %+v, %v", d, ok)
	}
	ids := r.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDs not ascending at %d: %v", i, ids)
		}
	}
	if len(ids) != len(r.Names()) {
		t.Errorf("%d ids, %d names", len(ids), len(r.Names()))
	}
}

func TestNewRejects(t *testing.T) {
	air := BlockDefinition{ID: world.BlockTypeAir, Key: "air"}
	cases := map[string][]BlockDefinition{
		"duplicate id":  {air, {ID: world.BlockTypeAir, Key: "void"}},
		"duplicate key": {air, {ID: world.BlockTypeStone, Key: "air"}},
		"missing air":   {{ID: world.BlockTypeStone, Key: "stone"}},
	}
	for name, defs := range cases {
		if _, err := New(defs); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}
