package player

import (
	"testing"

	"alphacraft/internal/registry"
	"alphacraft/internal/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinerBreaksByHardness(t *testing.T) {
	_, w := settled(t)
	m := NewMiner(w, registry.Default())
	grass := [3]int{0, 10, 0}

	// grass has hardness 0.6
	assert.False(t, m.Update(0.25, grass, true))
	assert.False(t, m.Update(0.25, grass, true))
	assert.InDelta(t, 0.5/0.6, m.Progress(), 1e-5)
	target, ok := m.Breaking()
	assert.True(t, ok)
	assert.Equal(t, grass, target)

	assert.True(t, m.Update(0.25, grass, true))
	assert.True(t, w.IsAir(0, 10, 0))
	_, ok = m.Breaking()
	assert.False(t, ok)
}

func TestMinerRestartsOnNewTarget(t *testing.T) {
	_, w := settled(t)
	m := NewMiner(w, registry.Default())
	m.Update(0.5, [3]int{0, 10, 0}, true)
	m.Update(0.25, [3]int{1, 10, 0}, true)
	assert.InDelta(t, 0.25/0.6, m.Progress(), 1e-5)
	assert.False(t, w.IsAir(0, 10, 0))
}

func TestMinerResetsOnMiss(t *testing.T) {
	_, w := settled(t)
	m := NewMiner(w, registry.Default())
	m.Update(0.5, [3]int{0, 10, 0}, true)
	assert.False(t, m.Update(0.5, [3]int{}, false))
	assert.Zero(t, m.Progress())
	_, ok := m.Breaking()
	assert.False(t, ok)
}

func TestMinerBedrockNeverBreaks(t *testing.T) {
	_, w := settled(t)
	m := NewMiner(w, registry.Default())
	for range 100 {
		assert.False(t, m.Update(1, [3]int{0, 0, 0}, true))
	}
	assert.Zero(t, m.Progress())
	assert.Equal(t, world.BlockTypeBedrock, w.GetBlock(0, 0, 0))
}

func TestMinerZeroHardnessIsInstant(t *testing.T) {
	_, w := settled(t)
	require.True(t, w.AddBlock(2, 11, 2, world.BlockTypeTorch))
	m := NewMiner(w, registry.Default())
	assert.True(t, m.Update(0.001, [3]int{2, 11, 2}, true))
	assert.True(t, w.IsAir(2, 11, 2))
}

func TestMinerWithoutHardnessSource(t *testing.T) {
	_, w := settled(t)
	m := NewMiner(w, nil)
	m.Speed = 2
	assert.False(t, m.Update(0.25, [3]int{0, 10, 0}, true))
	assert.True(t, m.Update(0.25, [3]int{0, 10, 0}, true))
}

func TestMinerAirTarget(t *testing.T) {
	_, w := settled(t)
	m := NewMiner(w, registry.Default())
	assert.False(t, m.Update(1, [3]int{0, 50, 0}, true))
	_, ok := m.Breaking()
	assert.False(t, ok)
}

func TestMineHoveredBlock(t *testing.T) {
	c, w := settled(t)
	m := NewMiner(w, registry.Default())
	removed := false
	for range 20 {
		hit := c.Hovered(0, -1.5)
		if m.Update(tick, hit.HitPosition, hit.Hit) {
			removed = true
			break
		}
	}
	require.True(t, removed)
	assert.True(t, w.IsAir(0, 10, 0))
}
