package player

import (
	"alphacraft/internal/world"
)

// HardnessSource reports block hardness. Negative hardness is unbreakable.
// *registry.Registry implements it.
type HardnessSource interface {
	Hardness(id world.BlockType) (float32, bool)
}

// Miner accumulates break progress on one targeted block and removes it
// through the world's edit rules once progress reaches 1.
type Miner struct {
	world  *world.World
	blocks HardnessSource

	// Speed scales progress per second; 1 breaks a hardness-1 block in a second.
	Speed float32

	target   [3]int
	breaking bool
	progress float32
}

// NewMiner creates a miner. A nil hardness source treats every block as hardness 1.
func NewMiner(w *world.World, blocks HardnessSource) *Miner {
	return &Miner{world: w, blocks: blocks, Speed: 1}
}

// Reset abandons the current block.
func (m *Miner) Reset() {
	m.breaking = false
	m.progress = 0
}

// Breaking reports the block being mined, if any.
func (m *Miner) Breaking() ([3]int, bool) {
	return m.target, m.breaking
}

// Progress returns break progress in [0,1).
func (m *Miner) Progress() float32 {
	return m.progress
}

// Update mines target for dt seconds. Switching targets restarts progress.
// It reports whether the block was removed this call.
func (m *Miner) Update(dt float32, target [3]int, hit bool) bool {
	if !hit || m.world == nil {
		m.Reset()
		return false
	}
	if !m.breaking || m.target != target {
		m.target = target
		m.breaking = true
		m.progress = 0
	}

	id := m.world.GetBlock(target[0], target[1], target[2])
	if id == world.BlockTypeAir {
		m.Reset()
		return false
	}

	hardness := float32(1)
	if m.blocks != nil {
		if h, ok := m.blocks.Hardness(id); ok {
			hardness = h
		}
	}
	if hardness < 0 {
		m.progress = 0
		return false
	}
	if hardness == 0 {
		m.progress = 1
	} else {
		m.progress += dt * m.Speed / hardness
	}
	if m.progress < 1 {
		return false
	}

	removed := m.world.RemoveBlock(target[0], target[1], target[2])
	m.Reset()
	return removed
}
