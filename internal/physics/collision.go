package physics

import (
	"math"

	"alphacraft/internal/world"
)

// SolidQuerier answers voxel solidity. *world.World implements it.
type SolidQuerier interface {
	IsSolidBlock(x, y, z int) bool
	Dimensions() world.Dimensions
}

// CollisionField is the solid/empty view of the world used by movement.
// Cells below y=0, at or above the world height, or in unloaded chunks are
// empty. A nil world makes every cell empty.
type CollisionField struct {
	world  SolidQuerier
	height int
}

// NewCollisionField wraps w. w may be nil.
func NewCollisionField(w SolidQuerier) *CollisionField {
	f := &CollisionField{world: w}
	if w != nil {
		f.height = w.Dimensions().WorldHeight
	}
	return f
}

// Ready reports whether the field is backed by a world.
func (f *CollisionField) Ready() bool {
	return f != nil && f.world != nil
}

// IsSolidCell reports whether block cell (x, y, z) collides.
func (f *CollisionField) IsSolidCell(x, y, z int) bool {
	if !f.Ready() || y < 0 || y >= f.height {
		return false
	}
	return f.world.IsSolidBlock(x, y, z)
}

// IsSolid reports whether the cell containing the point collides. Block
// (x, y, z) spans [x, x+1) on each axis.
func (f *CollisionField) IsSolid(x, y, z float32) bool {
	return f.IsSolidCell(floor(x), floor(y), floor(z))
}

// FindGroundLevel returns the top surface of the highest solid cell at or
// below fromY in the column under (x, z), scanning at most depth cells.
func (f *CollisionField) FindGroundLevel(x, z, fromY float32, depth int) (float32, bool) {
	bx, bz := floor(x), floor(z)
	top := floor(fromY)
	for y := top; y >= 0 && y > top-depth; y-- {
		if f.IsSolidCell(bx, y, bz) {
			return float32(y + 1), true
		}
	}
	return 0, false
}

func floor(v float32) int {
	return int(math.Floor(float64(v)))
}
