package physics

import (
	"alphacraft/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0
)

// BlockQuerier is the block lookup a ray walks. *world.World implements it.
type BlockQuerier interface {
	IsAir(x, y, z int) bool
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      [3]int
	AdjacentPosition [3]int // last empty cell before the hit, where a placed block goes
	Distance         float32
	Hit              bool
}

// Raycast walks a ray through the voxel grid and returns the first non-air
// cell between minDist and maxDist. direction should be normalized.
func Raycast(start mgl32.Vec3, direction mgl32.Vec3, minDist, maxDist float32, blocks BlockQuerier) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	result := RaycastResult{}
	if blocks == nil {
		return result
	}

	stepSize := float32(0.02)
	steps := int(maxDist / stepSize)

	prev := [3]int{floor(start.X()), floor(start.Y()), floor(start.Z())}
	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		pos := start.Add(direction.Mul(dist))
		cell := [3]int{floor(pos.X()), floor(pos.Y()), floor(pos.Z())}
		if dist >= minDist && !blocks.IsAir(cell[0], cell[1], cell[2]) {
			result.HitPosition = cell
			result.AdjacentPosition = prev
			result.Distance = dist
			result.Hit = true
			return result
		}
		prev = cell
	}
	return result
}
