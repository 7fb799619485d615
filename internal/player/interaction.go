package player

import (
	"math"

	"alphacraft/internal/physics"

	"github.com/go-gl/mathgl/mgl32"
)

// LookDirection returns the unit view vector. Yaw 0 faces -Z; positive pitch
// looks up.
func LookDirection(yaw, pitch float32) mgl32.Vec3 {
	sy, cy := math.Sincos(float64(yaw))
	sp, cp := math.Sincos(float64(pitch))
	return mgl32.Vec3{float32(-sy * cp), float32(sp), float32(-cy * cp)}
}

// Hovered casts the view ray from the eye and returns the first non-air block
// within reach.
func (c *Controller) Hovered(yaw, pitch float32) physics.RaycastResult {
	if c.world == nil {
		return physics.RaycastResult{}
	}
	return physics.Raycast(c.Position, LookDirection(yaw, pitch), physics.MinReachDistance, physics.MaxReachDistance, c.world)
}
