package player

import (
	"math"

	"alphacraft/internal/physics"
	"alphacraft/internal/profiling"
	"alphacraft/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// skin keeps snapped bodies from resting exactly on a cell boundary.
const skin = 0.001

// StepReport describes what happened during one tick.
type StepReport struct {
	Held       bool // gravity gate closed, position pinned
	Teleported bool
	SteppedUp  bool
	Collided   [3]bool
}

// Controller integrates one player body against the world.
type Controller struct {
	State

	settings Settings
	world    *world.World
	field    *physics.CollisionField

	enabled bool
	settled int
	holdY   float32

	log *zap.Logger
}

// New creates a controller at spawn. The body is held at spawn height until
// the world reports that gravity is safe. A nil world makes Step a no-op.
func New(w *world.World, s Settings, spawn mgl32.Vec3, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		State: State{
			Position:  spawn,
			Radius:    s.Radius,
			Height:    s.Height,
			EyeHeight: s.EyeHeight,
		},
		settings: s,
		world:    w,
		holdY:    spawn.Y(),
		log:      log,
	}
	if w != nil {
		c.field = physics.NewCollisionField(w)
	}
	return c
}

// PhysicsEnabled reports whether the gravity gate is open.
func (c *Controller) PhysicsEnabled() bool {
	return c.enabled
}

// Field returns the collision view the controller samples.
func (c *Controller) Field() *physics.CollisionField {
	return c.field
}

// Step advances the body by dt seconds.
func (c *Controller) Step(dt float32, in Input) StepReport {
	defer profiling.Track("player.Step")()
	var rep StepReport
	if c.world == nil {
		return rep
	}

	if !c.enabled {
		c.Position[1] = c.holdY
		c.Velocity = mgl32.Vec3{}
		c.OnGround = false
		rep.Held = true
		// streaming still has to run or the spawn column never arrives
		c.syncChunks(&rep)
		if rep.Teleported {
			return rep
		}
		if c.world.IsSafeToApplyGravity() {
			c.settled++
			if c.settled >= c.settings.SettleTicks {
				c.enabled = true
				c.log.Debug("gravity enabled", zap.Float32("y", c.Position.Y()))
			}
		} else {
			c.settled = 0
		}
		return rep
	}

	c.applyInput(dt, in)

	c.Velocity[1] -= c.settings.Gravity * dt
	if c.Velocity[1] < -c.settings.TerminalVelocity {
		c.Velocity[1] = -c.settings.TerminalVelocity
	}

	c.move(dt, &rep)
	c.syncChunks(&rep)
	return rep
}

func (c *Controller) applyInput(dt float32, in Input) {
	damping, accel := c.settings.AirDamping, c.settings.AirAccel
	if c.OnGround {
		damping, accel = c.settings.GroundDamping, c.settings.GroundAccel
	}

	keep := max(0, 1-damping*dt)
	c.Velocity[0] *= keep
	c.Velocity[2] *= keep

	sin, cos := math.Sincos(float64(in.Yaw))
	forward := mgl32.Vec3{-float32(sin), 0, -float32(cos)}
	right := mgl32.Vec3{float32(cos), 0, -float32(sin)}
	dir := forward.Mul(in.Forward).Add(right.Mul(in.Strafe))
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	target := dir.Mul(c.settings.WalkSpeed)

	k := min(1, accel*dt)
	c.Velocity[0] += (target.X() - c.Velocity[0]) * k
	c.Velocity[2] += (target.Z() - c.Velocity[2]) * k

	if in.Jump && c.OnGround {
		c.Velocity[1] = c.settings.JumpVelocity
		c.OnGround = false
	}
}

// move resolves Y, then X, then Z, committing each axis before the next.
func (c *Controller) move(dt float32, rep *StepReport) {
	x, z := c.Position.X(), c.Position.Z()
	feet := c.Feet()

	dy := c.Velocity.Y() * dt
	if dy <= 0 {
		if top, hit := c.groundBelow(x, z, feet, feet+dy); hit {
			feet = top
			c.Velocity[1] = 0
			c.OnGround = true
			rep.Collided[1] = true
		} else {
			c.OnGround = false
		}
	} else {
		head := feet + c.Height
		if ceiling, hit := c.ceilingAbove(x, z, head, head+dy); hit {
			feet = ceiling - c.Height - skin
			c.Velocity[1] = 0
			rep.Collided[1] = true
		}
		c.OnGround = false
	}
	if !rep.Collided[1] {
		feet += dy
	}

	if nx := x + c.Velocity.X()*dt; nx != x {
		if top, blocked := c.bodyBlocked(nx, z, feet); blocked {
			if c.canStepUp(nx, z, feet, top) {
				feet = top
				c.Velocity[1] = 0
				c.OnGround = true
				rep.Collided[1] = true
				rep.SteppedUp = true
				x = nx
			} else {
				c.Velocity[0] = 0
				rep.Collided[0] = true
			}
		} else {
			x = nx
		}
	}

	if nz := z + c.Velocity.Z()*dt; nz != z {
		if top, blocked := c.bodyBlocked(x, nz, feet); blocked {
			if c.canStepUp(x, nz, feet, top) {
				feet = top
				c.Velocity[1] = 0
				c.OnGround = true
				rep.Collided[1] = true
				rep.SteppedUp = true
				z = nz
			} else {
				c.Velocity[2] = 0
				rep.Collided[2] = true
			}
		} else {
			z = nz
		}
	}

	c.Position = mgl32.Vec3{x, feet + c.EyeHeight, z}
}

// footprint returns the sample columns: center, four edges, four corners.
func (c *Controller) footprint(x, z, r float32) [9][2]float32 {
	return [9][2]float32{
		{x, z},
		{x + r, z}, {x - r, z}, {x, z + r}, {x, z - r},
		{x + r, z + r}, {x + r, z - r}, {x - r, z + r}, {x - r, z - r},
	}
}

// groundBelow scans cells from the one containing from down to the one
// containing to and returns the top of the first solid layer.
func (c *Controller) groundBelow(x, z, from, to float32) (float32, bool) {
	pts := c.footprint(x, z, c.Radius-skin)
	for cy := floor(from); cy >= floor(to); cy-- {
		for _, p := range pts {
			if c.field.IsSolidCell(floor(p[0]), cy, floor(p[1])) {
				return float32(cy + 1), true
			}
		}
	}
	return 0, false
}

// ceilingAbove samples the center and four edges at head level.
func (c *Controller) ceilingAbove(x, z, from, to float32) (float32, bool) {
	pts := c.footprint(x, z, c.Radius-skin)
	for cy := floor(from); cy <= floor(to); cy++ {
		for _, p := range pts[:5] {
			if c.field.IsSolidCell(floor(p[0]), cy, floor(p[1])) {
				return float32(cy), true
			}
		}
	}
	return 0, false
}

// bodyBlocked reports whether the body at (x, feet, z) overlaps a solid cell,
// and the top of the highest overlapping solid cell.
func (c *Controller) bodyBlocked(x, z, feet float32) (float32, bool) {
	pts := c.footprint(x, z, c.Radius)
	blocked := false
	top := float32(0)
	for cy := floor(feet + skin); cy <= floor(feet+c.Height-skin); cy++ {
		for _, p := range pts {
			if c.field.IsSolidCell(floor(p[0]), cy, floor(p[1])) {
				blocked = true
				top = max(top, float32(cy+1))
			}
		}
	}
	return top, blocked
}

func (c *Controller) canStepUp(x, z, feet, top float32) bool {
	if c.Velocity.Y() > 0 {
		return false
	}
	rise := top - feet
	if rise <= 0 || rise > c.settings.MaxStepHeight+skin {
		return false
	}
	pts := c.footprint(x, z, c.Radius)
	for _, y := range [2]float32{top + skin, top + c.Height - skin} {
		cy := floor(y)
		for _, p := range pts {
			if c.field.IsSolidCell(floor(p[0]), cy, floor(p[1])) {
				return false
			}
		}
	}
	return true
}

func (c *Controller) syncChunks(rep *StepReport) {
	tp := c.world.UpdateChunks(c.Position)
	if tp == nil {
		return
	}
	c.Position = tp.Position
	c.Velocity = mgl32.Vec3{}
	c.OnGround = false
	c.enabled = false
	c.settled = 0
	c.holdY = tp.Position.Y()
	rep.Teleported = true
	c.log.Info("teleported to spawn",
		zap.Float32("x", tp.Position.X()),
		zap.Float32("y", tp.Position.Y()),
		zap.Float32("z", tp.Position.Z()),
	)
}

func floor(v float32) int {
	return int(math.Floor(float64(v)))
}
