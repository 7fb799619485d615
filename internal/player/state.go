package player

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	PlayerEyeHeight = 1.62
	PlayerHeight    = 1.8
	PlayerRadius    = 0.3
)

// State is the physical body the controller integrates. Position is the eye
// point; the feet are EyeHeight below it.
type State struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	OnGround bool

	Radius    float32
	Height    float32
	EyeHeight float32
}

// Feet returns the Y of the bottom of the body.
func (s *State) Feet() float32 {
	return s.Position.Y() - s.EyeHeight
}

// Head returns the Y of the top of the body.
func (s *State) Head() float32 {
	return s.Feet() + s.Height
}

// Input is one tick of movement intent. Forward and Strafe are in [-1,1];
// Yaw is in radians with 0 facing -Z.
type Input struct {
	Forward float32
	Strafe  float32
	Yaw     float32
	Jump    bool
}

// Settings are the movement constants.
type Settings struct {
	Gravity          float32
	TerminalVelocity float32
	JumpVelocity     float32
	WalkSpeed        float32
	GroundDamping    float32
	AirDamping       float32
	GroundAccel      float32
	AirAccel         float32
	MaxStepHeight    float32

	Radius    float32
	Height    float32
	EyeHeight float32

	// SettleTicks is how many consecutive ready ticks open the gravity gate.
	SettleTicks int
}

// DefaultSettings returns Alpha-like walking physics.
func DefaultSettings() Settings {
	return Settings{
		Gravity:          20,
		TerminalVelocity: 78.4,
		JumpVelocity:     8,
		WalkSpeed:        4.3,
		GroundDamping:    4,
		AirDamping:       1,
		GroundAccel:      20,
		AirAccel:         3,
		MaxStepHeight:    1,
		Radius:           PlayerRadius,
		Height:           PlayerHeight,
		EyeHeight:        PlayerEyeHeight,
		SettleTicks:      3,
	}
}
