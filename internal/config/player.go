package config

import (
	"alphacraft/internal/player"
)

// PlayerConfig holds movement constants.
type PlayerConfig struct {
	Gravity          float32 `yaml:"gravity"`
	TerminalVelocity float32 `yaml:"terminal_velocity"`
	JumpVelocity     float32 `yaml:"jump_velocity"`
	WalkSpeed        float32 `yaml:"walk_speed"`
	GroundDamping    float32 `yaml:"ground_damping"`
	AirDamping       float32 `yaml:"air_damping"`
	GroundAccel      float32 `yaml:"ground_accel"`
	AirAccel         float32 `yaml:"air_accel"`
	MaxStepHeight    float32 `yaml:"max_step_height"`
	Radius           float32 `yaml:"radius"`
	Height           float32 `yaml:"height"`
	EyeHeight        float32 `yaml:"eye_height"`
	SettleTicks      int     `yaml:"settle_ticks"`
	SpawnHoldY       float32 `yaml:"spawn_hold_y"` // eye height the body is held at before spawn
}

// DefaultPlayer mirrors player.DefaultSettings.
func DefaultPlayer() PlayerConfig {
	s := player.DefaultSettings()
	return PlayerConfig{
		Gravity:          s.Gravity,
		TerminalVelocity: s.TerminalVelocity,
		JumpVelocity:     s.JumpVelocity,
		WalkSpeed:        s.WalkSpeed,
		GroundDamping:    s.GroundDamping,
		AirDamping:       s.AirDamping,
		GroundAccel:      s.GroundAccel,
		AirAccel:         s.AirAccel,
		MaxStepHeight:    s.MaxStepHeight,
		Radius:           s.Radius,
		Height:           s.Height,
		EyeHeight:        s.EyeHeight,
		SettleTicks:      s.SettleTicks,
		SpawnHoldY:       100,
	}
}

// Settings converts to controller settings.
func (p PlayerConfig) Settings() player.Settings {
	return player.Settings{
		Gravity:          p.Gravity,
		TerminalVelocity: p.TerminalVelocity,
		JumpVelocity:     p.JumpVelocity,
		WalkSpeed:        p.WalkSpeed,
		GroundDamping:    p.GroundDamping,
		AirDamping:       p.AirDamping,
		GroundAccel:      p.GroundAccel,
		AirAccel:         p.AirAccel,
		MaxStepHeight:    p.MaxStepHeight,
		Radius:           p.Radius,
		Height:           p.Height,
		EyeHeight:        p.EyeHeight,
		SettleTicks:      p.SettleTicks,
	}
}
