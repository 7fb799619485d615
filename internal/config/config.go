package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Load radius limits.
const (
	MinLoadRadius = 1
	MaxLoadRadius = 32
)

// Config is the full engine configuration.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Player    PlayerConfig    `yaml:"player"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		World:     DefaultWorld(),
		Streaming: DefaultStreaming(),
		Player:    DefaultPlayer(),
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults, then normalizes and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(raw)
}

// Parse decodes YAML over the defaults.
func Parse(raw []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config yaml: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	s := &c.Streaming
	if s.LoadRadius < MinLoadRadius {
		s.LoadRadius = MinLoadRadius
	}
	if s.LoadRadius > MaxLoadRadius {
		s.LoadRadius = MaxLoadRadius
	}
	if s.UnloadRadius == 0 {
		s.UnloadRadius = s.LoadRadius * 2
	}
	if c.Player.SettleTicks < 1 {
		c.Player.SettleTicks = 1
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if err := c.World.Dimensions().Validate(); err != nil {
		return fmt.Errorf("%w: world: %v", ErrInvalid, err)
	}
	switch c.World.Type {
	case WorldTypeDefault:
	case WorldTypeFlat:
		if c.World.FlatHeight <= 0 || c.World.FlatHeight >= c.World.WorldHeight {
			return fmt.Errorf("%w: world.flat_height %d outside (0, %d)", ErrInvalid, c.World.FlatHeight, c.World.WorldHeight)
		}
	default:
		return fmt.Errorf("%w: world.type %q", ErrInvalid, c.World.Type)
	}
	if c.Streaming.UnloadRadius <= c.Streaming.LoadRadius {
		return fmt.Errorf("%w: streaming.unload_radius %d must exceed load_radius %d",
			ErrInvalid, c.Streaming.UnloadRadius, c.Streaming.LoadRadius)
	}
	if c.Streaming.RequestRate < 0 {
		return fmt.Errorf("%w: streaming.request_rate must not be negative", ErrInvalid)
	}
	p := c.Player
	if p.Radius <= 0 || p.Height <= 0 || p.EyeHeight <= 0 || p.EyeHeight > p.Height {
		return fmt.Errorf("%w: player body radius=%v height=%v eye_height=%v", ErrInvalid, p.Radius, p.Height, p.EyeHeight)
	}
	if p.MaxStepHeight < 0 || p.Gravity < 0 {
		return fmt.Errorf("%w: player step/gravity must not be negative", ErrInvalid)
	}
	return nil
}
