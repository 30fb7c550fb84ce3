// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Field     FieldConfig     `yaml:"field"`
	Agent     AgentConfig     `yaml:"agent"`
	Feeding   FeedingConfig   `yaml:"feeding"`
	Placement PlacementConfig `yaml:"placement"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Neural    NeuralConfig    `yaml:"neural"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds fixed-timestep integration parameters.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt"`           // Seconds per tick (0.02 = 50Hz)
	Drag        float64 `yaml:"drag"`         // Linear velocity damping per second
	AngularDrag float64 `yaml:"angular_drag"` // Angular velocity damping per second
	AgentMass   float64 `yaml:"agent_mass"`
	AgentRadius float64 `yaml:"agent_radius"` // Solid collider radius of the agent body
}

// FieldConfig holds the procedural layout of the resource field.
type FieldConfig struct {
	AreaDiameter     float64 `yaml:"area_diameter"`      // Normalises observed distances
	Plants           int     `yaml:"plants"`             // Plant containers in the field
	FlowersPerPlant  int     `yaml:"flowers_per_plant"`  // Resource nodes per plant
	PlantRingMin     float64 `yaml:"plant_ring_min"`     // Inner radius of the plant ring
	PlantRingMax     float64 `yaml:"plant_ring_max"`     // Outer radius of the plant ring
	FlowerHeightMin  float64 `yaml:"flower_height_min"`  // Lowest flower anchor above ground
	FlowerHeightMax  float64 `yaml:"flower_height_max"`  // Highest flower anchor above ground
	FlowerSpread     float64 `yaml:"flower_spread"`      // Horizontal offset of flowers from the plant stem
	PetalRadius      float64 `yaml:"petal_radius"`       // Solid collider radius
	NectarRadius     float64 `yaml:"nectar_radius"`      // Contact collider radius
	BoundaryRadius   float64 `yaml:"boundary_radius"`    // Arena wall distance from origin
	BoundaryHeight   float64 `yaml:"boundary_height"`    // Arena ceiling
	PlantYawRange    float64 `yaml:"plant_yaw_range"`    // Degrees, +/- on reset
	PlantJitterRange float64 `yaml:"plant_jitter_range"` // Degrees, +/- pitch and roll on reset
}

// AgentConfig holds agent motion and probe parameters.
type AgentConfig struct {
	MoveForce     float64    `yaml:"move_force"`
	PitchSpeed    float64    `yaml:"pitch_speed"`     // Degrees per second at full input
	YawSpeed      float64    `yaml:"yaw_speed"`       // Degrees per second at full input
	MaxPitchAngle float64    `yaml:"max_pitch_angle"` // Degrees
	TurnRate      float64    `yaml:"turn_rate"`       // Rate-of-change cap for smoothed turn inputs
	ProbeRadius   float64    `yaml:"probe_radius"`    // Contact precision at the probe tip
	ProbeOffset   [3]float64 `yaml:"probe_offset"`    // Probe tip in body-local coordinates
}

// FeedingConfig holds resource consumption and reward shaping parameters.
type FeedingConfig struct {
	BiteSize        float64 `yaml:"bite_size"`        // Requested amount per contact tick
	FeedReward      float64 `yaml:"feed_reward"`      // Constant reward for any feeding event
	AlignmentBonus  float64 `yaml:"alignment_bonus"`  // Scaled by clamp01(dot(forward, -outward))
	BoundaryPenalty float64 `yaml:"boundary_penalty"` // Reward on boundary collision
}

// PlacementConfig holds randomised agent placement parameters.
type PlacementConfig struct {
	MaxAttempts   int     `yaml:"max_attempts"`
	FrontChance   float64 `yaml:"front_chance"`   // Probability of front-of-flower placement in training mode
	FrontDistMin  float64 `yaml:"front_dist_min"` // Distance from anchor along outward direction
	FrontDistMax  float64 `yaml:"front_dist_max"`
	HeightMin     float64 `yaml:"height_min"`
	HeightMax     float64 `yaml:"height_max"`
	RadiusMin     float64 `yaml:"radius_min"`
	RadiusMax     float64 `yaml:"radius_max"`
	PitchRange    float64 `yaml:"pitch_range"` // Degrees, +/-
	YawRange      float64 `yaml:"yaw_range"`   // Degrees, +/-
	OverlapRadius float64 `yaml:"overlap_radius"`
}

// EpisodeConfig holds episode lifecycle parameters.
type EpisodeConfig struct {
	TrainingMode bool `yaml:"training_mode"`
	MaxSteps     int  `yaml:"max_steps"` // Ticks per episode (0 = unlimited)
	Agents       int  `yaml:"agents"`    // Agents sharing one field
}

// NeuralConfig holds policy network parameters.
type NeuralConfig struct {
	HiddenSize int     `yaml:"hidden_size"`
	InitScale  float64 `yaml:"init_scale"` // Multiplier on Xavier initialisation
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int    `yaml:"stats_window"` // Episodes per aggregated stats window
	OutputDir   string `yaml:"output_dir"`   // Empty disables CSV output
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TurnStep     float64 // Agent.TurnRate * Physics.DT
	TotalFlowers int     // Field.Plants * Field.FlowersPerPlant
	InvAreaDiam  float64 // 1 / Field.AreaDiameter
	TicksPerSec  int     // round(1 / Physics.DT)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the simulation cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	case c.Field.AreaDiameter <= 0:
		return fmt.Errorf("field.area_diameter must be positive, got %v", c.Field.AreaDiameter)
	case c.Placement.MaxAttempts < 1:
		return fmt.Errorf("placement.max_attempts must be at least 1, got %d", c.Placement.MaxAttempts)
	case c.Placement.FrontDistMin > c.Placement.FrontDistMax:
		return fmt.Errorf("placement.front_dist_min %v exceeds front_dist_max %v",
			c.Placement.FrontDistMin, c.Placement.FrontDistMax)
	case c.Episode.Agents < 1:
		return fmt.Errorf("episode.agents must be at least 1, got %d", c.Episode.Agents)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.TurnStep = c.Agent.TurnRate * c.Physics.DT
	c.Derived.TotalFlowers = c.Field.Plants * c.Field.FlowersPerPlant
	c.Derived.InvAreaDiam = 1 / c.Field.AreaDiameter
	c.Derived.TicksPerSec = int(1/c.Physics.DT + 0.5)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
