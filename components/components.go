// Package components defines ECS components for the physics world.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/geom"
)

// Tag classifies a collider for event filtering.
type Tag uint8

const (
	TagNone     Tag = iota
	TagAgent        // Solid body of an agent
	TagProbe        // Probe tip sensor mounted on an agent
	TagResource     // Contact region of a resource node
	TagPetal        // Solid region of a resource node
	TagBoundary     // Arena walls, floor and ceiling
)

func (t Tag) String() string {
	switch t {
	case TagAgent:
		return "agent"
	case TagProbe:
		return "probe"
	case TagResource:
		return "resource"
	case TagPetal:
		return "petal"
	case TagBoundary:
		return "boundary"
	}
	return "none"
}

// Shape selects the collider geometry.
type Shape uint8

const (
	ShapeSphere Shape = iota
	// ShapeShell is the inside of a vertical cylinder with a floor at y=0.
	// Bodies collide when they leave the interior.
	ShapeShell
)

// Transform is a world pose.
type Transform struct {
	Pos r3.Vec
	Rot geom.Euler
}

// Velocity holds linear (units/s) and angular (degrees/s per Euler axis) velocity.
type Velocity struct {
	Linear  r3.Vec
	Angular r3.Vec
}

// Force accumulates forces applied during the current tick.
type Force struct {
	Linear r3.Vec
}

// Body holds rigid-body properties of a dynamic entity.
type Body struct {
	Mass     float64
	Radius   float64
	Sleeping bool
}

// Anchor supplies a collider position owned by something outside the world,
// such as a scene graph node.
type Anchor interface {
	WorldPosition() r3.Vec
}

// Mount attaches a collider to a body at a body-local offset.
type Mount struct {
	Body   ecs.Entity
	Offset r3.Vec
}

// Collider describes a collision or trigger region.
type Collider struct {
	Shape   Shape
	Radius  float64
	Height  float64 // ShapeShell only
	Trigger bool
	Tag     Tag
	Enabled bool
	Anchor  Anchor // Optional; overrides Transform.Pos
}
