// Package scene provides the parent-child graph the resource field is built from.
// Nodes carry an explicit Kind assigned at construction time, so traversal
// never inspects names.
package scene

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/geom"
	"github.com/pthm-cable/forage/physics"
)

// Kind classifies a scene node for field setup.
type Kind uint8

const (
	KindContainer Kind = iota // Plain grouping node
	KindPlant                 // Rotation anchor holding one or more flowers
	KindResource              // A flower; never contains other flowers
)

func (k Kind) String() string {
	switch k {
	case KindPlant:
		return "plant"
	case KindResource:
		return "resource"
	}
	return "container"
}

// Resource binds a flower node to its collidable regions.
type Resource struct {
	Nectar  *Node          // Contact region transform: anchor position and outward axis
	Contact physics.Handle // Trigger collider over the nectar
	Solid   physics.Handle // Petal collider that blocks the agent
}

// Node is one element of the scene graph.
type Node struct {
	Name     string
	Kind     Kind
	LocalPos r3.Vec
	LocalRot geom.Euler

	// Set iff Kind == KindResource
	Resource *Resource

	parent   *Node
	children []*Node
}

// NewNode creates a detached node.
func NewNode(name string, kind Kind, pos r3.Vec, rot geom.Euler) *Node {
	return &Node{Name: name, Kind: kind, LocalPos: pos, LocalRot: rot}
}

// AddChild attaches c under n and returns c.
func (n *Node) AddChild(c *Node) *Node {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// WorldRotation returns the node's orientation in world space.
func (n *Node) WorldRotation() r3.Rotation {
	rot := n.LocalRot.Rotation()
	for p := n.parent; p != nil; p = p.parent {
		rot = geom.Compose(p.LocalRot.Rotation(), rot)
	}
	return rot
}

// WorldPosition returns the node's origin in world space.
func (n *Node) WorldPosition() r3.Vec {
	pos := n.LocalPos
	for p := n.parent; p != nil; p = p.parent {
		pos = r3.Add(p.LocalPos, p.LocalRot.Rotation().Rotate(pos))
	}
	return pos
}

// WorldUp returns the node's local up axis in world space.
func (n *Node) WorldUp() r3.Vec {
	return n.WorldRotation().Rotate(geom.Up)
}
