// Package field manages depletable resource nodes (flowers) and the field
// that groups them under rotating plants.
package field

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/physics"
	"github.com/pthm-cable/forage/scene"
)

// FullQuantity is the resource a node holds after Reset.
const FullQuantity = 1.0

// State is the visual state of a node.
type State uint8

const (
	StateFull State = iota
	StateEmpty
)

// Visual receives state changes for colouring flowers.
type Visual interface {
	NodeStateChanged(n *Node, s State)
}

// Switch enables and disables collidable regions.
type Switch interface {
	SetEnabled(h physics.Handle, enabled bool)
}

// Node is a single flower holding nectar.
type Node struct {
	quantity float64

	flower *scene.Node
	res    *scene.Resource
	sw     Switch
	visual Visual
}

func newNode(flower *scene.Node, sw Switch, visual Visual) *Node {
	n := &Node{flower: flower, res: flower.Resource, sw: sw, visual: visual}
	n.Reset()
	return n
}

// Feed attempts to take amount of nectar and returns what was actually taken.
// amount must not be negative.
func (n *Node) Feed(amount float64) float64 {
	taken := amount
	if taken > n.quantity {
		taken = n.quantity
	}
	if taken < 0 {
		taken = 0
	}

	had := n.quantity > 0

	// Subtract the requested amount, not the clamped one.
	n.quantity -= amount

	if n.quantity <= 0 {
		n.quantity = 0
		if had {
			n.setRegions(false)
			n.notify(StateEmpty)
		}
	}

	return taken
}

// Reset refills the node and re-enables its regions.
func (n *Node) Reset() {
	n.quantity = FullQuantity
	n.setRegions(true)
	n.notify(StateFull)
}

// Quantity returns the nectar remaining.
func (n *Node) Quantity() float64 { return n.quantity }

// HasResource reports whether any nectar remains.
func (n *Node) HasResource() bool { return n.quantity > 0 }

// Position returns the world position of the flower itself.
func (n *Node) Position() r3.Vec { return n.flower.WorldPosition() }

// AnchorPosition returns the world position of the nectar region.
func (n *Node) AnchorPosition() r3.Vec { return n.res.Nectar.WorldPosition() }

// OutwardDirection returns the unit vector pointing straight out of the flower.
func (n *Node) OutwardDirection() r3.Vec { return n.res.Nectar.WorldUp() }

// ContactID returns the handle of the nectar region.
func (n *Node) ContactID() physics.Handle { return n.res.Contact }

// SolidID returns the handle of the petal region.
func (n *Node) SolidID() physics.Handle { return n.res.Solid }

// Name returns the flower's scene name.
func (n *Node) Name() string { return n.flower.Name }

func (n *Node) setRegions(enabled bool) {
	if n.sw == nil {
		return
	}
	n.sw.SetEnabled(n.res.Solid, enabled)
	n.sw.SetEnabled(n.res.Contact, enabled)
}

func (n *Node) notify(s State) {
	if n.visual != nil {
		n.visual.NodeStateChanged(n, s)
	}
}
