package field

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/physics"
	"github.com/pthm-cable/forage/scene"
)

var (
	// ErrNodeNotFound is returned when a contact region was never registered.
	ErrNodeNotFound = errors.New("field: no node registered for contact region")
	// ErrDuplicateContact is returned when two flowers share a contact region.
	ErrDuplicateContact = errors.New("field: contact region registered twice")
)

// Options configures a Field.
type Options struct {
	YawRange    float64 // Plant yaw is drawn from [-YawRange, YawRange] degrees
	JitterRange float64 // Plant pitch and roll are drawn from [-JitterRange, JitterRange]
	Switch      Switch
	Visual      Visual
}

// Field owns every flower under a scene root and maps contact regions back to them.
type Field struct {
	root   *scene.Node
	plants []*scene.Node
	nodes  []*Node
	lookup map[physics.Handle]*Node

	yawRange    float64
	jitterRange float64
	rng         *rand.Rand
}

// New walks the scene graph under root once and registers every plant and flower.
func New(root *scene.Node, rng *rand.Rand, opts Options) (*Field, error) {
	f := &Field{
		root:        root,
		lookup:      make(map[physics.Handle]*Node),
		yawRange:    opts.YawRange,
		jitterRange: opts.JitterRange,
		rng:         rng,
	}
	if err := f.collect(root, opts); err != nil {
		return nil, err
	}
	return f, nil
}

// collect registers plants and flowers among the children of parent.
// Flowers are never nested, so their subtrees are not searched.
func (f *Field) collect(parent *scene.Node, opts Options) error {
	for _, child := range parent.Children() {
		switch child.Kind {
		case scene.KindPlant:
			f.plants = append(f.plants, child)
			if err := f.collect(child, opts); err != nil {
				return err
			}

		case scene.KindResource:
			if child.Resource == nil {
				return fmt.Errorf("field: flower %q has no regions", child.Name)
			}
			id := child.Resource.Contact
			if _, dup := f.lookup[id]; dup {
				return fmt.Errorf("%w: flower %q", ErrDuplicateContact, child.Name)
			}
			n := newNode(child, opts.Switch, opts.Visual)
			f.nodes = append(f.nodes, n)
			f.lookup[id] = n

		default:
			if err := f.collect(child, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResetField gives every plant a new random rotation, full on yaw and a
// small jitter on pitch and roll, then refills every flower.
func (f *Field) ResetField() {
	for _, p := range f.plants {
		p.LocalRot.Pitch = f.uniform(f.jitterRange)
		p.LocalRot.Yaw = f.uniform(f.yawRange)
		p.LocalRot.Roll = f.uniform(f.jitterRange)
	}
	for _, n := range f.nodes {
		n.Reset()
	}
}

// uniform draws from [-r, r].
func (f *Field) uniform(r float64) float64 {
	return (f.rng.Float64()*2 - 1) * r
}

// LookupNode returns the flower owning a contact region.
func (f *Field) LookupNode(id physics.Handle) (*Node, error) {
	n, ok := f.lookup[id]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	return n, nil
}

// MustLookupNode is like LookupNode but panics on an unregistered region,
// which means the scene and the field are out of sync.
func (f *Field) MustLookupNode(id physics.Handle) *Node {
	n, err := f.LookupNode(id)
	if err != nil {
		panic(err)
	}
	return n
}

// Nodes returns every flower in registration order.
func (f *Field) Nodes() []*Node { return f.nodes }

// Plants returns every plant container in registration order.
func (f *Field) Plants() []*scene.Node { return f.plants }

// Origin returns the world position of the field root.
func (f *Field) Origin() r3.Vec { return f.root.WorldPosition() }

// AnyResource reports whether at least one flower has nectar.
func (f *Field) AnyResource() bool {
	for _, n := range f.nodes {
		if n.HasResource() {
			return true
		}
	}
	return false
}

// TotalQuantity returns the nectar remaining across the field.
func (f *Field) TotalQuantity() float64 {
	var sum float64
	for _, n := range f.nodes {
		sum += n.quantity
	}
	return sum
}
