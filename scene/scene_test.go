package scene

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/geom"
	"github.com/pthm-cable/forage/physics"
)

func init() {
	config.MustInit("")
}

func near(a, b r3.Vec) bool {
	return geom.Distance(a, b) < 1e-9
}

func TestWorldTransformChain(t *testing.T) {
	root := NewNode("root", KindContainer, r3.Vec{X: 1}, geom.Euler{})
	plant := root.AddChild(NewNode("plant", KindPlant, r3.Vec{Z: 2}, geom.Euler{Yaw: 90}))
	leaf := plant.AddChild(NewNode("leaf", KindContainer, r3.Vec{Z: 1}, geom.Euler{}))

	// Yaw 90 maps local +Z to world +X
	want := r3.Vec{X: 2, Z: 2}
	if got := leaf.WorldPosition(); !near(got, want) {
		t.Errorf("WorldPosition() = %v, want %v", got, want)
	}
	if got := leaf.WorldRotation().Rotate(geom.Forward); !near(got, geom.Right) {
		t.Errorf("world forward = %v, want %v", got, geom.Right)
	}

	// Rotating the plant moves the leaf
	plant.LocalRot = geom.Euler{Yaw: -90}
	want = r3.Vec{X: 0, Z: 2}
	if got := leaf.WorldPosition(); !near(got, want) {
		t.Errorf("WorldPosition() after rotation = %v, want %v", got, want)
	}

	if leaf.Parent() != plant || len(root.Children()) != 1 {
		t.Error("unexpected graph links")
	}
}

func TestWorldUpFollowsPitch(t *testing.T) {
	n := NewNode("n", KindContainer, r3.Vec{}, geom.Euler{Pitch: 90})
	// Pitching the forward axis down tips the up axis forward
	if got := n.WorldUp(); !near(got, geom.Forward) {
		t.Errorf("WorldUp() = %v, want %v", got, geom.Forward)
	}
}

func TestBuildField(t *testing.T) {
	cfg := config.Cfg()
	world := physics.NewWorld(cfg.Physics.Drag, cfg.Physics.AngularDrag)
	sc := BuildField(cfg, world, rand.New(rand.NewSource(42)))

	var plants, flowers int
	var walk func(n *Node)
	walk = func(n *Node) {
		switch n.Kind {
		case KindPlant:
			plants++
		case KindResource:
			flowers++
			if n.Resource == nil || n.Resource.Nectar == nil {
				t.Fatalf("flower %s has no resource binding", n.Name)
			}
			if !world.Enabled(n.Resource.Contact) || !world.Enabled(n.Resource.Solid) {
				t.Errorf("flower %s regions should start enabled", n.Name)
			}
			up := n.Resource.Nectar.WorldUp()
			if math.Abs(r3.Norm(up)-1) > 1e-9 {
				t.Errorf("outward axis of %s not unit: %v", n.Name, up)
			}
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(sc.Root)

	if plants != cfg.Field.Plants {
		t.Errorf("plants = %d, want %d", plants, cfg.Field.Plants)
	}
	if flowers != cfg.Derived.TotalFlowers {
		t.Errorf("flowers = %d, want %d", flowers, cfg.Derived.TotalFlowers)
	}
	if got := world.Collider(sc.Boundary).Radius; got != cfg.Field.BoundaryRadius {
		t.Errorf("boundary radius = %v, want %v", got, cfg.Field.BoundaryRadius)
	}
}
