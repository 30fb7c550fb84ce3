package scene

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/geom"
	"github.com/pthm-cable/forage/physics"
)

const (
	flowerTilt   = 60.0 // Degrees the flower's outward axis leans away from vertical
	nectarOffset = 0.08 // Nectar sits this far along the flower's outward axis
)

// Scene is a built field layout registered with a physics world.
type Scene struct {
	Root     *Node
	Boundary physics.Handle
}

// BuildField lays out plants in a ring around the origin, each holding
// flowers on an intermediate stem container, and registers the petal,
// nectar and arena colliders with world.
func BuildField(cfg *config.Config, world *physics.World, rng *rand.Rand) *Scene {
	fc := cfg.Field
	root := NewNode("field", KindContainer, r3.Vec{}, geom.Euler{})

	for i := 0; i < fc.Plants; i++ {
		angle := 2*math.Pi*float64(i)/float64(fc.Plants) + (rng.Float64()-0.5)*0.3
		radius := fc.PlantRingMin + rng.Float64()*(fc.PlantRingMax-fc.PlantRingMin)
		pos := r3.Vec{X: radius * math.Sin(angle), Z: radius * math.Cos(angle)}

		plant := root.AddChild(NewNode(fmt.Sprintf("plant_%d", i), KindPlant, pos, geom.Euler{}))
		stem := plant.AddChild(NewNode("stem", KindContainer, r3.Vec{}, geom.Euler{}))

		for j := 0; j < fc.FlowersPerPlant; j++ {
			a := 2 * math.Pi * float64(j) / float64(fc.FlowersPerPlant)
			height := fc.FlowerHeightMin + rng.Float64()*(fc.FlowerHeightMax-fc.FlowerHeightMin)
			local := r3.Vec{X: fc.FlowerSpread * math.Sin(a), Y: height, Z: fc.FlowerSpread * math.Cos(a)}
			rot := geom.Euler{Pitch: flowerTilt, Yaw: geom.Deg(a)}

			flower := stem.AddChild(NewNode(fmt.Sprintf("flower_%d_%d", i, j), KindResource, local, rot))
			AttachResource(flower, world, fc.PetalRadius, fc.NectarRadius)
		}
	}

	boundary := world.AddShell(r3.Vec{}, fc.BoundaryRadius, fc.BoundaryHeight, components.TagBoundary)

	return &Scene{Root: root, Boundary: boundary}
}

// AttachResource gives a flower node its nectar child and registers both
// collidable regions. The petal sits at the flower origin, the nectar just
// in front of it along the flower's up axis.
func AttachResource(flower *Node, world *physics.World, petalRadius, nectarRadius float64) *Resource {
	nectar := flower.AddChild(NewNode("nectar", KindContainer, r3.Vec{Y: nectarOffset}, geom.Euler{}))
	res := &Resource{
		Nectar:  nectar,
		Solid:   world.AddSphere(r3.Vec{}, petalRadius, false, components.TagPetal, flower),
		Contact: world.AddSphere(r3.Vec{}, nectarRadius, true, components.TagResource, nectar),
	}
	flower.Kind = KindResource
	flower.Resource = res
	return res
}
