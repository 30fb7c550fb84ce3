package agent

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/geom"
)

// ErrPlacementExhausted is wrapped by PlacementError.
var ErrPlacementExhausted = errors.New("agent: no safe placement found")

// PlacementError reports that every placement attempt overlapped something.
// The agent is left at the last candidate.
type PlacementError struct {
	Attempts int
	Last     r3.Vec
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("agent: no safe placement after %d attempts (last candidate %.2f,%.2f,%.2f)",
		e.Attempts, e.Last.X, e.Last.Y, e.Last.Z)
}

func (e *PlacementError) Unwrap() error { return ErrPlacementExhausted }

// PlaceRandomly moves the agent to a random pose. With preferFront it hovers
// just in front of a random flower, looking at its nectar, and always
// succeeds on the first attempt. Otherwise it samples poses in a ring around
// the field and accepts the first whose overlap sphere is clear.
// The pose is written on every attempt.
func (a *Agent) PlaceRandomly(preferFront bool) error {
	pc := a.p.placement
	nodes := a.field.Nodes()
	if len(nodes) == 0 {
		preferFront = false
	}

	var pos r3.Vec
	for attempt := 0; attempt < pc.MaxAttempts; attempt++ {
		var rot geom.Euler
		safe := false

		if preferFront {
			n := nodes[a.rng.Intn(len(nodes))]
			anchor := n.AnchorPosition()
			dist := a.uniformRange(pc.FrontDistMin, pc.FrontDistMax)
			pos = r3.Add(anchor, r3.Scale(dist, n.OutwardDirection()))
			rot = geom.LookRotation(r3.Sub(anchor, pos))
			safe = true
		} else {
			height := a.uniformRange(pc.HeightMin, pc.HeightMax)
			radius := a.uniformRange(pc.RadiusMin, pc.RadiusMax)
			azimuth := geom.Euler{Yaw: a.uniform(180)}
			pos = r3.Add(a.field.Origin(), r3.Add(
				r3.Scale(height, geom.Up),
				r3.Scale(radius, azimuth.Forward()),
			))
			rot = geom.Euler{Pitch: a.uniform(pc.PitchRange), Yaw: a.uniform(pc.YawRange)}
			safe = a.clear(pos, pc.OverlapRadius)
		}

		a.space.SetPose(a.body, pos, rot)
		if safe {
			return nil
		}
	}

	return &PlacementError{Attempts: pc.MaxAttempts, Last: pos}
}

// clear reports whether nothing but the agent itself overlaps the sphere.
func (a *Agent) clear(pos r3.Vec, radius float64) bool {
	for _, h := range a.space.OverlapSphere(pos, radius) {
		if a.space.Owner(h) != a.body {
			return false
		}
	}
	return true
}

// uniform draws from [-r, r].
func (a *Agent) uniform(r float64) float64 {
	return (a.rng.Float64()*2 - 1) * r
}

func (a *Agent) uniformRange(lo, hi float64) float64 {
	return lo + a.rng.Float64()*(hi-lo)
}
