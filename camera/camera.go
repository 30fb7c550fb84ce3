// Package camera provides an orbit camera for viewing the field in 3D.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera orbits a target point at a distance. Yaw and pitch are in degrees;
// positive pitch looks down on the target from above.
type Camera struct {
	// Target is the point the camera looks at
	Target r3.Vec

	Yaw, Pitch float64
	Distance   float64

	// Constraints
	MinDistance, MaxDistance float64
	MinPitch, MaxPitch       float64

	home view
}

// view is a starting view restored by Reset.
type view struct {
	Target     r3.Vec
	Yaw, Pitch float64
	Distance   float64
}

// New creates a camera looking at target from distance, raised 30 degrees.
func New(target r3.Vec, distance float64) *Camera {
	c := &Camera{
		Target:      target,
		Yaw:         0,
		Pitch:       30,
		Distance:    distance,
		MinDistance: 0.5,
		MaxDistance: distance * 4,
		MinPitch:    -10,
		MaxPitch:    89,
	}
	c.home = view{Target: target, Yaw: c.Yaw, Pitch: c.Pitch, Distance: distance}
	return c
}

// Position returns the camera eye in world coordinates.
func (c *Camera) Position() r3.Vec {
	yaw := c.Yaw * math.Pi / 180
	pitch := c.Pitch * math.Pi / 180
	// Offset from the target, pointing back along the view direction
	offset := r3.Vec{
		X: -math.Sin(yaw) * math.Cos(pitch),
		Y: math.Sin(pitch),
		Z: -math.Cos(yaw) * math.Cos(pitch),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, offset))
}

// Forward returns the unit view direction.
func (c *Camera) Forward() r3.Vec {
	return r3.Unit(r3.Sub(c.Target, c.Position()))
}

// Orbit rotates the camera around the target by the given degrees.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by factor; factors above 1 move closer.
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Pan moves the target in the horizontal plane, relative to the view:
// right is sideways, forward is along the ground towards the view direction.
func (c *Camera) Pan(right, forward float64) {
	yaw := c.Yaw * math.Pi / 180
	fwd := r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}
	side := r3.Vec{X: math.Cos(yaw), Z: -math.Sin(yaw)}
	c.Target = r3.Add(c.Target, r3.Add(r3.Scale(forward, fwd), r3.Scale(right, side)))
}

// Follow moves the target a fraction t of the way towards p.
func (c *Camera) Follow(p r3.Vec, t float64) {
	t = clamp(t, 0, 1)
	c.Target = r3.Add(c.Target, r3.Scale(t, r3.Sub(p, c.Target)))
}

// Reset returns the camera to its starting view.
func (c *Camera) Reset() {
	c.Target = c.home.Target
	c.Yaw = c.home.Yaw
	c.Pitch = c.home.Pitch
	c.Distance = c.home.Distance
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
