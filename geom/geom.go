// Package geom provides the 3D vector and orientation helpers shared by the
// simulation packages. Vectors are gonum r3.Vec values; the world is Y-up with
// +Z as the forward axis of an unrotated body.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// World axes.
var (
	Up      = r3.Vec{Y: 1}
	Forward = r3.Vec{Z: 1}
	Right   = r3.Vec{X: 1}
)

// Identity is the rotation that leaves every vector unchanged.
var Identity = r3.Rotation{Real: 1}

// Euler is an orientation expressed as angles in degrees.
// Rotations apply roll (Z), then pitch (X), then yaw (Y).
// Positive pitch tilts the forward axis downwards.
type Euler struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// Rotation returns the orientation as a unit quaternion rotation.
func (e Euler) Rotation() r3.Rotation {
	yaw := r3.NewRotation(Rad(e.Yaw), Up)
	pitch := r3.NewRotation(Rad(e.Pitch), Right)
	roll := r3.NewRotation(Rad(e.Roll), Forward)
	return Compose(yaw, Compose(pitch, roll))
}

// Forward returns the unit vector the orientation looks along.
func (e Euler) Forward() r3.Vec {
	return e.Rotation().Rotate(Forward)
}

// Up returns the orientation's local up axis in world space.
func (e Euler) Up() r3.Vec {
	return e.Rotation().Rotate(Up)
}

// Compose returns the rotation that applies b first and then a.
func Compose(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

// Quat returns the quaternion components of r as (x, y, z, w).
func Quat(r r3.Rotation) (x, y, z, w float64) {
	q := quat.Number(r)
	return q.Imag, q.Jmag, q.Kmag, q.Real
}

// LookRotation returns the orientation whose forward axis points along dir
// with the global up axis as the reference. Roll is always zero.
// A zero dir yields the identity orientation.
func LookRotation(dir r3.Vec) Euler {
	n := r3.Norm(dir)
	if n == 0 {
		return Euler{}
	}
	yaw := Deg(math.Atan2(dir.X, dir.Z))
	pitch := -Deg(math.Asin(Clamp(dir.Y/n, -1, 1)))
	return Euler{Pitch: pitch, Yaw: yaw}
}

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// WrapAngle wraps an angle in degrees into (-180, 180].
func WrapAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// Clamp clamps v between lo and hi.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 clamps v to the [0, 1] range.
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// MoveTowards moves current towards target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// SafeUnit returns v scaled to unit length, or the zero vector when v is zero.
// r3.Unit returns NaNs for a zero vector.
func SafeUnit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// ClosestPointOnSphere returns the point of a solid sphere closest to p.
// Points inside the sphere are returned unchanged.
func ClosestPointOnSphere(center r3.Vec, radius float64, p r3.Vec) r3.Vec {
	d := r3.Sub(p, center)
	n := r3.Norm(d)
	if n <= radius {
		return p
	}
	return r3.Add(center, r3.Scale(radius/n, d))
}
