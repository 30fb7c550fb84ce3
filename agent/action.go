package agent

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/geom"
)

// ActionSize is the length of the policy action vector.
const ActionSize = 5

// Action is one tick of policy output. Every component is in [-1, 1].
// Move is a world-space direction; Pitch and Yaw are turn inputs. Positive
// Pitch tilts the nose down and positive Yaw turns towards the agent's left.
type Action struct {
	Move  r3.Vec
	Pitch float64
	Yaw   float64
}

// ActionFromSlice decodes [moveX, moveY, moveZ, pitch, yaw].
func ActionFromSlice(v []float32) Action {
	if len(v) < ActionSize {
		return Action{}
	}
	return Action{
		Move:  r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])},
		Pitch: float64(v[3]),
		Yaw:   float64(v[4]),
	}
}

// ApplyAction pushes the body and turns it. Turn inputs are smoothed towards
// their targets at a capped rate; pitch is kept within the max pitch angle
// so the agent never flips, yaw is unbounded.
func (a *Agent) ApplyAction(act Action) {
	if a.frozen {
		return
	}

	// Force, not velocity: momentum carries across ticks
	a.space.AddForce(a.body, r3.Scale(a.p.moveForce, act.Move))

	rot := a.space.Rotation(a.body)

	a.smoothPitch = geom.MoveTowards(a.smoothPitch, act.Pitch, a.p.turnStep)
	a.smoothYaw = geom.MoveTowards(a.smoothYaw, act.Yaw, a.p.turnStep)

	pitch := rot.Pitch + a.smoothPitch*a.p.dt*a.p.pitchSpeed
	yaw := rot.Yaw + a.smoothYaw*a.p.dt*a.p.yawSpeed

	pitch = geom.Clamp(geom.WrapAngle(pitch), -a.p.maxPitch, a.p.maxPitch)

	a.space.SetRotation(a.body, geom.Euler{Pitch: pitch, Yaw: yaw})
}
