package policy

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/geom"
)

// KeyState is the set of held control keys.
type KeyState struct {
	Forward, Back bool // W, S
	Left, Right   bool // A, D
	Up, Down      bool // E, C
	PitchUp       bool // Up arrow
	PitchDown     bool // Down arrow
	YawLeft       bool // Left arrow
	YawRight      bool // Right arrow
}

// Heuristic drives an agent from the keyboard. Movement keys are relative
// to the agent's orientation when Orientation is set, world axes otherwise.
type Heuristic struct {
	Keys        func() KeyState
	Orientation func() geom.Euler
}

// Act implements Policy. The observation is ignored.
func (h Heuristic) Act(agent.Observation) agent.Action {
	var keys KeyState
	if h.Keys != nil {
		keys = h.Keys()
	}
	rot := geom.Euler{}
	if h.Orientation != nil {
		rot = h.Orientation()
	}
	return MapKeys(keys, rot)
}

// MapKeys converts held keys to an action. Each movement axis contributes a
// unit vector along the agent's forward, right or up axis; the sum is
// normalised. Arrow keys set pitch and yaw to ±1; positive yaw turns towards
// the agent's left, so the right arrow maps to -1.
func MapKeys(k KeyState, rot geom.Euler) agent.Action {
	r := rot.Rotation()
	forward := r.Rotate(geom.Forward)
	up := r.Rotate(geom.Up)
	right := r3.Cross(forward, up)

	var fwd, side, vert r3.Vec
	if k.Forward {
		fwd = forward
	} else if k.Back {
		fwd = r3.Scale(-1, forward)
	}
	if k.Left {
		side = r3.Scale(-1, right)
	} else if k.Right {
		side = right
	}
	if k.Up {
		vert = up
	} else if k.Down {
		vert = r3.Scale(-1, up)
	}

	var act agent.Action
	act.Move = geom.SafeUnit(r3.Add(fwd, r3.Add(side, vert)))

	if k.PitchUp {
		act.Pitch = 1
	} else if k.PitchDown {
		act.Pitch = -1
	}
	if k.YawLeft {
		act.Yaw = 1
	} else if k.YawRight {
		act.Yaw = -1
	}

	return act
}
