package agent

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/geom"
)

// ObservationSize is the length of the observation vector.
const ObservationSize = 10

// Observation layout. The policy depends on this order exactly.
const (
	// Agent orientation quaternion
	ObsQuatX = iota
	ObsQuatY
	ObsQuatZ
	ObsQuatW

	// Unit vector from probe tip to nearest nectar
	ObsDirX
	ObsDirY
	ObsDirZ

	ObsInFront    // dot(direction, -outward)
	ObsPointingAt // dot(probe forward, -outward)
	ObsDistance   // Probe-to-nectar distance / area diameter
)

// Observation is the per-tick input to the policy.
type Observation [ObservationSize]float32

// Observe builds the observation vector. It is all zeros when there is no
// flower with nectar to track.
func (a *Agent) Observe() Observation {
	var obs Observation
	if a.nearest == nil {
		return obs
	}

	rot := a.space.Rotation(a.body)
	x, y, z, w := geom.Quat(rot.Rotation())

	tip := a.ProbeTip()
	toNectar := r3.Sub(a.nearest.AnchorPosition(), tip)
	dir := geom.SafeUnit(toNectar)
	inward := r3.Scale(-1, a.nearest.OutwardDirection())

	obs[ObsQuatX] = float32(x)
	obs[ObsQuatY] = float32(y)
	obs[ObsQuatZ] = float32(z)
	obs[ObsQuatW] = float32(w)
	obs[ObsDirX] = float32(dir.X)
	obs[ObsDirY] = float32(dir.Y)
	obs[ObsDirZ] = float32(dir.Z)
	obs[ObsInFront] = float32(r3.Dot(dir, inward))
	obs[ObsPointingAt] = float32(r3.Dot(rot.Forward(), inward))
	obs[ObsDistance] = float32(r3.Norm(toNectar) * a.p.invAreaDiameter)

	return obs
}
