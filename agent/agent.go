// Package agent implements the foraging agent: it turns policy actions into
// motion, tracks the nearest flower with nectar, builds observations, feeds
// on contact and shapes rewards.
package agent

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/field"
	"github.com/pthm-cable/forage/geom"
	"github.com/pthm-cable/forage/physics"
)

// State is the agent's episode lifecycle state.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateActive
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	}
	return "uninitialized"
}

// Space is the physics and transform collaborator an agent drives.
type Space interface {
	Position(h physics.Handle) r3.Vec
	Rotation(h physics.Handle) geom.Euler
	SetPose(h physics.Handle, pos r3.Vec, rot geom.Euler)
	SetRotation(h physics.Handle, rot geom.Euler)
	AddForce(h physics.Handle, f r3.Vec)
	ZeroVelocity(h physics.Handle)
	Sleep(h physics.Handle)
	Wake(h physics.Handle)
	OverlapSphere(point r3.Vec, radius float64) []physics.Handle
	ClosestPoint(h physics.Handle, p r3.Vec) r3.Vec
	Owner(h physics.Handle) physics.Handle
}

// params are the tunables copied out of the config at construction.
type params struct {
	dt              float64
	moveForce       float64
	pitchSpeed      float64
	yawSpeed        float64
	maxPitch        float64
	turnStep        float64 // Largest change of a smoothed turn input per tick
	probeRadius     float64
	probeOffset     r3.Vec
	biteSize        float64
	feedReward      float64
	alignmentBonus  float64
	boundaryPenalty float64
	invAreaDiameter float64
	placement       config.PlacementConfig
}

// Agent is a single foraging agent.
type Agent struct {
	p        params
	training bool
	rng      *rand.Rand

	space     Space
	body      physics.Handle
	field     *field.Field
	ownsField bool

	state   State
	frozen  bool
	nearest *field.Node

	// Smoothed turn inputs carried across ticks
	smoothPitch float64
	smoothYaw   float64

	resourceObtained float64
	episodeReward    float64
	stepReward       float64
}

// New creates an unbound agent from the configuration.
func New(cfg *config.Config, rng *rand.Rand) *Agent {
	off := cfg.Agent.ProbeOffset
	return &Agent{
		p: params{
			dt:              cfg.Physics.DT,
			moveForce:       cfg.Agent.MoveForce,
			pitchSpeed:      cfg.Agent.PitchSpeed,
			yawSpeed:        cfg.Agent.YawSpeed,
			maxPitch:        cfg.Agent.MaxPitchAngle,
			turnStep:        cfg.Derived.TurnStep,
			probeRadius:     cfg.Agent.ProbeRadius,
			probeOffset:     r3.Vec{X: off[0], Y: off[1], Z: off[2]},
			biteSize:        cfg.Feeding.BiteSize,
			feedReward:      cfg.Feeding.FeedReward,
			alignmentBonus:  cfg.Feeding.AlignmentBonus,
			boundaryPenalty: cfg.Feeding.BoundaryPenalty,
			invAreaDiameter: cfg.Derived.InvAreaDiam,
			placement:       cfg.Placement,
		},
		training: cfg.Episode.TrainingMode,
		rng:      rng,
	}
}

// Bind attaches the agent to its physics body and field. If ownsField is
// set, the agent refills and rotates the field at the start of each
// training episode.
func (a *Agent) Bind(space Space, body physics.Handle, f *field.Field, ownsField bool) {
	a.space = space
	a.body = body
	a.field = f
	a.ownsField = ownsField
	a.state = StateReady
}

// Begin starts an episode. A *PlacementError means placement fell back to
// the last unsafe candidate; the episode is still active.
func (a *Agent) Begin() error {
	if a.training && a.ownsField {
		a.field.ResetField()
	}

	a.resourceObtained = 0
	a.episodeReward = 0
	a.stepReward = 0
	a.space.ZeroVelocity(a.body)

	preferFront := a.training && a.rng.Float64() < a.p.placement.FrontChance
	err := a.PlaceRandomly(preferFront)

	a.nearest = nil
	a.UpdateNearest()
	a.state = StateActive

	return err
}

// End finishes the episode.
func (a *Agent) End() {
	a.state = StateReady
}

// State returns the lifecycle state.
func (a *Agent) State() State { return a.state }

// Body returns the agent's physics body.
func (a *Agent) Body() physics.Handle { return a.body }

// Nearest returns the cached nearest flower with nectar, or nil.
func (a *Agent) Nearest() *field.Node { return a.nearest }

// ResourceObtained returns the nectar consumed this episode.
func (a *Agent) ResourceObtained() float64 { return a.resourceObtained }

// Reward returns the reward accumulated this episode.
func (a *Agent) Reward() float64 { return a.episodeReward }

// TakeStepReward returns the reward accumulated since the last call and clears it.
func (a *Agent) TakeStepReward() float64 {
	r := a.stepReward
	a.stepReward = 0
	return r
}

// AddReward adds to both the step and episode reward.
func (a *Agent) AddReward(r float64) {
	a.stepReward += r
	a.episodeReward += r
}

// Training reports whether the agent runs in training mode.
func (a *Agent) Training() bool { return a.training }

// Frozen reports whether action processing is suspended.
func (a *Agent) Frozen() bool { return a.frozen }

// Freeze suspends action processing and puts the body to sleep.
// Only valid outside training mode.
func (a *Agent) Freeze() {
	if a.training {
		panic("agent: freeze is not supported in training mode")
	}
	a.frozen = true
	a.space.Sleep(a.body)
}

// Unfreeze resumes action processing and wakes the body.
// Only valid outside training mode.
func (a *Agent) Unfreeze() {
	if a.training {
		panic("agent: unfreeze is not supported in training mode")
	}
	a.frozen = false
	a.space.Wake(a.body)
}

// Position returns the body position.
func (a *Agent) Position() r3.Vec { return a.space.Position(a.body) }

// Rotation returns the body orientation.
func (a *Agent) Rotation() geom.Euler { return a.space.Rotation(a.body) }

// Forward returns the direction the agent and its probe face.
func (a *Agent) Forward() r3.Vec { return a.Rotation().Forward() }

// ProbeTip returns the world position of the probe tip.
func (a *Agent) ProbeTip() r3.Vec {
	rot := a.space.Rotation(a.body)
	return r3.Add(a.space.Position(a.body), rot.Rotation().Rotate(a.p.probeOffset))
}

// UpdateNearest scans every flower for the closest one with nectar.
// The cached nearest is cleared when no flower has nectar.
func (a *Agent) UpdateNearest() {
	tip := a.ProbeTip()

	for _, n := range a.field.Nodes() {
		if !n.HasResource() {
			continue
		}
		if a.nearest == nil {
			a.nearest = n
			continue
		}
		if !a.nearest.HasResource() ||
			geom.Distance(n.Position(), tip) < geom.Distance(a.nearest.Position(), tip) {
			a.nearest = n
		}
	}

	if a.nearest != nil && !a.nearest.HasResource() {
		a.nearest = nil
	}
}

// CheckNearest recomputes the nearest flower if the cached one has been
// emptied since it was chosen. Returns whether a recompute happened.
func (a *Agent) CheckNearest() bool {
	if a.nearest != nil && !a.nearest.HasResource() {
		a.UpdateNearest()
		return true
	}
	return false
}
