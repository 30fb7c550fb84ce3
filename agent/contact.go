package agent

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/field"
	"github.com/pthm-cable/forage/geom"
	"github.com/pthm-cable/forage/physics"
)

// FeedResult describes what a contact event did.
type FeedResult struct {
	Node     *field.Node // nil if the contact was not a feeding event
	Taken    float64
	Reward   float64
	Depleted bool // The node was emptied by this bite
}

// OnTrigger handles a trigger overlap reported by the physics world. It is
// called on every tick the overlap persists. Only nectar regions touched by
// the probe tip itself count as feeding, and a node that is already empty
// feeds nothing.
func (a *Agent) OnTrigger(ev physics.TriggerEvent) FeedResult {
	if ev.Tag != components.TagResource {
		return FeedResult{}
	}

	tip := a.ProbeTip()
	closest := a.space.ClosestPoint(ev.Trigger, tip)
	if geom.Distance(closest, tip) >= a.p.probeRadius {
		return FeedResult{}
	}

	n := a.field.MustLookupNode(ev.Trigger)
	// Emptied earlier this tick by an agent registered before this one
	if !n.HasResource() {
		return FeedResult{}
	}
	taken := n.Feed(a.p.biteSize)
	a.resourceObtained += taken

	res := FeedResult{Node: n, Taken: taken}

	if a.training {
		inward := r3.Scale(-1, n.OutwardDirection())
		bonus := a.p.alignmentBonus * geom.Clamp01(r3.Dot(a.Forward(), inward))
		res.Reward = a.p.feedReward + bonus
		a.AddReward(res.Reward)
	}

	if !n.HasResource() {
		res.Depleted = true
		a.UpdateNearest()
	}

	return res
}

// OnCollision handles a solid collision. Hitting the arena boundary costs a
// fixed penalty in training mode.
func (a *Agent) OnCollision(ev physics.CollisionEvent) float64 {
	if !a.training || ev.Tag != components.TagBoundary {
		return 0
	}
	a.AddReward(a.p.boundaryPenalty)
	return a.p.boundaryPenalty
}
