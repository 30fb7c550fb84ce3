// Package policy provides the decision makers that turn observations into
// actions: a keyboard heuristic and a small feedforward network.
package policy

import "github.com/pthm-cable/forage/agent"

// Policy maps an observation to an action.
type Policy interface {
	Act(obs agent.Observation) agent.Action
}

// Func adapts a plain function to Policy.
type Func func(obs agent.Observation) agent.Action

// Act calls f.
func (f Func) Act(obs agent.Observation) agent.Action { return f(obs) }

// Idle never moves or turns.
var Idle Policy = Func(func(agent.Observation) agent.Action { return agent.Action{} })
