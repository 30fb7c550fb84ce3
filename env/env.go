// Package env runs foraging episodes: it owns the physics world, the field
// and the agents, and advances them with a fixed-timestep step function.
package env

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/field"
	"github.com/pthm-cable/forage/geom"
	"github.com/pthm-cable/forage/physics"
	"github.com/pthm-cable/forage/policy"
	"github.com/pthm-cable/forage/scene"
	"github.com/pthm-cable/forage/telemetry"
)

// ErrPolicyCount is returned by Run when policies and agents do not pair up.
var ErrPolicyCount = errors.New("env: one policy per agent required")

// StepResult is what one tick produced, indexed by agent registration order.
type StepResult struct {
	Observations []agent.Observation
	Rewards      []float64 // Reward earned this tick
	Feeds        []agent.FeedResult
	Done         bool // The episode hit its step limit
}

// Options configures an Env beyond the config.
type Options struct {
	Seed      int64
	Visual    field.Visual             // Optional flower colour sink
	Collector *telemetry.Collector     // Optional episode statistics
	Output    *telemetry.OutputManager // Optional CSV output
	Perf      *telemetry.PerfCollector // Optional step timing
	Bookmarks *telemetry.BookmarkDetector
}

// Env is a field with one or more agents sharing it.
type Env struct {
	cfg *config.Config

	world  *physics.World
	scene  *scene.Scene
	field  *field.Field
	agents []*agent.Agent
	probes []physics.Handle
	byBody map[physics.Handle]int

	collector *telemetry.Collector
	output    *telemetry.OutputManager
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector

	seed    int64
	episode int
	steps   int
	active  bool
}

// New builds the field and registers cfg.Episode.Agents agents. The first
// agent owns the field and resets it between training episodes.
func New(cfg *config.Config, opts Options) (*Env, error) {
	rng := rand.New(rand.NewSource(opts.Seed))
	world := physics.NewWorld(cfg.Physics.Drag, cfg.Physics.AngularDrag)
	sc := scene.BuildField(cfg, world, rng)

	f, err := field.New(sc.Root, rng, field.Options{
		YawRange:    cfg.Field.PlantYawRange,
		JitterRange: cfg.Field.PlantJitterRange,
		Switch:      world,
		Visual:      opts.Visual,
	})
	if err != nil {
		return nil, fmt.Errorf("building field: %w", err)
	}

	e := &Env{
		cfg:       cfg,
		world:     world,
		scene:     sc,
		field:     f,
		byBody:    make(map[physics.Handle]int),
		collector: opts.Collector,
		output:    opts.Output,
		perf:      opts.Perf,
		bookmarks: opts.Bookmarks,
		seed:      opts.Seed,
	}

	off := cfg.Agent.ProbeOffset
	probeOffset := r3.Vec{X: off[0], Y: off[1], Z: off[2]}
	for i := 0; i < cfg.Episode.Agents; i++ {
		start := r3.Vec{Y: cfg.Placement.HeightMin, Z: -cfg.Placement.RadiusMin}
		body := world.AddBody(start, geom.Euler{}, cfg.Physics.AgentMass, cfg.Physics.AgentRadius, components.TagAgent)
		probe := world.Mount(body, probeOffset, cfg.Agent.ProbeRadius, components.TagProbe)

		a := agent.New(cfg, rand.New(rand.NewSource(rng.Int63())))
		a.Bind(world, body, f, i == 0)

		e.byBody[body] = len(e.agents)
		e.agents = append(e.agents, a)
		e.probes = append(e.probes, probe)
	}

	slog.Info("env ready",
		"plants", len(f.Plants()),
		"flowers", len(f.Nodes()),
		"agents", len(e.agents),
		"training", cfg.Episode.TrainingMode,
	)

	return e, nil
}

// Agents returns the agents in registration order.
func (e *Env) Agents() []*agent.Agent { return e.agents }

// Field returns the shared field.
func (e *Env) Field() *field.Field { return e.field }

// World returns the physics world.
func (e *Env) World() *physics.World { return e.world }

// Scene returns the scene graph.
func (e *Env) Scene() *scene.Scene { return e.scene }

// Probe returns the probe collider of agent i.
func (e *Env) Probe(i int) physics.Handle { return e.probes[i] }

// Episode returns the number of the current (or last) episode, from 1.
func (e *Env) Episode() int { return e.episode }

// Steps returns the ticks elapsed in the current episode.
func (e *Env) Steps() int { return e.steps }

// Active reports whether an episode is running.
func (e *Env) Active() bool { return e.active }

// Reset begins a new episode for every agent and returns their first
// observations. The field owner goes first so the others place against the
// refilled field. An agent left at an unsafe pose is logged and kept.
func (e *Env) Reset() []agent.Observation {
	if e.active {
		e.EndEpisode()
	}

	e.episode++
	e.steps = 0
	e.active = true

	// Outside training nobody owns the reset; refill an exhausted field here
	if !e.cfg.Episode.TrainingMode && !e.field.AnyResource() {
		e.field.ResetField()
	}

	obs := make([]agent.Observation, len(e.agents))
	for i, a := range e.agents {
		if err := a.Begin(); err != nil {
			slog.Warn("unsafe start pose", "episode", e.episode, "agent", i, "error", err)
			if e.collector != nil {
				e.collector.RecordPlacementFailure()
			}
		}
		obs[i] = a.Observe()
	}
	return obs
}

// EndEpisode finishes the running episode and flushes its statistics.
// It returns the zero EpisodeStats if no episode is running or no collector
// is configured.
func (e *Env) EndEpisode() telemetry.EpisodeStats {
	if !e.active {
		return telemetry.EpisodeStats{}
	}
	e.active = false

	rewards := make([]float64, len(e.agents))
	nectar := make([]float64, len(e.agents))
	for i, a := range e.agents {
		rewards[i] = a.Reward()
		nectar[i] = a.ResourceObtained()
		a.End()
	}

	if e.collector == nil {
		return telemetry.EpisodeStats{}
	}

	stats := e.collector.Flush(e.episode, e.steps, rewards, nectar, e.field.TotalQuantity())
	stats.LogStats()
	if e.bookmarks != nil {
		for _, b := range e.bookmarks.Check(stats) {
			b.LogBookmark()
			e.saveSnapshot(b)
		}
	}
	if err := e.output.WriteEpisode(stats); err != nil {
		slog.Error("failed to write episode", "error", err)
	}
	if e.perf != nil {
		perf := e.perf.Stats()
		slog.Debug("episode perf", "episode", e.episode, "perf", perf)
		if err := e.output.WritePerf(perf, e.episode); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
	return stats
}

// Step advances every agent by one tick. actions must hold one entry per
// agent; missing entries are treated as idle.
//
// Order within a tick: physics integration, contact delivery in
// registration order, actions, the nearest-flower staleness check, and
// finally observations.
func (e *Env) Step(actions []agent.Action) StepResult {
	n := len(e.agents)
	res := StepResult{
		Observations: make([]agent.Observation, n),
		Rewards:      make([]float64, n),
		Feeds:        make([]agent.FeedResult, n),
	}

	e.phase(telemetry.PhasePhysics)
	events := e.world.Step(e.cfg.Physics.DT)

	e.phase(telemetry.PhaseContacts)
	e.deliver(events, res.Feeds)

	e.phase(telemetry.PhaseActions)
	for i, a := range e.agents {
		var act agent.Action
		if i < len(actions) {
			act = actions[i]
		}
		a.ApplyAction(act)
	}

	e.phase(telemetry.PhaseObserve)
	for i, a := range e.agents {
		a.CheckNearest()
		res.Observations[i] = a.Observe()
		res.Rewards[i] = a.TakeStepReward()
	}

	e.steps++
	if limit := e.cfg.Episode.MaxSteps; limit > 0 && e.steps >= limit {
		res.Done = true
	}
	return res
}

// deliver routes physics events to their agents in registration order.
// Events from the world are already ordered by body registration.
func (e *Env) deliver(events physics.Events, feeds []agent.FeedResult) {
	for _, ev := range events.Collisions {
		i, ok := e.byBody[ev.Body]
		if !ok {
			continue
		}
		e.agents[i].OnCollision(ev)
		if ev.Tag == components.TagBoundary && e.collector != nil {
			e.collector.RecordBoundaryHit()
		}
	}

	for _, ev := range events.Triggers {
		i, ok := e.byBody[ev.Body]
		if !ok {
			continue
		}
		fr := e.agents[i].OnTrigger(ev)
		if fr.Node == nil {
			continue
		}
		feeds[i].Node = fr.Node
		feeds[i].Taken += fr.Taken
		feeds[i].Reward += fr.Reward
		feeds[i].Depleted = feeds[i].Depleted || fr.Depleted
		if e.collector != nil {
			e.collector.RecordFeed(fr.Depleted)
		}
	}
}

// Snapshot captures the agents and flowers as they are now.
func (e *Env) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version: telemetry.SnapshotVersion,
		Seed:    e.seed,
		Episode: e.episode,
		Steps:   e.steps,
	}
	if e.collector != nil {
		snap.RunID = e.collector.RunID()
	}
	for i, a := range e.agents {
		rot := a.Rotation()
		snap.Agents = append(snap.Agents, telemetry.AgentState{
			Index:    i,
			Position: vec3(a.Position()),
			Pitch:    rot.Pitch,
			Yaw:      rot.Yaw,
			Reward:   a.Reward(),
			Nectar:   a.ResourceObtained(),
			Frozen:   a.Frozen(),
		})
	}
	for _, n := range e.field.Nodes() {
		snap.Flowers = append(snap.Flowers, telemetry.FlowerState{
			Name:     n.Name(),
			Position: vec3(n.Position()),
			Quantity: n.Quantity(),
		})
	}
	return snap
}

// saveSnapshot writes a bookmarked snapshot under the output directory.
func (e *Env) saveSnapshot(b telemetry.Bookmark) {
	if e.output == nil {
		return
	}
	snap := e.Snapshot()
	snap.Bookmark = &b
	path, err := telemetry.SaveSnapshot(snap, filepath.Join(e.output.Dir(), "snapshots"))
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path)
}

func vec3(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func (e *Env) phase(name string) {
	if e.perf != nil {
		e.perf.StartPhase(name)
	}
}

// Run plays episodes to completion, one policy per agent. A non-positive
// episodes runs until ctx is cancelled. Cancellation is checked between
// ticks; the running episode is ended before returning.
func (e *Env) Run(ctx context.Context, policies []policy.Policy, episodes int) error {
	if len(policies) != len(e.agents) {
		return fmt.Errorf("%w: %d policies for %d agents", ErrPolicyCount, len(policies), len(e.agents))
	}

	actions := make([]agent.Action, len(e.agents))
	for ep := 0; episodes <= 0 || ep < episodes; ep++ {
		obs := e.Reset()
		for {
			if err := ctx.Err(); err != nil {
				e.EndEpisode()
				return err
			}

			if e.perf != nil {
				e.perf.StartTick()
			}
			e.phase(telemetry.PhasePolicy)
			for i, p := range policies {
				actions[i] = p.Act(obs[i])
			}
			res := e.Step(actions)
			if e.perf != nil {
				e.perf.EndTick()
			}

			obs = res.Observations
			if res.Done || !e.field.AnyResource() {
				break
			}
		}
		e.EndEpisode()
	}
	return nil
}
