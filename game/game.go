// Package game runs the interactive viewer: a raylib window stepping an
// environment in real time, with keyboard control of the first agent.
package game

import (
	"log/slog"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/camera"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/env"
	"github.com/pthm-cable/forage/policy"
	"github.com/pthm-cable/forage/renderer"
	"github.com/pthm-cable/forage/telemetry"
	"github.com/pthm-cable/forage/ui"
)

const maxSpeed = 10

// Options configures the viewer.
type Options struct {
	Config    *config.Config
	Seed      int64
	Policy    policy.Policy // Drives every agent; nil gives the first agent the keyboard
	Collector *telemetry.Collector
	Output    *telemetry.OutputManager
	Bookmarks *telemetry.BookmarkDetector
}

// Game holds the viewer state.
type Game struct {
	cfg *config.Config
	env *env.Env

	policies []policy.Policy
	obs      []agent.Observation
	actions  []agent.Action

	camera   *camera.Camera
	palette  *renderer.Palette
	field    *renderer.FieldRenderer
	hud      *ui.HUD
	controls *ui.ControlsPanel
	perfView *ui.PerfPanel
	perf     *telemetry.PerfCollector

	paused   bool
	speed    int
	showPerf bool
	follow   bool // Camera tracks the first agent
}

// NewGame builds the environment and starts the first episode.
// The raylib window must already be open.
func NewGame(opts Options) (*Game, error) {
	cfg := opts.Config
	palette := renderer.NewPalette()
	perf := telemetry.NewPerfCollector(cfg.Screen.TargetFPS)

	e, err := env.New(cfg, env.Options{
		Seed:      opts.Seed,
		Visual:    palette,
		Collector: opts.Collector,
		Output:    opts.Output,
		Perf:      perf,
		Bookmarks: opts.Bookmarks,
	})
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:      cfg,
		env:      e,
		actions:  make([]agent.Action, len(e.Agents())),
		camera:   camera.New(r3.Add(e.Field().Origin(), r3.Vec{Y: 1}), cfg.Field.AreaDiameter*0.7),
		palette:  palette,
		field:    renderer.NewFieldRenderer(cfg, palette, rand.New(rand.NewSource(opts.Seed))),
		hud:      ui.NewHUD(),
		perfView: ui.NewPerfPanel(10, int32(cfg.Screen.Height)-150),
		perf:     perf,
		speed:    1,
	}
	g.controls = ui.NewControlsPanel(int32(cfg.Screen.Width)-190, 10, 180, maxSpeed)

	for i, a := range e.Agents() {
		switch {
		case opts.Policy != nil:
			g.policies = append(g.policies, opts.Policy)
		case i == 0:
			g.policies = append(g.policies, policy.Heuristic{Keys: keyState, Orientation: a.Rotation})
		default:
			g.policies = append(g.policies, policy.Idle)
		}
	}

	g.obs = e.Reset()
	return g, nil
}

// Env returns the environment being viewed.
func (g *Game) Env() *env.Env { return g.env }

// Update handles input and runs speed steps unless paused.
func (g *Game) Update() {
	g.handleInput()

	if !g.paused {
		for i := 0; i < g.speed; i++ {
			g.step()
		}
	}
	if agents := g.env.Agents(); g.follow && len(agents) > 0 {
		g.camera.Follow(agents[0].Position(), 0.1)
	}
	g.field.Update()
}

// step advances one tick and restarts the episode when it finishes.
func (g *Game) step() {
	g.perf.StartTick()
	g.perf.StartPhase(telemetry.PhasePolicy)
	for i, p := range g.policies {
		g.actions[i] = p.Act(g.obs[i])
	}
	res := g.env.Step(g.actions)
	g.perf.EndTick()

	g.obs = res.Observations
	g.field.OnStep(res)

	if res.Done || !g.env.Field().AnyResource() {
		slog.Info("episode finished", "episode", g.env.Episode(), "steps", g.env.Steps())
		g.obs = g.env.Reset()
	}
}

// toggleFreeze freezes or releases every agent. Agents in training mode
// cannot be frozen.
func (g *Game) toggleFreeze() {
	for _, a := range g.env.Agents() {
		if a.Training() {
			continue
		}
		if a.Frozen() {
			a.Unfreeze()
		} else {
			a.Freeze()
		}
	}
}

// Draw renders the frame.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 150, G: 190, B: 220, A: 255})

	g.field.Draw(g.env, g.camera)

	g.hud.Draw(g.hudData())
	in := g.controls.Draw(g.controlsState())
	g.applyControls(in)

	if g.showPerf {
		g.perfView.Draw(g.perf.Stats())
	}
	g.hud.DrawControls(int32(rl.GetScreenHeight()),
		"WASD/EC move | Arrows pitch/yaw | RMB orbit | Wheel zoom | Space pause | </> speed | F freeze | N nearest | T follow | P perf")

	rl.EndDrawing()
}

func (g *Game) hudData() ui.HUDData {
	d := ui.HUDData{
		Title:     "Forage",
		Episode:   g.env.Episode(),
		Steps:     g.env.Steps(),
		MaxSteps:  g.cfg.Episode.MaxSteps,
		Remaining: g.env.Field().TotalQuantity(),
		Training:  g.cfg.Episode.TrainingMode,
		Speed:     g.speed,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
	}
	for _, n := range g.env.Field().Nodes() {
		if n.HasResource() {
			d.Flowers++
		}
	}
	for _, a := range g.env.Agents() {
		line := ui.AgentLine{
			State:  a.State().String(),
			Nectar: a.ResourceObtained(),
			Reward: a.Reward(),
			Target: -1,
			Frozen: a.Frozen(),
		}
		if n := a.Nearest(); n != nil {
			line.Target = n.Quantity()
		}
		d.Agents = append(d.Agents, line)
	}
	return d
}

func (g *Game) controlsState() ui.ControlsState {
	st := ui.ControlsState{
		Training: g.cfg.Episode.TrainingMode,
		Paused:   g.paused,
		Speed:    g.speed,
	}
	if agents := g.env.Agents(); len(agents) > 0 {
		st.Frozen = agents[0].Frozen()
	}
	return st
}

func (g *Game) applyControls(in ui.ControlsInput) {
	if in.ToggleFreeze {
		g.toggleFreeze()
	}
	if in.TogglePause {
		g.paused = !g.paused
	}
	if in.ResetEpisode {
		g.obs = g.env.Reset()
	}
	if in.ResetCamera {
		g.camera.Reset()
	}
	g.speed = in.Speed
}

// Unload ends the running episode so its statistics are flushed.
func (g *Game) Unload() {
	g.env.EndEpisode()
}
