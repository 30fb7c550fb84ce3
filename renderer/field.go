package renderer

import (
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/camera"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/env"
	"github.com/pthm-cable/forage/scene"
)

var (
	groundColor   = rl.Color{R: 34, G: 52, B: 30, A: 255}
	stemColor     = rl.Color{R: 60, G: 130, B: 60, A: 255}
	nectarColor   = rl.Color{R: 255, G: 220, B: 60, A: 255}
	boundaryColor = rl.Color{R: 90, G: 110, B: 140, A: 120}
	agentColor    = rl.Color{R: 230, G: 180, B: 40, A: 255}
	frozenColor   = rl.Color{R: 120, G: 120, B: 120, A: 255}
	probeColor    = rl.Color{R: 20, G: 20, B: 20, A: 255}
	nearestColor  = rl.Color{R: 100, G: 200, B: 255, A: 160}
)

// FieldRenderer draws the field, the arena and the agents in 3D.
type FieldRenderer struct {
	cfg     *config.Config
	palette *Palette
	sparks  *Sparks

	// ShowNearest draws a line from each agent to the flower it tracks
	ShowNearest bool
}

// NewFieldRenderer creates a renderer colouring flowers from palette.
func NewFieldRenderer(cfg *config.Config, palette *Palette, rng *rand.Rand) *FieldRenderer {
	return &FieldRenderer{
		cfg:     cfg,
		palette: palette,
		sparks:  NewSparks(500, rng),
	}
}

// Camera3D converts an orbit camera to a raylib perspective camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(c.Position()),
		Target:     vec3(c.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

// OnStep emits feedback sparks for every feed in a step result.
func (r *FieldRenderer) OnStep(res env.StepResult) {
	for _, fr := range res.Feeds {
		if fr.Node == nil {
			continue
		}
		t := SparkFeed
		if fr.Depleted {
			t = SparkDeplete
		}
		r.sparks.Emit(fr.Node.AnchorPosition(), fr.Node.OutwardDirection(), t)
	}
}

// Update advances frame-based effects.
func (r *FieldRenderer) Update() {
	r.sparks.Update()
}

// Draw renders the whole environment from cam.
func (r *FieldRenderer) Draw(e *env.Env, cam *camera.Camera) {
	rl.BeginMode3D(Camera3D(cam))
	defer rl.EndMode3D()

	fc := r.cfg.Field
	rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(float32(fc.AreaDiameter), float32(fc.AreaDiameter)), groundColor)
	rl.DrawGrid(int32(fc.AreaDiameter), 1)
	rl.DrawCylinderWires(rl.NewVector3(0, 0, 0), float32(fc.BoundaryRadius), float32(fc.BoundaryRadius),
		float32(fc.BoundaryHeight), 48, boundaryColor)

	for _, plant := range e.Field().Plants() {
		r.drawStems(plant, plant.WorldPosition())
	}

	for _, n := range e.Field().Nodes() {
		rl.DrawSphere(vec3(n.Position()), float32(fc.PetalRadius), r.palette.Color(n))
		if n.HasResource() {
			rl.DrawSphere(vec3(n.AnchorPosition()), float32(fc.NectarRadius), nectarColor)
		}
	}

	for _, a := range e.Agents() {
		r.drawAgent(a)
	}

	r.sparks.Draw()
}

// drawStems draws a line from the plant base to every flower below node.
func (r *FieldRenderer) drawStems(node *scene.Node, base r3.Vec) {
	for _, c := range node.Children() {
		if c.Kind == scene.KindResource {
			rl.DrawLine3D(vec3(base), vec3(c.WorldPosition()), stemColor)
			continue
		}
		r.drawStems(c, base)
	}
}

func (r *FieldRenderer) drawAgent(a *agent.Agent) {
	color := agentColor
	if a.Frozen() {
		color = frozenColor
	}
	pos := a.Position()
	tip := a.ProbeTip()

	rl.DrawSphere(vec3(pos), float32(r.cfg.Physics.AgentRadius), color)
	rl.DrawLine3D(vec3(pos), vec3(tip), probeColor)
	rl.DrawSphere(vec3(tip), 0.01, probeColor)

	if r.ShowNearest {
		if n := a.Nearest(); n != nil {
			rl.DrawLine3D(vec3(pos), vec3(n.AnchorPosition()), nearestColor)
		}
	}
}

func vec3(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}
