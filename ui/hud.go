package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/telemetry"
)

// AgentLine is one agent's row in the HUD.
type AgentLine struct {
	State  string
	Nectar float64 // Resource obtained this episode
	Reward float64 // Cumulative episode reward
	Target float64 // Nectar left in the tracked flower, negative when none
	Frozen bool
}

// rewardLimit is the half-range of the reward bar.
const rewardLimit = 5

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Episode   int
	Steps     int
	MaxSteps  int
	Flowers   int     // Flowers still holding nectar
	Remaining float64 // Nectar left in the field
	Agents    []AgentLine
	Training  bool
	Speed     int
	FPS       int32
	Paused    bool
}

// StatusText returns the mode and run state shown under the counters.
func (d HUDData) StatusText() string {
	mode := "Inference"
	if d.Training {
		mode = "Training"
	}
	if d.Paused {
		return mode + " | PAUSED"
	}
	return mode
}

// StepText formats the step counter; a zero limit shows no bound.
func (d HUDData) StepText() string {
	if d.MaxSteps > 0 {
		return fmt.Sprintf("Step: %d/%d", d.Steps, d.MaxSteps)
	}
	return fmt.Sprintf("Step: %d", d.Steps)
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Episode: %d | %s | Speed: %dx | FPS: %d", data.Episode, data.StepText(), data.Speed, data.FPS),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Flowers with nectar: %d | Nectar left: %.2f", data.Flowers, data.Remaining),
		10, 55, 16, rl.LightGray,
	)
	rl.DrawText(data.StatusText(), 10, 75, 16, rl.Yellow)

	y := int32(100)
	for i, a := range data.Agents {
		y = h.drawAgent(10, y, 260, i, a)
	}
}

// drawAgent renders one agent's panel and returns the y below it.
func (h *HUD) drawAgent(x, y, width int32, i int, a AgentLine) int32 {
	r := h.renderer
	height := r.Theme.LineHeight*4 + 4 + r.Theme.Padding*2
	r.DrawPanel(x, y, width, height)

	inner := x + r.Theme.Padding
	w := width - r.Theme.Padding*2
	cy := y + r.Theme.Padding
	title := fmt.Sprintf("Agent %d: %s", i, a.State)
	if a.Frozen {
		title += " (frozen)"
	}
	cy = r.DrawSectionHeader(inner, cy, title)
	cy = r.DrawLabelValue(inner, cy, "Nectar", fmt.Sprintf("%.2f", a.Nectar))
	cy = r.DrawCenteredBar(inner, cy, "Reward", float32(a.Reward), rewardLimit, w)
	if a.Target >= 0 {
		r.DrawBar(inner, cy, "Target", float32(a.Target), w)
	} else {
		r.DrawLabelValue(inner, cy, "Target", "none")
	}
	return y + height + 4
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase step timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases() {
		pct := stats.PhasePct[name]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
