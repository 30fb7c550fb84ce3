package ui

import (
	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is what the controls panel shows.
type ControlsState struct {
	Training bool // Freezing is not offered while training
	Frozen   bool
	Paused   bool
	Speed    int
}

// ControlsInput is what the user asked for this frame.
type ControlsInput struct {
	ToggleFreeze bool
	TogglePause  bool
	ResetEpisode bool
	ResetCamera  bool
	Speed        int
}

// FreezeLabel returns the freeze button caption.
func FreezeLabel(frozen bool) string {
	if frozen {
		return "Unfreeze"
	}
	return "Freeze"
}

// PauseLabel returns the pause button caption.
func PauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}

// ControlsPanel renders the right-side viewer controls.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	maxSpeed int
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32, maxSpeed int) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		maxSpeed: maxSpeed,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Draw renders the panel and returns the clicks made on it.
func (c *ControlsPanel) Draw(st ControlsState) ControlsInput {
	r := c.renderer
	padding := float32(r.Theme.Padding)
	in := ControlsInput{Speed: st.Speed}

	buttons := 3
	if !st.Training {
		buttons++
	}
	height := int32(buttons)*36 + 60 + r.Theme.Padding*2
	r.DrawPanel(c.x, c.y, c.width, height)

	x := float32(c.x) + padding
	y := float32(c.y) + padding
	w := float32(c.width) - padding*2

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	if !st.Training {
		if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 30}, FreezeLabel(st.Frozen)) {
			in.ToggleFreeze = true
		}
		y += 36
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 30}, PauseLabel(st.Paused)) {
		in.TogglePause = true
	}
	y += 36
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 30}, "Reset episode") {
		in.ResetEpisode = true
	}
	y += 36
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 30}, "Reset camera") {
		in.ResetCamera = true
	}
	y += 40

	v := gui.SliderBar(rl.Rectangle{X: x + 40, Y: y, Width: w - 80, Height: 16}, "Speed", "", float32(st.Speed), 1, float32(c.maxSpeed))
	in.Speed = ClampSpeed(int(v+0.5), c.maxSpeed)

	return in
}

// ClampSpeed limits a steps-per-frame multiplier to [1, max].
func ClampSpeed(s, max int) int {
	if s < 1 {
		return 1
	}
	if max > 0 && s > max {
		return max
	}
	return s
}
