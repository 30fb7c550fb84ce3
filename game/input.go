package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/policy"
)

// keyState polls the movement and look keys for the heuristic policy.
func keyState() policy.KeyState {
	return policy.KeyState{
		Forward:   rl.IsKeyDown(rl.KeyW),
		Back:      rl.IsKeyDown(rl.KeyS),
		Left:      rl.IsKeyDown(rl.KeyA),
		Right:     rl.IsKeyDown(rl.KeyD),
		Up:        rl.IsKeyDown(rl.KeyE),
		Down:      rl.IsKeyDown(rl.KeyC),
		PitchUp:   rl.IsKeyDown(rl.KeyUp),
		PitchDown: rl.IsKeyDown(rl.KeyDown),
		YawLeft:   rl.IsKeyDown(rl.KeyLeft),
		YawRight:  rl.IsKeyDown(rl.KeyRight),
	}
}

// handleInput processes keyboard input.
func (g *Game) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Steps per frame with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.speed > 1 {
		g.speed--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.speed < maxSpeed {
		g.speed++
	}

	if rl.IsKeyPressed(rl.KeyF) {
		g.toggleFreeze()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.obs = g.env.Reset()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.field.ShowNearest = !g.field.ShowNearest
	}
	if rl.IsKeyPressed(rl.KeyT) {
		g.follow = !g.follow
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}

	g.handleCameraInput()
}

// handleCameraInput processes orbit, pan and zoom controls. The arrow keys
// belong to the agent, so the camera is driven by the mouse.
func (g *Game) handleCameraInput() {
	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		g.camera.Orbit(float64(delta.X)*0.3, float64(delta.Y)*0.3)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		// Pan speed scales with distance for natural feel
		scale := g.camera.Distance * 0.002
		g.camera.Pan(-float64(delta.X)*scale, float64(delta.Y)*scale)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + float64(wheel)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
