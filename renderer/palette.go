// Package renderer draws the field and its agents with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/forage/field"
)

// Flower colours.
var (
	FullColor  = rl.Color{R: 255, G: 0, B: 77, A: 255}
	EmptyColor = rl.Color{R: 128, G: 0, B: 255, A: 255}
)

// StateColor returns the flower colour for a node state.
func StateColor(s field.State) rl.Color {
	if s == field.StateEmpty {
		return EmptyColor
	}
	return FullColor
}

// Palette tracks flower colours. It implements field.Visual.
type Palette struct {
	colors map[*field.Node]rl.Color
}

// NewPalette creates an empty palette.
func NewPalette() *Palette {
	return &Palette{colors: make(map[*field.Node]rl.Color)}
}

// NodeStateChanged records the colour for n's new state.
func (p *Palette) NodeStateChanged(n *field.Node, s field.State) {
	p.colors[n] = StateColor(s)
}

// Color returns n's current colour. Nodes never reported are full.
func (p *Palette) Color(n *field.Node) rl.Color {
	if c, ok := p.colors[n]; ok {
		return c
	}
	return FullColor
}
