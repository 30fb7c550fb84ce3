package renderer

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/field"
)

func TestStateColor(t *testing.T) {
	if StateColor(field.StateFull) != FullColor {
		t.Error("full flowers should use the full colour")
	}
	if StateColor(field.StateEmpty) != EmptyColor {
		t.Error("empty flowers should use the empty colour")
	}
}

func TestPaletteTracksState(t *testing.T) {
	p := NewPalette()
	n := &field.Node{}

	if p.Color(n) != FullColor {
		t.Error("unknown node should be drawn full")
	}
	p.NodeStateChanged(n, field.StateEmpty)
	if p.Color(n) != EmptyColor {
		t.Error("palette did not record the empty state")
	}
	p.NodeStateChanged(n, field.StateFull)
	if p.Color(n) != FullColor {
		t.Error("palette did not record the refill")
	}
}

func TestSparksExpire(t *testing.T) {
	s := NewSparks(100, rand.New(rand.NewSource(1)))
	s.Emit(r3.Vec{Y: 1}, r3.Vec{Y: 1}, SparkFeed)
	s.Emit(r3.Vec{Y: 1}, r3.Vec{Y: 1}, SparkDeplete)
	if len(s.Particles) != 13 {
		t.Fatalf("particles = %d, want 13", len(s.Particles))
	}

	for i := 0; i < 20; i++ {
		s.Update()
	}
	if len(s.Particles) != 12 {
		t.Errorf("after feed sparks expire: %d particles, want 12", len(s.Particles))
	}
	for i := 0; i < 25; i++ {
		s.Update()
	}
	if len(s.Particles) != 0 {
		t.Errorf("particles = %d, want all expired", len(s.Particles))
	}
}

func TestSparksCapped(t *testing.T) {
	s := NewSparks(5, rand.New(rand.NewSource(1)))
	s.Emit(r3.Vec{}, r3.Vec{Y: 1}, SparkDeplete)
	if len(s.Particles) != 5 {
		t.Errorf("particles = %d, want capped at 5", len(s.Particles))
	}
}
