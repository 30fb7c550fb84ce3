package physics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/geom"
)

type fixedAnchor struct{ pos r3.Vec }

func (a *fixedAnchor) WorldPosition() r3.Vec { return a.pos }

func TestOverlapSphere(t *testing.T) {
	w := NewWorld(0, 0)
	s := w.AddSphere(r3.Vec{X: 1}, 0.5, false, components.TagPetal, nil)

	if hits := w.OverlapSphere(r3.Vec{X: 1.4}, 0.05); len(hits) != 1 || hits[0] != s {
		t.Fatalf("expected overlap with sphere, got %v", hits)
	}
	if hits := w.OverlapSphere(r3.Vec{X: 3}, 0.05); len(hits) != 0 {
		t.Fatalf("expected no overlap, got %v", hits)
	}

	w.SetEnabled(s, false)
	if hits := w.OverlapSphere(r3.Vec{X: 1.4}, 0.05); len(hits) != 0 {
		t.Errorf("disabled collider should not overlap, got %v", hits)
	}
}

func TestOverlapSphereFollowsAnchor(t *testing.T) {
	w := NewWorld(0, 0)
	anchor := &fixedAnchor{pos: r3.Vec{Y: 2}}
	w.AddSphere(r3.Vec{}, 0.1, true, components.TagResource, anchor)

	if hits := w.OverlapSphere(r3.Vec{}, 0.05); len(hits) != 0 {
		t.Fatalf("expected anchor to override transform, got %v", hits)
	}
	anchor.pos = r3.Vec{}
	if hits := w.OverlapSphere(r3.Vec{}, 0.05); len(hits) != 1 {
		t.Fatalf("expected overlap after anchor moved, got %v", hits)
	}
}

func TestStepIntegratesForce(t *testing.T) {
	w := NewWorld(0, 0)
	b := w.AddBody(r3.Vec{Y: 2}, geom.Euler{}, 1, 0.1, components.TagAgent)

	w.AddForce(b, r3.Vec{X: 2})
	w.Step(0.5)

	// v = F/m*dt = 1, x = v*dt = 0.5
	if got := w.Velocity(b); math.Abs(got.X-1) > 1e-9 {
		t.Errorf("velocity.X = %v, want 1", got.X)
	}
	if got := w.Position(b); math.Abs(got.X-0.5) > 1e-9 {
		t.Errorf("position.X = %v, want 0.5", got.X)
	}

	// Force is consumed; momentum persists
	w.Step(0.5)
	if got := w.Position(b); math.Abs(got.X-1.0) > 1e-9 {
		t.Errorf("position.X after coasting = %v, want 1.0", got.X)
	}
}

func TestSleepingBodyDoesNotMove(t *testing.T) {
	w := NewWorld(0, 0)
	b := w.AddBody(r3.Vec{Y: 2}, geom.Euler{}, 1, 0.1, components.TagAgent)

	w.Sleep(b)
	w.AddForce(b, r3.Vec{X: 5})
	w.Step(0.1)
	if got := w.Position(b); got != (r3.Vec{Y: 2}) {
		t.Errorf("sleeping body moved to %v", got)
	}

	w.Wake(b)
	w.AddForce(b, r3.Vec{X: 5})
	w.Step(0.1)
	if got := w.Position(b); got.X <= 0 {
		t.Errorf("woken body did not move: %v", got)
	}
}

func TestTriggerEventsEnterAndStay(t *testing.T) {
	w := NewWorld(0, 0)
	b := w.AddBody(r3.Vec{Y: 1}, geom.Euler{}, 1, 0.1, components.TagAgent)
	probe := w.Mount(b, r3.Vec{Z: 0.3}, 0.01, components.TagProbe)
	trig := w.AddSphere(r3.Vec{Y: 1, Z: 0.3}, 0.02, true, components.TagResource, nil)

	ev := w.Step(0.02)
	if len(ev.Triggers) != 1 {
		t.Fatalf("expected 1 trigger event, got %d", len(ev.Triggers))
	}
	te := ev.Triggers[0]
	if te.Body != b || te.Sensor != probe || te.Trigger != trig || te.Tag != components.TagResource || !te.Enter {
		t.Errorf("unexpected trigger event %+v", te)
	}

	ev = w.Step(0.02)
	if len(ev.Triggers) != 1 || ev.Triggers[0].Enter {
		t.Errorf("expected a stay event on the second step, got %+v", ev.Triggers)
	}

	w.SetEnabled(trig, false)
	ev = w.Step(0.02)
	if len(ev.Triggers) != 0 {
		t.Errorf("disabled trigger produced events: %+v", ev.Triggers)
	}
}

func TestMountFollowsRotation(t *testing.T) {
	w := NewWorld(0, 0)
	b := w.AddBody(r3.Vec{}, geom.Euler{}, 1, 0.1, components.TagAgent)
	probe := w.Mount(b, r3.Vec{Z: 1}, 0.01, components.TagProbe)

	w.SetRotation(b, geom.Euler{Yaw: 90})
	got := w.Position(probe)
	if math.Abs(got.X-1) > 1e-9 || math.Abs(got.Z) > 1e-9 {
		t.Errorf("probe at %v, want (1,0,0)", got)
	}
	if w.Owner(probe) != b || w.Owner(b) != b {
		t.Error("Owner should resolve mounted colliders to their body")
	}
}

func TestShellCollision(t *testing.T) {
	w := NewWorld(0, 0)
	shell := w.AddShell(r3.Vec{}, 5, 4, components.TagBoundary)
	b := w.AddBody(r3.Vec{X: 4.8, Y: 2}, geom.Euler{}, 1, 0.25, components.TagAgent)

	ev := w.Step(0.02)
	if len(ev.Collisions) != 1 {
		t.Fatalf("expected 1 collision, got %d", len(ev.Collisions))
	}
	c := ev.Collisions[0]
	if c.Other != shell || c.Tag != components.TagBoundary {
		t.Errorf("unexpected collision %+v", c)
	}
	if got := w.Position(b); math.Abs(got.X-4.75) > 1e-9 {
		t.Errorf("body not pushed inside: %v", got)
	}

	// Still touching: no new collision event
	w.AddForce(b, r3.Vec{X: 10})
	ev = w.Step(0.02)
	if len(ev.Collisions) != 0 {
		t.Errorf("expected no repeat collision while in contact, got %d", len(ev.Collisions))
	}
}

func TestSolidSpherePushesBody(t *testing.T) {
	w := NewWorld(0, 0)
	w.AddSphere(r3.Vec{Y: 1}, 0.1, false, components.TagPetal, nil)
	b := w.AddBody(r3.Vec{X: 0.15, Y: 1}, geom.Euler{}, 1, 0.1, components.TagAgent)

	ev := w.Step(0.02)
	if len(ev.Collisions) != 1 || ev.Collisions[0].Tag != components.TagPetal {
		t.Fatalf("expected petal collision, got %+v", ev.Collisions)
	}
	if got := w.Position(b); math.Abs(got.X-0.2) > 1e-9 {
		t.Errorf("body at %v, want x=0.2", got)
	}
}
