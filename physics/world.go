// Package physics provides the rigid-body and collider world the agents move in.
// It supports sphere colliders, one cylindrical arena shell,
// force integration with linear drag, a sphere overlap query, and trigger and
// collision events filtered by tag.
package physics

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/forage/components"
	"github.com/pthm-cable/forage/geom"
)

// Handle identifies a body or collider in the world.
type Handle = ecs.Entity

// TriggerEvent reports a body collider overlapping a trigger region.
// It is emitted on every step while the overlap persists; Enter marks the first.
type TriggerEvent struct {
	Body    Handle // Owning body
	Sensor  Handle // Body-side collider that overlaps (the body itself or a mounted collider)
	Trigger Handle
	Tag     components.Tag
	Enter   bool
}

// CollisionEvent reports a body starting to touch a solid region.
type CollisionEvent struct {
	Body   Handle
	Other  Handle
	Tag    components.Tag
	Normal r3.Vec // Points from the other region towards the body
}

// Events collects everything a step produced, ordered by body registration.
type Events struct {
	Triggers   []TriggerEvent
	Collisions []CollisionEvent
}

type pairKey struct {
	a, b Handle
}

// World owns bodies and colliders.
type World struct {
	world *ecs.World

	bodyMapper   *ecs.Map5[components.Transform, components.Velocity, components.Force, components.Body, components.Collider]
	staticMapper *ecs.Map2[components.Transform, components.Collider]
	mountMapper  *ecs.Map3[components.Transform, components.Collider, components.Mount]

	colliderFilter *ecs.Filter2[components.Transform, components.Collider]

	transformMap *ecs.Map[components.Transform]
	velocityMap  *ecs.Map[components.Velocity]
	forceMap     *ecs.Map[components.Force]
	bodyMap      *ecs.Map[components.Body]
	colliderMap  *ecs.Map[components.Collider]
	mountMap     *ecs.Map[components.Mount]

	// Registration order, for deterministic event delivery
	bodies    []Handle
	colliders []Handle
	mounted   map[Handle][]Handle // body -> mounted colliders

	drag        float64
	angularDrag float64

	triggerContacts   map[pairKey]bool
	collisionContacts map[pairKey]bool
}

// NewWorld creates an empty world with the given damping coefficients (per second).
func NewWorld(drag, angularDrag float64) *World {
	world := ecs.NewWorld()
	return &World{
		world:             world,
		bodyMapper:        ecs.NewMap5[components.Transform, components.Velocity, components.Force, components.Body, components.Collider](world),
		staticMapper:      ecs.NewMap2[components.Transform, components.Collider](world),
		mountMapper:       ecs.NewMap3[components.Transform, components.Collider, components.Mount](world),
		colliderFilter:    ecs.NewFilter2[components.Transform, components.Collider](world),
		transformMap:      ecs.NewMap[components.Transform](world),
		velocityMap:       ecs.NewMap[components.Velocity](world),
		forceMap:          ecs.NewMap[components.Force](world),
		bodyMap:           ecs.NewMap[components.Body](world),
		colliderMap:       ecs.NewMap[components.Collider](world),
		mountMap:          ecs.NewMap[components.Mount](world),
		mounted:           make(map[Handle][]Handle),
		drag:              drag,
		angularDrag:       angularDrag,
		triggerContacts:   make(map[pairKey]bool),
		collisionContacts: make(map[pairKey]bool),
	}
}

// AddBody creates a dynamic body with a solid sphere collider.
func (w *World) AddBody(pos r3.Vec, rot geom.Euler, mass, radius float64, tag components.Tag) Handle {
	tr := components.Transform{Pos: pos, Rot: rot}
	vel := components.Velocity{}
	force := components.Force{}
	body := components.Body{Mass: mass, Radius: radius}
	col := components.Collider{Shape: components.ShapeSphere, Radius: radius, Tag: tag, Enabled: true}
	h := w.bodyMapper.NewEntity(&tr, &vel, &force, &body, &col)
	w.bodies = append(w.bodies, h)
	return h
}

// AddSphere creates a static sphere collider. If anchor is non-nil the
// collider follows it and pos is ignored.
func (w *World) AddSphere(pos r3.Vec, radius float64, trigger bool, tag components.Tag, anchor components.Anchor) Handle {
	tr := components.Transform{Pos: pos}
	col := components.Collider{
		Shape:   components.ShapeSphere,
		Radius:  radius,
		Trigger: trigger,
		Tag:     tag,
		Enabled: true,
		Anchor:  anchor,
	}
	h := w.staticMapper.NewEntity(&tr, &col)
	w.colliders = append(w.colliders, h)
	return h
}

// AddShell creates the arena boundary: a cylinder of the given radius and
// height standing on y=0 at center.
func (w *World) AddShell(center r3.Vec, radius, height float64, tag components.Tag) Handle {
	tr := components.Transform{Pos: center}
	col := components.Collider{
		Shape:   components.ShapeShell,
		Radius:  radius,
		Height:  height,
		Tag:     tag,
		Enabled: true,
	}
	h := w.staticMapper.NewEntity(&tr, &col)
	w.colliders = append(w.colliders, h)
	return h
}

// Mount attaches a sensor sphere to a body at a body-local offset. Mounted
// colliders never block movement; they only produce trigger events.
func (w *World) Mount(body Handle, offset r3.Vec, radius float64, tag components.Tag) Handle {
	tr := components.Transform{}
	col := components.Collider{Shape: components.ShapeSphere, Radius: radius, Tag: tag, Enabled: true}
	m := components.Mount{Body: body, Offset: offset}
	h := w.mountMapper.NewEntity(&tr, &col, &m)
	w.mounted[body] = append(w.mounted[body], h)
	w.syncMount(h)
	return h
}

// Position returns the world position of a body or collider.
func (w *World) Position(h Handle) r3.Vec {
	return w.colliderCenter(h)
}

// Rotation returns the orientation of a body.
func (w *World) Rotation(h Handle) geom.Euler {
	return w.transformMap.Get(h).Rot
}

// SetPose teleports a body and its mounted colliders.
func (w *World) SetPose(h Handle, pos r3.Vec, rot geom.Euler) {
	tr := w.transformMap.Get(h)
	tr.Pos = pos
	tr.Rot = rot
	w.syncMounts(h)
}

// SetRotation changes a body's orientation in place.
func (w *World) SetRotation(h Handle, rot geom.Euler) {
	w.transformMap.Get(h).Rot = rot
	w.syncMounts(h)
}

// AddForce accumulates a force applied on the next step.
func (w *World) AddForce(h Handle, f r3.Vec) {
	force := w.forceMap.Get(h)
	force.Linear = r3.Add(force.Linear, f)
}

// Velocity returns a body's linear velocity.
func (w *World) Velocity(h Handle) r3.Vec {
	return w.velocityMap.Get(h).Linear
}

// ZeroVelocity clears linear and angular velocity and pending forces.
func (w *World) ZeroVelocity(h Handle) {
	*w.velocityMap.Get(h) = components.Velocity{}
	*w.forceMap.Get(h) = components.Force{}
}

// Sleep stops integrating a body until Wake is called.
func (w *World) Sleep(h Handle) {
	w.bodyMap.Get(h).Sleeping = true
	w.ZeroVelocity(h)
}

// Wake resumes integration of a sleeping body.
func (w *World) Wake(h Handle) {
	w.bodyMap.Get(h).Sleeping = false
}

// Sleeping reports whether a body is asleep.
func (w *World) Sleeping(h Handle) bool {
	return w.bodyMap.Get(h).Sleeping
}

// SetEnabled enables or disables a collider. Disabled colliders produce no
// events and are invisible to overlap queries.
func (w *World) SetEnabled(h Handle, enabled bool) {
	w.colliderMap.Get(h).Enabled = enabled
}

// Enabled reports whether a collider is enabled.
func (w *World) Enabled(h Handle) bool {
	return w.colliderMap.Get(h).Enabled
}

// Collider returns a copy of a collider's description.
func (w *World) Collider(h Handle) components.Collider {
	return *w.colliderMap.Get(h)
}

// OverlapSphere returns every enabled collider (bodies included) that
// overlaps the sphere at point.
func (w *World) OverlapSphere(point r3.Vec, radius float64) []Handle {
	var hits []Handle
	query := w.colliderFilter.Query()
	for query.Next() {
		_, col := query.Get()
		if !col.Enabled {
			continue
		}
		if w.overlapsSphere(query.Entity(), col, point, radius) {
			hits = append(hits, query.Entity())
		}
	}
	return hits
}

// Owner returns the body a mounted collider belongs to, or h itself.
func (w *World) Owner(h Handle) Handle {
	if w.mountMap.Has(h) {
		return w.mountMap.Get(h).Body
	}
	return h
}

// ClosestPoint returns the point of a collider's region nearest to p.
func (w *World) ClosestPoint(h Handle, p r3.Vec) r3.Vec {
	col := w.colliderMap.Get(h)
	center := w.colliderCenter(h)
	if col.Shape == components.ShapeShell {
		return p
	}
	return geom.ClosestPointOnSphere(center, col.Radius, p)
}

// Step integrates every awake body by dt and returns the resulting events.
func (w *World) Step(dt float64) Events {
	var ev Events

	linDamp := math.Max(0, 1-w.drag*dt)
	angDamp := math.Max(0, 1-w.angularDrag*dt)

	for _, h := range w.bodies {
		tr, vel, force, body, _ := w.bodyMapper.Get(h)
		if body.Sleeping {
			force.Linear = r3.Vec{}
			continue
		}
		accel := r3.Scale(1/body.Mass, force.Linear)
		vel.Linear = r3.Scale(linDamp, r3.Add(vel.Linear, r3.Scale(dt, accel)))
		vel.Angular = r3.Scale(angDamp, vel.Angular)
		tr.Pos = r3.Add(tr.Pos, r3.Scale(dt, vel.Linear))
		tr.Rot.Pitch += vel.Angular.X * dt
		tr.Rot.Yaw += vel.Angular.Y * dt
		tr.Rot.Roll += vel.Angular.Z * dt
		force.Linear = r3.Vec{}

		w.resolveSolids(h, &ev)
		w.syncMounts(h)
	}

	for _, h := range w.bodies {
		w.collectTriggers(h, &ev)
	}

	return ev
}

// resolveSolids pushes a body out of solid colliders and records new contacts.
func (w *World) resolveSolids(h Handle, ev *Events) {
	tr, vel, _, body, self := w.bodyMapper.Get(h)
	if !self.Enabled {
		return
	}

	for _, c := range w.colliders {
		col := w.colliderMap.Get(c)
		key := pairKey{h, c}
		if col.Trigger || !col.Enabled {
			delete(w.collisionContacts, key)
			continue
		}

		touching, normal := w.penetrate(tr, body.Radius, c, col)
		if !touching {
			delete(w.collisionContacts, key)
			continue
		}

		// Remove velocity into the surface
		if vn := r3.Dot(vel.Linear, normal); vn < 0 {
			vel.Linear = r3.Sub(vel.Linear, r3.Scale(vn, normal))
		}

		if !w.collisionContacts[key] {
			w.collisionContacts[key] = true
			ev.Collisions = append(ev.Collisions, CollisionEvent{Body: h, Other: c, Tag: col.Tag, Normal: normal})
		}
	}
}

// penetrate resolves overlap between a body sphere and a solid collider,
// moving the body. Returns whether they touch and the contact normal.
func (w *World) penetrate(tr *components.Transform, radius float64, c Handle, col *components.Collider) (bool, r3.Vec) {
	center := w.colliderCenter(c)

	switch col.Shape {
	case components.ShapeShell:
		var normal r3.Vec
		touching := false

		dx := tr.Pos.X - center.X
		dz := tr.Pos.Z - center.Z
		horiz := math.Hypot(dx, dz)
		limit := col.Radius - radius
		if horiz > limit && horiz > 0 {
			scale := limit / horiz
			tr.Pos.X = center.X + dx*scale
			tr.Pos.Z = center.Z + dz*scale
			normal = r3.Add(normal, r3.Vec{X: -dx / horiz, Z: -dz / horiz})
			touching = true
		}
		if floor := center.Y + radius; tr.Pos.Y < floor {
			tr.Pos.Y = floor
			normal = r3.Add(normal, geom.Up)
			touching = true
		}
		if ceiling := center.Y + col.Height - radius; tr.Pos.Y > ceiling {
			tr.Pos.Y = ceiling
			normal = r3.Sub(normal, geom.Up)
			touching = true
		}
		return touching, geom.SafeUnit(normal)

	default:
		d := r3.Sub(tr.Pos, center)
		dist := r3.Norm(d)
		minDist := radius + col.Radius
		if dist >= minDist {
			return false, r3.Vec{}
		}
		normal := geom.Up
		if dist > 0 {
			normal = r3.Scale(1/dist, d)
		}
		tr.Pos = r3.Add(center, r3.Scale(minDist, normal))
		return true, normal
	}
}

// collectTriggers records overlaps between a body's colliders and trigger regions.
func (w *World) collectTriggers(h Handle, ev *Events) {
	sensors := append([]Handle{h}, w.mounted[h]...)

	for _, c := range w.colliders {
		col := w.colliderMap.Get(c)
		key := pairKey{h, c}
		if !col.Trigger || !col.Enabled {
			delete(w.triggerContacts, key)
			continue
		}

		var hit Handle
		found := false
		for _, s := range sensors {
			sc := w.colliderMap.Get(s)
			if !sc.Enabled {
				continue
			}
			if w.overlapsSphere(c, col, w.colliderCenter(s), sc.Radius) {
				hit = s
				found = true
				break
			}
		}
		if !found {
			delete(w.triggerContacts, key)
			continue
		}

		enter := !w.triggerContacts[key]
		w.triggerContacts[key] = true
		ev.Triggers = append(ev.Triggers, TriggerEvent{Body: h, Sensor: hit, Trigger: c, Tag: col.Tag, Enter: enter})
	}
}

// overlapsSphere tests a collider against a query sphere.
func (w *World) overlapsSphere(h Handle, col *components.Collider, point r3.Vec, radius float64) bool {
	center := w.colliderCenter(h)
	if col.Shape == components.ShapeShell {
		horiz := math.Hypot(point.X-center.X, point.Z-center.Z)
		return horiz+radius > col.Radius ||
			point.Y-radius < center.Y ||
			point.Y+radius > center.Y+col.Height
	}
	return geom.Distance(center, point) < col.Radius+radius
}

// colliderCenter resolves where a collider currently is.
func (w *World) colliderCenter(h Handle) r3.Vec {
	if col := w.colliderMap.Get(h); col.Anchor != nil {
		return col.Anchor.WorldPosition()
	}
	return w.transformMap.Get(h).Pos
}

// syncMounts moves a body's mounted colliders to match its pose.
func (w *World) syncMounts(body Handle) {
	for _, m := range w.mounted[body] {
		w.syncMount(m)
	}
}

func (w *World) syncMount(h Handle) {
	m := w.mountMap.Get(h)
	bodyTr := w.transformMap.Get(m.Body)
	offset := bodyTr.Rot.Rotation().Rotate(m.Offset)
	w.transformMap.Get(h).Pos = r3.Add(bodyTr.Pos, offset)
}
