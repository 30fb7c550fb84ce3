package renderer

import (
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"
)

// SparkType selects a spark's colour and motion.
type SparkType uint8

const (
	SparkFeed    SparkType = iota // Nectar taken
	SparkDeplete                  // Flower emptied
)

// Spark is a short-lived feedback particle.
type Spark struct {
	Pos, Vel r3.Vec
	Life     int32
	MaxLife  int32
	Type     SparkType
	Size     float32
}

// Sparks manages feedback particles emitted from flowers.
type Sparks struct {
	Particles []Spark
	max       int
	rng       *rand.Rand
}

// NewSparks creates a spark system holding at most max particles.
func NewSparks(max int, rng *rand.Rand) *Sparks {
	return &Sparks{
		Particles: make([]Spark, 0, max),
		max:       max,
		rng:       rng,
	}
}

// Emit releases sparks at pos, thrown along the flower's outward axis.
func (s *Sparks) Emit(pos, outward r3.Vec, t SparkType) {
	count, life, speed, size := 1, int32(20), 0.01, float32(0.01)
	if t == SparkDeplete {
		count, life, speed, size = 12, 45, 0.03, 0.02
	}
	for i := 0; i < count && len(s.Particles) < s.max; i++ {
		jitter := r3.Vec{
			X: s.rng.Float64() - 0.5,
			Y: s.rng.Float64() - 0.5,
			Z: s.rng.Float64() - 0.5,
		}
		vel := r3.Scale(speed, r3.Add(outward, jitter))
		s.Particles = append(s.Particles, Spark{
			Pos:     pos,
			Vel:     vel,
			Life:    life,
			MaxLife: life,
			Type:    t,
			Size:    size,
		})
	}
}

// Update advances every spark one frame and drops the expired ones.
func (s *Sparks) Update() {
	alive := 0
	for i := range s.Particles {
		p := &s.Particles[i]

		p.Life--
		if p.Life <= 0 {
			continue
		}

		if p.Type == SparkDeplete {
			// Petals drift down
			p.Vel.Y -= 0.001
		}
		p.Vel = r3.Scale(0.95, p.Vel)
		p.Pos = r3.Add(p.Pos, p.Vel)

		s.Particles[alive] = s.Particles[i]
		alive++
	}
	s.Particles = s.Particles[:alive]
}

// Draw renders all sparks. Must be called inside BeginMode3D.
func (s *Sparks) Draw() {
	for i := range s.Particles {
		p := &s.Particles[i]
		lifeRatio := float32(p.Life) / float32(p.MaxLife)

		color := FullColor
		if p.Type == SparkDeplete {
			color = EmptyColor
		}
		color.A = uint8(lifeRatio * 220)

		size := p.Size * lifeRatio
		if size < 0.003 {
			size = 0.003
		}
		rl.DrawSphere(vec3(p.Pos), size, color)
	}
}
