package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the environment step, in step order.
const (
	PhasePolicy   = "policy"
	PhasePhysics  = "physics"
	PhaseContacts = "contacts"
	PhaseActions  = "actions"
	PhaseObserve  = "observe"
)

var phases = [...]string{PhasePolicy, PhasePhysics, PhaseContacts, PhaseActions, PhaseObserve}

const numPhases = len(phases)

// Phases returns the phase names in step order.
func Phases() []string {
	return append([]string(nil), phases[:]...)
}

func phaseIndex(name string) int {
	for i, p := range phases {
		if p == name {
			return i
		}
	}
	return -1
}

// tickSample is the timing of one tick.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times ticks and their phases over a ring of recent ticks.
// Phase names outside Phases() are not timed.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // Index of the running phase, -1 for none
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]tickSample, window), phase: -1}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.phase = -1
}

// StartPhase closes the running phase and starts timing the named one.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phaseIndex(name)
}

// EndTick closes the tick and stores it in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = -1
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// PerfStats summarises the ticks in the window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	PhaseAvg map[string]time.Duration // Mean time per phase
	PhasePct map[string]float64       // Share of the mean tick, in percent
}

// Stats summarises the current window. An empty window gives zero timings
// and empty, non-nil phase maps.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration, numPhases),
		PhasePct: make(map[string]float64, numPhases),
	}
	if p.count == 0 {
		return s
	}

	var total time.Duration
	var sums [numPhases]time.Duration
	for i, t := range p.ring[:p.count] {
		total += t.total
		if i == 0 || t.total < s.MinTickDuration {
			s.MinTickDuration = t.total
		}
		if t.total > s.MaxTickDuration {
			s.MaxTickDuration = t.total
		}
		for j, d := range t.phases {
			sums[j] += d
		}
	}

	n := time.Duration(p.count)
	s.AvgTickDuration = total / n
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	for j, name := range phases {
		if sums[j] == 0 {
			continue
		}
		avg := sums[j] / n
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = 100 * float64(avg) / float64(s.AvgTickDuration)
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	for _, name := range phases {
		if pct, ok := s.PhasePct[name]; ok {
			attrs = append(attrs, slog.Float64(name+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	Episode     int     `csv:"episode"`
	AvgTickUS   int64   `csv:"avg_tick_us"`
	MinTickUS   int64   `csv:"min_tick_us"`
	MaxTickUS   int64   `csv:"max_tick_us"`
	TicksPerSec float64 `csv:"ticks_per_sec"`
	PolicyPct   float64 `csv:"policy_pct"`
	PhysicsPct  float64 `csv:"physics_pct"`
	ContactsPct float64 `csv:"contacts_pct"`
	ActionsPct  float64 `csv:"actions_pct"`
	ObservePct  float64 `csv:"observe_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(episode int) PerfStatsCSV {
	return PerfStatsCSV{
		Episode:     episode,
		AvgTickUS:   s.AvgTickDuration.Microseconds(),
		MinTickUS:   s.MinTickDuration.Microseconds(),
		MaxTickUS:   s.MaxTickDuration.Microseconds(),
		TicksPerSec: s.TicksPerSecond,
		PolicyPct:   s.PhasePct[PhasePolicy],
		PhysicsPct:  s.PhasePct[PhasePhysics],
		ContactsPct: s.PhasePct[PhaseContacts],
		ActionsPct:  s.PhasePct[PhaseActions],
		ObservePct:  s.PhasePct[PhaseObserve],
	}
}
