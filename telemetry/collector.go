package telemetry

import "gonum.org/v1/gonum/floats"

// Collector accumulates events within an episode and produces EpisodeStats.
// It also keeps the mean rewards of the most recent episodes for a rolling
// window average.
type Collector struct {
	runID  string
	dt     float64
	window int

	// Event counters for the current episode
	feeds             int
	depletions        int
	boundaryHits      int
	placementFailures int

	recent []float64 // Ring of recent episode reward means
	next   int
}

// NewCollector creates a new stats collector.
// window: how many episodes the rolling reward mean covers
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(runID string, window int, dt float64) *Collector {
	if window < 1 {
		window = 1
	}
	return &Collector{
		runID:  runID,
		dt:     dt,
		window: window,
		recent: make([]float64, 0, window),
	}
}

// RunID returns the identifier stamped on every record.
func (c *Collector) RunID() string { return c.runID }

// RecordFeed records an accepted bite. depleted marks the bite that emptied a flower.
func (c *Collector) RecordFeed(depleted bool) {
	c.feeds++
	if depleted {
		c.depletions++
	}
}

// RecordBoundaryHit records an agent touching the arena boundary.
func (c *Collector) RecordBoundaryHit() {
	c.boundaryHits++
}

// RecordPlacementFailure records an agent that started an episode at an unsafe pose.
func (c *Collector) RecordPlacementFailure() {
	c.placementFailures++
}

// Flush produces the EpisodeStats for a finished episode and resets
// counters for the next one.
// - rewards, nectar: per-agent episode reward and nectar obtained
// - remaining: nectar left in the field
func (c *Collector) Flush(episode, steps int, rewards, nectar []float64, remaining float64) EpisodeStats {
	rMean, rP10, rP50, rP90 := ComputeStats(rewards)

	var nMean, nTotal float64
	if len(nectar) > 0 {
		nTotal = floats.Sum(nectar)
		nMean = nTotal / float64(len(nectar))
	}

	c.push(rMean)

	stats := EpisodeStats{
		RunID:      c.runID,
		Episode:    episode,
		Steps:      steps,
		SimTimeSec: float64(steps) * c.dt,
		Agents:     len(rewards),

		RewardMean: rMean,
		RewardP10:  rP10,
		RewardP50:  rP50,
		RewardP90:  rP90,

		NectarMean:      nMean,
		NectarTotal:     nTotal,
		NectarRemaining: remaining,

		Feeds:             c.feeds,
		Depletions:        c.depletions,
		BoundaryHits:      c.boundaryHits,
		PlacementFailures: c.placementFailures,

		WindowRewardMean: floats.Sum(c.recent) / float64(len(c.recent)),
	}

	c.feeds = 0
	c.depletions = 0
	c.boundaryHits = 0
	c.placementFailures = 0

	return stats
}

func (c *Collector) push(v float64) {
	if len(c.recent) < c.window {
		c.recent = append(c.recent, v)
		return
	}
	c.recent[c.next] = v
	c.next = (c.next + 1) % c.window
}
