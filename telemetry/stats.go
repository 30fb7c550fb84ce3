package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// EpisodeStats holds aggregated statistics for one finished episode.
type EpisodeStats struct {
	RunID      string  `csv:"run_id"`
	Episode    int     `csv:"episode"`
	Steps      int     `csv:"steps"`
	SimTimeSec float64 `csv:"sim_time"`
	Agents     int     `csv:"agents"`

	// Reward distribution across agents
	RewardMean float64 `csv:"reward_mean"`
	RewardP10  float64 `csv:"reward_p10"`
	RewardP50  float64 `csv:"reward_p50"`
	RewardP90  float64 `csv:"reward_p90"`

	// Nectar
	NectarMean      float64 `csv:"nectar_mean"`
	NectarTotal     float64 `csv:"nectar_total"`
	NectarRemaining float64 `csv:"nectar_remaining"` // Left in the field at episode end

	// Events during the episode
	Feeds             int `csv:"feeds"`
	Depletions        int `csv:"depletions"`
	BoundaryHits      int `csv:"boundary_hits"`
	PlacementFailures int `csv:"placement_failures"`

	// Mean reward over the last stats window of episodes, this one included
	WindowRewardMean float64 `csv:"window_reward_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean and percentiles of values.
func ComputeStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = floats.Sum(values) / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s EpisodeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("episode", s.Episode),
		slog.Int("steps", s.Steps),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("reward_mean", s.RewardMean),
		slog.Float64("reward_p50", s.RewardP50),
		slog.Float64("nectar_total", s.NectarTotal),
		slog.Float64("nectar_remaining", s.NectarRemaining),
		slog.Int("feeds", s.Feeds),
		slog.Int("depletions", s.Depletions),
		slog.Int("boundary_hits", s.BoundaryHits),
		slog.Int("placement_failures", s.PlacementFailures),
		slog.Float64("window_reward_mean", s.WindowRewardMean),
	)
}

// LogStats logs the episode stats using slog.
func (s EpisodeStats) LogStats() {
	slog.Info("episode",
		"episode", s.Episode,
		"steps", s.Steps,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"reward_mean", s.RewardMean,
		"reward_p10", s.RewardP10,
		"reward_p50", s.RewardP50,
		"reward_p90", s.RewardP90,
		"nectar_mean", s.NectarMean,
		"nectar_total", s.NectarTotal,
		"nectar_remaining", s.NectarRemaining,
		"feeds", s.Feeds,
		"depletions", s.Depletions,
		"boundary_hits", s.BoundaryHits,
		"placement_failures", s.PlacementFailures,
		"window_reward_mean", s.WindowRewardMean,
	)
}
