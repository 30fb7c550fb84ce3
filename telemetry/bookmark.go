package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkRewardBreakthrough BookmarkType = "reward_breakthrough"
	BookmarkFieldCleared       BookmarkType = "field_cleared"
	BookmarkRewardCollapse     BookmarkType = "reward_collapse"
	BookmarkStableReward       BookmarkType = "stable_reward"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType
	Episode     int
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"episode", b.Episode,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting episodes in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []EpisodeStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentRewardPeak   float64 // peak mean reward in recent history
	clearedOnce        bool
	stableEpisodeCount int // consecutive episodes with steady reward
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable reward detection
	}
	return &BookmarkDetector{
		history:     make([]EpisodeStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes a finished episode and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats EpisodeStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Reward breakthrough: mean reward > 2x rolling average
		if b := bd.checkRewardBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Reward collapse: dropped >50% from recent peak
		if b := bd.checkRewardCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable reward: low variance over 5+ episodes
		if b := bd.checkStableReward(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Field cleared: the agents emptied every flower, first time only
	if !bd.clearedOnce && stats.NectarTotal > 0 && stats.NectarRemaining <= 0 {
		bd.clearedOnce = true
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkFieldCleared,
			Episode:     stats.Episode,
			Description: fmt.Sprintf("Field emptied in %d steps", stats.Steps),
		})
	}

	bd.addToHistory(stats)

	if stats.RewardMean > bd.recentRewardPeak {
		bd.recentRewardPeak = stats.RewardMean
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats EpisodeStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []EpisodeStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkRewardBreakthrough(stats EpisodeStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.RewardMean
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.RewardMean > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkRewardBreakthrough,
			Episode:     stats.Episode,
			Description: fmt.Sprintf("Mean reward %.3f is %.1fx average (%.3f)", stats.RewardMean, stats.RewardMean/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRewardCollapse(stats EpisodeStats) *Bookmark {
	if bd.recentRewardPeak <= 0 {
		return nil
	}

	drop := 1.0 - stats.RewardMean/bd.recentRewardPeak
	if drop > 0.50 {
		// Reset peak after collapse
		oldPeak := bd.recentRewardPeak
		bd.recentRewardPeak = stats.RewardMean

		return &Bookmark{
			Type:        BookmarkRewardCollapse,
			Episode:     stats.Episode,
			Description: fmt.Sprintf("Mean reward fell %.0f%% from peak %.3f to %.3f", drop*100, oldPeak, stats.RewardMean),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableReward(stats EpisodeStats) *Bookmark {
	if stats.RewardMean <= 0 {
		bd.stableEpisodeCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	var sum float64
	recent := history[len(history)-4:]
	for _, h := range recent {
		sum += h.RewardMean
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.RewardMean - mean
		variance += d * d
	}
	variance /= 4

	cv2 := 0.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	}

	if mean > 0 && cv2 < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.stableEpisodeCount++
	} else {
		bd.stableEpisodeCount = 0
	}

	if bd.stableEpisodeCount == 5 { // trigger exactly once at 5 episodes
		return &Bookmark{
			Type:        BookmarkStableReward,
			Episode:     stats.Episode,
			Description: fmt.Sprintf("Mean reward steady around %.3f over 5+ episodes", mean),
		}
	}
	return nil
}
