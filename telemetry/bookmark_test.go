package telemetry

import "testing"

func hasBookmark(bms []Bookmark, t BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == t {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_RewardBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 1; i <= 5; i++ {
		bd.Check(EpisodeStats{Episode: i, RewardMean: 1.0})
	}

	bms := bd.Check(EpisodeStats{Episode: 6, RewardMean: 3.0})
	if !hasBookmark(bms, BookmarkRewardBreakthrough) {
		t.Error("expected reward_breakthrough bookmark")
	}
}

func TestBookmarkDetector_RewardCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 1; i <= 5; i++ {
		bd.Check(EpisodeStats{Episode: i, RewardMean: 2.0})
	}

	bms := bd.Check(EpisodeStats{Episode: 6, RewardMean: 0.5})
	if !hasBookmark(bms, BookmarkRewardCollapse) {
		t.Error("expected reward_collapse bookmark")
	}

	// Peak resets after a collapse
	bms = bd.Check(EpisodeStats{Episode: 7, RewardMean: 0.5})
	if hasBookmark(bms, BookmarkRewardCollapse) {
		t.Error("collapse should not repeat at the new level")
	}
}

func TestBookmarkDetector_FieldClearedOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)

	cleared := EpisodeStats{Episode: 1, NectarTotal: 24, NectarRemaining: 0, Steps: 900}
	if !hasBookmark(bd.Check(cleared), BookmarkFieldCleared) {
		t.Error("expected field_cleared bookmark")
	}
	cleared.Episode = 2
	if hasBookmark(bd.Check(cleared), BookmarkFieldCleared) {
		t.Error("field_cleared should only trigger once")
	}

	// An episode with nothing taken is not a clear
	bd = NewBookmarkDetector(10)
	if hasBookmark(bd.Check(EpisodeStats{Episode: 1}), BookmarkFieldCleared) {
		t.Error("empty episode reported as cleared")
	}
}

func TestBookmarkDetector_StableReward(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 1; i <= 15; i++ {
		bms := bd.Check(EpisodeStats{Episode: i, RewardMean: 1.0})
		if hasBookmark(bms, BookmarkStableReward) {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("stable_reward triggered %d times, want exactly 1", triggered)
	}
}
