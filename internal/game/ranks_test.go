package game

import (
	"strings"
	"testing"
)

func TestRankForScoreBoundaries(t *testing.T) {
	catalog := testCatalog(t)
	ranks := catalog.Ranks

	if got := RankForScore(catalog, -40); got.Name != ranks[0].Name {
		t.Errorf("negative score rank %q, want %q", got.Name, ranks[0].Name)
	}
	for _, r := range ranks {
		if got := RankForScore(catalog, r.MinScore); got.Name != r.Name {
			t.Errorf("score %d: rank %q, want %q", r.MinScore, got.Name, r.Name)
		}
		if got := RankForScore(catalog, r.MinScore-1); r.MinScore > 0 && got.Name == r.Name {
			t.Errorf("score %d should fall below rank %q", r.MinScore-1, r.Name)
		}
	}
	top := ranks[len(ranks)-1]
	if got := RankForScore(catalog, 99999); got.Name != top.Name {
		t.Errorf("huge score rank %q, want %q", got.Name, top.Name)
	}
}

func TestBuildSummaryCounts(t *testing.T) {
	s := NewSession(testCatalog(t), 42)
	s.Ledger.TotalScore = 620
	s.Ledger.CompletedMainObjectives = 4
	s.Ledger.CompletedMiniGames = 7
	s.MidnightCompleted = 3
	s.Unlocked["social"] = true
	s.Extras.CoupleUnlocked["mind-reader"] = true

	sum := BuildSummary(s)
	if sum.TotalScore != 620 {
		t.Errorf("score %d, want 620", sum.TotalScore)
	}
	if sum.MainObjectives != 4 || sum.MiniGames != 7 || sum.MidnightMissions != 3 {
		t.Errorf("counters %+v off", sum)
	}
	if sum.Achievements != 1 {
		t.Errorf("achievements %d, want 1", sum.Achievements)
	}
	if len(sum.CoupleAchievements) != 1 || sum.CoupleAchievements[0] != "Mind Reader" {
		t.Errorf("couple achievements %v", sum.CoupleAchievements)
	}

	card := sum.FormatSummary()
	if !strings.Contains(card, "FINAL SCORE: 620") {
		t.Errorf("card missing score:\n%s", card)
	}
	if !strings.Contains(card, sum.Rank.Name) {
		t.Errorf("card missing rank:\n%s", card)
	}
}
