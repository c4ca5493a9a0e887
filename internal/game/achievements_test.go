package game

import "testing"

func TestEvaluateAchievementsThresholds(t *testing.T) {
	s := NewSession(testCatalog(t), 42)

	if ids := EvaluateAchievements(s, 1); len(ids) != 0 {
		t.Fatalf("fresh session unlocked %v", ids)
	}

	s.Ledger.CompletedSideQuests = 5
	s.Ledger.CompletedMiniGames = 5
	s.Ledger.TotalScore = 1000

	ids := EvaluateAchievements(s, 1)
	want := map[string]bool{"social": true, "competitor": true, "dedication": true}
	if len(ids) != len(want) {
		t.Fatalf("unlocked %v, want %v", ids, want)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected unlock %q", id)
		}
	}

	// Already-unlocked ids are not re-reported.
	s.Unlocked["social"] = true
	for _, id := range EvaluateAchievements(s, 1) {
		if id == "social" {
			t.Error("social reported again after unlocking")
		}
	}
}

func TestPerfectionistIsPerMission(t *testing.T) {
	s := NewSession(testCatalog(t), 42)
	m := s.Mission(1)
	m.MainCompleted = true
	for _, task := range m.Tasks {
		task.Completed = true
	}

	found := false
	for _, id := range EvaluateAchievements(s, 1) {
		if id == "perfectionist" {
			found = true
		}
	}
	if !found {
		t.Error("perfectionist should unlock when a mission is fully cleared")
	}
	for _, id := range EvaluateAchievements(s, 2) {
		if id == "perfectionist" {
			t.Error("perfectionist must only consider the named mission")
		}
	}
}

func TestSpeedsterWindow(t *testing.T) {
	def := &MissionDef{StartTime: "17:00", EndTime: "17:45"}
	cases := []struct {
		now  string
		want bool
	}{
		{"17:00", true},
		{"17:22", true},
		{"17:23", false},
		{"16:59", false},
		{"18:00", false},
		{"bogus", false},
	}
	for _, tc := range cases {
		if got := speedsterUnlocked(tc.now, def); got != tc.want {
			t.Errorf("speedsterUnlocked(%q) = %v, want %v", tc.now, got, tc.want)
		}
	}
}
