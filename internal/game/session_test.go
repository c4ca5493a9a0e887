package game

import (
	"errors"
	"testing"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return catalog
}

func TestNewSessionSampling(t *testing.T) {
	catalog := testCatalog(t)
	s := NewSession(catalog, 42)

	if len(s.Missions) != len(catalog.Missions) {
		t.Fatalf("sampled %d missions, want %d", len(s.Missions), len(catalog.Missions))
	}
	for _, m := range s.Missions {
		def := catalog.Mission(m.ID)
		if def == nil {
			t.Fatalf("mission %d not in catalog", m.ID)
		}
		if m.MainObjective == "" {
			t.Errorf("mission %d: empty main objective", m.ID)
		}

		var minis, sides, photos int
		seen := make(map[string]bool)
		for _, task := range m.Tasks {
			if seen[task.ID] {
				t.Errorf("mission %d: duplicate task id %s", m.ID, task.ID)
			}
			seen[task.ID] = true
			switch {
			case task.Photo:
				photos++
				found := false
				for _, candidate := range def.PhotoTasks {
					if candidate == task.Text {
						found = true
					}
				}
				if !found {
					t.Errorf("mission %d: photo task %q not drawn from the photo pool", m.ID, task.Text)
				}
			case task.Kind == TaskMiniGame:
				minis++
			default:
				sides++
			}
		}
		if minis != MiniGamesPerMission {
			t.Errorf("mission %d: %d mini-games, want %d", m.ID, minis, MiniGamesPerMission)
		}
		if sides < MinSideQuests || sides > MaxSideQuests {
			t.Errorf("mission %d: %d side quests, want %d-%d", m.ID, sides, MinSideQuests, MaxSideQuests)
		}
		if len(def.PhotoTasks) > 0 && photos != 1 {
			t.Errorf("mission %d: %d photo tasks, want exactly 1", m.ID, photos)
		}
	}
}

func TestSnapshotRoundtrip(t *testing.T) {
	catalog := testCatalog(t)
	s := NewSession(catalog, 42)
	s.Ledger.ApplyDelta(130)
	s.Ledger.CompletedMiniGames = 2
	s.Missions[0].Tasks[0].Completed = true
	s.Notes[2] = "she guessed the twist in ten minutes"

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := RestoreSession(data, catalog, 7)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Ledger.TotalScore != 130 {
		t.Errorf("restored score %d, want 130", restored.Ledger.TotalScore)
	}
	if !restored.Missions[0].Tasks[0].Completed {
		t.Error("task completion lost in roundtrip")
	}
	if restored.Notes[2] == "" {
		t.Error("mission note lost in roundtrip")
	}
}

func TestRestoreRejectsMalformed(t *testing.T) {
	catalog := testCatalog(t)
	if _, err := RestoreSession([]byte("{not json"), catalog, 1); err == nil {
		t.Error("malformed snapshot should fail to restore")
	}
	if _, err := RestoreSession([]byte(`{"ledger":{}}`), catalog, 1); err == nil {
		t.Error("snapshot without missions should fail to restore")
	}
}

func TestRestoreFailsActiveSecret(t *testing.T) {
	catalog := testCatalog(t)
	s := NewSession(catalog, 42)
	s.Secret = SecretState{Status: SecretActive, Task: "swap an accessory", Points: 75, SecondsRemaining: 120}

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := RestoreSession(data, catalog, 7)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Secret.Status != SecretFailed {
		t.Errorf("secret status %s after restore, want failed", restored.Secret.Status)
	}
	if restored.Secret.SecondsRemaining != 0 {
		t.Errorf("secret countdown %d after restore, want 0", restored.Secret.SecondsRemaining)
	}
}

func TestRestoreSettlesPendingPenalty(t *testing.T) {
	catalog := testCatalog(t)
	s := NewSession(catalog, 42)
	s.Ledger.ApplyDelta(100)
	s.Penalty = &PenaltyOffer{Source: "missed", MissionID: 1, Challenge: "dance", BasePenalty: 50, SecondsRemaining: 30}

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := RestoreSession(data, catalog, 7)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Penalty != nil {
		t.Error("pending penalty offer should not survive a restore")
	}
	if restored.Ledger.TotalScore != 50 {
		t.Errorf("score %d after restore, want 50 (full penalty applied)", restored.Ledger.TotalScore)
	}
	if restored.Ledger.PenaltyChallengesFailed != 1 {
		t.Errorf("failed-penalty counter %d, want 1", restored.Ledger.PenaltyChallengesFailed)
	}
}

func TestRestoreSettlesQueuedPenalties(t *testing.T) {
	catalog := testCatalog(t)
	s := NewSession(catalog, 42)
	s.Ledger.ApplyDelta(200)
	s.Penalty = &PenaltyOffer{Source: "missed", MissionID: 1, Challenge: "dance", BasePenalty: 50, SecondsRemaining: 30}
	s.PenaltyQueue = []*PenaltyOffer{
		{Source: "missed", MissionID: 2, Challenge: "serenade", BasePenalty: 50, SecondsRemaining: 30},
		{Source: "secret", Challenge: "trivia", BasePenalty: 30, SecondsRemaining: 30},
	}

	data, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := RestoreSession(data, catalog, 7)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Penalty != nil || len(restored.PenaltyQueue) != 0 {
		t.Errorf("offers survived restore: active=%v queue=%d", restored.Penalty != nil, len(restored.PenaltyQueue))
	}
	if restored.Ledger.TotalScore != 200-50-50-30 {
		t.Errorf("score %d after restore, want %d (every offer settled in full)", restored.Ledger.TotalScore, 200-50-50-30)
	}
	if restored.Ledger.PenaltyChallengesFailed != 3 {
		t.Errorf("failed-penalty counter %d, want 3", restored.Ledger.PenaltyChallengesFailed)
	}

	// The queue is empty, so a resolve attempt reports nothing pending.
	c := NewController(restored, nil, nil)
	if err := c.ResolvePenalty(false); !errors.Is(err, ErrNoPenaltyPending) {
		t.Errorf("got %v, want ErrNoPenaltyPending", err)
	}
}

func TestRestorePartialSnapshotRepairsMaps(t *testing.T) {
	catalog := testCatalog(t)

	// Parseable but missing the extras, stats, and map blocks entirely.
	restored, err := RestoreSession([]byte(`{"missions":[{"id":1,"tasks":[]}]}`), catalog, 7)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	c := NewController(restored, nil, nil)
	if err := c.RatePartner(1, 5); err != nil {
		t.Fatalf("rate after partial restore: %v", err)
	}
	if restored.Extras.PartnerRatings[1] != 5 {
		t.Errorf("rating %d, want 5", restored.Extras.PartnerRatings[1])
	}
	if err := c.TriggerCoupleAchievement("mind-reader"); err != nil {
		t.Fatalf("couple unlock after partial restore: %v", err)
	}
	if err := c.AttachPhoto(1, "proof.jpg", 1024); err != nil {
		t.Fatalf("photo after partial restore: %v", err)
	}
	restored.Stats.RecordMissionStart(1)
	restored.Stats.RecordMissionCompletion(1)
	if len(restored.Stats.MissionStartTimes) != 1 {
		t.Errorf("mission start not recorded after partial restore")
	}
}
