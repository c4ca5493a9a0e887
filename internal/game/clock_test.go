package game

import "testing"

func TestValidClock(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"00:00", true},
		{"17:45", true},
		{"23:59", true},
		{"24:00", false},
		{"12:60", false},
		{"7:00", false},  // unpadded hour
		{"07:5", false},  // unpadded minute
		{"1700", false},
		{"ab:cd", false},
		{"", false},
		{"5:00pm", false},
	}
	for _, tc := range cases {
		if got := ValidClock(tc.in); got != tc.want {
			t.Errorf("ValidClock(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestEvaluateTimePhases(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s := NewSession(catalog, 1)
	runtime := s.MissionRuntime()

	report := EvaluateTime("16:59", catalog, runtime, TimeOverride{})
	if report.SectionsUnlocked {
		t.Error("sections should stay locked before the first window")
	}
	for id, phase := range report.Phases {
		if phase != PhaseLocked {
			t.Errorf("mission %d: phase %s before any window opens", id, phase)
		}
	}

	report = EvaluateTime("17:00", catalog, runtime, TimeOverride{})
	if !report.SectionsUnlocked {
		t.Error("sections should unlock exactly at the first window start")
	}
	if report.Phases[1] != PhaseActive {
		t.Errorf("mission 1 at 17:00: got %s, want active", report.Phases[1])
	}

	report = EvaluateTime("22:59", catalog, runtime, TimeOverride{})
	if report.Phases[4] != PhaseExpired {
		t.Errorf("mission 4 at 22:59: got %s, want expired", report.Phases[4])
	}
	if report.Phases[5] != PhaseActive {
		t.Errorf("mission 5 at 22:59: got %s, want active", report.Phases[5])
	}
	if report.MidnightOpen {
		t.Error("midnight window should be closed at 22:59")
	}

	report = EvaluateTime("23:00", catalog, runtime, TimeOverride{})
	if !report.MidnightOpen {
		t.Error("midnight window should open at 23:00")
	}
}

func TestEvaluateTimeMalformedClock(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s := NewSession(catalog, 1)

	report := EvaluateTime("garbage", catalog, s.MissionRuntime(), TimeOverride{})
	if report.SectionsUnlocked || report.MidnightOpen || len(report.Missed) != 0 {
		t.Error("a malformed clock must not unlock or expire anything")
	}
	for id, phase := range report.Phases {
		if phase != PhaseLocked {
			t.Errorf("mission %d: got %s for malformed clock, want locked", id, phase)
		}
	}
}

func TestEvaluateTimeOverride(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s := NewSession(catalog, 1)
	override := TimeOverride{Active: true, RestrictionsDisabled: true}

	report := EvaluateTime("03:00", catalog, s.MissionRuntime(), override)
	if !report.SectionsUnlocked || !report.MidnightOpen {
		t.Error("disabled restrictions should open every gate")
	}
	for id, phase := range report.Phases {
		if phase != PhaseActive {
			t.Errorf("mission %d: got %s under disabled restrictions, want active", id, phase)
		}
	}
	if len(report.Missed) != 0 {
		t.Errorf("no objectives should be missed under disabled restrictions, got %v", report.Missed)
	}
}

func TestEvaluateTimeMissedLatch(t *testing.T) {
	catalog, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s := NewSession(catalog, 1)
	runtime := s.MissionRuntime()

	report := EvaluateTime("18:00", catalog, runtime, TimeOverride{})
	if len(report.Missed) != 1 || report.Missed[0] != 1 {
		t.Fatalf("at 18:00 only mission 1 should be missed, got %v", report.Missed)
	}

	runtime[1].MissedPenaltyApplied = true
	report = EvaluateTime("18:00", catalog, runtime, TimeOverride{})
	if len(report.Missed) != 0 {
		t.Errorf("a latched miss must not be re-delivered, got %v", report.Missed)
	}
}
