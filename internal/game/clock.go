package game

import "time"

// Phase is a mission's lifecycle position relative to the session clock.
type Phase string

const (
	PhaseLocked  Phase = "locked"
	PhaseActive  Phase = "active"
	PhaseExpired Phase = "expired"
)

// TimeOverride is the operator-supplied test switch. When Active and
// RestrictionsDisabled, every mission reports active and every gated section
// reports unlocked regardless of the clock.
type TimeOverride struct {
	Active               bool `json:"active"`
	RestrictionsDisabled bool `json:"restrictions_disabled"`
}

// TimeReport is the output of one clock evaluation. Missed lists missions
// whose window just expired with the main objective incomplete and no penalty
// applied yet; the caller must mark the penalty applied before acting on it so
// repeated evaluations at the same instant deliver the event at most once.
type TimeReport struct {
	Phases           map[int]Phase
	SectionsUnlocked bool
	MidnightOpen     bool
	Missed           []int
}

// ValidClock reports whether s is a zero-padded "HH:MM" string. Unpadded
// values are rejected rather than guessed at: lexicographic comparison is only
// correct on padded strings.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour < 24 && minute < 60
}

// ClockHour returns the hour component of a valid "HH:MM" string.
func ClockHour(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

// FormatClock renders t as a zero-padded "HH:MM" session clock value.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// DateLocked reports whether the operation is still sealed: an unlock date is
// configured, today is before it, and no override opens it early. A malformed
// date is ignored rather than locking the evening out.
func (s *Session) DateLocked(now time.Time) bool {
	if s.UnlockDate == "" || s.Override.Active {
		return false
	}
	unlock, err := time.ParseInLocation("2006-01-02", s.UnlockDate, now.Location())
	if err != nil {
		return false
	}
	return now.Before(unlock)
}

// missionPhase classifies one mission against the clock. A malformed window
// fails safe to locked so content never expires prematurely.
func missionPhase(now string, m *MissionDef) Phase {
	if !ValidClock(m.StartTime) || !ValidClock(m.EndTime) {
		return PhaseLocked
	}
	switch {
	case now < m.StartTime:
		return PhaseLocked
	case now < m.EndTime:
		return PhaseActive
	default:
		return PhaseExpired
	}
}

// EvaluateTime computes every mission's phase plus section gating for the
// given clock value. It never fails: a malformed clock is treated as
// not-yet-reached and everything reports locked. The runtime map supplies the
// per-mission completion and penalty flags used to detect missed objectives;
// it is not modified here.
func EvaluateTime(now string, catalog *Catalog, runtime map[int]*MissionState, override TimeOverride) TimeReport {
	report := TimeReport{Phases: make(map[int]Phase, len(catalog.Missions))}

	if override.Active && override.RestrictionsDisabled {
		for _, m := range catalog.Missions {
			report.Phases[m.ID] = PhaseActive
		}
		report.SectionsUnlocked = true
		report.MidnightOpen = true
		return report
	}

	if !ValidClock(now) {
		for _, m := range catalog.Missions {
			report.Phases[m.ID] = PhaseLocked
		}
		return report
	}

	report.MidnightOpen = ClockHour(now) == 23
	if len(catalog.Missions) > 0 {
		first := catalog.Missions[0]
		report.SectionsUnlocked = ValidClock(first.StartTime) && now >= first.StartTime
	}

	for i := range catalog.Missions {
		m := &catalog.Missions[i]
		phase := missionPhase(now, m)
		report.Phases[m.ID] = phase
		if phase != PhaseExpired {
			continue
		}
		if state := runtime[m.ID]; state != nil && !state.MainCompleted && !state.MissedPenaltyApplied {
			report.Missed = append(report.Missed, m.ID)
		}
	}
	return report
}
