package game

// EvaluateAchievements is a pure rule set mapping current counters to the
// achievement ids that should unlock. Scoped to one mission for the
// per-mission predicates; unlocking an already-unlocked id is a no-op at the
// session level. The hidden achievement is excluded here: it unlocks only
// from the finish-operation event.
func EvaluateAchievements(s *Session, missionID int) []string {
	var ids []string
	check := func(id string, met bool) {
		if met && !s.Unlocked[id] {
			ids = append(ids, id)
		}
	}

	if m := s.Mission(missionID); m != nil {
		check("perfectionist", m.MainCompleted && m.AllTasksCompleted())
	}
	check("social", s.Ledger.CompletedSideQuests >= 5)
	check("competitor", s.Ledger.CompletedMiniGames >= 5)
	check("flawless", s.Ledger.CompletedMainObjectives == len(s.Missions))
	check("dedication", s.Ledger.TotalScore >= 1000)
	check("witching", s.MidnightCompleted >= len(s.catalog.MidnightMissions))
	check("classified", s.Secret.Status == SecretCompleted)
	return ids
}

// speedsterUnlocked reports whether a main objective was completed in the
// first half of its mission's time window, judged on the session clock.
func speedsterUnlocked(now string, def *MissionDef) bool {
	if !ValidClock(now) || !ValidClock(def.StartTime) || !ValidClock(def.EndTime) {
		return false
	}
	start := clockMinutes(def.StartTime)
	end := clockMinutes(def.EndTime)
	mid := start + (end-start)/2
	at := clockMinutes(now)
	return at >= start && at <= mid
}

func clockMinutes(s string) int {
	return ClockHour(s)*60 + int(s[3]-'0')*10 + int(s[4]-'0')
}

// AchievementView is the display projection of one achievement. Hidden
// entries swap to their real identity only once the session is finished; the
// catalog entry itself is never mutated.
type AchievementView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
}

// AchievementViews projects the catalog's achievements through the session's
// unlock state.
func AchievementViews(s *Session) []AchievementView {
	views := make([]AchievementView, 0, len(s.catalog.Achievements))
	for _, def := range s.catalog.Achievements {
		v := AchievementView{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Icon:        def.Icon,
			Unlocked:    s.Unlocked[def.ID],
		}
		if def.Hidden && s.Unlocked[def.ID] {
			v.Title = def.RealTitle
			v.Description = def.RealDescription
			v.Icon = def.RealIcon
		}
		views = append(views, v)
	}
	return views
}

// UnlockedCount returns how many catalog achievements are unlocked.
func (s *Session) UnlockedCount() int {
	n := 0
	for _, def := range s.catalog.Achievements {
		if s.Unlocked[def.ID] {
			n++
		}
	}
	return n
}
