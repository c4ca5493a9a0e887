package game

import (
	"fmt"
	"strings"
	"time"
)

// RankForScore returns the highest rank whose threshold the score meets.
func RankForScore(catalog *Catalog, score int) RankDef {
	var current RankDef
	for _, r := range catalog.Ranks {
		if score >= r.MinScore {
			current = r
		}
	}
	return current
}

// Summary is the end-of-operation result sheet.
type Summary struct {
	TotalScore          int      `json:"total_score"`
	Rank                RankDef  `json:"rank"`
	MainObjectives      int      `json:"main_objectives"`
	TotalMissions       int      `json:"total_missions"`
	MiniGames           int      `json:"mini_games"`
	SideQuests          int      `json:"side_quests"`
	MidnightMissions    int      `json:"midnight_missions"`
	MidnightTotal       int      `json:"midnight_total"`
	Achievements        int      `json:"achievements"`
	AchievementsTotal   int      `json:"achievements_total"`
	RerollsUsed         int      `json:"rerolls_used"`
	MissedObjectives    int      `json:"missed_objectives"`
	SecretStatus        SecretStatus `json:"secret_status"`
	PenaltiesWon        int      `json:"penalties_won"`
	PenaltiesFailed     int      `json:"penalties_failed"`
	PhotosAttached      int      `json:"photos_attached"`
	NotesWritten        int      `json:"notes_written"`
	DurationMinutes     int      `json:"duration_minutes"`
	CoupleAchievements  []string `json:"couple_achievements"`
}

// BuildSummary assembles the summary from the current session state.
func BuildSummary(s *Session) Summary {
	var couple []string
	for _, def := range CoupleAchievements {
		if s.Extras.CoupleUnlocked[def.ID] {
			couple = append(couple, def.Title)
		}
	}
	return Summary{
		TotalScore:         s.Ledger.TotalScore,
		Rank:               RankForScore(s.catalog, s.Ledger.TotalScore),
		MainObjectives:     s.Ledger.CompletedMainObjectives,
		TotalMissions:      len(s.Missions),
		MiniGames:          s.Ledger.CompletedMiniGames,
		SideQuests:         s.Ledger.CompletedSideQuests,
		MidnightMissions:   s.MidnightCompleted,
		MidnightTotal:      len(s.catalog.MidnightMissions),
		Achievements:       s.UnlockedCount(),
		AchievementsTotal:  len(s.catalog.Achievements),
		RerollsUsed:        s.Ledger.RerollsUsed,
		MissedObjectives:   s.Ledger.MissedMainObjectives,
		SecretStatus:       s.Secret.Status,
		PenaltiesWon:       s.Ledger.PenaltyChallengesCompleted,
		PenaltiesFailed:    s.Ledger.PenaltyChallengesFailed,
		PhotosAttached:     len(s.Photos),
		NotesWritten:       len(s.Notes),
		DurationMinutes:    int(time.Since(s.StartedAt).Minutes()),
		CoupleAchievements: couple,
	}
}

// FormatSummary renders the shareable plain-text score card.
func (sum Summary) FormatSummary() string {
	var b strings.Builder
	divider := strings.Repeat("━", 28)
	b.WriteString("🤠 OPERATION: DJANGO SALSA 🕵️\n")
	b.WriteString("Agent Wildflower 🌸 & The Onion Slayer 🧅\n\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "FINAL SCORE: %d\n", sum.TotalScore)
	fmt.Fprintf(&b, "RANK: %s\n", sum.Rank.Name)
	b.WriteString(divider + "\n\n")
	b.WriteString("MISSION STATS:\n")
	fmt.Fprintf(&b, "✓ Main Objectives: %d/%d\n", sum.MainObjectives, sum.TotalMissions)
	fmt.Fprintf(&b, "✓ Mini-Games: %d\n", sum.MiniGames)
	fmt.Fprintf(&b, "✓ Side Quests: %d\n", sum.SideQuests)
	fmt.Fprintf(&b, "✓ Midnight Missions: %d/%d\n", sum.MidnightMissions, sum.MidnightTotal)
	fmt.Fprintf(&b, "✓ Achievements: %d/%d\n", sum.Achievements, sum.AchievementsTotal)
	fmt.Fprintf(&b, "\nREWARD: %s\n\n", sum.Rank.Reward)
	fmt.Fprintf(&b, "Date: %s\n", time.Now().Format("2006-01-02"))
	b.WriteString(divider)
	return b.String()
}
