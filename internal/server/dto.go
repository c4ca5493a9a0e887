package server

import (
	"time"

	"DateOps/internal/game"
)

type taskDTO struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Photo     bool   `json:"photo"`
	Completed bool   `json:"completed"`
	Points    int    `json:"points"`
}

type missionDTO struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Lore          string    `json:"lore"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Phase         string    `json:"phase"`
	Collapsed     bool      `json:"collapsed"`
	MainObjective string    `json:"main_objective"`
	MainCompleted bool      `json:"main_completed"`
	Tasks         []taskDTO `json:"tasks"`
	Rerolls       int       `json:"rerolls"`
	// NextRerollCost is what the next paid reroll would deduct; 0 when the
	// cap is reached.
	NextRerollCost int    `json:"next_reroll_cost"`
	HasPhoto       bool   `json:"has_photo"`
	Note           string `json:"note,omitempty"`
	PartnerRating  int    `json:"partner_rating,omitempty"`
}

type secretDTO struct {
	Status           string `json:"status"`
	Task             string `json:"task,omitempty"`
	Points           int    `json:"points,omitempty"`
	SecondsRemaining int    `json:"seconds_remaining,omitempty"`
}

type penaltyDTO struct {
	Source           string `json:"source"`
	MissionID        int    `json:"mission_id,omitempty"`
	Challenge        string `json:"challenge"`
	BasePenalty      int    `json:"base_penalty"`
	ReducedPenalty   int    `json:"reduced_penalty"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

type coupleDTO struct {
	ID       string `json:"id"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	Desc     string `json:"desc"`
	Manual   bool   `json:"manual"`
	Unlocked bool   `json:"unlocked"`
}

type extrasDTO struct {
	ConversationCardsUsed int    `json:"conversation_cards_used"`
	LastCard              string `json:"last_card,omitempty"`
	LuckySpinsUsed        int    `json:"lucky_spins_used"`
	SpeedRunActive        bool   `json:"speed_run_active"`
	DoubleNextTask        bool   `json:"double_next_task"`
	FreeRerolls           int    `json:"free_rerolls"`
	CharacterSwapped      bool   `json:"character_swapped"`
}

type rankDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
	// NextAt is the score needed for the next rank, 0 at the top.
	NextAt int `json:"next_at"`
}

type stateMsg struct {
	Type  string `json:"type"`
	Clock string `json:"clock"`

	Score int     `json:"score"`
	Rank  rankDTO `json:"rank"`

	DateLocked       bool `json:"date_locked"`
	SectionsUnlocked bool `json:"sections_unlocked"`
	MidnightOpen     bool `json:"midnight_open"`

	Missions []missionDTO `json:"missions"`

	Secret  secretDTO   `json:"secret"`
	Penalty *penaltyDTO `json:"penalty,omitempty"`

	MidnightCompleted int    `json:"midnight_completed"`
	MidnightTotal     int    `json:"midnight_total"`
	MidnightNext      string `json:"midnight_next,omitempty"`
	MidnightPoints    int    `json:"midnight_points,omitempty"`

	Achievements       []game.AchievementView `json:"achievements"`
	CoupleAchievements []coupleDTO            `json:"couple_achievements"`

	Extras extrasDTO `json:"extras"`

	CanUndo             bool    `json:"can_undo"`
	HistorySize         int     `json:"history_size"`
	AverageMissionMins  float64 `json:"average_mission_minutes"`
	TasksCompleted      int     `json:"tasks_completed"`
	TestModeActive      bool    `json:"test_mode_active"`
	RestrictionsOff     bool    `json:"restrictions_off"`
	Finished            bool    `json:"finished"`
}

type summaryMsg struct {
	Type    string       `json:"type"`
	Summary game.Summary `json:"summary"`
	Card    string       `json:"card"`
}

// buildState projects the session into the wire DTO pushed to every client.
func buildState(s *game.Session) stateMsg {
	catalog := s.Catalog()
	msg := stateMsg{
		Type:             "state",
		Clock:            s.Clock(),
		DateLocked:       s.DateLocked(time.Now()),
		Score:            s.Ledger.TotalScore,
		Rank:             buildRank(catalog, s.Ledger.TotalScore),
		SectionsUnlocked: s.SectionsUnlocked,
		MidnightOpen:     s.MidnightOpen,
		Secret: secretDTO{
			Status:           string(s.Secret.Status),
			Task:             s.Secret.Task,
			Points:           s.Secret.Points,
			SecondsRemaining: s.Secret.SecondsRemaining,
		},
		MidnightCompleted: s.MidnightCompleted,
		MidnightTotal:     len(catalog.MidnightMissions),
		Achievements:      game.AchievementViews(s),
		Extras: extrasDTO{
			ConversationCardsUsed: s.Extras.ConversationCardsUsed,
			LastCard:              s.Extras.LastCard,
			LuckySpinsUsed:        s.Extras.LuckySpinsUsed,
			SpeedRunActive:        s.Extras.SpeedRunActive,
			DoubleNextTask:        s.Extras.DoubleNextTask,
			FreeRerolls:           s.Extras.FreeRerolls,
			CharacterSwapped:      s.Extras.CharacterSwapped,
		},
		CanUndo:            len(s.Ledger.History) > 0,
		HistorySize:        len(s.Ledger.History),
		AverageMissionMins: s.Stats.AverageMissionMinutes(),
		TasksCompleted:     s.Ledger.CompletedMiniGames + s.Ledger.CompletedSideQuests,
		TestModeActive:     s.Override.Active,
		RestrictionsOff:    s.Override.RestrictionsDisabled,
		Finished:           s.Finished,
	}

	if s.MidnightCompleted < len(catalog.MidnightMissions) {
		next := catalog.MidnightMissions[s.MidnightCompleted]
		msg.MidnightNext = next.Task
		msg.MidnightPoints = next.Points
	}

	if s.Penalty != nil {
		msg.Penalty = &penaltyDTO{
			Source:           s.Penalty.Source,
			MissionID:        s.Penalty.MissionID,
			Challenge:        s.Penalty.Challenge,
			BasePenalty:      s.Penalty.BasePenalty,
			ReducedPenalty:   s.Penalty.BasePenalty * game.PenaltyReductionNum / game.PenaltyReductionDen,
			SecondsRemaining: s.Penalty.SecondsRemaining,
		}
	}

	for _, m := range s.Missions {
		def := catalog.Mission(m.ID)
		if def == nil {
			continue
		}
		dto := missionDTO{
			ID:            m.ID,
			Title:         def.Title,
			Lore:          def.Lore,
			StartTime:     def.StartTime,
			EndTime:       def.EndTime,
			Phase:         string(m.Phase),
			Collapsed:     m.Collapsed,
			MainObjective: m.MainObjective,
			MainCompleted: m.MainCompleted,
			Rerolls:       m.Rerolls,
			HasPhoto:      s.Photos[m.ID] != nil,
			Note:          s.Notes[m.ID],
			PartnerRating: s.Extras.PartnerRatings[m.ID],
		}
		if m.Rerolls < game.MaxRerollsPerMission {
			dto.NextRerollCost = game.RerollPenaltyStep * (m.Rerolls + 1)
		}
		for _, t := range m.Tasks {
			dto.Tasks = append(dto.Tasks, taskDTO{
				ID:        t.ID,
				Kind:      string(t.Kind),
				Text:      t.Text,
				Photo:     t.Photo,
				Completed: t.Completed,
				Points:    t.Kind.Points(),
			})
		}
		msg.Missions = append(msg.Missions, dto)
	}

	for _, def := range game.CoupleAchievements {
		msg.CoupleAchievements = append(msg.CoupleAchievements, coupleDTO{
			ID:       def.ID,
			Icon:     def.Icon,
			Title:    def.Title,
			Desc:     def.Desc,
			Manual:   def.Manual,
			Unlocked: s.Extras.CoupleUnlocked[def.ID],
		})
	}
	return msg
}

// buildRank resolves the current rank and the next threshold to chase.
func buildRank(catalog *game.Catalog, score int) rankDTO {
	current := game.RankForScore(catalog, score)
	dto := rankDTO{Name: current.Name, Description: current.Description, Reward: current.Reward}
	for _, r := range catalog.Ranks {
		if r.MinScore > score {
			dto.NextAt = r.MinScore
			break
		}
	}
	return dto
}
