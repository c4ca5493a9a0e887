package game

import (
	"errors"
	"math/rand"
	"time"
)

// Extras holds the bonus-feature state that rides alongside the mission
// checklist: lucky spins, surprise challenges, speed runs, role swaps,
// partner ratings, and the couple achievements they feed.
type Extras struct {
	ConversationCardsUsed int `json:"conversation_cards_used"`
	LuckySpinsUsed        int `json:"lucky_spins_used"`

	SpeedRunActive  bool      `json:"speed_run_active"`
	SpeedRunStarted time.Time `json:"speed_run_started,omitempty"`

	// Pending lucky-spin rewards, consumed by the next matching action.
	DoubleNextTask bool `json:"double_next_task"`
	FreeRerolls    int  `json:"free_rerolls"`

	// LastCard is the most recently drawn conversation prompt, kept so a
	// reconnecting device shows the same card.
	LastCard string `json:"last_card,omitempty"`

	CharacterSwapped bool            `json:"character_swapped"`
	PartnerRatings   map[int]int     `json:"partner_ratings"`
	CoupleUnlocked   map[string]bool `json:"couple_unlocked"`
}

// NewExtras returns an empty extras block.
func NewExtras() Extras {
	return Extras{
		PartnerRatings: make(map[int]int),
		CoupleUnlocked: make(map[string]bool),
	}
}

// CoupleAchievementDef is a bonus achievement earned by the pair rather than
// by mission counters alone. Some unlock from tracked thresholds, the rest
// are triggered manually from the table.
type CoupleAchievementDef struct {
	ID     string
	Icon   string
	Title  string
	Desc   string
	Manual bool
}

// CoupleAchievements is the fixed bonus-achievement table.
var CoupleAchievements = []CoupleAchievementDef{
	{ID: "double-laugh", Icon: "😂", Title: "Synchronized Laughter", Desc: "Both laughed at the exact same moment", Manual: true},
	{ID: "mind-reader", Icon: "🧠", Title: "Mind Reader", Desc: "Said the same thing at the same time", Manual: true},
	{ID: "photo-duo", Icon: "📸", Title: "Photo Collectors", Desc: "Upload photos for 3 missions"},
	{ID: "perfect-timing", Icon: "⏰", Title: "Perfect Timing", Desc: "Complete mission right before time expires", Manual: true},
	{ID: "speed-demons", Icon: "⚡", Title: "Speed Demons", Desc: "Complete mission in speed run mode", Manual: true},
	{ID: "storytellers", Icon: "📖", Title: "Storytellers", Desc: "Add notes to 3 missions"},
	{ID: "risk-takers", Icon: "🎲", Title: "Risk Takers", Desc: "Use lucky spin 5 times"},
	{ID: "role-players", Icon: "🎭", Title: "Role Players", Desc: "Complete mission with swapped characters", Manual: true},
	{ID: "communicators", Icon: "💬", Title: "Deep Communicators", Desc: "Use 5 conversation cards"},
	{ID: "perfect-score", Icon: "💯", Title: "Perfect Harmony", Desc: "Both give each other 5-star ratings", Manual: true},
}

// CoupleAchievement returns the definition for id, or nil.
func CoupleAchievement(id string) *CoupleAchievementDef {
	for i := range CoupleAchievements {
		if CoupleAchievements[i].ID == id {
			return &CoupleAchievements[i]
		}
	}
	return nil
}

// SpinSpecial marks a non-point lucky-spin outcome.
type SpinSpecial string

const (
	SpinNone        SpinSpecial = ""
	SpinDouble      SpinSpecial = "double"
	SpinFreeReroll  SpinSpecial = "reroll"
	SpinAchievement SpinSpecial = "achievement"
)

// SpinOutcome is one slot on the lucky-spin wheel.
type SpinOutcome struct {
	Label   string      `json:"label"`
	Points  int         `json:"points"`
	Special SpinSpecial `json:"special,omitempty"`
}

var spinOutcomes = []SpinOutcome{
	{Label: "+50 points!", Points: 50},
	{Label: "+30 points!", Points: 30},
	{Label: "+20 points!", Points: 20},
	{Label: "+15 points!", Points: 15},
	{Label: "+10 points!", Points: 10},
	{Label: "-10 points", Points: -10},
	{Label: "-15 points", Points: -15},
	{Label: "Double next task!", Special: SpinDouble},
	{Label: "Free reroll!", Special: SpinFreeReroll},
	{Label: "Instant achievement!", Special: SpinAchievement},
}

func drawSpinOutcome(rng *rand.Rand) SpinOutcome {
	return spinOutcomes[rng.Intn(len(spinOutcomes))]
}

// MaxSurpriseChallengePoints caps the reward accepted for an ad-hoc surprise
// challenge completion.
const MaxSurpriseChallengePoints = 50

// ConversationCards is the prompt deck for the conversation-starter extra.
var ConversationCards = []string{
	"What's your favorite memory of us so far?",
	"If we could teleport anywhere right now, where would we go?",
	"What's something I do that always makes you smile?",
	"Describe tonight's mission in three words.",
	"What's one thing you want us to try together this year?",
	"What song would play during our movie montage?",
	"What's the best meal we've ever shared?",
	"If our evening had a secret codename, what would it be?",
	"What superpower would make us an unstoppable duo?",
	"What's one small thing that made you happy today?",
}

// ErrInvalidRating rejects partner ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// lockedCoupleAchievements returns ids from the table not yet unlocked.
func (e *Extras) lockedCoupleAchievements() []string {
	var locked []string
	for _, def := range CoupleAchievements {
		if !e.CoupleUnlocked[def.ID] {
			locked = append(locked, def.ID)
		}
	}
	return locked
}

// thresholdCoupleUnlocks returns the ids of threshold-driven couple
// achievements whose conditions the session now satisfies.
func thresholdCoupleUnlocks(s *Session) []string {
	var ids []string
	check := func(id string, met bool) {
		if met && !s.Extras.CoupleUnlocked[id] {
			ids = append(ids, id)
		}
	}
	check("photo-duo", len(s.Photos) >= 3)
	check("storytellers", len(s.Notes) >= 3)
	check("risk-takers", s.Extras.LuckySpinsUsed >= 5)
	check("communicators", s.Extras.ConversationCardsUsed >= 5)
	return ids
}

// Speed-run bonus bands: finish fast, earn more.
const (
	speedRunTier1Seconds = 30
	speedRunTier2Seconds = 60
	speedRunTier3Seconds = 90
	speedRunTier1Bonus   = 50
	speedRunTier2Bonus   = 30
	speedRunTier3Bonus   = 15
)

// speedRunBonus returns the bonus for an elapsed speed-run duration.
func speedRunBonus(elapsed time.Duration) int {
	switch {
	case elapsed < speedRunTier1Seconds*time.Second:
		return speedRunTier1Bonus
	case elapsed < speedRunTier2Seconds*time.Second:
		return speedRunTier2Bonus
	case elapsed < speedRunTier3Seconds*time.Second:
		return speedRunTier3Bonus
	default:
		return 0
	}
}
