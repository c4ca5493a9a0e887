// Package game implements the engine for a time-gated, two-player
// date-night operation: missions with scored tasks, reroll and undo
// mechanics, secret/midnight sub-missions, achievements, and ranks.
//
// All state transitions are synchronous; the session clock (real or a
// simulated override) is the sole time input.
package game

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scoring and limit constants shared across the engine.
const (
	MiniGamePoints      = 30
	SideQuestPoints     = 20
	MainObjectivePoints = 100

	RerollPenaltyStep    = 10
	MaxRerollsPerMission = 3

	MissedObjectivePenalty = 50
	SecretTimeoutPenalty   = 30

	// A completed penalty challenge reduces the tagged penalty to 60%.
	PenaltyReductionNum = 6
	PenaltyReductionDen = 10

	MaxHistorySize = 20
	MaxPhotoBytes  = 5 << 20

	// Missions sample this many mini-games per session.
	MiniGamesPerMission = 3
	MinSideQuests       = 2
	MaxSideQuests       = 4
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// TaskOption is one candidate task in a mission's catalog pool. Photo-flavored
// entries are tagged at authoring time, never inferred from display text.
type TaskOption struct {
	Text  string `yaml:"text"`
	Photo bool   `yaml:"photo"`
}

// MissionDef is the immutable catalog definition of one mission. Time windows
// are zero-padded "HH:MM" strings compared lexicographically.
type MissionDef struct {
	ID             int          `yaml:"id"`
	Title          string       `yaml:"title"`
	StartTime      string       `yaml:"start_time"`
	EndTime        string       `yaml:"end_time"`
	Lore           string       `yaml:"lore"`
	MainObjectives []string     `yaml:"main_objectives"`
	MiniGames      []TaskOption `yaml:"mini_games"`
	SideQuests     []TaskOption `yaml:"side_quests"`
	PhotoTasks     []string     `yaml:"photo_tasks"`
}

// SecretMissionDef is one candidate for the one-time hidden timed challenge.
type SecretMissionDef struct {
	Task             string `yaml:"task"`
	TimeLimitMinutes int    `yaml:"time_limit_minutes"`
	Points           int    `yaml:"points"`
}

// MidnightMissionDef is one entry in the ordered witching-hour sequence.
type MidnightMissionDef struct {
	Task   string `yaml:"task"`
	Points int    `yaml:"points"`
}

// PenaltyChallengeDef is one candidate bonus challenge offered after a miss.
type PenaltyChallengeDef struct {
	Task             string `yaml:"task"`
	TimeLimitMinutes int    `yaml:"time_limit_minutes"`
}

// AchievementDef describes an achievement. Hidden achievements carry a second
// identity revealed only by the finish-operation event; the catalog entry is
// never mutated, display selection is a projection over unlock state.
type AchievementDef struct {
	ID              string `yaml:"id"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	Icon            string `yaml:"icon"`
	Hidden          bool   `yaml:"hidden"`
	RealTitle       string `yaml:"real_title"`
	RealDescription string `yaml:"real_description"`
	RealIcon        string `yaml:"real_icon"`
}

// RankDef maps a minimum score to a final rank.
type RankDef struct {
	MinScore    int    `yaml:"min_score"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Reward      string `yaml:"reward"`
}

// Catalog holds all static content consumed by the engine. Read-only after load.
type Catalog struct {
	Missions          []MissionDef          `yaml:"missions"`
	SecretMissions    []SecretMissionDef    `yaml:"secret_missions"`
	MidnightMissions  []MidnightMissionDef  `yaml:"midnight_missions"`
	PenaltyChallenges []PenaltyChallengeDef `yaml:"penalty_challenges"`
	Achievements      []AchievementDef      `yaml:"achievements"`
	Ranks             []RankDef             `yaml:"ranks"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog from a YAML file, falling back to the embedded
// default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks structural invariants the engine relies on.
func (c *Catalog) Validate() error {
	if len(c.Missions) == 0 {
		return fmt.Errorf("catalog has no missions")
	}
	seen := make(map[int]bool, len(c.Missions))
	for _, m := range c.Missions {
		if m.ID <= 0 {
			return fmt.Errorf("mission %q has invalid id %d", m.Title, m.ID)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate mission id %d", m.ID)
		}
		seen[m.ID] = true
		if !ValidClock(m.StartTime) || !ValidClock(m.EndTime) {
			return fmt.Errorf("mission %d has malformed time window %q-%q (must be zero-padded HH:MM)",
				m.ID, m.StartTime, m.EndTime)
		}
		if m.EndTime <= m.StartTime {
			return fmt.Errorf("mission %d window ends before it starts", m.ID)
		}
		if len(m.MainObjectives) == 0 {
			return fmt.Errorf("mission %d has no main objectives", m.ID)
		}
		if len(m.MiniGames) == 0 || len(m.SideQuests) == 0 {
			return fmt.Errorf("mission %d has empty task pools", m.ID)
		}
	}
	if len(c.SecretMissions) == 0 {
		return fmt.Errorf("catalog has no secret missions")
	}
	for i, s := range c.SecretMissions {
		if s.TimeLimitMinutes <= 0 {
			return fmt.Errorf("secret mission %d has non-positive time limit", i)
		}
	}
	if len(c.PenaltyChallenges) == 0 {
		return fmt.Errorf("catalog has no penalty challenges")
	}
	prev := -1
	for _, r := range c.Ranks {
		if r.MinScore <= prev {
			return fmt.Errorf("rank thresholds must be strictly ascending (got %d after %d)", r.MinScore, prev)
		}
		prev = r.MinScore
	}
	return nil
}

// Mission returns the catalog definition for id, or nil.
func (c *Catalog) Mission(id int) *MissionDef {
	for i := range c.Missions {
		if c.Missions[i].ID == id {
			return &c.Missions[i]
		}
	}
	return nil
}

// Achievement returns the definition for id, or nil.
func (c *Catalog) Achievement(id string) *AchievementDef {
	for i := range c.Achievements {
		if c.Achievements[i].ID == id {
			return &c.Achievements[i]
		}
	}
	return nil
}
