package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// TaskKind discriminates the two scored task flavors.
type TaskKind string

const (
	TaskMiniGame  TaskKind = "mini"
	TaskSideQuest TaskKind = "side"
)

// Points returns the fixed score delta for completing a task of this kind.
func (k TaskKind) Points() int {
	if k == TaskMiniGame {
		return MiniGamePoints
	}
	return SideQuestPoints
}

// TaskState is one task instance selected for this session. Completion is
// monotone per instance; a reroll replaces a pending instance's content.
type TaskState struct {
	ID        string   `json:"id"`
	Kind      TaskKind `json:"kind"`
	Text      string   `json:"text"`
	Photo     bool     `json:"photo"`
	Completed bool     `json:"completed"`
}

// MissionState is the per-mission runtime derived state.
type MissionState struct {
	ID                   int          `json:"id"`
	MainObjective        string       `json:"main_objective"`
	MainCompleted        bool         `json:"main_completed"`
	MissedPenaltyApplied bool         `json:"missed_penalty_applied"`
	Rerolls              int          `json:"rerolls"`
	Tasks                []*TaskState `json:"tasks"`
	Phase                Phase        `json:"phase"`
	Collapsed            bool         `json:"collapsed"`
}

// Task returns the task with the given id, or nil.
func (m *MissionState) Task(id string) *TaskState {
	for _, t := range m.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// PendingTasks returns the tasks not yet completed.
func (m *MissionState) PendingTasks() []*TaskState {
	pending := make([]*TaskState, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	return pending
}

// AllTasksCompleted reports whether every selected task is done.
func (m *MissionState) AllTasksCompleted() bool {
	for _, t := range m.Tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// SecretStatus is the secret mission's state machine position.
type SecretStatus string

const (
	SecretUnrevealed SecretStatus = "unrevealed"
	SecretActive     SecretStatus = "active"
	SecretCompleted  SecretStatus = "completed"
	SecretFailed     SecretStatus = "failed"
)

// SecretState tracks the one-time hidden timed challenge. Completed and
// Failed are terminal.
type SecretState struct {
	Status           SecretStatus `json:"status"`
	Task             string       `json:"task,omitempty"`
	Points           int          `json:"points,omitempty"`
	SecondsRemaining int          `json:"seconds_remaining,omitempty"`
}

// PenaltyOffer is a one-shot bonus challenge presented after a miss or
// timeout. Resolving it (either way) clears the offer.
type PenaltyOffer struct {
	Source           string `json:"source"` // "secret" or "missed"
	MissionID        int    `json:"mission_id,omitempty"`
	Challenge        string `json:"challenge"`
	BasePenalty      int    `json:"base_penalty"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

// PhotoRef is a reference to an attached photo; the blob itself stays with
// the presentation layer.
type PhotoRef struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	AttachedAt time.Time `json:"attached_at"`
}

// Session is the single owned state aggregate for one evening. Every mutating
// operation goes through the Controller, which persists the session after
// each step.
type Session struct {
	Ledger   Ledger          `json:"ledger"`
	Missions []*MissionState `json:"missions"`

	SectionsUnlocked  bool            `json:"sections_unlocked"`
	MidnightOpen      bool            `json:"midnight_open"`
	Secret            SecretState     `json:"secret"`
	MidnightCompleted int             `json:"midnight_completed"`
	Penalty           *PenaltyOffer   `json:"penalty,omitempty"`
	PenaltyQueue      []*PenaltyOffer `json:"penalty_queue,omitempty"`

	Unlocked map[string]bool   `json:"unlocked_achievements"`
	Photos   map[int]*PhotoRef `json:"photos"`
	Notes    map[int]string    `json:"notes"`

	Stats    Statistics `json:"stats"`
	Extras   Extras     `json:"extras"`
	Override TimeOverride `json:"override"`
	// UnlockDate, when set ("YYYY-MM-DD"), seals the whole operation until
	// that day arrives; only a time override opens it early.
	UnlockDate string `json:"unlock_date,omitempty"`
	// TestClock, when non-empty, replaces the wall clock as the session time.
	TestClock string    `json:"test_clock,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Finished  bool      `json:"finished"`

	catalog *Catalog
	rng     *rand.Rand
}

// NewSession samples each mission's task subset from the catalog pools and
// returns a fresh aggregate.
func NewSession(catalog *Catalog, seed int64) *Session {
	s := &Session{
		Secret:    SecretState{Status: SecretUnrevealed},
		Unlocked:  make(map[string]bool),
		Photos:    make(map[int]*PhotoRef),
		Notes:     make(map[int]string),
		Stats:     NewStatistics(),
		Extras:    NewExtras(),
		StartedAt: time.Now(),
		catalog:   catalog,
		rng:       rand.New(rand.NewSource(seed)),
	}
	for i := range catalog.Missions {
		s.Missions = append(s.Missions, s.sampleMission(&catalog.Missions[i]))
	}
	return s
}

// sampleMission picks one main objective, a handful of non-photo mini-games
// and side quests, and one photo quest from the mission's pools.
func (s *Session) sampleMission(def *MissionDef) *MissionState {
	m := &MissionState{
		ID:            def.ID,
		MainObjective: def.MainObjectives[s.rng.Intn(len(def.MainObjectives))],
		Phase:         PhaseLocked,
	}

	minis := samplePool(s.rng, nonPhotoOptions(def.MiniGames), MiniGamesPerMission)
	for i, text := range minis {
		m.Tasks = append(m.Tasks, &TaskState{
			ID:   fmt.Sprintf("mini-%d-%d", def.ID, i),
			Kind: TaskMiniGame,
			Text: text,
		})
	}

	sideCount := MinSideQuests + s.rng.Intn(MaxSideQuests-MinSideQuests+1)
	sides := samplePool(s.rng, nonPhotoOptions(def.SideQuests), sideCount)
	for i, text := range sides {
		m.Tasks = append(m.Tasks, &TaskState{
			ID:   fmt.Sprintf("side-%d-%d", def.ID, i),
			Kind: TaskSideQuest,
			Text: text,
		})
	}

	if len(def.PhotoTasks) > 0 {
		m.Tasks = append(m.Tasks, &TaskState{
			ID:    fmt.Sprintf("side-%d-photo", def.ID),
			Kind:  TaskSideQuest,
			Text:  def.PhotoTasks[s.rng.Intn(len(def.PhotoTasks))],
			Photo: true,
		})
	}
	return m
}

func nonPhotoOptions(pool []TaskOption) []string {
	out := make([]string, 0, len(pool))
	for _, opt := range pool {
		if !opt.Photo {
			out = append(out, opt.Text)
		}
	}
	return out
}

// samplePool returns up to n distinct entries from pool in random order.
func samplePool(rng *rand.Rand, pool []string, n int) []string {
	shuffled := append([]string(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// Mission returns the runtime state for id, or nil.
func (s *Session) Mission(id int) *MissionState {
	for _, m := range s.Missions {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// MissionRuntime exposes the runtime map keyed by id, as consumed by the
// time-state evaluator.
func (s *Session) MissionRuntime() map[int]*MissionState {
	out := make(map[int]*MissionState, len(s.Missions))
	for _, m := range s.Missions {
		out[m.ID] = m
	}
	return out
}

// Catalog returns the read-only content catalog bound to this session.
func (s *Session) Catalog() *Catalog { return s.catalog }

// Clock returns the session clock: the test override when set, otherwise the
// wall clock formatted as "HH:MM".
func (s *Session) Clock() string {
	if s.TestClock != "" {
		return s.TestClock
	}
	return FormatClock(time.Now())
}

// Snapshot serializes the full session for the persistence store.
func (s *Session) Snapshot() ([]byte, error) {
	return json.Marshal(s)
}

// RestoreSession rebuilds a session from a persisted snapshot. Malformed data
// yields an error the caller treats as "no save". A secret mission that was
// mid-countdown when the snapshot was taken is marked failed on restore: its
// timer cannot be trusted across a reload.
func RestoreSession(data []byte, catalog *Catalog, seed int64) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(s.Missions) == 0 {
		return nil, fmt.Errorf("snapshot has no missions")
	}
	s.catalog = catalog
	s.rng = rand.New(rand.NewSource(seed))
	if s.Unlocked == nil {
		s.Unlocked = make(map[string]bool)
	}
	if s.Photos == nil {
		s.Photos = make(map[int]*PhotoRef)
	}
	if s.Notes == nil {
		s.Notes = make(map[int]string)
	}
	if s.Extras.PartnerRatings == nil {
		s.Extras.PartnerRatings = make(map[int]int)
	}
	if s.Extras.CoupleUnlocked == nil {
		s.Extras.CoupleUnlocked = make(map[string]bool)
	}
	if s.Stats.MissionStartTimes == nil {
		s.Stats.MissionStartTimes = make(map[int]time.Time)
	}
	if s.Stats.MissionCompletionTimes == nil {
		s.Stats.MissionCompletionTimes = make(map[int]time.Time)
	}
	if s.Secret.Status == SecretActive {
		s.Secret.Status = SecretFailed
		s.Secret.SecondsRemaining = 0
	}
	// In-flight penalty offers do not survive a reload either; every offer,
	// active or queued, is settled at its full base penalty.
	if s.Penalty != nil {
		s.PenaltyQueue = append([]*PenaltyOffer{s.Penalty}, s.PenaltyQueue...)
		s.Penalty = nil
	}
	for _, offer := range s.PenaltyQueue {
		s.Ledger.ApplyDelta(-offer.BasePenalty)
		s.Ledger.PenaltyChallengesFailed++
	}
	s.PenaltyQueue = nil
	return &s, nil
}
