package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Soft failures specific to the secret, midnight, and penalty flows.
var (
	ErrSecretUnavailable = errors.New("secret mission already revealed")
	ErrNoPenaltyPending  = errors.New("no penalty challenge pending")
	ErrMidnightClosed    = errors.New("midnight missions open at 23:00")
	ErrInvalidPoints     = errors.New("invalid point value")
)

// SnapshotStore persists session snapshots between restarts. A nil store keeps
// the session in memory only.
type SnapshotStore interface {
	Save(snapshot []byte) error
}

// Notification severities forwarded to connected clients.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// NotifyFunc delivers a user-facing notification.
type NotifyFunc func(message, severity string)

// Controller owns the session and runs every mutating operation on it. Each
// operation applies its state transition, re-evaluates achievements, and
// persists a fresh snapshot before returning. The caller serializes access;
// the controller itself is not goroutine-safe.
type Controller struct {
	Session *Session
	store   SnapshotStore
	notify  NotifyFunc
}

// NewController wires a session to its store and notification sink. Both store
// and notify may be nil.
func NewController(s *Session, store SnapshotStore, notify NotifyFunc) *Controller {
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Controller{Session: s, store: store, notify: notify}
}

// persist snapshots the session into the store. Persistence failures are
// logged and absorbed: the in-memory session stays authoritative for the
// rest of the evening.
func (c *Controller) persist() {
	if c.store == nil {
		return
	}
	data, err := c.Session.Snapshot()
	if err != nil {
		log.Printf("[session] snapshot failed: %v", err)
		return
	}
	if err := c.store.Save(data); err != nil {
		log.Printf("[session] save failed: %v", err)
	}
}

// unlock marks a catalog achievement unlocked and announces it, once.
func (c *Controller) unlock(id string) {
	if c.Session.Unlocked[id] {
		return
	}
	def := c.Session.catalog.Achievement(id)
	if def == nil {
		return
	}
	c.Session.Unlocked[id] = true
	title := def.Title
	if def.Hidden {
		title = def.RealTitle
	}
	c.notify(fmt.Sprintf("🏆 Achievement Unlocked: %s", title), NoticeSuccess)
}

// unlockCouple marks a couple achievement unlocked and announces it, once.
func (c *Controller) unlockCouple(id string) {
	if c.Session.Extras.CoupleUnlocked[id] {
		return
	}
	def := CoupleAchievement(id)
	if def == nil {
		return
	}
	c.Session.Extras.CoupleUnlocked[id] = true
	c.notify(fmt.Sprintf("%s Couple Achievement: %s", def.Icon, def.Title), NoticeSuccess)
}

// checkAchievements unlocks every catalog achievement whose predicate the
// session now satisfies, plus threshold-driven couple achievements.
func (c *Controller) checkAchievements(missionID int) {
	for _, id := range EvaluateAchievements(c.Session, missionID) {
		c.unlock(id)
	}
	for _, id := range thresholdCoupleUnlocks(c.Session) {
		c.unlockCouple(id)
	}
}

// CompleteTask marks a mini-game or side quest done and scores it. Completion
// is monotone: a completed task never re-awards. Photo-tagged tasks require an
// attached photo for the mission first.
func (c *Controller) CompleteTask(missionID int, taskID string) error {
	s := c.Session
	m := s.Mission(missionID)
	if m == nil {
		return ErrUnknownMission
	}
	t := m.Task(taskID)
	if t == nil {
		return ErrUnknownTask
	}
	if t.Completed {
		return ErrTaskAlreadyCompleted
	}
	if t.Photo && s.Photos[missionID] == nil {
		return ErrPhotoRequired
	}

	scoreBefore := s.Ledger.TotalScore
	points := t.Kind.Points()
	if s.Extras.DoubleNextTask {
		points *= 2
		s.Extras.DoubleNextTask = false
	}
	t.Completed = true
	s.Ledger.ApplyDelta(points)
	if t.Kind == TaskMiniGame {
		s.Ledger.CompletedMiniGames++
	} else {
		s.Ledger.CompletedSideQuests++
	}
	s.Stats.RecordTaskCompletion(t.Kind, missionID)
	s.Ledger.RecordAction(Action{
		Kind:        ActionTask,
		MissionID:   missionID,
		TaskID:      taskID,
		TaskKind:    t.Kind,
		ScoreBefore: scoreBefore,
		At:          time.Now(),
	})

	c.notify(fmt.Sprintf("✅ +%d points", points), NoticeSuccess)
	c.checkAchievements(missionID)
	c.persist()
	return nil
}

// CompleteMainObjective scores the mission's main objective. An active speed
// run ends here and pays its time-banded bonus.
func (c *Controller) CompleteMainObjective(missionID int) error {
	s := c.Session
	m := s.Mission(missionID)
	if m == nil {
		return ErrUnknownMission
	}
	if m.MainCompleted {
		return ErrTaskAlreadyCompleted
	}

	scoreBefore := s.Ledger.TotalScore
	m.MainCompleted = true
	s.Ledger.ApplyDelta(MainObjectivePoints)
	s.Ledger.CompletedMainObjectives++
	s.Stats.RecordMissionCompletion(missionID)
	s.Ledger.RecordAction(Action{
		Kind:        ActionMainObjective,
		MissionID:   missionID,
		ScoreBefore: scoreBefore,
		At:          time.Now(),
	})
	c.notify(fmt.Sprintf("🎯 Main objective complete! +%d points", MainObjectivePoints), NoticeSuccess)

	if def := s.catalog.Mission(missionID); def != nil && speedsterUnlocked(s.Clock(), def) {
		c.unlock("speedster")
	}
	if s.Extras.SpeedRunActive {
		bonus := speedRunBonus(time.Since(s.Extras.SpeedRunStarted))
		s.Extras.SpeedRunActive = false
		if bonus > 0 {
			s.Ledger.ApplyDelta(bonus)
			c.notify(fmt.Sprintf("⚡ Speed run bonus: +%d points", bonus), NoticeSuccess)
		}
		c.unlockCouple("speed-demons")
	}

	c.checkAchievements(missionID)
	c.persist()
	return nil
}

// RerollMission swaps one random pending task for a fresh option from the same
// pool. Each paid reroll costs 10 points more than the last, capped at three
// per mission; a free reroll from the lucky spin bypasses both cost and cap.
// Returns the task that was replaced.
func (c *Controller) RerollMission(missionID int) (*TaskState, error) {
	s := c.Session
	m := s.Mission(missionID)
	if m == nil {
		return nil, ErrUnknownMission
	}
	free := s.Extras.FreeRerolls > 0
	if !free && m.Rerolls >= MaxRerollsPerMission {
		return nil, ErrMaxRerolls
	}
	pending := m.PendingTasks()
	if len(pending) == 0 {
		return nil, ErrNothingToReroll
	}
	def := s.catalog.Mission(missionID)
	if def == nil {
		return nil, ErrUnknownMission
	}

	t := pending[s.rng.Intn(len(pending))]
	var pool []string
	switch {
	case t.Photo:
		pool = def.PhotoTasks
	case t.Kind == TaskMiniGame:
		pool = nonPhotoOptions(def.MiniGames)
	default:
		pool = nonPhotoOptions(def.SideQuests)
	}
	t.Text = pickReplacement(s.rng, pool, t.Text)

	if free {
		s.Extras.FreeRerolls--
		c.notify("🎲 Free reroll used!", NoticeInfo)
	} else {
		scoreBefore := s.Ledger.TotalScore
		m.Rerolls++
		cost := RerollPenaltyStep * m.Rerolls
		s.Ledger.ApplyDelta(-cost)
		s.Ledger.RerollsUsed++
		s.Ledger.RecordAction(Action{
			Kind:        ActionReroll,
			MissionID:   missionID,
			TaskID:      t.ID,
			ScoreBefore: scoreBefore,
			At:          time.Now(),
		})
		c.notify(fmt.Sprintf("🎲 Task rerolled (-%d points)", cost), NoticeInfo)
	}
	c.persist()
	return t, nil
}

// pickReplacement draws a pool entry different from current when one exists.
func pickReplacement(rng *rand.Rand, pool []string, current string) string {
	options := make([]string, 0, len(pool))
	for _, text := range pool {
		if text != current {
			options = append(options, text)
		}
	}
	if len(options) == 0 {
		return current
	}
	return options[rng.Intn(len(options))]
}

// Undo reverts the most recent undoable action: the recorded score is restored
// verbatim and the entity flag the action set is cleared. A rerolled task
// keeps its new text; only the charge comes back.
func (c *Controller) Undo() (Action, error) {
	s := c.Session
	a, err := s.Ledger.Undo()
	if err != nil {
		return Action{}, err
	}
	switch a.Kind {
	case ActionTask:
		if m := s.Mission(a.MissionID); m != nil {
			if t := m.Task(a.TaskID); t != nil {
				t.Completed = false
			}
		}
	case ActionMainObjective:
		if m := s.Mission(a.MissionID); m != nil {
			m.MainCompleted = false
		}
	case ActionReroll:
		if m := s.Mission(a.MissionID); m != nil && m.Rerolls > 0 {
			m.Rerolls--
		}
	}
	c.notify("↩️ Action undone", NoticeInfo)
	c.persist()
	return a, nil
}

// RevealSecretMission draws the one-time hidden challenge and starts its
// countdown. Available exactly once per session.
func (c *Controller) RevealSecretMission() error {
	s := c.Session
	if s.Secret.Status != SecretUnrevealed {
		return ErrSecretUnavailable
	}
	def := s.catalog.SecretMissions[s.rng.Intn(len(s.catalog.SecretMissions))]
	s.Secret = SecretState{
		Status:           SecretActive,
		Task:             def.Task,
		Points:           def.Points,
		SecondsRemaining: def.TimeLimitMinutes * 60,
	}
	c.notify(fmt.Sprintf("🕵️ Secret mission: %s (%d min)", def.Task, def.TimeLimitMinutes), NoticeInfo)
	c.persist()
	return nil
}

// CompleteSecretMission awards the secret bonus. A no-op unless the countdown
// is still running, so repeated completion attempts award exactly once.
func (c *Controller) CompleteSecretMission() error {
	s := c.Session
	if s.Secret.Status != SecretActive {
		return nil
	}
	s.Secret.Status = SecretCompleted
	s.Secret.SecondsRemaining = 0
	s.Ledger.ApplyDelta(s.Secret.Points)
	c.notify(fmt.Sprintf("🏅 Secret mission complete! +%d points", s.Secret.Points), NoticeSuccess)
	c.checkAchievements(0)
	c.persist()
	return nil
}

// failSecret marks the secret mission failed and offers a penalty challenge
// against the timeout penalty.
func (c *Controller) failSecret() {
	s := c.Session
	s.Secret.Status = SecretFailed
	s.Secret.SecondsRemaining = 0
	c.notify("⏱ Secret mission failed!", NoticeError)
	c.offerPenalty("secret", 0, SecretTimeoutPenalty)
}

// offerPenalty presents one random penalty challenge against the given base
// penalty. Offers queue when one is already on screen; nothing is deducted
// until the offer resolves.
func (c *Controller) offerPenalty(source string, missionID, basePenalty int) {
	s := c.Session
	def := s.catalog.PenaltyChallenges[s.rng.Intn(len(s.catalog.PenaltyChallenges))]
	offer := &PenaltyOffer{
		Source:           source,
		MissionID:        missionID,
		Challenge:        def.Task,
		BasePenalty:      basePenalty,
		SecondsRemaining: def.TimeLimitMinutes * 60,
	}
	if s.Penalty == nil {
		s.Penalty = offer
	} else {
		s.PenaltyQueue = append(s.PenaltyQueue, offer)
	}
	c.notify(fmt.Sprintf("⚠️ Penalty challenge: %s", def.Task), NoticeError)
}

// ResolvePenalty settles the pending offer. Completing the challenge reduces
// the deduction to 60% of the base (floored); declining or timing out applies
// it in full. The next queued offer, if any, takes the slot.
func (c *Controller) ResolvePenalty(completed bool) error {
	s := c.Session
	if s.Penalty == nil {
		return ErrNoPenaltyPending
	}
	offer := s.Penalty
	if completed {
		reduced := offer.BasePenalty * PenaltyReductionNum / PenaltyReductionDen
		s.Ledger.ApplyDelta(-reduced)
		s.Ledger.PenaltyChallengesCompleted++
		c.notify(fmt.Sprintf("💪 Challenge complete! Penalty reduced to -%d", reduced), NoticeSuccess)
	} else {
		s.Ledger.ApplyDelta(-offer.BasePenalty)
		s.Ledger.PenaltyChallengesFailed++
		c.notify(fmt.Sprintf("📉 Penalty applied: -%d points", offer.BasePenalty), NoticeError)
	}
	s.Penalty = nil
	if len(s.PenaltyQueue) > 0 {
		s.Penalty = s.PenaltyQueue[0]
		s.PenaltyQueue = s.PenaltyQueue[1:]
	}
	c.persist()
	return nil
}

// EvaluateClock re-derives every mission phase and section gate from the
// session clock, records mission starts, and delivers missed-objective events.
// Each miss is latched before its penalty is offered, so re-evaluating at the
// same instant delivers the event at most once.
func (c *Controller) EvaluateClock() TimeReport {
	s := c.Session
	if s.DateLocked(time.Now()) {
		report := TimeReport{Phases: make(map[int]Phase, len(s.Missions))}
		for _, m := range s.Missions {
			report.Phases[m.ID] = PhaseLocked
			m.Phase = PhaseLocked
		}
		s.MidnightOpen = false
		return report
	}
	report := EvaluateTime(s.Clock(), s.catalog, s.MissionRuntime(), s.Override)

	changed := false
	for _, m := range s.Missions {
		phase := report.Phases[m.ID]
		if phase == m.Phase {
			continue
		}
		m.Phase = phase
		changed = true
		if phase == PhaseActive {
			s.Stats.RecordMissionStart(m.ID)
		}
		if phase == PhaseExpired && m.MainCompleted {
			m.Collapsed = true
		}
	}
	if report.SectionsUnlocked && !s.SectionsUnlocked {
		s.SectionsUnlocked = true
		changed = true
	}
	if report.MidnightOpen != s.MidnightOpen {
		s.MidnightOpen = report.MidnightOpen
		changed = true
	}

	for _, id := range report.Missed {
		m := s.Mission(id)
		if m == nil {
			continue
		}
		m.MissedPenaltyApplied = true
		s.Ledger.MissedMainObjectives++
		c.notify(fmt.Sprintf("⌛ Mission %d main objective missed!", id), NoticeError)
		c.offerPenalty("missed", id, MissedObjectivePenalty)
		changed = true
	}

	if changed {
		c.persist()
	}
	return report
}

// TickCountdowns advances the secret-mission and penalty timers by one second.
// Timers only move while their owner is still active; stale ticks are no-ops.
func (c *Controller) TickCountdowns() {
	s := c.Session
	if s.Secret.Status == SecretActive {
		s.Secret.SecondsRemaining--
		if s.Secret.SecondsRemaining <= 0 {
			c.failSecret()
			c.persist()
		}
	}
	if s.Penalty != nil {
		s.Penalty.SecondsRemaining--
		if s.Penalty.SecondsRemaining <= 0 {
			// ResolvePenalty persists.
			_ = c.ResolvePenalty(false)
		}
	}
}

// CompleteMidnightMission advances the ordered witching-hour sequence by one
// step and scores it. Only available while the midnight window is open; the
// sequence never skips or repeats.
func (c *Controller) CompleteMidnightMission() error {
	s := c.Session
	if !s.MidnightOpen {
		return ErrMidnightClosed
	}
	if s.MidnightCompleted >= len(s.catalog.MidnightMissions) {
		return nil
	}
	def := s.catalog.MidnightMissions[s.MidnightCompleted]
	s.MidnightCompleted++
	s.Ledger.ApplyDelta(def.Points)
	c.notify(fmt.Sprintf("🌙 Midnight mission %d complete! +%d points", s.MidnightCompleted, def.Points), NoticeSuccess)
	c.checkAchievements(0)
	c.persist()
	return nil
}

// AttachPhoto records a photo reference for a mission, unblocking its
// photo-tagged tasks. The blob itself stays client-side; only name and size
// are tracked, with the size capped at 5MB.
func (c *Controller) AttachPhoto(missionID int, name string, size int64) error {
	s := c.Session
	if s.Mission(missionID) == nil {
		return ErrUnknownMission
	}
	if size > MaxPhotoBytes {
		return ErrPhotoTooLarge
	}
	s.Photos[missionID] = &PhotoRef{Name: name, Size: size, AttachedAt: time.Now()}
	c.notify("📸 Photo attached", NoticeSuccess)
	c.checkAchievements(missionID)
	c.persist()
	return nil
}

// SetNote stores a free-form mission note; an empty text clears it.
func (c *Controller) SetNote(missionID int, text string) error {
	s := c.Session
	if s.Mission(missionID) == nil {
		return ErrUnknownMission
	}
	if text == "" {
		delete(s.Notes, missionID)
	} else {
		s.Notes[missionID] = text
	}
	c.checkAchievements(missionID)
	c.persist()
	return nil
}

// FinishOperation ends the evening: the hidden achievement reveals its real
// identity, the session is sealed, and the final summary is built.
func (c *Controller) FinishOperation() Summary {
	s := c.Session
	if !s.Finished {
		s.Finished = true
		c.unlock("hidden")
	}
	c.persist()
	return BuildSummary(s)
}

// DrawConversationCard returns a random prompt from the deck and counts the
// draw toward the communicators couple achievement.
func (c *Controller) DrawConversationCard() string {
	s := c.Session
	card := ConversationCards[s.rng.Intn(len(ConversationCards))]
	s.Extras.LastCard = card
	s.Extras.ConversationCardsUsed++
	c.checkAchievements(0)
	c.persist()
	return card
}

// LuckySpin spins the bonus wheel and applies the outcome: a point swing, a
// doubled next task, a free reroll, or an instant couple achievement.
func (c *Controller) LuckySpin() SpinOutcome {
	s := c.Session
	outcome := drawSpinOutcome(s.rng)
	s.Extras.LuckySpinsUsed++

	switch outcome.Special {
	case SpinDouble:
		s.Extras.DoubleNextTask = true
	case SpinFreeReroll:
		s.Extras.FreeRerolls++
	case SpinAchievement:
		if locked := s.Extras.lockedCoupleAchievements(); len(locked) > 0 {
			c.unlockCouple(locked[s.rng.Intn(len(locked))])
		}
	default:
		s.Ledger.ApplyDelta(outcome.Points)
	}
	c.notify(fmt.Sprintf("🎰 %s", outcome.Label), NoticeInfo)
	c.checkAchievements(0)
	c.persist()
	return outcome
}

// CompleteSurpriseChallenge awards points for an ad-hoc challenge, capped so a
// fat-fingered entry cannot swamp the score.
func (c *Controller) CompleteSurpriseChallenge(points int) error {
	if points <= 0 || points > MaxSurpriseChallengePoints {
		return ErrInvalidPoints
	}
	c.Session.Ledger.ApplyDelta(points)
	c.notify(fmt.Sprintf("🎁 Surprise challenge: +%d points", points), NoticeSuccess)
	c.persist()
	return nil
}

// ToggleSpeedRun arms or disarms speed-run mode. The bonus clock starts when
// the mode is armed and pays out on the next main-objective completion.
func (c *Controller) ToggleSpeedRun() bool {
	s := c.Session
	s.Extras.SpeedRunActive = !s.Extras.SpeedRunActive
	if s.Extras.SpeedRunActive {
		s.Extras.SpeedRunStarted = time.Now()
		c.notify("⚡ Speed run started!", NoticeInfo)
	} else {
		c.notify("⚡ Speed run cancelled", NoticeInfo)
	}
	c.persist()
	return s.Extras.SpeedRunActive
}

// ToggleCharacterSwap flips which player runs which character.
func (c *Controller) ToggleCharacterSwap() bool {
	s := c.Session
	s.Extras.CharacterSwapped = !s.Extras.CharacterSwapped
	c.persist()
	return s.Extras.CharacterSwapped
}

// RatePartner stores a 1-5 star rating for the partner's performance on a
// mission. Re-rating overwrites.
func (c *Controller) RatePartner(missionID, stars int) error {
	s := c.Session
	if s.Mission(missionID) == nil {
		return ErrUnknownMission
	}
	if stars < 1 || stars > 5 {
		return ErrInvalidRating
	}
	s.Extras.PartnerRatings[missionID] = stars
	c.persist()
	return nil
}

// TriggerCoupleAchievement unlocks a manually-witnessed couple achievement,
// e.g. both players laughing at the same moment.
func (c *Controller) TriggerCoupleAchievement(id string) error {
	if CoupleAchievement(id) == nil {
		return ErrUnknownTask
	}
	c.unlockCouple(id)
	c.persist()
	return nil
}

// SetTimeOverride installs or clears the simulated clock. An empty clock with
// restrictions enabled returns to wall time. The clock is re-evaluated
// immediately so gating reflects the new time.
func (c *Controller) SetTimeOverride(clock string, disableRestrictions bool) error {
	s := c.Session
	if clock != "" && !ValidClock(clock) {
		return fmt.Errorf("invalid clock %q: want zero-padded HH:MM", clock)
	}
	s.TestClock = clock
	s.Override = TimeOverride{
		Active:               clock != "" || disableRestrictions,
		RestrictionsDisabled: disableRestrictions,
	}
	c.EvaluateClock()
	c.persist()
	return nil
}
