package game

import (
	"errors"
	"time"
)

// Soft failures surfaced to the user as notifications, never fatal.
var (
	ErrNothingToUndo        = errors.New("no actions to undo")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	ErrPhotoRequired        = errors.New("a photo must be attached to this mission first")
	ErrMaxRerolls           = errors.New("maximum rerolls reached for this mission")
	ErrNothingToReroll      = errors.New("no pending tasks left to reroll")
	ErrUnknownMission       = errors.New("unknown mission")
	ErrUnknownTask          = errors.New("unknown task")
	ErrPhotoTooLarge        = errors.New("photo too large (max 5MB)")
)

// ActionKind tags a reversible action in the undo history.
type ActionKind string

const (
	ActionTask          ActionKind = "task"
	ActionMainObjective ActionKind = "main_objective"
	ActionReroll        ActionKind = "reroll"
)

// Action captures enough state to invert exactly one step. ScoreBefore is
// restored verbatim on undo rather than re-derived from deltas.
type Action struct {
	Kind        ActionKind `json:"kind"`
	MissionID   int        `json:"mission_id"`
	TaskID      string     `json:"task_id,omitempty"`
	TaskKind    TaskKind   `json:"task_kind,omitempty"`
	ScoreBefore int        `json:"score_before"`
	At          time.Time  `json:"at"`
}

// Ledger owns the running score, the cumulative counters, and the bounded
// undo history. It is mutated only through its methods; presentation reads it
// via DTOs.
type Ledger struct {
	TotalScore int `json:"total_score"`

	CompletedMainObjectives    int `json:"completed_main_objectives"`
	CompletedMiniGames         int `json:"completed_mini_games"`
	CompletedSideQuests        int `json:"completed_side_quests"`
	MissedMainObjectives       int `json:"missed_main_objectives"`
	RerollsUsed                int `json:"rerolls_used"`
	PenaltyChallengesCompleted int `json:"penalty_challenges_completed"`
	PenaltyChallengesFailed    int `json:"penalty_challenges_failed"`

	History []Action `json:"history"`
}

// ApplyDelta accumulates points into the total. No floor or ceiling: the
// total may go negative transiently.
func (l *Ledger) ApplyDelta(points int) int {
	l.TotalScore += points
	return l.TotalScore
}

// RecordAction appends to the undo history, silently evicting the oldest
// entry beyond capacity.
func (l *Ledger) RecordAction(a Action) {
	l.History = append(l.History, a)
	if len(l.History) > MaxHistorySize {
		l.History = l.History[len(l.History)-MaxHistorySize:]
	}
}

// Undo pops the most recent action, restores the recorded score verbatim and
// reverts the counter tied to the action kind. Entity-level state (task and
// objective flags, per-mission reroll counts) is the caller's to revert.
func (l *Ledger) Undo() (Action, error) {
	if len(l.History) == 0 {
		return Action{}, ErrNothingToUndo
	}
	last := l.History[len(l.History)-1]
	l.History = l.History[:len(l.History)-1]
	l.TotalScore = last.ScoreBefore

	switch last.Kind {
	case ActionTask:
		if last.TaskKind == TaskMiniGame {
			l.CompletedMiniGames--
		} else {
			l.CompletedSideQuests--
		}
	case ActionMainObjective:
		l.CompletedMainObjectives--
	case ActionReroll:
		l.RerollsUsed--
	}
	return last, nil
}
