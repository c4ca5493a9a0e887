package game

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLedgerUndoEmpty(t *testing.T) {
	var l Ledger
	if _, err := l.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("undo on empty history: got %v, want ErrNothingToUndo", err)
	}
	if l.TotalScore != 0 {
		t.Errorf("score changed on failed undo: %d", l.TotalScore)
	}
}

func TestLedgerHistoryCap(t *testing.T) {
	var l Ledger
	for i := 0; i < MaxHistorySize+5; i++ {
		l.RecordAction(Action{
			Kind:        ActionTask,
			TaskID:      fmt.Sprintf("task-%d", i),
			ScoreBefore: i,
			At:          time.Now(),
		})
	}
	if len(l.History) != MaxHistorySize {
		t.Fatalf("history length %d, want %d", len(l.History), MaxHistorySize)
	}
	if l.History[0].TaskID != "task-5" {
		t.Errorf("oldest entries should be evicted first, got %s", l.History[0].TaskID)
	}
}

func TestLedgerUndoRestoresScoreVerbatim(t *testing.T) {
	var l Ledger
	l.ApplyDelta(30)
	l.CompletedMiniGames++
	l.RecordAction(Action{Kind: ActionTask, TaskKind: TaskMiniGame, ScoreBefore: 0})

	// Deltas applied after the recorded action are deliberately discarded:
	// the undo contract restores the recorded score, not a recomputed one.
	l.ApplyDelta(7)

	a, err := l.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if a.Kind != ActionTask {
		t.Errorf("popped kind %s, want task", a.Kind)
	}
	if l.TotalScore != 0 {
		t.Errorf("score %d after undo, want 0 (verbatim restore)", l.TotalScore)
	}
	if l.CompletedMiniGames != 0 {
		t.Errorf("mini-game counter %d after undo, want 0", l.CompletedMiniGames)
	}
}

func TestLedgerUndoCounterPerKind(t *testing.T) {
	var l Ledger
	l.CompletedSideQuests = 2
	l.RecordAction(Action{Kind: ActionTask, TaskKind: TaskSideQuest, ScoreBefore: 40})
	if _, err := l.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if l.CompletedSideQuests != 1 {
		t.Errorf("side-quest counter %d, want 1", l.CompletedSideQuests)
	}

	l.RerollsUsed = 1
	l.RecordAction(Action{Kind: ActionReroll, ScoreBefore: 40})
	if _, err := l.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if l.RerollsUsed != 0 {
		t.Errorf("reroll counter %d, want 0", l.RerollsUsed)
	}
}
