package game

import "time"

// TaskCompletion is one timestamped task-completion record.
type TaskCompletion struct {
	Kind      TaskKind  `json:"kind"`
	MissionID int       `json:"mission_id"`
	At        time.Time `json:"at"`
}

// Statistics accumulates timing data for the end-of-night summary.
type Statistics struct {
	TaskCompletions        []TaskCompletion  `json:"task_completions"`
	MissionStartTimes      map[int]time.Time `json:"mission_start_times"`
	MissionCompletionTimes map[int]time.Time `json:"mission_completion_times"`
}

// NewStatistics returns an empty statistics block.
func NewStatistics() Statistics {
	return Statistics{
		MissionStartTimes:      make(map[int]time.Time),
		MissionCompletionTimes: make(map[int]time.Time),
	}
}

// RecordTaskCompletion appends one completion record.
func (st *Statistics) RecordTaskCompletion(kind TaskKind, missionID int) {
	st.TaskCompletions = append(st.TaskCompletions, TaskCompletion{
		Kind:      kind,
		MissionID: missionID,
		At:        time.Now(),
	})
}

// RecordMissionStart stores the first observed start time for a mission.
func (st *Statistics) RecordMissionStart(missionID int) {
	if st.MissionStartTimes == nil {
		st.MissionStartTimes = make(map[int]time.Time)
	}
	if _, ok := st.MissionStartTimes[missionID]; !ok {
		st.MissionStartTimes[missionID] = time.Now()
	}
}

// RecordMissionCompletion stores the first completion time for a mission.
func (st *Statistics) RecordMissionCompletion(missionID int) {
	if st.MissionCompletionTimes == nil {
		st.MissionCompletionTimes = make(map[int]time.Time)
	}
	if _, ok := st.MissionCompletionTimes[missionID]; !ok {
		st.MissionCompletionTimes[missionID] = time.Now()
	}
}

// AverageMissionMinutes returns the mean minutes between recorded mission
// start and completion times, 0 when nothing completed yet.
func (st *Statistics) AverageMissionMinutes() float64 {
	if len(st.MissionCompletionTimes) == 0 {
		return 0
	}
	var total float64
	for id, end := range st.MissionCompletionTimes {
		start, ok := st.MissionStartTimes[id]
		if !ok {
			start = end
		}
		total += end.Sub(start).Minutes()
	}
	return total / float64(len(st.MissionCompletionTimes))
}
