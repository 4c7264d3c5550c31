package model

import "time"

// RunStatus is the lifecycle state of one pipeline run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	return s == RunSucceeded || s == RunFailed
}

// CanTransition reports whether a run may move from one status to another.
// Pending runs are dispatched to running; running runs end succeeded or failed.
// A pending run may also fail when it is cancelled before dispatch.
func CanTransition(from, to RunStatus) bool {
	switch from {
	case RunPending:
		return to == RunRunning || to == RunFailed
	case RunRunning:
		return to == RunSucceeded || to == RunFailed
	default:
		return false
	}
}

// StageStatus is the state of one stage within a run.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// RunRecord is a persisted run.
type RunRecord struct {
	ID          string        `json:"id"`
	Pipeline    string        `json:"pipeline"`
	Status      RunStatus     `json:"status"`
	FailedStage string        `json:"failed_stage,omitempty"`
	RetryOf     string        `json:"retry_of,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Stages      []StageRecord `json:"stages,omitempty"`
}

// StageRecord is the persisted progress of one stage of a run.
type StageRecord struct {
	RunID     string      `json:"run_id"`
	StageID   string      `json:"stage_id"`
	Position  int         `json:"position"`
	Status    StageStatus `json:"status"`
	Attempts  int         `json:"attempts"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Duration is zero until the stage has both started and ended.
func (s StageRecord) Duration() time.Duration {
	if s.StartedAt == nil || s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(*s.StartedAt)
}

// ErrorRecord is a persisted run error.
type ErrorRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	StageID   string    `json:"stage_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
