package domain

import "time"

// PipelineState is the per-part processing state. Transitions are strictly
// forward except StateFailed, which is reachable from any non-terminal
// state.
type PipelineState int

const (
	StatePending PipelineState = iota
	StateSearching
	StateFiltering
	StateDrilling
	StateNormalizing
	StateAggregating
	StateDone
	StateFailed
)

// String returns the string representation of a pipeline state.
func (s PipelineState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSearching:
		return "searching"
	case StateFiltering:
		return "filtering"
	case StateDrilling:
		return "drilling"
	case StateNormalizing:
		return "normalizing"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is terminal.
func (s PipelineState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// MarshalJSON encodes the state as its string form.
func (s PipelineState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Failure reason labels recorded on failed parts.
const (
	ReasonSearchUnavailable = "search_unavailable"
	ReasonCancelled         = "cancelled"
	ReasonTimeout           = "timeout"
)

// PartStatus is a read snapshot of one part's progress within a batch.
type PartStatus struct {
	Part          PartRequest   `json:"part"`
	State         PipelineState `json:"state"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

// BatchSnapshot is a read snapshot of a batch run. Snapshots are copies;
// mutating one has no effect on the scheduler's owned state.
type BatchSnapshot struct {
	BatchID   string        `json:"batch_id"`
	Parts     []PartStatus  `json:"parts"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Progress  float64       `json:"progress"`
	ETA       time.Duration `json:"eta_ns"`
	Done      bool          `json:"done"`
	StartedAt time.Time     `json:"started_at"`
}
