package models

import "time"

// LabelOption is the {label, value} shape consumed by dropdown widgets
type LabelOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SyncMode selects how a refresh rebuilds the label set
type SyncMode string

const (
	SyncModeBatch  SyncMode = "batch"
	SyncModeFanOut SyncMode = "fanout"
)

// IsValid reports whether m is a known sync mode
func (m SyncMode) IsValid() bool {
	return m == SyncModeBatch || m == SyncModeFanOut
}

// ContextResult records the outcome of building one context's labels
type ContextResult struct {
	ContextID  string `json:"context_id"`
	LabelCount int    `json:"label_count"`
	Error      string `json:"error,omitempty"`
}

// SyncReport summarises one refresh run
type SyncReport struct {
	RunID       string          `json:"run_id"`
	Mode        SyncMode        `json:"mode"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Contexts    []ContextResult `json:"contexts"`
	LabelCount  int             `json:"label_count"`
	Error       string          `json:"error,omitempty"`
}

// FailedContexts returns the results that carry an error
func (r *SyncReport) FailedContexts() []ContextResult {
	var failed []ContextResult
	for _, c := range r.Contexts {
		if c.Error != "" {
			failed = append(failed, c)
		}
	}
	return failed
}

// RefreshScheduleJob is the scheduler entry that triggers the periodic refresh
const RefreshScheduleJob = "label_refresh"
