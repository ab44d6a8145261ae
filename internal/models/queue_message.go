package models

import (
	"encoding/json"
	"errors"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// Job types routed by the worker pool
const (
	JobTypeRefreshLabels      = "refresh_labels"
	JobTypeLoadContexts       = "load_contexts"
	JobTypeLoadContextOptions = "load_context_options"
)

// QueueMessage is the structure stored in the queue.
// Keep it simple - just enough to route the job.
type QueueMessage struct {
	JobID   string          `json:"job_id"`
	Type    string          `json:"type"`    // Job type for handler routing
	Payload json.RawMessage `json:"payload"` // Job-specific data (passed through)
}

// ContextPayload is the payload of a load_context_options job
type ContextPayload struct {
	ContextID string `json:"contextId"`
}
