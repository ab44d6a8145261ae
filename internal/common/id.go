package common

import "github.com/google/uuid"

// NewRunID returns a correlation id for one sync run or refresh unit
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// NewJobID returns the id of a queued job
func NewJobID() string {
	return "job_" + uuid.New().String()
}
