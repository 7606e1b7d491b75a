// Package jobs owns the diarization job registry and its state machine.
// A job moves queued -> processing -> {completed | failed}; the terminal
// states are immutable. The pipeline driver is the only writer while a
// job is active; status and deletion queries may run concurrently.
package jobs

import (
	"time"

	"github.com/callinsights/diarize/cmd/server/internal/synth"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether s is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of one diarization request.
// Result is set only when Status is completed, Error only when failed.
type Job struct {
	ID        string        `json:"job_id"`
	Status    Status        `json:"status"`
	Progress  float64       `json:"progress"`
	Result    *synth.Result `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	Checksum  string        `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}
