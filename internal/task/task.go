// Package task models Jira's long-running asynchronous tasks and polls them
// until they finish.
package task

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state reported by the task endpoint.
type Status string

const (
	StatusEnqueued  Status = "ENQUEUED"
	StatusRunning   Status = "RUNNING"
	StatusComplete  Status = "COMPLETE"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusDead      Status = "DEAD"

	// StatusCancelRequested is reported while a cancellation is in flight.
	StatusCancelRequested Status = "CANCEL_REQUESTED"
)

// IsTerminal reports whether a task in this state will never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCancelled, StatusDead:
		return true
	}
	return false
}

// Progress of a running task. Jira reports a bare percentage; bulk
// operations additionally report item counts.
type Progress struct {
	Percent   float64 `json:"percent"`
	Succeeded int     `json:"succeeded,omitempty"`
	Total     int     `json:"total,omitempty"`
}

// UnmarshalJSON accepts either a number (percent only) or an object.
func (p *Progress) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] != '{' {
		return json.Unmarshal(data, &p.Percent)
	}
	type plain Progress
	return json.Unmarshal(data, (*plain)(p))
}

// Task is one snapshot of a remote task.
type Task struct {
	ID             string          `json:"id"`
	Self           string          `json:"self,omitempty"`
	Description    string          `json:"description,omitempty"`
	Status         Status          `json:"status"`
	Message        string          `json:"message,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	SubmittedBy    int64           `json:"submittedBy,omitempty"`
	Progress       *Progress       `json:"progress,omitempty"`
	ElapsedRuntime int64           `json:"elapsedRuntime,omitempty"`
	Submitted      int64           `json:"submitted,omitempty"`
	Started        int64           `json:"started,omitempty"`
	Finished       int64           `json:"finished,omitempty"`
	LastUpdate     int64           `json:"lastUpdate,omitempty"`
}

// ProgressLine renders the one-line progress report printed while waiting.
func (t *Task) ProgressLine() string {
	if t.Progress == nil {
		return fmt.Sprintf("Status: %s", t.Status)
	}
	return fmt.Sprintf("Progress: %.0f%% (%d/%d)", t.Progress.Percent, t.Progress.Succeeded, t.Progress.Total)
}

// Plain renders the task for plain-text output.
func (t *Task) Plain() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Task: %s\n", t.ID)
	fmt.Fprintf(&b, "Status: %s", t.Status)
	if t.Progress != nil {
		fmt.Fprintf(&b, "\nProgress: %.0f%%", t.Progress.Percent)
		if t.Progress.Total > 0 {
			fmt.Fprintf(&b, " (%d/%d)", t.Progress.Succeeded, t.Progress.Total)
		}
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", t.Description)
	}
	if t.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", t.Message)
	}
	if len(t.Result) > 0 && !bytes.Equal(t.Result, []byte("null")) {
		fmt.Fprintf(&b, "\nResult: %s", t.Result)
	}
	return b.String()
}
