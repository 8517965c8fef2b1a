// Package history records devenv operations in a BoltDB log.
package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operation represents the type of environment operation.
type Operation string

const (
	OpInstall  Operation = "install"
	OpSwitch   Operation = "switch"
	OpFlush    Operation = "flush"
	OpClean    Operation = "clean"
	OpSetRoot  Operation = "set-root"
	OpRollback Operation = "rollback"
)

// Entry represents a single operation in the history.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Operation   Operation `json:"operation"`
	Environment string    `json:"environment,omitempty"`
	Version     string    `json:"version,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`

	// Previous is the version that was current before the operation. An
	// install or switch can be rolled back by making it current again.
	Previous string `json:"previous,omitempty"`

	// Detail carries free-form context such as a removed cache path.
	Detail string `json:"detail,omitempty"`
}

// NewEntry creates a new history entry.
func NewEntry(op Operation, environment, version string) *Entry {
	return &Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Operation:   op,
		Environment: environment,
		Version:     version,
	}
}

// MarkSuccess marks the entry as successful.
func (e *Entry) MarkSuccess() {
	e.Success = true
	e.Error = ""
}

// MarkFailed marks the entry as failed with an error message.
func (e *Entry) MarkFailed(err error) {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
}

// Finish marks the entry from the outcome of an operation.
func (e *Entry) Finish(err error) {
	if err != nil {
		e.MarkFailed(err)
		return
	}
	e.MarkSuccess()
}

// CanRollback returns true if the previously current version can be
// restored.
func (e *Entry) CanRollback() bool {
	if !e.Success || e.Previous == "" || e.Previous == e.Version {
		return false
	}
	return e.Operation == OpInstall || e.Operation == OpSwitch
}

// FormatTime returns a human-readable timestamp.
func (e *Entry) FormatTime() string {
	return e.Timestamp.Format("2006-01-02 15:04:05")
}

// Target returns "name version", or just the name when there is no version.
func (e *Entry) Target() string {
	if e.Version == "" {
		return e.Environment
	}
	return e.Environment + " " + e.Version
}

// Summary returns a brief summary of the operation.
func (e *Entry) Summary() string {
	status := "success"
	if !e.Success {
		status = "failed"
	}

	if e.Environment == "" {
		return fmt.Sprintf("%s %s (%s)", e.FormatTime(), e.Operation, status)
	}
	return fmt.Sprintf("%s %s %s (%s)", e.FormatTime(), e.Operation, e.Target(), status)
}
