package pipeline

import "fmt"

// State is a step of the acquisition state machine.
type State int

const (
	CheckLocal State = iota
	Skip
	Fetching
	Extracting
	Normalizing
	Activating
	Recording
	Done
	Failed
)

var stateNames = [...]string{
	CheckLocal:  "check-local",
	Skip:        "skip",
	Fetching:    "fetching",
	Extracting:  "extracting",
	Normalizing: "normalizing",
	Activating:  "activating",
	Recording:   "recording",
	Done:        "done",
	Failed:      "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// StageError reports the state in which a run failed.
type StageError struct {
	Stage   State
	Name    string
	Version string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed for %s %s: %v", e.Stage, e.Name, e.Version, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
