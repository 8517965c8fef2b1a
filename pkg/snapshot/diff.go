package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeType represents the type of change between snapshots.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"    // Version was installed
	ChangeRemoved  ChangeType = "removed"  // Version disappeared
	ChangeSwitched ChangeType = "switched" // Current version changed
)

// Change is one difference between two snapshots.
type Change struct {
	Type        ChangeType `json:"type"`
	Environment string     `json:"environment"`
	OldVersion  string     `json:"old_version,omitempty"`
	NewVersion  string     `json:"new_version,omitempty"`
}

// String returns a human-readable description of the change.
func (c Change) String() string {
	switch c.Type {
	case ChangeAdded:
		return fmt.Sprintf("+ %s %s", c.Environment, c.NewVersion)
	case ChangeRemoved:
		return fmt.Sprintf("- %s %s", c.Environment, c.OldVersion)
	case ChangeSwitched:
		return fmt.Sprintf("~ %s: %s -> %s", c.Environment, orNone(c.OldVersion), orNone(c.NewVersion))
	default:
		return fmt.Sprintf("? %s", c.Environment)
	}
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

// Diff is the difference between two snapshots.
type Diff struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Changes []Change `json:"changes"`
}

// IsEmpty returns true if there are no changes.
func (d *Diff) IsEmpty() bool {
	return len(d.Changes) == 0
}

// Of returns the changes of type t.
func (d *Diff) Of(t ChangeType) []Change {
	var result []Change
	for _, c := range d.Changes {
		if c.Type == t {
			result = append(result, c)
		}
	}
	return result
}

// Summary returns a brief summary of the diff.
func (d *Diff) Summary() string {
	if d.IsEmpty() {
		return "No changes"
	}

	var parts []string
	if n := len(d.Of(ChangeAdded)); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d added", n))
	}
	if n := len(d.Of(ChangeRemoved)); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d removed", n))
	}
	if n := len(d.Of(ChangeSwitched)); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d switched", n))
	}
	return strings.Join(parts, ", ")
}

// Compare computes the changes that lead from one snapshot to another.
// 'from' is the older snapshot, 'to' the newer one.
func Compare(from, to *Snapshot) *Diff {
	diff := &Diff{
		From:    from.ID,
		To:      to.ID,
		Changes: []Change{},
	}

	names := make(map[string]string)
	for _, e := range from.Envs {
		names[strings.ToLower(e.Name)] = e.Name
	}
	for _, e := range to.Envs {
		names[strings.ToLower(e.Name)] = e.Name
	}

	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := names[k]
		var old, cur EnvState
		if e := from.Env(name); e != nil {
			old = *e
		}
		if e := to.Env(name); e != nil {
			cur = *e
		}

		for _, v := range cur.Installed {
			if !contains(old.Installed, v) {
				diff.Changes = append(diff.Changes, Change{Type: ChangeAdded, Environment: name, NewVersion: v})
			}
		}
		for _, v := range old.Installed {
			if !contains(cur.Installed, v) {
				diff.Changes = append(diff.Changes, Change{Type: ChangeRemoved, Environment: name, OldVersion: v})
			}
		}
		if old.Current != cur.Current {
			diff.Changes = append(diff.Changes, Change{
				Type:        ChangeSwitched,
				Environment: name,
				OldVersion:  old.Current,
				NewVersion:  cur.Current,
			})
		}
	}

	return diff
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
