package snapshot

import (
	"fmt"
	"strings"
)

// Switch makes Version the current version of Environment again.
type Switch struct {
	Environment string
	From        string
	To          string
}

// RestorePlan lists what restoring a snapshot would do.
type RestorePlan struct {
	Target *Snapshot

	// Switches can be performed from versions still on disk.
	Switches []Switch

	// Unavailable lists target current versions that are no longer
	// installed. Restoring them would need a fresh install.
	Unavailable []Switch
}

// IsEmpty returns true if the plan does nothing.
func (p *RestorePlan) IsEmpty() bool {
	return len(p.Switches) == 0 && len(p.Unavailable) == 0
}

// Summary returns a human-readable summary of the plan.
func (p *RestorePlan) Summary() string {
	if p.IsEmpty() {
		return "Already at the snapshot state"
	}

	var b strings.Builder
	for _, s := range p.Switches {
		fmt.Fprintf(&b, "  ~ %s: %s -> %s\n", s.Environment, orNone(s.From), s.To)
	}
	for _, s := range p.Unavailable {
		fmt.Fprintf(&b, "  ! %s %s is no longer installed\n", s.Environment, s.To)
	}
	return strings.TrimRight(b.String(), "\n")
}

// PlanRestore compares target with current and returns the switches that
// bring every current version back to the target's. Versions installed
// since the target are left in place; only the current pointers move.
func PlanRestore(target, current *Snapshot) *RestorePlan {
	plan := &RestorePlan{Target: target}

	for _, want := range target.Envs {
		if want.Current == "" {
			continue
		}

		var have EnvState
		if e := current.Env(want.Name); e != nil {
			have = *e
		}
		if have.Current == want.Current {
			continue
		}

		s := Switch{Environment: want.Name, From: have.Current, To: want.Current}
		if contains(have.Installed, want.Current) {
			plan.Switches = append(plan.Switches, s)
		} else {
			plan.Unavailable = append(plan.Unavailable, s)
		}
	}

	return plan
}
