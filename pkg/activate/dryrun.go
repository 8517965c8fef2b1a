package activate

import "fmt"

// DryRun records activation calls without persisting anything.
type DryRun struct {
	Calls []string
}

func (d *DryRun) SetVariable(name, value string) error {
	d.Calls = append(d.Calls, fmt.Sprintf("set %s=%s", name, value))
	return nil
}

func (d *DryRun) ExtendSearchPath(base, segment string) error {
	if base != "" {
		d.Calls = append(d.Calls, fmt.Sprintf("path +%s (relative to %s)", segment, base))
		return nil
	}
	d.Calls = append(d.Calls, fmt.Sprintf("path +%s", segment))
	return nil
}
