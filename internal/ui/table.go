package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a new table with default styling.
func NewTable(header []string) *Table {
	return NewTableWriter(os.Stdout, header)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, header []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	t := &Table{
		writer:  tw,
		headers: header,
	}

	if len(header) > 0 {
		headerRow := make([]string, len(header))
		for i, h := range header {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(headerRow, "\t"))
	}

	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row []string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render outputs the table.
func (t *Table) Render() {
	t.writer.Flush()
}

// EnvRow is one line of the environment listing.
type EnvRow struct {
	Name      string
	Supported bool
	Current   string
	Installed []string
	Available int
}

// PrintEnvironments prints the environment listing to w.
func PrintEnvironments(w io.Writer, rows []EnvRow) {
	if len(rows) == 0 {
		MutedMsg("No environments found")
		return
	}

	t := NewTableWriter(w, []string{"environment", "current", "installed", "available"})

	for _, r := range rows {
		name := EnvName.Sprint(r.Name)
		if !r.Supported {
			name += " " + NotInstalled.Sprint("[unsupported]")
		}

		current := NotInstalled.Sprint("-")
		if r.Current != "" {
			current = Current.Sprint(SymbolCurrent + " " + r.Current)
		}

		installed := NotInstalled.Sprint("none")
		if len(r.Installed) > 0 {
			installed = Installed.Sprint(strings.Join(r.Installed, ", "))
		}

		t.AddRow([]string{name, current, installed, fmt.Sprintf("%d", r.Available)})
	}

	t.Render()
}

// PrintVersions prints every catalog version of one environment, marking the
// current and installed ones.
func PrintVersions(w io.Writer, name string, versions []string, current string, installed map[string]string) {
	fmt.Fprintf(w, "%s\n", Header.Sprint(name))

	for _, v := range versions {
		dir, ok := installed[v]
		switch {
		case v == current:
			fmt.Fprintf(w, "  %s %s  %s\n", Current.Sprint(SymbolCurrent), EnvVersion.Sprint(v), EnvPath.Sprint(dir))
		case ok:
			fmt.Fprintf(w, "  %s %s  %s\n", Installed.Sprint(SymbolSuccess), v, EnvPath.Sprint(dir))
		default:
			fmt.Fprintf(w, "  %s %s\n", NotInstalled.Sprint(SymbolPending), NotInstalled.Sprint(v))
		}
	}
}

// PrintSystemInfo prints system information.
func PrintSystemInfo(prettyName, arch, platformKey, hostname, kernelArch string) {
	HeaderMsg("System Information")

	Field("Operating System", prettyName)
	Field("Architecture", arch)

	if kernelArch != "" && kernelArch != arch {
		Field("Kernel Architecture", kernelArch)
	}

	Field("Catalog Platform", platformKey)

	if hostname != "" {
		Field("Hostname", hostname)
	}
}
