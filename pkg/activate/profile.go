package activate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wengchengjian/env/pkg/errdefs"
)

// ProfileActivator persists state as export lines in a shell profile.
type ProfileActivator struct {
	Path string
}

// NewProfile returns an activator for the profile at path.
func NewProfile(path string) *ProfileActivator {
	return &ProfileActivator{Path: path}
}

// SetVariable removes every assignment of name and appends a fresh one.
// Assignments nested in a block are replaced by the no-op ":" so the block
// keeps a body.
func (p *ProfileActivator) SetVariable(name, value string) error {
	lines, mode, err := p.read()
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if !assigns(line, name) {
			kept = append(kept, line)
			continue
		}
		if indent := leadingSpace(line); indent != "" {
			kept = append(kept, indent+":")
		}
	}
	kept = append(kept, "export "+name+"="+quote(value))

	return p.write(kept, mode)
}

// ExtendSearchPath adds segment to the devenv PATH line, a top-level
// "export PATH=$PATH:..." assignment kept at the end of the file so that it
// follows any variable it references. PATH lines written by the user are
// never rewritten or moved.
func (p *ProfileActivator) ExtendSearchPath(base, segment string) error {
	if base != "" {
		segment = "$" + base + "/" + filepath.ToSlash(segment)
	}

	lines, mode, err := p.read()
	if err != nil {
		return err
	}

	idx := -1
	for i, line := range lines {
		if ownsPath(line) {
			idx = i
		}
	}

	entries := []string{"$PATH"}
	if idx >= 0 {
		entries = pathEntries(lines[idx])
		if containsEntry(entries, segment) && idx == len(lines)-1 {
			return nil
		}
		lines = append(lines[:idx:idx], lines[idx+1:]...)
	}
	if !containsEntry(entries, segment) {
		entries = append(entries, segment)
	}

	lines = append(lines, pathLine(entries))
	return p.write(lines, mode)
}

// assigns reports whether line assigns name, with or without export.
func assigns(line, name string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "export ")
	trimmed = strings.TrimLeft(trimmed, " \t")
	return strings.HasPrefix(trimmed, name+"=")
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// ownsPath reports whether line is a top-level export that appends to the
// inherited PATH, the only kind of PATH line devenv rewrites.
func ownsPath(line string) bool {
	if !strings.HasPrefix(line, "export PATH=") {
		return false
	}
	entries := pathEntries(line)
	return len(entries) > 0 && (entries[0] == "$PATH" || entries[0] == "${PATH}")
}

// pathEntries splits the value of a PATH assignment line, undoing the
// double quoting pathLine applies.
func pathEntries(line string) []string {
	_, value, _ := strings.Cut(line, "=")
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = unescapeDouble(value[1 : len(value)-1])
	} else {
		value = strings.Trim(value, "'")
	}
	if value == "" {
		return nil
	}
	return strings.Split(value, ":")
}

// pathLine renders entries double quoted, so entries with spaces survive
// while $PATH and $BASE references still expand.
func pathLine(entries []string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`")
	return `export PATH="` + r.Replace(strings.Join(entries, ":")) + `"`
}

func unescapeDouble(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\"`, `"`, "\\`", "`")
	return r.Replace(s)
}

func containsEntry(entries []string, segment string) bool {
	for _, e := range entries {
		if e == segment {
			return true
		}
	}
	return false
}

// quote wraps value in double quotes when the shell would otherwise split
// or expand it.
func quote(value string) string {
	if value != "" && !strings.ContainsAny(value, " \t\"'\\$`;&|<>()*?!#~") {
		return value
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")
	return `"` + r.Replace(value) + `"`
}

func (p *ProfileActivator) read() ([]string, os.FileMode, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0644, nil
		}
		return nil, 0, classify("read profile", p.Path, err)
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(p.Path); err == nil {
		mode = info.Mode().Perm()
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, mode, nil
	}
	return strings.Split(text, "\n"), mode, nil
}

// write replaces the profile atomically with a temp file in the same
// directory. A symlinked profile is replaced at its target so the link
// survives.
func (p *ProfileActivator) write(lines []string, mode os.FileMode) error {
	target := p.Path
	if resolved, err := filepath.EvalSymlinks(p.Path); err == nil {
		target = resolved
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return classify("create profile dir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".devenv-profile-*")
	if err != nil {
		return classify("create temp profile", target, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	content := strings.Join(lines, "\n") + "\n"
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return classify("write profile", p.Path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return classify("sync profile", p.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return classify("close profile", p.Path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return classify("chmod profile", p.Path, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return classify("replace profile", target, err)
	}

	return nil
}

func classify(op, path string, err error) error {
	if os.IsPermission(err) {
		return errdefs.Permission(op, path, err)
	}
	return errdefs.IO(op, path, err)
}
