package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrPasswordMismatch is returned when the confirmation does not match.
var ErrPasswordMismatch = errors.New("passwords do not match")

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   "",
	}

	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		if err == promptui.ErrInterrupt {
			return false, err
		}
		return defaultYes, nil
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// Choice is one entry of an environment picker.
type Choice struct {
	Name        string
	Description string
	Current     string
	Installed   int
}

// SelectEnvironment prompts the user to pick one environment.
func SelectEnvironment(choices []Choice, prompt string) (*Choice, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("no environments to select from")
	}

	if len(choices) == 1 {
		return &choices[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ if .Current }}{{ .Current | green }}{{ end }}",
		Inactive: "  {{ .Name }} {{ if .Current }}{{ .Current | faint }}{{ end }}",
		Selected: "✓ {{ .Name | cyan }}",
		Details: `
--------- Environment ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Description:" | faint }}	{{ .Description }}
{{ "Current:" | faint }}	{{ if .Current }}{{ .Current }}{{ else }}-{{ end }}
{{ "Installed:" | faint }}	{{ .Installed }}`,
	}

	searcher := func(input string, index int) bool {
		name := strings.ToLower(choices[index].Name)
		return strings.Contains(name, strings.ToLower(input))
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     choices,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, err
	}

	return &choices[index], nil
}

// VersionLabel decorates a version for display in a picker.
func VersionLabel(version, current string, installed bool) string {
	switch {
	case version == current:
		return version + " (current)"
	case installed:
		return version + " (installed)"
	}
	return version
}

// SelectVersion prompts the user to pick a version. labels are shown and the
// matching entry of versions is returned. defaultIdx positions the cursor.
func SelectVersion(versions, labels []string, defaultIdx int, prompt string) (string, error) {
	if len(versions) == 0 {
		return "", fmt.Errorf("no versions available")
	}
	if len(labels) != len(versions) {
		labels = versions
	}

	idx, err := SelectOption(labels, defaultIdx, prompt)
	if err != nil {
		return "", err
	}
	return versions[idx], nil
}

// SelectOption prompts the user to pick one of items and returns its index.
func SelectOption(items []string, defaultIdx int, prompt string) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("no options available")
	}

	if len(items) == 1 {
		return 0, nil
	}

	if defaultIdx < 0 || defaultIdx >= len(items) {
		defaultIdx = 0
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     items,
		Size:      10,
		CursorPos: defaultIdx,
	}

	index, _, err := p.Run()
	if err != nil {
		return 0, err
	}

	return index, nil
}

// Input prompts the user for text input.
func Input(prompt string, defaultValue string) (string, error) {
	p := promptui.Prompt{
		Label:     prompt,
		Default:   defaultValue,
		AllowEdit: true,
	}

	result, err := p.Run()
	if err != nil {
		return defaultValue, err
	}

	return result, nil
}

// Password prompts twice for a masked value. An empty value is accepted
// without confirmation.
func Password(prompt string) (string, error) {
	first := promptui.Prompt{Label: prompt, Mask: '*'}

	value, err := first.Run()
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", nil
	}

	again := promptui.Prompt{Label: "Confirm " + strings.ToLower(prompt), Mask: '*'}
	confirm, err := again.Run()
	if err != nil {
		return "", err
	}
	if confirm != value {
		return "", ErrPasswordMismatch
	}

	return value, nil
}

// SelectMultiple prompts the user to select multiple items.
// promptui has no multi-select, so items are numbered and picked by index.
func SelectMultiple(items []string, prompt string) ([]string, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items to select from")
	}

	fmt.Println(prompt)
	fmt.Println("Enter numbers separated by spaces (e.g., '1 3 5'), or 'all' for all items:")
	fmt.Println()

	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}

	fmt.Println()

	p := promptui.Prompt{
		Label: "Selection",
	}

	result, err := p.Run()
	if err != nil {
		return nil, err
	}

	return ParseSelection(result, items), nil
}

// ParseSelection resolves a "1 3 5" or "all" answer against items.
// Out-of-range and repeated indexes are ignored.
func ParseSelection(answer string, items []string) []string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}

	if strings.EqualFold(answer, "all") {
		return append([]string(nil), items...)
	}

	var selected []string
	seen := make(map[int]bool)
	for _, part := range strings.FieldsFunc(answer, func(r rune) bool { return r == ' ' || r == ',' }) {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 1 || idx > len(items) || seen[idx] {
			continue
		}
		seen[idx] = true
		selected = append(selected, items[idx-1])
	}

	return selected
}
