package environment

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// ValidVersion reports whether v is a dotted numeric version, optionally
// with a pre-release suffix ("17.0.9", "16.1", "1.22.0-beta1").
func ValidVersion(v string) bool {
	if v == "" || strings.HasPrefix(v, "v") {
		return false
	}
	return semver.IsValid("v" + v)
}

// CompareVersions compares a and b the way semver does, falling back to a
// string comparison for malformed input.
func CompareVersions(a, b string) int {
	if ValidVersion(a) && ValidVersion(b) {
		return semver.Compare("v"+a, "v"+b)
	}
	return strings.Compare(a, b)
}

// SortVersions returns a copy of versions, newest first.
func SortVersions(versions []string) []string {
	out := append([]string(nil), versions...)
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVersions(out[i], out[j]) > 0
	})
	return out
}

// Major returns the major component, e.g. "17" for "17.0.9".
func Major(v string) string {
	if !ValidVersion(v) {
		return ""
	}
	return strings.TrimPrefix(semver.Major("v"+v), "v")
}
