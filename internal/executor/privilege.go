package executor

// IsElevated reports whether the process runs as root or administrator.
// Activation then targets the elevated account's profile, which is rarely
// what the user wants.
func IsElevated() bool {
	return isElevated()
}
