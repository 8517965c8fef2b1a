//go:build !windows

package executor

import "os"

func isElevated() bool {
	return os.Geteuid() == 0
}
