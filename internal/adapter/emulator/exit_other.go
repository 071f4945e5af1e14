//go:build !linux

package emulator

import "os/exec"

// awaitExit has no non-reaping wait here; stragglers are only killed through
// cmd.Cancel on timeout or cancellation.
func awaitExit(cmd *exec.Cmd) bool {
	return false
}
