//go:build !windows

package executor

import (
	"errors"
	"os/exec"
	"syscall"
)

// setupProcessGroup configures command to run in its own process group.
// this allows killing all descendant processes, SUFI2 shell launchers spawn the model binaries as children.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the entire process group.
// no graceful SIGTERM step, a killed calibration pass is discarded anyway.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	pgid := -cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil {
		// ESRCH means the group already exited
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return err
	}
	return nil
}
