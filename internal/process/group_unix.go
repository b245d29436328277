//go:build unix

package process

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// configureProcessGroup puts the child in its own process group and makes context cancellation signal the whole
// group (negative pid) rather than the direct child only.
func configureProcessGroup(cmd *exec.Cmd, gracePeriod time.Duration) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if gracePeriod <= 0 {
		cmd.Cancel = func() error {
			return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		}

		return
	}

	cmd.Cancel = func() error {
		groupID := -cmd.Process.Pid
		if err := unix.Kill(groupID, unix.SIGTERM); err != nil {
			return unix.Kill(groupID, unix.SIGKILL)
		}

		time.AfterFunc(gracePeriod, func() {
			// ESRCH once the group is gone is harmless.
			_ = unix.Kill(groupID, unix.SIGKILL)
		})

		return nil
	}
}
