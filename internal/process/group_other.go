//go:build !unix

package process

import (
	"os/exec"
	"time"
)

// configureProcessGroup keeps the exec default, which kills the direct child only.
func configureProcessGroup(_ *exec.Cmd, _ time.Duration) {}
