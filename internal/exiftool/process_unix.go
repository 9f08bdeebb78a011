//go:build linux || darwin

package exiftool

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup places cmd in its own process group so that
// signalProcessGroup can reach an interpreter's children as well as the
// interpreter itself.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalProcessGroup signals the whole process group rooted at cmd's pid.
func signalProcessGroup(cmd *exec.Cmd, sig procSignal) error {
	unixSig := unix.SIGTERM
	if sig == procSignalKill {
		unixSig = unix.SIGKILL
	}

	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unixSig); err != nil {
		// The group signal can fail if the child already reaped its
		// grandchildren; fall back to signalling the direct child.
		return cmd.Process.Signal(syscall.Signal(unixSig))
	}
	return nil
}
